package core

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"estateledger/internal/infra/config"
	blobmemory "estateledger/internal/infra/blob/memory"
	"estateledger/internal/infra/persistence/blobstate"
	"estateledger/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSnapshots struct {
	saved   []Snapshot
	stored  *Snapshot
	failNow bool
	closed  bool
}

func (r *recordingSnapshots) Save(_ context.Context, s Snapshot) error {
	if r.failNow {
		return errors.New("disk full")
	}
	r.saved = append(r.saved, s.Clone())
	cp := s.Clone()
	r.stored = &cp
	return nil
}

func (r *recordingSnapshots) Restore(context.Context) (Snapshot, bool, error) {
	if r.stored == nil {
		return domain.NewSnapshot(), false, nil
	}
	return r.stored.Clone(), true, nil
}

func (r *recordingSnapshots) Close() error {
	r.closed = true
	return nil
}

func TestEveryMutationIsSaved(t *testing.T) {
	ctx := context.Background()
	snapshots := &recordingSnapshots{}
	svc := NewInMemoryService(nil, WithSnapshotStore(snapshots))

	_, err := svc.RegisterUser(ctx, alice)
	require.NoError(t, err)
	p := registerSample(t, svc, bob)
	_, err = svc.BuyShares(ctx, alice, p.ID, 3)
	require.NoError(t, err)
	_, err = svc.RegisterLease(ctx, alice, LeaseInput{PropertyID: p.ID})
	require.NoError(t, err)
	require.Len(t, snapshots.saved, 4)
	assert.Equal(t, svc.ExportSnapshot(), snapshots.saved[3])

	_, err = svc.ListProperties(ctx)
	require.NoError(t, err)
	_, err = svc.GetOrCreateUser(ctx, alice)
	require.NoError(t, err)
	_, err = svc.BuyShares(ctx, alice, p.ID, 0)
	require.Error(t, err)
	assert.Len(t, snapshots.saved, 4, "reads, no-op commands and rejected calls do not write")
}

func TestPersistenceFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	snapshots := &recordingSnapshots{}
	svc := NewInMemoryService(nil, WithSnapshotStore(snapshots))
	p := registerSample(t, svc, bob)
	before := svc.ExportSnapshot()

	snapshots.failNow = true
	_, err := svc.BuyShares(ctx, alice, p.ID, 10)
	require.ErrorIs(t, err, domain.ErrPersistence)
	assert.False(t, domain.IsValidation(err))
	assert.Equal(t, before, svc.ExportSnapshot())

	_, err = svc.RegisterUser(ctx, alice)
	require.ErrorIs(t, err, domain.ErrPersistence)
	_, found, err := svc.GetUser(ctx, alice)
	require.NoError(t, err)
	assert.False(t, found)

	snapshots.failNow = false
	_, err = svc.BuyShares(ctx, alice, p.ID, 10)
	require.NoError(t, err)
}

func TestSuspendResume(t *testing.T) {
	ctx := context.Background()
	snapshots := &recordingSnapshots{}
	svc := NewInMemoryService(nil, WithSnapshotStore(snapshots))

	require.NoError(t, svc.Resume(ctx))
	assert.Empty(t, svc.ExportSnapshot().Properties)

	p := registerSample(t, svc, bob)
	_, err := svc.BuyShares(ctx, alice, p.ID, 25)
	require.NoError(t, err)
	require.NoError(t, svc.Suspend(ctx))
	assert.Len(t, snapshots.saved, 3)

	restarted := NewInMemoryService(nil, WithSnapshotStore(snapshots))
	require.NoError(t, restarted.Resume(ctx))
	assert.Equal(t, svc.ExportSnapshot(), restarted.ExportSnapshot())

	snapshots.failNow = true
	err = restarted.Suspend(ctx)
	require.ErrorIs(t, err, domain.ErrPersistence)

	require.NoError(t, restarted.Close())
	assert.True(t, snapshots.closed)
}

func TestResumeRejectsSnapshotWithGappedIDs(t *testing.T) {
	ctx := context.Background()
	bad := domain.NewSnapshot()
	bad.Properties = append(bad.Properties, Property{ID: 7, Type: domain.PropertyResidential, IssuedShares: 10, Financials: domain.Financials{AvailableShares: 10, PricePerShare: 1}, Investors: map[Principal]Shares{}})
	bad.Leases = append(bad.Leases, Lease{ID: 1, PropertyID: 1, Status: domain.LeaseActive})
	snapshots := &recordingSnapshots{}

	svc := NewInMemoryService(nil, WithSnapshotStore(snapshots))
	registerSample(t, svc, bob)
	before := svc.ExportSnapshot()
	snapshots.stored = &bad

	err := svc.Resume(ctx)
	var blocked domain.RuleViolationError
	require.ErrorAs(t, err, &blocked)
	assert.Equal(t, "dense_ids", blocked.Result.Violations[0].Rule)
	assert.Equal(t, before, svc.ExportSnapshot())

	_, err = svc.BuyShares(ctx, alice, 7, 1)
	require.ErrorIs(t, err, domain.ErrPropertyNotFound)
	got, err := svc.GetProperty(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, PropertyID(1), got.ID)
}

func TestLifecycleWithoutSnapshotStore(t *testing.T) {
	ctx := context.Background()
	svc := NewInMemoryService(nil)
	registerSample(t, svc, bob)
	require.NoError(t, svc.Suspend(ctx))
	require.NoError(t, svc.Resume(ctx))
	assert.Len(t, svc.ExportSnapshot().Properties, 1)
	assert.Nil(t, svc.SnapshotStore())
	assert.NoError(t, svc.Close())
}

func TestRoundTripThroughBlobSnapshots(t *testing.T) {
	ctx := context.Background()
	blobs := blobmemory.New()
	svc := NewInMemoryService(nil, WithSnapshotStore(blobstate.New(blobs)))

	p := registerSample(t, svc, bob)
	_, err := svc.BuyShares(ctx, alice, p.ID, 40)
	require.NoError(t, err)
	_, err = svc.RegisterLease(ctx, "carol", LeaseInput{PropertyID: p.ID, Terms: "12 months & <pets>"})
	require.NoError(t, err)

	restarted := NewInMemoryService(nil, WithSnapshotStore(blobstate.New(blobs)))
	require.NoError(t, restarted.Resume(ctx))

	want, err := svc.ExportSnapshot().Marshal()
	require.NoError(t, err)
	got, err := restarted.ExportSnapshot().Marshal()
	require.NoError(t, err)
	assert.True(t, bytes.Equal(want, got))
}

func TestOpenWithSQLiteRestoresState(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.Storage.SQLitePath = filepath.Join(t.TempDir(), "ledger.db")

	svc, err := Open(ctx, cfg)
	require.NoError(t, err)
	p := registerSample(t, svc, bob)
	_, err = svc.BuyShares(ctx, alice, p.ID, 100)
	require.NoError(t, err)
	require.NoError(t, svc.Close())

	reopened, err := Open(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })
	user, found, err := reopened.GetUser(ctx, alice)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, Amount(1000), user.TotalInvestment)
}

func TestOpenMemoryDriver(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Driver = string(StorageMemory)
	svc, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	assert.Nil(t, svc.SnapshotStore())
}

func TestOpenBlobDriver(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Driver = string(StorageBlob)
	cfg.Blob.FSRoot = t.TempDir()
	svc, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	_, ok := svc.SnapshotStore().(*blobstate.Store)
	assert.True(t, ok)
}

func TestOpenSnapshotStoreUnknownDriver(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Driver = "etcd"
	_, err := OpenSnapshotStore(context.Background(), cfg)
	require.Error(t, err)
	_, err = Open(context.Background(), cfg)
	require.Error(t, err)
}
