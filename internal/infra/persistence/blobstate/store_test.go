package blobstate

import (
	"bytes"
	"context"
	"errors"
	"estateledger/internal/blob"
	blobmemory "estateledger/internal/infra/blob/memory"
	"estateledger/pkg/domain"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshotWithUser(id domain.Principal) domain.Snapshot {
	s := domain.NewSnapshot()
	s.Users[id] = domain.User{MonthlyIncome: 1200}
	return s
}

func TestRestoreEmptyBlobStore(t *testing.T) {
	store := New(blobmemory.New())
	snapshot, found, err := store.Restore(context.Background())
	require.NoError(t, err)
	assert.False(t, found)
	assert.NotNil(t, snapshot.Users)
	assert.Zero(t, store.Generation())
	assert.NoError(t, store.Close())
}

func TestSaveWritesGenerationsAndRestoresLatest(t *testing.T) {
	ctx := context.Background()
	blobs := blobmemory.New()
	store := New(blobs)

	require.NoError(t, store.Save(ctx, snapshotWithUser("alice")))
	require.NoError(t, store.Save(ctx, snapshotWithUser("bob")))
	require.NoError(t, store.Save(ctx, snapshotWithUser("carol")))
	assert.Equal(t, uint64(3), store.Generation())

	infos, err := blobs.List(ctx, Prefix)
	require.NoError(t, err)
	require.Len(t, infos, defaultRetention)
	assert.Equal(t, Key(2), infos[0].Key)
	assert.Equal(t, Key(3), infos[1].Key)

	restored, found, err := New(blobs).Restore(ctx)
	require.NoError(t, err)
	require.True(t, found)
	_, ok := restored.Users["carol"]
	assert.True(t, ok)
	assert.Len(t, restored.Users, 1)
}

func TestSaveContinuesAfterExistingGenerations(t *testing.T) {
	ctx := context.Background()
	blobs := blobmemory.New()
	require.NoError(t, New(blobs).Save(ctx, snapshotWithUser("alice")))

	second := New(blobs, WithRetention(5))
	require.NoError(t, second.Save(ctx, snapshotWithUser("bob")))
	assert.Equal(t, uint64(2), second.Generation())

	infos, err := blobs.List(ctx, Prefix)
	require.NoError(t, err)
	assert.Len(t, infos, 2)
}

func TestSnapshotBytesSurviveRoundTrip(t *testing.T) {
	ctx := context.Background()
	blobs := blobmemory.New()
	store := New(blobs)
	want := domain.NewSnapshot()
	want.Properties = append(want.Properties, domain.Property{ID: 1, Title: "Dock <4>", Amenities: []domain.Amenity{domain.AmenityPool}, IssuedShares: 10})
	want.Leases = append(want.Leases, domain.Lease{ID: 1, PropertyID: 1, Status: domain.LeaseActive})
	require.NoError(t, store.Save(ctx, want))

	_, rc, err := blobs.Get(ctx, Key(1))
	require.NoError(t, err)
	stored, err := io.ReadAll(rc)
	require.NoError(t, err)
	_ = rc.Close()

	got, found, err := store.Restore(ctx)
	require.NoError(t, err)
	require.True(t, found)
	again, err := got.Marshal()
	require.NoError(t, err)
	assert.True(t, bytes.Equal(stored, again), "re-serialized snapshot differs:\n%s\n%s", stored, again)
}

type failingBlobs struct {
	blob.Store
}

func (failingBlobs) Put(context.Context, string, io.Reader, blob.PutOptions) (blob.Info, error) {
	return blob.Info{}, errors.New("bucket unavailable")
}

func TestSaveReportsWriteFailure(t *testing.T) {
	store := New(failingBlobs{Store: blobmemory.New()})
	err := store.Save(context.Background(), domain.NewSnapshot())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write snapshot")
	assert.Zero(t, store.Generation())
}

func TestParseKeyIgnoresForeignObjects(t *testing.T) {
	_, ok := parseKey("state/notes.txt")
	assert.False(t, ok)
	_, ok = parseKey("backups/00000000000000000001.json")
	assert.False(t, ok)
	gen, ok := parseKey(Key(42))
	assert.True(t, ok)
	assert.Equal(t, uint64(42), gen)
}
