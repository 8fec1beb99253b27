package integration

import (
	"path/filepath"
	"testing"

	"estateledger/internal/blob"
	blobfs "estateledger/internal/infra/blob/fs"
	blobmemory "estateledger/internal/infra/blob/memory"
	"estateledger/internal/infra/persistence/blobstate"
	"estateledger/internal/infra/persistence/sqlite"
	"estateledger/pkg/domain"
)

// snapshotVariant opens a snapshot store rooted in dir. Opening twice with
// the same dir simulates a process restart.
type snapshotVariant struct {
	name string
	open func(t *testing.T, dir string) domain.SnapshotStore
}

func snapshotVariants() []snapshotVariant {
	shared := blobmemory.New()
	return []snapshotVariant{
		{
			name: "sqlite",
			open: func(t *testing.T, dir string) domain.SnapshotStore {
				s, err := sqlite.NewStore(filepath.Join(dir, "ledger.db"))
				if err != nil {
					t.Fatalf("new sqlite store: %v", err)
				}
				t.Cleanup(func() { _ = s.Close() })
				return s
			},
		},
		{
			name: "blob-memory",
			open: func(_ *testing.T, _ string) domain.SnapshotStore {
				return blobstate.New(blob.Store(shared))
			},
		},
		{
			name: "blob-filesystem",
			open: func(t *testing.T, dir string) domain.SnapshotStore {
				fs, err := blobfs.New(filepath.Join(dir, "blobs"))
				if err != nil {
					t.Fatalf("new fs blob store: %v", err)
				}
				return blobstate.New(fs, blobstate.WithRetention(3))
			},
		},
	}
}
