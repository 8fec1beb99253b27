package core

import (
	"context"
	"fmt"

	"estateledger/internal/blob"
	"estateledger/internal/infra/config"
	"estateledger/internal/infra/persistence/blobstate"
	"estateledger/internal/infra/persistence/postgres"
	"estateledger/internal/infra/persistence/sqlite"
)

// StorageDriver identifies a snapshot persistence backend.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // no durability (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
	StorageBlob     StorageDriver = "blob"     // generations in a blob store
)

// OpenSnapshotStore selects the persistence adapter named by
// cfg.Storage.Driver. The memory driver returns a nil store.
func OpenSnapshotStore(ctx context.Context, cfg *config.Config) (SnapshotStore, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	switch StorageDriver(cfg.Storage.Driver) {
	case StorageMemory:
		return nil, nil
	case StorageSQLite:
		store, err := sqlite.NewStore(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		return store, nil
	case StoragePostgres:
		store, err := postgres.NewStore(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return store, nil
	case StorageBlob:
		blobs, err := OpenBlobStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return blobstate.New(blobs), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// OpenBlobStore builds the blob store described by cfg.Blob.
func OpenBlobStore(ctx context.Context, cfg *config.Config) (blob.Store, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	return blob.Open(ctx, blob.Config{
		Driver: blob.Driver(cfg.Blob.Driver),
		FSRoot: cfg.Blob.FSRoot,
		S3: blob.S3Config{
			Region:    cfg.Blob.S3Region,
			Bucket:    cfg.Blob.S3Bucket,
			Endpoint:  cfg.Blob.S3Endpoint,
			PathStyle: cfg.Blob.S3PathStyle,
		},
	})
}
