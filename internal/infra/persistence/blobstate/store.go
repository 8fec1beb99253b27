// Package blobstate persists ledger snapshots as JSON objects in a blob store.
//
// Blob objects are write-once, so every Save writes a new generation under
// state/<generation>.json and prunes generations beyond the retention limit.
// Restore reads the newest generation.
package blobstate

import (
	"bytes"
	"context"
	"estateledger/internal/blob"
	"estateledger/pkg/domain"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
)

var _ domain.SnapshotStore = (*Store)(nil)

const (
	// Prefix is the key prefix under which snapshot generations are written.
	Prefix           = "state/"
	defaultRetention = 2
	generationWidth  = 20
)

// Store implements domain.SnapshotStore on top of a blob.Store.
type Store struct {
	blobs     blob.Store
	retention int

	mu         sync.Mutex
	generation uint64
	scanned    bool
}

// Option configures a Store.
type Option func(*Store)

// WithRetention keeps the newest n generations (minimum 1).
func WithRetention(n int) Option {
	return func(s *Store) {
		if n < 1 {
			n = 1
		}
		s.retention = n
	}
}

// New wraps blobs as a snapshot store.
func New(blobs blob.Store, opts ...Option) *Store {
	s := &Store{blobs: blobs, retention: defaultRetention}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the object key of a generation.
func Key(generation uint64) string {
	return fmt.Sprintf("%s%0*d.json", Prefix, generationWidth, generation)
}

func parseKey(key string) (uint64, bool) {
	name, ok := strings.CutPrefix(key, Prefix)
	if !ok {
		return 0, false
	}
	name, ok = strings.CutSuffix(name, ".json")
	if !ok || len(name) != generationWidth {
		return 0, false
	}
	gen, err := strconv.ParseUint(name, 10, 64)
	if err != nil {
		return 0, false
	}
	return gen, true
}

// generations lists stored generations in ascending order.
func (s *Store) generations(ctx context.Context) ([]uint64, error) {
	infos, err := s.blobs.List(ctx, Prefix)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	gens := make([]uint64, 0, len(infos))
	for _, info := range infos {
		if gen, ok := parseKey(info.Key); ok {
			gens = append(gens, gen)
		}
	}
	return gens, nil
}

// Save writes the snapshot as the next generation.
func (s *Store) Save(ctx context.Context, snapshot domain.Snapshot) error {
	data, err := snapshot.Marshal()
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.scanned {
		gens, err := s.generations(ctx)
		if err != nil {
			return err
		}
		if n := len(gens); n > 0 {
			s.generation = gens[n-1]
		}
		s.scanned = true
	}
	next := s.generation + 1
	if _, err := s.blobs.Put(ctx, Key(next), bytes.NewReader(data), blob.PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"generation": strconv.FormatUint(next, 10)},
	}); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	s.generation = next
	s.prune(ctx)
	return nil
}

// prune deletes generations older than the retention window. A failed
// delete leaves an extra generation behind and is not reported.
func (s *Store) prune(ctx context.Context) {
	gens, err := s.generations(ctx)
	if err != nil {
		return
	}
	for len(gens) > s.retention {
		_, _ = s.blobs.Delete(ctx, Key(gens[0]))
		gens = gens[1:]
	}
}

// Restore reads the newest generation; found is false when none exists.
func (s *Store) Restore(ctx context.Context) (domain.Snapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gens, err := s.generations(ctx)
	if err != nil {
		return domain.Snapshot{}, false, err
	}
	s.scanned = true
	if len(gens) == 0 {
		s.generation = 0
		return domain.NewSnapshot(), false, nil
	}
	latest := gens[len(gens)-1]
	s.generation = latest
	_, rc, err := s.blobs.Get(ctx, Key(latest))
	if err != nil {
		return domain.Snapshot{}, false, fmt.Errorf("read snapshot: %w", err)
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil {
		return domain.Snapshot{}, false, fmt.Errorf("read snapshot: %w", err)
	}
	snapshot, err := domain.UnmarshalSnapshot(data)
	if err != nil {
		return domain.Snapshot{}, false, fmt.Errorf("decode snapshot: %w", err)
	}
	return snapshot, true, nil
}

// Generation reports the newest generation written or restored.
func (s *Store) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Close is a no-op; the blob store owns no long-lived handles.
func (s *Store) Close() error { return nil }
