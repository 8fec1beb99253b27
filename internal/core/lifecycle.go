package core

import (
	"context"
	"fmt"
	"time"

	"estateledger/internal/infra/config"
	"estateledger/internal/infra/persistence/memory"
	"estateledger/pkg/domain"

	"go.uber.org/zap"
)

// Open builds a Service over the snapshot store selected by cfg and restores
// the last saved state into it.
func Open(ctx context.Context, cfg *config.Config, opts ...ServiceOption) (*Service, error) {
	snapshots, err := OpenSnapshotStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}
	if snapshots != nil {
		opts = append(opts, WithSnapshotStore(snapshots))
	}
	svc := NewInMemoryService(nil, opts...)
	if err := svc.Resume(ctx); err != nil {
		_ = svc.Close()
		return nil, err
	}
	return svc, nil
}

// Suspend writes the live state through the snapshot store. It is the hook
// fired before the process is taken out of service.
func (s *Service) Suspend(ctx context.Context) error {
	if s.snapshots == nil {
		return nil
	}
	ctx, span := s.tracer.Start(ctx, "suspend")
	start := time.Now()
	err := s.suspend(ctx)
	s.observe(ctx, "suspend", start, span, err)
	return err
}

func (s *Service) suspend(ctx context.Context) error {
	snapshot := s.store.ExportState()
	if err := s.snapshots.Save(ctx, snapshot); err != nil {
		s.logger.Error("suspend snapshot write failed", zap.Error(err))
		return &domain.PersistenceError{Op: "suspend", Err: err}
	}
	s.logger.Info("ledger suspended",
		zap.Int("users", len(snapshot.Users)),
		zap.Int("properties", len(snapshot.Properties)),
		zap.Int("leases", len(snapshot.Leases)),
	)
	return nil
}

// Resume replaces the live state wholesale with the last saved snapshot, or
// with an empty ledger when nothing was saved yet. A snapshot that breaks a
// blocking rule is refused with a RuleViolationError and live state is kept.
func (s *Service) Resume(ctx context.Context) error {
	if s.snapshots == nil {
		return nil
	}
	ctx, span := s.tracer.Start(ctx, "resume")
	start := time.Now()
	err := s.resume(ctx)
	s.observe(ctx, "resume", start, span, err)
	return err
}

func (s *Service) resume(ctx context.Context) error {
	snapshot, found, err := s.snapshots.Restore(ctx)
	if err != nil {
		s.logger.Error("resume snapshot read failed", zap.Error(err))
		return &domain.PersistenceError{Op: "resume", Err: err}
	}
	if !found {
		snapshot = domain.NewSnapshot()
	}
	if _, err := VerifySnapshot(ctx, s.store.RulesEngine(), snapshot); err != nil {
		s.logger.Error("resume snapshot rejected; live state kept", zap.Error(err))
		return fmt.Errorf("resume: %w", err)
	}
	s.store.ImportState(snapshot)
	s.logger.Info("ledger resumed",
		zap.Bool("found", found),
		zap.Int("users", len(snapshot.Users)),
		zap.Int("properties", len(snapshot.Properties)),
		zap.Int("leases", len(snapshot.Leases)),
	)
	return nil
}

// Close releases the snapshot store.
func (s *Service) Close() error {
	if s.snapshots == nil {
		return nil
	}
	return s.snapshots.Close()
}

// VerifySnapshot evaluates engine against snapshot without touching any live
// state. A nil engine uses the default rules.
func VerifySnapshot(ctx context.Context, engine *RulesEngine, snapshot Snapshot) (Result, error) {
	if engine == nil {
		engine = NewDefaultRulesEngine()
	}
	store := memory.NewStore(engine)
	store.ImportState(snapshot)
	var res Result
	err := store.View(ctx, func(v View) error {
		var err error
		res, err = engine.Evaluate(ctx, v, nil)
		return err
	})
	if err != nil {
		return Result{}, err
	}
	if res.HasBlocking() {
		return res, domain.RuleViolationError{Result: res}
	}
	return res, nil
}

// ExportSnapshot returns a copy of the live state.
func (s *Service) ExportSnapshot() Snapshot {
	return s.store.ExportState()
}
