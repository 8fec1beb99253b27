package core

import (
	"context"
	"errors"
	"time"

	"estateledger/internal/infra/persistence/memory"
	"estateledger/pkg/domain"

	"go.uber.org/zap"
)

// Service is the ledger state context. The dispatch layer constructs one and
// passes the caller identity into every operation explicitly.
type Service struct {
	store     *memory.Store
	snapshots SnapshotStore
	logger    *zap.Logger
	metrics   MetricsRecorder
	tracer    Tracer
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceConfig)

type serviceConfig struct {
	snapshots SnapshotStore
	logger    *zap.Logger
	metrics   MetricsRecorder
	tracer    Tracer
}

// WithSnapshotStore makes every successful mutation durable through store
// before it becomes visible, and enables Suspend/Resume.
func WithSnapshotStore(store SnapshotStore) ServiceOption {
	return func(c *serviceConfig) { c.snapshots = store }
}

// WithLogger sets the zap logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) ServiceOption {
	return func(c *serviceConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetricsRecorder sets the operation metrics sink.
func WithMetricsRecorder(recorder MetricsRecorder) ServiceOption {
	return func(c *serviceConfig) {
		if recorder != nil {
			c.metrics = recorder
		}
	}
}

// WithTracer sets the span factory wrapped around each operation.
func WithTracer(tracer Tracer) ServiceOption {
	return func(c *serviceConfig) {
		if tracer != nil {
			c.tracer = tracer
		}
	}
}

// NewInMemoryService creates a service and its in-memory store with the given
// rules engine. A nil engine installs the default rules.
func NewInMemoryService(engine *RulesEngine, opts ...ServiceOption) *Service {
	cfg := serviceConfig{
		logger:  zap.NewNop(),
		metrics: noopMetricsRecorder{},
		tracer:  noopTracer{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if engine == nil {
		engine = NewDefaultRulesEngine()
	}
	var storeOpts []memory.Option
	if cfg.snapshots != nil {
		storeOpts = append(storeOpts, memory.WithSaver(cfg.snapshots))
	}
	return &Service{
		store:     memory.NewStore(engine, storeOpts...),
		snapshots: cfg.snapshots,
		logger:    cfg.logger,
		metrics:   cfg.metrics,
		tracer:    cfg.tracer,
	}
}

// Store returns the underlying state store.
func (s *Service) Store() *MemoryStore {
	return s.store
}

// SnapshotStore returns the configured persistence adapter, or nil.
func (s *Service) SnapshotStore() SnapshotStore {
	return s.snapshots
}

func (s *Service) mutate(ctx context.Context, op string, caller Principal, fn func(Transaction) error) error {
	ctx, span := s.tracer.Start(ctx, op)
	start := time.Now()
	_, err := s.store.RunInTransaction(ctx, fn)
	s.finish(ctx, op, caller, start, span, err)
	return err
}

func (s *Service) read(ctx context.Context, op string, caller Principal, fn func(View) error) error {
	ctx, span := s.tracer.Start(ctx, op)
	start := time.Now()
	err := s.store.View(ctx, fn)
	s.finish(ctx, op, caller, start, span, err)
	return err
}

func (s *Service) finish(ctx context.Context, op string, caller Principal, start time.Time, span TraceSpan, err error) {
	elapsed := s.observe(ctx, op, start, span, err)

	fields := []zap.Field{
		zap.String("operation", op),
		zap.Duration("duration", elapsed),
	}
	if caller != "" {
		fields = append(fields, zap.String("principal", caller.String()))
	}
	switch {
	case err == nil:
		s.logger.Debug("ledger operation completed", fields...)
	case domain.IsValidation(err):
		s.logger.Info("ledger operation rejected", append(fields, zap.Error(err))...)
	case errors.Is(err, domain.ErrPersistence):
		s.logger.Error("ledger snapshot write failed; changes discarded", append(fields, zap.Error(err))...)
	default:
		s.logger.Warn("ledger operation failed", append(fields, zap.Error(err))...)
	}
}

func (s *Service) observe(ctx context.Context, op string, start time.Time, span TraceSpan, err error) time.Duration {
	elapsed := time.Since(start)
	span.End(err)
	s.metrics.Observe(ctx, op, err == nil, elapsed)
	return elapsed
}
