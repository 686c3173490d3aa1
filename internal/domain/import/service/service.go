// Package service provides the import orchestration logic: it runs one load at
// a time through decode, parse and normalize, and publishes the outcome as a
// Snapshot. A newer selection always supersedes an older, unfinished one.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/coverage-reports/internal/domain/billing"
	"github.com/FACorreiaa/coverage-reports/internal/domain/import/normalizer"
	"github.com/FACorreiaa/coverage-reports/internal/domain/import/parser"
	"github.com/FACorreiaa/coverage-reports/internal/domain/import/source"
)

// TracerName identifies spans emitted by the import pipeline.
const TracerName = "coverage-reports.import"

// ErrSuperseded marks a load whose outcome was discarded because a newer
// selection arrived first. It is never shown to users.
var ErrSuperseded = errors.New("load superseded by a newer selection")

// State is the load lifecycle state.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateSuccess State = "success"
	StateError   State = "error"
)

// Snapshot is the consumer-facing view of the current load. Records is shared
// between snapshots and must not be modified.
type Snapshot struct {
	LoadID       uuid.UUID               `json:"load_id"`
	State        State                   `json:"state"`
	Records      []billing.ServiceRecord `json:"records"`
	ErrorMessage string                  `json:"error_message,omitempty"`
	Source       *source.Descriptor      `json:"source,omitempty"`
	UpdatedAt    time.Time               `json:"updated_at"`
}

// Decoder fetches the raw text for a descriptor.
type Decoder interface {
	Decode(ctx context.Context, desc *source.Descriptor) (string, error)
}

// Listener receives every applied snapshot, in the order they were applied.
type Listener func(Snapshot)

// ImportService orchestrates loads and owns the current snapshot.
type ImportService struct {
	decoder  Decoder
	logger   *slog.Logger
	metrics  *Metrics
	tracer   trace.Tracer
	listener Listener

	mu         sync.Mutex
	notifyMu   sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	current    Snapshot
	closed     bool
	wg         sync.WaitGroup
}

// NewImportService creates a new import service in the idle state.
func NewImportService(decoder Decoder, logger *slog.Logger) *ImportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImportService{
		decoder: decoder,
		logger:  logger,
		tracer:  otel.Tracer(TracerName),
		current: Snapshot{State: StateIdle, UpdatedAt: time.Now()},
	}
}

// WithMetrics records load outcomes on m.
func (s *ImportService) WithMetrics(m *Metrics) *ImportService {
	s.metrics = m
	return s
}

// WithListener registers fn for snapshot changes. fn may call Snapshot.
func (s *ImportService) WithListener(fn Listener) *ImportService {
	s.listener = fn
	return s
}

// Select starts loading desc and returns the new load ID. Any unfinished load
// is cancelled and its outcome discarded. A nil desc returns to idle.
//
// The load outlives ctx's cancellation; only a newer Select or Close stops it.
func (s *ImportService) Select(ctx context.Context, desc *source.Descriptor) uuid.UUID {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.logger.Warn("select after close ignored")
		return uuid.Nil
	}

	s.generation++
	gen := s.generation
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}

	id := uuid.New()
	if desc == nil {
		s.current = Snapshot{LoadID: id, State: StateIdle, UpdatedAt: time.Now()}
		s.publishLocked()
		s.logger.Info("import source cleared", slog.String("load_id", id.String()))
		return id
	}

	loadCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.current = Snapshot{
		LoadID:    id,
		State:     StateLoading,
		Records:   s.current.Records,
		Source:    desc,
		UpdatedAt: time.Now(),
	}
	s.wg.Add(1)
	s.publishLocked()

	s.logger.Info("import load started",
		slog.String("load_id", id.String()),
		slog.String("kind", string(desc.Kind)),
		slog.String("format", string(desc.Format)),
		slog.String("source", desc.Name()))

	go s.run(loadCtx, cancel, gen, id, desc)
	return id
}

// Reload re-selects the current source. It returns uuid.Nil when there is
// nothing to reload.
func (s *ImportService) Reload(ctx context.Context) uuid.UUID {
	s.mu.Lock()
	desc := s.current.Source
	s.mu.Unlock()

	if desc == nil {
		return uuid.Nil
	}
	return s.Select(ctx, desc)
}

// Snapshot returns the current state.
func (s *ImportService) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Wait blocks until every started load has finished or been discarded.
func (s *ImportService) Wait() {
	s.wg.Wait()
}

// Close cancels the running load and waits for it. Later selections are
// ignored.
func (s *ImportService) Close() {
	s.mu.Lock()
	s.closed = true
	s.generation++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()

	s.wg.Wait()
}

// Load runs decode, parse and normalize synchronously.
func (s *ImportService) Load(ctx context.Context, desc *source.Descriptor) ([]billing.ServiceRecord, error) {
	if desc == nil {
		return nil, fmt.Errorf("%w: nil descriptor", source.ErrInvalidDescriptor)
	}
	attrs := []attribute.KeyValue{
		attribute.String("source.kind", string(desc.Kind)),
		attribute.String("source.format", string(desc.Format)),
	}

	spanCtx, span := s.tracer.Start(ctx, "import.decode",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...))
	text, err := s.decoder.Decode(spanCtx, desc)
	endSpan(span, err)
	if err != nil {
		return nil, fmt.Errorf("decode source: %w", err)
	}

	// The decoder is the only suspension point; nothing is committed for a
	// load that was cancelled while it ran.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	_, span = s.tracer.Start(ctx, "import.parse", trace.WithAttributes(attrs...))
	rows, err := parser.Parse(desc.Format, text)
	span.SetAttributes(attribute.Int("import.rows", len(rows)))
	endSpan(span, err)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", desc.Format, err)
	}

	_, span = s.tracer.Start(ctx, "import.normalize", trace.WithAttributes(attrs...))
	records, err := normalizer.Normalize(rows)
	endSpan(span, err)
	if err != nil {
		return nil, fmt.Errorf("normalize records: %w", err)
	}

	return records, nil
}

func (s *ImportService) run(ctx context.Context, cancel context.CancelFunc, gen uint64, id uuid.UUID, desc *source.Descriptor) {
	defer s.wg.Done()
	defer cancel()

	start := time.Now()
	records, err := s.Load(ctx, desc)
	elapsed := time.Since(start)

	s.mu.Lock()
	if gen != s.generation || errors.Is(err, context.Canceled) {
		s.mu.Unlock()
		s.metrics.observe(outcomeSuperseded, elapsed, 0)
		s.logger.Debug("import load discarded",
			slog.String("load_id", id.String()),
			slog.Any("reason", ErrSuperseded))
		return
	}

	s.cancel = nil
	if err != nil {
		s.current = Snapshot{
			LoadID:       id,
			State:        StateError,
			ErrorMessage: Describe(err),
			Source:       desc,
			UpdatedAt:    time.Now(),
		}
	} else {
		s.current = Snapshot{
			LoadID:    id,
			State:     StateSuccess,
			Records:   records,
			Source:    desc,
			UpdatedAt: time.Now(),
		}
	}
	s.publishLocked()

	if err != nil {
		s.metrics.observe(outcomeError, elapsed, 0)
		s.logger.Warn("import load failed",
			slog.String("load_id", id.String()),
			slog.String("source", desc.Name()),
			slog.Any("error", err))
		return
	}

	s.metrics.observe(outcomeSuccess, elapsed, len(records))
	s.logger.Info("import load completed",
		slog.String("load_id", id.String()),
		slog.Int("records", len(records)),
		slog.Duration("duration", elapsed))
}

// publishLocked releases s.mu and delivers the current snapshot. Taking
// notifyMu before releasing mu keeps deliveries in apply order.
func (s *ImportService) publishLocked() {
	snap := s.current
	if s.listener == nil {
		s.mu.Unlock()
		return
	}
	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()
	s.listener(snap)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
