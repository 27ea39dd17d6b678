// Package desk is the front-desk application service. It reads a snapshot
// from the store, asks the scheduling engine for a verdict and persists the
// outcome together with its activity message.
package desk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/md-rashed-zaman/queuedesk/libs/lock"
	otelx "github.com/md-rashed-zaman/queuedesk/libs/otel"
	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/scheduling"
	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/storage"
)

var (
	// ErrOverlap rejects a create or update that collides with an existing
	// appointment of the same staff member. Stores report the same value when
	// the collision only shows up at commit time.
	ErrOverlap = storage.ErrOverlap
	// ErrAssignmentBusy means another assign-next run holds the lock.
	ErrAssignmentBusy = errors.New("assignment already in progress")
)

const (
	assignLockKey      = "assign-next"
	defaultLockTTL     = 10 * time.Second
	defaultActivityMax = 50
)

type Desk struct {
	store   storage.Store
	engine  scheduling.Engine
	locker  lock.Locker
	logger  *slog.Logger
	tracer  trace.Tracer
	lockTTL time.Duration
}

func New(store storage.Store, engine scheduling.Engine, locker lock.Locker, logger *slog.Logger, lockTTL time.Duration) *Desk {
	if lockTTL <= 0 {
		lockTTL = defaultLockTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Desk{
		store:   store,
		engine:  engine,
		locker:  locker,
		logger:  logger,
		tracer:  otelx.Tracer("scheduling-service/desk"),
		lockTTL: lockTTL,
	}
}

func (d *Desk) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return d.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}
