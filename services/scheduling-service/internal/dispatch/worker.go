// Package dispatch drains the waiting queue in the background by calling
// assign-next until it stops producing assignments.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/desk"
	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/model"
	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/outbox"
	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/scheduling"
	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/storage"
)

type Assigner interface {
	AssignNext(ctx context.Context) (scheduling.Assignment, error)
}

type WorkerConfig struct {
	Interval  time.Duration
	MaxPerRun int
}

type Worker struct {
	assigner  Assigner
	logger    *slog.Logger
	interval  time.Duration
	maxPerRun int
	trigger   chan struct{}
}

func NewWorker(assigner Assigner, logger *slog.Logger, cfg WorkerConfig) *Worker {
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Second
	}
	if cfg.MaxPerRun <= 0 {
		cfg.MaxPerRun = 20
	}
	return &Worker{
		assigner:  assigner,
		logger:    logger,
		interval:  cfg.Interval,
		maxPerRun: cfg.MaxPerRun,
		trigger:   make(chan struct{}, 1),
	}
}

// Trigger requests a drain without blocking. Requests made while one is
// already pending collapse into it.
func (w *Worker) Trigger() {
	select {
	case w.trigger <- struct{}{}:
	default:
	}
}

func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-w.trigger:
		}
		if n := w.Drain(ctx); n > 0 {
			w.logger.Info("dispatch run assigned appointments", slog.Int("assigned", n))
		}
	}
}

// Drain calls AssignNext at most maxPerRun times and reports how many
// appointments were assigned. It stops at the first non-success outcome.
func (w *Worker) Drain(ctx context.Context) int {
	assigned := 0
	for range w.maxPerRun {
		if ctx.Err() != nil {
			return assigned
		}
		a, err := w.assigner.AssignNext(ctx)
		switch {
		case errors.Is(err, desk.ErrAssignmentBusy):
			w.logger.Debug("dispatch skipped, assignment in progress")
			return assigned
		case errors.Is(err, storage.ErrStaleSnapshot):
			w.logger.Debug("dispatch retrying after stale snapshot", slog.Any("err", err))
			continue
		case err != nil:
			w.logger.Error("dispatch assign-next failed", slog.Any("err", err))
			return assigned
		}
		if !a.Succeeded() {
			return assigned
		}
		assigned++
	}
	return assigned
}

// HandleEvent is the consumer handler. Any queue or roster change may let
// the head through; of appointment updates only cancellations free a slot.
func (w *Worker) HandleEvent(_ context.Context, msg kafka.Message) error {
	if msg.Topic == outbox.AppointmentUpdated && !cancelled(msg.Value) {
		return nil
	}
	w.Trigger()
	return nil
}

func cancelled(payload []byte) bool {
	var body struct {
		Status model.AppointmentStatus `json:"status"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return false
	}
	return body.Status == model.StatusCancelled
}
