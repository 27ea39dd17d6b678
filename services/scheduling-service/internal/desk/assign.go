package desk

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/md-rashed-zaman/queuedesk/libs/lock"
	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/scheduling"
)

// AssignNext hands the queue head to the first free eligible staff member.
// Only one run proceeds at a time; a concurrent caller gets
// ErrAssignmentBusy. "Nothing to do" and "nobody fits" come back as
// outcomes, not errors.
func (d *Desk) AssignNext(ctx context.Context) (a scheduling.Assignment, err error) {
	const op = "desk.AssignNext"

	ctx, span := d.startSpan(ctx, "desk.AssignNext")
	defer func() { endSpan(span, err) }()

	token, ok, err := d.locker.Lock(ctx, assignLockKey, d.lockTTL)
	if err != nil {
		return a, wrap(op, err)
	}
	if !ok {
		return a, wrap(op, ErrAssignmentBusy)
	}
	defer func() {
		if uerr := d.locker.Unlock(context.WithoutCancel(ctx), assignLockKey, token); uerr != nil && !errors.Is(uerr, lock.ErrNotHeld) {
			d.logger.Warn("release assign lock", slog.Any("err", uerr))
		}
	}()

	snap, err := d.store.Snapshot(ctx)
	if err != nil {
		return a, wrap(op, err)
	}
	a = d.engine.AssignNext(snap)
	span.SetAttributes(
		attribute.String("assign.outcome", string(a.Outcome)),
		attribute.String("assign.reason", string(a.Reason)),
		attribute.Int("assign.rejections", len(a.Rejections)),
	)

	switch a.Outcome {
	case scheduling.OutcomeNone:
		return a, nil
	case scheduling.OutcomeFailure:
		d.logger.Info("queue head not assigned",
			slog.String("reason", string(a.Reason)),
			slog.String("appointment_id", a.AppointmentID),
			slog.Int("rejections", len(a.Rejections)))
		return a, nil
	}

	if _, err := d.store.ApplyAssignment(ctx, a, a.Message); err != nil {
		return scheduling.Assignment{}, wrap(op, err)
	}
	d.logger.Info("appointment assigned",
		slog.String("appointment_id", a.AppointmentID),
		slog.String("staff_id", a.StaffID))
	return a, nil
}
