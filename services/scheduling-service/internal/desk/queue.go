package desk

import (
	"context"
	"fmt"

	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/model"
	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/storage"
)

func (d *Desk) ListQueue(ctx context.Context) ([]model.QueueEntry, error) {
	out, err := d.store.ListQueue(ctx)
	return out, wrap("desk.ListQueue", err)
}

// Enqueue puts an unassigned, still open appointment at the back of the queue.
func (d *Desk) Enqueue(ctx context.Context, appointmentID string) (model.QueueEntry, error) {
	const op = "desk.Enqueue"

	appt, err := d.store.GetAppointment(ctx, appointmentID)
	if err != nil {
		return model.QueueEntry{}, wrap(op, err)
	}
	if appt.Status.Terminal() {
		return model.QueueEntry{}, fmt.Errorf("%s: %w: a %s appointment cannot be queued", op, model.ErrInvalidTransition, appt.Status)
	}
	if appt.Assigned() {
		return model.QueueEntry{}, wrap(op, &model.ValidationError{Field: "appointmentId", Message: "appointment already has a staff member"})
	}
	entry, err := d.store.Enqueue(ctx, appointmentID, fmt.Sprintf("Added %s to the waiting queue", appt.CustomerName))
	return entry, wrap(op, err)
}

func (d *Desk) RemoveQueueEntry(ctx context.Context, id string) error {
	const op = "desk.RemoveQueueEntry"

	queue, err := d.store.ListQueue(ctx)
	if err != nil {
		return wrap(op, err)
	}
	for _, entry := range queue {
		if entry.ID != id {
			continue
		}
		msg := "Removed an appointment from the waiting queue"
		if appt, err := d.store.GetAppointment(ctx, entry.AppointmentID); err == nil {
			msg = fmt.Sprintf("Removed %s from the waiting queue", appt.CustomerName)
		}
		return wrap(op, d.store.RemoveQueueEntry(ctx, id, msg))
	}
	return fmt.Errorf("%s: queue entry %s: %w", op, id, storage.ErrNotFound)
}
