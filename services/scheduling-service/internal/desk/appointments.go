package desk

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/model"
	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/scheduling"
	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/storage"
)

// Booking is a stored appointment plus the non-blocking capacity warning
// raised while saving it, if any.
type Booking struct {
	Appointment model.Appointment
	Warning     *scheduling.CapacityWarning
}

func (d *Desk) ListAppointments(ctx context.Context, f storage.AppointmentFilter) ([]model.Appointment, error) {
	out, err := d.store.ListAppointments(ctx, f)
	return out, wrap("desk.ListAppointments", err)
}

func (d *Desk) GetAppointment(ctx context.Context, id string) (model.Appointment, error) {
	a, err := d.store.GetAppointment(ctx, id)
	return a, wrap("desk.GetAppointment", err)
}

// EvaluateConflict runs the conflict detector over the current state.
func (d *Desk) EvaluateConflict(ctx context.Context, c scheduling.Candidate, excludeID string) (res scheduling.ConflictResult, err error) {
	ctx, span := d.startSpan(ctx, "desk.EvaluateConflict",
		attribute.String("staff.id", c.StaffID), attribute.String("service.id", c.ServiceID))
	defer func() { endSpan(span, err) }()

	snap, err := d.store.Snapshot(ctx)
	if err != nil {
		return res, wrap("desk.EvaluateConflict", err)
	}
	res = d.engine.Evaluate(c, snap, excludeID)
	span.SetAttributes(attribute.Bool("conflict.blocking", res.Blocking()), attribute.Bool("conflict.capacity", res.Capacity != nil))
	return res, nil
}

func overlapError(op string, o *scheduling.OverlapConflict) error {
	return fmt.Errorf("%s: %w: conflicts with appointment %s", op, ErrOverlap, o.AppointmentID)
}

// checkRefs makes sure the referenced service and staff member exist.
func checkRefs(snap scheduling.Snapshot, serviceID string, staffID *string) error {
	if _, ok := snap.ServiceByID(serviceID); !ok {
		return &model.ValidationError{Field: "serviceId", Message: "unknown service"}
	}
	if staffID != nil {
		if _, ok := snap.StaffByID(*staffID); !ok {
			return &model.ValidationError{Field: "staffId", Message: "unknown staff member"}
		}
	}
	return nil
}

// CreateAppointment books directly with a staff member when one is given and
// the slot is free. Without a staff member the appointment is stored WAITING
// and appended to the queue.
func (d *Desk) CreateAppointment(ctx context.Context, in model.NewAppointment) (b Booking, err error) {
	const op = "desk.CreateAppointment"

	ctx, span := d.startSpan(ctx, "desk.CreateAppointment")
	defer func() { endSpan(span, err) }()

	in.Normalize()
	if err := in.Validate(); err != nil {
		return b, wrap(op, err)
	}
	snap, err := d.store.Snapshot(ctx)
	if err != nil {
		return b, wrap(op, err)
	}
	if err := checkRefs(snap, in.ServiceID, in.StaffID); err != nil {
		return b, wrap(op, err)
	}
	svc, _ := snap.ServiceByID(in.ServiceID)

	status, enqueue := model.StatusWaiting, true
	msg := fmt.Sprintf("Added %s to the waiting queue for %s", in.CustomerName, svc.Name)
	if in.StaffID != nil {
		res := d.engine.Evaluate(scheduling.Candidate{
			ServiceID:       in.ServiceID,
			StaffID:         *in.StaffID,
			AppointmentDate: in.AppointmentDate,
		}, snap, "")
		if res.Blocking() {
			return b, overlapError(op, res.Overlap)
		}
		b.Warning = res.Capacity
		status, enqueue = model.StatusScheduled, false
		st, _ := snap.StaffByID(*in.StaffID)
		msg = fmt.Sprintf("Booked %s for %s with %s at %s", in.CustomerName, svc.Name, st.Name, d.clock(in.AppointmentDate))
	}

	b.Appointment, err = d.store.CreateAppointment(ctx, in, status, enqueue, msg)
	if err != nil {
		return Booking{}, wrap(op, err)
	}
	span.SetAttributes(attribute.String("appointment.id", b.Appointment.ID), attribute.String("appointment.status", string(status)))
	return b, nil
}

// UpdateAppointment applies p. Setting a staff member on a WAITING
// appointment schedules it and takes it off the queue; clearing the staff
// member sends it back to the queue as WAITING.
func (d *Desk) UpdateAppointment(ctx context.Context, id string, p model.AppointmentPatch) (b Booking, err error) {
	const op = "desk.UpdateAppointment"

	ctx, span := d.startSpan(ctx, "desk.UpdateAppointment", attribute.String("appointment.id", id))
	defer func() { endSpan(span, err) }()

	if err := p.Validate(); err != nil {
		return b, wrap(op, err)
	}
	snap, err := d.store.Snapshot(ctx)
	if err != nil {
		return b, wrap(op, err)
	}
	cur, ok := snap.AppointmentByID(id)
	if !ok {
		return b, fmt.Errorf("%s: appointment %s: %w", op, id, storage.ErrNotFound)
	}
	if p.Empty() {
		return Booking{Appointment: cur}, nil
	}

	q, err := planQueue(cur, &p)
	if err != nil {
		return b, wrap(op, err)
	}
	next := p.Apply(cur)
	if next.Status == model.StatusScheduled && !next.Assigned() {
		return b, wrap(op, &model.ValidationError{Field: "staffId", Message: "a scheduled appointment needs a staff member"})
	}
	if next.Status.Terminal() {
		q = storage.QueueRemove
	}
	if p.ServiceID != nil || p.StaffID != nil {
		if err := checkRefs(snap, next.ServiceID, p.StaffID); err != nil {
			return b, wrap(op, err)
		}
	}

	if p.TouchesSchedule() && next.Assigned() && !next.Status.Terminal() {
		res := d.engine.Evaluate(scheduling.Candidate{
			ServiceID:       next.ServiceID,
			StaffID:         *next.StaffID,
			AppointmentDate: next.AppointmentDate,
		}, snap, id)
		if res.Blocking() {
			return b, overlapError(op, res.Overlap)
		}
		b.Warning = res.Capacity
	}

	b.Appointment, err = d.store.UpdateAppointment(ctx, id, p, q, d.describeUpdate(snap, cur, next, p))
	if err != nil {
		return Booking{}, wrap(op, err)
	}
	return b, nil
}

// planQueue enforces the status machine on p, fills in implied status
// changes and returns what must happen to the queue entry.
func planQueue(cur model.Appointment, p *model.AppointmentPatch) (storage.QueueAction, error) {
	if cur.Status.Terminal() && p.TouchesSchedule() {
		return storage.QueueKeep, fmt.Errorf("%w: a %s appointment cannot be rescheduled", model.ErrInvalidTransition, cur.Status)
	}

	q := storage.QueueKeep
	switch {
	case p.ClearStaff:
		if p.Status != nil && *p.Status != model.StatusWaiting {
			return q, &model.ValidationError{Field: "status", Message: "an unassigned appointment must be WAITING"}
		}
		waiting := model.StatusWaiting
		p.Status = &waiting
		return storage.QueueEnqueue, nil
	case p.StaffID != nil:
		if p.Status == nil && cur.Status == model.StatusWaiting {
			scheduled := model.StatusScheduled
			p.Status = &scheduled
		}
		q = storage.QueueRemove
	}
	if p.Status != nil {
		if err := model.CheckTransition(cur.Status, *p.Status); err != nil {
			return q, err
		}
	}
	return q, nil
}

func (d *Desk) describeUpdate(snap scheduling.Snapshot, cur, next model.Appointment, p model.AppointmentPatch) string {
	switch {
	case p.ClearStaff && cur.Assigned():
		return fmt.Sprintf("Returned %s to the waiting queue", next.CustomerName)
	case p.StaffID != nil && !cur.AssignedTo(*next.StaffID):
		st, _ := snap.StaffByID(*next.StaffID)
		return fmt.Sprintf("Assigned %s to %s", next.CustomerName, st.Name)
	case next.Status != cur.Status:
		return fmt.Sprintf("Appointment for %s marked %s", next.CustomerName, next.Status)
	case !next.AppointmentDate.Equal(cur.AppointmentDate):
		return fmt.Sprintf("Moved %s to %s", next.CustomerName, d.clock(next.AppointmentDate))
	}
	return fmt.Sprintf("Updated appointment for %s", next.CustomerName)
}

func (d *Desk) DeleteAppointment(ctx context.Context, id string) error {
	const op = "desk.DeleteAppointment"

	cur, err := d.store.GetAppointment(ctx, id)
	if err != nil {
		return wrap(op, err)
	}
	return wrap(op, d.store.DeleteAppointment(ctx, id, fmt.Sprintf("Deleted appointment for %s", cur.CustomerName)))
}
