package postgres

import (
	"context"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/jackc/pgx/v5"

	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/model"
	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/outbox"
	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/storage"
)

const appointmentColumns = `id::text, customer_name, service_id::text, staff_id::text, appointment_date, status, created_at, updated_at`

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var a model.Appointment
	err := row.Scan(&a.ID, &a.CustomerName, &a.ServiceID, &a.StaffID, &a.AppointmentDate, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func collectAppointments(rows pgx.Rows) ([]model.Appointment, error) {
	defer rows.Close()
	var out []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// appointmentsQuery builds the filtered listing. To is exclusive.
func appointmentsQuery(f storage.AppointmentFilter) (string, []any, error) {
	ds := dialect.From("appointments").Prepared(true).
		Select(goqu.L(appointmentColumns)).
		Order(goqu.C("appointment_date").Asc(), goqu.C("created_at").Asc())
	if f.StaffID != "" {
		ds = ds.Where(goqu.C("staff_id").Eq(f.StaffID))
	}
	if f.Status != "" {
		ds = ds.Where(goqu.C("status").Eq(string(f.Status)))
	}
	if !f.From.IsZero() {
		ds = ds.Where(goqu.C("appointment_date").Gte(f.From))
	}
	if !f.To.IsZero() {
		ds = ds.Where(goqu.C("appointment_date").Lt(f.To))
	}
	return build(ds)
}

func (s *Store) ListAppointments(ctx context.Context, f storage.AppointmentFilter) ([]model.Appointment, error) {
	const op = "postgres.ListAppointments"

	query, args, err := appointmentsQuery(f)
	if err != nil {
		return nil, mapErr(op, err)
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapErr(op, err)
	}
	out, err := collectAppointments(rows)
	return out, mapErr(op, err)
}

func (s *Store) GetAppointment(ctx context.Context, id string) (model.Appointment, error) {
	a, err := scanAppointment(s.pool.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id))
	return a, mapErr("postgres.GetAppointment", err)
}

func (s *Store) CreateAppointment(ctx context.Context, in model.NewAppointment, status model.AppointmentStatus, enqueue bool, activity string) (model.Appointment, error) {
	const op = "postgres.CreateAppointment"

	rec := goqu.Record{
		"customer_name":    in.CustomerName,
		"service_id":       in.ServiceID,
		"appointment_date": in.AppointmentDate,
		"status":           string(status),
	}
	if in.StaffID != nil {
		rec["staff_id"] = *in.StaffID
	}
	query, args, err := build(dialect.Insert("appointments").Prepared(true).
		Rows(rec).
		Returning(goqu.L(appointmentColumns)))
	if err != nil {
		return model.Appointment{}, mapErr(op, err)
	}

	candidate := model.Appointment{
		CustomerName:    in.CustomerName,
		ServiceID:       in.ServiceID,
		StaffID:         in.StaffID,
		AppointmentDate: in.AppointmentDate,
		Status:          status,
	}

	var a model.Appointment
	err = s.pool.WithTx(ctx, func(tx pgx.Tx) error {
		if err := s.verifyBooking(ctx, tx, candidate); err != nil {
			return err
		}
		if a, err = scanAppointment(tx.QueryRow(ctx, query, args...)); err != nil {
			return err
		}
		evt, err := s.event(outbox.AggregateAppointment, a.ID, outbox.AppointmentCreated, a)
		if err != nil {
			return err
		}
		events := []outbox.Event{evt}
		if enqueue {
			entry, err := s.enqueue(ctx, tx, a.ID)
			if err != nil {
				return err
			}
			qe, err := s.event(outbox.AggregateQueue, entry.ID, outbox.QueueEnqueued, entry)
			if err != nil {
				return err
			}
			events = append(events, qe)
		}
		return s.record(ctx, tx, activity, events...)
	})
	return a, mapErr(op, err)
}

func appointmentPatchRecord(p model.AppointmentPatch) goqu.Record {
	rec := goqu.Record{"updated_at": goqu.L("now()")}
	if p.CustomerName != nil {
		rec["customer_name"] = strings.TrimSpace(*p.CustomerName)
	}
	if p.ServiceID != nil {
		rec["service_id"] = strings.TrimSpace(*p.ServiceID)
	}
	if p.StaffID != nil {
		rec["staff_id"] = strings.TrimSpace(*p.StaffID)
	}
	if p.ClearStaff {
		rec["staff_id"] = nil
	}
	if p.AppointmentDate != nil {
		rec["appointment_date"] = *p.AppointmentDate
	}
	if p.Status != nil {
		rec["status"] = string(*p.Status)
	}
	return rec
}

func (s *Store) UpdateAppointment(ctx context.Context, id string, p model.AppointmentPatch, q storage.QueueAction, activity string) (model.Appointment, error) {
	const op = "postgres.UpdateAppointment"

	query, args, err := build(dialect.Update("appointments").Prepared(true).
		Set(appointmentPatchRecord(p)).
		Where(goqu.C("id").Eq(id)).
		Returning(goqu.L(appointmentColumns)))
	if err != nil {
		return model.Appointment{}, mapErr(op, err)
	}

	var a model.Appointment
	err = s.pool.WithTx(ctx, func(tx pgx.Tx) error {
		if p.TouchesSchedule() {
			cur, err := scanAppointment(tx.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1 FOR UPDATE`, id))
			if err != nil {
				return err
			}
			if err := s.verifyBooking(ctx, tx, p.Apply(cur)); err != nil {
				return err
			}
		}
		if a, err = scanAppointment(tx.QueryRow(ctx, query, args...)); err != nil {
			return err
		}
		evt, err := s.event(outbox.AggregateAppointment, a.ID, outbox.AppointmentUpdated, a)
		if err != nil {
			return err
		}
		events := []outbox.Event{evt}

		switch q {
		case storage.QueueEnqueue:
			entry, queued, err := s.enqueueIfMissing(ctx, tx, id)
			if err != nil {
				return err
			}
			if queued {
				qe, err := s.event(outbox.AggregateQueue, entry.ID, outbox.QueueEnqueued, entry)
				if err != nil {
					return err
				}
				events = append(events, qe)
			}
		case storage.QueueRemove:
			removed, err := removeQueueFor(ctx, tx, id)
			if err != nil {
				return err
			}
			for _, entryID := range removed {
				qe, err := s.event(outbox.AggregateQueue, entryID, outbox.QueueRemoved, map[string]string{"id": entryID, "appointmentId": id})
				if err != nil {
					return err
				}
				events = append(events, qe)
			}
		}
		return s.record(ctx, tx, activity, events...)
	})
	return a, mapErr(op, err)
}

func (s *Store) DeleteAppointment(ctx context.Context, id string, activity string) error {
	const op = "postgres.DeleteAppointment"

	err := s.pool.WithTx(ctx, func(tx pgx.Tx) error {
		// queue_entries rows go with the appointment through ON DELETE CASCADE.
		tag, err := tx.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		evt, err := s.event(outbox.AggregateAppointment, id, outbox.AppointmentDeleted, map[string]string{"id": id})
		if err != nil {
			return err
		}
		return s.record(ctx, tx, activity, evt)
	})
	return mapErr(op, err)
}
