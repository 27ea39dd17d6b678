package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/model"
	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/outbox"
	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/scheduling"
	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/storage"
)

// Snapshot reads all four collections in one repeatable-read transaction so
// the engine sees a consistent state.
func (s *Store) Snapshot(ctx context.Context) (scheduling.Snapshot, error) {
	const op = "postgres.Snapshot"

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return scheduling.Snapshot{}, mapErr(op, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var snap scheduling.Snapshot
	if snap.Staff, err = listStaff(ctx, tx); err != nil {
		return scheduling.Snapshot{}, mapErr(op, err)
	}
	if snap.Services, err = listServices(ctx, tx); err != nil {
		return scheduling.Snapshot{}, mapErr(op, err)
	}
	rows, err := tx.Query(ctx, `SELECT `+appointmentColumns+` FROM appointments ORDER BY created_at, id`)
	if err != nil {
		return scheduling.Snapshot{}, mapErr(op, err)
	}
	if snap.Appointments, err = collectAppointments(rows); err != nil {
		return scheduling.Snapshot{}, mapErr(op, err)
	}
	if snap.Queue, err = listQueue(ctx, tx); err != nil {
		return scheduling.Snapshot{}, mapErr(op, err)
	}
	return snap, mapErr(op, tx.Commit(ctx))
}

// ApplyAssignment locks the rows the decision depends on, rebuilds the slice
// of state it was made on and re-verifies it before writing.
func (s *Store) ApplyAssignment(ctx context.Context, a scheduling.Assignment, activity string) (model.Appointment, error) {
	const op = "postgres.ApplyAssignment"

	var out model.Appointment
	err := s.pool.WithTx(ctx, func(tx pgx.Tx) error {
		snap, err := s.lockedSlice(ctx, tx, a)
		if err != nil {
			return err
		}
		if err := storage.VerifyAssignment(s.engine, snap, a); err != nil {
			return err
		}

		out, err = scanAppointment(tx.QueryRow(ctx, `
			UPDATE appointments SET staff_id = $2, status = $3, updated_at = now()
			WHERE id = $1
			RETURNING `+appointmentColumns, a.AppointmentID, a.StaffID, string(model.StatusScheduled)))
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM queue_entries WHERE id = $1`, a.QueueEntryID); err != nil {
			return err
		}

		assigned, err := s.event(outbox.AggregateAppointment, out.ID, outbox.AppointmentAssigned, a)
		if err != nil {
			return err
		}
		removed, err := s.event(outbox.AggregateQueue, a.QueueEntryID, outbox.QueueRemoved,
			map[string]string{"id": a.QueueEntryID, "appointmentId": a.AppointmentID})
		if err != nil {
			return err
		}
		return s.record(ctx, tx, activity, assigned, removed)
	})
	return out, mapErr(op, err)
}

// lockedSlice loads, under row locks, the head appointment, the staff member,
// the queue entry, every service and the staff member's commitments. The lock
// order matches verifyBooking. Missing rows yield an empty slice so
// verification reports them as stale.
func (s *Store) lockedSlice(ctx context.Context, tx pgx.Tx, a scheduling.Assignment) (scheduling.Snapshot, error) {
	var snap scheduling.Snapshot

	appt, err := scanAppointment(tx.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1 FOR UPDATE`, a.AppointmentID))
	switch {
	case err == nil:
		snap.Appointments = append(snap.Appointments, appt)
	case !isNoRows(err):
		return snap, err
	}

	st, err := scanStaff(tx.QueryRow(ctx, `SELECT `+staffColumns+` FROM staff WHERE id = $1 FOR UPDATE`, a.StaffID))
	switch {
	case err == nil:
		snap.Staff = []model.Staff{st}
	case !isNoRows(err):
		return snap, err
	}

	entry, err := scanQueueEntry(tx.QueryRow(ctx, `SELECT `+queueColumns+` FROM queue_entries WHERE id = $1 FOR UPDATE`, a.QueueEntryID))
	switch {
	case err == nil:
		snap.Queue = []model.QueueEntry{entry}
	case !isNoRows(err):
		return snap, err
	}

	if snap.Services, err = listServices(ctx, tx); err != nil {
		return snap, err
	}

	rows, err := tx.Query(ctx, `SELECT `+appointmentColumns+` FROM appointments
		WHERE staff_id = $1 AND status <> $2 AND id <> $3`, a.StaffID, string(model.StatusCancelled), a.AppointmentID)
	if err != nil {
		return snap, err
	}
	held, err := collectAppointments(rows)
	if err != nil {
		return snap, err
	}
	snap.Appointments = append(snap.Appointments, held...)
	return snap, nil
}
