package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/model"
	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/outbox"
)

const queueColumns = `id::text, appointment_id::text, position, created_at`

func scanQueueEntry(row pgx.Row) (model.QueueEntry, error) {
	var q model.QueueEntry
	err := row.Scan(&q.ID, &q.AppointmentID, &q.Position, &q.CreatedAt)
	return q, err
}

func listQueue(ctx context.Context, q pgxQuerier) ([]model.QueueEntry, error) {
	rows, err := q.Query(ctx, `SELECT `+queueColumns+` FROM queue_entries ORDER BY position, created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.QueueEntry
	for rows.Next() {
		entry, err := scanQueueEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

func (s *Store) ListQueue(ctx context.Context) ([]model.QueueEntry, error) {
	out, err := listQueue(ctx, s.pool)
	return out, mapErr("postgres.ListQueue", err)
}

// enqueue appends at max(position)+1. The advisory lock keeps concurrent
// appends from reading the same maximum.
func (s *Store) enqueue(ctx context.Context, tx pgx.Tx, appointmentID string) (model.QueueEntry, error) {
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(queueLockKey)); err != nil {
		return model.QueueEntry{}, err
	}
	return scanQueueEntry(tx.QueryRow(ctx, `
		INSERT INTO queue_entries (appointment_id, position)
		SELECT $1, COALESCE(MAX(position), 0) + 1 FROM queue_entries
		RETURNING `+queueColumns, appointmentID))
}

func (s *Store) enqueueIfMissing(ctx context.Context, tx pgx.Tx, appointmentID string) (model.QueueEntry, bool, error) {
	existing, err := scanQueueEntry(tx.QueryRow(ctx,
		`SELECT `+queueColumns+` FROM queue_entries WHERE appointment_id = $1`, appointmentID))
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return model.QueueEntry{}, false, err
	}
	entry, err := s.enqueue(ctx, tx, appointmentID)
	return entry, err == nil, err
}

func removeQueueFor(ctx context.Context, tx pgx.Tx, appointmentID string) ([]string, error) {
	rows, err := tx.Query(ctx, `DELETE FROM queue_entries WHERE appointment_id = $1 RETURNING id::text`, appointmentID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (s *Store) Enqueue(ctx context.Context, appointmentID string, activity string) (model.QueueEntry, error) {
	const op = "postgres.Enqueue"

	var entry model.QueueEntry
	err := s.pool.WithTx(ctx, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM appointments WHERE id = $1)`, appointmentID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return pgx.ErrNoRows
		}
		var err error
		// a duplicate hits UNIQUE (appointment_id) and maps to ErrConflict.
		if entry, err = s.enqueue(ctx, tx, appointmentID); err != nil {
			return err
		}
		evt, err := s.event(outbox.AggregateQueue, entry.ID, outbox.QueueEnqueued, entry)
		if err != nil {
			return err
		}
		return s.record(ctx, tx, activity, evt)
	})
	return entry, mapErr(op, err)
}

func (s *Store) RemoveQueueEntry(ctx context.Context, id string, activity string) error {
	const op = "postgres.RemoveQueueEntry"

	err := s.pool.WithTx(ctx, func(tx pgx.Tx) error {
		var appointmentID string
		err := tx.QueryRow(ctx, `DELETE FROM queue_entries WHERE id = $1 RETURNING appointment_id::text`, id).Scan(&appointmentID)
		if err != nil {
			return err
		}
		evt, err := s.event(outbox.AggregateQueue, id, outbox.QueueRemoved, map[string]string{"id": id, "appointmentId": appointmentID})
		if err != nil {
			return err
		}
		return s.record(ctx, tx, activity, evt)
	})
	return mapErr(op, err)
}
