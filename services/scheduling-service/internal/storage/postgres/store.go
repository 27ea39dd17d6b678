// Package postgres implements storage.Store on PostgreSQL with pgx. Queries
// with optional parts (filters, partial updates) are built with goqu.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/md-rashed-zaman/queuedesk/libs/db"
	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/model"
	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/outbox"
	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/scheduling"
	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/storage"
)

var dialect = goqu.Dialect("postgres")

const queueLockKey = 7_340_001

type Store struct {
	pool   *db.Pool
	outbox *outbox.Repository
	engine scheduling.Engine
}

var _ storage.Store = (*Store)(nil)

func New(pool *db.Pool, outboxRepo *outbox.Repository, engine scheduling.Engine) *Store {
	return &Store{pool: pool, outbox: outboxRepo, engine: engine}
}

type sqlBuilder interface {
	ToSQL() (string, []any, error)
}

func build(b sqlBuilder) (string, []any, error) {
	query, args, err := b.ToSQL()
	if err != nil {
		return "", nil, fmt.Errorf("build query: %w", err)
	}
	return query, args, nil
}

// mapErr translates driver errors into storage sentinels. Malformed ids are
// reported as not found.
func mapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrStaleSnapshot) ||
		errors.Is(err, storage.ErrConflict) || errors.Is(err, storage.ErrOverlap) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%s: %w", op, storage.ErrConflict)
		case "22P02":
			return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// record appends the activity row and the outbox events of a mutation.
func (s *Store) record(ctx context.Context, tx pgx.Tx, activity string, events ...outbox.Event) error {
	if activity != "" {
		if _, err := tx.Exec(ctx, `INSERT INTO activity_logs (message) VALUES ($1)`, activity); err != nil {
			return err
		}
	}
	for _, evt := range events {
		if err := s.outbox.Insert(ctx, tx, evt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) event(aggregateType, id, eventType string, payload any) (outbox.Event, error) {
	return outbox.NewEvent(aggregateType, id, eventType, payload)
}

// lockStaff serialises schedule changes per staff member for the rest of tx.
func lockStaff(ctx context.Context, tx pgx.Tx, staffID string) error {
	var id string
	return tx.QueryRow(ctx, `SELECT id::text FROM staff WHERE id = $1 FOR UPDATE`, staffID).Scan(&id)
}

// verifyBooking locks the staff member appt is booked with, reloads their
// commitments and re-runs the overlap check against them. Rows touched by a
// schedule change are always locked appointment first, then staff.
func (s *Store) verifyBooking(ctx context.Context, tx pgx.Tx, appt model.Appointment) error {
	if !appt.Assigned() || appt.Status.Terminal() {
		return nil
	}
	if err := lockStaff(ctx, tx, *appt.StaffID); err != nil {
		return err
	}

	var snap scheduling.Snapshot
	var err error
	if snap.Services, err = listServices(ctx, tx); err != nil {
		return err
	}
	rows, err := tx.Query(ctx, `SELECT `+appointmentColumns+` FROM appointments
		WHERE staff_id = $1 AND status <> $2`, *appt.StaffID, string(model.StatusCancelled))
	if err != nil {
		return err
	}
	if snap.Appointments, err = collectAppointments(rows); err != nil {
		return err
	}
	return storage.VerifyBooking(s.engine, snap, appt)
}

// pgxQuerier is satisfied by both the pool and a transaction.
type pgxQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
