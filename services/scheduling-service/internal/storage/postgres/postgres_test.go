package postgres

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/model"
	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/storage"
)

func TestAppointmentsQuery_NoFilter(t *testing.T) {
	query, args, err := appointmentsQuery(storage.AppointmentFilter{})
	require.NoError(t, err)
	assert.Contains(t, query, `FROM "appointments"`)
	assert.Contains(t, query, "ORDER BY")
	assert.NotContains(t, query, "WHERE")
	assert.Empty(t, args)
}

func TestAppointmentsQuery_AllFilters(t *testing.T) {
	from := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	query, args, err := appointmentsQuery(storage.AppointmentFilter{
		StaffID: "s1",
		Status:  model.StatusScheduled,
		From:    from,
		To:      from.Add(24 * time.Hour),
	})
	require.NoError(t, err)
	assert.Contains(t, query, `"staff_id" = $1`)
	assert.Contains(t, query, `"status" = $2`)
	assert.Contains(t, query, `"appointment_date" >= $3`)
	assert.Contains(t, query, `"appointment_date" < $4`)
	require.Len(t, args, 4)
	assert.Equal(t, "s1", args[0])
	assert.Equal(t, "SCHEDULED", args[1])
}

func TestActivityQuery_Limit(t *testing.T) {
	query, args, err := activityQuery(20)
	require.NoError(t, err)
	assert.Contains(t, query, `FROM "activity_logs"`)
	assert.Contains(t, query, "DESC")
	assert.Contains(t, query, "LIMIT $1")
	assert.Len(t, args, 1)

	query, args, err = activityQuery(0)
	require.NoError(t, err)
	assert.NotContains(t, query, "LIMIT")
	assert.Empty(t, args)
}

func TestAppointmentPatchRecord(t *testing.T) {
	rec := appointmentPatchRecord(model.AppointmentPatch{ClearStaff: true, CustomerName: ptr("  Ann  ")})
	assert.Contains(t, rec, "staff_id")
	assert.Nil(t, rec["staff_id"])
	assert.Equal(t, "Ann", rec["customer_name"])
	assert.Contains(t, rec, "updated_at")
	assert.NotContains(t, rec, "status")
}

func TestMapErr(t *testing.T) {
	assert.NoError(t, mapErr("op", nil))
	assert.ErrorIs(t, mapErr("op", pgx.ErrNoRows), storage.ErrNotFound)
	assert.ErrorIs(t, mapErr("op", &pgconn.PgError{Code: "23505"}), storage.ErrConflict)
	assert.ErrorIs(t, mapErr("op", &pgconn.PgError{Code: "22P02"}), storage.ErrNotFound)
	assert.ErrorIs(t, mapErr("op", fmt.Errorf("verify: %w", storage.ErrStaleSnapshot)), storage.ErrStaleSnapshot)

	other := errors.New("boom")
	err := mapErr("postgres.Op", other)
	assert.ErrorIs(t, err, other)
	assert.Equal(t, "postgres.Op: boom", err.Error())
}

func ptr[T any](v T) *T { return &v }
