package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/md-rashed-zaman/queuedesk/libs/lock"
	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/desk"
	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/model"
	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/scheduling"
	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/storage/memory"
)

type api struct {
	t      *testing.T
	router http.Handler
}

func newAPI(t *testing.T) *api {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := scheduling.NewEngine(time.UTC)
	d := desk.New(memory.New(engine), engine, lock.NewLocalLock(), logger, time.Second)

	h := New(logger, d, time.UTC)
	h.now = func() time.Time { return time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC) }

	router := chi.NewRouter()
	router.Mount("/api/v1", h.Routes())
	return &api{t: t, router: router}
}

func (a *api) do(method, path string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var rd io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			rd = strings.NewReader(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(a.t, err)
			rd = bytes.NewReader(raw)
		}
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decodeInto[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (a *api) seed() (model.Staff, model.Service) {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/v1/staff", map[string]any{"name": "Dr. Rahman", "staffType": "doctor", "dailyCapacity": 2})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	st := decodeInto[model.Staff](a.t, rec)

	rec = a.do(http.MethodPost, "/api/v1/services", map[string]any{"name": "Checkup", "durationMinutes": 30, "requiredStaffType": "doctor"})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	return st, decodeInto[model.Service](a.t, rec)
}

func TestStaffEndpoints(t *testing.T) {
	a := newAPI(t)
	st, _ := a.seed()
	assert.Equal(t, model.StaffAvailable, st.Status)

	rec := a.do(http.MethodGet, "/api/v1/staff", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeInto[[]model.Staff](t, rec), 1)

	rec = a.do(http.MethodPut, "/api/v1/staff/"+st.ID, map[string]any{"status": "ON_LEAVE"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, model.StaffOnLeave, decodeInto[model.Staff](t, rec).Status)

	rec = a.do(http.MethodPost, "/api/v1/staff", map[string]any{"name": "X", "staffType": "doctor", "dailyCapacity": 1})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeInto[errorResponse](t, rec)
	assert.Equal(t, codeValidation, body.Error.Code)
	assert.Equal(t, "name", body.Error.Field)

	rec = a.do(http.MethodDelete, "/api/v1/staff/"+st.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = a.do(http.MethodGet, "/api/v1/staff/"+st.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEmptyListsEncodeAsArrays(t *testing.T) {
	a := newAPI(t)
	for _, path := range []string{"/api/v1/staff", "/api/v1/services", "/api/v1/appointments", "/api/v1/queue", "/api/v1/activity"} {
		rec := a.do(http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.JSONEq(t, "[]", rec.Body.String(), path)
	}
}

func TestCreateAppointment_Flow(t *testing.T) {
	a := newAPI(t)
	st, svc := a.seed()

	rec := a.do(http.MethodPost, "/api/v1/appointments", map[string]any{
		"customerName": "Ann Lee", "serviceId": svc.ID, "staffId": st.ID, "appointmentDate": "2026-03-02T10:00:00Z",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	first := decodeInto[appointmentResponse](t, rec)
	assert.Equal(t, model.StatusScheduled, first.Status)
	assert.Empty(t, first.Warning)

	rec = a.do(http.MethodPost, "/api/v1/appointments", map[string]any{
		"customerName": "Bob Roy", "serviceId": svc.ID, "staffId": st.ID, "appointmentDate": "2026-03-02T10:30",
	})
	require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
	body := decodeInto[errorResponse](t, rec)
	assert.Equal(t, codeOverlap, body.Error.Code)
	assert.Equal(t, scheduling.OverlapMessage, body.Error.Message)

	rec = a.do(http.MethodPost, "/api/v1/appointments", map[string]any{
		"customerName": "Cat Poe", "serviceId": svc.ID, "appointmentDate": "2026-03-02T11:00:00Z",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	queued := decodeInto[appointmentResponse](t, rec)
	assert.Equal(t, model.StatusWaiting, queued.Status)
	assert.Nil(t, queued.StaffID)
	assert.Contains(t, rec.Body.String(), `"staffId":null`)

	rec = a.do(http.MethodGet, "/api/v1/appointments?date=2026-03-02&status=WAITING", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeInto[[]model.Appointment](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, queued.ID, list[0].ID)
}

func TestCreateAppointment_BadTimestamp(t *testing.T) {
	a := newAPI(t)
	_, svc := a.seed()

	rec := a.do(http.MethodPost, "/api/v1/appointments", map[string]any{
		"customerName": "Ann Lee", "serviceId": svc.ID, "appointmentDate": "tomorrow",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "appointmentDate", decodeInto[errorResponse](t, rec).Error.Field)

	rec = a.do(http.MethodPost, "/api/v1/appointments", `{"customerName":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateAppointment_NullStaffRequeues(t *testing.T) {
	a := newAPI(t)
	st, svc := a.seed()

	rec := a.do(http.MethodPost, "/api/v1/appointments", map[string]any{
		"customerName": "Ann Lee", "serviceId": svc.ID, "staffId": st.ID, "appointmentDate": "2026-03-02T10:00:00Z",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	appt := decodeInto[appointmentResponse](t, rec)

	rec = a.do(http.MethodPut, "/api/v1/appointments/"+appt.ID, `{"staffId": null}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeInto[appointmentResponse](t, rec)
	assert.Equal(t, model.StatusWaiting, updated.Status)
	assert.Nil(t, updated.StaffID)

	rec = a.do(http.MethodGet, "/api/v1/queue", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	queue := decodeInto[[]model.QueueEntry](t, rec)
	require.Len(t, queue, 1)
	assert.Equal(t, appt.ID, queue[0].AppointmentID)

	rec = a.do(http.MethodPut, "/api/v1/appointments/"+appt.ID, `{"customerName": "Ann Lee-Roy"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decodeInto[appointmentResponse](t, rec).StaffID, "absent staffId leaves the staff untouched")

	rec = a.do(http.MethodPut, "/api/v1/appointments/"+appt.ID, `{"status": "COMPLETED"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, codeInvalidTransition, decodeInto[errorResponse](t, rec).Error.Code)
}

func TestQueueAndAssignNext(t *testing.T) {
	a := newAPI(t)
	st, svc := a.seed()

	rec := a.do(http.MethodPost, "/api/v1/queue/assign-next", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, scheduling.OutcomeNone, decodeInto[scheduling.Assignment](t, rec).Outcome)

	rec = a.do(http.MethodPost, "/api/v1/appointments", map[string]any{
		"customerName": "Ann Lee", "serviceId": svc.ID, "appointmentDate": "2026-03-02T10:00:00Z",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	appt := decodeInto[appointmentResponse](t, rec)

	rec = a.do(http.MethodPost, "/api/v1/queue", map[string]any{"appointmentId": appt.ID})
	assert.Equal(t, http.StatusConflict, rec.Code, "already queued")

	rec = a.do(http.MethodPost, "/api/v1/queue/assign-next", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	out := decodeInto[scheduling.Assignment](t, rec)
	assert.Equal(t, scheduling.OutcomeSuccess, out.Outcome)
	assert.Equal(t, st.ID, out.StaffID)
	assert.Equal(t, "Assigned Ann Lee to Dr. Rahman", out.Message)

	rec = a.do(http.MethodGet, "/api/v1/overview?date=2026-03-02", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, scheduling.Overview{Total: 1, Pending: 1}, decodeInto[scheduling.Overview](t, rec))

	rec = a.do(http.MethodGet, "/api/v1/workload", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	loads := decodeInto[[]scheduling.StaffLoad](t, rec)
	require.Len(t, loads, 1)
	assert.Equal(t, 1, loads[0].Count)

	rec = a.do(http.MethodGet, "/api/v1/activity?limit=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	logs := decodeInto[[]model.ActivityLog](t, rec)
	require.Len(t, logs, 1)
	assert.Equal(t, "Assigned Ann Lee to Dr. Rahman", logs[0].Message)

	rec = a.do(http.MethodGet, "/api/v1/workload?date=03/02/2026", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEvaluateConflict(t *testing.T) {
	a := newAPI(t)
	st, svc := a.seed()
	for _, when := range []string{"2026-03-02T09:00:00Z", "2026-03-02T11:00:00Z"} {
		rec := a.do(http.MethodPost, "/api/v1/appointments", map[string]any{
			"customerName": "Ann Lee", "serviceId": svc.ID, "staffId": st.ID, "appointmentDate": when,
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := a.do(http.MethodPost, "/api/v1/conflicts/evaluate", map[string]any{
		"serviceId": svc.ID, "staffId": st.ID, "appointmentDate": "2026-03-02T11:15:00Z",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	res := decodeInto[conflictResponse](t, rec)
	assert.True(t, res.Evaluated)
	assert.Equal(t, scheduling.OverlapMessage, res.Error)
	assert.Equal(t, "Dr. Rahman already has 2 appointments today (Max: 2)", res.Warning)

	rec = a.do(http.MethodPost, "/api/v1/conflicts/evaluate", map[string]any{"serviceId": "unknown", "staffId": st.ID, "appointmentDate": "2026-03-02T11:15:00Z"})
	require.Equal(t, http.StatusOK, rec.Code)
	res = decodeInto[conflictResponse](t, rec)
	assert.False(t, res.Evaluated)
	assert.Empty(t, res.Error)
}

type busyDesk struct{ Desk }

func (busyDesk) AssignNext(context.Context) (scheduling.Assignment, error) {
	return scheduling.Assignment{}, desk.ErrAssignmentBusy
}

func (busyDesk) ListQueue(context.Context) ([]model.QueueEntry, error) {
	return nil, errors.New("db down")
}

func TestErrorMapping(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := chi.NewRouter()
	router.Mount("/api/v1", New(logger, busyDesk{}, time.UTC).Routes())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/queue/assign-next", nil))
	assert.Equal(t, http.StatusLocked, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/queue", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "db down")
}
