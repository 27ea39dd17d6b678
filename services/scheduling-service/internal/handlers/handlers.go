// Package handlers exposes the front desk over HTTP under /api/v1.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/md-rashed-zaman/queuedesk/libs/httpx"
	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/desk"
	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/model"
	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/scheduling"
	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/storage"
)

// Desk is what the HTTP layer needs from the application service.
type Desk interface {
	ListStaff(ctx context.Context) ([]model.Staff, error)
	GetStaff(ctx context.Context, id string) (model.Staff, error)
	CreateStaff(ctx context.Context, in model.NewStaff) (model.Staff, error)
	UpdateStaff(ctx context.Context, id string, p model.StaffPatch) (model.Staff, error)
	DeleteStaff(ctx context.Context, id string) error

	ListServices(ctx context.Context) ([]model.Service, error)
	GetService(ctx context.Context, id string) (model.Service, error)
	CreateService(ctx context.Context, in model.NewService) (model.Service, error)
	UpdateService(ctx context.Context, id string, p model.ServicePatch) (model.Service, error)
	DeleteService(ctx context.Context, id string) error

	ListAppointments(ctx context.Context, f storage.AppointmentFilter) ([]model.Appointment, error)
	GetAppointment(ctx context.Context, id string) (model.Appointment, error)
	CreateAppointment(ctx context.Context, in model.NewAppointment) (desk.Booking, error)
	UpdateAppointment(ctx context.Context, id string, p model.AppointmentPatch) (desk.Booking, error)
	DeleteAppointment(ctx context.Context, id string) error
	EvaluateConflict(ctx context.Context, c scheduling.Candidate, excludeID string) (scheduling.ConflictResult, error)

	ListQueue(ctx context.Context) ([]model.QueueEntry, error)
	Enqueue(ctx context.Context, appointmentID string) (model.QueueEntry, error)
	RemoveQueueEntry(ctx context.Context, id string) error
	AssignNext(ctx context.Context) (scheduling.Assignment, error)

	ListActivity(ctx context.Context, limit int) ([]model.ActivityLog, error)
	Workload(ctx context.Context, day time.Time) ([]scheduling.StaffLoad, error)
	Overview(ctx context.Context, day time.Time) (scheduling.Overview, error)
}

type Handler struct {
	desk   Desk
	logger *slog.Logger
	loc    *time.Location
	now    func() time.Time
}

// New builds the API handler. loc is the location naive timestamps and
// calendar dates are read in.
func New(logger *slog.Logger, d Desk, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.Local
	}
	return &Handler{desk: d, logger: logger, loc: loc, now: time.Now}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.CleanPath)

	r.Route("/staff", func(r chi.Router) {
		r.Get("/", h.listStaff)
		r.Post("/", h.createStaff)
		r.Get("/{id}", h.getStaff)
		r.Put("/{id}", h.updateStaff)
		r.Delete("/{id}", h.deleteStaff)
	})
	r.Route("/services", func(r chi.Router) {
		r.Get("/", h.listServices)
		r.Post("/", h.createService)
		r.Get("/{id}", h.getService)
		r.Put("/{id}", h.updateService)
		r.Delete("/{id}", h.deleteService)
	})
	r.Route("/appointments", func(r chi.Router) {
		r.Get("/", h.listAppointments)
		r.Post("/", h.createAppointment)
		r.Get("/{id}", h.getAppointment)
		r.Put("/{id}", h.updateAppointment)
		r.Delete("/{id}", h.deleteAppointment)
	})
	r.Route("/queue", func(r chi.Router) {
		r.Get("/", h.listQueue)
		r.Post("/", h.enqueue)
		r.Post("/assign-next", h.assignNext)
		r.Delete("/{id}", h.removeQueueEntry)
	})
	r.Post("/conflicts/evaluate", h.evaluateConflict)
	r.Get("/activity", h.listActivity)
	r.Get("/workload", h.workload)
	r.Get("/overview", h.overview)
	return r
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type errorResponse struct {
	Error ErrorBody `json:"error"`
}

const (
	codeBadRequest        = "BAD_REQUEST"
	codeValidation        = "VALIDATION_FAILED"
	codeNotFound          = "NOT_FOUND"
	codeOverlap           = "OVERLAP"
	codeInvalidTransition = "INVALID_TRANSITION"
	codeStale             = "STALE_SNAPSHOT"
	codeConflict          = "CONFLICT"
	codeLocked            = "LOCKED"
	codeInternal          = "REQUEST_FAILED"
)

func (h *Handler) log(r *http.Request, op string) *slog.Logger {
	return h.logger.With(
		slog.String("op", op),
		slog.String("request_id", httpx.RequestIDFromContext(r.Context())),
	)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, body ErrorBody) {
	render.Status(r, status)
	render.JSON(w, r, errorResponse{Error: body})
}

func badRequest(w http.ResponseWriter, r *http.Request, msg string) {
	writeError(w, r, http.StatusBadRequest, ErrorBody{Code: codeBadRequest, Message: msg})
}

// fail maps a desk error onto a status code. Unknown errors are logged and
// reported as 500 with a generic message.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, r, http.StatusBadRequest, ErrorBody{Code: codeValidation, Message: ve.Message, Field: ve.Field})
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, r, http.StatusNotFound, ErrorBody{Code: codeNotFound, Message: "resource not found"})
	case errors.Is(err, desk.ErrOverlap):
		writeError(w, r, http.StatusConflict, ErrorBody{Code: codeOverlap, Message: scheduling.OverlapMessage})
	case errors.Is(err, model.ErrInvalidTransition):
		writeError(w, r, http.StatusConflict, ErrorBody{Code: codeInvalidTransition, Message: err.Error()})
	case errors.Is(err, storage.ErrStaleSnapshot):
		writeError(w, r, http.StatusConflict, ErrorBody{Code: codeStale, Message: "state changed while assigning, try again"})
	case errors.Is(err, storage.ErrConflict):
		writeError(w, r, http.StatusConflict, ErrorBody{Code: codeConflict, Message: "resource already exists"})
	case errors.Is(err, desk.ErrAssignmentBusy):
		writeError(w, r, http.StatusLocked, ErrorBody{Code: codeLocked, Message: desk.ErrAssignmentBusy.Error()})
	default:
		log.Error("request failed", slog.Any("err", err))
		writeError(w, r, http.StatusInternalServerError, ErrorBody{Code: codeInternal, Message: "internal error"})
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, log *slog.Logger, v any) bool {
	if err := render.DecodeJSON(r.Body, v); err != nil {
		log.Debug("decode request body", slog.Any("err", err))
		badRequest(w, r, "failed to decode request")
		return false
	}
	return true
}

func created(w http.ResponseWriter, r *http.Request, v any) {
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, v)
}
