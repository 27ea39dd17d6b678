package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/desk"
	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/model"
	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/scheduling"
	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/storage"
)

type appointmentRequest struct {
	CustomerName    string  `json:"customerName"`
	ServiceID       string  `json:"serviceId"`
	StaffID         *string `json:"staffId"`
	AppointmentDate string  `json:"appointmentDate"`
}

type appointmentPatchRequest struct {
	CustomerName    *string                  `json:"customerName"`
	ServiceID       *string                  `json:"serviceId"`
	StaffID         optionalString           `json:"staffId"`
	AppointmentDate *string                  `json:"appointmentDate"`
	Status          *model.AppointmentStatus `json:"status"`
}

// appointmentResponse carries the capacity warning raised while saving.
type appointmentResponse struct {
	model.Appointment
	Warning string `json:"warning,omitempty"`
}

func bookingResponse(b desk.Booking) appointmentResponse {
	out := appointmentResponse{Appointment: b.Appointment}
	if b.Warning != nil {
		out.Warning = b.Warning.Message()
	}
	return out
}

type conflictRequest struct {
	ServiceID       string `json:"serviceId"`
	StaffID         string `json:"staffId"`
	AppointmentDate string `json:"appointmentDate"`
	ExcludeID       string `json:"excludeId"`
}

type conflictResponse struct {
	scheduling.ConflictResult
	Error   string `json:"error,omitempty"`
	Warning string `json:"warning,omitempty"`
}

func (h *Handler) listAppointments(w http.ResponseWriter, r *http.Request) {
	log := h.log(r, "handlers.listAppointments")

	q := r.URL.Query()
	f := storage.AppointmentFilter{
		StaffID: q.Get("staffId"),
		Status:  model.AppointmentStatus(q.Get("status")),
	}
	if f.Status != "" && !f.Status.Valid() {
		badRequest(w, r, "unknown status")
		return
	}
	if raw := q.Get("date"); raw != "" {
		day, err := h.parseDay(raw)
		if err != nil {
			badRequest(w, r, "invalid date, expected YYYY-MM-DD")
			return
		}
		f.From, f.To = scheduling.DayBounds(day, h.loc)
	}

	out, err := h.desk.ListAppointments(r.Context(), f)
	if err != nil {
		h.fail(w, r, log, err)
		return
	}
	render.JSON(w, r, nonNil(out))
}

func (h *Handler) getAppointment(w http.ResponseWriter, r *http.Request) {
	log := h.log(r, "handlers.getAppointment")
	a, err := h.desk.GetAppointment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, log, err)
		return
	}
	render.JSON(w, r, a)
}

func (h *Handler) createAppointment(w http.ResponseWriter, r *http.Request) {
	log := h.log(r, "handlers.createAppointment")

	var req appointmentRequest
	if !h.decode(w, r, log, &req) {
		return
	}
	when, err := h.parseTimestamp(req.AppointmentDate)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, ErrorBody{Code: codeValidation, Message: err.Error(), Field: "appointmentDate"})
		return
	}

	b, err := h.desk.CreateAppointment(r.Context(), model.NewAppointment{
		CustomerName:    req.CustomerName,
		ServiceID:       req.ServiceID,
		StaffID:         req.StaffID,
		AppointmentDate: when,
	})
	if err != nil {
		h.fail(w, r, log, err)
		return
	}
	log.Info("appointment created", "appointment_id", b.Appointment.ID, "status", b.Appointment.Status)
	created(w, r, bookingResponse(b))
}

func (h *Handler) updateAppointment(w http.ResponseWriter, r *http.Request) {
	log := h.log(r, "handlers.updateAppointment")

	var req appointmentPatchRequest
	if !h.decode(w, r, log, &req) {
		return
	}
	p := model.AppointmentPatch{
		CustomerName: req.CustomerName,
		ServiceID:    req.ServiceID,
		Status:       req.Status,
	}
	if req.StaffID.Set {
		if req.StaffID.Value == nil || *req.StaffID.Value == "" {
			p.ClearStaff = true
		} else {
			p.StaffID = req.StaffID.Value
		}
	}
	if req.AppointmentDate != nil {
		when, err := h.parseTimestamp(*req.AppointmentDate)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, ErrorBody{Code: codeValidation, Message: err.Error(), Field: "appointmentDate"})
			return
		}
		p.AppointmentDate = &when
	}

	b, err := h.desk.UpdateAppointment(r.Context(), chi.URLParam(r, "id"), p)
	if err != nil {
		h.fail(w, r, log, err)
		return
	}
	render.JSON(w, r, bookingResponse(b))
}

func (h *Handler) deleteAppointment(w http.ResponseWriter, r *http.Request) {
	log := h.log(r, "handlers.deleteAppointment")
	if err := h.desk.DeleteAppointment(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, log, err)
		return
	}
	render.NoContent(w, r)
}

func (h *Handler) evaluateConflict(w http.ResponseWriter, r *http.Request) {
	log := h.log(r, "handlers.evaluateConflict")

	var req conflictRequest
	if !h.decode(w, r, log, &req) {
		return
	}
	var when time.Time
	if req.AppointmentDate != "" {
		var err error
		if when, err = h.parseTimestamp(req.AppointmentDate); err != nil {
			writeError(w, r, http.StatusBadRequest, ErrorBody{Code: codeValidation, Message: err.Error(), Field: "appointmentDate"})
			return
		}
	}

	res, err := h.desk.EvaluateConflict(r.Context(), scheduling.Candidate{
		ServiceID:       req.ServiceID,
		StaffID:         req.StaffID,
		AppointmentDate: when,
	}, req.ExcludeID)
	if err != nil {
		h.fail(w, r, log, err)
		return
	}
	render.JSON(w, r, conflictResponse{
		ConflictResult: res,
		Error:          res.BlockingError(),
		Warning:        res.CapacityMessage(),
	})
}
