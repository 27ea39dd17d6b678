package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type enqueueRequest struct {
	AppointmentID string `json:"appointmentId"`
}

func (h *Handler) listQueue(w http.ResponseWriter, r *http.Request) {
	log := h.log(r, "handlers.listQueue")
	out, err := h.desk.ListQueue(r.Context())
	if err != nil {
		h.fail(w, r, log, err)
		return
	}
	render.JSON(w, r, nonNil(out))
}

func (h *Handler) enqueue(w http.ResponseWriter, r *http.Request) {
	log := h.log(r, "handlers.enqueue")

	var req enqueueRequest
	if !h.decode(w, r, log, &req) {
		return
	}
	id := strings.TrimSpace(req.AppointmentID)
	if id == "" {
		writeError(w, r, http.StatusBadRequest, ErrorBody{Code: codeValidation, Message: "appointmentId is required", Field: "appointmentId"})
		return
	}
	entry, err := h.desk.Enqueue(r.Context(), id)
	if err != nil {
		h.fail(w, r, log, err)
		return
	}
	created(w, r, entry)
}

func (h *Handler) removeQueueEntry(w http.ResponseWriter, r *http.Request) {
	log := h.log(r, "handlers.removeQueueEntry")
	if err := h.desk.RemoveQueueEntry(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, log, err)
		return
	}
	render.NoContent(w, r)
}

// assignNext answers 200 for every outcome; the body says whether anyone
// was assigned.
func (h *Handler) assignNext(w http.ResponseWriter, r *http.Request) {
	log := h.log(r, "handlers.assignNext")
	a, err := h.desk.AssignNext(r.Context())
	if err != nil {
		h.fail(w, r, log, err)
		return
	}
	log.Info("assign-next finished", "outcome", a.Outcome, "reason", a.Reason)
	render.JSON(w, r, a)
}
