package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/model"
)

type serviceRequest struct {
	Name              string `json:"name"`
	DurationMinutes   int    `json:"durationMinutes"`
	RequiredStaffType string `json:"requiredStaffType"`
}

type servicePatchRequest struct {
	Name              *string `json:"name"`
	DurationMinutes   *int    `json:"durationMinutes"`
	RequiredStaffType *string `json:"requiredStaffType"`
}

func (h *Handler) listServices(w http.ResponseWriter, r *http.Request) {
	log := h.log(r, "handlers.listServices")
	out, err := h.desk.ListServices(r.Context())
	if err != nil {
		h.fail(w, r, log, err)
		return
	}
	render.JSON(w, r, nonNil(out))
}

func (h *Handler) getService(w http.ResponseWriter, r *http.Request) {
	log := h.log(r, "handlers.getService")
	svc, err := h.desk.GetService(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, log, err)
		return
	}
	render.JSON(w, r, svc)
}

func (h *Handler) createService(w http.ResponseWriter, r *http.Request) {
	log := h.log(r, "handlers.createService")

	var req serviceRequest
	if !h.decode(w, r, log, &req) {
		return
	}
	svc, err := h.desk.CreateService(r.Context(), model.NewService{
		Name:              req.Name,
		DurationMinutes:   req.DurationMinutes,
		RequiredStaffType: req.RequiredStaffType,
	})
	if err != nil {
		h.fail(w, r, log, err)
		return
	}
	log.Info("service created", "service_id", svc.ID)
	created(w, r, svc)
}

func (h *Handler) updateService(w http.ResponseWriter, r *http.Request) {
	log := h.log(r, "handlers.updateService")

	var req servicePatchRequest
	if !h.decode(w, r, log, &req) {
		return
	}
	svc, err := h.desk.UpdateService(r.Context(), chi.URLParam(r, "id"), model.ServicePatch{
		Name:              req.Name,
		DurationMinutes:   req.DurationMinutes,
		RequiredStaffType: req.RequiredStaffType,
	})
	if err != nil {
		h.fail(w, r, log, err)
		return
	}
	render.JSON(w, r, svc)
}

func (h *Handler) deleteService(w http.ResponseWriter, r *http.Request) {
	log := h.log(r, "handlers.deleteService")
	if err := h.desk.DeleteService(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, log, err)
		return
	}
	render.NoContent(w, r)
}
