package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/model"
)

type staffRequest struct {
	Name          string            `json:"name"`
	StaffType     string            `json:"staffType"`
	DailyCapacity int               `json:"dailyCapacity"`
	Status        model.StaffStatus `json:"status"`
}

type staffPatchRequest struct {
	Name          *string            `json:"name"`
	StaffType     *string            `json:"staffType"`
	DailyCapacity *int               `json:"dailyCapacity"`
	Status        *model.StaffStatus `json:"status"`
}

func (h *Handler) listStaff(w http.ResponseWriter, r *http.Request) {
	log := h.log(r, "handlers.listStaff")
	out, err := h.desk.ListStaff(r.Context())
	if err != nil {
		h.fail(w, r, log, err)
		return
	}
	render.JSON(w, r, nonNil(out))
}

func (h *Handler) getStaff(w http.ResponseWriter, r *http.Request) {
	log := h.log(r, "handlers.getStaff")
	st, err := h.desk.GetStaff(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, log, err)
		return
	}
	render.JSON(w, r, st)
}

func (h *Handler) createStaff(w http.ResponseWriter, r *http.Request) {
	log := h.log(r, "handlers.createStaff")

	var req staffRequest
	if !h.decode(w, r, log, &req) {
		return
	}
	st, err := h.desk.CreateStaff(r.Context(), model.NewStaff{
		Name:          req.Name,
		StaffType:     req.StaffType,
		DailyCapacity: req.DailyCapacity,
		Status:        req.Status,
	})
	if err != nil {
		h.fail(w, r, log, err)
		return
	}
	log.Info("staff created", "staff_id", st.ID)
	created(w, r, st)
}

func (h *Handler) updateStaff(w http.ResponseWriter, r *http.Request) {
	log := h.log(r, "handlers.updateStaff")

	var req staffPatchRequest
	if !h.decode(w, r, log, &req) {
		return
	}
	st, err := h.desk.UpdateStaff(r.Context(), chi.URLParam(r, "id"), model.StaffPatch{
		Name:          req.Name,
		StaffType:     req.StaffType,
		DailyCapacity: req.DailyCapacity,
		Status:        req.Status,
	})
	if err != nil {
		h.fail(w, r, log, err)
		return
	}
	render.JSON(w, r, st)
}

func (h *Handler) deleteStaff(w http.ResponseWriter, r *http.Request) {
	log := h.log(r, "handlers.deleteStaff")
	if err := h.desk.DeleteStaff(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, log, err)
		return
	}
	render.NoContent(w, r)
}

// nonNil keeps empty collections encoded as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
