package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/render"
)

func (h *Handler) listActivity(w http.ResponseWriter, r *http.Request) {
	log := h.log(r, "handlers.listActivity")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequest(w, r, "invalid limit")
			return
		}
		limit = n
	}
	out, err := h.desk.ListActivity(r.Context(), limit)
	if err != nil {
		h.fail(w, r, log, err)
		return
	}
	render.JSON(w, r, nonNil(out))
}

func (h *Handler) workload(w http.ResponseWriter, r *http.Request) {
	log := h.log(r, "handlers.workload")

	day, err := h.parseDay(r.URL.Query().Get("date"))
	if err != nil {
		badRequest(w, r, "invalid date, expected YYYY-MM-DD")
		return
	}
	out, err := h.desk.Workload(r.Context(), day)
	if err != nil {
		h.fail(w, r, log, err)
		return
	}
	render.JSON(w, r, nonNil(out))
}

func (h *Handler) overview(w http.ResponseWriter, r *http.Request) {
	log := h.log(r, "handlers.overview")

	day, err := h.parseDay(r.URL.Query().Get("date"))
	if err != nil {
		badRequest(w, r, "invalid date, expected YYYY-MM-DD")
		return
	}
	out, err := h.desk.Overview(r.Context(), day)
	if err != nil {
		h.fail(w, r, log, err)
		return
	}
	render.JSON(w, r, out)
}
