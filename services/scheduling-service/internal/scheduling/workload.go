package scheduling

import (
	"time"

	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/model"
)

type StaffLoad struct {
	StaffID   string            `json:"staffId"`
	Name      string            `json:"name"`
	StaffType string            `json:"staffType"`
	Status    model.StaffStatus `json:"status"`
	Count     int               `json:"count"`
	Capacity  int               `json:"capacity"`
	Booked    bool              `json:"booked"`
}

// Workload returns, in roster order, how many non-cancelled appointments
// each staff member holds on day.
func (e Engine) Workload(snap Snapshot, day time.Time) []StaffLoad {
	out := make([]StaffLoad, 0, len(snap.Staff))
	for _, st := range snap.Staff {
		n := 0
		for _, a := range snap.staffCommitments(st.ID, "") {
			if SameCalendarDay(a.AppointmentDate, day, e.Location) {
				n++
			}
		}
		out = append(out, StaffLoad{
			StaffID:   st.ID,
			Name:      st.Name,
			StaffType: st.StaffType,
			Status:    st.Status,
			Count:     n,
			Capacity:  st.DailyCapacity,
			Booked:    n >= st.DailyCapacity,
		})
	}
	return out
}

type Overview struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
	Queued    int `json:"queued"`
}

// Overview summarises the appointments falling on day. Pending covers
// SCHEDULED and WAITING.
func (e Engine) Overview(snap Snapshot, day time.Time) Overview {
	var ov Overview
	for _, a := range snap.Appointments {
		if !SameCalendarDay(a.AppointmentDate, day, e.Location) {
			continue
		}
		ov.Total++
		switch a.Status {
		case model.StatusCompleted:
			ov.Completed++
		case model.StatusScheduled, model.StatusWaiting:
			ov.Pending++
		}
	}
	ov.Queued = len(snap.Queue)
	return ov
}
