package scheduling

import (
	"sort"
	"time"

	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/model"
)

// Snapshot is the caller-supplied state a decision is computed over. The
// engine never mutates it.
type Snapshot struct {
	Staff        []model.Staff
	Services     []model.Service
	Appointments []model.Appointment
	Queue        []model.QueueEntry
}

func (s Snapshot) StaffByID(id string) (model.Staff, bool) {
	for _, st := range s.Staff {
		if st.ID == id {
			return st, true
		}
	}
	return model.Staff{}, false
}

func (s Snapshot) ServiceByID(id string) (model.Service, bool) {
	for _, svc := range s.Services {
		if svc.ID == id {
			return svc, true
		}
	}
	return model.Service{}, false
}

func (s Snapshot) AppointmentByID(id string) (model.Appointment, bool) {
	for _, a := range s.Appointments {
		if a.ID == id {
			return a, true
		}
	}
	return model.Appointment{}, false
}

// OrderedQueue returns the queue sorted by position. Entries sharing a
// position keep their input order.
func (s Snapshot) OrderedQueue() []model.QueueEntry {
	q := make([]model.QueueEntry, len(s.Queue))
	copy(q, s.Queue)
	sort.SliceStable(q, func(i, j int) bool { return q[i].Position < q[j].Position })
	return q
}

// durationOf returns the service duration of an appointment, falling back to
// DefaultDuration when the service is gone.
func (s Snapshot) durationOf(a model.Appointment) time.Duration {
	if svc, ok := s.ServiceByID(a.ServiceID); ok {
		return minutes(svc.DurationMinutes)
	}
	return DefaultDuration
}

// staffCommitments yields the non-cancelled appointments held by staffID,
// skipping excludeID.
func (s Snapshot) staffCommitments(staffID, excludeID string) []model.Appointment {
	var out []model.Appointment
	for _, a := range s.Appointments {
		if !a.AssignedTo(staffID) || a.Status == model.StatusCancelled {
			continue
		}
		if excludeID != "" && a.ID == excludeID {
			continue
		}
		out = append(out, a)
	}
	return out
}
