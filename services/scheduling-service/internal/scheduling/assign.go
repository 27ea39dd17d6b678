package scheduling

import (
	"fmt"
	"time"

	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/model"
)

type OutcomeKind string

const (
	OutcomeNone    OutcomeKind = "none"
	OutcomeSuccess OutcomeKind = "success"
	OutcomeFailure OutcomeKind = "failure"
)

type FailureReason string

const (
	InvalidQueueData FailureReason = "InvalidQueueData"
	NoEligibleStaff  FailureReason = "NoEligibleStaff"
	NoAvailableSlot  FailureReason = "NoAvailableSlot"
)

type RejectionCause string

const (
	RejectedCapacity RejectionCause = "capacity"
	RejectedOverlap  RejectionCause = "overlap"
)

// Rejection records why an eligible staff member was passed over.
type Rejection struct {
	StaffID       string         `json:"staffId"`
	Cause         RejectionCause `json:"cause"`
	AppointmentID string         `json:"appointmentId,omitempty"`
}

// Assignment is the decision produced by AssignNext. On success the caller
// must, atomically, set the appointment's staff and SCHEDULED status and
// remove QueueEntryID from the queue.
type Assignment struct {
	Outcome           OutcomeKind   `json:"outcome"`
	Reason            FailureReason `json:"reason,omitempty"`
	Message           string        `json:"message,omitempty"`
	QueueEntryID      string        `json:"queueEntryId,omitempty"`
	AppointmentID     string        `json:"appointmentId,omitempty"`
	StaffID           string        `json:"staffId,omitempty"`
	RequiredStaffType string        `json:"requiredStaffType,omitempty"`
	Start             time.Time     `json:"start,omitzero"`
	End               time.Time     `json:"end,omitzero"`
	Rejections        []Rejection   `json:"rejections,omitempty"`
}

func (a Assignment) Succeeded() bool { return a.Outcome == OutcomeSuccess }

func failure(head model.QueueEntry, reason FailureReason, msg string) Assignment {
	return Assignment{
		Outcome:       OutcomeFailure,
		Reason:        reason,
		Message:       msg,
		QueueEntryID:  head.ID,
		AppointmentID: head.AppointmentID,
	}
}

// AssignNext picks the queue head and the first eligible staff member, in
// roster order, with spare daily capacity and no overlapping commitment.
func (e Engine) AssignNext(snap Snapshot) Assignment {
	queue := snap.OrderedQueue()
	if len(queue) == 0 {
		return Assignment{Outcome: OutcomeNone}
	}
	head := queue[0]

	appt, ok := snap.AppointmentByID(head.AppointmentID)
	if !ok || appt.Assigned() || appt.Status.Terminal() || appt.AppointmentDate.IsZero() {
		return failure(head, InvalidQueueData, "Invalid appointment data in queue")
	}
	svc, ok := snap.ServiceByID(appt.ServiceID)
	if !ok {
		return failure(head, InvalidQueueData, "Invalid appointment data in queue")
	}

	eligible := EligibleStaff(snap.Staff, svc.RequiredStaffType)
	if len(eligible) == 0 {
		out := failure(head, NoEligibleStaff, fmt.Sprintf("No %s is currently available.", svc.RequiredStaffType))
		out.RequiredStaffType = svc.RequiredStaffType
		return out
	}

	slot := NewInterval(appt.AppointmentDate, minutes(svc.DurationMinutes))
	var rejections []Rejection
	for _, st := range eligible {
		load := e.inspect(snap, st.ID, slot, appt.ID)
		if load.sameDay >= st.DailyCapacity {
			rejections = append(rejections, Rejection{StaffID: st.ID, Cause: RejectedCapacity})
			continue
		}
		if load.overlap != nil {
			rejections = append(rejections, Rejection{StaffID: st.ID, Cause: RejectedOverlap, AppointmentID: load.overlap.AppointmentID})
			continue
		}
		return Assignment{
			Outcome:           OutcomeSuccess,
			QueueEntryID:      head.ID,
			AppointmentID:     appt.ID,
			StaffID:           st.ID,
			RequiredStaffType: svc.RequiredStaffType,
			Start:             slot.Start,
			End:               slot.End,
			Message:           fmt.Sprintf("Assigned %s to %s", appt.CustomerName, st.Name),
			Rejections:        rejections,
		}
	}

	out := failure(head, NoAvailableSlot, "All eligible staff are fully booked or have conflicts at this time.")
	out.RequiredStaffType = svc.RequiredStaffType
	out.Start, out.End = slot.Start, slot.End
	out.Rejections = rejections
	return out
}

// EligibleStaff keeps roster order.
func EligibleStaff(roster []model.Staff, staffType string) []model.Staff {
	var out []model.Staff
	for _, st := range roster {
		if st.Status == model.StaffAvailable && st.StaffType == staffType {
			out = append(out, st)
		}
	}
	return out
}

// CanHold reports whether staffID could take appt right now without breaking
// capacity or overlapping an existing commitment. Stores use it to re-check a
// decision inside the transaction that persists it.
func (e Engine) CanHold(snap Snapshot, staffID string, appt model.Appointment) (bool, RejectionCause) {
	st, ok := snap.StaffByID(staffID)
	if !ok {
		return false, RejectedCapacity
	}
	slot := NewInterval(appt.AppointmentDate, snap.durationOf(appt))
	load := e.inspect(snap, staffID, slot, appt.ID)
	if load.sameDay >= st.DailyCapacity {
		return false, RejectedCapacity
	}
	if load.overlap != nil {
		return false, RejectedOverlap
	}
	return true, ""
}
