package storage

import (
	"fmt"

	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/model"
	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/scheduling"
)

// VerifyAssignment re-checks a successful assignment against fresh state.
// snap must hold at least the head appointment, its queue entry, the chosen
// staff member, the services involved and that staff member's commitments.
func VerifyAssignment(e scheduling.Engine, snap scheduling.Snapshot, a scheduling.Assignment) error {
	if !a.Succeeded() {
		return fmt.Errorf("%w: outcome %s is not a success", ErrStaleSnapshot, a.Outcome)
	}

	queued := false
	for _, q := range snap.Queue {
		if q.ID == a.QueueEntryID && q.AppointmentID == a.AppointmentID {
			queued = true
			break
		}
	}
	if !queued {
		return fmt.Errorf("%w: queue entry %s is gone", ErrStaleSnapshot, a.QueueEntryID)
	}

	appt, ok := snap.AppointmentByID(a.AppointmentID)
	if !ok || appt.Assigned() || appt.Status.Terminal() {
		return fmt.Errorf("%w: appointment %s is no longer waiting", ErrStaleSnapshot, a.AppointmentID)
	}
	svc, ok := snap.ServiceByID(appt.ServiceID)
	if !ok {
		return fmt.Errorf("%w: service %s is gone", ErrStaleSnapshot, appt.ServiceID)
	}
	st, ok := snap.StaffByID(a.StaffID)
	if !ok || st.Status != model.StaffAvailable || st.StaffType != svc.RequiredStaffType {
		return fmt.Errorf("%w: staff %s is no longer eligible", ErrStaleSnapshot, a.StaffID)
	}
	if ok, cause := e.CanHold(snap, a.StaffID, appt); !ok {
		return fmt.Errorf("%w: staff %s rejected on %s", ErrStaleSnapshot, a.StaffID, cause)
	}
	return nil
}

// VerifyBooking re-checks that appt does not overlap another commitment of its
// staff member. snap must hold the services involved and that staff member's
// commitments; appt itself is excluded by id. Unassigned and terminal
// appointments always pass.
func VerifyBooking(e scheduling.Engine, snap scheduling.Snapshot, appt model.Appointment) error {
	if !appt.Assigned() || appt.Status.Terminal() {
		return nil
	}
	res := e.Evaluate(scheduling.Candidate{
		ServiceID:       appt.ServiceID,
		StaffID:         *appt.StaffID,
		AppointmentDate: appt.AppointmentDate,
	}, snap, appt.ID)
	if res.Blocking() {
		return fmt.Errorf("%w: conflicts with appointment %s", ErrOverlap, res.Overlap.AppointmentID)
	}
	return nil
}
