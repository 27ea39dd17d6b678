package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/model"
)

var testDay = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time {
	return testDay.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func doctor(id string, capacity int) model.Staff {
	return model.Staff{ID: id, Name: "Dr " + id, StaffType: "Doctor", DailyCapacity: capacity, Status: model.StaffAvailable}
}

func booked(id, staffID string, start time.Time, status model.AppointmentStatus) model.Appointment {
	return model.Appointment{ID: id, CustomerName: "c-" + id, ServiceID: "consult", StaffID: model.StringPtr(staffID), AppointmentDate: start, Status: status}
}

func waiting(id string, start time.Time) model.Appointment {
	return model.Appointment{ID: id, CustomerName: "w-" + id, ServiceID: "consult", AppointmentDate: start, Status: model.StatusWaiting}
}

func baseSnapshot() Snapshot {
	return Snapshot{
		Staff:    []model.Staff{doctor("s1", 2)},
		Services: []model.Service{{ID: "consult", Name: "Consult", DurationMinutes: 30, RequiredStaffType: "Doctor"}},
		Appointments: []model.Appointment{
			booked("a1", "s1", at(10, 0), model.StatusScheduled),
		},
	}
}

func engine() Engine { return NewEngine(time.UTC) }

func TestEvaluate_OverlapBlocks(t *testing.T) {
	res := engine().Evaluate(Candidate{ServiceID: "consult", StaffID: "s1", AppointmentDate: at(10, 15)}, baseSnapshot(), "")

	require.True(t, res.Evaluated)
	require.True(t, res.Blocking())
	assert.Equal(t, "a1", res.Overlap.AppointmentID)
	assert.Equal(t, OverlapMessage, res.BlockingError())
	assert.Nil(t, res.Capacity)
}

func TestEvaluate_TouchingBoundaryBlocks(t *testing.T) {
	res := engine().Evaluate(Candidate{ServiceID: "consult", StaffID: "s1", AppointmentDate: at(10, 30)}, baseSnapshot(), "")
	assert.True(t, res.Blocking(), "a slot starting exactly at the previous end must conflict")
}

func TestEvaluate_CapacityWarningOnly(t *testing.T) {
	snap := baseSnapshot()
	snap.Appointments = append(snap.Appointments, booked("a2", "s1", at(13, 0), model.StatusCompleted))

	res := engine().Evaluate(Candidate{ServiceID: "consult", StaffID: "s1", AppointmentDate: at(15, 0)}, snap, "")

	assert.False(t, res.Blocking())
	require.NotNil(t, res.Capacity)
	assert.Equal(t, 2, res.Capacity.Count)
	assert.Equal(t, 2, res.Capacity.Limit)
	assert.Equal(t, "Dr s1 already has 2 appointments today (Max: 2)", res.CapacityMessage())
}

func TestEvaluate_CapacityBoundary(t *testing.T) {
	snap := baseSnapshot()
	snap.Staff = []model.Staff{doctor("s1", 3)}
	snap.Appointments = append(snap.Appointments, booked("a2", "s1", at(12, 0), model.StatusScheduled))

	// N-1 existing: no warning for the Nth.
	res := engine().Evaluate(Candidate{ServiceID: "consult", StaffID: "s1", AppointmentDate: at(15, 0)}, snap, "")
	assert.Nil(t, res.Capacity)

	// N existing: warning for the N+1th.
	snap.Appointments = append(snap.Appointments, booked("a3", "s1", at(14, 0), model.StatusScheduled))
	res = engine().Evaluate(Candidate{ServiceID: "consult", StaffID: "s1", AppointmentDate: at(16, 0)}, snap, "")
	require.NotNil(t, res.Capacity)
	assert.Equal(t, 3, res.Capacity.Count)
}

func TestEvaluate_BothReported(t *testing.T) {
	snap := baseSnapshot()
	snap.Appointments = append(snap.Appointments, booked("a2", "s1", at(13, 0), model.StatusScheduled))

	res := engine().Evaluate(Candidate{ServiceID: "consult", StaffID: "s1", AppointmentDate: at(13, 10)}, snap, "")
	assert.True(t, res.Blocking())
	assert.NotNil(t, res.Capacity)
	assert.Equal(t, "a2", res.Overlap.AppointmentID)
}

func TestEvaluate_ExcludesSelf(t *testing.T) {
	snap := baseSnapshot()
	// Editing a1 in place must not conflict with its previous version.
	res := engine().Evaluate(Candidate{ServiceID: "consult", StaffID: "s1", AppointmentDate: at(10, 0)}, snap, "a1")
	assert.False(t, res.Blocking())
	assert.Nil(t, res.Capacity)
}

func TestEvaluate_IgnoresCancelled(t *testing.T) {
	snap := baseSnapshot()
	snap.Staff = []model.Staff{doctor("s1", 1)}
	snap.Appointments = []model.Appointment{booked("a1", "s1", at(10, 0), model.StatusCancelled)}

	res := engine().Evaluate(Candidate{ServiceID: "consult", StaffID: "s1", AppointmentDate: at(10, 0)}, snap, "")
	assert.False(t, res.Blocking())
	assert.Nil(t, res.Capacity)
}

func TestEvaluate_DeletedServiceUsesDefaultDuration(t *testing.T) {
	snap := baseSnapshot()
	snap.Appointments = []model.Appointment{{
		ID: "old", ServiceID: "gone", StaffID: model.StringPtr("s1"), AppointmentDate: at(9, 0), Status: model.StatusScheduled,
	}}

	res := engine().Evaluate(Candidate{ServiceID: "consult", StaffID: "s1", AppointmentDate: at(9, 30)}, snap, "")
	assert.True(t, res.Blocking(), "09:30 touches the 30 minute default end")

	res = engine().Evaluate(Candidate{ServiceID: "consult", StaffID: "s1", AppointmentDate: at(9, 31)}, snap, "")
	assert.False(t, res.Blocking())
}

func TestEvaluate_NoVerdict(t *testing.T) {
	res := engine().Evaluate(Candidate{ServiceID: "missing", StaffID: "s1", AppointmentDate: at(10, 0)}, baseSnapshot(), "")
	assert.False(t, res.Evaluated)
	assert.False(t, res.Blocking())

	res = engine().Evaluate(Candidate{ServiceID: "consult", AppointmentDate: at(10, 0)}, baseSnapshot(), "")
	assert.True(t, res.Evaluated)
	assert.False(t, res.Blocking())
	assert.Nil(t, res.Capacity)
}

func TestEvaluate_Idempotent(t *testing.T) {
	snap := baseSnapshot()
	c := Candidate{ServiceID: "consult", StaffID: "s1", AppointmentDate: at(10, 15)}
	first := engine().Evaluate(c, snap, "")
	second := engine().Evaluate(c, snap, "")
	assert.Equal(t, first, second)
}

func TestAssignNext_EmptyQueue(t *testing.T) {
	out := engine().AssignNext(baseSnapshot())
	assert.Equal(t, OutcomeNone, out.Outcome)
}

func TestAssignNext_NoEligibleStaff(t *testing.T) {
	snap := baseSnapshot()
	snap.Staff = []model.Staff{
		{ID: "n1", Name: "Nurse", StaffType: "Nurse", DailyCapacity: 5, Status: model.StaffAvailable},
		{ID: "d1", Name: "Away", StaffType: "Doctor", DailyCapacity: 5, Status: model.StaffOnLeave},
	}
	snap.Appointments = append(snap.Appointments, waiting("w1", at(11, 0)))
	snap.Queue = []model.QueueEntry{{ID: "q1", AppointmentID: "w1", Position: 1}}

	out := engine().AssignNext(snap)
	assert.Equal(t, OutcomeFailure, out.Outcome)
	assert.Equal(t, NoEligibleStaff, out.Reason)
	assert.Equal(t, "No Doctor is currently available.", out.Message)
	assert.Equal(t, "Doctor", out.RequiredStaffType)
}

func TestAssignNext_AllAtCapacity(t *testing.T) {
	snap := baseSnapshot()
	snap.Staff = []model.Staff{doctor("s1", 1)}
	snap.Appointments = append(snap.Appointments, waiting("w1", at(15, 0)))
	snap.Queue = []model.QueueEntry{{ID: "q1", AppointmentID: "w1", Position: 1}}

	out := engine().AssignNext(snap)
	assert.Equal(t, OutcomeFailure, out.Outcome)
	assert.Equal(t, NoAvailableSlot, out.Reason)
	assert.Equal(t, "All eligible staff are fully booked or have conflicts at this time.", out.Message)
	require.Len(t, out.Rejections, 1)
	assert.Equal(t, RejectedCapacity, out.Rejections[0].Cause)
}

func TestAssignNext_Success(t *testing.T) {
	snap := baseSnapshot()
	snap.Appointments = append(snap.Appointments, waiting("w1", at(15, 0)))
	snap.Queue = []model.QueueEntry{{ID: "q1", AppointmentID: "w1", Position: 1}}

	out := engine().AssignNext(snap)
	require.True(t, out.Succeeded())
	assert.Equal(t, "s1", out.StaffID)
	assert.Equal(t, "w1", out.AppointmentID)
	assert.Equal(t, "q1", out.QueueEntryID)
	assert.Equal(t, at(15, 0), out.Start)
	assert.Equal(t, at(15, 30), out.End)

	// The engine proposes; the snapshot itself is untouched.
	w, _ := snap.AppointmentByID("w1")
	assert.Equal(t, model.StatusWaiting, w.Status)
	assert.Nil(t, w.StaffID)
}

func TestAssignNext_SkipsOverlappingStaffInRosterOrder(t *testing.T) {
	snap := baseSnapshot()
	snap.Staff = []model.Staff{doctor("s1", 5), doctor("s2", 5), doctor("s3", 5)}
	snap.Appointments = append(snap.Appointments,
		booked("b2", "s2", at(9, 0), model.StatusScheduled),
		waiting("w1", at(10, 10)),
	)
	snap.Queue = []model.QueueEntry{{ID: "q1", AppointmentID: "w1", Position: 1}}

	out := engine().AssignNext(snap)
	require.True(t, out.Succeeded())
	assert.Equal(t, "s2", out.StaffID, "s1 overlaps at 10:00, s2 is free and comes before s3")
	require.Len(t, out.Rejections, 1)
	assert.Equal(t, Rejection{StaffID: "s1", Cause: RejectedOverlap, AppointmentID: "a1"}, out.Rejections[0])
}

func TestAssignNext_HeadByPositionStable(t *testing.T) {
	snap := baseSnapshot()
	snap.Staff = []model.Staff{doctor("s1", 5)}
	snap.Appointments = append(snap.Appointments,
		waiting("w1", at(12, 0)),
		waiting("w2", at(13, 0)),
		waiting("w3", at(14, 0)),
	)
	snap.Queue = []model.QueueEntry{
		{ID: "q3", AppointmentID: "w3", Position: 3},
		{ID: "q2", AppointmentID: "w2", Position: 2},
		{ID: "q2b", AppointmentID: "w1", Position: 2},
	}

	out := engine().AssignNext(snap)
	require.True(t, out.Succeeded())
	assert.Equal(t, "q2", out.QueueEntryID, "equal positions keep input order")

	again := engine().AssignNext(snap)
	assert.Equal(t, out, again)
}

func TestAssignNext_InvalidQueueData(t *testing.T) {
	snap := baseSnapshot()
	snap.Queue = []model.QueueEntry{{ID: "q1", AppointmentID: "missing", Position: 1}}
	out := engine().AssignNext(snap)
	assert.Equal(t, InvalidQueueData, out.Reason)
	assert.Equal(t, "Invalid appointment data in queue", out.Message)

	snap.Appointments = append(snap.Appointments, model.Appointment{ID: "w1", ServiceID: "deleted", AppointmentDate: at(12, 0), Status: model.StatusWaiting})
	snap.Queue = []model.QueueEntry{{ID: "q1", AppointmentID: "w1", Position: 1}}
	out = engine().AssignNext(snap)
	assert.Equal(t, InvalidQueueData, out.Reason)

	snap.Queue = []model.QueueEntry{{ID: "q1", AppointmentID: "a1", Position: 1}}
	out = engine().AssignNext(snap)
	assert.Equal(t, InvalidQueueData, out.Reason, "already assigned appointments cannot be queued")
}

func TestCanHold(t *testing.T) {
	snap := baseSnapshot()
	w := waiting("w1", at(10, 20))
	ok, cause := engine().CanHold(snap, "s1", w)
	assert.False(t, ok)
	assert.Equal(t, RejectedOverlap, cause)

	w.AppointmentDate = at(16, 0)
	ok, _ = engine().CanHold(snap, "s1", w)
	assert.True(t, ok)

	ok, _ = engine().CanHold(snap, "nobody", w)
	assert.False(t, ok)
}

func TestWorkloadAndOverview(t *testing.T) {
	snap := baseSnapshot()
	snap.Staff = append(snap.Staff, doctor("s2", 1))
	snap.Appointments = append(snap.Appointments,
		booked("a2", "s1", at(12, 0), model.StatusCompleted),
		booked("a3", "s1", at(13, 0), model.StatusCancelled),
		booked("a4", "s2", testDay.AddDate(0, 0, 1).Add(9*time.Hour), model.StatusScheduled),
		waiting("w1", at(14, 0)),
	)
	snap.Queue = []model.QueueEntry{{ID: "q1", AppointmentID: "w1", Position: 1}}

	loads := engine().Workload(snap, at(8, 0))
	require.Len(t, loads, 2)
	assert.Equal(t, StaffLoad{StaffID: "s1", Name: "Dr s1", StaffType: "Doctor", Status: model.StaffAvailable, Count: 2, Capacity: 2, Booked: true}, loads[0])
	assert.Equal(t, 0, loads[1].Count)
	assert.False(t, loads[1].Booked)

	ov := engine().Overview(snap, at(8, 0))
	assert.Equal(t, Overview{Total: 4, Completed: 1, Pending: 2, Queued: 1}, ov)
}

func TestAssignNext_IgnoresCancelled(t *testing.T) {
	snap := baseSnapshot()
	snap.Staff = []model.Staff{doctor("s1", 1)}
	snap.Appointments = []model.Appointment{
		booked("a1", "s1", at(10, 0), model.StatusCancelled),
		waiting("w1", at(10, 0)),
	}
	snap.Queue = []model.QueueEntry{{ID: "q1", AppointmentID: "w1", Position: 1}}

	out := engine().AssignNext(snap)
	require.True(t, out.Succeeded(), "a cancelled appointment in the same slot counts toward neither capacity nor overlap")
	assert.Equal(t, "s1", out.StaffID)
	assert.Empty(t, out.Rejections)
}

func TestAssignNext_OtherDayDoesNotCount(t *testing.T) {
	snap := baseSnapshot()
	snap.Staff = []model.Staff{doctor("s1", 1)}
	snap.Appointments = []model.Appointment{
		booked("a1", "s1", at(10, 0).AddDate(0, 0, -1), model.StatusScheduled),
		booked("a2", "s1", at(10, 0).AddDate(0, 0, 1), model.StatusScheduled),
		waiting("w1", at(10, 0)),
	}
	snap.Queue = []model.QueueEntry{{ID: "q1", AppointmentID: "w1", Position: 1}}

	out := engine().AssignNext(snap)
	require.True(t, out.Succeeded())
	assert.Equal(t, "s1", out.StaffID)
	assert.Empty(t, out.Rejections)
}
