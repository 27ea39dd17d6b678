package scheduling

import (
	"fmt"
	"time"
)

const OverlapMessage = "This staff member already has an appointment at this time"

// Engine evaluates conflicts and queue assignments over snapshots. Location
// sets the calendar-day boundary used for capacity counting.
type Engine struct {
	Location *time.Location
}

func NewEngine(loc *time.Location) Engine {
	if loc == nil {
		loc = time.Local
	}
	return Engine{Location: loc}
}

// Candidate is a proposed appointment. An empty StaffID means it is bound for
// the queue.
type Candidate struct {
	ServiceID       string    `json:"serviceId"`
	StaffID         string    `json:"staffId,omitempty"`
	AppointmentDate time.Time `json:"appointmentDate"`
}

type CapacityWarning struct {
	StaffID   string `json:"staffId"`
	StaffName string `json:"staffName"`
	Count     int    `json:"count"`
	Limit     int    `json:"limit"`
}

func (w CapacityWarning) Message() string {
	return fmt.Sprintf("%s already has %d appointments today (Max: %d)", w.StaffName, w.Count, w.Limit)
}

type OverlapConflict struct {
	AppointmentID string    `json:"appointmentId"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
}

// ConflictResult separates the blocking overlap from the non-blocking
// capacity warning. Evaluated is false when the candidate's service is
// unknown and no verdict could be reached.
type ConflictResult struct {
	Evaluated bool             `json:"evaluated"`
	Overlap   *OverlapConflict `json:"overlap,omitempty"`
	Capacity  *CapacityWarning `json:"capacity,omitempty"`
}

func (r ConflictResult) Blocking() bool { return r.Overlap != nil }

func (r ConflictResult) BlockingError() string {
	if r.Overlap == nil {
		return ""
	}
	return OverlapMessage
}

func (r ConflictResult) CapacityMessage() string {
	if r.Capacity == nil {
		return ""
	}
	return r.Capacity.Message()
}

// Evaluate checks a candidate against the snapshot. excludeID names the
// appointment being edited so it never conflicts with itself.
func (e Engine) Evaluate(c Candidate, snap Snapshot, excludeID string) ConflictResult {
	svc, ok := snap.ServiceByID(c.ServiceID)
	if !ok || c.AppointmentDate.IsZero() {
		return ConflictResult{}
	}
	res := ConflictResult{Evaluated: true}
	if c.StaffID == "" {
		return res
	}

	slot := NewInterval(c.AppointmentDate, minutes(svc.DurationMinutes))
	load := e.inspect(snap, c.StaffID, slot, excludeID)

	if staff, found := snap.StaffByID(c.StaffID); found && load.sameDay >= staff.DailyCapacity {
		res.Capacity = &CapacityWarning{
			StaffID:   staff.ID,
			StaffName: staff.Name,
			Count:     load.sameDay,
			Limit:     staff.DailyCapacity,
		}
	}
	res.Overlap = load.overlap
	return res
}

type staffLoad struct {
	sameDay int
	overlap *OverlapConflict
}

// inspect counts the staff member's same-day commitments and finds the first
// commitment overlapping slot.
func (e Engine) inspect(snap Snapshot, staffID string, slot Interval, excludeID string) staffLoad {
	var load staffLoad
	for _, a := range snap.staffCommitments(staffID, excludeID) {
		if SameCalendarDay(a.AppointmentDate, slot.Start, e.Location) {
			load.sameDay++
		}
		if load.overlap != nil {
			continue
		}
		other := NewInterval(a.AppointmentDate, snap.durationOf(a))
		if slot.Overlaps(other) {
			load.overlap = &OverlapConflict{AppointmentID: a.ID, Start: other.Start, End: other.End}
		}
	}
	return load
}
