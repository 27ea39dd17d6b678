package model

import "time"

type StaffStatus string

const (
	StaffAvailable StaffStatus = "AVAILABLE"
	StaffOnLeave   StaffStatus = "ON_LEAVE"
)

func (s StaffStatus) Valid() bool {
	return s == StaffAvailable || s == StaffOnLeave
}

type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "SCHEDULED"
	StatusCompleted AppointmentStatus = "COMPLETED"
	StatusCancelled AppointmentStatus = "CANCELLED"
	StatusNoShow    AppointmentStatus = "NO_SHOW"
	StatusWaiting   AppointmentStatus = "WAITING"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled, StatusNoShow, StatusWaiting:
		return true
	}
	return false
}

// Terminal reports whether no further transition out of s is allowed.
func (s AppointmentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusNoShow
}

type Staff struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	StaffType     string      `json:"staffType"`
	DailyCapacity int         `json:"dailyCapacity"`
	Status        StaffStatus `json:"status"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

type Service struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	DurationMinutes   int       `json:"durationMinutes"`
	RequiredStaffType string    `json:"requiredStaffType"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// Appointment is a customer booking. A nil StaffID means the appointment is
// unassigned and waits in the queue.
type Appointment struct {
	ID              string            `json:"id"`
	CustomerName    string            `json:"customerName"`
	ServiceID       string            `json:"serviceId"`
	StaffID         *string           `json:"staffId"`
	AppointmentDate time.Time         `json:"appointmentDate"`
	Status          AppointmentStatus `json:"status"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

// AssignedTo reports whether the appointment is held by the given staff member.
func (a Appointment) AssignedTo(staffID string) bool {
	return a.StaffID != nil && *a.StaffID == staffID
}

func (a Appointment) Assigned() bool {
	return a.StaffID != nil && *a.StaffID != ""
}

type QueueEntry struct {
	ID            string    `json:"id"`
	AppointmentID string    `json:"appointmentId"`
	Position      int       `json:"position"`
	CreatedAt     time.Time `json:"createdAt"`
}

type ActivityLog struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
