package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ValidationError describes the first invalid field of an input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

const (
	minNameLen        = 2
	minDurationMinute = 5
)

type NewStaff struct {
	Name          string
	StaffType     string
	DailyCapacity int
	Status        StaffStatus
}

func (in *NewStaff) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.StaffType = strings.TrimSpace(in.StaffType)
	if in.Status == "" {
		in.Status = StaffAvailable
	}
}

func (in NewStaff) Validate() error {
	if len(in.Name) < minNameLen {
		return invalid("name", "must be at least 2 characters")
	}
	if len(in.StaffType) < minNameLen {
		return invalid("staffType", "must be at least 2 characters")
	}
	if in.DailyCapacity < 1 {
		return invalid("dailyCapacity", "must be at least 1")
	}
	if !in.Status.Valid() {
		return invalid("status", "unknown staff status")
	}
	return nil
}

// StaffPatch carries the staff fields to change; nil fields are left untouched.
type StaffPatch struct {
	Name          *string
	StaffType     *string
	DailyCapacity *int
	Status        *StaffStatus
}

func (p StaffPatch) Empty() bool {
	return p.Name == nil && p.StaffType == nil && p.DailyCapacity == nil && p.Status == nil
}

func (p StaffPatch) Validate() error {
	if p.Name != nil && len(strings.TrimSpace(*p.Name)) < minNameLen {
		return invalid("name", "must be at least 2 characters")
	}
	if p.StaffType != nil && len(strings.TrimSpace(*p.StaffType)) < minNameLen {
		return invalid("staffType", "must be at least 2 characters")
	}
	if p.DailyCapacity != nil && *p.DailyCapacity < 1 {
		return invalid("dailyCapacity", "must be at least 1")
	}
	if p.Status != nil && !p.Status.Valid() {
		return invalid("status", "unknown staff status")
	}
	return nil
}

// Apply returns a copy of s with the patch applied.
func (p StaffPatch) Apply(s Staff) Staff {
	if p.Name != nil {
		s.Name = strings.TrimSpace(*p.Name)
	}
	if p.StaffType != nil {
		s.StaffType = strings.TrimSpace(*p.StaffType)
	}
	if p.DailyCapacity != nil {
		s.DailyCapacity = *p.DailyCapacity
	}
	if p.Status != nil {
		s.Status = *p.Status
	}
	return s
}

type NewService struct {
	Name              string
	DurationMinutes   int
	RequiredStaffType string
}

func (in *NewService) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.RequiredStaffType = strings.TrimSpace(in.RequiredStaffType)
}

func (in NewService) Validate() error {
	if len(in.Name) < minNameLen {
		return invalid("name", "must be at least 2 characters")
	}
	if in.DurationMinutes < minDurationMinute {
		return invalid("durationMinutes", "minimum duration is 5 minutes")
	}
	if len(in.RequiredStaffType) < minNameLen {
		return invalid("requiredStaffType", "must be at least 2 characters")
	}
	return nil
}

type ServicePatch struct {
	Name              *string
	DurationMinutes   *int
	RequiredStaffType *string
}

func (p ServicePatch) Empty() bool {
	return p.Name == nil && p.DurationMinutes == nil && p.RequiredStaffType == nil
}

func (p ServicePatch) Validate() error {
	if p.Name != nil && len(strings.TrimSpace(*p.Name)) < minNameLen {
		return invalid("name", "must be at least 2 characters")
	}
	if p.DurationMinutes != nil && *p.DurationMinutes < minDurationMinute {
		return invalid("durationMinutes", "minimum duration is 5 minutes")
	}
	if p.RequiredStaffType != nil && len(strings.TrimSpace(*p.RequiredStaffType)) < minNameLen {
		return invalid("requiredStaffType", "must be at least 2 characters")
	}
	return nil
}

func (p ServicePatch) Apply(s Service) Service {
	if p.Name != nil {
		s.Name = strings.TrimSpace(*p.Name)
	}
	if p.DurationMinutes != nil {
		s.DurationMinutes = *p.DurationMinutes
	}
	if p.RequiredStaffType != nil {
		s.RequiredStaffType = strings.TrimSpace(*p.RequiredStaffType)
	}
	return s
}

type NewAppointment struct {
	CustomerName    string
	ServiceID       string
	StaffID         *string
	AppointmentDate time.Time
}

func (in *NewAppointment) Normalize() {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.ServiceID = strings.TrimSpace(in.ServiceID)
	if in.StaffID != nil {
		in.StaffID = StringPtr(strings.TrimSpace(*in.StaffID))
	}
}

func (in NewAppointment) Validate() error {
	if len(in.CustomerName) < minNameLen {
		return invalid("customerName", "must be at least 2 characters")
	}
	if in.ServiceID == "" {
		return invalid("serviceId", "please select a service")
	}
	if in.AppointmentDate.IsZero() {
		return invalid("appointmentDate", "please select a date and time")
	}
	return nil
}

// AppointmentPatch carries the appointment fields to change. StaffID set to a
// value assigns the appointment; ClearStaff unassigns it and sends it back to
// the queue.
type AppointmentPatch struct {
	CustomerName    *string
	ServiceID       *string
	StaffID         *string
	ClearStaff      bool
	AppointmentDate *time.Time
	Status          *AppointmentStatus
}

func (p AppointmentPatch) Empty() bool {
	return p.CustomerName == nil && p.ServiceID == nil && p.StaffID == nil && !p.ClearStaff &&
		p.AppointmentDate == nil && p.Status == nil
}

// TouchesSchedule reports whether the patch can change the appointment's
// slot on a staff calendar.
func (p AppointmentPatch) TouchesSchedule() bool {
	return p.ServiceID != nil || p.StaffID != nil || p.ClearStaff || p.AppointmentDate != nil
}

func (p AppointmentPatch) Validate() error {
	if p.CustomerName != nil && len(strings.TrimSpace(*p.CustomerName)) < minNameLen {
		return invalid("customerName", "must be at least 2 characters")
	}
	if p.ServiceID != nil && strings.TrimSpace(*p.ServiceID) == "" {
		return invalid("serviceId", "please select a service")
	}
	if p.StaffID != nil && p.ClearStaff {
		return invalid("staffId", "cannot both set and clear the staff member")
	}
	if p.StaffID != nil && strings.TrimSpace(*p.StaffID) == "" {
		return invalid("staffId", "must not be empty")
	}
	if p.AppointmentDate != nil && p.AppointmentDate.IsZero() {
		return invalid("appointmentDate", "please select a date and time")
	}
	if p.Status != nil && !p.Status.Valid() {
		return invalid("status", "unknown appointment status")
	}
	return nil
}

func (p AppointmentPatch) Apply(a Appointment) Appointment {
	if p.CustomerName != nil {
		a.CustomerName = strings.TrimSpace(*p.CustomerName)
	}
	if p.ServiceID != nil {
		a.ServiceID = strings.TrimSpace(*p.ServiceID)
	}
	if p.StaffID != nil {
		id := strings.TrimSpace(*p.StaffID)
		a.StaffID = &id
	}
	if p.ClearStaff {
		a.StaffID = nil
	}
	if p.AppointmentDate != nil {
		a.AppointmentDate = *p.AppointmentDate
	}
	if p.Status != nil {
		a.Status = *p.Status
	}
	return a
}
