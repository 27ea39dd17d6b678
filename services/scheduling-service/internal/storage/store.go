package storage

import (
	"context"
	"errors"
	"time"

	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/model"
	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/scheduling"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrStaleSnapshot means a decision computed on a snapshot no longer
	// holds when re-checked inside the write transaction.
	ErrStaleSnapshot = errors.New("stale snapshot")
	// ErrConflict reports a uniqueness clash, e.g. an appointment queued twice.
	ErrConflict = errors.New("conflict")
	// ErrOverlap means a write would give a staff member two overlapping
	// non-cancelled appointments.
	ErrOverlap = errors.New(scheduling.OverlapMessage)
)

// QueueAction tells UpdateAppointment what to do with the appointment's queue
// entry in the same transaction.
type QueueAction int

const (
	QueueKeep QueueAction = iota
	QueueEnqueue
	QueueRemove
)

type AppointmentFilter struct {
	StaffID string
	Status  model.AppointmentStatus
	From    time.Time
	To      time.Time
}

// Store is the data-access boundary. Every mutation appends its activity
// message to the activity log atomically with the change.
type Store interface {
	ListStaff(ctx context.Context) ([]model.Staff, error)
	GetStaff(ctx context.Context, id string) (model.Staff, error)
	CreateStaff(ctx context.Context, in model.NewStaff, activity string) (model.Staff, error)
	UpdateStaff(ctx context.Context, id string, p model.StaffPatch, activity string) (model.Staff, error)
	DeleteStaff(ctx context.Context, id string, activity string) error

	ListServices(ctx context.Context) ([]model.Service, error)
	GetService(ctx context.Context, id string) (model.Service, error)
	CreateService(ctx context.Context, in model.NewService, activity string) (model.Service, error)
	UpdateService(ctx context.Context, id string, p model.ServicePatch, activity string) (model.Service, error)
	DeleteService(ctx context.Context, id string, activity string) error

	ListAppointments(ctx context.Context, f AppointmentFilter) ([]model.Appointment, error)
	GetAppointment(ctx context.Context, id string) (model.Appointment, error)
	// CreateAppointment stores the appointment and, when enqueue is set, appends
	// it to the queue. Create and update re-check the staff member's schedule
	// while holding the write lock and fail with ErrOverlap on a collision.
	CreateAppointment(ctx context.Context, in model.NewAppointment, status model.AppointmentStatus, enqueue bool, activity string) (model.Appointment, error)
	UpdateAppointment(ctx context.Context, id string, p model.AppointmentPatch, q QueueAction, activity string) (model.Appointment, error)
	DeleteAppointment(ctx context.Context, id string, activity string) error

	ListQueue(ctx context.Context) ([]model.QueueEntry, error)
	// Enqueue appends the appointment at max(position)+1.
	Enqueue(ctx context.Context, appointmentID string, activity string) (model.QueueEntry, error)
	RemoveQueueEntry(ctx context.Context, id string, activity string) error

	ListActivity(ctx context.Context, limit int) ([]model.ActivityLog, error)

	Snapshot(ctx context.Context) (scheduling.Snapshot, error)
	// ApplyAssignment persists a successful decision: the appointment gets the
	// staff member and SCHEDULED, and its queue entry is removed. The decision
	// is re-validated first and ErrStaleSnapshot returned when it no longer
	// holds.
	ApplyAssignment(ctx context.Context, a scheduling.Assignment, activity string) (model.Appointment, error)
}
