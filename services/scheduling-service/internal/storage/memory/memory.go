// Package memory is a process-local Store for development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/model"
	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/scheduling"
	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/storage"
)

// defaultMaxActivity bounds the activity log; older entries are dropped.
const defaultMaxActivity = 1000

// Store keeps every collection in creation order so roster order is stable.
type Store struct {
	mu           sync.RWMutex
	engine       scheduling.Engine
	now          func() time.Time
	maxActivity  int
	staff        []model.Staff
	services     []model.Service
	appointments []model.Appointment
	queue        []model.QueueEntry
	activity     []model.ActivityLog
}

var _ storage.Store = (*Store)(nil)

func New(engine scheduling.Engine) *Store {
	return &Store{
		engine:      engine,
		now:         func() time.Time { return time.Now().UTC() },
		maxActivity: defaultMaxActivity,
	}
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, storage.ErrNotFound)
}

func (s *Store) log(msg string) {
	if msg == "" {
		return
	}
	s.activity = append(s.activity, model.ActivityLog{ID: uuid.NewString(), Message: msg, CreatedAt: s.now()})
	if over := len(s.activity) - s.maxActivity; over > 0 {
		s.activity = append(s.activity[:0], s.activity[over:]...)
	}
}

func (s *Store) ListStaff(_ context.Context) ([]model.Staff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Staff(nil), s.staff...), nil
}

func (s *Store) staffIndex(id string) int {
	for i := range s.staff {
		if s.staff[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) GetStaff(_ context.Context, id string) (model.Staff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.staffIndex(id); i >= 0 {
		return s.staff[i], nil
	}
	return model.Staff{}, notFound("staff", id)
}

func (s *Store) CreateStaff(_ context.Context, in model.NewStaff, activity string) (model.Staff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	st := model.Staff{
		ID:            uuid.NewString(),
		Name:          in.Name,
		StaffType:     in.StaffType,
		DailyCapacity: in.DailyCapacity,
		Status:        in.Status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.staff = append(s.staff, st)
	s.log(activity)
	return st, nil
}

func (s *Store) UpdateStaff(_ context.Context, id string, p model.StaffPatch, activity string) (model.Staff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.staffIndex(id)
	if i < 0 {
		return model.Staff{}, notFound("staff", id)
	}
	st := p.Apply(s.staff[i])
	st.UpdatedAt = s.now()
	s.staff[i] = st
	s.log(activity)
	return st, nil
}

func (s *Store) DeleteStaff(_ context.Context, id string, activity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.staffIndex(id)
	if i < 0 {
		return notFound("staff", id)
	}
	s.staff = append(s.staff[:i], s.staff[i+1:]...)
	s.log(activity)
	return nil
}

func (s *Store) ListServices(_ context.Context) ([]model.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Service(nil), s.services...), nil
}

func (s *Store) serviceIndex(id string) int {
	for i := range s.services {
		if s.services[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) GetService(_ context.Context, id string) (model.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.serviceIndex(id); i >= 0 {
		return s.services[i], nil
	}
	return model.Service{}, notFound("service", id)
}

func (s *Store) CreateService(_ context.Context, in model.NewService, activity string) (model.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	svc := model.Service{
		ID:                uuid.NewString(),
		Name:              in.Name,
		DurationMinutes:   in.DurationMinutes,
		RequiredStaffType: in.RequiredStaffType,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	s.services = append(s.services, svc)
	s.log(activity)
	return svc, nil
}

func (s *Store) UpdateService(_ context.Context, id string, p model.ServicePatch, activity string) (model.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.serviceIndex(id)
	if i < 0 {
		return model.Service{}, notFound("service", id)
	}
	svc := p.Apply(s.services[i])
	svc.UpdatedAt = s.now()
	s.services[i] = svc
	s.log(activity)
	return svc, nil
}

func (s *Store) DeleteService(_ context.Context, id string, activity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.serviceIndex(id)
	if i < 0 {
		return notFound("service", id)
	}
	s.services = append(s.services[:i], s.services[i+1:]...)
	s.log(activity)
	return nil
}

func (s *Store) ListAppointments(_ context.Context, f storage.AppointmentFilter) ([]model.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Appointment, 0, len(s.appointments))
	for _, a := range s.appointments {
		if f.StaffID != "" && !a.AssignedTo(f.StaffID) {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		if !f.From.IsZero() && a.AppointmentDate.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && !a.AppointmentDate.Before(f.To) {
			continue
		}
		out = append(out, cloneAppointment(a))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].AppointmentDate.Before(out[j].AppointmentDate) })
	return out, nil
}

func cloneAppointment(a model.Appointment) model.Appointment {
	if a.StaffID != nil {
		id := *a.StaffID
		a.StaffID = &id
	}
	return a
}

func (s *Store) appointmentIndex(id string) int {
	for i := range s.appointments {
		if s.appointments[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) GetAppointment(_ context.Context, id string) (model.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.appointmentIndex(id); i >= 0 {
		return cloneAppointment(s.appointments[i]), nil
	}
	return model.Appointment{}, notFound("appointment", id)
}

func (s *Store) CreateAppointment(_ context.Context, in model.NewAppointment, status model.AppointmentStatus, enqueue bool, activity string) (model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	a := model.Appointment{
		ID:              uuid.NewString(),
		CustomerName:    in.CustomerName,
		ServiceID:       in.ServiceID,
		StaffID:         in.StaffID,
		AppointmentDate: in.AppointmentDate,
		Status:          status,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	a = cloneAppointment(a)
	if err := storage.VerifyBooking(s.engine, s.snapshot(), a); err != nil {
		return model.Appointment{}, err
	}
	s.appointments = append(s.appointments, a)
	if enqueue {
		s.enqueue(a.ID)
	}
	s.log(activity)
	return cloneAppointment(a), nil
}

func (s *Store) UpdateAppointment(_ context.Context, id string, p model.AppointmentPatch, q storage.QueueAction, activity string) (model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.appointmentIndex(id)
	if i < 0 {
		return model.Appointment{}, notFound("appointment", id)
	}
	a := cloneAppointment(p.Apply(s.appointments[i]))
	if p.TouchesSchedule() {
		if err := storage.VerifyBooking(s.engine, s.snapshot(), a); err != nil {
			return model.Appointment{}, err
		}
	}
	a.UpdatedAt = s.now()
	s.appointments[i] = a

	switch q {
	case storage.QueueEnqueue:
		if s.queueIndexByAppointment(id) < 0 {
			s.enqueue(id)
		}
	case storage.QueueRemove:
		s.dropQueueFor(id)
	}
	s.log(activity)
	return cloneAppointment(a), nil
}

func (s *Store) DeleteAppointment(_ context.Context, id string, activity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.appointmentIndex(id)
	if i < 0 {
		return notFound("appointment", id)
	}
	s.appointments = append(s.appointments[:i], s.appointments[i+1:]...)
	s.dropQueueFor(id)
	s.log(activity)
	return nil
}

func (s *Store) ListQueue(_ context.Context) ([]model.QueueEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]model.QueueEntry(nil), s.queue...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (s *Store) queueIndexByAppointment(appointmentID string) int {
	for i := range s.queue {
		if s.queue[i].AppointmentID == appointmentID {
			return i
		}
	}
	return -1
}

func (s *Store) enqueue(appointmentID string) model.QueueEntry {
	pos := 0
	for _, q := range s.queue {
		if q.Position > pos {
			pos = q.Position
		}
	}
	entry := model.QueueEntry{ID: uuid.NewString(), AppointmentID: appointmentID, Position: pos + 1, CreatedAt: s.now()}
	s.queue = append(s.queue, entry)
	return entry
}

func (s *Store) dropQueueFor(appointmentID string) {
	kept := s.queue[:0]
	for _, q := range s.queue {
		if q.AppointmentID != appointmentID {
			kept = append(kept, q)
		}
	}
	s.queue = kept
}

func (s *Store) Enqueue(_ context.Context, appointmentID string, activity string) (model.QueueEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appointmentIndex(appointmentID) < 0 {
		return model.QueueEntry{}, notFound("appointment", appointmentID)
	}
	if s.queueIndexByAppointment(appointmentID) >= 0 {
		return model.QueueEntry{}, fmt.Errorf("appointment %s already queued: %w", appointmentID, storage.ErrConflict)
	}
	entry := s.enqueue(appointmentID)
	s.log(activity)
	return entry, nil
}

func (s *Store) RemoveQueueEntry(_ context.Context, id string, activity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.queue {
		if s.queue[i].ID == id {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			s.log(activity)
			return nil
		}
	}
	return notFound("queue entry", id)
}

// ListActivity returns the newest entries first.
func (s *Store) ListActivity(_ context.Context, limit int) ([]model.ActivityLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.activity)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]model.ActivityLog, 0, limit)
	for i := n - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.activity[i])
	}
	return out, nil
}

func (s *Store) Snapshot(_ context.Context) (scheduling.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot(), nil
}

func (s *Store) snapshot() scheduling.Snapshot {
	appts := make([]model.Appointment, len(s.appointments))
	for i, a := range s.appointments {
		appts[i] = cloneAppointment(a)
	}
	return scheduling.Snapshot{
		Staff:        append([]model.Staff(nil), s.staff...),
		Services:     append([]model.Service(nil), s.services...),
		Appointments: appts,
		Queue:        append([]model.QueueEntry(nil), s.queue...),
	}
}

func (s *Store) ApplyAssignment(_ context.Context, a scheduling.Assignment, activity string) (model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := storage.VerifyAssignment(s.engine, s.snapshot(), a); err != nil {
		return model.Appointment{}, err
	}

	i := s.appointmentIndex(a.AppointmentID)
	appt := s.appointments[i]
	staffID := a.StaffID
	appt.StaffID = &staffID
	appt.Status = model.StatusScheduled
	appt.UpdatedAt = s.now()
	s.appointments[i] = appt
	s.dropQueueFor(appt.ID)
	s.log(activity)
	return cloneAppointment(appt), nil
}
