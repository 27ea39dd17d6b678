package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to AppointmentStatus
		want     bool
	}{
		{StatusWaiting, StatusScheduled, true},
		{StatusWaiting, StatusCancelled, true},
		{StatusWaiting, StatusCompleted, false},
		{StatusScheduled, StatusCompleted, true},
		{StatusScheduled, StatusNoShow, true},
		{StatusScheduled, StatusCancelled, true},
		{StatusScheduled, StatusWaiting, false},
		{StatusCancelled, StatusScheduled, false},
		{StatusCompleted, StatusScheduled, false},
		{StatusNoShow, StatusCompleted, false},
		{StatusCancelled, StatusCancelled, true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}

	err := CheckTransition(StatusCompleted, StatusScheduled)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestNewStaffValidate(t *testing.T) {
	in := NewStaff{Name: " Dr. Ada ", StaffType: "Doctor", DailyCapacity: 3}
	in.Normalize()
	require.NoError(t, in.Validate())
	assert.Equal(t, "Dr. Ada", in.Name)
	assert.Equal(t, StaffAvailable, in.Status)

	in.DailyCapacity = 0
	err := in.Validate()
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "dailyCapacity", ve.Field)
}

func TestNewServiceValidate(t *testing.T) {
	in := NewService{Name: "Consult", DurationMinutes: 4, RequiredStaffType: "Doctor"}
	err := in.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "durationMinutes")

	in.DurationMinutes = 5
	assert.NoError(t, in.Validate())
}

func TestAppointmentPatch(t *testing.T) {
	staff := "s1"
	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	orig := Appointment{ID: "a1", CustomerName: "Bob", ServiceID: "svc", Status: StatusWaiting}

	p := AppointmentPatch{StaffID: &staff, AppointmentDate: &at}
	require.NoError(t, p.Validate())
	assert.True(t, p.TouchesSchedule())

	got := p.Apply(orig)
	require.NotNil(t, got.StaffID)
	assert.Equal(t, "s1", *got.StaffID)
	assert.Equal(t, at, got.AppointmentDate)
	assert.Nil(t, orig.StaffID, "apply must not mutate the input")

	cleared := AppointmentPatch{ClearStaff: true}.Apply(got)
	assert.Nil(t, cleared.StaffID)

	both := AppointmentPatch{StaffID: &staff, ClearStaff: true}
	assert.Error(t, both.Validate())

	status := StatusCompleted
	assert.False(t, AppointmentPatch{Status: &status}.TouchesSchedule())
	assert.True(t, AppointmentPatch{}.Empty())
}

func TestStaffPatchApply(t *testing.T) {
	capacity := 5
	onLeave := StaffOnLeave
	s := StaffPatch{DailyCapacity: &capacity, Status: &onLeave}.Apply(Staff{Name: "Ann", DailyCapacity: 2, Status: StaffAvailable})
	assert.Equal(t, 5, s.DailyCapacity)
	assert.Equal(t, StaffOnLeave, s.Status)
	assert.Equal(t, "Ann", s.Name)

	zero := 0
	assert.Error(t, StaffPatch{DailyCapacity: &zero}.Validate())
}
