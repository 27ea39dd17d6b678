package model

import (
	"errors"
	"fmt"
)

var ErrInvalidTransition = errors.New("invalid status transition")

var transitions = map[AppointmentStatus][]AppointmentStatus{
	StatusWaiting:   {StatusScheduled, StatusCancelled},
	StatusScheduled: {StatusCompleted, StatusCancelled, StatusNoShow},
}

// CanTransition reports whether an appointment may move from one status to
// another. Staying in the same status is always allowed.
func CanTransition(from, to AppointmentStatus) bool {
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func CheckTransition(from, to AppointmentStatus) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}
