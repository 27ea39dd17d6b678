package outbox

import (
	"encoding/json"
	"fmt"
)

// Domain event types. The Kafka topic equals the event type.
const (
	AppointmentCreated  = "scheduling.appointment.created.v1"
	AppointmentUpdated  = "scheduling.appointment.updated.v1"
	AppointmentAssigned = "scheduling.appointment.assigned.v1"
	AppointmentDeleted  = "scheduling.appointment.deleted.v1"
	QueueEnqueued       = "scheduling.queue.enqueued.v1"
	QueueRemoved        = "scheduling.queue.removed.v1"
	StaffChanged        = "scheduling.staff.changed.v1"
	ServiceChanged      = "scheduling.service.changed.v1"
)

const (
	AggregateAppointment = "appointment"
	AggregateQueue       = "queue_entry"
	AggregateStaff       = "staff"
	AggregateService     = "service"
)

// Event is the envelope written to the outbox table.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// NewEvent marshals payload as the event body.
func NewEvent(aggregateType, aggregateID, eventType string, payload any) (Event, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("outbox: marshal %s: %w", eventType, err)
	}
	return Event{AggregateType: aggregateType, AggregateID: aggregateID, EventType: eventType, Payload: body}, nil
}
