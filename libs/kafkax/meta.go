package kafkax

import (
	"strings"

	"github.com/segmentio/kafka-go"
)

const (
	HeaderEventID   = "event_id"
	HeaderEventType = "event_type"
)

// EventMeta identifies a message for idempotent consumption.
type EventMeta struct {
	EventID   string
	EventType string
}

// ExtractEventMeta falls back to the message key and topic when the headers
// are missing.
func ExtractEventMeta(msg kafka.Message) EventMeta {
	eventID := HeaderValue(msg.Headers, HeaderEventID)
	eventType := HeaderValue(msg.Headers, HeaderEventType)
	if eventID == "" {
		eventID = string(msg.Key)
	}
	if eventType == "" {
		eventType = msg.Topic
	}
	return EventMeta{EventID: eventID, EventType: eventType}
}

// MetaHeaders returns the headers ExtractEventMeta reads back.
func MetaHeaders(meta EventMeta) []kafka.Header {
	return []kafka.Header{
		{Key: HeaderEventID, Value: []byte(meta.EventID)},
		{Key: HeaderEventType, Value: []byte(meta.EventType)},
	}
}

func HeaderValue(headers []kafka.Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func SplitBrokers(raw string) []string {
	return splitList(raw)
}

func SplitTopics(raw string) []string {
	return splitList(raw)
}

func splitList(raw string) []string {
	var out []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
