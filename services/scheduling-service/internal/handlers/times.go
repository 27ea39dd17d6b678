package handlers

import (
	"fmt"
	"strings"
	"time"
)

// datetime-local values carry no offset and are read in the handler's
// location.
var naiveLayouts = []string{"2006-01-02T15:04:05", "2006-01-02T15:04"}

func (h *Handler) parseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("timestamp is empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, raw, h.loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", raw)
}

// parseDay reads a YYYY-MM-DD query value; empty means today.
func (h *Handler) parseDay(raw string) (time.Time, error) {
	if raw == "" {
		return h.now().In(h.loc), nil
	}
	return time.ParseInLocation(time.DateOnly, raw, h.loc)
}
