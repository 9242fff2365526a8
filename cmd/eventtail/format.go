package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"bankdesk/internal/telemetry/domain"
)

// formatEvent renders a Kafka message value as one line: time, type, user, role, session and metadata.
func formatEvent(value []byte) (string, error) {
	var ev domain.Event
	if err := json.Unmarshal(value, &ev); err != nil {
		return "", fmt.Errorf("decode event: %w", err)
	}
	if ev.EventType == "" {
		return "", fmt.Errorf("decode event: missing eventType")
	}
	parts := []string{ev.CreatedAt.UTC().Format(time.RFC3339), ev.EventType}
	for _, kv := range []struct{ k, v string }{
		{"user", ev.UserID},
		{"role", ev.Role},
		{"session", ev.SessionID},
	} {
		if kv.v != "" {
			parts = append(parts, kv.k+"="+kv.v)
		}
	}
	if len(ev.Metadata) > 0 {
		parts = append(parts, string(ev.Metadata))
	}
	return strings.Join(parts, " "), nil
}
