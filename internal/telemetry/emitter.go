// Package telemetry emits client events to OTel logs and Kafka. Every sink is best-effort.
package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"bankdesk/internal/telemetry/domain"
)

// Source is the value of Event.Source for events produced by this client.
const Source = "bankdesk"

// EventEmitter emits telemetry events (e.g. to OTel Logs). Best-effort; callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event *domain.Event) error
}

// NewEvent builds an event with a fresh id and the current time. meta is marshaled to JSON; a marshal failure
// drops the metadata rather than the event.
func NewEvent(eventType, userID, sessionID string, meta map[string]any) *domain.Event {
	ev := &domain.Event{
		ID:        uuid.NewString(),
		UserID:    userID,
		SessionID: sessionID,
		EventType: eventType,
		Source:    Source,
		CreatedAt: time.Now().UTC(),
	}
	if len(meta) > 0 {
		raw, err := json.Marshal(meta)
		if err != nil {
			log.Printf("telemetry: marshal metadata for %s: %v", eventType, err)
		} else {
			ev.Metadata = raw
		}
	}
	return ev
}

// Fanout emits each event to every non-nil emitter. All emitters are tried; their errors are joined.
type Fanout []EventEmitter

func (f Fanout) Emit(ctx context.Context, event *domain.Event) error {
	if event == nil {
		return nil
	}
	var errs []error
	for _, e := range f {
		if e == nil {
			continue
		}
		if err := e.Emit(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
