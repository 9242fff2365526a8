package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"bankdesk/internal/telemetry/domain"
)

// mockEventEmitter implements EventEmitter for tests.
type mockEventEmitter struct {
	mu      sync.Mutex
	events  []*domain.Event
	emitErr error
	delay   time.Duration
	done    chan struct{}
}

func (m *mockEventEmitter) Emit(ctx context.Context, event *domain.Event) error {
	if m.delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.delay):
		}
	}
	m.mu.Lock()
	m.events = append(m.events, event)
	m.mu.Unlock()
	if m.done != nil {
		m.done <- struct{}{}
	}
	return m.emitErr
}

func (m *mockEventEmitter) getEvents() []*domain.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.events
}

func waitEmits(t *testing.T, done chan struct{}, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for emit %d of %d", i+1, n)
		}
	}
}

func TestEmitAsync_NilEmitter(t *testing.T) {
	// Should not panic
	EmitAsync(nil, context.Background(), &domain.Event{EventType: "test"})
}

func TestEmitAsync_NilEvent(t *testing.T) {
	emitter := &mockEventEmitter{}
	EmitAsync(emitter, context.Background(), nil)

	time.Sleep(10 * time.Millisecond)
	if n := len(emitter.getEvents()); n != 0 {
		t.Errorf("expected 0 events, got %d", n)
	}
}

func TestEmitAsync_SuccessfulEmit(t *testing.T) {
	emitter := &mockEventEmitter{done: make(chan struct{}, 1)}
	event := NewEvent(domain.EventTransferSucceeded, "user-1", "sess-1", map[string]any{"transaction_id": "TXN001"})

	EmitAsync(emitter, context.Background(), event)
	waitEmits(t, emitter.done, 1)

	events := emitter.getEvents()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].UserID != "user-1" || events[0].SessionID != "sess-1" {
		t.Errorf("event = %+v", events[0])
	}
	if events[0].EventType != domain.EventTransferSucceeded {
		t.Errorf("event type = %q", events[0].EventType)
	}
}

func TestEmitAsync_UsesBackgroundContext(t *testing.T) {
	emitter := &mockEventEmitter{done: make(chan struct{}, 1)}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	EmitAsync(emitter, ctx, &domain.Event{EventType: "test"})
	waitEmits(t, emitter.done, 1)

	if n := len(emitter.getEvents()); n != 1 {
		t.Errorf("expected 1 event (context.Background used), got %d", n)
	}
}

func TestEmitAsync_ErrorDoesNotReachCaller(t *testing.T) {
	emitter := &mockEventEmitter{emitErr: errors.New("sink down"), done: make(chan struct{}, 1)}
	EmitAsync(emitter, context.Background(), &domain.Event{EventType: "test"})
	waitEmits(t, emitter.done, 1)
}

func TestEmitAsync_ConcurrentAccess(t *testing.T) {
	emitter := &mockEventEmitter{done: make(chan struct{}, 10)}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			EmitAsync(emitter, context.Background(), &domain.Event{EventType: "test"})
		}()
	}
	wg.Wait()
	waitEmits(t, emitter.done, 10)

	if n := len(emitter.getEvents()); n != 10 {
		t.Errorf("expected 10 events, got %d", n)
	}
}

func TestNewEvent(t *testing.T) {
	ev := NewEvent(domain.EventPinCreated, "42", "", map[string]any{"ok": true})
	if ev.ID == "" {
		t.Error("ID should be set")
	}
	if ev.Source != Source {
		t.Errorf("Source = %q, want %q", ev.Source, Source)
	}
	if ev.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
	var meta map[string]any
	if err := json.Unmarshal(ev.Metadata, &meta); err != nil || meta["ok"] != true {
		t.Errorf("Metadata = %s (%v)", ev.Metadata, err)
	}
	if other := NewEvent(domain.EventPinCreated, "42", "", nil); other.ID == ev.ID || other.Metadata != nil {
		t.Errorf("second event = %+v", other)
	}
}

func TestNewEvent_UnmarshalableMetadataDropped(t *testing.T) {
	ev := NewEvent("test", "", "", map[string]any{"ch": make(chan int)})
	if ev.Metadata != nil {
		t.Errorf("Metadata = %s, want nil", ev.Metadata)
	}
}

func TestFanout(t *testing.T) {
	a := &mockEventEmitter{}
	b := &mockEventEmitter{emitErr: errors.New("kafka down")}
	c := &mockEventEmitter{}
	f := Fanout{a, nil, b, c}

	err := f.Emit(context.Background(), &domain.Event{EventType: "test"})
	if err == nil || !strings.Contains(err.Error(), "kafka down") {
		t.Errorf("err = %v, want joined sink error", err)
	}
	for i, m := range []*mockEventEmitter{a, b, c} {
		if len(m.getEvents()) != 1 {
			t.Errorf("emitter %d got %d events, want 1", i, len(m.getEvents()))
		}
	}
	if err := f.Emit(context.Background(), nil); err != nil {
		t.Errorf("Emit(nil) = %v", err)
	}
}

func TestDrain(t *testing.T) {
	slow := &mockEventEmitter{delay: 300 * time.Millisecond}
	EmitAsync(slow, context.Background(), &domain.Event{EventType: "slow"})
	if Drain(10 * time.Millisecond) {
		t.Error("Drain should time out while an emit is in flight")
	}
	if !Drain(2 * time.Second) {
		t.Fatal("Drain should finish once the emit completes")
	}
	if len(slow.getEvents()) != 1 {
		t.Errorf("events = %d, want 1", len(slow.getEvents()))
	}
	if !Drain(time.Millisecond) {
		t.Error("Drain with nothing in flight should return true")
	}
}
