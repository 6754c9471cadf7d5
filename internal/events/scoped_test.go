package events

import (
	"log/slog"
	"testing"
)

func TestScoped_EmitTagsSource(t *testing.T) {
	b := NewBus(slog.Default())
	s := NewScoped(b, "canvas")

	var got Event
	b.Subscribe(CanvasDirty, func(ev Event) { got = ev })

	s.Emit(CanvasDirty, nil)

	if got.Source != "canvas" {
		t.Errorf("expected source canvas, got %q", got.Source)
	}
	if got.Timestamp.IsZero() {
		t.Error("timestamp must be set")
	}
}

func TestScoped_DestroyRemovesAllSubscriptions(t *testing.T) {
	b := NewBus(slog.Default())
	s := NewScoped(b, "panel")

	count := 0
	s.Subscribe(NodeAdded, func(Event) { count++ })
	s.Subscribe(NodeRemoved, func(Event) { count++ })
	s.Once(WidgetChanged, func(Event) { count++ })

	s.Destroy()

	b.Emit(NodeAdded, nil)
	b.Emit(NodeRemoved, nil)
	b.Emit(WidgetChanged, nil)

	if count != 0 {
		t.Errorf("destroyed scope handlers fired %d times", count)
	}
}

func TestScoped_SubscribeAfterDestroy(t *testing.T) {
	b := NewBus(slog.Default())
	s := NewScoped(b, "panel")
	s.Destroy()

	if id := s.Subscribe(NodeAdded, func(Event) {}); id != 0 {
		t.Errorf("subscribe after destroy should be rejected, got id %d", id)
	}
	if b.SubscriberCount(NodeAdded) != 0 {
		t.Error("no subscription should reach the bus after destroy")
	}
}

func TestScoped_DoesNotAffectOtherSubscribers(t *testing.T) {
	b := NewBus(slog.Default())
	s := NewScoped(b, "panel")

	outside := 0
	b.Subscribe(NodeAdded, func(Event) { outside++ })
	s.Subscribe(NodeAdded, func(Event) {})
	s.Destroy()

	b.Emit(NodeAdded, nil)

	if outside != 1 {
		t.Errorf("outside subscriber must survive scope destroy, got %d", outside)
	}
}
