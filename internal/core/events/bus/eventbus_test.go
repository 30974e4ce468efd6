package bus

import (
	"errors"
	"testing"
)

func TestBasicPublishSubscribe(t *testing.T) {
	b := New()
	var got Event
	_, err := b.SubscribeTopic(TopicAgents, "box.reached", func(e Event) error {
		got = e
		return nil
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err = b.PublishToTopic(TopicAgents, NewEvent("box.reached", "destroyer", "box-1")); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if got == nil {
		t.Fatal("handler not called")
	}
	if got.Source() != "destroyer" || got.Data() != "box-1" {
		t.Fatalf("unexpected event: %+v", got)
	}
	if got.Timestamp().IsZero() {
		t.Fatal("event not timestamped")
	}
}

func TestDeliveryOrderFollowsSubscription(t *testing.T) {
	b := New()
	var order []int
	for i := 0; i < 5; i++ {
		_, _ = b.SubscribeTopic(TopicAgents, "ev", func(Event) error { order = append(order, i); return nil })
	}
	_ = b.PublishToTopic(TopicAgents, NewEvent("ev", "src", nil))
	for i, v := range order {
		if v != i {
			t.Fatalf("out of order delivery: %v", order)
		}
	}
	if len(order) != 5 {
		t.Fatalf("expected 5 deliveries, got %d", len(order))
	}
}

func TestPublishJoinsErrors(t *testing.T) {
	b := New()
	e1 := errors.New("first")
	e2 := errors.New("second")
	_, _ = b.SubscribeTopic(TopicAgents, "x", func(Event) error { return e1 })
	_, _ = b.SubscribeTopic(TopicAgents, "x", func(Event) error { return nil })
	_, _ = b.SubscribeTopic(TopicAgents, "x", func(Event) error { return e2 })

	err := b.PublishToTopic(TopicAgents, NewEvent("x", "src", nil))
	if !errors.Is(err, e1) || !errors.Is(err, e2) {
		t.Fatalf("expected joined error, got %v", err)
	}
}

func TestTopicsIsolation(t *testing.T) {
	b := New()
	count1, count2 := 0, 0
	_, _ = b.SubscribeTopic("t1", "ev", func(Event) error { count1++; return nil })
	_, _ = b.SubscribeTopic("t2", "ev", func(Event) error { count2++; return nil })
	_ = b.PublishToTopic("t1", NewEvent("ev", "src", nil))
	if count1 != 1 || count2 != 0 {
		t.Fatalf("topic isolation failed: %d %d", count1, count2)
	}
	_ = b.PublishToTopic("", NewEvent("ev", "src", nil))
	if count1 != 1 || count2 != 0 {
		t.Fatalf("default topic leaked into named topics: %d %d", count1, count2)
	}
}

func TestWildcard(t *testing.T) {
	b := New()
	var seen []string
	_, _ = b.SubscribeTopic(TopicFrames, Wildcard, func(e Event) error { seen = append(seen, e.Type()); return nil })
	_ = b.PublishToTopic(TopicFrames, NewEvent("frame", "sim", nil))
	_ = b.PublishToTopic(TopicFrames, NewEvent("reset", "sim", nil))
	_ = b.PublishToTopic(TopicAgents, NewEvent("frame", "sim", nil))
	if len(seen) != 2 || seen[0] != "frame" || seen[1] != "reset" {
		t.Fatalf("wildcard saw %v", seen)
	}
}

func TestCancelStopsDelivery(t *testing.T) {
	b := New()
	calls := 0
	sub, err := b.SubscribeTopic(TopicAgents, "e", func(Event) error { calls++; return nil })
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	_ = b.PublishToTopic(TopicAgents, NewEvent("e", "s", nil))
	if err = b.Unsubscribe(sub); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	if sub.IsActive() {
		t.Fatal("subscription still active")
	}
	_ = sub.Cancel()
	_ = b.PublishToTopic(TopicAgents, NewEvent("e", "s", nil))
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
	if err = b.Unsubscribe(nil); err != nil {
		t.Fatalf("nil unsubscribe: %v", err)
	}
}

func TestSubscribeRejectsNilHandler(t *testing.T) {
	if _, err := New().SubscribeTopic(TopicAgents, "e", nil); !errors.Is(err, ErrNilHandler) {
		t.Fatalf("expected ErrNilHandler, got %v", err)
	}
}
