package bus

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("connectivity.", 10)
	defer unsub()

	b.Publish(Event{Kind: KindConnectivityChanged, Timestamp: time.Now(), Payload: "test"})

	select {
	case evt := <-ch:
		if evt.Kind != KindConnectivityChanged {
			t.Errorf("got kind %q, want %s", evt.Kind, KindConnectivityChanged)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestNamespaceFiltering(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("transcript.", 10)
	defer unsub()

	b.Publish(Event{Kind: KindConversationUpserted})
	b.Publish(Event{Kind: KindTranscriptLoaded})

	select {
	case evt := <-ch:
		if evt.Kind != KindTranscriptLoaded {
			t.Errorf("got kind %q, want %s", evt.Kind, KindTranscriptLoaded)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}

	select {
	case evt := <-ch:
		t.Errorf("unexpected event: %v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEmptyNamespaceMatchesAll(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("", 10)
	defer unsub()

	b.Emit(KindMessageSendAck, nil)
	b.Emit(KindConversationSelected, "c1")

	for _, want := range []string{KindMessageSendAck, KindConversationSelected} {
		evt := <-ch
		if evt.Kind != want {
			t.Errorf("got %q, want %q", evt.Kind, want)
		}
		if evt.Timestamp.IsZero() {
			t.Error("Emit() left the timestamp unset")
		}
	}
}

func TestUnsubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("message.", 10)
	unsub()
	unsub()

	b.Publish(Event{Kind: KindMessageOptimistic})

	select {
	case evt := <-ch:
		t.Errorf("received event after unsubscribe: %v", evt)
	case <-time.After(50 * time.Millisecond):
	}
	if n := b.Subscribers(); n != 0 {
		t.Errorf("subscribers = %d, want 0", n)
	}
}

func TestDropOnFullBuffer(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("test.", 1)
	defer unsub()

	b.Publish(Event{Kind: "test.one"})
	// Dropped: the buffer is full.
	b.Publish(Event{Kind: "test.two"})

	evt := <-ch
	if evt.Kind != "test.one" {
		t.Errorf("got %q, want test.one", evt.Kind)
	}
	if d := b.Dropped(); d != 1 {
		t.Errorf("dropped = %d, want 1", d)
	}
}

func TestNilBusPublishIsNoop(t *testing.T) {
	var b *Bus
	b.Emit(KindConnectivityChanged, nil)
}

func TestNamespace(t *testing.T) {
	tests := map[string]string{
		"message.send_ack": "message.",
		"plain":            "plain",
		"a.b.c":            "a.",
	}
	for kind, want := range tests {
		if got := Namespace(kind); got != want {
			t.Errorf("Namespace(%q) = %q, want %q", kind, got, want)
		}
	}
}
