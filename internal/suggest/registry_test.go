package suggest

import "testing"

type recordingSubscriber struct {
	events [][]byte
	fail   bool
}

func (s *recordingSubscriber) Send(data []byte) error {
	if s.fail {
		return errStalled
	}
	s.events = append(s.events, data)
	return nil
}

var errStalled = errTest("subscriber stalled")

type errTest string

func (e errTest) Error() string { return string(e) }

func TestRegistryAddRemoveSubscriber(t *testing.T) {
	r := NewRegistry()
	sub := &recordingSubscriber{}

	r.AddSubscriber("sess-A", sub)
	if got := r.SubscriberCount("sess-A"); got != 1 {
		t.Fatalf("Except 1 subscriber, but got %d", got)
	}

	r.RemoveSubscriber("sess-A", sub)
	if got := r.SubscriberCount("sess-A"); got != 0 {
		t.Fatalf("Except 0 subscribers, but got %d", got)
	}
}

func TestRegistryRemoveSubscriberIdempotent(t *testing.T) {
	r := NewRegistry()
	sub := &recordingSubscriber{}

	r.AddSubscriber("sess-A", sub)
	r.RemoveSubscriber("sess-A", sub)
	r.RemoveSubscriber("sess-A", sub)

	if got := r.SessionCount(); got != 0 {
		t.Fatalf("Except 0 sessions after double removal, but got %d", got)
	}
}

func TestRegistryRemoveSubscriberUnknownSession(t *testing.T) {
	r := NewRegistry()
	// Unknown sessions behave as empty sessions, never panic
	r.RemoveSubscriber("never-seen", &recordingSubscriber{})

	if got := r.SessionCount(); got != 0 {
		t.Fatalf("Except 0 sessions, but got %d", got)
	}
}

func TestRegistryGarbageCollection(t *testing.T) {
	r := NewRegistry()

	for i := 0; i < 100; i++ {
		sub := &recordingSubscriber{}
		r.AddSubscriber("sess-A", sub)
		r.RemoveSubscriber("sess-A", sub)
	}

	if got := r.SessionCount(); got != 0 {
		t.Fatalf("Except session entry collected after connect/disconnect cycles, but got %d entries", got)
	}
}

func TestRegistryEntrySurvivesWhileLatestStored(t *testing.T) {
	r := NewRegistry()
	sub := &recordingSubscriber{}

	r.AddSubscriber("sess-A", sub)
	r.SetLatest("sess-A", Payload{Items: []Item{{ID: "1", Text: "Yes", Type: ItemTypeConfirmation}}})
	r.RemoveSubscriber("sess-A", sub)

	// Latest payload keeps the entry alive so a late subscriber can replay
	if got := r.SessionCount(); got != 1 {
		t.Fatalf("Except 1 session while latest payload stored, but got %d", got)
	}
	if _, ok := r.Latest("sess-A"); !ok {
		t.Fatal("Except latest payload to survive last disconnect")
	}
}

func TestRegistrySetLatestOverwrites(t *testing.T) {
	r := NewRegistry()

	r.SetLatest("sess-A", Payload{Items: []Item{{ID: "1", Text: "old", Type: ItemTypeSuggestion}}})
	r.SetLatest("sess-A", Payload{Items: []Item{{ID: "2", Text: "new", Type: ItemTypeSuggestion}}})

	p, ok := r.Latest("sess-A")
	if !ok {
		t.Fatal("Except latest payload present")
	}
	if len(p.Items) != 1 || p.Items[0].ID != "2" {
		t.Fatalf("Except latest payload overwritten, but got %+v", p.Items)
	}
}

func TestRegistryLatestUnknownSession(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Latest("never-seen"); ok {
		t.Fatal("Except no latest payload for unknown session")
	}
	if subs := r.Subscribers("never-seen"); len(subs) != 0 {
		t.Fatalf("Except empty subscriber set for unknown session, but got %d", len(subs))
	}
}

func TestRegistrySubscribersSnapshot(t *testing.T) {
	r := NewRegistry()
	first := &recordingSubscriber{}
	second := &recordingSubscriber{}
	r.AddSubscriber("sess-A", first)
	r.AddSubscriber("sess-A", second)

	snapshot := r.Subscribers("sess-A")
	// Mutating the registry must not disturb an already-taken snapshot
	r.RemoveSubscriber("sess-A", first)
	r.RemoveSubscriber("sess-A", second)

	if len(snapshot) != 2 {
		t.Fatalf("Except snapshot of 2 subscribers, but got %d", len(snapshot))
	}
}
