package conversation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func inbound(id, body string, offset time.Duration) Message {
	return Message{
		ID:        Confirmed(id),
		Body:      body,
		Role:      RoleCounterpart,
		Timestamp: t0.Add(offset),
		Status:    StatusDelivered,
		Kind:      KindText,
	}
}

func seeded(t *testing.T, summaries ...Summary) *Store {
	t.Helper()
	s := NewStore()
	ticket, ok := s.LoadSummaries(summaries)
	if len(summaries) > 0 && !ok {
		t.Fatal("LoadSummaries() did not activate the first conversation")
	}
	if ok && !s.ApplyTranscript(ticket, nil) {
		t.Fatal("ApplyTranscript() rejected a current ticket")
	}
	return s
}

func TestLoadSummariesActivatesFirst(t *testing.T) {
	s := NewStore()
	ticket, ok := s.LoadSummaries([]Summary{{ID: "c1"}, {ID: "c2"}})
	if !ok {
		t.Fatal("expected activation")
	}
	if ticket.ConversationID != "c1" {
		t.Errorf("ticket conversation = %q, want c1", ticket.ConversationID)
	}
	if s.ActiveID() != "c1" {
		t.Errorf("active = %q, want c1", s.ActiveID())
	}

	// A reload keeps the existing selection.
	if _, ok := s.LoadSummaries([]Summary{{ID: "c2"}, {ID: "c1"}}); ok {
		t.Error("reload should not change the active conversation")
	}
	if s.ActiveID() != "c1" {
		t.Errorf("active = %q after reload, want c1", s.ActiveID())
	}
}

func TestLoadSummariesEmpty(t *testing.T) {
	s := NewStore()
	if _, ok := s.LoadSummaries(nil); ok {
		t.Error("empty list must not activate anything")
	}
	if s.ActiveID() != "" {
		t.Errorf("active = %q, want empty", s.ActiveID())
	}
}

func TestIncomingToActiveAppendsInCallOrder(t *testing.T) {
	s := seeded(t, Summary{ID: "c1"})

	const n = 25
	for i := 0; i < n; i++ {
		s.ApplyIncomingMessage(inbound(fmt.Sprintf("m%d", i), "body", time.Duration(i)*time.Second), "c1")
	}

	v := s.Snapshot()
	if len(v.Transcript) != n {
		t.Fatalf("transcript length = %d, want %d", len(v.Transcript), n)
	}
	for i, m := range v.Transcript {
		if want := fmt.Sprintf("m%d", i); m.ID.String() != want {
			t.Errorf("transcript[%d] = %s, want %s", i, m.ID, want)
		}
	}
}

func TestIncomingEqualTimestampsKeepCallOrder(t *testing.T) {
	s := seeded(t, Summary{ID: "c1"})
	for _, id := range []string{"a", "b", "c"} {
		s.ApplyIncomingMessage(inbound(id, id, 0), "c1")
	}
	var got []string
	for _, m := range s.Snapshot().Transcript {
		got = append(got, m.ID.String())
	}
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestIncomingOutOfOrderIsPlacedByTimestamp(t *testing.T) {
	s := seeded(t, Summary{ID: "c1"})
	s.ApplyIncomingMessage(inbound("m1", "one", 1*time.Second), "c1")
	s.ApplyIncomingMessage(inbound("m3", "three", 3*time.Second), "c1")
	s.ApplyIncomingMessage(inbound("m2", "two", 2*time.Second), "c1")

	var got []string
	for _, m := range s.Snapshot().Transcript {
		got = append(got, m.ID.String())
	}
	if want := []string{"m1", "m2", "m3"}; !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestSelectResetsUnread(t *testing.T) {
	for _, unread := range []int{0, 1, 7, 1000} {
		t.Run(fmt.Sprint(unread), func(t *testing.T) {
			s := seeded(t, Summary{ID: "c1"}, Summary{ID: "c2", Unread: unread})
			s.SelectActive("c2")
			sum, ok := s.Summary("c2")
			if !ok {
				t.Fatal("summary c2 missing")
			}
			if sum.Unread != 0 {
				t.Errorf("unread = %d, want 0", sum.Unread)
			}
		})
	}
}

func TestSelectClearsTranscript(t *testing.T) {
	s := seeded(t, Summary{ID: "c1"}, Summary{ID: "c2"})
	s.ApplyIncomingMessage(inbound("m1", "hi", 0), "c1")

	s.SelectActive("c2")
	if n := len(s.Snapshot().Transcript); n != 0 {
		t.Errorf("transcript length = %d after switch, want 0", n)
	}
}

// Scenario: summaries [{c1, unread 0}], c1 active with an empty transcript.
func TestIncomingToActiveScenario(t *testing.T) {
	s := seeded(t, Summary{ID: "c1", Unread: 0})
	msg := inbound("m1", "hello there", time.Minute)

	res := s.ApplyIncomingMessage(msg, "c1")
	if !res.Appended || res.Created {
		t.Errorf("applied = %+v, want appended and not created", res)
	}

	v := s.Snapshot()
	if len(v.Transcript) != 1 || v.Transcript[0].ID != msg.ID {
		t.Fatalf("transcript = %+v, want [m1]", v.Transcript)
	}
	sum, _ := s.Summary("c1")
	if sum.Preview != "hello there" {
		t.Errorf("preview = %q, want %q", sum.Preview, "hello there")
	}
	if !sum.PreviewAt.Equal(msg.Timestamp) {
		t.Errorf("preview at = %v, want %v", sum.PreviewAt, msg.Timestamp)
	}
	if sum.Unread != 0 {
		t.Errorf("unread = %d, want 0", sum.Unread)
	}
}

func TestIncomingWithoutTimestampAppendsAtTail(t *testing.T) {
	arrived := t0.Add(time.Hour)
	s := NewStore(WithClock(func() time.Time { return arrived }))
	ticket, _ := s.LoadSummaries([]Summary{{ID: "c1"}, {ID: "c2", PreviewAt: t0.Add(time.Minute)}})
	s.ApplyTranscript(ticket, []Message{inbound("h1", "history", 0)})

	s.ApplyIncomingMessage(Message{ID: Confirmed("m2"), Body: "latest", Role: RoleCounterpart, Kind: KindText}, "c1")

	v := s.Snapshot()
	if len(v.Transcript) != 2 || v.Transcript[1].ID.String() != "m2" {
		t.Fatalf("transcript = %+v, want newest arrival last", v.Transcript)
	}
	if !v.Transcript[1].Timestamp.Equal(arrived) {
		t.Errorf("timestamp = %v, want %v", v.Transcript[1].Timestamp, arrived)
	}
	sum, _ := s.Summary("c1")
	if !sum.PreviewAt.Equal(arrived) {
		t.Errorf("preview at = %v, want %v", sum.PreviewAt, arrived)
	}
}

// Scenario: c1 active, inbound message to c2 which had 3 unread.
func TestIncomingToInactiveScenario(t *testing.T) {
	s := seeded(t, Summary{ID: "c1"}, Summary{ID: "c2", Unread: 3, Preview: "old"})
	s.ApplyIncomingMessage(inbound("a", "active msg", 0), "c1")
	before := s.Snapshot().Transcript

	res := s.ApplyIncomingMessage(inbound("b", "new for c2", time.Second), "c2")
	if res.Appended {
		t.Error("message to inactive conversation must not be appended")
	}

	if after := s.Snapshot().Transcript; !reflect.DeepEqual(before, after) {
		t.Errorf("active transcript changed: before %+v, after %+v", before, after)
	}
	sum, _ := s.Summary("c2")
	if sum.Unread != 4 {
		t.Errorf("unread = %d, want 4", sum.Unread)
	}
	if sum.Preview != "new for c2" {
		t.Errorf("preview = %q, want %q", sum.Preview, "new for c2")
	}
}

func TestIncomingToInactiveIncrementsByOne(t *testing.T) {
	s := seeded(t, Summary{ID: "c1"}, Summary{ID: "c2"})
	for i := 1; i <= 5; i++ {
		s.ApplyIncomingMessage(inbound(fmt.Sprint(i), "x", 0), "c2")
		sum, _ := s.Summary("c2")
		if sum.Unread != i {
			t.Fatalf("after %d messages unread = %d", i, sum.Unread)
		}
	}
}

func TestIncomingCreatesUnseenConversationAtTop(t *testing.T) {
	s := seeded(t, Summary{ID: "c1"}, Summary{ID: "c2"})

	res := s.ApplyIncomingMessage(inbound("m", "first contact", 0), "c9")
	if !res.Created {
		t.Error("expected a new summary")
	}
	s.Describe("c9", "Maria", "5511999990000", "")

	v := s.Snapshot()
	if v.Summaries[0].ID != "c9" {
		t.Fatalf("top summary = %q, want c9", v.Summaries[0].ID)
	}
	if v.Summaries[0].Unread != 1 || v.Summaries[0].Name != "Maria" {
		t.Errorf("summary = %+v, want unread 1 and name Maria", v.Summaries[0])
	}
}

func TestIncomingMovesConversationToTop(t *testing.T) {
	s := seeded(t, Summary{ID: "c1"}, Summary{ID: "c2"}, Summary{ID: "c3"})
	s.ApplyIncomingMessage(inbound("m", "x", 0), "c3")

	var order []string
	for _, sum := range s.Snapshot().Summaries {
		order = append(order, sum.ID)
	}
	if want := []string{"c3", "c1", "c2"}; !reflect.DeepEqual(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestIncomingWithoutConversationTargetsActive(t *testing.T) {
	s := seeded(t, Summary{ID: "c1"})
	res := s.ApplyIncomingMessage(inbound("m", "x", 0), "")
	if res.ConversationID != "c1" || !res.Appended {
		t.Errorf("applied = %+v, want appended to c1", res)
	}

	empty := NewStore()
	if res := empty.ApplyIncomingMessage(inbound("m", "x", 0), ""); res.ConversationID != "" {
		t.Errorf("applied = %+v, want dropped with no active conversation", res)
	}
}

func TestStatusUpdateUnknownIDLeavesTranscript(t *testing.T) {
	s := seeded(t, Summary{ID: "c1"})
	s.ApplyIncomingMessage(inbound("m1", "a", 0), "c1")
	s.AppendOptimistic("c1", Message{ID: Provisional("p1"), Body: "b", Role: RoleSelf, Status: StatusPending})

	before, _ := json.Marshal(s.Snapshot().Transcript)
	if s.ApplyStatusUpdate("nope", StatusRead) {
		t.Error("ApplyStatusUpdate() reported a match for an unknown id")
	}
	// Provisional ids are never addressed by backend status events.
	if s.ApplyStatusUpdate("p1", StatusRead) {
		t.Error("ApplyStatusUpdate() matched a provisional id")
	}
	after, _ := json.Marshal(s.Snapshot().Transcript)
	if string(before) != string(after) {
		t.Errorf("transcript changed:\n%s\n%s", before, after)
	}
}

func TestStatusUpdatePermissiveByDefault(t *testing.T) {
	s := seeded(t, Summary{ID: "c1"})
	s.ApplyIncomingMessage(inbound("m1", "a", 0), "c1")

	for _, st := range []Status{StatusRead, StatusSent} {
		if !s.ApplyStatusUpdate("m1", st) {
			t.Fatalf("ApplyStatusUpdate(%s) not applied", st)
		}
	}
	if got := s.Snapshot().Transcript[0].Status; got != StatusSent {
		t.Errorf("status = %s, want sent (last write wins)", got)
	}
}

func TestStatusUpdateStrictOrder(t *testing.T) {
	s := NewStore(WithStrictStatusOrder())
	ticket, _ := s.LoadSummaries([]Summary{{ID: "c1"}})
	s.ApplyTranscript(ticket, []Message{inbound("m1", "a", 0)})

	tests := []struct {
		status  Status
		applied bool
		want    Status
	}{
		{StatusRead, true, StatusRead},
		{StatusSent, false, StatusRead},
		{StatusDelivered, false, StatusRead},
		{StatusRead, true, StatusRead},
	}
	for _, tt := range tests {
		if got := s.ApplyStatusUpdate("m1", tt.status); got != tt.applied {
			t.Errorf("ApplyStatusUpdate(%s) = %v, want %v", tt.status, got, tt.applied)
		}
		if got := s.Snapshot().Transcript[0].Status; got != tt.want {
			t.Errorf("status = %s, want %s", got, tt.want)
		}
	}
}

func TestOptimisticThenSuccessReplacesInPlace(t *testing.T) {
	s := seeded(t, Summary{ID: "c1"})
	s.ApplyIncomingMessage(inbound("m1", "a", 0), "c1")
	s.ApplyIncomingMessage(inbound("m2", "b", time.Second), "c1")

	pid := Provisional("local-1")
	if !s.AppendOptimistic("c1", Message{ID: pid, Body: "hi", Role: RoleSelf, Status: StatusPending, Timestamp: t0.Add(2 * time.Second)}) {
		t.Fatal("AppendOptimistic() rejected the active conversation")
	}
	// A later inbound message lands after the optimistic entry.
	s.ApplyIncomingMessage(inbound("m3", "c", 3*time.Second), "c1")
	afterAppend := len(s.Snapshot().Transcript)

	if !s.Reconcile(pid, Success("srv-9")) {
		t.Fatal("Reconcile() missed the provisional message")
	}
	v := s.Snapshot()
	if len(v.Transcript) != afterAppend {
		t.Fatalf("length = %d, want %d (no growth on reconcile)", len(v.Transcript), afterAppend)
	}
	got := v.Transcript[2]
	if got.ID.IsProvisional() || got.ID.String() != "srv-9" {
		t.Errorf("id = %v, want confirmed srv-9", got.ID)
	}
	if got.Status != StatusSent {
		t.Errorf("status = %s, want sent", got.Status)
	}
	if got.Body != "hi" {
		t.Errorf("body = %q, want hi", got.Body)
	}

	// A second reconcile for the same provisional id is a no-op.
	if s.Reconcile(pid, Failure(errors.New("late"))) {
		t.Error("second Reconcile() should miss")
	}
	if len(s.Snapshot().Transcript) != afterAppend {
		t.Error("second Reconcile() changed the transcript")
	}
}

func TestOptimisticThenFailureRestoresTranscript(t *testing.T) {
	s := seeded(t, Summary{ID: "c1"})
	s.ApplyIncomingMessage(inbound("m1", "a", 0), "c1")
	before := s.Snapshot().Transcript

	pid := Provisional("local-2")
	s.AppendOptimistic("c1", Message{ID: pid, Body: "oops", Role: RoleSelf, Status: StatusPending})
	if !s.Reconcile(pid, Failure(errors.New("rejected"))) {
		t.Fatal("Reconcile() missed the provisional message")
	}

	if after := s.Snapshot().Transcript; !reflect.DeepEqual(before, after) {
		t.Errorf("transcript = %+v, want %+v", after, before)
	}
}

func TestAppendOptimisticInactiveIsNoop(t *testing.T) {
	s := seeded(t, Summary{ID: "c1"}, Summary{ID: "c2"})
	if s.AppendOptimistic("c2", Message{ID: Provisional("p")}) {
		t.Error("AppendOptimistic() accepted an inactive conversation")
	}
	if n := len(s.Snapshot().Transcript); n != 0 {
		t.Errorf("transcript length = %d, want 0", n)
	}
}

func TestStaleTranscriptLoadIsDropped(t *testing.T) {
	s := seeded(t, Summary{ID: "c1"}, Summary{ID: "c2"})

	first := s.SelectActive("c2")
	second := s.SelectActive("c1")
	if s.ApplyTranscript(first, []Message{inbound("x", "stale", 0)}) {
		t.Error("load for a superseded selection was applied")
	}
	if !s.ApplyTranscript(second, []Message{inbound("y", "fresh", 0)}) {
		t.Error("current load was rejected")
	}

	// Reselecting the same conversation also supersedes an older load.
	third := s.SelectActive("c1")
	fourth := s.SelectActive("c1")
	if s.ApplyTranscript(third, nil) {
		t.Error("older ticket for the same conversation was applied")
	}
	if !s.ApplyTranscript(fourth, []Message{inbound("z", "latest", 0)}) {
		t.Error("latest ticket rejected")
	}
	v := s.Snapshot()
	if len(v.Transcript) != 1 || v.Transcript[0].ID.String() != "z" {
		t.Errorf("transcript = %+v, want [z]", v.Transcript)
	}
}

func TestApplyTranscriptKeepsEntriesAddedDuringLoad(t *testing.T) {
	s := seeded(t, Summary{ID: "c1"}, Summary{ID: "c2"})
	ticket := s.SelectActive("c2")

	// While the history load is in flight: a live message, a confirmed send
	// and a live copy of a history message with a newer status.
	s.ApplyIncomingMessage(inbound("live", "new", 3*time.Minute), "c2")
	pid := Provisional("local-1")
	s.AppendOptimistic("c2", Message{ID: pid, Body: "mine", Role: RoleSelf, Timestamp: t0.Add(4 * time.Minute), Status: StatusPending})
	s.Reconcile(pid, Outcome{ConfirmedID: "srv-1", Status: StatusSent})
	dup := inbound("h2", "there", time.Minute)
	dup.Status = StatusRead
	s.ApplyIncomingMessage(dup, "c2")

	if !s.ApplyTranscript(ticket, []Message{inbound("h1", "hey", 0), inbound("h2", "there", time.Minute)}) {
		t.Fatal("current load rejected")
	}

	v := s.Snapshot()
	var ids []string
	for _, m := range v.Transcript {
		ids = append(ids, m.ID.String())
	}
	if want := []string{"h1", "h2", "live", "srv-1"}; !reflect.DeepEqual(ids, want) {
		t.Fatalf("transcript = %v, want %v", ids, want)
	}
	if v.Transcript[1].Status != StatusRead {
		t.Errorf("h2 status = %s, want read", v.Transcript[1].Status)
	}
}

func TestApplyTranscriptSortsByTimestamp(t *testing.T) {
	s := NewStore()
	ticket, _ := s.LoadSummaries([]Summary{{ID: "c1"}})
	s.ApplyTranscript(ticket, []Message{
		inbound("b", "", 2*time.Second),
		inbound("a", "", time.Second),
	})
	v := s.Snapshot()
	if v.Transcript[0].ID.String() != "a" {
		t.Errorf("first = %s, want a", v.Transcript[0].ID)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	s := seeded(t, Summary{ID: "c1"})
	s.ApplyIncomingMessage(Message{ID: Confirmed("m"), Kind: KindTemplate, Params: Params{{Name: "n", Value: "v"}}}, "c1")

	v := s.Snapshot()
	v.Summaries[0].Preview = "mutated"
	v.Transcript[0].Params[0].Value = "mutated"

	again := s.Snapshot()
	if again.Summaries[0].Preview == "mutated" || again.Transcript[0].Params[0].Value == "mutated" {
		t.Error("snapshot shares memory with the store")
	}
}

func TestTemplatePreviewFallsBackToName(t *testing.T) {
	s := seeded(t, Summary{ID: "c1"}, Summary{ID: "c2"})
	s.ApplyIncomingMessage(Message{ID: Confirmed("m"), Kind: KindTemplate, TemplateName: "welcome"}, "c2")
	sum, _ := s.Summary("c2")
	if sum.Preview != "Template: welcome" {
		t.Errorf("preview = %q", sum.Preview)
	}
}

func TestUpdatePreview(t *testing.T) {
	s := seeded(t, Summary{ID: "c1"}, Summary{ID: "c2", Unread: 2})
	if !s.UpdatePreview("c2", "sent text", t0) {
		t.Fatal("UpdatePreview() missed c2")
	}
	v := s.Snapshot()
	if v.Summaries[0].ID != "c2" || v.Summaries[0].Preview != "sent text" || v.Summaries[0].Unread != 2 {
		t.Errorf("summary = %+v", v.Summaries[0])
	}
	if s.UpdatePreview("missing", "x", t0) {
		t.Error("UpdatePreview() reported a match for an unknown conversation")
	}
}

func TestParamsJSONKeepsOrder(t *testing.T) {
	var p Params
	if err := json.Unmarshal([]byte(`{"z":"1","a":"2","m":"3"}`), &p); err != nil {
		t.Fatal(err)
	}
	want := Params{{"z", "1"}, {"a", "2"}, {"m", "3"}}
	if !reflect.DeepEqual(p, want) {
		t.Fatalf("params = %+v, want %+v", p, want)
	}
	out, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `{"z":"1","a":"2","m":"3"}` {
		t.Errorf("marshal = %s", out)
	}
	if v, ok := p.Get("a"); !ok || v != "2" {
		t.Errorf("Get(a) = %q, %v", v, ok)
	}
}

func TestParamsRejectsNonObject(t *testing.T) {
	var p Params
	if err := json.Unmarshal([]byte(`["a"]`), &p); err == nil {
		t.Error("expected error for array parameters")
	}
}

func TestFilter(t *testing.T) {
	list := []Summary{
		{ID: "1", Name: "John Doe", Address: "1234567890"},
		{ID: "2", Name: "Ana", Address: "5511988887777"},
	}
	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"1", "2"}},
		{"john", []string{"1"}},
		{"5511", []string{"2"}},
		{"zzz", nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			var got []string
			for _, s := range Filter(list, tt.query) {
				got = append(got, s.ID)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Filter(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}
