package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/matheus3301/wppdesk/internal/conversation"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

var base = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func msg(id, body string, offset time.Duration) conversation.Message {
	return conversation.Message{
		ID:        conversation.Confirmed(id),
		Body:      body,
		Role:      conversation.RoleCounterpart,
		Timestamp: base.Add(offset),
		Status:    conversation.StatusDelivered,
		Kind:      conversation.KindText,
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := testDB(t)

	result, err := db.Migrate()
	if err != nil {
		t.Fatal(err)
	}
	if result.Changed {
		t.Error("second Migrate() should report Changed=false")
	}
	if result.From != result.Version {
		t.Errorf("from = %d, version = %d, want equal", result.From, result.Version)
	}
	if result.Version != 2 {
		t.Errorf("version = %d, want 2 (init + fts)", result.Version)
	}
}

func TestMigrateSchemaHasRequiredColumns(t *testing.T) {
	db := testDB(t)

	requiredOps := []struct {
		desc  string
		query string
		args  []any
	}{
		{"insert conversation", "INSERT INTO conversations (id, name, address, preview, preview_at, unread) VALUES (?, ?, ?, ?, ?, ?)", []any{"c1", "Ana", "55", "hi", 1000, 0}},
		{"insert message", "INSERT INTO messages (conversation_id, msg_id, role, body, kind, status, timestamp) VALUES (?, ?, ?, ?, ?, ?, ?)", []any{"c1", "m1", "counterpart", "hello", "text", "sent", 1000}},
		{"queue outbox", "INSERT INTO outbox (local_id, conversation_id, body, status) VALUES (?, ?, ?, ?)", []any{"l1", "c1", "text", "queued"}},
		{"insert template", "INSERT INTO templates (name, status, content) VALUES (?, ?, ?)", []any{"welcome", "approved", "Hi"}},
	}
	for _, op := range requiredOps {
		t.Run(op.desc, func(t *testing.T) {
			if _, err := db.Exec(op.query, op.args...); err != nil {
				t.Fatalf("%s failed: %v", op.desc, err)
			}
		})
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM messages_fts WHERE messages_fts MATCH 'hello'").Scan(&count); err != nil {
		t.Fatalf("FTS query failed: %v", err)
	}
	if count != 1 {
		t.Errorf("FTS count = %d, want 1", count)
	}
}

func TestSummariesRoundTrip(t *testing.T) {
	db := testDB(t)

	list := []conversation.Summary{
		{ID: "c1", Name: "Ana", Address: "5511", Preview: "old", PreviewAt: base, Unread: 1},
		{ID: "c2", Name: "Bruno", Address: "5521", Preview: "new", PreviewAt: base.Add(time.Hour), Unread: 0},
		{ID: "c3", Name: "Caio"},
	}
	if err := db.SaveSummaries(list); err != nil {
		t.Fatal(err)
	}

	got, err := db.ListSummaries(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d summaries, want 3", len(got))
	}
	if got[0].ID != "c2" || got[1].ID != "c1" || got[2].ID != "c3" {
		t.Errorf("order = [%s %s %s], want [c2 c1 c3]", got[0].ID, got[1].ID, got[2].ID)
	}
	if !got[0].PreviewAt.Equal(base.Add(time.Hour)) {
		t.Errorf("preview at = %v", got[0].PreviewAt)
	}
	if !got[2].PreviewAt.IsZero() {
		t.Errorf("zero preview time should round-trip as zero, got %v", got[2].PreviewAt)
	}
}

func TestUpsertSummaryKeepsKnownDetails(t *testing.T) {
	db := testDB(t)
	if err := db.UpsertSummary(conversation.Summary{ID: "c1", Name: "Ana", Address: "5511"}); err != nil {
		t.Fatal(err)
	}
	if err := db.UpsertSummary(conversation.Summary{ID: "c1", Preview: "hey", Unread: 2}); err != nil {
		t.Fatal(err)
	}
	got, err := db.ListSummaries(10)
	if err != nil {
		t.Fatal(err)
	}
	if got[0].Name != "Ana" || got[0].Address != "5511" || got[0].Preview != "hey" || got[0].Unread != 2 {
		t.Errorf("summary = %+v", got[0])
	}
	if n, _ := db.ConversationCount(); n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestMessagesRoundTrip(t *testing.T) {
	db := testDB(t)

	tpl := msg("m3", "", 3*time.Second)
	tpl.Kind = conversation.KindTemplate
	tpl.TemplateName = "welcome"
	tpl.Params = conversation.Params{{Name: "z", Value: "1"}, {Name: "a", Value: "2"}}

	msgs := []conversation.Message{
		msg("m2", "second", 2*time.Second),
		msg("m1", "first", time.Second),
		tpl,
		{ID: conversation.Provisional("local"), Body: "pending", Timestamp: base},
	}
	if err := db.SaveMessages("c1", msgs); err != nil {
		t.Fatal(err)
	}

	got, err := db.ListMessages("c1", 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d messages, want 3 (provisional skipped)", len(got))
	}
	var ids []string
	for _, m := range got {
		ids = append(ids, m.ID.String())
	}
	if ids[0] != "m1" || ids[1] != "m2" || ids[2] != "m3" {
		t.Errorf("order = %v, want [m1 m2 m3]", ids)
	}
	last := got[2]
	if last.Kind != conversation.KindTemplate || last.TemplateName != "welcome" {
		t.Errorf("template message = %+v", last)
	}
	if len(last.Params) != 2 || last.Params[0].Name != "z" {
		t.Errorf("params = %+v, want order [z a]", last.Params)
	}
	if last.ID.IsProvisional() {
		t.Error("cached messages must be confirmed")
	}
}

func TestListMessagesLimitKeepsNewest(t *testing.T) {
	db := testDB(t)
	for i := 0; i < 5; i++ {
		if err := db.UpsertMessage("c1", msg(string(rune('a'+i)), "x", time.Duration(i)*time.Second)); err != nil {
			t.Fatal(err)
		}
	}
	got, err := db.ListMessages("c1", 0, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID.String() != "d" || got[1].ID.String() != "e" {
		t.Errorf("got %+v, want [d e]", got)
	}
}

func TestUpsertMessageIsIdempotent(t *testing.T) {
	db := testDB(t)
	m := msg("m1", "hello", 0)
	for i := 0; i < 3; i++ {
		if err := db.UpsertMessage("c1", m); err != nil {
			t.Fatal(err)
		}
	}
	if n, _ := db.MessageCount(); n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestSetMessageStatus(t *testing.T) {
	db := testDB(t)
	if err := db.UpsertMessage("c1", msg("m1", "hello", 0)); err != nil {
		t.Fatal(err)
	}

	ok, err := db.SetMessageStatus("m1", conversation.StatusRead)
	if err != nil || !ok {
		t.Fatalf("SetMessageStatus() = %v, %v", ok, err)
	}
	if ok, _ := db.SetMessageStatus("missing", conversation.StatusRead); ok {
		t.Error("SetMessageStatus() matched an unknown id")
	}
	got, _ := db.ListMessages("c1", 0, 1)
	if got[0].Status != conversation.StatusRead {
		t.Errorf("status = %s, want read", got[0].Status)
	}
}

func TestSearchMessages(t *testing.T) {
	db := testDB(t)
	_ = db.SaveMessages("c1", []conversation.Message{
		msg("m1", "the invoice is attached", 0),
		msg("m2", "thanks for the invoice", time.Second),
		msg("m3", "see you tomorrow", 2*time.Second),
	})
	_ = db.UpsertMessage("c2", msg("m4", "another invoice here", 3*time.Second))

	results, err := db.SearchMessages("invoice", "", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if results[0].Message.ID.String() != "m4" || results[0].ConversationID != "c2" {
		t.Errorf("first result = %+v, want m4 in c2", results[0])
	}
	if results[0].Snippet == "" {
		t.Error("snippet is empty")
	}

	scoped, err := db.SearchMessages("invoice", "c1", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(scoped) != 2 {
		t.Errorf("scoped results = %d, want 2", len(scoped))
	}
}

func TestSearchFollowsBodyUpdates(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertMessage("c1", msg("m1", "draft wording", 0))
	_ = db.UpsertMessage("c1", msg("m1", "final wording", 0))

	if r, _ := db.SearchMessages("draft", "", 10); len(r) != 0 {
		t.Errorf("stale body still indexed: %+v", r)
	}
	if r, _ := db.SearchMessages("final", "", 10); len(r) != 1 {
		t.Errorf("updated body not indexed: %+v", r)
	}
}

func TestOutboxJournal(t *testing.T) {
	db := testDB(t)

	for _, id := range []string{"l1", "l2", "l3"} {
		if err := db.QueueOutbox(OutboxEntry{LocalID: id, ConversationID: "c1", Body: "hi " + id}); err != nil {
			t.Fatal(err)
		}
	}
	if err := db.MarkOutboxSent("l1", "srv-1"); err != nil {
		t.Fatal(err)
	}
	if err := db.MarkOutboxFailed("l2", "rejected"); err != nil {
		t.Fatal(err)
	}

	sent, err := db.ListOutbox(OutboxSent, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(sent) != 1 || sent[0].ServerMsgID != "srv-1" || sent[0].Kind != conversation.KindText {
		t.Errorf("sent = %+v", sent)
	}
	failed, _ := db.ListOutbox(OutboxFailed, 10)
	if len(failed) != 1 || failed[0].ErrorMessage != "rejected" {
		t.Errorf("failed = %+v", failed)
	}

	n, err := db.FailInterrupted("daemon restarted")
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("interrupted = %d, want 1", n)
	}
	if queued, _ := db.ListOutbox(OutboxQueued, 10); len(queued) != 0 {
		t.Errorf("queued = %+v, want none", queued)
	}
	if all, _ := db.ListOutbox("", 10); len(all) != 3 {
		t.Errorf("all = %d, want 3", len(all))
	}
}

func TestOutboxKeepsTemplateParams(t *testing.T) {
	db := testDB(t)
	err := db.QueueOutbox(OutboxEntry{
		LocalID: "l1", ConversationID: "c1", Kind: conversation.KindTemplate, TemplateName: "welcome",
		Params: conversation.Params{{Name: "name", Value: "Ana"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	got, _ := db.ListOutbox("", 1)
	if got[0].TemplateName != "welcome" || len(got[0].Params) != 1 || got[0].Params[0].Value != "Ana" {
		t.Errorf("entry = %+v", got[0])
	}
}

func TestTemplates(t *testing.T) {
	db := testDB(t)

	n, err := db.UpsertTemplates([]Template{
		{Name: "welcome", Language: "pt_BR", Category: "MARKETING", Status: "APPROVED", Content: "Oi {{name}}", Variables: []string{"name"}},
		{Name: "promo", Content: "Sale"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("upserted = %d, want 2", n)
	}

	got, err := db.GetTemplate("welcome")
	if err != nil || got == nil {
		t.Fatalf("GetTemplate() = %v, %v", got, err)
	}
	if !got.Approved() || len(got.Variables) != 1 || got.Variables[0] != "name" {
		t.Errorf("template = %+v", got)
	}

	promo, _ := db.GetTemplate("promo")
	if promo.Status != TemplatePending || promo.Variables == nil {
		t.Errorf("promo = %+v, want pending with empty variables", promo)
	}

	missing, err := db.GetTemplate("nope")
	if err != nil || missing != nil {
		t.Errorf("GetTemplate(nope) = %v, %v; want nil, nil", missing, err)
	}

	approved, _ := db.ListTemplates(TemplateApproved)
	if len(approved) != 1 {
		t.Errorf("approved = %d, want 1", len(approved))
	}
	all, _ := db.ListTemplates("")
	if len(all) != 2 || all[0].Name != "promo" {
		t.Errorf("all = %+v, want sorted by name", all)
	}
}

func TestTemplatesRejectInvalid(t *testing.T) {
	db := testDB(t)
	if _, err := db.UpsertTemplates([]Template{{Name: "x", Status: "archived"}}); err == nil {
		t.Error("expected error for unknown status")
	}
	if _, err := db.UpsertTemplates([]Template{{Name: " "}}); err == nil {
		t.Error("expected error for empty name")
	}
	if n, _ := db.TemplateCount(); n != 0 {
		t.Errorf("count = %d, want 0 (batch rolled back)", n)
	}
}
