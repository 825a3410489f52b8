package model

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/matheus3301/wppdesk/internal/api"
	"github.com/matheus3301/wppdesk/internal/bus"
)

type fakeDaemon struct {
	snap     api.Snapshot
	sent     []string
	template []api.Param
	selected string
	query    string
}

func (f *fakeDaemon) Snapshot(context.Context) (*api.Snapshot, error) {
	s := f.snap
	return &s, nil
}

func (f *fakeDaemon) Select(_ context.Context, id string) (*api.Snapshot, error) {
	for _, s := range f.snap.Summaries {
		if s.ID == id {
			f.selected = id
			f.snap.ActiveID = id
			return f.Snapshot(context.Background())
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeDaemon) SendText(_ context.Context, conv, body string) (*api.Message, error) {
	f.sent = append(f.sent, conv+":"+body)
	return &api.Message{ID: "srv-1", Body: body}, nil
}

func (f *fakeDaemon) SendTemplate(_ context.Context, conv, name string, params []api.Param) (*api.Message, error) {
	f.template = params
	return &api.Message{ID: "srv-2", TemplateName: name}, nil
}

func (f *fakeDaemon) Search(_ context.Context, q, _ string, _ int) ([]api.SearchHit, error) {
	f.query = q
	return []api.SearchHit{{ConversationID: "c1"}}, nil
}

func newFake() *fakeDaemon {
	return &fakeDaemon{snap: api.Snapshot{
		Profile: "main",
		Summaries: []api.Summary{
			{ID: "c1", Name: "Ana Souza", Address: "5511999990001"},
			{ID: "c2", Name: "Bruno", Address: "5511999990002"},
		},
	}}
}

func TestRefreshAndFilter(t *testing.T) {
	d := newFake()
	vm := NewViewModel(d)
	if err := vm.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if got := len(vm.Visible()); got != 2 {
		t.Fatalf("visible = %d, want 2", got)
	}

	vm.SetFilter("ana")
	got := vm.Visible()
	if len(got) != 1 || got[0].ID != "c1" {
		t.Fatalf("filter by name = %+v", got)
	}

	vm.SetFilter("0002")
	got = vm.Visible()
	if len(got) != 1 || got[0].ID != "c2" {
		t.Fatalf("filter by address = %+v", got)
	}

	vm.SetFilter("  ")
	if vm.Filter() != "" || len(vm.Visible()) != 2 {
		t.Fatal("blank filter should show everything")
	}
}

func TestSendRequiresOpenConversation(t *testing.T) {
	d := newFake()
	vm := NewViewModel(d)
	_ = vm.Refresh(context.Background())

	if _, err := vm.SendText(context.Background(), "hi"); !errors.Is(err, ErrNoConversation) {
		t.Fatalf("err = %v, want ErrNoConversation", err)
	}
	if _, err := vm.SendText(context.Background(), "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("err = %v, want ErrEmptyMessage", err)
	}

	if err := vm.Open(context.Background(), "c2"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s, ok := vm.Active(); !ok || s.Name != "Bruno" {
		t.Fatalf("active = %+v, %v", s, ok)
	}
	if _, err := vm.SendText(context.Background(), "hi"); err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if len(d.sent) != 1 || d.sent[0] != "c2:hi" {
		t.Fatalf("sent = %v", d.sent)
	}
}

func TestSendTemplateKeepsParamOrder(t *testing.T) {
	d := newFake()
	vm := NewViewModel(d)
	_ = vm.Refresh(context.Background())
	_ = vm.Open(context.Background(), "c1")

	if _, err := vm.SendTemplate(context.Background(), "order_update", []string{"name=Ana", "order=42"}); err != nil {
		t.Fatalf("SendTemplate: %v", err)
	}
	if len(d.template) != 2 || d.template[0].Name != "name" || d.template[1].Value != "42" {
		t.Fatalf("params = %+v", d.template)
	}

	if _, err := vm.SendTemplate(context.Background(), "order_update", []string{"broken"}); err == nil {
		t.Fatal("malformed params accepted")
	}
}

func TestOpenUnknownKeepsSnapshot(t *testing.T) {
	vm := NewViewModel(newFake())
	_ = vm.Refresh(context.Background())
	if err := vm.Open(context.Background(), "nope"); err == nil {
		t.Fatal("expected error")
	}
	if vm.ActiveID() != "" {
		t.Fatalf("active = %q", vm.ActiveID())
	}
}

func TestResolve(t *testing.T) {
	vm := NewViewModel(newFake())
	_ = vm.Refresh(context.Background())

	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"c2", "c2", true},
		{"bruno", "c2", true},
		{"5511999990001", "c1", true},
		{"zed", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := vm.Resolve(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Resolve(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	vm := NewViewModel(newFake())
	_ = vm.Refresh(context.Background())
	s := vm.Snapshot()
	s.Summaries[0].Name = "changed"
	if vm.Snapshot().Summaries[0].Name != "Ana Souza" {
		t.Fatal("snapshot shares memory with the view model")
	}
}

func TestNotice(t *testing.T) {
	tests := []struct {
		env   api.EventEnvelope
		level FlashLevel
		ok    bool
	}{
		{api.EventEnvelope{Kind: bus.KindMessageSendFailed, Payload: map[string]any{"error": "boom"}}, FlashErr, true},
		{api.EventEnvelope{Kind: bus.KindConnectivityChanged, Payload: map[string]any{"to": "DISCONNECTED"}}, FlashWarn, true},
		{api.EventEnvelope{Kind: bus.KindConnectivityChanged, Payload: map[string]any{"to": "CONNECTED"}}, FlashInfo, true},
		{api.EventEnvelope{Kind: bus.KindMessageReceived, Payload: map[string]any{"conversation_id": "c1"}}, 0, false},
		{api.EventEnvelope{Kind: bus.KindMessageReceived, Payload: map[string]any{"conversation_id": "c2"}}, FlashInfo, true},
		{api.EventEnvelope{Kind: bus.KindTranscriptLoaded}, 0, false},
	}
	for _, tt := range tests {
		_, level, ok := Notice(tt.env, "c1")
		if ok != tt.ok || level != tt.level {
			t.Errorf("Notice(%s) = %v, %v; want %v, %v", tt.env.Kind, level, ok, tt.level, tt.ok)
		}
	}
}

func TestRedraws(t *testing.T) {
	if Redraws(bus.KindTemplatesImported) {
		t.Error("template events should not redraw")
	}
	if !Redraws(bus.KindMessageSendAck) {
		t.Error("send acks should redraw")
	}
}

func TestFlashExpires(t *testing.T) {
	now := time.Unix(1000, 0)
	f := NewFlash()
	f.now = func() time.Time { return now }

	f.Warn("careful")
	m := f.Message()
	if m == nil || m.Text != "careful" || m.Level != FlashWarn {
		t.Fatalf("message = %+v", m)
	}
	select {
	case got := <-f.Watch():
		if got.Text != "careful" {
			t.Fatalf("watched %q", got.Text)
		}
	default:
		t.Fatal("nothing on watch channel")
	}

	now = now.Add(FlashWarn.TTL() + time.Second)
	if f.Message() != nil {
		t.Fatal("message should have expired")
	}

	f.Err(nil)
	if f.Message() != nil {
		t.Fatal("nil error should not set a message")
	}
}
