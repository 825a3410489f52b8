package views

import (
	"strings"
	"testing"
	"time"

	"github.com/matheus3301/wppdesk/internal/api"
	"github.com/matheus3301/wppdesk/internal/tui/ui"
)

func TestFormatTimestamp(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	tests := []struct {
		at   time.Time
		want string
	}{
		{time.Date(2026, 3, 10, 9, 5, 0, 0, time.UTC), "09:05"},
		{time.Date(2026, 1, 2, 9, 5, 0, 0, time.UTC), "Jan 02"},
		{time.Date(2025, 12, 31, 9, 5, 0, 0, time.UTC), "2025-12-31"},
	}
	for _, tt := range tests {
		if got := formatTimestamp(tt.at.UnixMilli(), now); got != tt.want {
			t.Errorf("formatTimestamp(%s) = %q, want %q", tt.at, got, tt.want)
		}
	}
	if got := formatTimestamp(0, now); got != "" {
		t.Errorf("zero timestamp = %q", got)
	}
}

func TestStatusIcon(t *testing.T) {
	tests := []struct {
		m    api.Message
		want string
	}{
		{api.Message{Provisional: true, Status: "pending"}, "…"},
		{api.Message{Status: "sent"}, "✓"},
		{api.Message{Status: "delivered"}, "✓✓"},
		{api.Message{Status: ""}, ""},
	}
	for _, tt := range tests {
		if got := statusIcon(tt.m); got != tt.want {
			t.Errorf("statusIcon(%+v) = %q, want %q", tt.m, got, tt.want)
		}
	}
	if !strings.Contains(statusIcon(api.Message{Status: "read"}), "✓✓") {
		t.Error("read icon")
	}
}

func TestSanitizeForTerminal(t *testing.T) {
	tests := map[string]string{
		"plain":            "plain",
		"line\nbreak\ttab": "line\nbreak\ttab",
		"esc\x1b[31mred":   "esc[31mred",
		"bell\x07":         "bell",
		"👍\U0001F3FB":      "👍",
		"a\u200db":         "ab",
		"bad\xffbyte":      "badbyte",
	}
	for in, want := range tests {
		if got := sanitizeForTerminal(in); got != want {
			t.Errorf("sanitizeForTerminal(%q) = %q, want %q", in, got, want)
		}
	}
	if got := singleLine("  two\nlines  "); got != "two lines" {
		t.Errorf("singleLine = %q", got)
	}
}

func TestChatLink(t *testing.T) {
	if got := ChatLink("+55 (11) 99999-0001"); got != "https://wa.me/5511999990001" {
		t.Errorf("ChatLink = %q", got)
	}
	if got := ChatLink("support"); got != "" {
		t.Errorf("ChatLink without digits = %q", got)
	}
}

func TestRenderQR(t *testing.T) {
	out, err := RenderQR("https://wa.me/5511999990001", "  ")
	if err != nil {
		t.Fatalf("RenderQR: %v", err)
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) < 10 {
		t.Fatalf("only %d lines", len(lines))
	}
	for _, l := range lines {
		if !strings.HasPrefix(l, "  ") {
			t.Fatalf("line without indent: %q", l)
		}
	}
	if !strings.ContainsAny(out, "█▀▄") {
		t.Fatal("no blocks drawn")
	}
}

func TestConversationListSelection(t *testing.T) {
	cl := NewConversationList(ui.DefaultTheme())
	rows := []api.Summary{
		{ID: "c1", Name: "Ana", Unread: 2},
		{ID: "c2", Address: "5511999990002"},
	}
	cl.Update(rows, "c2", "", 2)
	if got := cl.SelectedID(); got != "c2" {
		t.Fatalf("cursor on %q, want active c2", got)
	}
	if cl.IDAt(1) != "c1" || cl.IDAt(3) != "" || cl.IDAt(0) != "" {
		t.Fatal("IDAt out of range handling")
	}
	if cl.GetCell(2, 0).Text != "▶ 5511999990002" {
		t.Fatalf("active row = %q", cl.GetCell(2, 0).Text)
	}
	if cl.GetCell(1, 3).Text != "2" {
		t.Fatalf("unread cell = %q", cl.GetCell(1, 3).Text)
	}

	cl.Select(1, 0)
	cl.Update([]api.Summary{rows[1], rows[0]}, "c2", "", 2)
	if got := cl.SelectedID(); got != "c1" {
		t.Fatalf("cursor moved to %q after reorder", got)
	}

	cl.Update(rows[1:], "c2", "5511", 2)
	if !strings.Contains(cl.GetTitle(), "(1/2)") {
		t.Fatalf("title = %q", cl.GetTitle())
	}
}

func TestMessageThreadRender(t *testing.T) {
	mt := NewMessageThread(ui.DefaultTheme())
	mt.now = func() time.Time { return time.UnixMilli(1_700_000_000_000) }
	out := mt.render(api.Summary{ID: "c1", Name: "Ana"}, []api.Message{
		{ID: "m1", Role: "counterpart", Body: "hello", TimestampUnixMs: 1_700_000_000_000},
		{ID: "p1", Provisional: true, Role: "self", Body: "on it", Status: "pending"},
		{ID: "m3", Role: "self", TemplateName: "order_update", Status: "delivered"},
	})
	for _, want := range []string{"Ana", "hello", "You", "on it", "…", "Template: order_update", "✓✓"} {
		if !strings.Contains(out, want) {
			t.Errorf("render missing %q:\n%s", want, out)
		}
	}
	if got := mt.render(api.Summary{}, nil); !strings.Contains(got, "No messages") {
		t.Errorf("empty render = %q", got)
	}
}

func TestConversationInfoRender(t *testing.T) {
	ci := NewConversationInfo(ui.DefaultTheme())
	out := ci.render(api.Summary{ID: "c1", Name: "Ana", Address: "5511999990001"}, []api.Message{
		{Role: "counterpart", TimestampUnixMs: 1},
		{Role: "self"},
	})
	if !strings.Contains(out, "https://wa.me/5511999990001") || !strings.Contains(out, "1 in / 1 out") {
		t.Fatalf("details = %s", out)
	}
	if out := ci.render(api.Summary{ID: "c2"}, nil); strings.Contains(out, "wa.me") {
		t.Fatal("QR drawn without an address")
	}
}

func TestStatusBarLine(t *testing.T) {
	sb := NewStatusBar(ui.DefaultTheme())
	sb.now = func() time.Time { return time.Date(2026, 1, 1, 12, 30, 0, 0, time.UTC) }
	sb.snap = api.Snapshot{Profile: "main", Connectivity: "CONNECTED", Pending: []api.PendingSend{{}}}
	line := sb.line()
	for _, want := range []string{"main", "CONNECTED", "sending 1", "12:30"} {
		if !strings.Contains(line, want) {
			t.Errorf("line missing %q: %s", want, line)
		}
	}
	sb.snap = api.Snapshot{Profile: "main", InitError: "no transport address"}
	if !strings.Contains(sb.line(), "read-only") {
		t.Error("read-only marker missing")
	}
}

func TestHelpTextMentionsCommands(t *testing.T) {
	text := helpText("blue")
	for _, want := range []string{":template", ":search", ":open", "Filter"} {
		if !strings.Contains(text, want) {
			t.Errorf("help missing %q", want)
		}
	}
}
