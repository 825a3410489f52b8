package wire

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/matheus3301/wppdesk/internal/conversation"
)

func TestDecodeEchoPrefixedNewMessage(t *testing.T) {
	d := NewDecoder()
	raw := `Echo: {"type":"new_message","message":{"id":"m1","text":"hello","sender":"contact","timestamp":"2025-06-01T12:00:00Z","status":"delivered"}}`

	ev, ok := d.Decode(raw).(NewMessage)
	if !ok {
		t.Fatalf("Decode() = %T, want NewMessage", d.Decode(raw))
	}
	if ev.ConversationID != "" {
		t.Errorf("conversation = %q, want empty", ev.ConversationID)
	}
	m := ev.Message
	if m.ID.String() != "m1" || m.ID.IsProvisional() {
		t.Errorf("id = %v, want confirmed m1", m.ID)
	}
	if m.Body != "hello" || m.Role != conversation.RoleCounterpart || m.Status != conversation.StatusDelivered {
		t.Errorf("message = %+v", m)
	}
	if want := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC); !m.Timestamp.Equal(want) {
		t.Errorf("timestamp = %v, want %v", m.Timestamp, want)
	}
}

func TestDecodeNewMessageConversationSources(t *testing.T) {
	d := NewDecoder()
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"top level", `{"type":"new_message","conversationId":"c1","message":{"id":"m","text":"x","sender":"contact"}}`, "c1"},
		{"chat id", `{"type":"new_message","message":{"id":"m","chatId":"c2","text":"x","sender":"contact"}}`, "c2"},
		{"top level wins", `{"type":"new_message","conversationId":"c1","message":{"id":"m","chatId":"c2","text":"x"}}`, "c1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := d.Decode(tt.raw).(NewMessage)
			if !ok {
				t.Fatalf("Decode() = %T, want NewMessage", d.Decode(tt.raw))
			}
			if ev.ConversationID != tt.want {
				t.Errorf("conversation = %q, want %q", ev.ConversationID, tt.want)
			}
		})
	}
}

func TestDecodeNewMessageWithContact(t *testing.T) {
	d := NewDecoder()
	raw := `{"type":"new_message","conversationId":"c9","contact":{"name":"Maria","phone_number":"5511","avatar_url":"http://a"},"message":{"id":"m","text":"oi","sender":"contact"}}`
	ev, ok := d.Decode(raw).(NewMessage)
	if !ok {
		t.Fatalf("Decode() = %T, want NewMessage", d.Decode(raw))
	}
	if ev.Counterpart == nil || ev.Counterpart.Name != "Maria" || ev.Counterpart.Address != "5511" || ev.Counterpart.Avatar != "http://a" {
		t.Errorf("counterpart = %+v", ev.Counterpart)
	}
}

func TestDecodeTemplateMessage(t *testing.T) {
	d := NewDecoder()
	raw := `{"type":"new_message","message":{"id":"m","text":"","sender":"user","type":"template","template_name":"welcome","parameters":{"name":"Ana","code":"42"}}}`
	ev, ok := d.Decode(raw).(NewMessage)
	if !ok {
		t.Fatalf("Decode() = %T, want NewMessage", d.Decode(raw))
	}
	m := ev.Message
	if m.Kind != conversation.KindTemplate || m.TemplateName != "welcome" || m.Role != conversation.RoleSelf {
		t.Errorf("message = %+v", m)
	}
	if len(m.Params) != 2 || m.Params[0].Name != "name" || m.Params[1].Name != "code" {
		t.Errorf("params = %+v, want [name code]", m.Params)
	}
	if m.Status != conversation.StatusSent {
		t.Errorf("status = %s, want default sent", m.Status)
	}
}

func TestDecodeStatusUpdate(t *testing.T) {
	d := NewDecoder()
	ev, ok := d.Decode(`{"type":"message_status_update","messageId":"m1","status":"read"}`).(StatusUpdate)
	if !ok {
		t.Fatal("want StatusUpdate")
	}
	if ev.MessageID != "m1" || ev.Status != conversation.StatusRead {
		t.Errorf("event = %+v", ev)
	}
}

func TestDecodeStampsMissingTimestamp(t *testing.T) {
	arrived := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)
	d := NewDecoder()
	d.Now = func() time.Time { return arrived }

	raw := `Echo: {"type":"new_message","conversationId":"c1","message":{"id":"m2","text":"latest","sender":"contact"}}`
	ev, ok := d.Decode(raw).(NewMessage)
	if !ok {
		t.Fatalf("Decode() = %T, want NewMessage", d.Decode(raw))
	}
	if !ev.Message.Timestamp.Equal(arrived) {
		t.Errorf("timestamp = %v, want arrival time %v", ev.Message.Timestamp, arrived)
	}
}

func TestDecodeMalformed(t *testing.T) {
	d := NewDecoder()
	tests := map[string]string{
		"not json":          `hello there`,
		"echo of plain":     `Echo: hello`,
		"truncated":         `{"type":"new_message"`,
		"missing message":   `{"type":"new_message"}`,
		"null message":      `{"type":"new_message","message":null}`,
		"message not obj":   `{"type":"new_message","message":"hi"}`,
		"unknown status":    `{"type":"message_status_update","messageId":"m1","status":"seen"}`,
		"missing status":    `{"type":"message_status_update","messageId":"m1"}`,
		"pending status":    `{"type":"message_status_update","messageId":"m1","status":"pending"}`,
		"missing messageId": `{"type":"message_status_update","status":"read"}`,
		"bad sender":        `{"type":"new_message","message":{"id":"m","sender":"bot"}}`,
		"bad timestamp":     `{"type":"new_message","message":{"id":"m","timestamp":"yesterday"}}`,
		"bad msg status":    `{"type":"new_message","message":{"id":"m","status":"lost"}}`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			ev, ok := d.Decode(raw).(Malformed)
			if !ok {
				t.Fatalf("Decode(%q) = %T, want Malformed", raw, d.Decode(raw))
			}
			if ev.Raw != raw || ev.Err == nil {
				t.Errorf("malformed = %+v", ev)
			}
		})
	}
}

func TestDecodeIgnored(t *testing.T) {
	d := NewDecoder()
	for _, raw := range []string{`{"type":"typing"}`, `{"foo":1}`, `{"type":"send_message","message":{}}`} {
		if _, ok := d.Decode(raw).(Ignored); !ok {
			t.Errorf("Decode(%q) = %T, want Ignored", raw, d.Decode(raw))
		}
	}
}

func TestDecodeCustomPrefixes(t *testing.T) {
	d := NewDecoder("DEBUG>", "Echo:")
	if _, ok := d.Decode(`DEBUG>   {"type":"message_status_update","messageId":"m","status":"sent"}`).(StatusUpdate); !ok {
		t.Error("custom prefix not stripped")
	}
	if _, ok := d.Decode(`Echo:{"type":"message_status_update","messageId":"m","status":"sent"}`).(StatusUpdate); !ok {
		t.Error("prefix without whitespace not stripped")
	}
}

func TestEncodeSendNotification(t *testing.T) {
	msg := conversation.Message{
		ID:        conversation.Confirmed("srv-1"),
		Body:      "hi",
		Role:      conversation.RoleSelf,
		Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Status:    conversation.StatusSent,
		Kind:      conversation.KindText,
	}
	out, err := EncodeSendNotification("c1", msg)
	if err != nil {
		t.Fatal(err)
	}

	var got struct {
		Type           string  `json:"type"`
		ConversationID string  `json:"conversationId"`
		Message        Message `json:"message"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("unmarshal %s: %v", out, err)
	}
	if got.Type != TypeSendMessage || got.ConversationID != "c1" {
		t.Errorf("envelope = %+v", got)
	}
	if got.Message.ID != "srv-1" || got.Message.Sender != SenderUser || got.Message.Text != "hi" {
		t.Errorf("message = %+v", got.Message)
	}
	if got.Message.Timestamp != "2025-06-01T12:00:00.000Z" {
		t.Errorf("timestamp = %q", got.Message.Timestamp)
	}
}

func TestParseTimestampLayouts(t *testing.T) {
	want := time.Date(2025, 6, 1, 12, 0, 0, 500_000_000, time.UTC)
	for _, s := range []string{"2025-06-01T12:00:00.5Z", "2025-06-01T12:00:00.500", "2025-06-01T09:00:00.5-03:00"} {
		got, err := ParseTimestamp(s)
		if err != nil {
			t.Errorf("ParseTimestamp(%q) error = %v", s, err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("ParseTimestamp(%q) = %v, want %v", s, got, want)
		}
	}
}
