package api

import (
	"encoding/json"
	"fmt"

	"github.com/matheus3301/wppdesk/internal/bus"
	"github.com/matheus3301/wppdesk/internal/chat"
	"github.com/matheus3301/wppdesk/internal/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Encode renders v (a JSON-tagged struct) as a google.protobuf.Struct.
func Encode(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	return out, nil
}

// Decode fills v from a google.protobuf.Struct. A nil struct leaves v untouched.
func Decode(s *structpb.Struct, v any) error {
	if s == nil {
		return nil
	}
	data, err := protojson.Marshal(s)
	if err != nil {
		return fmt.Errorf("decode %T: %w", v, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %T: %w", v, err)
	}
	return nil
}

// eventPayload converts a bus payload into a JSON object. Payloads that
// already carry JSON tags are marshalled as they are.
func eventPayload(evt bus.Event) map[string]any {
	var v any
	switch p := evt.Payload.(type) {
	case nil:
		return nil
	case chat.SummariesLoaded:
		v = map[string]any{"count": len(p.Summaries), "from_cache": p.FromCache}
	case chat.SummaryChanged:
		v = map[string]any{"summary": SummaryFrom(p.Summary)}
	case chat.TranscriptLoaded:
		v = map[string]any{"conversation_id": p.ConversationID, "count": len(p.Messages), "from_cache": p.FromCache}
	case chat.MessageReceived:
		v = map[string]any{"conversation_id": p.ConversationID, "message": MessageFrom(p.Message), "appended": p.Appended}
	case chat.StatusChanged:
		v = map[string]any{"message_id": p.MessageID, "status": string(p.Status), "applied": p.Applied}
	case status.StatusChange:
		v = map[string]any{"from": string(p.From), "to": string(p.To)}
	default:
		v = p
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}
