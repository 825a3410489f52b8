package model

import (
	"fmt"

	"github.com/matheus3301/wppdesk/internal/api"
	"github.com/matheus3301/wppdesk/internal/bus"
)

// Notice turns a daemon event into a flash message. ok is false for events
// that only need a redraw.
func Notice(env api.EventEnvelope, activeID string) (text string, level FlashLevel, ok bool) {
	p := env.Payload
	switch env.Kind {
	case bus.KindMessageSendFailed:
		return fmt.Sprintf("Send failed: %s", str(p, "error")), FlashErr, true
	case bus.KindConnectivityChanged:
		to := str(p, "to")
		if to == "DISCONNECTED" {
			return "Live channel lost, reconnecting", FlashWarn, true
		}
		return "Live channel " + to, FlashInfo, true
	case bus.KindMessageReceived:
		conv := str(p, "conversation_id")
		if conv == "" || conv == activeID {
			return "", 0, false
		}
		return "New message in " + conv, FlashInfo, true
	case bus.KindTemplatesImported:
		return "Template catalog updated", FlashInfo, true
	}
	return "", 0, false
}

// Redraws reports whether an event can change what the console shows.
func Redraws(kind string) bool {
	return bus.Namespace(kind) != "template."
}

func str(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}
