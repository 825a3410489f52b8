package bus

import "time"

// Event kinds published by the chat engine. Subscribers filter by the
// namespace prefix before the dot.
const (
	KindConversationUpserted = "conversation.upserted"
	KindConversationSelected = "conversation.selected"
	KindConversationsLoaded  = "conversation.loaded"

	KindTranscriptLoaded = "transcript.loaded"
	KindTranscriptStatus = "transcript.status_changed"

	KindMessageReceived   = "message.received"
	KindMessageOptimistic = "message.optimistic"
	KindMessageSendAck    = "message.send_ack"
	KindMessageSendFailed = "message.send_failed"

	KindConnectivityChanged = "connectivity.changed"

	KindTemplatesImported = "template.imported"
)

// Event represents a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}

// Namespace returns the prefix of kind up to and including the first dot.
func Namespace(kind string) string {
	for i := 0; i < len(kind); i++ {
		if kind[i] == '.' {
			return kind[:i+1]
		}
	}
	return kind
}
