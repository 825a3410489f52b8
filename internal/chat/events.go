package chat

import (
	"github.com/matheus3301/wppdesk/internal/conversation"
)

// Bus payloads published by the controller.
type (
	// SummariesLoaded accompanies bus.KindConversationsLoaded.
	SummariesLoaded struct {
		Summaries []conversation.Summary
		FromCache bool
	}
	// SummaryChanged accompanies bus.KindConversationUpserted and
	// bus.KindConversationSelected.
	SummaryChanged struct {
		Summary conversation.Summary
	}
	// TranscriptLoaded accompanies bus.KindTranscriptLoaded.
	TranscriptLoaded struct {
		ConversationID string
		Messages       []conversation.Message
		FromCache      bool
	}
	// MessageReceived accompanies bus.KindMessageReceived. Appended is false
	// when the message went to a conversation that is not open.
	MessageReceived struct {
		ConversationID string
		Message        conversation.Message
		Appended       bool
	}
	// StatusChanged accompanies bus.KindTranscriptStatus.
	StatusChanged struct {
		MessageID string
		Status    conversation.Status
		Applied   bool
	}
)
