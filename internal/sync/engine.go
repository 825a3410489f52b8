package sync

import (
	"context"
	"fmt"

	"github.com/matheus3301/wppdesk/internal/bus"
	"github.com/matheus3301/wppdesk/internal/chat"
	"github.com/matheus3301/wppdesk/internal/conversation"
	"github.com/matheus3301/wppdesk/internal/outbox"
	"github.com/matheus3301/wppdesk/internal/store"
	"go.uber.org/zap"
)

// Engine mirrors session changes into the offline cache. It subscribes to
// every bus event and writes the ones that carry conversation data.
type Engine struct {
	db     *store.DB
	bus    *bus.Bus
	logger *zap.Logger
	cancel context.CancelFunc
	done   chan struct{}
}

// NewEngine creates a new sync engine.
func NewEngine(db *store.DB, b *bus.Bus, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		db:     db,
		bus:    b,
		logger: logger,
	}
}

// Start subscribes to the bus. Events are applied one at a time.
func (e *Engine) Start(ctx context.Context) {
	ctx, e.cancel = context.WithCancel(ctx)
	ch, unsub := e.bus.Subscribe("", 512)
	e.done = make(chan struct{})

	go func() {
		defer close(e.done)
		defer unsub()
		for {
			select {
			case evt := <-ch:
				if err := e.Apply(evt); err != nil {
					e.logger.Error("failed to mirror event", zap.String("kind", evt.Kind), zap.Error(err))
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the engine and waits for the event goroutine.
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
		<-e.done
	}
	if n := e.bus.Dropped(); n > 0 {
		e.logger.Warn("bus deliveries dropped during session", zap.Uint64("count", n))
	}
}

// Apply writes one event to the cache. Events without cacheable data are
// ignored.
func (e *Engine) Apply(evt bus.Event) error {
	switch p := evt.Payload.(type) {
	case chat.SummariesLoaded:
		if p.FromCache {
			return nil
		}
		if err := e.db.SaveSummaries(p.Summaries); err != nil {
			return fmt.Errorf("save summaries: %w", err)
		}
		e.logger.Debug("summaries cached", zap.Int("count", len(p.Summaries)))
	case chat.SummaryChanged:
		if err := e.db.UpsertSummary(p.Summary); err != nil {
			return fmt.Errorf("upsert summary: %w", err)
		}
	case chat.TranscriptLoaded:
		if p.FromCache {
			return nil
		}
		if err := e.db.SaveMessages(p.ConversationID, p.Messages); err != nil {
			return fmt.Errorf("save transcript: %w", err)
		}
		e.logger.Debug("transcript cached", zap.String("conversation_id", p.ConversationID), zap.Int("count", len(p.Messages)))
	case chat.MessageReceived:
		return e.ingest(p.ConversationID, p.Message)
	case chat.StatusChanged:
		if _, err := e.db.SetMessageStatus(p.MessageID, p.Status); err != nil {
			return fmt.Errorf("set status: %w", err)
		}
	case outbox.SendAck:
		return e.ingest(p.ConversationID, p.Message)
	}
	return nil
}

func (e *Engine) ingest(conversationID string, m conversation.Message) error {
	if err := e.db.UpsertMessage(conversationID, m); err != nil {
		return fmt.Errorf("upsert message %s: %w", m.ID, err)
	}
	return nil
}
