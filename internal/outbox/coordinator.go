// Package outbox runs optimistic sends: the message is shown immediately,
// delivered through the backend, then confirmed in place or rolled back.
package outbox

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/matheus3301/wppdesk/internal/backend"
	"github.com/matheus3301/wppdesk/internal/bus"
	"github.com/matheus3301/wppdesk/internal/conversation"
	"github.com/matheus3301/wppdesk/internal/store"
	"github.com/matheus3301/wppdesk/internal/wire"
	"go.uber.org/zap"
)

const defaultDeliveryTimeout = 30 * time.Second

// Deliverer hands a message to the delivery API.
type Deliverer interface {
	Deliver(ctx context.Context, req backend.DeliveryRequest) (backend.Delivery, error)
}

// Notifier announces confirmed sends on the real-time channel.
type Notifier interface {
	Send(text string) bool
}

// Journal records send attempts.
type Journal interface {
	QueueOutbox(e store.OutboxEntry) error
	MarkOutboxSent(localID, serverMsgID string) error
	MarkOutboxFailed(localID, errMsg string) error
}

// TemplateCatalog resolves templates by name. A nil result means unknown.
type TemplateCatalog interface {
	GetTemplate(name string) (*store.Template, error)
}

// Transcript is the part of the conversation store a send touches.
type Transcript interface {
	Summary(id string) (conversation.Summary, bool)
	AppendOptimistic(conversationID string, msg conversation.Message) bool
	Reconcile(provisionalID conversation.MessageID, out conversation.Outcome) bool
	UpdatePreview(conversationID, text string, at time.Time) bool
}

// PendingSend is an in-flight delivery.
type PendingSend struct {
	ProvisionalID  conversation.MessageID
	ConversationID string
	Request        backend.DeliveryRequest
	StartedAt      time.Time
}

// Bus payloads.
type (
	Optimistic struct {
		ConversationID string `json:"conversation_id"`
		LocalID        string `json:"local_id"`
	}
	SendAck struct {
		ConversationID string `json:"conversation_id"`
		LocalID        string `json:"local_id"`
		ServerMsgID    string `json:"server_msg_id"`

		Message conversation.Message `json:"-"`
	}
	SendFailed struct {
		ConversationID string `json:"conversation_id"`
		LocalID        string `json:"local_id"`
		Error          string `json:"error"`
	}
)

// Coordinator performs optimistic sends against a Transcript.
type Coordinator struct {
	transcript Transcript
	deliverer  Deliverer
	notifier   Notifier
	journal    Journal
	catalog    TemplateCatalog
	bus        *bus.Bus
	logger     *zap.Logger
	timeout    time.Duration
	now        func() time.Time
	newID      func() string

	mu      sync.Mutex
	pending map[string]PendingSend
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithNotifier sets the channel used for send_message notifications.
func WithNotifier(n Notifier) Option { return func(c *Coordinator) { c.notifier = n } }

// WithJournal records every attempt.
func WithJournal(j Journal) Option { return func(c *Coordinator) { c.journal = j } }

// WithCatalog validates and renders template sends.
func WithCatalog(t TemplateCatalog) Option { return func(c *Coordinator) { c.catalog = t } }

// WithTimeout bounds each delivery call.
func WithTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(c *Coordinator) { c.now = now } }

// WithIDGenerator replaces the provisional id source.
func WithIDGenerator(f func() string) Option { return func(c *Coordinator) { c.newID = f } }

// New creates a coordinator.
func New(t Transcript, d Deliverer, b *bus.Bus, logger *zap.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		transcript: t,
		deliverer:  d,
		bus:        b,
		logger:     logger,
		timeout:    defaultDeliveryTimeout,
		now:        time.Now,
		newID:      uuid.NewString,
		pending:    make(map[string]PendingSend),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

// SendText sends a plain text message.
func (c *Coordinator) SendText(ctx context.Context, conversationID, body string) (conversation.Message, error) {
	if strings.TrimSpace(body) == "" {
		return conversation.Message{}, ErrEmptyBody
	}
	msg := conversation.Message{Body: body, Kind: conversation.KindText}
	req := backend.DeliveryRequest{Body: body, Kind: conversation.KindText}
	return c.send(ctx, conversationID, msg, req)
}

// SendTemplate sends a template instantiation. With a catalog configured the
// template must exist, be approved and receive exactly its variables.
func (c *Coordinator) SendTemplate(ctx context.Context, conversationID, name string, params conversation.Params) (conversation.Message, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return conversation.Message{}, fmt.Errorf("%w: empty name", ErrUnknownTemplate)
	}

	var body string
	if c.catalog != nil {
		t, err := c.catalog.GetTemplate(name)
		if err != nil {
			return conversation.Message{}, fmt.Errorf("lookup template %s: %w", name, err)
		}
		if t == nil {
			return conversation.Message{}, fmt.Errorf("%w: %s", ErrUnknownTemplate, name)
		}
		if !t.Approved() {
			return conversation.Message{}, fmt.Errorf("%w: %s is %s", ErrTemplateNotApproved, name, t.Status)
		}
		if body, err = Render(*t, params); err != nil {
			return conversation.Message{}, err
		}
	}

	msg := conversation.Message{
		Body:         body,
		Kind:         conversation.KindTemplate,
		TemplateName: name,
		Params:       params,
	}
	req := backend.DeliveryRequest{
		Body:         body,
		Kind:         conversation.KindTemplate,
		TemplateName: name,
		Parameters:   params,
	}
	return c.send(ctx, conversationID, msg, req)
}

// Pending returns the in-flight sends, oldest first.
func (c *Coordinator) Pending() []PendingSend {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]PendingSend, 0, len(c.pending))
	for _, p := range c.pending {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out
}

func (c *Coordinator) send(ctx context.Context, conversationID string, msg conversation.Message, req backend.DeliveryRequest) (conversation.Message, error) {
	sum, ok := c.transcript.Summary(conversationID)
	if !ok {
		return conversation.Message{}, fmt.Errorf("%w: %s", ErrUnknownConversation, conversationID)
	}

	localID := c.newID()
	pid := conversation.Provisional(localID)
	started := c.now()

	msg.ID = pid
	msg.Role = conversation.RoleSelf
	msg.Status = conversation.StatusPending
	msg.Timestamp = started
	req.ConversationID = conversationID
	req.Address = sum.Address

	log := c.logger.With(zap.String("conversation_id", conversationID), zap.String("provisional_id", localID))

	shown := c.transcript.AppendOptimistic(conversationID, msg)
	c.track(PendingSend{ProvisionalID: pid, ConversationID: conversationID, Request: req, StartedAt: started})
	defer c.untrack(localID)

	if c.journal != nil {
		if err := c.journal.QueueOutbox(store.OutboxEntry{
			LocalID:        localID,
			ConversationID: conversationID,
			Address:        req.Address,
			Body:           req.Body,
			Kind:           req.Kind,
			TemplateName:   req.TemplateName,
			Params:         req.Parameters,
		}); err != nil {
			log.Error("failed to journal send", zap.Error(err))
		}
	}
	if shown {
		c.bus.Emit(bus.KindMessageOptimistic, Optimistic{ConversationID: conversationID, LocalID: localID})
	}

	dctx, cancel := context.WithTimeout(ctx, c.timeout)
	delivery, err := c.deliverer.Deliver(dctx, req)
	cancel()
	if err == nil && delivery.ID == "" {
		err = ErrNoConfirmedID
	}

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			err = fmt.Errorf("delivery timed out after %s: %w", c.timeout, err)
		}
		c.transcript.Reconcile(pid, conversation.Failure(err))
		if c.journal != nil {
			if jerr := c.journal.MarkOutboxFailed(localID, err.Error()); jerr != nil {
				log.Error("failed to mark send failed", zap.Error(jerr))
			}
		}
		log.Warn("send failed", zap.Error(err))
		c.bus.Emit(bus.KindMessageSendFailed, SendFailed{ConversationID: conversationID, LocalID: localID, Error: err.Error()})
		return conversation.Message{}, &SendError{ConversationID: conversationID, LocalID: localID, Err: err}
	}

	out := conversation.Outcome{ConfirmedID: delivery.ID, Status: delivery.Status}
	c.transcript.Reconcile(pid, out)

	confirmed := msg
	confirmed.ID = conversation.Confirmed(delivery.ID)
	confirmed.Status = delivery.Status
	if confirmed.Status == "" {
		confirmed.Status = conversation.StatusSent
	}

	c.notify(log, conversationID, confirmed)
	c.transcript.UpdatePreview(conversationID, conversation.PreviewText(confirmed), confirmed.Timestamp)

	if c.journal != nil {
		if jerr := c.journal.MarkOutboxSent(localID, delivery.ID); jerr != nil {
			log.Error("failed to mark sent", zap.Error(jerr))
		}
	}
	log.Info("message sent", zap.String("message_id", delivery.ID))
	c.bus.Emit(bus.KindMessageSendAck, SendAck{ConversationID: conversationID, LocalID: localID, ServerMsgID: delivery.ID, Message: confirmed})
	return confirmed, nil
}

func (c *Coordinator) notify(log *zap.Logger, conversationID string, m conversation.Message) {
	if c.notifier == nil {
		return
	}
	frame, err := wire.EncodeSendNotification(conversationID, m)
	if err != nil {
		log.Warn("failed to encode send notification", zap.Error(err))
		return
	}
	if !c.notifier.Send(frame) {
		log.Debug("send notification dropped, channel not connected")
	}
}

func (c *Coordinator) track(p PendingSend) {
	c.mu.Lock()
	c.pending[p.ProvisionalID.String()] = p
	c.mu.Unlock()
}

func (c *Coordinator) untrack(localID string) {
	c.mu.Lock()
	delete(c.pending, localID)
	c.mu.Unlock()
}
