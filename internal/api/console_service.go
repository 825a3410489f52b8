package api

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/matheus3301/wppdesk/internal/bus"
	"github.com/matheus3301/wppdesk/internal/chat"
	"github.com/matheus3301/wppdesk/internal/conversation"
	"github.com/matheus3301/wppdesk/internal/outbox"
	"github.com/matheus3301/wppdesk/internal/store"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	defaultSearchLimit = 50
	watchBuffer        = 128
)

// Session is the live chat session served by the console.
type Session interface {
	Snapshot() chat.Snapshot
	Select(ctx context.Context, id string) error
	SendText(ctx context.Context, conversationID, body string) (conversation.Message, error)
	SendTemplate(ctx context.Context, conversationID, name string, params conversation.Params) (conversation.Message, error)
}

// Archive is the local cache: search, counts and the template catalog.
type Archive interface {
	SearchMessages(query, conversationID string, limit int) ([]store.SearchResult, error)
	ListTemplates(status string) ([]store.Template, error)
	UpsertTemplates(list []store.Template) (int, error)
	ConversationCount() (int64, error)
	MessageCount() (int64, error)
	TemplateCount() (int64, error)
	ListOutbox(status string, limit int) ([]store.OutboxEntry, error)
}

const recentFailures = 5

// ConsoleService implements ConsoleServer.
type ConsoleService struct {
	profile   string
	startedAt time.Time
	session   Session
	archive   Archive
	bus       *bus.Bus
	logger    *zap.Logger
}

// NewConsoleService creates the console service. archive may be nil, in
// which case search and template RPCs report Unavailable.
func NewConsoleService(profile string, session Session, archive Archive, b *bus.Bus, logger *zap.Logger) *ConsoleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleService{
		profile:   profile,
		startedAt: time.Now(),
		session:   session,
		archive:   archive,
		bus:       b,
		logger:    logger,
	}
}

func (s *ConsoleService) GetSnapshot(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	snap := snapshotFrom(s.profile, s.session.Snapshot())
	snap.UptimeMs = time.Since(s.startedAt).Milliseconds()
	if s.archive != nil {
		if n, err := s.archive.ConversationCount(); err == nil {
			snap.CachedConversations = n
		}
		if n, err := s.archive.MessageCount(); err == nil {
			snap.CachedMessages = n
		}
		if n, err := s.archive.TemplateCount(); err == nil {
			snap.CachedTemplates = n
		}
		if failed, err := s.archive.ListOutbox(store.OutboxFailed, recentFailures); err == nil {
			for _, e := range failed {
				snap.RecentFailures = append(snap.RecentFailures, failedFrom(e))
			}
		}
	}
	return encodeResponse(snap)
}

func (s *ConsoleService) SelectConversation(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req SelectRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}
	if req.ConversationID == "" {
		return nil, grpcstatus.Error(codes.InvalidArgument, "conversation_id is required")
	}
	if err := s.session.Select(ctx, req.ConversationID); err != nil {
		return nil, toStatus("select conversation", err)
	}
	return s.GetSnapshot(ctx, nil)
}

func (s *ConsoleService) SendText(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req SendTextRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}
	msg, err := s.session.SendText(ctx, req.ConversationID, req.Body)
	if err != nil {
		return nil, toStatus("send text", err)
	}
	return encodeResponse(SendResponse{Message: MessageFrom(msg)})
}

func (s *ConsoleService) SendTemplate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req SendTemplateRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}
	if req.Name == "" {
		return nil, grpcstatus.Error(codes.InvalidArgument, "template name is required")
	}
	msg, err := s.session.SendTemplate(ctx, req.ConversationID, req.Name, DomainParams(req.Params))
	if err != nil {
		return nil, toStatus("send template", err)
	}
	return encodeResponse(SendResponse{Message: MessageFrom(msg)})
}

func (s *ConsoleService) SearchMessages(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if s.archive == nil {
		return nil, grpcstatus.Error(codes.Unavailable, "cache not available")
	}
	var req SearchRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}
	if req.Query == "" {
		return nil, grpcstatus.Error(codes.InvalidArgument, "query is required")
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	results, err := s.archive.SearchMessages(req.Query, req.ConversationID, limit)
	if err != nil {
		return nil, grpcstatus.Errorf(codes.Internal, "search messages: %v", err)
	}
	resp := SearchResponse{Results: make([]SearchHit, 0, len(results))}
	for _, r := range results {
		resp.Results = append(resp.Results, SearchHit{
			ConversationID: r.ConversationID,
			Message:        MessageFrom(r.Message),
			Snippet:        r.Snippet,
		})
	}
	return encodeResponse(resp)
}

func (s *ConsoleService) ListTemplates(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if s.archive == nil {
		return nil, grpcstatus.Error(codes.Unavailable, "cache not available")
	}
	var req ListTemplatesRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}
	list, err := s.archive.ListTemplates(req.Status)
	if err != nil {
		return nil, grpcstatus.Errorf(codes.Internal, "list templates: %v", err)
	}
	if list == nil {
		list = []store.Template{}
	}
	return encodeResponse(TemplateList{Templates: list})
}

func (s *ConsoleService) ImportTemplates(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if s.archive == nil {
		return nil, grpcstatus.Error(codes.Unavailable, "cache not available")
	}
	var req ImportTemplatesRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, err
	}
	n, err := s.archive.UpsertTemplates(req.Templates)
	if err != nil {
		return nil, grpcstatus.Errorf(codes.InvalidArgument, "import templates: %v", err)
	}
	s.logger.Info("templates imported", zap.Int("count", n))
	s.bus.Emit(bus.KindTemplatesImported, ImportTemplatesResponse{Imported: n})
	return encodeResponse(ImportTemplatesResponse{Imported: n})
}

func (s *ConsoleService) WatchEvents(in *structpb.Struct, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	if s.bus == nil {
		return grpcstatus.Error(codes.Unavailable, "event bus not available")
	}
	var req WatchRequest
	if err := decodeRequest(in, &req); err != nil {
		return err
	}
	ch, unsub := s.bus.Subscribe(req.Namespace, watchBuffer)
	defer unsub()

	for {
		select {
		case evt := <-ch:
			env, err := Encode(EventEnvelope{
				EventID:          uuid.NewString(),
				Profile:          s.profile,
				Kind:             evt.Kind,
				OccurredAtUnixMs: evt.Timestamp.UnixMilli(),
				Payload:          eventPayload(evt),
			})
			if err != nil {
				s.logger.Warn("failed to encode event", zap.String("kind", evt.Kind), zap.Error(err))
				continue
			}
			if err := stream.Send(env); err != nil {
				return err
			}
		case <-stream.Context().Done():
			return nil
		}
	}
}

func decodeRequest(in *structpb.Struct, v any) error {
	if err := Decode(in, v); err != nil {
		return grpcstatus.Errorf(codes.InvalidArgument, "%v", err)
	}
	return nil
}

func encodeResponse(v any) (*structpb.Struct, error) {
	out, err := Encode(v)
	if err != nil {
		return nil, grpcstatus.Errorf(codes.Internal, "%v", err)
	}
	return out, nil
}

// toStatus maps session errors onto gRPC codes.
func toStatus(op string, err error) error {
	code := codes.Internal
	var sendErr *outbox.SendError
	switch {
	case errors.Is(err, outbox.ErrEmptyBody), errors.Is(err, outbox.ErrTemplateParams):
		code = codes.InvalidArgument
	case errors.Is(err, outbox.ErrUnknownConversation), errors.Is(err, outbox.ErrUnknownTemplate):
		code = codes.NotFound
	case errors.Is(err, outbox.ErrTemplateNotApproved):
		code = codes.FailedPrecondition
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	case errors.As(err, &sendErr):
		code = codes.Unavailable
	}
	return grpcstatus.Errorf(code, "%s: %v", op, err)
}
