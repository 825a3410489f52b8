package client

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/matheus3301/wppdesk/internal/api"
	"github.com/matheus3301/wppdesk/internal/store"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client wraps the gRPC connection to the daemon's console service.
type Client struct {
	conn *grpc.ClientConn
}

// New dials the daemon's Unix domain socket.
func New(socketPath string) (*Client, error) {
	conn, err := grpc.NewClient(
		"unix://"+socketPath,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("dial daemon: %w", err)
	}
	return &Client{conn: conn}, nil
}

// Close closes the gRPC connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) invoke(ctx context.Context, method string, req, resp any) error {
	in, err := api.Encode(req)
	if err != nil {
		return err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, method, in, out); err != nil {
		return err
	}
	return api.Decode(out, resp)
}

// Snapshot fetches the session state.
func (c *Client) Snapshot(ctx context.Context) (*api.Snapshot, error) {
	var snap api.Snapshot
	if err := c.invoke(ctx, api.MethodGetSnapshot, api.Empty{}, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Select makes id the active conversation and returns the new state.
func (c *Client) Select(ctx context.Context, id string) (*api.Snapshot, error) {
	var snap api.Snapshot
	if err := c.invoke(ctx, api.MethodSelectConversation, api.SelectRequest{ConversationID: id}, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// SendText sends a text message and returns the confirmed message.
func (c *Client) SendText(ctx context.Context, conversationID, body string) (*api.Message, error) {
	var resp api.SendResponse
	req := api.SendTextRequest{ConversationID: conversationID, Body: body}
	if err := c.invoke(ctx, api.MethodSendText, req, &resp); err != nil {
		return nil, err
	}
	return &resp.Message, nil
}

// SendTemplate sends a template message.
func (c *Client) SendTemplate(ctx context.Context, conversationID, name string, params []api.Param) (*api.Message, error) {
	var resp api.SendResponse
	req := api.SendTemplateRequest{ConversationID: conversationID, Name: name, Params: params}
	if err := c.invoke(ctx, api.MethodSendTemplate, req, &resp); err != nil {
		return nil, err
	}
	return &resp.Message, nil
}

// Search runs a full-text query over cached messages.
func (c *Client) Search(ctx context.Context, query, conversationID string, limit int) ([]api.SearchHit, error) {
	var resp api.SearchResponse
	req := api.SearchRequest{Query: query, ConversationID: conversationID, Limit: limit}
	if err := c.invoke(ctx, api.MethodSearchMessages, req, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// Templates lists the catalog, optionally filtered by status.
func (c *Client) Templates(ctx context.Context, status string) ([]store.Template, error) {
	var resp api.TemplateList
	if err := c.invoke(ctx, api.MethodListTemplates, api.ListTemplatesRequest{Status: status}, &resp); err != nil {
		return nil, err
	}
	return resp.Templates, nil
}

// ImportTemplates upserts templates into the catalog.
func (c *Client) ImportTemplates(ctx context.Context, list []store.Template) (int, error) {
	var resp api.ImportTemplatesResponse
	if err := c.invoke(ctx, api.MethodImportTemplates, api.ImportTemplatesRequest{Templates: list}, &resp); err != nil {
		return 0, err
	}
	return resp.Imported, nil
}

// Watch streams bus events until ctx is cancelled. fn is called for every
// envelope; a non-nil return stops the stream.
func (c *Client) Watch(ctx context.Context, namespace string, fn func(api.EventEnvelope) error) error {
	desc := &api.ConsoleServiceDesc.Streams[0]
	stream, err := c.conn.NewStream(ctx, desc, api.MethodWatchEvents)
	if err != nil {
		return err
	}
	in, err := api.Encode(api.WatchRequest{Namespace: namespace})
	if err != nil {
		return err
	}
	if err := stream.SendMsg(in); err != nil {
		return err
	}
	if err := stream.CloseSend(); err != nil {
		return err
	}
	for {
		out := new(structpb.Struct)
		if err := stream.RecvMsg(out); err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		var env api.EventEnvelope
		if err := api.Decode(out, &env); err != nil {
			return err
		}
		if err := fn(env); err != nil {
			return err
		}
	}
}
