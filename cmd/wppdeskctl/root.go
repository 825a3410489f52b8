package main

import (
	"context"
	"fmt"
	"time"

	"github.com/matheus3301/wppdesk/internal/api"
	"github.com/matheus3301/wppdesk/internal/profile"
	"github.com/matheus3301/wppdesk/internal/store"
	"github.com/matheus3301/wppdesk/internal/tui/client"
	"github.com/spf13/cobra"
)

// daemon is the client surface the commands use.
type daemon interface {
	Snapshot(ctx context.Context) (*api.Snapshot, error)
	Select(ctx context.Context, id string) (*api.Snapshot, error)
	SendText(ctx context.Context, conversationID, body string) (*api.Message, error)
	SendTemplate(ctx context.Context, conversationID, name string, params []api.Param) (*api.Message, error)
	Search(ctx context.Context, query, conversationID string, limit int) ([]api.SearchHit, error)
	Templates(ctx context.Context, status string) ([]store.Template, error)
	ImportTemplates(ctx context.Context, list []store.Template) (int, error)
	Close() error
}

type dialFunc func(socketPath string) (daemon, error)

func dialDaemon(socketPath string) (daemon, error) {
	c, err := client.New(socketPath)
	if err != nil {
		return nil, err
	}
	return c, nil
}

type options struct {
	profile string
	socket  string
	json    bool
	timeout time.Duration
	dial    dialFunc
}

func newRootCmd(dial dialFunc) *cobra.Command {
	o := &options{dial: dial}

	root := &cobra.Command{
		Use:   "wppdeskctl",
		Short: "Control a running wppdesk daemon",
		Long: `wppdeskctl talks to the wppdeskd daemon of a profile over its Unix socket.

Examples:
  wppdeskctl status
  wppdeskctl chats --filter ana
  wppdeskctl send c1 "Your order has shipped"
  wppdeskctl template c1 order_update name=Ana order=42
  wppdeskctl templates import catalog.yaml`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&o.profile, "profile", "", "profile name (overrides config default)")
	root.PersistentFlags().StringVar(&o.socket, "socket", "", "daemon socket (overrides the profile's)")
	root.PersistentFlags().BoolVar(&o.json, "json", false, "output in JSON format")
	root.PersistentFlags().DurationVar(&o.timeout, "timeout", 45*time.Second, "request timeout")

	root.AddCommand(
		newStatusCmd(o),
		newChatsCmd(o),
		newOpenCmd(o),
		newSendCmd(o),
		newTemplateCmd(o),
		newSearchCmd(o),
		newTemplatesCmd(o),
		newQRCmd(o),
		newConfigCmd(o),
	)
	return root
}

// run connects to the profile's daemon and calls fn with a bounded context.
func (o *options) run(cmd *cobra.Command, fn func(ctx context.Context, d daemon) error) error {
	socket := o.socket
	if socket == "" {
		name := profile.Resolve(o.profile)
		if err := profile.ValidateName(name); err != nil {
			return err
		}
		socket = profile.SocketPath(name)
	}

	d, err := o.dial(socket)
	if err != nil {
		return fmt.Errorf("connect to daemon at %s: %w", socket, err)
	}
	defer func() { _ = d.Close() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), o.timeout)
	defer cancel()
	return fn(ctx, d)
}
