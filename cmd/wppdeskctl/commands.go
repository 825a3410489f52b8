package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/matheus3301/wppdesk/internal/api"
	"github.com/matheus3301/wppdesk/internal/conversation"
	"github.com/matheus3301/wppdesk/internal/tui/views"
	"github.com/spf13/cobra"
)

func newStatusCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon connectivity and cache state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.run(cmd, func(ctx context.Context, d daemon) error {
				s, err := d.Snapshot(ctx)
				if err != nil {
					return err
				}
				if o.json {
					return printJSON(cmd.OutOrStdout(), s)
				}
				renderStatus(cmd.OutOrStdout(), s)
				return nil
			})
		},
	}
}

func newChatsCmd(o *options) *cobra.Command {
	var filter string
	cmd := &cobra.Command{
		Use:   "chats",
		Short: "List conversations, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.run(cmd, func(ctx context.Context, d daemon) error {
				s, err := d.Snapshot(ctx)
				if err != nil {
					return err
				}
				list := filterSummaries(s.Summaries, filter)
				if o.json {
					return printJSON(cmd.OutOrStdout(), list)
				}
				renderChats(cmd.OutOrStdout(), list, s.ActiveID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "", "only conversations whose name or address matches")
	return cmd
}

func filterSummaries(list []api.Summary, query string) []api.Summary {
	byID := make(map[string]api.Summary, len(list))
	domain := make([]conversation.Summary, len(list))
	for i, s := range list {
		byID[s.ID] = s
		domain[i] = s.Domain()
	}
	out := make([]api.Summary, 0, len(list))
	for _, s := range conversation.Filter(domain, query) {
		out = append(out, byID[s.ID])
	}
	return out
}

func newOpenCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "open <conversation-id>",
		Short: "Make a conversation active and print its transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(ctx context.Context, d daemon) error {
				s, err := d.Select(ctx, args[0])
				if err != nil {
					return err
				}
				if o.json {
					return printJSON(cmd.OutOrStdout(), s)
				}
				renderTranscript(cmd.OutOrStdout(), s)
				return nil
			})
		},
	}
}

func newSendCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "send <conversation-id> <text>...",
		Short: "Send a text message",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := strings.Join(args[1:], " ")
			return o.run(cmd, func(ctx context.Context, d daemon) error {
				m, err := d.SendText(ctx, args[0], body)
				if err != nil {
					return err
				}
				return printMessage(cmd, o, m)
			})
		},
	}
}

func newTemplateCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "template <conversation-id> <name> [param=value]...",
		Short: "Send an approved message template",
		Long: `Send a message template. Parameters are given as name=value pairs in
the order the template declares them.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := api.ParseParams(args[2:])
			if err != nil {
				return err
			}
			return o.run(cmd, func(ctx context.Context, d daemon) error {
				m, err := d.SendTemplate(ctx, args[0], args[1], params)
				if err != nil {
					return err
				}
				return printMessage(cmd, o, m)
			})
		},
	}
}

func printMessage(cmd *cobra.Command, o *options, m *api.Message) error {
	if o.json {
		return printJSON(cmd.OutOrStdout(), m)
	}
	renderSent(cmd.OutOrStdout(), m)
	return nil
}

func newSearchCmd(o *options) *cobra.Command {
	var (
		conversationID string
		limit          int
	)
	cmd := &cobra.Command{
		Use:   "search <query>...",
		Short: "Full-text search over cached messages",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return o.run(cmd, func(ctx context.Context, d daemon) error {
				hits, err := d.Search(ctx, query, conversationID, limit)
				if err != nil {
					return err
				}
				if o.json {
					return printJSON(cmd.OutOrStdout(), hits)
				}
				renderSearch(cmd.OutOrStdout(), hits)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&conversationID, "conversation", "", "restrict to one conversation")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of results")
	return cmd
}

func newTemplatesCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Manage the message template catalog",
	}

	var status string
	list := &cobra.Command{
		Use:   "list",
		Short: "List templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.run(cmd, func(ctx context.Context, d daemon) error {
				ts, err := d.Templates(ctx, status)
				if err != nil {
					return err
				}
				if o.json {
					return printJSON(cmd.OutOrStdout(), ts)
				}
				renderTemplates(cmd.OutOrStdout(), ts)
				return nil
			})
		},
	}
	list.Flags().StringVar(&status, "status", "", "only templates with this status (approved, pending, rejected)")

	imp := &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Import templates from a YAML file",
		Long: `Import templates from a YAML file. The file holds either a list of
templates or a mapping with a "templates" key:

  templates:
    - name: order_update
      language: en
      category: utility
      status: approved
      content: "Hi {{name}}, order {{order}} has shipped."
      variables: [name, order]`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			ts, err := parseTemplateFile(data)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			return o.run(cmd, func(ctx context.Context, d daemon) error {
				n, err := d.ImportTemplates(ctx, ts)
				if err != nil {
					return err
				}
				if o.json {
					return printJSON(cmd.OutOrStdout(), map[string]int{"imported": n})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", okStyle.Render("imported"), countStyle.Render(fmt.Sprint(n)))
				return nil
			})
		},
	}

	cmd.AddCommand(list, imp)
	return cmd
}

func newQRCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "qr <conversation-id|address>",
		Short: "Print a click-to-chat QR code for a contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(ctx context.Context, d daemon) error {
				s, err := d.Snapshot(ctx)
				if err != nil {
					return err
				}
				address := args[0]
				for _, c := range s.Summaries {
					if c.ID == args[0] && c.Address != "" {
						address = c.Address
					}
				}
				link := views.ChatLink(address)
				if link == "" {
					return fmt.Errorf("%q has no phone address", args[0])
				}
				if o.json {
					return printJSON(cmd.OutOrStdout(), map[string]string{"address": address, "link": link})
				}
				qr, err := views.RenderQR(link, "  ")
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n\n%s", link, qr)
				return nil
			})
		},
	}
}
