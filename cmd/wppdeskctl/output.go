package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/matheus3301/wppdesk/internal/api"
	"github.com/matheus3301/wppdesk/internal/store"
)

var (
	labelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	idStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true)
	countStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func connectivityStyle(state string) lipgloss.Style {
	switch state {
	case "CONNECTED":
		return okStyle
	case "CONNECTING":
		return warnStyle
	default:
		return errStyle
	}
}

func stamp(ms int64) string {
	if ms == 0 {
		return "-"
	}
	return time.UnixMilli(ms).Format("2006-01-02 15:04")
}

func displayName(s api.Summary) string {
	if s.Name != "" {
		return s.Name
	}
	if s.Address != "" {
		return s.Address
	}
	return s.ID
}

func oneLine(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > n {
		return string(r[:n-1]) + "…"
	}
	return s
}

func renderStatus(w io.Writer, s *api.Snapshot) {
	field := func(label, value string) {
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render(fmt.Sprintf("%-13s", label+":")), value)
	}
	field("Profile", titleStyle.Render(s.Profile))
	field("Connectivity", connectivityStyle(s.Connectivity).Render(s.Connectivity))
	if s.ConnectivitySinceUnixMs > 0 {
		field("Since", stamp(s.ConnectivitySinceUnixMs))
	}
	if s.InitError != "" {
		field("Init error", errStyle.Render(s.InitError))
	}
	if s.Source != "" {
		field("Source", s.Source)
	}
	active := "-"
	for _, c := range s.Summaries {
		if c.ID == s.ActiveID {
			active = displayName(c) + " " + idStyle.Render(c.ID)
		}
	}
	field("Active", active)
	field("Conversations", countStyle.Render(fmt.Sprint(len(s.Summaries))))
	field("Pending sends", countStyle.Render(fmt.Sprint(len(s.Pending))))
	field("Cache", fmt.Sprintf("%d conversations, %d messages, %d templates", s.CachedConversations, s.CachedMessages, s.CachedTemplates))
	field("Uptime", (time.Duration(s.UptimeMs) * time.Millisecond).Truncate(time.Second).String())
	if len(s.RecentFailures) == 0 {
		return
	}
	fmt.Fprintln(w, labelStyle.Render("Recent failures:"))
	for _, f := range s.RecentFailures {
		what := oneLine(f.Body, 40)
		if f.TemplateName != "" {
			what = "template " + f.TemplateName
		}
		fmt.Fprintf(w, "  %s %s %s %s\n", stamp(f.UpdatedAtUnixMs), idStyle.Render(f.ConversationID), what, errStyle.Render(f.Error))
	}
}

func renderChats(w io.Writer, list []api.Summary, activeID string) {
	if len(list) == 0 {
		fmt.Fprintln(w, dimStyle.Render("No conversations."))
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\tID\tNAME\tUNREAD\tLAST\tPREVIEW")
	for _, s := range list {
		mark := " "
		if s.ID == activeID {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n", mark, s.ID, displayName(s), s.Unread, stamp(s.PreviewAtUnixMs), oneLine(s.Preview, 50))
	}
	_ = tw.Flush()
}

func renderTranscript(w io.Writer, s *api.Snapshot) {
	for _, c := range s.Summaries {
		if c.ID == s.ActiveID {
			fmt.Fprintf(w, "%s %s\n\n", titleStyle.Render(displayName(c)), idStyle.Render(c.Address))
		}
	}
	if len(s.Transcript) == 0 {
		fmt.Fprintln(w, dimStyle.Render("No messages."))
		return
	}
	for _, m := range s.Transcript {
		who := "them"
		if m.Role == "self" {
			who = "you"
		}
		body := m.Body
		if body == "" && m.TemplateName != "" {
			body = "Template: " + m.TemplateName
		}
		fmt.Fprintf(w, "%s %s %s\n  %s\n", dimStyle.Render(stamp(m.TimestampUnixMs)), labelStyle.Render(who), dimStyle.Render(m.Status), body)
	}
}

func renderSent(w io.Writer, m *api.Message) {
	fmt.Fprintf(w, "%s %s (%s)\n", okStyle.Render("sent"), m.ID, m.Status)
}

func renderSearch(w io.Writer, hits []api.SearchHit) {
	if len(hits) == 0 {
		fmt.Fprintln(w, dimStyle.Render("No matches."))
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CONVERSATION\tMESSAGE\tTIME\tSNIPPET")
	for _, h := range hits {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", h.ConversationID, h.Message.ID, stamp(h.Message.TimestampUnixMs), oneLine(h.Snippet, 60))
	}
	_ = tw.Flush()
}

func renderTemplates(w io.Writer, list []store.Template) {
	if len(list) == 0 {
		fmt.Fprintln(w, dimStyle.Render("No templates."))
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tLANGUAGE\tCATEGORY\tSTATUS\tVARIABLES")
	for _, t := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", t.Name, t.Language, t.Category, t.Status, strings.Join(t.Variables, ","))
	}
	_ = tw.Flush()
}
