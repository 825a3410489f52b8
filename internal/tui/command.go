package tui

import "strings"

// Command represents a parsed command.
type Command struct {
	Name string
	Args string
}

// Fields splits Args on whitespace.
func (c Command) Fields() []string {
	return strings.Fields(c.Args)
}

// ParseCommand parses a command string (without the leading ':').
// Aliases are folded into their canonical name.
func ParseCommand(input string) Command {
	input = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(input), ":"))
	parts := strings.SplitN(input, " ", 2)
	cmd := Command{Name: strings.ToLower(parts[0])}
	if len(parts) > 1 {
		cmd.Args = strings.TrimSpace(parts[1])
	}
	if canonical, ok := commandAliases[cmd.Name]; ok {
		cmd.Name = canonical
	}
	return cmd
}

var commandAliases = map[string]string{
	"q":    "quit",
	"q!":   "quit",
	"exit": "quit",
	"h":    "help",
	"chat": "open",
	"o":    "open",
	"tpl":  "template",
	"t":    "template",
	"f":    "filter",
	"r":    "refresh",
	"s":    "search",
}
