package outbox

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/matheus3301/wppdesk/internal/conversation"
	"github.com/matheus3301/wppdesk/internal/store"
)

var placeholder = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.-]+)\s*\}\}`)

// Render substitutes params into the template content. Every declared
// variable must be supplied and no undeclared one may be.
func Render(t store.Template, params conversation.Params) (string, error) {
	declared := make(map[string]bool, len(t.Variables))
	for _, v := range t.Variables {
		declared[v] = true
	}
	for _, p := range params {
		if !declared[p.Name] {
			return "", fmt.Errorf("%w: %q is not a variable of %s", ErrTemplateParams, p.Name, t.Name)
		}
	}
	var missing []string
	for _, v := range t.Variables {
		if _, ok := params.Get(v); !ok {
			missing = append(missing, v)
		}
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("%w: %s requires %s", ErrTemplateParams, t.Name, strings.Join(missing, ", "))
	}

	return placeholder.ReplaceAllStringFunc(t.Content, func(m string) string {
		name := placeholder.FindStringSubmatch(m)[1]
		if v, ok := params.Get(name); ok {
			return v
		}
		return m
	}), nil
}
