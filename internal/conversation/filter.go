package conversation

import "strings"

// Filter returns the summaries whose name contains query (case-insensitive)
// or whose address contains it verbatim. An empty query returns the input.
func Filter(list []Summary, query string) []Summary {
	query = strings.TrimSpace(query)
	if query == "" {
		return list
	}
	lower := strings.ToLower(query)
	var out []Summary
	for _, s := range list {
		if strings.Contains(strings.ToLower(s.Name), lower) || strings.Contains(s.Address, query) {
			out = append(out, s)
		}
	}
	return out
}
