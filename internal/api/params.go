package api

import (
	"fmt"
	"strings"
)

// ParseParams turns "name=value" arguments into an ordered parameter list.
// Values may contain '='; names may not be empty or repeated.
func ParseParams(args []string) ([]Param, error) {
	out := make([]Param, 0, len(args))
	seen := make(map[string]bool, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid parameter %q, want name=value", arg)
		}
		if seen[name] {
			return nil, fmt.Errorf("parameter %q given twice", name)
		}
		seen[name] = true
		out = append(out, Param{Name: name, Value: value})
	}
	return out, nil
}
