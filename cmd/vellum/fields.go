package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/vellum/pkg/core"
)

// parseAssignments turns name=kind:value arguments into typed values, e.g.
// age=integer:42 or born=date:1990-04-01T00:00:00Z. A bare name=value is a
// string.
func parseAssignments(args []string) (map[string]core.Value, error) {
	out := make(map[string]core.Value, len(args))
	for _, arg := range args {
		name, rest, ok := strings.Cut(arg, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("%w: expected name=kind:value, got %q", core.ErrValidation, arg)
		}

		kind, raw := core.KindString, rest
		if k, v, ok := strings.Cut(rest, ":"); ok {
			if parsed, err := core.ParseKind(k); err == nil {
				kind, raw = parsed, v
			}
		}

		v, err := core.NewValue(kind)
		if err != nil {
			return nil, err
		}
		if raw != "" {
			v.Set(raw)
			if !v.Present() {
				return nil, fmt.Errorf("%w: %q is not a valid %s", core.ErrValidation, raw, kind)
			}
		}
		out[name] = v
	}
	return out, nil
}
