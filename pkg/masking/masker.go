// Package masking redacts sensitive substrings from log details before they
// are persisted, adapted from the teacher's regex-pattern masking service
// (pkg/masking) down to the single built-in pattern set this system needs —
// no per-server configuration, since workspace logs have no MCP server
// concept.
package masking

import "regexp"

// Pattern is a single compiled redaction rule.
type Pattern struct {
	Name        string
	Regex       *regexp.Regexp
	Replacement string
}

// builtinPatterns mirrors the teacher's built-in masking config: common
// secret shapes that should never reach a persisted log entry.
var builtinPatterns = []Pattern{
	{
		Name:        "api_key",
		Regex:       regexp.MustCompile(`(?i)(api[_-]?key|apikey)\s*[:=]\s*['"]?[A-Za-z0-9_\-]{16,}['"]?`),
		Replacement: "$1=***MASKED***",
	},
	{
		Name:        "bearer_token",
		Regex:       regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9_\-\.]{10,}`),
		Replacement: "Bearer ***MASKED***",
	},
	{
		Name:        "openai_key",
		Regex:       regexp.MustCompile(`sk-[A-Za-z0-9]{20,}`),
		Replacement: "sk-***MASKED***",
	},
	{
		Name:        "email",
		Regex:       regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`),
		Replacement: "***EMAIL***",
	},
}

// Redactor applies the built-in pattern set to strings and string-valued map
// entries.
type Redactor struct {
	patterns []Pattern
}

// New creates a Redactor with the built-in pattern set.
func New() *Redactor {
	return &Redactor{patterns: builtinPatterns}
}

// Mask applies every pattern to s in order and returns the result.
func (r *Redactor) Mask(s string) string {
	for _, p := range r.patterns {
		s = p.Regex.ReplaceAllString(s, p.Replacement)
	}
	return s
}

// MaskDetails returns a copy of details with every string value (and string
// elements of []any values) passed through Mask. Non-string values pass
// through unchanged.
func (r *Redactor) MaskDetails(details map[string]any) map[string]any {
	if details == nil {
		return nil
	}
	out := make(map[string]any, len(details))
	for k, v := range details {
		out[k] = r.maskValue(v)
	}
	return out
}

func (r *Redactor) maskValue(v any) any {
	switch t := v.(type) {
	case string:
		return r.Mask(t)
	case []any:
		masked := make([]any, len(t))
		for i, e := range t {
			masked[i] = r.maskValue(e)
		}
		return masked
	case map[string]any:
		return r.MaskDetails(t)
	default:
		return v
	}
}
