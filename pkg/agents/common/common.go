// Package common holds small helpers shared by every pkg/agents/* package:
// dynamic-map traversal, order/metric structural checks, and creative-score
// parsing. Agent outputs flow as map[string]any end-to-end (the descriptor.
// Agent/Evaluator contract, spec.md §4.6), so these helpers replace the
// typed Pydantic model access the Python agents use.
package common

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// SliceAt returns m[key] as a slice of maps, skipping any element that
// isn't one (defensive against malformed LLM output).
func SliceAt(m map[string]any, key string) []map[string]any {
	raw, _ := m[key].([]any)
	out := make([]map[string]any, 0, len(raw))
	for _, v := range raw {
		if mv, ok := v.(map[string]any); ok {
			out = append(out, mv)
		}
	}
	return out
}

// SliceOfStrings returns v as a []string, skipping non-string elements.
func SliceOfStrings(v any) []string {
	raw, _ := v.([]any)
	out := make([]string, 0, len(raw))
	for _, x := range raw {
		if s, ok := x.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// IDSet collects the non-empty string values of key across items, for
// referential-integrity checks.
func IDSet(items []map[string]any, key string) map[string]bool {
	out := make(map[string]bool, len(items))
	for _, item := range items {
		if v, _ := item[key].(string); v != "" {
			out[v] = true
		}
	}
	return out
}

// NormalizeOrder renumbers items[i]["order"] to i+1 in place.
func NormalizeOrder(items []map[string]any) {
	for i, item := range items {
		item["order"] = i + 1
	}
}

// OrderValues extracts the "order" field of each item as an int.
func OrderValues(items []map[string]any) []int {
	out := make([]int, 0, len(items))
	for _, item := range items {
		out = append(out, AsInt(item["order"]))
	}
	return out
}

// AsInt converts a JSON-decoded numeric (float64 or int) to int.
func AsInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	default:
		return 0
	}
}

// CheckOrderContinuous reports an error if orders isn't 1, 2, 3, ... in order.
func CheckOrderContinuous(field string, orders []int) []string {
	for i, o := range orders {
		if o != i+1 {
			return []string{field + " order is not continuous starting at 1"}
		}
	}
	return nil
}

// CheckIDCoverage reports an error naming any id in want that's absent from
// got, identifying mismatched cross-asset references (e.g. a screenplay
// scene_id the upstream story blueprint never declared).
func CheckIDCoverage(label string, want, got map[string]bool) []string {
	var missing []string
	for id := range want {
		if !got[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return []string{fmt.Sprintf("%s: missing ids %v", label, missing)}
}

// CheckMetric reports an error if metrics[key] doesn't equal expected.
func CheckMetric(metrics map[string]any, key string, expected int) []string {
	if metrics == nil {
		return nil
	}
	if actual := AsInt(metrics[key]); actual != expected {
		return []string{key + " mismatch"}
	}
	return nil
}

// Dimension is one named creative or asset quality axis with its prompt
// question, mirroring BaseEvaluator.creative_dimensions.
type Dimension struct {
	Name     string
	Question string
}

// ParseDimensionScores extracts {"dimensions": {"<name>": {"score": f}}}
// from an LLM's JSON response, defaulting any dimension it omits to 0 so a
// malformed response fails closed rather than passing silently.
func ParseDimensionScores(text string, dims []Dimension) map[string]float64 {
	out := make(map[string]float64, len(dims))
	for _, d := range dims {
		out[d.Name] = 0
	}

	var parsed struct {
		Dimensions map[string]struct {
			Score float64 `json:"score"`
		} `json:"dimensions"`
	}
	if err := json.Unmarshal([]byte(ExtractJSON(text)), &parsed); err != nil {
		return out
	}
	for _, d := range dims {
		if v, ok := parsed.Dimensions[d.Name]; ok {
			out[d.Name] = v.Score
		}
	}
	return out
}

// CheckURI classifies a materialized asset's URI for Layer 3 asset
// evaluation: "missing" (never generated), "error" (generation failed and
// recorded an error string), or "success".
func CheckURI(uri string) string {
	switch {
	case uri == "" || uri == "placeholder":
		return "missing"
	case strings.HasPrefix(uri, "error:"):
		return "error"
	default:
		return "success"
	}
}

// ExtractJSON strips markdown code fences an LLM may wrap its output in.
func ExtractJSON(text string) string {
	t := strings.TrimSpace(text)
	t = strings.TrimPrefix(t, "```json")
	t = strings.TrimPrefix(t, "```")
	t = strings.TrimSuffix(t, "```")
	return strings.TrimSpace(t)
}
