package metadata

import (
	"encoding/json"
	"reflect"
	"regexp"
	"strings"
)

var getValueRe = regexp.MustCompile(`OB\.Utilities\.getValue\(currentValues,['"](.+)['"]\)\s*===\s*(.+)`)

// EvaluateExpression evaluates the display-logic subset the ERP emits:
// comparisons of OB.Utilities.getValue(currentValues,'prop') against a
// literal, joined with ||. Anything else evaluates to false.
func EvaluateExpression(expr string, values map[string]any) bool {
	for _, cond := range strings.Split(expr, "||") {
		m := getValueRe.FindStringSubmatch(strings.TrimSpace(cond))
		if m == nil {
			continue
		}
		prop, want := m[1], strings.TrimSpace(m[2])
		actual := normalize(values[prop])

		if strings.HasPrefix(want, "'") || strings.HasPrefix(want, `"`) {
			if s, ok := actual.(string); ok && len(want) >= 2 && s == want[1:len(want)-1] {
				return true
			}
			continue
		}
		var lit any
		if err := json.Unmarshal([]byte(want), &lit); err != nil {
			continue
		}
		if reflect.DeepEqual(actual, lit) {
			return true
		}
	}
	return false
}

// normalize maps Go numbers onto float64 so they compare like decoded JSON.
func normalize(v any) any {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case float32:
		return float64(n)
	default:
		return v
	}
}
