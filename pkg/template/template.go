// Package template provides placeholder substitution for document templates and
// {{path}} interpolation of execution context values into free text.
package template

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/dukex/juris/pkg/models"
)

var (
	interpolationPattern = regexp.MustCompile(`\{\{\s*([^{}\s]+)\s*\}\}`)
	placeholderPattern   = regexp.MustCompile(`\{([^{}]+)\}|\[([^\[\]]+)\]`)
)

// Substitute replaces {KEY} and [KEY] placeholders in content in a single pass, so
// placeholders inside substituted values are kept as text. Keys are matched
// case-insensitively; unknown placeholders are left untouched.
func Substitute(content string, values map[string]string) string {
	if len(values) == 0 {
		return content
	}

	upper := make(map[string]string, len(values))
	for key, value := range values {
		upper[strings.ToUpper(key)] = value
	}

	return placeholderPattern.ReplaceAllStringFunc(content, func(match string) string {
		if value, ok := upper[strings.ToUpper(match[1:len(match)-1])]; ok {
			return value
		}

		return match
	})
}

// ResolveMapping turns a parameter mapping (placeholder name -> dot path) into
// placeholder values read from data. Unresolved paths map to "".
func ResolveMapping(mapping map[string]any, data map[string]any) map[string]string {
	values := make(map[string]string, len(mapping))

	for name, rawPath := range mapping {
		path, ok := rawPath.(string)
		if !ok {
			continue
		}

		value, found := models.ResolvePath(data, path)
		if !found {
			values[name] = ""

			continue
		}

		values[name] = Stringify(value)
	}

	return values
}

// Interpolate replaces {{dot.path}} references with values from data.
// References that cannot be resolved are left untouched.
func Interpolate(text string, data map[string]any) string {
	return interpolationPattern.ReplaceAllStringFunc(text, func(match string) string {
		path := interpolationPattern.FindStringSubmatch(match)[1]

		value, found := models.ResolvePath(data, path)
		if !found {
			return match
		}

		return Stringify(value)
	})
}

// Reference extracts the path of a whole-string {{path}} reference.
func Reference(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)

	match := interpolationPattern.FindStringSubmatch(trimmed)
	if match == nil || match[0] != trimmed {
		return "", false
	}

	return match[1], true
}

// Stringify formats a context value for insertion into text.
func Stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case map[string]any, []any:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}

		return string(data)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ResolveList turns a literal id, a {{path}} reference or a list of either into a flat list
// of non-empty strings. References may point at a string or a list value.
func ResolveList(raw any, data map[string]any) []string {
	resolved := make([]string, 0)

	var add func(value any)

	add = func(value any) {
		switch v := value.(type) {
		case nil:
		case string:
			if path, ok := Reference(v); ok {
				target, found := models.ResolvePath(data, path)
				if found {
					add(target)
				}

				return
			}

			if trimmed := strings.TrimSpace(v); trimmed != "" {
				resolved = append(resolved, trimmed)
			}
		case []string:
			for _, item := range v {
				add(item)
			}
		case []any:
			for _, item := range v {
				add(item)
			}
		default:
			if s := Stringify(v); s != "" {
				resolved = append(resolved, s)
			}
		}
	}

	add(raw)

	return resolved
}
