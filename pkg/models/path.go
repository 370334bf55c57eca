package models

import (
	"strconv"
	"strings"
)

// contextPrefix is accepted in front of a path as an explicit reference to the execution context.
const contextPrefix = "context."

// ResolvePath walks a dot-notation path through nested maps and slices.
// A leading "context." segment is dropped unless the data has its own "context" key.
// The second result is false when any segment is missing.
func ResolvePath(data map[string]any, path string) (any, bool) {
	path = strings.TrimSpace(path)
	if path == "" || data == nil {
		return nil, false
	}

	if strings.HasPrefix(path, contextPrefix) {
		if _, own := data["context"]; !own {
			path = strings.TrimPrefix(path, contextPrefix)
		}
	}

	var current any = data

	for _, segment := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]any:
			value, ok := node[segment]
			if !ok {
				return nil, false
			}

			current = value
		case map[string]string:
			value, ok := node[segment]
			if !ok {
				return nil, false
			}

			current = value
		case []any:
			index, err := strconv.Atoi(segment)
			if err != nil || index < 0 || index >= len(node) {
				return nil, false
			}

			current = node[index]
		case []string:
			index, err := strconv.Atoi(segment)
			if err != nil || index < 0 || index >= len(node) {
				return nil, false
			}

			current = node[index]
		default:
			return nil, false
		}
	}

	return current, true
}
