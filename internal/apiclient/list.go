package apiclient

import (
	"bytes"
	"fmt"

	json "github.com/goccy/go-json"
)

// DecodeList decodes a list endpoint body that is either a bare JSON array or
// an object wrapping the array under one of keys (e.g. "data").
func DecodeList[T any](raw []byte, keys ...string) ([]T, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []T{}, nil
	}

	if trimmed[0] == '[' {
		var items []T
		err := json.Unmarshal(trimmed, &items)
		if err != nil {
			return nil, fmt.Errorf("unmarshal list: %w", err)
		}
		return items, nil
	}

	var wrapper map[string]json.RawMessage
	err := json.Unmarshal(trimmed, &wrapper)
	if err != nil {
		return nil, fmt.Errorf("unmarshal list wrapper: %w", err)
	}

	for _, key := range keys {
		inner, ok := wrapper[key]
		if !ok {
			continue
		}
		var items []T
		err = json.Unmarshal(inner, &items)
		if err != nil {
			return nil, fmt.Errorf("unmarshal list under %q: %w", key, err)
		}
		if items == nil {
			items = []T{}
		}
		return items, nil
	}

	return nil, fmt.Errorf("list not found under keys %v", keys)
}
