package store

import (
	"encoding/json"
	"fmt"
)

// encodeProperties serializes custom properties for a JSON column.
// A nil map is stored as an empty object.
func encodeProperties(props map[string]any) (string, error) {
	if len(props) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(props)
	if err != nil {
		return "", fmt.Errorf("encode properties: %w", err)
	}
	return string(b), nil
}

func decodeProperties(raw []byte) (map[string]any, error) {
	props := map[string]any{}
	if len(raw) == 0 {
		return props, nil
	}
	if err := json.Unmarshal(raw, &props); err != nil {
		return nil, fmt.Errorf("decode properties: %w", err)
	}
	if props == nil {
		props = map[string]any{}
	}
	return props, nil
}
