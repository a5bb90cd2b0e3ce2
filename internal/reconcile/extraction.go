package reconcile

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type extractionEnvelope struct {
	Items []ExtractedItem `json:"items"`
}

// ParseExtraction decodes an extraction response into items. The payload may be a bare
// array or an object with an "items" array. When strict decoding fails, markdown fences
// and surrounding prose are stripped and the payload is decoded once more.
func ParseExtraction(raw []byte) ([]ExtractedItem, error) {
	items, err := decodeItems(raw)
	if err == nil {
		return items, nil
	}
	stripped, ok := stripToJSON(raw)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrExtractionParse, err)
	}
	items, err = decodeItems(stripped)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionParse, err)
	}
	return items, nil
}

func decodeItems(raw []byte) ([]ExtractedItem, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty payload")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	switch raw[0] {
	case '[':
		var items []ExtractedItem
		if err := dec.Decode(&items); err != nil {
			return nil, err
		}
		if dec.More() {
			return nil, fmt.Errorf("trailing data after array")
		}
		return items, nil
	case '{':
		var env extractionEnvelope
		if err := dec.Decode(&env); err != nil {
			return nil, err
		}
		if dec.More() {
			return nil, fmt.Errorf("trailing data after object")
		}
		return env.Items, nil
	default:
		return nil, fmt.Errorf("payload is not a JSON array or object")
	}
}

// stripToJSON drops ``` fences and keeps the span from the first opening bracket
// to the last matching closing bracket.
func stripToJSON(raw []byte) ([]byte, bool) {
	s := bytes.ReplaceAll(raw, []byte("```json"), nil)
	s = bytes.ReplaceAll(s, []byte("```"), nil)
	start := bytes.IndexAny(s, "[{")
	if start < 0 {
		return nil, false
	}
	closing := byte(']')
	if s[start] == '{' {
		closing = '}'
	}
	end := bytes.LastIndexByte(s, closing)
	if end <= start {
		return nil, false
	}
	return s[start : end+1], true
}
