package bulk

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/samber/lo"

	"github.com/open-cli-collective/shopify-cli/api"
)

// Payload is the JSONL variables file of a bulk mutation: one JSON object of
// mutation variables per line.
type Payload struct {
	data []byte
}

// TextPayload uses s verbatim as the JSONL content.
func TextPayload(s string) Payload {
	return Payload{data: []byte(s)}
}

// BytesPayload uses b verbatim as the JSONL content.
func BytesPayload(b []byte) Payload {
	return Payload{data: bytes.Clone(b)}
}

// JSONLFromArray converts a JSON array of objects to JSONL: one compact object
// per line, joined by "\n" with no trailing newline.
func JSONLFromArray(array []byte) (Payload, error) {
	trimmed := bytes.TrimSpace(array)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return Payload{}, api.Other("payload must be a JSON array of objects")
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return Payload{}, api.Other("payload must be a JSON array of objects: %s", err)
	}
	return joinObjects(items)
}

// JSONLFromValues encodes each value as one JSONL line. Every value must
// encode to a JSON object.
func JSONLFromValues[T any](values []T) (Payload, error) {
	items := make([]json.RawMessage, 0, len(values))
	for i, v := range values {
		b, err := json.Marshal(v)
		if err != nil {
			return Payload{}, api.Other("payload element %d: %s", i, err)
		}
		items = append(items, b)
	}
	return joinObjects(items)
}

func joinObjects(items []json.RawMessage) (Payload, error) {
	lines := make([][]byte, 0, len(items))
	for i, item := range items {
		trimmed := bytes.TrimSpace(item)
		if len(trimmed) == 0 || trimmed[0] != '{' {
			return Payload{}, api.Other("payload element %d is not a JSON object", i)
		}
		var buf bytes.Buffer
		if err := json.Compact(&buf, trimmed); err != nil {
			return Payload{}, api.Other("payload element %d: %s", i, err)
		}
		lines = append(lines, buf.Bytes())
	}
	return Payload{data: bytes.Join(lines, []byte("\n"))}, nil
}

// Bytes returns the JSONL content.
func (p Payload) Bytes() []byte {
	return p.data
}

// Len returns the content size in bytes.
func (p Payload) Len() int {
	return len(p.data)
}

// Lines returns the number of non-blank lines.
func (p Payload) Lines() int {
	return len(lo.Filter(bytes.Split(p.data, []byte("\n")), func(line []byte, _ int) bool {
		return len(bytes.TrimSpace(line)) > 0
	}))
}

func (p Payload) String() string {
	return fmt.Sprintf("%d lines, %d bytes", p.Lines(), p.Len())
}
