package docstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Snapshot is a point-in-time read of one document.
type Snapshot struct {
	Path       string
	Exists     bool
	Version    int64 // 0 when the document does not exist
	UpdateTime time.Time

	// Data holds the decoded document. Numbers are json.Number so callers
	// can tell integers from floats.
	Data map[string]any

	raw []byte
}

func newSnapshot(path string, raw []byte, version int64, updated time.Time) (*Snapshot, error) {
	s := &Snapshot{Path: path, Version: version, UpdateTime: updated}
	if raw == nil {
		return s, nil
	}
	data, err := decodeObject(raw)
	if err != nil {
		return nil, fmt.Errorf("docstore: decode %s: %w", path, err)
	}
	s.Exists = true
	s.Data = data
	s.raw = raw
	return s, nil
}

func missing(path string) *Snapshot { return &Snapshot{Path: path} }

// DataTo decodes the document into v.
func (s *Snapshot) DataTo(v any) error {
	if !s.Exists {
		return fmt.Errorf("%w: %s", ErrNotFound, s.Path)
	}
	return json.Unmarshal(s.raw, v)
}

// encodeObject marshals data and checks that the result is a JSON object.
func encodeObject(data any) ([]byte, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	if len(b) == 0 || b[0] != '{' {
		return nil, ErrNotObject
	}
	return b, nil
}

func decodeObject(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrNotObject
	}
	return m, nil
}

// merge returns base with fields shallow-merged over it, re-encoded.
func merge(base map[string]any, fields map[string]any) ([]byte, error) {
	out := make(map[string]any, len(base)+len(fields))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range fields {
		out[k] = v
	}
	return json.Marshal(out)
}
