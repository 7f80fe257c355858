package input

import (
	"encoding/base64"
	"fmt"

	"github.com/goccy/go-json"
)

// Snapshot is a serializable copy of a model's input and errors, used to
// redisplay a failed submission after a redirect.
type Snapshot struct {
	Input  map[string]any    `json:"input,omitempty"`
	Errors map[string]string `json:"errors,omitempty"`
}

// Snapshot copies the input and errors visible through this view.
func (m *Model) Snapshot() Snapshot {
	snap := Snapshot{Input: m.Values()}
	if errs := m.Errors(); len(errs) > 0 {
		snap.Errors = errs
	}
	return snap
}

// Restore rebuilds a root model from the snapshot.
func (s Snapshot) Restore() (*Model, error) {
	return Create(s.Input, s.Errors)
}

// Encode serializes the snapshot into a URL safe string.
func (s Snapshot) Encode() (string, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("input: encode snapshot: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// DecodeSnapshot parses a string produced by Snapshot.Encode.
func DecodeSnapshot(encoded string) (Snapshot, error) {
	var snap Snapshot
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return snap, fmt.Errorf("input: decode snapshot: %w", err)
	}
	if err := json.Unmarshal(raw, &snap); err != nil {
		return snap, fmt.Errorf("input: decode snapshot: %w", err)
	}
	return snap, nil
}
