// Package execctx – snapshot.go implements the lossless JSON snapshot
// format used to transfer a context between runtimes. Both runtime
// implementations must agree bit-for-bit on the canonical form; any field
// added here must land in the other runtime at the same time.
package execctx

import (
	"encoding/json"
	"time"

	"github.com/gowebpki/jcs"
)

// InputSnapshot is the wire form of one Input.
type InputSnapshot struct {
	Data      any     `json:"data"`
	Relevance float64 `json:"relevance"`
	Tokens    *int    `json:"tokens"`
}

// ContextSnapshot is the wire form of a Context. Category and parentId
// are omitted when empty; createdAt is an ISO-8601 (RFC 3339) string.
type ContextSnapshot struct {
	ID          string          `json:"id"`
	Intent      string          `json:"intent"`
	Category    string          `json:"category,omitempty"`
	Inputs      []InputSnapshot `json:"inputs"`
	Constraints map[string]any  `json:"constraints"`
	Routing     map[string]any  `json:"routing"`
	Output      map[string]any  `json:"output"`
	Metadata    map[string]any  `json:"metadata"`
	ParentID    string          `json:"parentId,omitempty"`
	CreatedAt   string          `json:"createdAt"`
}

// Snapshot captures every field of the context, including its ID and
// creation time, so FromSnapshot(c.Snapshot()) is structurally equal to c.
func (c *Context) Snapshot() ContextSnapshot {
	inputs := make([]InputSnapshot, len(c.Inputs))
	for i, in := range c.Inputs {
		tokens := in.Tokens
		inputs[i] = InputSnapshot{Data: in.Data, Relevance: in.Relevance, Tokens: &tokens}
	}
	return ContextSnapshot{
		ID:          c.ID,
		Intent:      c.Intent,
		Category:    c.Category,
		Inputs:      inputs,
		Constraints: copyMap(c.Constraints),
		Routing:     copyMap(c.Routing),
		Output:      copyMap(c.Output),
		Metadata:    copyMap(c.Metadata),
		ParentID:    c.ParentID,
		CreatedAt:   c.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// EncodeJSON serializes the context's snapshot as indented JSON.
func (c *Context) EncodeJSON() ([]byte, error) {
	return json.MarshalIndent(c.Snapshot(), "", "  ")
}

// EncodeCanonical serializes the snapshot in RFC 8785 canonical form, the
// representation both runtimes must reproduce byte-for-byte.
func (c *Context) EncodeCanonical() ([]byte, error) {
	raw, err := json.Marshal(c.Snapshot())
	if err != nil {
		return nil, &SnapshotError{Reason: "encoding snapshot", Cause: err}
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return nil, &SnapshotError{Reason: "canonicalizing snapshot", Cause: err}
	}
	return canonical, nil
}

// FromSnapshot reconstructs a context. The ID and creation time come from
// the snapshot and are never regenerated. Inputs without a token count
// get one estimated from their data.
func FromSnapshot(s ContextSnapshot) (*Context, error) {
	if s.ID == "" {
		return nil, &SnapshotError{Reason: "missing id"}
	}
	if s.Intent == "" {
		return nil, &SnapshotError{Reason: "missing intent"}
	}

	createdAt := time.Now().UTC()
	if s.CreatedAt != "" {
		t, err := time.Parse(time.RFC3339Nano, s.CreatedAt)
		if err != nil {
			return nil, &SnapshotError{Reason: "parsing createdAt", Cause: err}
		}
		createdAt = t
	}

	inputs := make([]Input, len(s.Inputs))
	for i, in := range s.Inputs {
		if in.Tokens != nil {
			inputs[i] = NewInputTokens(in.Data, in.Relevance, *in.Tokens)
		} else {
			inputs[i] = NewInput(in.Data, in.Relevance)
		}
	}

	return &Context{
		ID:          s.ID,
		Intent:      s.Intent,
		Category:    s.Category,
		Inputs:      inputs,
		Constraints: copyMap(s.Constraints),
		Routing:     copyMap(s.Routing),
		Output:      copyMap(s.Output),
		Metadata:    copyMap(s.Metadata),
		ParentID:    s.ParentID,
		CreatedAt:   createdAt,
	}, nil
}

// DecodeJSON reconstructs a context from snapshot JSON bytes.
func DecodeJSON(data []byte) (*Context, error) {
	var s ContextSnapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, &SnapshotError{Reason: "parsing snapshot JSON", Cause: err}
	}
	return FromSnapshot(s)
}
