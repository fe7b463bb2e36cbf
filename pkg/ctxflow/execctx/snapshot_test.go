package execctx

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func sampleContext() *Context {
	c := New("classify",
		WithCategory("metadata"),
		WithConstraints(map[string]any{ConstraintMaxTokens: 1000}),
		WithRouting(map[string]any{"model": "gpt-4", "provider": "openai"}),
		WithOutput(map[string]any{"format": "json"}),
		WithMetadata(map[string]any{"source": "unit"}))
	c.AddInput("Test data", 0.9)
	c.AddInput(map[string]any{"nested": []any{1.0, "two", true, nil}}, 0.4)
	return c
}

func TestSnapshotRoundTrip(t *testing.T) {
	c := sampleContext()
	c.ParentID = "parent-123"

	data, err := c.EncodeJSON()
	if err != nil {
		t.Fatalf("EncodeJSON: %v", err)
	}

	got, err := DecodeJSON(data)
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}

	if got.ID != c.ID {
		t.Errorf("id = %q, want %q (never regenerated)", got.ID, c.ID)
	}
	if got.Intent != c.Intent || got.Category != c.Category {
		t.Errorf("intent/category = %q/%q, want %q/%q", got.Intent, got.Category, c.Intent, c.Category)
	}
	if got.ParentID != c.ParentID {
		t.Errorf("parentId = %q, want %q", got.ParentID, c.ParentID)
	}
	if !got.CreatedAt.Equal(c.CreatedAt) {
		t.Errorf("createdAt = %v, want %v", got.CreatedAt, c.CreatedAt)
	}
	if len(got.Inputs) != len(c.Inputs) {
		t.Fatalf("inputs = %d, want %d", len(got.Inputs), len(c.Inputs))
	}
	for i := range c.Inputs {
		if got.Inputs[i].Relevance != c.Inputs[i].Relevance {
			t.Errorf("input[%d] relevance = %v, want %v", i, got.Inputs[i].Relevance, c.Inputs[i].Relevance)
		}
		if got.Inputs[i].Tokens != c.Inputs[i].Tokens {
			t.Errorf("input[%d] tokens = %v, want %v", i, got.Inputs[i].Tokens, c.Inputs[i].Tokens)
		}
	}
	if got.Inputs[0].Data != "Test data" {
		t.Errorf("input[0] data = %v", got.Inputs[0].Data)
	}

	// JSON numbers decode as float64; compare through a JSON round-trip
	// of the original to get structural equality.
	for _, pair := range []struct {
		name string
		a, b map[string]any
	}{
		{"constraints", jsonNormalize(t, c.Constraints), got.Constraints},
		{"routing", jsonNormalize(t, c.Routing), got.Routing},
		{"output", jsonNormalize(t, c.Output), got.Output},
		{"metadata", jsonNormalize(t, c.Metadata), got.Metadata},
	} {
		if !reflect.DeepEqual(pair.a, pair.b) {
			t.Errorf("%s = %v, want %v", pair.name, pair.b, pair.a)
		}
	}
}

func jsonNormalize(t *testing.T, m map[string]any) map[string]any {
	t.Helper()
	raw, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return out
}

func TestSnapshotOmitsEmptyOptionalFields(t *testing.T) {
	c := New("analyze")

	data, err := c.EncodeJSON()
	if err != nil {
		t.Fatalf("EncodeJSON: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := raw["category"]; ok {
		t.Error("empty category must be omitted from the wire form")
	}
	if _, ok := raw["parentId"]; ok {
		t.Error("empty parentId must be omitted from the wire form")
	}
	for _, key := range []string{"id", "intent", "inputs", "constraints", "routing", "output", "metadata", "createdAt"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("wire form missing required field %q", key)
		}
	}
}

func TestEncodeCanonicalIsStable(t *testing.T) {
	c := sampleContext()

	first, err := c.EncodeCanonical()
	if err != nil {
		t.Fatalf("EncodeCanonical: %v", err)
	}
	second, err := c.EncodeCanonical()
	if err != nil {
		t.Fatalf("EncodeCanonical: %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Error("canonical encoding must be byte-for-byte reproducible")
	}

	// A context reconstructed from the snapshot must canonicalize to the
	// same bytes — the cross-runtime agreement property.
	restored, err := DecodeJSON(first)
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	third, err := restored.EncodeCanonical()
	if err != nil {
		t.Fatalf("EncodeCanonical(restored): %v", err)
	}
	if !bytes.Equal(first, third) {
		t.Errorf("canonical form changed across a round-trip:\n%s\n%s", first, third)
	}
}

func TestFromSnapshotEstimatesMissingTokens(t *testing.T) {
	payload := []byte(`{
		"id": "ctx-1",
		"intent": "analyze",
		"inputs": [{"data": "aaaaaaaa", "relevance": 0.5}],
		"constraints": {},
		"routing": {},
		"output": {},
		"metadata": {},
		"createdAt": "2026-01-15T10:30:00Z"
	}`)

	c, err := DecodeJSON(payload)
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}

	if c.Inputs[0].Tokens != 2 {
		t.Errorf("tokens = %d, want estimated 2", c.Inputs[0].Tokens)
	}
}

func TestFromSnapshotValidation(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"missing id", `{"intent": "analyze"}`},
		{"missing intent", `{"id": "ctx-1"}`},
		{"bad createdAt", `{"id": "ctx-1", "intent": "analyze", "createdAt": "yesterday"}`},
		{"not JSON", `{{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeJSON([]byte(tt.payload))
			if err == nil {
				t.Fatal("want error for malformed snapshot")
			}
			var snapErr *SnapshotError
			if !errors.As(err, &snapErr) {
				t.Errorf("error type = %T, want *SnapshotError", err)
			}
		})
	}
}

func TestFromSnapshotParsesOffsetTimestamps(t *testing.T) {
	payload := []byte(`{
		"id": "ctx-1",
		"intent": "analyze",
		"inputs": [],
		"constraints": {},
		"routing": {},
		"output": {},
		"metadata": {},
		"createdAt": "2026-01-15T12:30:00+02:00"
	}`)

	c, err := DecodeJSON(payload)
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}

	if got := c.CreatedAt.UTC().Hour(); got != 10 {
		t.Errorf("createdAt hour (UTC) = %d, want 10", got)
	}
}
