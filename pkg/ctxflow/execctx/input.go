// Package execctx – input.go defines the Input value type: one unit of
// data with its relevance score and token cost.
package execctx

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// Input is a single context input. Immutable once constructed; pruning
// synthesizes new Inputs instead of mutating existing ones.
type Input struct {
	// Data is any JSON-serializable value: string, number, bool, nil,
	// []any, or map[string]any.
	Data any

	// Relevance is the caller-supplied priority score, conventionally
	// 0.0–1.0 (not enforced). Higher scores survive pruning longer.
	Relevance float64

	// Tokens is the non-negative token cost of this input.
	Tokens int
}

// NewInput creates an Input with the token cost estimated from the data.
func NewInput(data any, relevance float64) Input {
	return Input{
		Data:      data,
		Relevance: relevance,
		Tokens:    EstimateTokens(data),
	}
}

// NewInputTokens creates an Input with an explicit token cost.
// A negative count falls back to estimation.
func NewInputTokens(data any, relevance float64, tokens int) Input {
	if tokens < 0 {
		tokens = EstimateTokens(data)
	}
	return Input{Data: data, Relevance: relevance, Tokens: tokens}
}

// EstimateTokens derives a token cost from data using the 4-chars-per-token
// heuristic, rounding up: strings use their character length, everything
// else the character length of its JSON serialization. Lengths count
// characters, not bytes, so multibyte text estimates the same in every
// runtime.
func EstimateTokens(data any) int {
	var n int
	switch v := data.(type) {
	case string:
		n = utf8.RuneCountInString(v)
	default:
		b, err := json.Marshal(data)
		if err != nil {
			n = utf8.RuneCountInString(fmt.Sprint(data))
		} else {
			n = utf8.RuneCount(b)
		}
	}
	return (n + 3) / 4
}

// renderData converts an input payload to its prompt text form: strings
// verbatim, everything else through the canonical JSON string form so both
// runtimes produce the same prompt.
func renderData(data any) string {
	if s, ok := data.(string); ok {
		return s
	}
	b, err := json.Marshal(data)
	if err != nil {
		return fmt.Sprint(data)
	}
	return string(b)
}
