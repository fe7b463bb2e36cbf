// Package execctx implements a bounded execution context for LLM
// requests: ordered inputs with relevance scores, constraints, routing
// hints, and output shaping rules, plus pruning, routing, execution, and
// a lossless cross-runtime snapshot format.
package execctx

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Well-known constraint keys.
const (
	ConstraintMaxTokens = "max_tokens"
	ConstraintMaxTime   = "max_time"
	ConstraintMaxCost   = "max_cost"
)

// Context is the execution-shaping aggregate. It owns its input sequence
// and map fields exclusively; Extend and Merge copy collections rather
// than sharing them. ID and CreatedAt never change after construction.
//
// Context is not safe for concurrent mutation; callers that share one
// instance across goroutines must synchronize.
type Context struct {
	ID          string
	Intent      string
	Category    string
	Inputs      []Input
	Constraints map[string]any
	Routing     map[string]any
	Output      map[string]any
	Metadata    map[string]any
	ParentID    string
	CreatedAt   time.Time
}

// Option customizes a Context at construction or extension time.
type Option func(*Context)

// WithIntent overrides the intent. Mostly useful with Extend, where the
// child inherits the parent's intent by default.
func WithIntent(intent string) Option {
	return func(c *Context) { c.Intent = intent }
}

// WithCategory sets the optional category.
func WithCategory(category string) Option {
	return func(c *Context) { c.Category = category }
}

// WithConstraints sets hard limits (max_tokens, max_time, max_cost).
func WithConstraints(constraints map[string]any) Option {
	return func(c *Context) { c.Constraints = copyMap(constraints) }
}

// WithRouting sets routing hints (model, provider, strategy, temperature).
func WithRouting(routing map[string]any) Option {
	return func(c *Context) { c.Routing = copyMap(routing) }
}

// WithOutput sets output shaping rules (format, schema).
func WithOutput(output map[string]any) Option {
	return func(c *Context) { c.Output = copyMap(output) }
}

// WithMetadata sets arbitrary metadata.
func WithMetadata(metadata map[string]any) Option {
	return func(c *Context) { c.Metadata = copyMap(metadata) }
}

// New creates a Context with a fresh ID and creation timestamp.
func New(intent string, opts ...Option) *Context {
	c := &Context{
		ID:          uuid.NewString(),
		Intent:      intent,
		Inputs:      []Input{},
		Constraints: map[string]any{},
		Routing:     map[string]any{},
		Output:      map[string]any{},
		Metadata:    map[string]any{},
		CreatedAt:   time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddInput appends an input with an estimated token cost and returns the
// same context for chaining.
func (c *Context) AddInput(data any, relevance float64) *Context {
	c.Inputs = append(c.Inputs, NewInput(data, relevance))
	return c
}

// AddInputTokens appends an input with an explicit token cost.
func (c *Context) AddInputTokens(data any, relevance float64, tokens int) *Context {
	c.Inputs = append(c.Inputs, NewInputTokens(data, relevance, tokens))
	return c
}

// Prune replaces the input sequence with the selection that fits the
// given bounds. Pass NoLimit as maxTokens to fall back to the max_tokens
// constraint (unbounded when that is unset too). After pruning, input
// order is relevance-descending rather than insertion order.
func (c *Context) Prune(maxTokens int, relevanceThreshold float64) *Context {
	if maxTokens < 0 {
		maxTokens = c.maxTokensConstraint()
	}
	c.Inputs = SelectInputs(c.Inputs, maxTokens, relevanceThreshold)
	return c
}

// Route resolves routing hints against the model registry and merges the
// result over the current routing. Empty arguments are treated as unset.
func (c *Context) Route(model, provider, strategy string) *Context {
	resolved := ResolveRouting(c.Routing, model, provider, strategy)
	for k, v := range resolved {
		c.Routing[k] = v
	}
	return c
}

// Extend creates a child context linked to this one via ParentID. The
// child inherits intent, category, constraints, routing, output, metadata,
// and inputs; options override the inherited values. Collections are
// copied, so mutating the child never touches the parent. The Data payload
// inside each copied Input is shared by reference, not deep-cloned — a
// deliberate performance tradeoff.
func (c *Context) Extend(opts ...Option) *Context {
	child := &Context{
		ID:          uuid.NewString(),
		Intent:      c.Intent,
		Category:    c.Category,
		Inputs:      append([]Input(nil), c.Inputs...),
		Constraints: copyMap(c.Constraints),
		Routing:     copyMap(c.Routing),
		Output:      copyMap(c.Output),
		Metadata:    copyMap(c.Metadata),
		ParentID:    c.ID,
		CreatedAt:   time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(child)
	}
	return child
}

// Merge combines this context with another into a new one. Inputs are
// concatenated with this context's first. The max_tokens constraint
// resolves to the more restrictive of the two; routing and metadata from
// other win on key conflicts. Neither source context is mutated.
func (c *Context) Merge(other *Context) *Context {
	merged := &Context{
		ID:          uuid.NewString(),
		Intent:      c.Intent,
		Category:    c.Category,
		Inputs:      make([]Input, 0, len(c.Inputs)+len(other.Inputs)),
		Constraints: copyMap(c.Constraints),
		Routing:     copyMap(c.Routing),
		Output:      copyMap(c.Output),
		Metadata:    copyMap(c.Metadata),
		CreatedAt:   time.Now().UTC(),
	}
	merged.Inputs = append(merged.Inputs, c.Inputs...)
	merged.Inputs = append(merged.Inputs, other.Inputs...)

	if otherMax, ok := numericConstraint(other.Constraints, ConstraintMaxTokens); ok {
		if selfMax, ok := numericConstraint(merged.Constraints, ConstraintMaxTokens); ok {
			if otherMax < selfMax {
				merged.Constraints[ConstraintMaxTokens] = otherMax
			}
		} else {
			merged.Constraints[ConstraintMaxTokens] = otherMax
		}
	}

	for k, v := range other.Routing {
		merged.Routing[k] = v
	}
	for k, v := range other.Metadata {
		merged.Metadata[k] = v
	}

	return merged
}

// TotalTokens returns the token sum over the current inputs.
func (c *Context) TotalTokens() int {
	total := 0
	for _, in := range c.Inputs {
		total += in.Tokens
	}
	return total
}

// Execute runs a task against this context using the default stub
// adapter. Use an Executor directly to plug in a live provider adapter.
func (c *Context) Execute(ctx context.Context, req Request) (*Response, error) {
	return NewExecutor(StubAdapter{}, nil).Execute(ctx, c, req)
}

func (c *Context) maxTokensConstraint() int {
	if v, ok := numericConstraint(c.Constraints, ConstraintMaxTokens); ok {
		return v
	}
	return NoLimit
}

// numericConstraint reads an integer constraint that may have been decoded
// from JSON as float64.
func numericConstraint(m map[string]any, key string) (int, bool) {
	switch v := m[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
