// Package execctx – router.go implements model/provider routing against a
// static table of model capability and cost facts.
package execctx

// Default model and provider used when routing leaves them unset.
const (
	DefaultModel    = "gpt-3.5-turbo"
	DefaultProvider = "openai"
)

// Routing strategies accepted by ResolveRouting. Any other value falls
// back to DefaultModel.
const (
	StrategyCostOptimized    = "cost_optimized"
	StrategyQualityOptimized = "quality_optimized"
	StrategySpeedOptimized   = "speed_optimized"
)

// ModelSpec holds capability and cost facts for one model.
type ModelSpec struct {
	Provider        string  `json:"provider"`
	MaxTokens       int     `json:"maxTokens"`
	CostPer1KInput  float64 `json:"costPer1kInput"`
	CostPer1KOutput float64 `json:"costPer1kOutput"`
	Quality         float64 `json:"quality"`
	Speed           float64 `json:"speed"`
}

type modelEntry struct {
	name string
	spec ModelSpec
}

// modelTable is process-wide read-only state. The slice keeps registry
// insertion order, which breaks strategy ties (first entry wins).
var modelTable = []modelEntry{
	{"gpt-4", ModelSpec{Provider: "openai", MaxTokens: 8192, CostPer1KInput: 0.03, CostPer1KOutput: 0.06, Quality: 0.95, Speed: 0.6}},
	{"gpt-3.5-turbo", ModelSpec{Provider: "openai", MaxTokens: 4096, CostPer1KInput: 0.0015, CostPer1KOutput: 0.002, Quality: 0.75, Speed: 0.9}},
	{"claude-3-opus", ModelSpec{Provider: "anthropic", MaxTokens: 4096, CostPer1KInput: 0.015, CostPer1KOutput: 0.075, Quality: 0.95, Speed: 0.7}},
	{"claude-3-sonnet", ModelSpec{Provider: "anthropic", MaxTokens: 4096, CostPer1KInput: 0.003, CostPer1KOutput: 0.015, Quality: 0.85, Speed: 0.85}},
}

// ModelSpecFor looks up the registry entry for a model. The second return
// value reports whether the model is known; an unknown model is not an
// error by contract.
func ModelSpecFor(model string) (ModelSpec, bool) {
	for _, e := range modelTable {
		if e.name == model {
			return e.spec, true
		}
	}
	return ModelSpec{}, false
}

// Models returns all registered model names in registry order.
func Models() []string {
	names := make([]string, len(modelTable))
	for i, e := range modelTable {
		names[i] = e.name
	}
	return names
}

// ResolveRouting applies model, provider, and strategy hints to a copy of
// the current routing map.
//
// Precedence: an explicit model wins and pulls in its registry provider;
// an explicit provider then overrides unconditionally; a strategy only
// applies when no model is set after the first two steps. Untouched keys
// pass through unchanged.
func ResolveRouting(current map[string]any, model, provider, strategy string) map[string]any {
	routing := make(map[string]any, len(current)+2)
	for k, v := range current {
		routing[k] = v
	}

	if model != "" {
		routing["model"] = model
		if spec, ok := ModelSpecFor(model); ok {
			routing["provider"] = spec.Provider
		}
	}

	if provider != "" {
		routing["provider"] = provider
	}

	if strategy != "" {
		if _, ok := routing["model"]; !ok {
			selected := selectByStrategy(strategy)
			routing["model"] = selected
			if spec, ok := ModelSpecFor(selected); ok {
				routing["provider"] = spec.Provider
			}
		}
	}

	return routing
}

func selectByStrategy(strategy string) string {
	switch strategy {
	case StrategyCostOptimized:
		return bestModel(func(a, b ModelSpec) bool { return a.CostPer1KInput < b.CostPer1KInput })
	case StrategyQualityOptimized:
		return bestModel(func(a, b ModelSpec) bool { return a.Quality > b.Quality })
	case StrategySpeedOptimized:
		return bestModel(func(a, b ModelSpec) bool { return a.Speed > b.Speed })
	default:
		return DefaultModel
	}
}

// bestModel scans the table in registry order; strict comparison keeps the
// earliest entry on ties.
func bestModel(better func(a, b ModelSpec) bool) string {
	best := modelTable[0]
	for _, e := range modelTable[1:] {
		if better(e.spec, best.spec) {
			best = e
		}
	}
	return best.name
}
