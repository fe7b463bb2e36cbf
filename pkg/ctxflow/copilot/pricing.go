// Package copilot – pricing.go converts USD budgets to token limits and
// token usage back to USD cost.
package copilot

import "github.com/jholhewres/ctxflow/pkg/ctxflow/execctx"

// FallbackPricingModel is used for models missing from the pricing table.
const FallbackPricingModel = "gpt-4o-mini"

// ModelPricing holds per-token USD prices.
type ModelPricing struct {
	Input  float64
	Output float64
}

// modelPricing is the copilot pricing table (USD per token).
var modelPricing = map[string]ModelPricing{
	"gpt-4o-mini": {Input: 0.00000015, Output: 0.0000006}, // $0.15 / $0.60 per 1M
	"gpt-4o":      {Input: 0.0000025, Output: 0.00001},    // $2.50 / $10.00 per 1M
	"gpt-4":       {Input: 0.00003, Output: 0.00006},      // $30 / $60 per 1M
}

func pricingFor(model string) ModelPricing {
	if p, ok := modelPricing[model]; ok {
		return p
	}
	return modelPricing[FallbackPricingModel]
}

// BudgetToMaxTokens converts a USD budget to an approximate completion
// token limit with a 20% safety margin, assuming a 30/70 input/output
// split. Never returns less than 1 token.
func BudgetToMaxTokens(budgetUSD float64, model string) int {
	pricing := pricingFor(model)
	avgPricePerToken := 0.3*pricing.Input + 0.7*pricing.Output

	maxTokens := int((budgetUSD * 0.8) / avgPricePerToken)
	if maxTokens < 1 {
		return 1
	}
	return maxTokens
}

// CalculateCost converts reported token usage to USD.
func CalculateCost(usage execctx.Usage, model string) float64 {
	pricing := pricingFor(model)
	return float64(usage.PromptTokens)*pricing.Input + float64(usage.CompletionTokens)*pricing.Output
}
