// Package execctx – pruner.go implements input selection: filtering by
// relevance and fitting the remainder into a token budget.
package execctx

import "sort"

// NoLimit disables the token budget when passed as maxTokens.
const NoLimit = -1

// truncationFloor is the minimum remaining budget for which a partial
// textual input is still worth keeping.
const truncationFloor = 100

// SelectInputs reduces an ordered input sequence to fit the given bounds.
//
// Inputs below relevanceThreshold are dropped, the rest are sorted by
// relevance descending (equal scores keep their original relative order),
// and, when maxTokens >= 0, accumulated greedily until the budget is hit.
// The first input that does not fit gets one truncation attempt: if its
// data is a string and more than 100 tokens of budget remain, a new Input
// is synthesized from the truncated text. Selection stops there either
// way; later inputs are never considered even if they would fit.
func SelectInputs(inputs []Input, maxTokens int, relevanceThreshold float64) []Input {
	filtered := make([]Input, 0, len(inputs))
	for _, in := range inputs {
		if in.Relevance >= relevanceThreshold {
			filtered = append(filtered, in)
		}
	}

	// SliceStable keeps insertion order on equal relevance. That
	// tie-break is part of the contract, not an implementation detail.
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Relevance > filtered[j].Relevance
	})

	if maxTokens < 0 {
		return filtered
	}

	selected := make([]Input, 0, len(filtered))
	total := 0
	for _, in := range filtered {
		if total+in.Tokens <= maxTokens {
			selected = append(selected, in)
			total += in.Tokens
			continue
		}

		// One-shot truncation of the first input that does not fit.
		// The cut is measured in characters, not bytes, so multibyte
		// text stays valid UTF-8 and snapshots stay lossless.
		if text, ok := in.Data.(string); ok {
			remaining := maxTokens - total
			if remaining > truncationFloor {
				runes := []rune(text)
				keep := remaining * 4
				if keep > len(runes) {
					keep = len(runes)
				}
				selected = append(selected, Input{
					Data:      string(runes[:keep]),
					Relevance: in.Relevance,
					Tokens:    remaining,
				})
			}
		}
		break
	}

	return selected
}
