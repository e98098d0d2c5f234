package cryptoanalyst

import (
	"context"
	"fmt"
)

// configErrorNarrative is returned when no completion credential is set.
const configErrorNarrative = "Please check your API key setup"

// Analyze runs the full aggregation pipeline for one user turn: resolve
// assets, fetch prices and news, assemble the bounded prompt, complete,
// sanitize, and suggest follow-ups. It never returns an error: a missing
// credential or a failed completion becomes the narrative, with all lists
// empty.
func (c *Core) Analyze(ctx context.Context, question string, history []ConversationTurn) AnalysisResult {
	if !c.aiConfigured() {
		return AnalysisResult{
			Narrative: configErrorNarrative,
			Quotes:    []PriceQuote{},
			News:      []NewsItem{},
			FollowUps: []string{},
		}
	}

	identifiers := c.ResolveAssets(ctx, question)
	quotes := c.FetchPrices(ctx, identifiers)
	news := c.FetchNews(ctx, identifiers, DefaultNewsLimit)

	messages := buildAnalysisMessages(question, quotes, news, history)
	result, err := aiChatCompletion(ctx, c.completionRequest(messages))
	if err != nil {
		c.logger.Error("analysis completion failed", "err", err)
		return AnalysisResult{
			Narrative: fmt.Sprintf("Error: %v", err),
			Quotes:    []PriceQuote{},
			News:      []NewsItem{},
			FollowUps: []string{},
		}
	}

	assetNames := make([]string, 0, len(quotes))
	for _, quote := range quotes {
		assetNames = append(assetNames, quote.Name)
	}

	return AnalysisResult{
		Narrative: CleanText(result.Content),
		Quotes:    quotes,
		News:      news,
		FollowUps: c.BuildFollowUps(ctx, question, assetNames),
	}
}
