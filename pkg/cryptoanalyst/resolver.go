package cryptoanalyst

import (
	"context"
	"fmt"
	"strings"
)

// defaultAssetIdentifiers is the fallback pair used whenever resolution is
// unavailable or fails.
const defaultAssetIdentifiers = "bitcoin,ethereum"

const resolvePromptTemplate = `Based on this question: "%s"

Find the most relevant cryptocurrency CoinGecko IDs. Return ONLY comma-separated IDs.

Examples:
"NEAR price" -> "near"
"Polkadot analysis" -> "polkadot"
"Bitcoin and Ethereum" -> "bitcoin,ethereum"
"SOL and ADA" -> "solana,cardano"

Return just the IDs:`

// ResolveAssets maps a free-text question to a comma-separated CoinGecko
// identifier list via one completion call. Total: on missing credentials,
// completion failure, or an empty answer it returns the default pair.
func (c *Core) ResolveAssets(ctx context.Context, question string) string {
	if !c.aiConfigured() {
		return defaultAssetIdentifiers
	}

	result, err := aiChatCompletion(ctx, c.completionRequest([]ChatMessage{
		{Role: RoleUser, Content: fmt.Sprintf(resolvePromptTemplate, question)},
	}))
	if err != nil {
		c.logger.Warn("asset resolution failed, using defaults", "err", err)
		return defaultAssetIdentifiers
	}

	identifiers := strings.ToLower(strings.TrimSpace(result.Content))
	if identifiers == "" {
		return defaultAssetIdentifiers
	}
	return identifiers
}
