package cryptoanalyst

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const analysisSystemPrompt = `You are a crypto market analyst. Analyze both prices and news together.
Connect news sentiment to price movements. Identify market trends and potential impacts.
Write in clear, natural English without any LaTeX or markdown formatting.
Use plain numbers like 3500 instead of $3,500.
Do not use **bold** or *italic* formatting.
Write in short, clear paragraphs.`

const followUpPromptTemplate = `Based on this conversation context:
Current question: "%s"
Coins discussed: %s

Generate 3-4 short, relevant follow-up questions that a user might ask next.
Return each question on a new line, no numbering or bullets.`

const (
	// maxHistoryTurns bounds how many prior turns are replayed into the prompt.
	maxHistoryTurns = 4
	// maxDigestItems bounds the news digest embedded in the prompt.
	maxDigestItems = 6
	// maxFollowUps bounds the suggested follow-up questions.
	maxFollowUps = 4

	// Net-vote thresholds for the three sentiment buckets.
	sentimentPositiveMin = 2  // label Positive when score is above this
	sentimentNegativeMax = -2 // label Negative when score is below this
)

// sentimentLabel buckets a net vote score into Positive/Negative/Neutral.
func sentimentLabel(score int) string {
	switch {
	case score > sentimentPositiveMin:
		return "Positive"
	case score < sentimentNegativeMax:
		return "Negative"
	default:
		return "Neutral"
	}
}

// formatPriceBlock renders quotes as a bulleted market-data block. Prices
// render with two decimal places, changes with an explicit sign.
func formatPriceBlock(quotes []PriceQuote) string {
	if len(quotes) == 0 {
		return "No price data available\n"
	}
	var sb strings.Builder
	for _, quote := range quotes {
		sb.WriteString(fmt.Sprintf("- %s (%s): %s USD %+.2f%%\n",
			quote.Name,
			quote.Symbol,
			decimal.NewFromFloat(quote.Price).StringFixed(2),
			quote.Change24h,
		))
	}
	return sb.String()
}

// formatNewsDigest renders up to maxDigestItems articles with sanitized
// titles, source, sentiment bucket and currency tags.
func formatNewsDigest(news []NewsItem) string {
	if len(news) == 0 {
		return "No recent news available"
	}
	if len(news) > maxDigestItems {
		news = news[:maxDigestItems]
	}
	var sb strings.Builder
	for i, item := range news {
		currencies := "General"
		if len(item.Currencies) > 0 {
			currencies = strings.Join(item.Currencies, ", ")
		}
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, CleanText(item.Title)))
		sb.WriteString(fmt.Sprintf("   Source: %s | Sentiment: %s | Currencies: %s\n\n",
			item.Source, sentimentLabel(item.Sentiment), currencies))
	}
	return sb.String()
}

// buildAnalysisMessages assembles the completion message list: system prompt,
// up to maxHistoryTurns most recent prior turns, then the composite user
// prompt with market data and the news digest.
func buildAnalysisMessages(question string, quotes []PriceQuote, news []NewsItem, history []ConversationTurn) []ChatMessage {
	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}

	messages := make([]ChatMessage, 0, len(history)+2)
	messages = append(messages, ChatMessage{Role: RoleSystem, Content: analysisSystemPrompt})
	for _, turn := range history {
		role := RoleUser
		if turn.Role == RoleAssistant {
			role = RoleAssistant
		}
		messages = append(messages, ChatMessage{Role: role, Content: turn.Text})
	}

	var sb strings.Builder
	sb.WriteString("USER QUESTION: ")
	sb.WriteString(question)
	sb.WriteString("\n\nMARKET DATA:\n")
	sb.WriteString(formatPriceBlock(quotes))
	sb.WriteString("\nLATEST NEWS & SENTIMENT:\n")
	sb.WriteString(formatNewsDigest(news))
	sb.WriteString("\nANALYSIS REQUEST:\n")
	sb.WriteString("Analyze BOTH the price data and news together.\n")
	sb.WriteString("- Connect news sentiment to price movements\n")
	sb.WriteString("- Identify potential catalysts from the news\n")
	sb.WriteString("- Provide market insights based on both data sources\n")
	sb.WriteString("- Suggest what to watch for based on current trends")

	return append(messages, ChatMessage{Role: RoleUser, Content: sb.String()})
}

// BuildFollowUps suggests up to maxFollowUps follow-up questions for the
// current question and the asset names it surfaced. Returns an empty slice
// when the completion provider is unavailable or fails.
func (c *Core) BuildFollowUps(ctx context.Context, question string, assetNames []string) []string {
	if !c.aiConfigured() {
		return []string{}
	}

	prompt := fmt.Sprintf(followUpPromptTemplate, question, strings.Join(assetNames, ", "))
	result, err := aiChatCompletion(ctx, c.completionRequest([]ChatMessage{
		{Role: RoleUser, Content: prompt},
	}))
	if err != nil {
		c.logger.Warn("follow-up generation failed", "err", err)
		return []string{}
	}

	followUps := make([]string, 0, maxFollowUps)
	for _, line := range strings.Split(result.Content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		followUps = append(followUps, line)
		if len(followUps) == maxFollowUps {
			break
		}
	}
	return followUps
}
