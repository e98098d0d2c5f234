package cryptoanalyst

// Conversation roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// AssetInfo holds the display metadata for one catalog entry.
type AssetInfo struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// PriceQuote is one priced asset as returned by the market data service.
type PriceQuote struct {
	Name      string  `json:"name"`
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Change24h float64 `json:"change_24h"`
}

// NewsItem is one aggregated news article with its net sentiment score
// (positive votes minus negative votes).
type NewsItem struct {
	Title      string   `json:"title"`
	Source     string   `json:"source"`
	URL        string   `json:"url"`
	Sentiment  int      `json:"sentiment"`
	Currencies []string `json:"currencies"`
}

// ConversationTurn is one prior exchange supplied as analysis context.
type ConversationTurn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// AnalysisResult is the composite output of one Analyze call.
type AnalysisResult struct {
	Narrative string       `json:"narrative"`
	Quotes    []PriceQuote `json:"quotes"`
	News      []NewsItem   `json:"news"`
	FollowUps []string     `json:"follow_ups"`
}

// StoredMessage is one persisted chat message together with the market
// data that was attached to it.
type StoredMessage struct {
	Role    string       `json:"role"`
	Content string       `json:"content"`
	Quotes  []PriceQuote `json:"quotes,omitempty"`
	News    []NewsItem   `json:"news,omitempty"`
}

// ChatSessionSummary identifies one saved chat session.
type ChatSessionSummary struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}
