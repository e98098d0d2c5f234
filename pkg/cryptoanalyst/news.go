package cryptoanalyst

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
)

const (
	newsServiceURL = "https://cryptopanic.com/api/v1/posts/"

	// DefaultNewsLimit caps the articles returned by one aggregation call.
	DefaultNewsLimit = 10

	// newsEarlyStop ends the strategy cascade once this many unique
	// articles have accumulated.
	newsEarlyStop = 5

	// majorAssetSymbols is the hardcoded pair used by the third strategy
	// when asset-specific feeds come back empty.
	majorAssetSymbols = "BTC,ETH"
)

// newsStrategy is one parameterized attempt in the fallback cascade.
// Strategies run in declaration order, broadest last.
type newsStrategy struct {
	name  string
	query func(symbols string) url.Values
}

var newsStrategies = []newsStrategy{
	{"popular for assets", func(symbols string) url.Values {
		v := url.Values{}
		v.Set("currencies", symbols)
		v.Set("filter", "popular")
		return v
	}},
	{"all for assets", func(symbols string) url.Values {
		v := url.Values{}
		v.Set("currencies", symbols)
		return v
	}},
	{"major assets", func(string) url.Values {
		v := url.Values{}
		v.Set("currencies", majorAssetSymbols)
		return v
	}},
	{"general feed", func(string) url.Values {
		return url.Values{}
	}},
}

type newsResponse struct {
	Results []newsArticle `json:"results"`
}

type newsArticle struct {
	Title      string         `json:"title"`
	Source     newsSource     `json:"source"`
	URL        string         `json:"url"`
	Votes      newsVotes      `json:"votes"`
	Currencies []newsCurrency `json:"currencies"`
}

type newsSource struct {
	Title string `json:"title"`
}

type newsVotes struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
}

type newsCurrency struct {
	Code string `json:"code"`
}

// FetchNews aggregates news for a comma-separated identifier list, walking
// the strategy cascade until enough unique articles accumulate. Titles are
// deduplicated across all strategies, sentiment is positive minus negative
// votes, and the result never exceeds limit. A failing strategy is skipped,
// never fatal.
func (c *Core) FetchNews(ctx context.Context, identifiers string, limit int) []NewsItem {
	if limit <= 0 {
		return []NewsItem{}
	}

	ids := splitIdentifiers(identifiers)
	symbols := make([]string, 0, len(ids))
	for _, id := range ids {
		symbols = append(symbols, c.assetSymbol(id))
	}
	symbolList := strings.Join(symbols, ",")

	items := make([]NewsItem, 0, limit)
	seenTitles := make(map[string]struct{})

	for _, strategy := range newsStrategies {
		if len(items) >= limit {
			break
		}

		articles, err := c.fetchNewsStrategy(ctx, strategy, symbolList, limit)
		if err != nil {
			c.logger.Warn("news strategy failed", "strategy", strategy.name, "err", err)
			continue
		}

		for _, article := range articles {
			if _, dup := seenTitles[article.Title]; dup {
				continue
			}
			seenTitles[article.Title] = struct{}{}
			items = append(items, newsItemFromArticle(article))
		}

		if len(items) >= newsEarlyStop {
			break
		}
	}

	if len(items) > limit {
		items = items[:limit]
	}
	return items
}

func (c *Core) fetchNewsStrategy(ctx context.Context, strategy newsStrategy, symbolList string, limit int) ([]newsArticle, error) {
	params := strategy.query(symbolList)
	params.Set("auth_token", c.newsKey)
	params.Set("kind", "news")
	params.Set("limit", strconv.Itoa(limit))

	body, err := c.httpGet(ctx, newsServiceURL+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var payload newsResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	return payload.Results, nil
}

func newsItemFromArticle(article newsArticle) NewsItem {
	source := article.Source.Title
	if source == "" {
		source = "Unknown"
	}
	currencies := make([]string, 0, len(article.Currencies))
	for _, currency := range article.Currencies {
		currencies = append(currencies, currency.Code)
	}
	return NewsItem{
		Title:      article.Title,
		Source:     source,
		URL:        article.URL,
		Sentiment:  article.Votes.Positive - article.Votes.Negative,
		Currencies: currencies,
	}
}
