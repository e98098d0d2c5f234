package cryptoanalyst

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
)

const (
	priceServiceURL = "https://api.coingecko.com/api/v3/simple/price"
	quoteCurrency   = "usd"
)

type priceEntry struct {
	USD       *float64 `json:"usd"`
	USDChange *float64 `json:"usd_24h_change"`
}

// FetchPrices retrieves spot prices with 24h change for a comma-separated
// identifier list. Fail-soft: any transport or decode failure yields an
// empty slice, never an error. Identifiers the service does not price are
// omitted; the returned quotes follow the request order.
func (c *Core) FetchPrices(ctx context.Context, identifiers string) []PriceQuote {
	ids := splitIdentifiers(identifiers)
	if len(ids) == 0 {
		return []PriceQuote{}
	}

	params := url.Values{}
	params.Set("ids", strings.Join(ids, ","))
	params.Set("vs_currencies", quoteCurrency)
	params.Set("include_24hr_change", "true")

	body, err := c.httpGet(ctx, priceServiceURL+"?"+params.Encode())
	if err != nil {
		c.logger.Warn("price fetch failed", "ids", identifiers, "err", err)
		return []PriceQuote{}
	}

	var payload map[string]priceEntry
	if err := json.Unmarshal(body, &payload); err != nil {
		c.logger.Warn("price response decode failed", "err", err)
		return []PriceQuote{}
	}

	quotes := make([]PriceQuote, 0, len(ids))
	for _, id := range ids {
		entry, ok := payload[id]
		if !ok || entry.USD == nil {
			continue
		}
		change := 0.0
		if entry.USDChange != nil {
			change = *entry.USDChange
		}
		quotes = append(quotes, PriceQuote{
			Name:      c.assetName(id),
			Symbol:    c.assetSymbol(id),
			Price:     *entry.USD,
			Change24h: change,
		})
	}
	return quotes
}
