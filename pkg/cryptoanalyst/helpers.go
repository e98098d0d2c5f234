package cryptoanalyst

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode"
)

const (
	// maxResponseSize limits external API responses to 1MB to prevent memory exhaustion.
	maxResponseSize = 1 << 20 // 1MB

	// maxCatalogResponseSize is the cap for the full coins/list download,
	// which runs to several megabytes (~17k entries).
	maxCatalogResponseSize = 16 << 20 // 16MB
)

func (c *Core) httpGet(ctx context.Context, url string) ([]byte, error) {
	return c.httpGetLimit(ctx, url, maxResponseSize)
}

func (c *Core) httpGetLimit(ctx context.Context, url string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("http status %d", resp.StatusCode)
	}
	// Limit response size to prevent memory exhaustion from malicious/buggy external APIs
	return io.ReadAll(io.LimitReader(resp.Body, limit))
}

// splitIdentifiers normalizes a comma-separated identifier list: trimmed,
// lower-cased, empty entries dropped.
func splitIdentifiers(identifiers string) []string {
	parts := strings.Split(identifiers, ",")
	ids := make([]string, 0, len(parts))
	for _, part := range parts {
		id := strings.ToLower(strings.TrimSpace(part))
		if id == "" {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// deriveAssetName turns an identifier like "wrapped-bitcoin" into
// "Wrapped Bitcoin". Used when the catalog has no entry for the id.
func deriveAssetName(id string) string {
	words := strings.Fields(strings.ReplaceAll(id, "-", " "))
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// deriveAssetSymbol is the last-resort ticker guess: the first three
// characters of the identifier, upper-cased.
func deriveAssetSymbol(id string) string {
	runes := []rune(id)
	if len(runes) > 3 {
		runes = runes[:3]
	}
	return strings.ToUpper(string(runes))
}
