package cryptoanalyst

import (
	"context"
	"encoding/json"
	"strings"
)

const catalogURL = "https://api.coingecko.com/api/v3/coins/list"

type catalogEntry struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// loadAssetCatalog fetches the full CoinGecko identifier list once. The
// catalog is advisory: on any failure an empty map is returned and display
// metadata falls back to derivation from the identifier itself.
func (c *Core) loadAssetCatalog(ctx context.Context) map[string]AssetInfo {
	body, err := c.httpGetLimit(ctx, catalogURL, maxCatalogResponseSize)
	if err != nil {
		c.logger.Warn("asset catalog load failed", "err", err)
		return map[string]AssetInfo{}
	}

	var entries []catalogEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		c.logger.Warn("asset catalog decode failed", "err", err)
		return map[string]AssetInfo{}
	}

	catalog := make(map[string]AssetInfo, len(entries))
	for _, entry := range entries {
		if entry.ID == "" {
			continue
		}
		catalog[entry.ID] = AssetInfo{
			Symbol: strings.ToUpper(entry.Symbol),
			Name:   entry.Name,
		}
	}
	c.logger.Info("asset catalog loaded", "entries", len(catalog))
	return catalog
}

// assetName resolves the display name for an identifier: catalog entry
// first, hyphens-to-spaces title casing otherwise.
func (c *Core) assetName(id string) string {
	if info, ok := c.catalog[id]; ok && info.Name != "" {
		return info.Name
	}
	return deriveAssetName(id)
}

// assetSymbol resolves the ticker for an identifier: catalog entry first,
// first-three-characters derivation otherwise.
func (c *Core) assetSymbol(id string) string {
	if info, ok := c.catalog[id]; ok && info.Symbol != "" {
		return info.Symbol
	}
	return deriveAssetSymbol(id)
}
