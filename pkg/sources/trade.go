package sources

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// TradePartner is one edge of the bilateral trade dataset. Volume is in
// billions of US dollars.
type TradePartner struct {
	ISO    string  `json:"iso"`
	Name   string  `json:"name"`
	Volume float64 `json:"volume"`
}

// LoadTradePartners reads the bundled trade dataset and returns the partner
// lists keyed by upper-case ISO alpha-2 of the reporting country.
func LoadTradePartners(path string) (map[string][]TradePartner, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string][]TradePartner
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding trade dataset %s: %w", path, err)
	}

	out := make(map[string][]TradePartner, len(raw))
	for iso, partners := range raw {
		out[strings.ToUpper(iso)] = partners
	}
	return out, nil
}
