package sources

import (
	"context"
	"encoding/json"
	"io"
)

// FetchGDP returns the most recent GDP value (current US dollars) reported for
// an ISO alpha-2 country. Countries with no reported value return ErrNoData.
func FetchGDP(ctx context.Context, iso string) (float64, error) {
	// The indicator endpoint answers a two-element array: request metadata,
	// then the data points.
	var payload []json.RawMessage
	err := getJSON(ctx, WorldBankURL+iso+WorldBankGDPIndicator, func(r io.Reader) error {
		return json.NewDecoder(r).Decode(&payload)
	})
	if err != nil {
		return 0, err
	}
	if len(payload) < 2 {
		return 0, ErrNoData
	}

	var points []struct {
		Value *float64 `json:"value"`
	}
	if err := json.Unmarshal(payload[1], &points); err != nil {
		return 0, ErrNoData
	}
	for _, p := range points {
		if p.Value != nil {
			return *p.Value, nil
		}
	}
	return 0, ErrNoData
}
