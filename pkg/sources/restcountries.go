package sources

import (
	"context"
	"encoding/json"
	"errors"
	"io"
)

var ErrNoData = errors.New("no data for country")

// CountryProfile is the demographic record keyed by ISO alpha-2.
type CountryProfile struct {
	Capital    string
	Population int64
	Currency   string
}

// FetchCountryProfile queries the demographic source for one country.
// Fields the source does not answer stay zero-valued; the caller applies its
// own fallbacks.
func FetchCountryProfile(ctx context.Context, iso string) (*CountryProfile, error) {
	var payload []struct {
		Capital    []string `json:"capital"`
		Population int64    `json:"population"`
		Currencies map[string]struct {
			Name string `json:"name"`
		} `json:"currencies"`
	}
	err := getJSON(ctx, RestCountriesURL+iso, func(r io.Reader) error {
		return json.NewDecoder(r).Decode(&payload)
	})
	if err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return nil, ErrNoData
	}

	p := &CountryProfile{Population: payload[0].Population}
	if len(payload[0].Capital) > 0 {
		p.Capital = payload[0].Capital[0]
	}
	for _, cur := range payload[0].Currencies {
		p.Currency = cur.Name
		break
	}
	return p, nil
}
