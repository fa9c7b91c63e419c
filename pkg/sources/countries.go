// Package sources holds the clients for every external data interface the
// engine consumes: country polygons, demographics, economic indicators, news,
// the seismic feed and the static trade-partner dataset.
package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"

	geojson "github.com/paulmach/go.geojson"

	"github.com/sudorandom/intel-globe/pkg/utils"
)

// FetchCountryPolygons downloads the country polygon dataset, using the local
// cache when cacheDir is non-empty. The dataset is fetched exactly once per
// process; callers own retry policy.
func FetchCountryPolygons(ctx context.Context, cacheDir string) (*geojson.FeatureCollection, error) {
	r, err := utils.GetCachedReader(ctx, CountryPolygonsURL, cacheDir, "[polygons]")
	if err != nil {
		return nil, err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decoding country polygons: %w", err)
	}
	return fc, nil
}

// getJSON issues a GET and hands the body to decode. Shared by the small
// per-source clients in this package.
func getJSON(ctx context.Context, url string, decode func(io.Reader) error) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status: %s", resp.Status)
	}
	return decode(resp.Body)
}
