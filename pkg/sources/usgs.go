package sources

import (
	"context"
	"io"

	geojson "github.com/paulmach/go.geojson"
)

// FetchQuakes downloads the rolling seven-day earthquake summary feed. The
// returned collection is raw; parsing magnitudes and epicenters is the
// engine's job.
func FetchQuakes(ctx context.Context) (*geojson.FeatureCollection, error) {
	var fc *geojson.FeatureCollection
	err := getJSON(ctx, USGSEarthquakesURL, func(r io.Reader) error {
		data, err := io.ReadAll(r)
		if err != nil {
			return err
		}
		fc, err = geojson.UnmarshalFeatureCollection(data)
		return err
	})
	if err != nil {
		return nil, err
	}
	return fc, nil
}
