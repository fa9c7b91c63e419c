package intelengine

import (
	geojson "github.com/paulmach/go.geojson"
)

// Some features in the Natural Earth dataset carry "-99" where an ISO code
// should be (disputed territories, Kosovo, Northern Cyprus...).
const isoSentinel = "-99"

// CountryFeature is the immutable per-country record loaded once from the
// polygon dataset. The commonly used properties are lifted into typed fields;
// the raw property bag stays available for anything else.
type CountryFeature struct {
	Admin    string
	Name     string
	NameLong string
	ISOA2    string
	ISOA3    string

	PopEst   float64
	GDPMdEst float64

	// Label anchor point published with the dataset, 0,0 when absent.
	LabelLat float64
	LabelLng float64

	Geometry   *geojson.Geometry
	Properties map[string]interface{}
}

// HasISO reports whether the feature carries a usable ISO alpha-2 code.
func (f *CountryFeature) HasISO() bool {
	return f.ISOA2 != "" && f.ISOA2 != isoSentinel
}

// ISO returns the alpha-2 code, or "" when the dataset has none.
func (f *CountryFeature) ISO() string {
	if !f.HasISO() {
		return ""
	}
	return f.ISOA2
}

func (f *CountryFeature) DisplayName() string {
	if f.Admin != "" {
		return f.Admin
	}
	if f.Name != "" {
		return f.Name
	}
	return "UNKNOWN"
}

// ParseCountries converts a GeoJSON feature collection into country records.
// Features without geometry are skipped.
func ParseCountries(fc *geojson.FeatureCollection) []*CountryFeature {
	if fc == nil {
		return nil
	}
	features := make([]*CountryFeature, 0, len(fc.Features))
	for _, raw := range fc.Features {
		if raw == nil || raw.Geometry == nil {
			continue
		}
		f := &CountryFeature{
			Admin:      propString(raw.Properties, "ADMIN"),
			Name:       propString(raw.Properties, "NAME"),
			NameLong:   propString(raw.Properties, "NAME_LONG"),
			ISOA2:      propString(raw.Properties, "ISO_A2"),
			ISOA3:      propString(raw.Properties, "ISO_A3"),
			PopEst:     propFloat(raw.Properties, "POP_EST"),
			GDPMdEst:   propFloat(raw.Properties, "GDP_MD_EST"),
			LabelLat:   propFloat(raw.Properties, "LABEL_Y"),
			LabelLng:   propFloat(raw.Properties, "LABEL_X"),
			Geometry:   raw.Geometry,
			Properties: raw.Properties,
		}
		features = append(features, f)
	}
	return features
}

func propString(props map[string]interface{}, key string) string {
	if props == nil {
		return ""
	}
	if s, ok := props[key].(string); ok {
		return s
	}
	return ""
}

func propFloat(props map[string]interface{}, key string) float64 {
	if props == nil {
		return 0
	}
	switch v := props[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}
