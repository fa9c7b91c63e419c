package intelengine

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/sudorandom/intel-globe/pkg/sources"
	"github.com/sudorandom/intel-globe/pkg/utils"
)

// factPlaceholder fills any row no source could answer. Rows are never
// omitted; a panel with missing rows reads as broken.
const factPlaceholder = "DATA UNAVAILABLE"

// ProfileSource answers demographic facts for an ISO alpha-2 code.
type ProfileSource func(ctx context.Context, iso string) (*sources.CountryProfile, error)

// GDPSource answers the most recent GDP value in current US dollars.
type GDPSource func(ctx context.Context, iso string) (float64, error)

// NewsSource answers recent headlines mentioning a country by name.
type NewsSource func(ctx context.Context, name string, limit int) ([]sources.NewsItem, error)

// buildFactsView assembles the macro section, applying the per-row fallback
// chain: live source, then the polygon dataset's own estimates, then the
// placeholder. profile may be nil and gdp zero when their fetches failed.
func buildFactsView(f *CountryFeature, profile *sources.CountryProfile, gdp float64) FactsView {
	v := FactsView{
		Capital:    factPlaceholder,
		Population: factPlaceholder,
		Currency:   factPlaceholder,
		GDP:        factPlaceholder,
	}

	if profile != nil {
		if profile.Capital != "" {
			v.Capital = profile.Capital
		}
		if profile.Population > 0 {
			v.Population = formatPopulation(float64(profile.Population))
		}
		if profile.Currency != "" {
			v.Currency = profile.Currency
		}
	}
	if v.Population == factPlaceholder && f.PopEst > 0 {
		v.Population = formatPopulation(f.PopEst)
	}

	if gdp > 0 {
		v.GDP = formatGDP(gdp)
	} else if f.GDPMdEst > 0 {
		// The dataset estimate is in millions of dollars.
		v.GDP = formatGDP(f.GDPMdEst * 1e6)
	}
	return v
}

// formatGDP buckets a dollar value into trillions, billions or millions.
func formatGDP(usd float64) string {
	switch {
	case usd >= 1e12:
		return fmt.Sprintf("$%.2fT", usd/1e12)
	case usd >= 1e9:
		return fmt.Sprintf("$%.1fB", usd/1e9)
	default:
		return fmt.Sprintf("$%.0fM", usd/1e6)
	}
}

func formatPopulation(n float64) string {
	switch {
	case n >= 1e9:
		return fmt.Sprintf("%.2fB", n/1e9)
	case n >= 1e6:
		return fmt.Sprintf("%.1fM", n/1e6)
	case n >= 1e3:
		return fmt.Sprintf("%.0fK", n/1e3)
	default:
		return fmt.Sprintf("%.0f", n)
	}
}

// CachedProfileSource wraps a profile source with the fact store. Hits skip
// the network entirely; misses are stored with the given TTL. Store errors
// only log; the live source stays authoritative.
func CachedProfileSource(src ProfileSource, store *utils.FactStore, ttl time.Duration) ProfileSource {
	if store == nil {
		return src
	}
	return func(ctx context.Context, iso string) (*sources.CountryProfile, error) {
		key := "profile:" + iso
		var cached sources.CountryProfile
		if ok, err := store.GetJSON(key, &cached); err == nil && ok {
			return &cached, nil
		}
		p, err := src(ctx, iso)
		if err != nil {
			return nil, err
		}
		if err := store.PutJSON(key, p, ttl); err != nil {
			log.Printf("[facts] caching profile %s: %v", iso, err)
		}
		return p, nil
	}
}

// CachedGDPSource is the fact-store wrapper for the economic indicator source.
func CachedGDPSource(src GDPSource, store *utils.FactStore, ttl time.Duration) GDPSource {
	if store == nil {
		return src
	}
	return func(ctx context.Context, iso string) (float64, error) {
		key := "gdp:" + iso
		var cached float64
		if ok, err := store.GetJSON(key, &cached); err == nil && ok {
			return cached, nil
		}
		gdp, err := src(ctx, iso)
		if err != nil {
			return 0, err
		}
		if err := store.PutJSON(key, gdp, ttl); err != nil {
			log.Printf("[facts] caching gdp %s: %v", iso, err)
		}
		return gdp, nil
	}
}
