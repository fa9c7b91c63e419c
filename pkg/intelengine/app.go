package intelengine

import (
	"context"
	"log"
	"time"

	geojson "github.com/paulmach/go.geojson"

	"github.com/sudorandom/intel-globe/pkg/sources"
	"github.com/sudorandom/intel-globe/pkg/utils"
)

const factTTL = 24 * time.Hour

// AppOptions are the per-process paths the mains choose.
type AppOptions struct {
	// CacheDir caches the polygon download; empty streams every boot.
	CacheDir string
	// FactStorePath backs the on-disk fact cache; empty disables caching.
	FactStorePath string
	// TradeDataPath locates the static trade-partner dataset.
	TradeDataPath string
}

// App is the fully wired engine. Both the desktop viewer and the headless
// server build one of these and differ only in the scene driver and panel
// renderer they pass in.
type App struct {
	Config      Config
	Globe       *Globe
	Dashboard   *Dashboard
	Connections *Connections
	Search      *SearchBox
	SearchIndex *SearchIndex
	Ticker      *Ticker
	Loader      *Loader
	Seismic     *SeismicMonitor

	opts  AppOptions
	store *utils.FactStore
}

// BuildApp wires every component together. The scene driver and panel
// renderer are the only injection points; everything else follows from cfg
// and opts.
func BuildApp(cfg Config, driver SceneDriver, panel PanelRenderer, opts AppOptions) (*App, error) {
	loader := NewLoader(cfg.Loader, nil)
	globe := NewGlobe(cfg.Globe, cfg.Animations, driver, loader)
	connections := NewConnections(cfg.Connections, globe.CountryCoords, globe.Rings(), driver.SetArcs)

	var store *utils.FactStore
	if opts.FactStorePath != "" {
		var err error
		store, err = utils.OpenFactStore(opts.FactStorePath)
		if err != nil {
			return nil, err
		}
	}

	profiles := CachedProfileSource(sources.FetchCountryProfile, store, factTTL)
	gdp := CachedGDPSource(sources.FetchGDP, store, factTTL)
	news := func(ctx context.Context, name string, limit int) ([]sources.NewsItem, error) {
		return sources.FetchCountryNews(ctx, name, cfg.News.Language, cfg.News.Country, limit)
	}
	dashboard := NewDashboard(panel, profiles, gdp, news, connections, cfg.News.CountryNewsCount)

	headlines := func(ctx context.Context, limit int) ([]sources.NewsItem, error) {
		return sources.FetchWorldHeadlines(ctx, cfg.News.Language, cfg.News.Country, limit)
	}
	ticker := NewTicker(headlines, nil, cfg.News.GlobalHeadlineCount)

	searchIndex := NewSearchIndex(cfg.Search)
	search := NewSearchBox(searchIndex, func(f *CountryFeature) {
		globe.FocusCountry(f, f.LabelLat, f.LabelLng)
	})

	seismic := NewSeismicMonitor(cfg.Events, sources.FetchQuakes, globe.Rings(), driver.SetPoints)

	globe.OnFocus = func(f *CountryFeature) {
		ticker.SetCountryHeadline("/// TRACKING: " + f.DisplayName())
		dashboard.Lookup(f)
	}
	dashboard.OnNews = func(items []NewsItemView) {
		if len(items) > 0 {
			ticker.SetCountryHeadline("/// LATEST INTERCEPT: " + items[0].Title)
		}
	}
	globe.AddResetHook(dashboard.Close)
	globe.AddResetHook(connections.Clear)
	globe.AddResetHook(ticker.ClearCountryHeadline)
	globe.OnCountriesReady(func(features []*CountryFeature) {
		searchIndex.SetFeatures(features)
		ticker.SetScanner(NewHeadlineScanner(features))
	})

	return &App{
		Config:      cfg,
		Globe:       globe,
		Dashboard:   dashboard,
		Connections: connections,
		Search:      search,
		SearchIndex: searchIndex,
		Ticker:      ticker,
		Loader:      loader,
		Seismic:     seismic,
		opts:        opts,
		store:       store,
	}, nil
}

// Start kicks off the boot sequence and the background feeds. It returns
// immediately; the scene driver's loop is the caller's business.
func (a *App) Start(ctx context.Context) {
	a.Connections.LoadDataset(a.opts.TradeDataPath)
	a.Seismic.Start(ctx)
	a.Globe.OnCountriesReady(func([]*CountryFeature) {
		go a.Ticker.LoadGlobal(ctx)
	})
	go func() {
		if err := a.Globe.Initialize(ctx, func(ctx context.Context) (*geojson.FeatureCollection, error) {
			return sources.FetchCountryPolygons(ctx, a.opts.CacheDir)
		}); err != nil {
			log.Printf("[app] initialization degraded: %v", err)
		}
	}()
}

// Close releases the fact store.
func (a *App) Close() error {
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}
