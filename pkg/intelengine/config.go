package intelengine

import (
	"image/color"
	"time"
)

// Config carries every tunable the engine uses. Components receive the
// sub-struct they care about at construction time; there are no package-level
// settings.
type Config struct {
	Globe       GlobeConfig
	Search      SearchConfig
	News        NewsConfig
	Connections ConnectionsConfig
	Events      EventsConfig
	Loader      LoaderConfig
	Animations  AnimationConfig
}

type GlobeConfig struct {
	BackgroundColor color.RGBA
	LandColor       color.RGBA
	OutlineColor    color.RGBA
	HoverColor      color.RGBA

	InitialView     CameraView
	FocusAltitude   float64
	AutoRotateSpeed float64 // degrees of longitude per second
}

// CameraView is a declarative camera target. Altitude follows the original
// dataset's convention: 1.0 frames the full map height, larger values zoom out.
type CameraView struct {
	Lat, Lng float64
	Altitude float64
}

type SearchConfig struct {
	MinQueryLength int
	MaxResults     int
	// MinScore is the similarity floor below which a candidate is discarded.
	MinScore float64
}

type NewsConfig struct {
	GlobalHeadlineCount int
	CountryNewsCount    int
	Language            string
	Country             string
}

type ConnectionsConfig struct {
	ArcColor      color.RGBA
	ArcStrokeMin  float64
	ArcStrokeMax  float64
	RingColor     color.RGBA
	RingMaxRadius float64
	RingSpeed     float64
	RingPeriod    time.Duration
}

type EventsConfig struct {
	RefreshInterval time.Duration

	// Point marker radius in degrees per unit of magnitude.
	MagnitudeRadiusScale float64

	MinorColor    color.RGBA
	ModerateColor color.RGBA
	MajorColor    color.RGBA

	ModerateThreshold float64
	MajorThreshold    float64

	// Only quakes at or above RingThreshold contribute a pulsing ring.
	RingThreshold float64
	RingMaxRadius float64
	RingSpeed     float64
	RingPeriod    time.Duration
}

type LoaderConfig struct {
	FallbackTimeout   time.Duration
	ErrorDisplayDelay time.Duration
}

type AnimationConfig struct {
	FocusDuration time.Duration
	ResetDuration time.Duration
}

func DefaultConfig() Config {
	return Config{
		Globe: GlobeConfig{
			BackgroundColor: color.RGBA{5, 5, 5, 255},
			LandColor:       color.RGBA{26, 29, 35, 255},
			OutlineColor:    color.RGBA{255, 140, 0, 90},
			HoverColor:      color.RGBA{255, 140, 0, 102},
			InitialView:     CameraView{Lat: 20, Lng: 0, Altitude: 2.5},
			FocusAltitude:   1.5,
			AutoRotateSpeed: 0.5,
		},
		Search: SearchConfig{
			MinQueryLength: 2,
			MaxResults:     6,
			MinScore:       0.6,
		},
		News: NewsConfig{
			GlobalHeadlineCount: 10,
			CountryNewsCount:    5,
			Language:            "en-US",
			Country:             "US",
		},
		Connections: ConnectionsConfig{
			ArcColor:      color.RGBA{0, 243, 255, 255},
			ArcStrokeMin:  0.5,
			ArcStrokeMax:  2.5,
			RingColor:     color.RGBA{0, 243, 255, 153},
			RingMaxRadius: 2,
			RingSpeed:     2,
			RingPeriod:    800 * time.Millisecond,
		},
		Events: EventsConfig{
			RefreshInterval:      5 * time.Minute,
			MagnitudeRadiusScale: 0.3,
			MinorColor:           color.RGBA{255, 204, 0, 255},
			ModerateColor:        color.RGBA{255, 140, 0, 255},
			MajorColor:           color.RGBA{255, 0, 60, 255},
			ModerateThreshold:    5.5,
			MajorThreshold:       7.0,
			RingThreshold:        5.5,
			RingMaxRadius:        6,
			RingSpeed:            3,
			RingPeriod:           1200 * time.Millisecond,
		},
		Loader: LoaderConfig{
			FallbackTimeout:   5 * time.Second,
			ErrorDisplayDelay: 1500 * time.Millisecond,
		},
		Animations: AnimationConfig{
			FocusDuration: 1500 * time.Millisecond,
			ResetDuration: 2 * time.Second,
		},
	}
}
