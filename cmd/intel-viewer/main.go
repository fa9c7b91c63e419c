package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	_ "github.com/silbinarywolf/preferdiscretegpu"

	"github.com/sudorandom/intel-globe/pkg/intelengine"
)

var (
	renderWidth   = flag.Int("width", 1920, "Internal rendering width")
	renderHeight  = flag.Int("height", 1080, "Internal rendering height")
	windowWidth   = flag.Int("window-width", 1280, "Initial window width")
	windowHeight  = flag.Int("window-height", 720, "Initial window height")
	tpsFlag       = flag.Int("tps", 30, "Ticks per second (engine updates)")
	cacheDir      = flag.String("cache-dir", "data/cache", "Download cache directory (empty disables)")
	factStorePath = flag.String("fact-store", "data/factstore", "On-disk fact cache path (empty disables)")
	tradeData     = flag.String("trade-data", "data/trade-partners.json", "Trade partner dataset path")
	audioDir      = flag.String("audio", "audio", "Soundtrack directory (empty disables)")
)

func main() {
	flag.Parse()
	log.SetOutput(os.Stderr)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	cfg := intelengine.DefaultConfig()
	viewer := intelengine.NewViewer(cfg, *renderWidth, *renderHeight)

	app, err := intelengine.BuildApp(cfg, viewer, viewer, intelengine.AppOptions{
		CacheDir:      *cacheDir,
		FactStorePath: *factStorePath,
		TradeDataPath: *tradeData,
	})
	if err != nil {
		log.Fatalf("Failed to build engine: %v", err)
	}
	defer app.Close()

	viewer.AttachWidgets(app.Loader, app.Ticker, app.Search)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock := intelengine.NewClock(viewer.SetClockText)
	clock.Start(ctx)
	app.Start(ctx)

	if *audioDir != "" {
		player := intelengine.NewAmbientPlayer(*audioDir, viewer.SetNowPlaying)
		player.Start()
		defer player.Shutdown()
	}

	ebiten.SetTPS(*tpsFlag)
	ebiten.SetWindowSize(*windowWidth, *windowHeight)
	ebiten.SetWindowTitle("Intel Globe")
	if err := ebiten.RunGame(viewer); err != nil {
		log.Fatal(err)
	}
}
