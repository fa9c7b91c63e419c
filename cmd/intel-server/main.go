package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sudorandom/intel-globe/pkg/intelengine"
	"github.com/sudorandom/intel-globe/pkg/scenehub"
)

var (
	listenAddr    = flag.String("listen", ":8080", "HTTP listen address")
	cacheDir      = flag.String("cache-dir", "data/cache", "Download cache directory (empty disables)")
	factStorePath = flag.String("fact-store", "data/factstore", "On-disk fact cache path (empty disables)")
	tradeData     = flag.String("trade-data", "data/trade-partners.json", "Trade partner dataset path")
)

func main() {
	flag.Parse()
	log.SetOutput(os.Stderr)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	cfg := intelengine.DefaultConfig()
	hub := scenehub.NewHub()

	app, err := intelengine.BuildApp(cfg, hub, hub, intelengine.AppOptions{
		CacheDir:      *cacheDir,
		FactStorePath: *factStorePath,
		TradeDataPath: *tradeData,
	})
	if err != nil {
		log.Fatalf("Failed to build engine: %v", err)
	}
	defer app.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	app.Start(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: *listenAddr, Handler: mux}
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		log.Println("Shutting down...")
		cancel()
		srv.Shutdown(context.Background())
	}()

	log.Printf("Scene hub listening on %s", *listenAddr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
