// intel-probe exercises the data sources from the command line, which beats
// booting the full viewer when a feed misbehaves.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/biter777/countries"

	"github.com/sudorandom/intel-globe/pkg/intelengine"
	"github.com/sudorandom/intel-globe/pkg/sources"
)

var cli struct {
	Timeout time.Duration `default:"15s" help:"Per-request timeout."`

	Facts  FactsCmd  `cmd:"" help:"Fetch demographic and economic facts for a country."`
	News   NewsCmd   `cmd:"" help:"Fetch recent headlines for a country."`
	Quakes QuakesCmd `cmd:"" help:"Fetch and classify the current earthquake feed."`
	Trade  TradeCmd  `cmd:"" help:"Show the trade partner dataset for a country."`
}

// runCtx carries the request context into kong's Run dispatch.
type runCtx struct {
	context.Context
}

// resolveISO accepts a country name, alpha-2 or alpha-3 code.
func resolveISO(arg string) (iso, name string, err error) {
	c := countries.ByName(arg)
	if c == countries.Unknown {
		return "", "", fmt.Errorf("unknown country %q", arg)
	}
	return c.Alpha2(), c.String(), nil
}

type FactsCmd struct {
	Country string `arg:"" help:"Country name or ISO code."`
}

func (c *FactsCmd) Run(rc *runCtx) error {
	ctx := rc.Context
	iso, name, err := resolveISO(c.Country)
	if err != nil {
		return err
	}
	fmt.Printf("%s [%s]\n", name, iso)

	profile, err := sources.FetchCountryProfile(ctx, iso)
	if err != nil {
		fmt.Printf("  profile: error: %v\n", err)
	} else {
		fmt.Printf("  capital:    %s\n", profile.Capital)
		fmt.Printf("  population: %d\n", profile.Population)
		fmt.Printf("  currency:   %s\n", profile.Currency)
	}

	gdp, err := sources.FetchGDP(ctx, iso)
	if err != nil {
		fmt.Printf("  gdp: error: %v\n", err)
	} else {
		fmt.Printf("  gdp:        $%.0f\n", gdp)
	}
	return nil
}

type NewsCmd struct {
	Country string `arg:"" help:"Country name or ISO code."`
	Limit   int    `default:"5" help:"Maximum headlines."`
}

func (c *NewsCmd) Run(rc *runCtx) error {
	ctx := rc.Context
	_, name, err := resolveISO(c.Country)
	if err != nil {
		return err
	}
	items, err := sources.FetchCountryNews(ctx, name, "en-US", "US", c.Limit)
	if err != nil {
		return err
	}
	for _, it := range items {
		fmt.Printf("- %s\n  %s\n", it.Title, it.Link)
	}
	return nil
}

type QuakesCmd struct {
	MinMag float64 `default:"0" help:"Only show quakes at or above this magnitude."`
}

func (c *QuakesCmd) Run(rc *runCtx) error {
	ctx := rc.Context
	fc, err := sources.FetchQuakes(ctx)
	if err != nil {
		return err
	}
	quakes := intelengine.ParseQuakes(fc)
	shown := 0
	for _, q := range quakes {
		if q.Magnitude < c.MinMag {
			continue
		}
		fmt.Printf("M%.1f  %7.2f %8.2f  %s\n", q.Magnitude, q.Lat, q.Lng, q.Place)
		shown++
	}
	fmt.Printf("%d of %d events shown\n", shown, len(quakes))
	return nil
}

type TradeCmd struct {
	Country string `arg:"" help:"Country name or ISO code."`
	Data    string `default:"data/trade-partners.json" help:"Dataset path."`
}

func (c *TradeCmd) Run(_ *runCtx) error {
	iso, name, err := resolveISO(c.Country)
	if err != nil {
		return err
	}
	dataset, err := sources.LoadTradePartners(c.Data)
	if err != nil {
		return err
	}
	partners := dataset[strings.ToUpper(iso)]
	if len(partners) == 0 {
		fmt.Printf("no trade data for %s\n", name)
		return nil
	}
	fmt.Printf("%s [%s]\n", name, iso)
	for _, p := range partners {
		fmt.Printf("  %-4s %-24s $%.1fB\n", p.ISO, p.Name, p.Volume)
	}
	return nil
}

func main() {
	log.SetOutput(os.Stderr)
	kctx := kong.Parse(&cli,
		kong.Name("intel-probe"),
		kong.Description("Poke the intel globe's data sources."),
		kong.UsageOnError(),
	)
	ctx, cancel := context.WithTimeout(context.Background(), cli.Timeout)
	defer cancel()
	kctx.FatalIfErrorf(kctx.Run(&runCtx{ctx}))
}
