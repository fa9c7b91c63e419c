package intelengine

import (
	"context"
	"fmt"
	"time"
)

// ZuluTime formats a time as the heads-up clock displays it.
func ZuluTime(t time.Time) string {
	return fmt.Sprintf("%s ZULU", t.UTC().Format("15:04:05"))
}

// Clock pushes the formatted UTC time to a sink once per second. The sink is
// called from the clock's own goroutine.
type Clock struct {
	sink func(string)
}

func NewClock(sink func(string)) *Clock {
	return &Clock{sink: sink}
}

func (c *Clock) Start(ctx context.Context) {
	go func() {
		c.sink(ZuluTime(time.Now()))
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				c.sink(ZuluTime(now))
			}
		}
	}()
}
