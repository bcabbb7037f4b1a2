package host

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spirolab/spiro/backend-go/internal/engine"
)

// HeadlessConfig controls the no-window runner.
type HeadlessConfig struct {
	Hz    int
	Ticks uint64 // stop after N ticks; 0 runs until ctx is done
}

// RunHeadless ticks the engine on a timer without any input or display. It
// returns the number of ticks run.
func RunHeadless(ctx context.Context, eng *engine.Engine, cfg HeadlessConfig) (uint64, error) {
	if cfg.Hz <= 0 {
		cfg.Hz = 60
	}

	d := time.Second / time.Duration(cfg.Hz)
	if d <= 0 {
		return 0, fmt.Errorf("invalid headless hz: %d", cfg.Hz)
	}
	t := time.NewTicker(d)
	defer t.Stop()

	var tick uint64
	for {
		select {
		case <-ctx.Done():
			return tick, ctx.Err()
		case <-t.C:
			logTick(eng.Tick())
			tick++
			if cfg.Ticks > 0 && tick >= cfg.Ticks {
				return tick, nil
			}
		}
	}
}

func logTick(res engine.TickResult) {
	for _, ev := range res.Events {
		slog.Debug("drag event", "type", ev.Type, "gear", ev.Gear, "snapped", ev.Snapped)
	}
}
