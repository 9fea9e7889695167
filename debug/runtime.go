// Package debug logs runtime metrics while a command runs in debug mode.
// Goroutine, stack and heap figures come from runtime/metrics; RSS from the
// platform so native allocations (capture buffers, DIBs) show up as well.
package debug

import (
	"context"
	"log/slog"
	"runtime/metrics"
	"time"
)

var runtimeSamples = []string{
	"/sched/goroutines:goroutines",
	"/memory/classes/heap/stacks:bytes",
	"/memory/classes/heap/objects:bytes",
	"/memory/classes/total:bytes",
	"/gc/cycles/total:gc-cycles",
}

// Start logs a "debug.runtime" record every interval until ctx is done.
// RSS query failures are logged once and then reported as zero.
func Start(ctx context.Context, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	samples := make([]metrics.Sample, len(runtimeSamples))
	for i, name := range runtimeSamples {
		samples[i].Name = name
	}
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		var rssErrLogged bool
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
			}
			metrics.Read(samples)
			rss, err := residentBytes()
			if err != nil && !rssErrLogged {
				logger.Warn("debug: rss query failed", slog.String("err", err.Error()))
				rssErrLogged = true
			}
			logger.Info("debug.runtime",
				slog.Uint64("goroutines", value(samples[0])),
				slog.Uint64("stack_inuse", value(samples[1])),
				slog.Uint64("heap_objects", value(samples[2])),
				slog.Uint64("go_total", value(samples[3])),
				slog.Uint64("num_gc", value(samples[4])),
				slog.Uint64("rss", rss),
			)
		}
	}()
}

func value(s metrics.Sample) uint64 {
	if s.Value.Kind() != metrics.KindUint64 {
		return 0
	}
	return s.Value.Uint64()
}
