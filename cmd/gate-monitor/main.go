// gate-monitor runs the loudness gate against the simulated ambient
// source and prints the gate state once a second. Useful for tuning
// the threshold and quiet-duration parameters.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cinemate/go-cinemate/internal/log"
	"github.com/cinemate/go-cinemate/pkg/audiogate"
)

func main() {
	threshold := flag.Float64("threshold", 0, "Loudness threshold override (0 = default)")
	quiet := flag.Duration("quiet", 0, "Quiet duration override (0 = default)")
	seed := flag.Int64("seed", 0, "Simulated source seed (0 = time-based)")
	level := flag.String("log-level", "warn", "Log level")
	flag.Parse()

	log.Init(*level)
	logger := log.L()

	cfg := audiogate.DefaultConfig()
	if *threshold > 0 {
		cfg.LoudThreshold = *threshold
	}
	if *quiet > 0 {
		cfg.QuietDuration = *quiet
	}

	gate, err := audiogate.New(cfg, logger)
	if err != nil {
		log.Error("gate init failed", "error", err)
		os.Exit(1)
	}

	var opts []audiogate.SimulatedOption
	if *seed != 0 {
		opts = append(opts, audiogate.WithSeed(*seed))
	}
	source := audiogate.NewSimulated(cfg, logger, opts...)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := source.Start(ctx); err != nil {
		log.Error("source start failed", "error", err)
		os.Exit(1)
	}
	defer source.Stop()

	fmt.Printf("threshold=%.0f quiet=%v (Ctrl+C to exit)\n", cfg.LoudThreshold, cfg.QuietDuration)

	report := time.NewTicker(time.Second)
	defer report.Stop()

	samples := source.Stream()

	for {
		select {
		case <-ctx.Done():
			fmt.Printf("\nobserved %d samples\n", gate.Observed())
			return
		case sample, ok := <-samples:
			if !ok {
				return
			}
			gate.Observe(sample)
		case <-report.C:
			state := "BLOCKED"
			if gate.IsSpeechPermitted() {
				state = "open"
			}
			fmt.Printf("level=%5.1f smoothed=%5.1f gate=%s\n",
				gate.CurrentLevel(), gate.SmoothedLevel(), state)
		}
	}
}
