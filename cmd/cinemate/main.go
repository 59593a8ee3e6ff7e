// CineMate - a companion that watches a film with the user, listens
// to the room, and decides when to say something.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/cinemate/go-cinemate/internal/log"
	"github.com/cinemate/go-cinemate/pkg/companion"
)

func main() {
	cfg, level := parseFlags()
	log.Init(level)

	app, err := companion.New(cfg)
	if err != nil {
		log.Error("configuration error", "error", err)
		os.Exit(1)
	}

	if err := app.Init(); err != nil {
		log.Error("initialization failed", "error", err)
		os.Exit(1)
	}
	defer app.Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx); err != nil {
		log.Error("runtime error", "error", err)
		os.Exit(1)
	}
}

// parseFlags parses command line flags and returns configuration.
func parseFlags() (companion.Config, string) {
	cfg := companion.DefaultConfig()

	level := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	addr := flag.String("addr", cfg.ListenAddr, "Dashboard/API bind address")
	camera := flag.Int("camera", 0, "Webcam device index")
	demo := flag.Bool("demo", false, "Run on simulated sources, no hardware or credentials needed")
	script := flag.String("script", "", "YAML clip script with timeline cues")
	memoryPath := flag.String("memory", "", "Session memory file (default ~/.cinemate/memory.json)")
	voice := flag.String("voice", "", "ElevenLabs voice preset or ID")
	interval := flag.Duration("cognition-interval", cfg.CognitionInterval, "Periodic reasoning cadence")
	cooldown := flag.Duration("distress-cooldown", cfg.DistressCooldown, "Minimum gap between distress reactions")
	flag.Parse()

	cfg.ListenAddr = *addr
	cfg.CameraDevice = *camera
	cfg.Demo = *demo
	cfg.ScriptPath = *script
	cfg.MemoryPath = *memoryPath
	cfg.ElevenLabsVoice = *voice
	cfg.CognitionInterval = *interval
	cfg.DistressCooldown = *cooldown

	return cfg, *level
}
