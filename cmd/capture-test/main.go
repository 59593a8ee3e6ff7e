// capture-test exercises the webcam capture path and the keyframe
// detector: it prints per-frame similarity verdicts and a summary of
// how many frames would have reached the scene analyzer.
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
	"github.com/cinemate/go-cinemate/pkg/capture"
	"github.com/cinemate/go-cinemate/pkg/keyframe"
)

func main() {
	device := flag.Int("camera", 0, "Webcam device index")
	interval := flag.Duration("interval", 200*time.Millisecond, "Capture cadence")
	duration := flag.Duration("duration", 30*time.Second, "How long to run (0 = until interrupted)")
	mock := flag.Bool("mock", false, "Use the synthetic frame source instead of a webcam")
	level := flag.String("log-level", "info", "Log level")
	flag.Parse()

	log.Init(*level)
	logger := log.L()

	var source capture.Source
	if *mock {
		source = capture.NewMock()
	} else {
		cfg := capture.DefaultConfig()
		cfg.DeviceID = *device
		source = capture.NewWebcam(cfg, logger)
	}

	detector, err := keyframe.New(keyframe.DefaultConfig(), logger)
	if err != nil {
		log.Error("detector init failed", "error", err)
		os.Exit(1)
	}

	if err := source.Open(); err != nil {
		log.Error("could not open source", "source", source.Name(), "error", err)
		os.Exit(1)
	}
	defer source.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	if *duration > 0 {
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	fmt.Printf("capturing from %s every %v\n", source.Name(), *interval)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	var captured, failed int
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
			frame, err := source.Capture()
			if err != nil {
				failed++
				log.Warn("capture failed", "error", err)
				continue
			}
			captured++
			if detector.Evaluate(frame) {
				fmt.Printf("keyframe  seq=%d  %dx%d  jpeg=%dB\n",
					frame.Seq, frame.Width, frame.Height, len(frame.JPEG))
			}
		}
	}

	evaluated, accepted := detector.Stats()
	fmt.Printf("\ncaptured=%d failed=%d evaluated=%d keyframes=%d (%.1f%%)\n",
		captured, failed, evaluated, accepted,
		100*float64(accepted)/float64(max(evaluated, 1)))
}
