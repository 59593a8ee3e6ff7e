package keyframe_test

import (
	"testing"
	"time"

	"github.com/cinemate/go-cinemate/pkg/capture"
	"github.com/cinemate/go-cinemate/pkg/keyframe"
)

func gradientFrame(w, h int, offset byte, ts time.Time) *capture.Frame {
	gray := make([]byte, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gray[y*w+x] = byte(x*255/w) + offset
		}
	}
	return &capture.Frame{Width: w, Height: h, Gray: gray, Timestamp: ts}
}

func noiseFrame(w, h int, seed byte, ts time.Time) *capture.Frame {
	gray := make([]byte, w*h)
	v := seed
	for i := range gray {
		v = v*31 + 7
		gray[i] = v
	}
	return &capture.Frame{Width: w, Height: h, Gray: gray, Timestamp: ts}
}

func TestDetectorFirstFrame(t *testing.T) {
	d, err := keyframe.New(keyframe.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !d.Evaluate(gradientFrame(64, 48, 0, time.Now())) {
		t.Error("expected first frame to be a keyframe")
	}
}

func TestDetectorIdenticalFrames(t *testing.T) {
	cfg := keyframe.Config{SimilarityThreshold: 0.95, MaxInterval: 15 * time.Second}
	d, err := keyframe.New(cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	now := time.Now()
	if !d.Evaluate(gradientFrame(64, 48, 0, now)) {
		t.Fatal("expected first frame to be a keyframe")
	}
	if d.Evaluate(gradientFrame(64, 48, 0, now.Add(100*time.Millisecond))) {
		t.Error("expected identical second frame to be rejected")
	}
}

func TestDetectorFalseVerdictIsRepeatable(t *testing.T) {
	d, err := keyframe.New(keyframe.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	now := time.Now()
	d.Evaluate(gradientFrame(64, 48, 0, now))

	// A false verdict must not mutate state, so repeating the same
	// unchanged frame keeps returning false.
	for i := 0; i < 5; i++ {
		ts := now.Add(time.Duration(i+1) * 100 * time.Millisecond)
		if d.Evaluate(gradientFrame(64, 48, 0, ts)) {
			t.Fatalf("iteration %d: expected false verdict", i)
		}
	}

	_, accepted := d.Stats()
	if accepted != 1 {
		t.Errorf("expected 1 accepted keyframe, got %d", accepted)
	}
}

func TestDetectorSceneChange(t *testing.T) {
	d, err := keyframe.New(keyframe.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	now := time.Now()
	d.Evaluate(gradientFrame(64, 48, 0, now))

	if !d.Evaluate(noiseFrame(64, 48, 1, now.Add(time.Second))) {
		t.Error("expected structurally different frame to be a keyframe")
	}
}

func TestDetectorMaxInterval(t *testing.T) {
	cfg := keyframe.Config{SimilarityThreshold: 0.95, MaxInterval: 10 * time.Second}
	d, err := keyframe.New(cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	now := time.Now()
	d.Evaluate(gradientFrame(64, 48, 0, now))

	t.Run("before interval elapses", func(t *testing.T) {
		if d.Evaluate(gradientFrame(64, 48, 0, now.Add(9*time.Second))) {
			t.Error("expected identical frame before interval to be rejected")
		}
	})

	t.Run("after interval elapses", func(t *testing.T) {
		if !d.Evaluate(gradientFrame(64, 48, 0, now.Add(10*time.Second))) {
			t.Error("expected identical frame after interval to be accepted")
		}
	})
}

func TestDetectorMalformedFrame(t *testing.T) {
	d, err := keyframe.New(keyframe.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	now := time.Now()
	d.Evaluate(gradientFrame(64, 48, 0, now))

	// Mismatched dimensions must be treated as "not a keyframe" and
	// leave the remembered frame untouched.
	if d.Evaluate(gradientFrame(32, 24, 0, now.Add(time.Second))) {
		t.Error("expected malformed frame to be rejected")
	}
	if d.Evaluate(gradientFrame(64, 48, 0, now.Add(2*time.Second))) {
		t.Error("expected original frame to still be remembered")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     keyframe.Config
		wantErr bool
	}{
		{"defaults", keyframe.DefaultConfig(), false},
		{"threshold zero", keyframe.Config{SimilarityThreshold: 0, MaxInterval: time.Second}, true},
		{"threshold one", keyframe.Config{SimilarityThreshold: 1, MaxInterval: time.Second}, true},
		{"negative interval", keyframe.Config{SimilarityThreshold: 0.9, MaxInterval: -time.Second}, true},
		{"valid", keyframe.Config{SimilarityThreshold: 0.5, MaxInterval: time.Second}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSSIM(t *testing.T) {
	t.Run("identical planes score 1", func(t *testing.T) {
		a := noiseFrame(32, 32, 3, time.Time{}).Gray
		score, err := keyframe.SSIM(a, a, 32, 32, 32, 32)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if score < 0.999 {
			t.Errorf("expected score ~1, got %f", score)
		}
	})

	t.Run("different planes score below 1", func(t *testing.T) {
		a := noiseFrame(32, 32, 3, time.Time{}).Gray
		b := noiseFrame(32, 32, 200, time.Time{}).Gray
		score, err := keyframe.SSIM(a, b, 32, 32, 32, 32)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if score > 0.9 {
			t.Errorf("expected dissimilar score, got %f", score)
		}
	})

	t.Run("empty plane errors", func(t *testing.T) {
		if _, err := keyframe.SSIM(nil, nil, 0, 0, 0, 0); err == nil {
			t.Error("expected error for empty planes")
		}
	})

	t.Run("dimension mismatch errors", func(t *testing.T) {
		a := make([]byte, 32*32)
		b := make([]byte, 16*16)
		if _, err := keyframe.SSIM(a, b, 32, 32, 16, 16); err == nil {
			t.Error("expected error for mismatched planes")
		}
	})
}
