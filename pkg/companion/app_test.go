package companion

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cinemate/go-cinemate/pkg/audiogate"
	"github.com/cinemate/go-cinemate/pkg/capture"
	"github.com/cinemate/go-cinemate/pkg/cognition"
	"github.com/cinemate/go-cinemate/pkg/recognizer"
	"github.com/cinemate/go-cinemate/pkg/scene"
	"github.com/cinemate/go-cinemate/pkg/speech"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Demo = true
	cfg.ListenAddr = "127.0.0.1:0"
	cfg.MemoryPath = filepath.Join(t.TempDir(), "memory.json")
	cfg.CognitionInterval = time.Hour // observation-driven only
	return cfg
}

func testApp(t *testing.T, reasoner cognition.Reasoner, provider *speech.Mock) *App {
	t.Helper()
	app, err := New(testConfig(t),
		WithCaptureSource(capture.NewMock()),
		WithAnalyzer(scene.NewMockAnalyzer("a cat asleep on the sofa")),
		WithReasoner(reasoner),
		WithListener(recognizer.NewScripted(DefaultConfig().WakePhrase, nil)),
		WithLevelSource(audiogate.NewMockSource()),
		WithSpeechProvider(provider),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := app.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	return app
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"demo needs no keys", func(c *Config) { c.Demo = true }, ""},
		{"live needs google key", func(c *Config) {}, "GoogleAPIKey"},
		{"live needs openai key", func(c *Config) { c.GoogleAPIKey = "g" }, "OpenAIKey"},
		{"live needs elevenlabs key", func(c *Config) {
			c.GoogleAPIKey = "g"
			c.OpenAIKey = "o"
		}, "ElevenLabsKey"},
		{"interval must be positive", func(c *Config) {
			c.Demo = true
			c.CognitionInterval = 0
		}, "CognitionInterval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
			if cfgErr.Field != tt.wantErr {
				t.Errorf("field = %q, want %q", cfgErr.Field, tt.wantErr)
			}
			if !strings.Contains(cfgErr.Error(), tt.wantErr) {
				t.Errorf("error %q does not name the offending field", cfgErr.Error())
			}
		})
	}
}

func TestAppSpeaksOnObservation(t *testing.T) {
	reasoner := cognition.NewMockReasoner()
	reasoner.Decision = &cognition.Decision{
		ShouldSpeak: true,
		Emotion:     cognition.EmotionCheerful,
		Content:     "What a cozy scene.",
		Reasoning:   "worth a comment",
	}
	provider := speech.NewMock()
	app := testApp(t, reasoner, provider)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	deadline := time.After(5 * time.Second)
	for {
		spoken := false
		for _, call := range provider.Calls() {
			if call.Text == "What a cozy scene." {
				spoken = true
			}
		}
		if spoken {
			break
		}
		select {
		case <-deadline:
			cancel()
			t.Fatalf("decision was never spoken; calls: %+v", provider.Calls())
		case <-time.After(20 * time.Millisecond):
		}
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if reasoner.CallCount() == 0 {
		t.Error("expected at least one cognition pass")
	}
	if reasoner.LastCall().Observation == nil {
		t.Error("expected the pass to carry an observation")
	}
	found := false
	for _, u := range app.memory.History() {
		if u.Text == "What a cozy scene." {
			found = true
		}
	}
	if !found {
		t.Error("spoken utterance not recorded in memory")
	}
}

func TestAppFallsBackWhenReasonerFails(t *testing.T) {
	reasoner := cognition.NewMockReasoner()
	reasoner.Err = errors.New("model unreachable")
	provider := speech.NewMock()
	app := testApp(t, reasoner, provider)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	deadline := time.After(5 * time.Second)
	for app.fallbacks.Stats()["resolved"] < 2 { // greeting + scene fallback
		select {
		case <-deadline:
			cancel()
			t.Fatalf("fallback never resolved; stats: %v", app.fallbacks.Stats())
		case <-time.After(20 * time.Millisecond):
		}
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !app.webServer.State().FallbackActive {
		t.Error("expected fallback mode reflected in dashboard state")
	}
}

func TestDistressCooldownSuppressesRepeats(t *testing.T) {
	reasoner := cognition.NewMockReasoner() // silent by default
	app := testApp(t, reasoner, speech.NewMock())

	ev := recognizer.Event{
		Kind:      recognizer.KindDistress,
		Text:      "help, I have fallen",
		Keyword:   "help",
		Timestamp: time.Now(),
	}
	app.handleDistress(context.Background(), ev)
	app.handleDistress(context.Background(), ev)

	if got := app.fallbacks.Stats()["resolved"]; got != 1 {
		t.Errorf("resolved = %d, want 1 (second distress suppressed)", got)
	}
	if !app.webServer.State().DistressCooldown {
		t.Error("expected distress cooldown reflected in dashboard state")
	}
}

func TestWakePhraseTriggersCognition(t *testing.T) {
	reasoner := cognition.NewMockReasoner()
	app := testApp(t, reasoner, speech.NewMock())

	app.handleSpeechEvent(context.Background(), recognizer.Event{
		Kind:      recognizer.KindWake,
		Text:      "hey cinemate",
		Timestamp: time.Now(),
	})

	if got := app.fallbacks.Stats()["resolved"]; got != 1 {
		t.Errorf("resolved = %d, want 1 (wake acknowledgement)", got)
	}
	last := reasoner.LastCall()
	if last == nil {
		t.Fatal("expected a cognition pass for the wake phrase")
	}
	if last.Trigger != cognition.TriggerUtterance {
		t.Errorf("trigger = %q, want %q", last.Trigger, cognition.TriggerUtterance)
	}
	if last.UserUtterance != "hey cinemate" {
		t.Errorf("utterance = %q", last.UserUtterance)
	}
}

func TestCommentarySkippedWhileLoud(t *testing.T) {
	reasoner := cognition.NewMockReasoner()
	app := testApp(t, reasoner, speech.NewMock())

	app.gate.Observe(95) // film is loud right now

	obs := &scene.Observation{Caption: "an explosion on screen"}
	app.cognitionPass(context.Background(), cognition.TriggerKeyframe, obs, "")
	app.cognitionPass(context.Background(), cognition.TriggerInterval, obs, "")
	if got := reasoner.CallCount(); got != 0 {
		t.Errorf("expected commentary passes skipped while loud, got %d calls", got)
	}

	// Direct user speech still reaches the reasoner.
	app.cognitionPass(context.Background(), cognition.TriggerUtterance, obs, "that was loud!")
	if got := reasoner.CallCount(); got != 1 {
		t.Errorf("expected utterance pass to run, got %d calls", got)
	}
}

func TestAudioLoopDrainsScriptedLevels(t *testing.T) {
	app := testApp(t, cognition.NewMockReasoner(), speech.NewMock())
	app.levels = audiogate.NewMockSource(10, 12, 95)

	// The scripted source closes its stream once the script is
	// replayed; the loop must have seen every sample by then.
	if err := app.audioLoop(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := app.gate.Observed(); got != 3 {
		t.Errorf("observed = %d, want all 3 scripted levels", got)
	}
	if app.gate.IsSpeechPermitted() {
		t.Error("expected gate blocked by the final loud sample")
	}
}

func TestLiveSpeechUsesProviderChain(t *testing.T) {
	cfg := testConfig(t)
	cfg.ElevenLabsKey = "test-key"

	app, err := New(cfg,
		WithCaptureSource(capture.NewMock()),
		WithAnalyzer(scene.NewMockAnalyzer("a quiet street")),
		WithReasoner(cognition.NewMockReasoner()),
		WithListener(recognizer.NewScripted(DefaultConfig().WakePhrase, nil)),
		WithLevelSource(audiogate.NewMockSource()),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := app.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	chain, ok := app.provider.(*speech.Chain)
	if !ok {
		t.Fatalf("provider = %T, want *speech.Chain", app.provider)
	}
	if got := len(chain.Providers()); got != 2 {
		t.Errorf("chain has %d providers, want 2", got)
	}
}

func TestUtteranceReachesReasonerWithContext(t *testing.T) {
	reasoner := cognition.NewMockReasoner()
	app := testApp(t, reasoner, speech.NewMock())
	app.memory.SetEntity("Margaret", "the user, loves westerns")

	app.handleSpeechEvent(context.Background(), recognizer.Event{
		Kind:      recognizer.KindUtterance,
		Text:      "this one is my favourite",
		Timestamp: time.Now(),
	})

	last := reasoner.LastCall()
	if last == nil {
		t.Fatal("expected a cognition pass")
	}
	if last.UserUtterance != "this one is my favourite" {
		t.Errorf("utterance = %q", last.UserUtterance)
	}
	if last.Entities["Margaret"] == "" {
		t.Error("expected known entities in the request")
	}
}
