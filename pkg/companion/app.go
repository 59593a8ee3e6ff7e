package companion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cinemate/go-cinemate/internal/log"
	"github.com/cinemate/go-cinemate/pkg/audiogate"
	"github.com/cinemate/go-cinemate/pkg/capture"
	"github.com/cinemate/go-cinemate/pkg/cognition"
	"github.com/cinemate/go-cinemate/pkg/fallback"
	"github.com/cinemate/go-cinemate/pkg/keyframe"
	"github.com/cinemate/go-cinemate/pkg/memory"
	"github.com/cinemate/go-cinemate/pkg/perception"
	"github.com/cinemate/go-cinemate/pkg/recognizer"
	"github.com/cinemate/go-cinemate/pkg/scene"
	"github.com/cinemate/go-cinemate/pkg/speech"
	"github.com/cinemate/go-cinemate/pkg/web"
)

// App is the companion application orchestrator. It owns the
// perception worker, the loudness gate, the recognizer, the reasoner,
// the speech dispatcher, and the dashboard, and runs their loops.
type App struct {
	config Config
	logger *slog.Logger

	// Perception
	source   capture.Source
	detector *keyframe.Detector
	analyzer scene.Analyzer
	worker   *perception.Worker

	// Audio
	gate   *audiogate.Gate
	levels audiogate.LevelSource

	// Speech recognition
	listener recognizer.Listener

	// Cognition
	reasoner cognition.Reasoner

	// Speech output
	provider   speech.Provider
	dispatcher *speech.Dispatcher

	// Memory and fallback
	memory    *memory.Memory
	fallbacks *fallback.Controller

	// Dashboard
	webServer *web.Server

	lastObs atomic.Pointer[scene.Observation]

	distressMu   sync.Mutex
	lastDistress time.Time

	startedAt time.Time
}

// Option overrides a component before Init wires the defaults. Used
// for tests and for the diagnostic commands.
type Option func(*App)

// WithLogger sets the application logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) { a.logger = logger }
}

// WithCaptureSource overrides the camera source.
func WithCaptureSource(s capture.Source) Option {
	return func(a *App) { a.source = s }
}

// WithAnalyzer overrides the scene analyzer.
func WithAnalyzer(an scene.Analyzer) Option {
	return func(a *App) { a.analyzer = an }
}

// WithReasoner overrides the cognition backend.
func WithReasoner(r cognition.Reasoner) Option {
	return func(a *App) { a.reasoner = r }
}

// WithListener overrides the speech recognizer.
func WithListener(l recognizer.Listener) Option {
	return func(a *App) { a.listener = l }
}

// WithLevelSource overrides the ambient loudness source.
func WithLevelSource(s audiogate.LevelSource) Option {
	return func(a *App) { a.levels = s }
}

// WithSpeechProvider overrides the synthesis backend.
func WithSpeechProvider(p speech.Provider) Option {
	return func(a *App) { a.provider = p }
}

// New creates a companion application with the given configuration.
func New(cfg Config, opts ...Option) (*App, error) {
	cfg.LoadEnvConfig()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &App{config: cfg}
	for _, opt := range opts {
		opt(app)
	}
	if app.logger == nil {
		app.logger = log.L()
	}
	return app, nil
}

// Init initializes all components. Call after New and before Run.
func (a *App) Init() error {
	if err := a.initMemory(); err != nil {
		return fmt.Errorf("memory init: %w", err)
	}
	if err := a.initAudio(); err != nil {
		return fmt.Errorf("audio init: %w", err)
	}
	if err := a.initFallback(); err != nil {
		return fmt.Errorf("fallback init: %w", err)
	}
	if err := a.initSpeech(); err != nil {
		return fmt.Errorf("speech init: %w", err)
	}
	if err := a.initCognition(); err != nil {
		return fmt.Errorf("cognition init: %w", err)
	}
	a.initWeb()
	if err := a.initPerception(); err != nil {
		return fmt.Errorf("perception init: %w", err)
	}
	return nil
}

func (a *App) initMemory() error {
	path := a.config.MemoryPath
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "/tmp"
		}
		path = home + "/.cinemate/memory.json"
	}
	a.memory = memory.NewWithFile(path)
	if err := a.memory.Load(); err != nil {
		a.logger.Warn("could not load memory, starting fresh", "path", path, "error", err)
	}
	a.logger.Info("memory ready", "path", path, "history", len(a.memory.History()))
	return nil
}

func (a *App) initAudio() error {
	gate, err := audiogate.New(audiogate.DefaultConfig(), a.logger)
	if err != nil {
		return err
	}
	a.gate = gate

	if a.levels == nil {
		// No hardware microphone metering is wired in yet; the
		// simulated source keeps the gate exercised in live mode too.
		a.levels = audiogate.NewSimulated(audiogate.DefaultConfig(), a.logger)
	}

	if a.listener == nil {
		if a.config.Demo {
			a.listener = recognizer.NewScripted(a.config.WakePhrase, demoSpeech())
		} else {
			a.listener = recognizer.NewScripted(a.config.WakePhrase, nil)
		}
	}
	return nil
}

func (a *App) initFallback() error {
	opts := []fallback.ControllerOption{}
	if a.config.ScriptPath != "" {
		timeline, overrides, err := fallback.LoadScript(a.config.ScriptPath)
		if err != nil {
			return fmt.Errorf("clip script %s: %w", a.config.ScriptPath, err)
		}
		opts = append(opts,
			fallback.WithTimeline(timeline),
			fallback.WithResponseOverrides(overrides))
		a.logger.Info("clip script loaded",
			"path", a.config.ScriptPath, "cues", len(timeline.Cues()))
	}
	a.fallbacks = fallback.NewController(a.logger, opts...)
	return nil
}

func (a *App) initSpeech() error {
	if a.provider == nil {
		if a.config.ElevenLabsKey == "" {
			a.logger.Warn("no ElevenLabs key, using mock synthesis")
			a.provider = speech.NewMock()
		} else {
			voice := a.config.ElevenLabsVoice
			if voice == "" {
				voice = speech.DefaultVoice
			}
			primary, err := speech.NewElevenLabsWS(
				speech.WithAPIKey(a.config.ElevenLabsKey),
				speech.WithVoice(speech.ResolveVoice(voice)),
				speech.WithLogger(a.logger),
			)
			if err != nil {
				return err
			}
			// ElevenLabs first; the mock provider catches synthesis
			// outages so the dispatcher keeps flowing.
			chain, err := speech.NewChainWithLogger(a.logger, primary, speech.NewMock())
			if err != nil {
				return err
			}
			a.provider = chain
		}
	}

	a.dispatcher = speech.NewDispatcher(a.provider, a.logger, speech.WithGate(a.gate))
	a.dispatcher.OnSpoken = func(u *speech.Utterance, result *speech.AudioResult) {
		a.memory.RecordUtterance(memory.Utterance{
			Text:     u.Text,
			Emotion:  string(u.Emotion),
			Reason:   u.Reason,
			SpokenAt: time.Now(),
		})
		if a.webServer != nil {
			a.webServer.AddLog("speech", u.Text)
			a.webServer.UpdateState(func(s *web.CompanionState) {
				s.LastUtterance = u.Text
			})
		}
	}
	return nil
}

func (a *App) initCognition() error {
	if a.reasoner != nil {
		return nil
	}
	if a.config.OpenAIKey == "" {
		a.logger.Warn("no OpenAI key, reasoner disabled, serving fallbacks only")
		return nil
	}
	cfg := cognition.DefaultConfig()
	cfg.APIKey = a.config.OpenAIKey
	reasoner, err := cognition.NewOpenAIReasoner(cfg, a.logger)
	if err != nil {
		return err
	}
	a.reasoner = reasoner
	return nil
}

func (a *App) initWeb() {
	srv := web.NewServer(a.config.ListenAddr, a.logger)

	srv.OnFallback = func(category string) (interface{}, error) {
		cat := fallback.ParseCategory(category)
		a.fallbacks.ForceCategory(cat)
		resp := a.fallbacks.Resolve(cat)
		a.enqueueResponse(resp)
		return resp, nil
	}
	srv.OnClipStart = func() error {
		timeline := a.fallbacks.Timeline()
		if timeline == nil {
			return errors.New("no clip script loaded")
		}
		timeline.Start()
		srv.AddLog("info", "clip timeline started")
		return nil
	}
	srv.OnClipStop = func() error {
		timeline := a.fallbacks.Timeline()
		if timeline == nil {
			return errors.New("no clip script loaded")
		}
		timeline.Stop()
		srv.AddLog("info", "clip timeline stopped")
		return nil
	}
	srv.OnListEntities = func() map[string]string {
		return a.memory.Entities()
	}
	srv.OnSetEntity = func(name, description string) error {
		a.memory.SetEntity(name, description)
		return a.memory.Save()
	}
	srv.OnStats = a.stats

	a.webServer = srv
}

func (a *App) initPerception() error {
	detector, err := keyframe.New(keyframe.DefaultConfig(), a.logger)
	if err != nil {
		return err
	}
	a.detector = detector

	if a.source == nil {
		if a.config.Demo {
			a.source = capture.NewMock()
		} else {
			cfg := capture.DefaultConfig()
			cfg.DeviceID = a.config.CameraDevice
			a.source = capture.NewWebcam(cfg, a.logger)
		}
	}

	if a.analyzer == nil {
		if a.config.GoogleAPIKey == "" {
			a.analyzer = scene.NewMockAnalyzer("a quiet living room, a film playing on the TV")
		} else {
			cfg := scene.DefaultConfig()
			cfg.APIKey = a.config.GoogleAPIKey
			analyzer, err := scene.NewGemini(cfg, a.logger)
			if err != nil {
				return err
			}
			a.analyzer = analyzer
		}
	}

	worker, err := perception.NewWorker(
		perception.DefaultConfig(), a.source, a.detector, a.analyzer, a.logger,
		perception.WithPreviewSink(a.sendPreview))
	if err != nil {
		return err
	}
	a.worker = worker
	return nil
}

func (a *App) sendPreview(f *capture.Frame) {
	if a.webServer == nil || len(f.JPEG) == 0 {
		return
	}
	if a.webServer.PreviewClientCount() == 0 {
		return
	}
	a.webServer.SendPreviewFrame(f.JPEG)
}

// Run starts all loops and blocks until the context is cancelled or a
// loop fails.
func (a *App) Run(ctx context.Context) error {
	a.startedAt = time.Now()
	a.webServer.StartAsync()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ignoreCancel(a.worker.Run(ctx)) })
	g.Go(func() error { return ignoreCancel(a.dispatcher.Run(ctx)) })
	g.Go(func() error { return a.audioLoop(ctx) })
	g.Go(func() error { return a.speechLoop(ctx) })
	g.Go(func() error { return a.cognitionLoop(ctx) })
	g.Go(func() error { return a.clipLoop(ctx) })

	a.webServer.UpdateState(func(s *web.CompanionState) {
		s.CameraConnected = true
		s.ReasonerOnline = a.reasoner != nil
	})
	a.webServer.AddLog("info", "companion started")
	a.greet()

	return ignoreCancel(g.Wait())
}

func ignoreCancel(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// audioLoop feeds ambient loudness samples into the gate and mirrors
// the gate state to the dashboard.
func (a *App) audioLoop(ctx context.Context) error {
	if err := a.levels.Start(ctx); err != nil {
		return fmt.Errorf("level source %s: %w", a.levels.Name(), err)
	}
	defer a.levels.Stop()

	// Stream is called once; re-evaluating it per iteration would
	// restart scripted sources mid-script.
	levels := a.levels.Stream()

	var lastPush time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case level, ok := <-levels:
			if !ok {
				return nil
			}
			a.gate.Observe(level)
			if time.Since(lastPush) >= 250*time.Millisecond {
				lastPush = time.Now()
				a.webServer.UpdateState(func(s *web.CompanionState) {
					s.AmbientLevel = a.gate.SmoothedLevel()
					s.SpeechPermitted = a.gate.IsSpeechPermitted()
				})
			}
		}
	}
}

// speechLoop consumes recognizer events.
func (a *App) speechLoop(ctx context.Context) error {
	if err := a.listener.Start(ctx); err != nil {
		return fmt.Errorf("listener %s: %w", a.listener.Name(), err)
	}
	defer a.listener.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-a.listener.Events():
			if !ok {
				return nil
			}
			a.handleSpeechEvent(ctx, ev)
		}
	}
}

func (a *App) handleSpeechEvent(ctx context.Context, ev recognizer.Event) {
	a.logger.Info("user speech", "kind", ev.Kind, "text", ev.Text)
	a.webServer.UpdateState(func(s *web.CompanionState) {
		s.LastUserSpeech = ev.Text
	})

	switch ev.Kind {
	case recognizer.KindDistress:
		a.handleDistress(ctx, ev)
	case recognizer.KindWake:
		a.webServer.AddLog("info", "wake phrase heard")
		a.enqueueResponse(a.fallbacks.Resolve(fallback.CategoryGreeting))
		a.cognitionPass(ctx, cognition.TriggerUtterance, a.lastObs.Load(), ev.Text)
	default:
		a.webServer.AddLog("speech", "user: "+ev.Text)
		a.cognitionPass(ctx, cognition.TriggerUtterance, a.lastObs.Load(), ev.Text)
	}
}

// handleDistress reacts immediately with a canned reassurance, then
// runs a cognition pass whose answer supersedes it if still pending.
// Reactions are rate-limited so safety messages do not spam.
func (a *App) handleDistress(ctx context.Context, ev recognizer.Event) {
	a.distressMu.Lock()
	if !a.lastDistress.IsZero() && time.Since(a.lastDistress) < a.config.DistressCooldown {
		a.distressMu.Unlock()
		a.logger.Debug("distress within cooldown, suppressed", "keyword", ev.Keyword)
		return
	}
	a.lastDistress = time.Now()
	a.distressMu.Unlock()

	a.logger.Warn("distress detected", "keyword", ev.Keyword, "text", ev.Text)
	a.webServer.AddLog("error", "distress: "+ev.Text)
	a.webServer.UpdateState(func(s *web.CompanionState) {
		s.DistressCooldown = true
	})
	time.AfterFunc(a.config.DistressCooldown, func() {
		a.webServer.UpdateState(func(s *web.CompanionState) {
			s.DistressCooldown = false
		})
	})

	a.enqueueResponse(a.fallbacks.Resolve(fallback.CategoryDistress))
	a.cognitionPass(ctx, cognition.TriggerDistress, a.lastObs.Load(), ev.Text)
}

// cognitionLoop runs a pass for every new observation and on a
// wall-clock interval between them.
func (a *App) cognitionLoop(ctx context.Context) error {
	obsCh := make(chan *scene.Observation)
	go func() {
		defer close(obsCh)
		for {
			obs, err := a.worker.Observations().Take(ctx)
			if err != nil {
				return
			}
			select {
			case obsCh <- obs:
			case <-ctx.Done():
				return
			}
		}
	}()

	ticker := time.NewTicker(a.config.CognitionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case obs, ok := <-obsCh:
			if !ok {
				return nil
			}
			a.lastObs.Store(obs)
			a.webServer.UpdateState(func(s *web.CompanionState) {
				s.LastObservation = obs.Caption
			})
			a.webServer.AddLog("scene", obs.Caption)
			a.cognitionPass(ctx, cognition.TriggerKeyframe, obs, "")
		case <-ticker.C:
			obs := a.lastObs.Load()
			if obs == nil {
				continue
			}
			a.cognitionPass(ctx, cognition.TriggerInterval, obs, "")
		}
	}
}

// inDistressCooldown reports whether a distress reaction happened
// within the cooldown window.
func (a *App) inDistressCooldown() bool {
	a.distressMu.Lock()
	defer a.distressMu.Unlock()
	return !a.lastDistress.IsZero() && time.Since(a.lastDistress) < a.config.DistressCooldown
}

// cognitionPass runs one reasoning pass and enqueues the result. On
// reasoner failure a canned response stands in, except for interval
// passes where silence is fine. Commentary passes (keyframe and
// interval) are skipped outright while the room is loud or a distress
// reaction is recent: there is no point reasoning about an utterance
// that could not be spoken, and safety outranks commentary.
func (a *App) cognitionPass(ctx context.Context, trigger cognition.Trigger, obs *scene.Observation, utterance string) {
	if trigger == cognition.TriggerKeyframe || trigger == cognition.TriggerInterval {
		if !a.gate.IsSpeechPermitted() || a.inDistressCooldown() {
			a.logger.Debug("commentary pass skipped",
				"trigger", trigger, "permitted", a.gate.IsSpeechPermitted())
			return
		}
	}
	if a.reasoner == nil {
		if trigger == cognition.TriggerDistress {
			return // canned reassurance already enqueued
		}
		if trigger == cognition.TriggerUtterance {
			a.enqueueResponse(a.fallbacks.Resolve(fallback.CategoryGeneric))
		}
		return
	}
	if obs == nil && utterance == "" {
		return
	}

	req := &cognition.Request{
		Observation:   obs,
		UserUtterance: utterance,
		Trigger:       trigger,
		History:       a.memory.RecentTexts(6),
		Entities:      a.memory.Entities(),
	}
	decision, err := a.reasoner.Decide(ctx, req)
	if err != nil {
		a.logger.Warn("cognition pass failed", "trigger", trigger, "error", err)
		a.webServer.AddLog("error", "reasoner: "+err.Error())
		a.webServer.UpdateState(func(s *web.CompanionState) {
			s.ReasonerOnline = false
			s.FallbackActive = true
		})
		switch trigger {
		case cognition.TriggerDistress:
			// canned reassurance already enqueued
		case cognition.TriggerKeyframe:
			a.enqueueResponse(a.fallbacks.Resolve(fallback.CategoryScene))
		case cognition.TriggerUtterance:
			a.enqueueResponse(a.fallbacks.Resolve(fallback.CategoryGeneric))
		}
		return
	}

	a.webServer.UpdateState(func(s *web.CompanionState) {
		s.ReasonerOnline = true
		s.FallbackActive = false
	})

	if !decision.ShouldSpeak || decision.Content == "" {
		a.logger.Debug("staying silent", "trigger", trigger, "reasoning", decision.Reasoning)
		return
	}
	a.dispatcher.Enqueue(speech.NewUtterance(decision.Content, decision.Emotion, decision.Reasoning))
}

// clipLoop speaks timeline cues while a clip is active and mirrors
// clip state to the dashboard.
func (a *App) clipLoop(ctx context.Context) error {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	var lastCue string
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			timeline := a.fallbacks.Timeline()
			if timeline == nil {
				continue
			}
			active := timeline.Active()
			a.webServer.UpdateState(func(s *web.CompanionState) {
				s.ClipActive = active
				if active {
					s.ClipElapsedSecs = timeline.Elapsed().Seconds()
				} else {
					s.ClipElapsedSecs = 0
				}
			})
			if !active {
				lastCue = ""
				continue
			}
			cue, ok := timeline.CueNow()
			if !ok || cue.Text == lastCue {
				continue
			}
			lastCue = cue.Text
			a.dispatcher.Enqueue(speech.NewUtterance(cue.Text, cue.Emotion, "clip cue"))
		}
	}
}

func (a *App) greet() {
	a.enqueueResponse(a.fallbacks.Resolve(fallback.CategoryGreeting))
}

func (a *App) enqueueResponse(resp fallback.Response) {
	a.dispatcher.Enqueue(speech.NewUtterance(resp.Text, resp.Emotion, string(resp.Category)))
}

// stats collects component counters for the dashboard.
func (a *App) stats() map[string]interface{} {
	stats := map[string]interface{}{
		"uptime_secs":         time.Since(a.startedAt).Seconds(),
		"perception":          a.worker.Stats(),
		"observation_pending": a.worker.Observations().Len(),
		"dispatcher":          a.dispatcher.Stats(),
		"fallback":            a.fallbacks.Stats(),
		"memory":              a.memory.Stats(),
		"levels_observed":     a.gate.Observed(),
	}
	evaluated, accepted := a.detector.Stats()
	stats["keyframe"] = map[string]uint64{
		"evaluated": evaluated,
		"accepted":  accepted,
	}
	return stats
}

// Shutdown says goodbye and releases all components. The farewell is
// synthesized directly since the dispatcher loop has already stopped.
func (a *App) Shutdown() {
	resp := a.fallbacks.Resolve(fallback.CategoryFarewell)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if _, err := a.provider.Synthesize(ctx, resp.Text, speech.StyleForEmotion(resp.Emotion)); err != nil {
		a.logger.Debug("farewell synthesis failed", "error", err)
	} else {
		a.memory.RecordUtterance(memory.Utterance{
			Text:     resp.Text,
			Emotion:  string(resp.Emotion),
			Reason:   string(resp.Category),
			SpokenAt: time.Now(),
		})
	}

	if err := a.memory.Close(); err != nil {
		a.logger.Warn("memory save failed", "error", err)
	}
	if err := a.provider.Close(); err != nil {
		a.logger.Debug("provider close failed", "error", err)
	}
	if a.webServer != nil {
		if err := a.webServer.Shutdown(); err != nil {
			a.logger.Debug("web shutdown failed", "error", err)
		}
	}
	a.logger.Info("companion stopped")
}

// demoSpeech is the scripted conversation replayed in demo mode.
func demoSpeech() []recognizer.Line {
	return []recognizer.Line{
		{After: 5 * time.Second, Text: "hey cinemate"},
		{After: 12 * time.Second, Text: "this one is my favourite scene"},
		{After: 25 * time.Second, Text: "who was that actor again"},
		{After: 45 * time.Second, Text: "oh no, help, I dropped my glass"},
	}
}
