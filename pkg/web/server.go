// Package web provides the operator dashboard for the companion: a
// JSON API for state and manual controls, plus websocket streams for
// live status, logs, and the camera preview.
package web

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/cinemate/go-cinemate/pkg/hub"
)

const maxLogEntries = 500

// CompanionState is the live state snapshot shown on the dashboard.
type CompanionState struct {
	CameraConnected  bool    `json:"camera_connected"`
	ReasonerOnline   bool    `json:"reasoner_online"`
	FallbackActive   bool    `json:"fallback_active"`
	Speaking         bool    `json:"speaking"`
	SpeechPermitted  bool    `json:"speech_permitted"`
	AmbientLevel     float64 `json:"ambient_level"`
	ClipActive       bool    `json:"clip_active"`
	ClipElapsedSecs  float64 `json:"clip_elapsed_secs"`
	LastObservation  string  `json:"last_observation"`
	LastUtterance    string  `json:"last_utterance"`
	LastUserSpeech   string  `json:"last_user_speech"`
	DistressCooldown bool    `json:"distress_cooldown"`
}

// LogEntry is one log line for the dashboard.
type LogEntry struct {
	Time    string `json:"time"`
	Type    string `json:"type"` // info, speech, scene, error, fallback
	Message string `json:"message"`
}

// Server is the operator dashboard server.
type Server struct {
	app    *fiber.App
	addr   string
	logger *slog.Logger

	state   CompanionState
	stateMu sync.RWMutex

	logs   []LogEntry
	logsMu sync.RWMutex

	statusHub  *hub.Hub
	logHub     *hub.Hub
	previewHub *hub.Hub

	// OnFallback forces a fallback response of the given category.
	OnFallback func(category string) (interface{}, error)

	// OnClipStart and OnClipStop control the clip timeline.
	OnClipStart func() error
	OnClipStop  func() error

	// OnListEntities and OnSetEntity expose the companion's known
	// entities.
	OnListEntities func() map[string]string
	OnSetEntity    func(name, description string) error

	// OnStats returns component counters for /api/status.
	OnStats func() map[string]interface{}
}

// NewServer creates the dashboard server listening on addr.
func NewServer(addr string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		addr:       addr,
		logger:     logger.With("component", "web"),
		logs:       make([]LogEntry, 0, maxLogEntries),
		statusHub:  hub.New("status", logger),
		logHub:     hub.New("logs", logger),
		previewHub: hub.New("preview", logger),
	}

	app := fiber.New(fiber.Config{
		AppName:               "CineMate Dashboard",
		DisableStartupMessage: true,
	})

	app.Use(cors.New())
	app.Static("/", "./web")

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/health", s.handleHealth)
	api.Get("/logs", s.handleGetLogs)
	api.Post("/fallback/:category", s.handleFallback)
	api.Post("/clip/start", s.handleClipStart)
	api.Post("/clip/stop", s.handleClipStop)
	api.Get("/entities", s.handleListEntities)
	api.Post("/entities", s.handleSetEntity)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/status", websocket.New(s.handleStatusWS))
	app.Get("/ws/logs", websocket.New(s.handleLogsWS))
	app.Get("/ws/preview", websocket.New(s.handlePreviewWS))

	s.app = app
	return s
}

// Start runs the hubs and the HTTP listener. Blocks.
func (s *Server) Start() error {
	s.logger.Info("dashboard listening", "addr", s.addr)

	go s.statusHub.Run()
	go s.logHub.Run()
	go s.previewHub.Run()

	return s.app.Listen(s.addr)
}

// StartAsync starts the server in a goroutine.
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			s.logger.Error("dashboard server stopped", "error", err)
		}
	}()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// UpdateState applies a mutation to the state and broadcasts the
// result to status subscribers.
func (s *Server) UpdateState(update func(*CompanionState)) {
	s.stateMu.Lock()
	update(&s.state)
	state := s.state
	s.stateMu.Unlock()

	s.statusHub.BroadcastJSON(state)
}

// State returns a copy of the current state.
func (s *Server) State() CompanionState {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

// AddLog records a log entry and broadcasts it to log subscribers.
func (s *Server) AddLog(logType, message string) {
	entry := LogEntry{
		Time:    time.Now().Format("15:04:05"),
		Type:    logType,
		Message: message,
	}

	s.logsMu.Lock()
	s.logs = append(s.logs, entry)
	if len(s.logs) > maxLogEntries {
		s.logs = s.logs[1:]
	}
	s.logsMu.Unlock()

	s.logHub.BroadcastJSON(entry)
}

// SendPreviewFrame broadcasts a JPEG preview frame.
func (s *Server) SendPreviewFrame(jpeg []byte) {
	s.previewHub.BroadcastBinary(jpeg)
}

// PreviewClientCount returns how many preview subscribers are
// connected, so frame encoding can be skipped when nobody watches.
func (s *Server) PreviewClientCount() int {
	return s.previewHub.ClientCount()
}
