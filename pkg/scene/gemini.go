package scene

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cinemate/go-cinemate/internal/httpc"
	"github.com/cinemate/go-cinemate/pkg/capture"
)

const scenePrompt = `You are the eyes of a companion that watches a living room and a movie playing on a TV. Describe this camera frame as JSON with exactly these fields:
{"caption": "one or two sentences describing the scene", "tags": ["short", "labels"], "people_count": 0, "confidence": 0.0}
Caption what is actually visible. Count only real people in the room, not people on the TV screen. Confidence is between 0 and 1. Respond with only the JSON object, no markdown.`

// Gemini describes frames using the Gemini vision API.
type Gemini struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

// NewGemini creates a Gemini scene analyzer.
func NewGemini(cfg Config, logger *slog.Logger) (*Gemini, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gemini{
		cfg:    cfg,
		client: httpc.NewClient(cfg.Timeout),
		logger: logger.With("component", "scene", "model", cfg.Model),
	}, nil
}

// Analyze describes the frame, retrying transient failures with
// exponential backoff up to the configured attempt count.
func (g *Gemini) Analyze(ctx context.Context, frame *capture.Frame) (*Observation, error) {
	if frame == nil || len(frame.JPEG) == 0 {
		return nil, ErrEmptyFrame
	}

	var lastErr error
	delay := g.cfg.RetryBaseDelay
	for attempt := 1; attempt <= g.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			g.logger.Warn("retrying scene analysis",
				"attempt", attempt, "delay", delay, "error", lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		obs, err := g.analyzeOnce(ctx, frame)
		if err == nil {
			return obs, nil
		}
		lastErr = err
		if !IsTransient(err) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("scene: analysis failed after %d attempts: %w", g.cfg.MaxAttempts, lastErr)
}

func (g *Gemini) analyzeOnce(ctx context.Context, frame *capture.Frame) (*Observation, error) {
	payload := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"parts": []map[string]interface{}{
					{"text": scenePrompt},
					{"inline_data": map[string]string{
						"mime_type": "image/jpeg",
						"data":      base64.StdEncoding.EncodeToString(frame.JPEG),
					}},
				},
			},
		},
		"generationConfig": map[string]interface{}{
			"temperature":     0.4,
			"maxOutputTokens": 500,
		},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("scene: failed to encode request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		g.cfg.BaseURL, g.cfg.Model, g.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("scene: failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scene: API request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("scene: failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		json.Unmarshal(bodyBytes, &errResp)
		return nil, &APIError{StatusCode: resp.StatusCode, Message: errResp.Error.Message}
	}

	var result geminiResponse
	if err := json.Unmarshal(bodyBytes, &result); err != nil {
		return nil, fmt.Errorf("scene: failed to decode response: %w (body: %s)", err, truncate(string(bodyBytes), 200))
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, ErrNoCandidates
	}

	obs, err := parseObservation(result.Candidates[0].Content.Parts[0].Text)
	if err != nil {
		return nil, err
	}
	obs.ID = uuid.New()
	obs.Timestamp = frame.Timestamp
	if obs.Timestamp.IsZero() {
		obs.Timestamp = time.Now()
	}
	obs.FrameSeq = frame.Seq
	return obs, nil
}

// Name returns "gemini".
func (g *Gemini) Name() string { return "gemini" }

// parseObservation decodes the model's JSON answer. Models sometimes
// wrap JSON in markdown fences despite instructions, so those are
// stripped first.
func parseObservation(text string) (*Observation, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var raw struct {
		Caption     string   `json:"caption"`
		Tags        []string `json:"tags"`
		PeopleCount int      `json:"people_count"`
		Confidence  float64  `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("scene: failed to parse observation: %w (text: %s)", err, truncate(text, 200))
	}
	if raw.Caption == "" {
		return nil, fmt.Errorf("scene: observation has no caption (text: %s)", truncate(text, 200))
	}
	if raw.Confidence < 0 {
		raw.Confidence = 0
	} else if raw.Confidence > 1 {
		raw.Confidence = 1
	}
	if raw.PeopleCount < 0 {
		raw.PeopleCount = 0
	}

	return &Observation{
		Caption:     raw.Caption,
		Tags:        raw.Tags,
		PeopleCount: raw.PeopleCount,
		Confidence:  raw.Confidence,
	}, nil
}

// geminiResponse is the response structure from the Gemini API.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// truncate shortens a string to maxLen characters.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}

var _ Analyzer = (*Gemini)(nil)
