package scene

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cinemate/go-cinemate/pkg/capture"
)

func testFrame() *capture.Frame {
	return &capture.Frame{
		Seq:       7,
		Timestamp: time.Now(),
		Width:     64,
		Height:    48,
		JPEG:      []byte{0xff, 0xd8, 0xff, 0xd9},
	}
}

func geminiBody(text string) string {
	b, _ := json.Marshal(map[string]interface{}{
		"candidates": []map[string]interface{}{
			{"content": map[string]interface{}{
				"parts": []map[string]interface{}{{"text": text}},
			}},
		},
	})
	return string(b)
}

func testConfig(baseURL string) Config {
	cfg := DefaultConfig()
	cfg.APIKey = "test-key"
	cfg.BaseURL = baseURL
	cfg.RetryBaseDelay = time.Millisecond
	return cfg
}

func TestGeminiAnalyze(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, geminiBody(`{"caption": "A man sits on a couch watching TV.", "tags": ["couch", "tv"], "people_count": 1, "confidence": 0.85}`))
	}))
	defer srv.Close()

	g, err := NewGemini(testConfig(srv.URL), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	obs, err := g.Analyze(context.Background(), testFrame())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obs.Caption != "A man sits on a couch watching TV." {
		t.Errorf("unexpected caption: %q", obs.Caption)
	}
	if obs.PeopleCount != 1 {
		t.Errorf("expected 1 person, got %d", obs.PeopleCount)
	}
	if obs.FrameSeq != 7 {
		t.Errorf("expected frame seq 7, got %d", obs.FrameSeq)
	}
}

func TestGeminiRetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, geminiBody(`{"caption": "ok", "tags": [], "people_count": 0, "confidence": 0.5}`))
	}))
	defer srv.Close()

	g, err := NewGemini(testConfig(srv.URL), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	obs, err := g.Analyze(context.Background(), testFrame())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obs.Caption != "ok" {
		t.Errorf("unexpected caption: %q", obs.Caption)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected 3 calls, got %d", got)
	}
}

func TestGeminiGivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	g, err := NewGemini(testConfig(srv.URL), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := g.Analyze(context.Background(), testFrame()); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected 3 calls, got %d", got)
	}
}

func TestGeminiDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error": {"message": "bad request"}}`)
	}))
	defer srv.Close()

	g, err := NewGemini(testConfig(srv.URL), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = g.Analyze(context.Background(), testFrame())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", apiErr.StatusCode)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("expected 1 call, got %d", got)
	}
}

func TestGeminiEmptyFrame(t *testing.T) {
	g, err := NewGemini(testConfig("http://localhost:0"), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := g.Analyze(context.Background(), &capture.Frame{}); !errors.Is(err, ErrEmptyFrame) {
		t.Errorf("expected ErrEmptyFrame, got %v", err)
	}
}

func TestParseObservation(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    string
		wantErr bool
	}{
		{
			name: "plain json",
			text: `{"caption": "A quiet room.", "tags": [], "people_count": 0, "confidence": 0.7}`,
			want: "A quiet room.",
		},
		{
			name: "markdown fenced",
			text: "```json\n{\"caption\": \"Fenced.\", \"tags\": [], \"people_count\": 0, \"confidence\": 0.5}\n```",
			want: "Fenced.",
		},
		{
			name:    "not json",
			text:    "I see a room with a couch.",
			wantErr: true,
		},
		{
			name:    "missing caption",
			text:    `{"tags": ["couch"], "people_count": 0, "confidence": 0.5}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs, err := parseObservation(tt.text)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseObservation() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && obs.Caption != tt.want {
				t.Errorf("caption = %q, want %q", obs.Caption, tt.want)
			}
		})
	}
}

func TestParseObservationClampsValues(t *testing.T) {
	obs, err := parseObservation(`{"caption": "x", "tags": [], "people_count": -2, "confidence": 1.5}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obs.PeopleCount != 0 {
		t.Errorf("expected people count clamped to 0, got %d", obs.PeopleCount)
	}
	if obs.Confidence != 1 {
		t.Errorf("expected confidence clamped to 1, got %f", obs.Confidence)
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"rate limited", &APIError{StatusCode: 429}, true},
		{"server error", &APIError{StatusCode: 503}, true},
		{"client error", &APIError{StatusCode: 400}, false},
		{"no api key", ErrNoAPIKey, false},
		{"empty frame", ErrEmptyFrame, false},
		{"no candidates", ErrNoCandidates, false},
		{"deadline", context.DeadlineExceeded, true},
		{"other", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := testConfig("http://localhost")
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}

	cfg.APIKey = ""
	if err := cfg.Validate(); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("expected ErrNoAPIKey, got %v", err)
	}
}
