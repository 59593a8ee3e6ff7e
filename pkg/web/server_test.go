package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandleHealth(t *testing.T) {
	s := NewServer(":0", nil)

	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestHandleStatus(t *testing.T) {
	s := NewServer(":0", nil)
	s.UpdateState(func(st *CompanionState) {
		st.CameraConnected = true
		st.LastUtterance = "hello"
	})
	s.OnStats = func() map[string]interface{} {
		return map[string]interface{}{"frames": 42}
	}

	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/api/status", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)

	var decoded struct {
		State CompanionState         `json:"state"`
		Stats map[string]interface{} `json:"stats"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if !decoded.State.CameraConnected || decoded.State.LastUtterance != "hello" {
		t.Errorf("unexpected state: %+v", decoded.State)
	}
	if decoded.Stats["frames"] != float64(42) {
		t.Errorf("unexpected stats: %v", decoded.Stats)
	}
}

func TestHandleFallback(t *testing.T) {
	s := NewServer(":0", nil)

	var got string
	s.OnFallback = func(category string) (interface{}, error) {
		got = category
		return map[string]string{"text": "hi"}, nil
	}

	resp, err := s.app.Test(httptest.NewRequest(http.MethodPost, "/api/fallback/greeting", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if got != "greeting" {
		t.Errorf("category = %q, want greeting", got)
	}
}

func TestHandleFallbackNotWired(t *testing.T) {
	s := NewServer(":0", nil)

	resp, err := s.app.Test(httptest.NewRequest(http.MethodPost, "/api/fallback/greeting", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusNotImplemented {
		t.Errorf("status = %d, want 501", resp.StatusCode)
	}
}

func TestHandleClipControls(t *testing.T) {
	s := NewServer(":0", nil)

	var started, stopped bool
	s.OnClipStart = func() error { started = true; return nil }
	s.OnClipStop = func() error { stopped = true; return nil }

	if resp, _ := s.app.Test(httptest.NewRequest(http.MethodPost, "/api/clip/start", nil)); resp.StatusCode != http.StatusOK {
		t.Errorf("clip start status = %d", resp.StatusCode)
	}
	if resp, _ := s.app.Test(httptest.NewRequest(http.MethodPost, "/api/clip/stop", nil)); resp.StatusCode != http.StatusOK {
		t.Errorf("clip stop status = %d", resp.StatusCode)
	}
	if !started || !stopped {
		t.Error("expected clip callbacks invoked")
	}
}

func TestHandleEntities(t *testing.T) {
	s := NewServer(":0", nil)

	store := map[string]string{}
	s.OnListEntities = func() map[string]string { return store }
	s.OnSetEntity = func(name, desc string) error {
		store[name] = desc
		return nil
	}

	req := httptest.NewRequest(http.MethodPost, "/api/entities",
		strings.NewReader(`{"name": "Margaret", "description": "the user"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if store["Margaret"] != "the user" {
		t.Errorf("entity not stored: %v", store)
	}

	resp, err = s.app.Test(httptest.NewRequest(http.MethodGet, "/api/entities", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	var listed map[string]string
	if err := json.Unmarshal(body, &listed); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if listed["Margaret"] != "the user" {
		t.Errorf("unexpected listing: %v", listed)
	}
}

func TestHandleSetEntityValidation(t *testing.T) {
	s := NewServer(":0", nil)
	s.OnSetEntity = func(name, desc string) error { return errors.New("should not be called") }

	req := httptest.NewRequest(http.MethodPost, "/api/entities",
		strings.NewReader(`{"description": "no name"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestLogBuffer(t *testing.T) {
	s := NewServer(":0", nil)

	for i := 0; i < maxLogEntries+10; i++ {
		s.AddLog("info", "line")
	}

	s.logsMu.RLock()
	n := len(s.logs)
	s.logsMu.RUnlock()
	if n != maxLogEntries {
		t.Errorf("expected log buffer capped at %d, got %d", maxLogEntries, n)
	}
}
