package speech

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const elevenLabsWSBaseURL = "wss://api.elevenlabs.io/v1/text-to-speech"

// ElevenLabsWS synthesizes speech over the ElevenLabs stream-input
// WebSocket API. Each Synthesize call opens one session: voice
// settings go in the opening message, the text follows, and audio
// chunks are collected until the service marks the stream final.
type ElevenLabsWS struct {
	config *Config
	logger *slog.Logger
}

// NewElevenLabsWS creates a WebSocket-based ElevenLabs provider.
func NewElevenLabsWS(opts ...Option) (*ElevenLabsWS, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if err := cfg.ValidateWithVoice(); err != nil {
		return nil, err
	}

	return &ElevenLabsWS{
		config: cfg,
		logger: cfg.Logger.With("component", "speech.elevenlabs_ws"),
	}, nil
}

// Synthesize runs one streaming session and returns the collected
// audio.
func (e *ElevenLabsWS) Synthesize(ctx context.Context, text string, style VoiceStyle) (*AudioResult, error) {
	if text == "" {
		return nil, WrapError("elevenlabs_ws", ErrEmptyText)
	}

	ctx, cancel := context.WithTimeout(ctx, e.config.StreamTimeout)
	defer cancel()

	conn, err := e.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	start := time.Now()

	// Opening message carries the voice settings for this utterance.
	bos := map[string]interface{}{
		"text": " ",
		"voice_settings": map[string]interface{}{
			"stability":         style.Stability,
			"similarity_boost":  style.SimilarityBoost,
			"style":             style.Style,
			"use_speaker_boost": style.SpeakerBoost,
		},
		"generation_config": map[string]interface{}{
			"chunk_length_schedule": []int{120, 160, 250, 290},
		},
	}
	if err := conn.WriteJSON(bos); err != nil {
		return nil, WrapError("elevenlabs_ws", fmt.Errorf("send BOS: %w", err))
	}
	if err := conn.WriteJSON(map[string]interface{}{"text": text + " "}); err != nil {
		return nil, WrapError("elevenlabs_ws", fmt.Errorf("send text: %w", err))
	}
	// Empty text marks end of stream.
	if err := conn.WriteJSON(map[string]interface{}{"text": ""}); err != nil {
		return nil, WrapError("elevenlabs_ws", fmt.Errorf("send EOS: %w", err))
	}

	var audio []byte
	var firstByte time.Duration
	for {
		if deadline, ok := ctx.Deadline(); ok {
			conn.SetReadDeadline(deadline)
		}
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				break
			}
			return nil, WrapError("elevenlabs_ws", fmt.Errorf("read: %w", err))
		}

		var resp struct {
			Audio   string `json:"audio"`
			IsFinal bool   `json:"isFinal"`
			Error   string `json:"error"`
		}
		if err := json.Unmarshal(message, &resp); err != nil {
			e.logger.Warn("failed to parse response", "error", err)
			continue
		}
		if resp.Error != "" {
			return nil, WrapError("elevenlabs_ws", fmt.Errorf("service error: %s", resp.Error))
		}

		if resp.Audio != "" {
			chunk, err := base64.StdEncoding.DecodeString(resp.Audio)
			if err != nil {
				e.logger.Warn("failed to decode audio chunk", "error", err)
				continue
			}
			if len(audio) == 0 {
				firstByte = time.Since(start)
			}
			audio = append(audio, chunk...)
		}
		if resp.IsFinal {
			break
		}
	}

	sampleRate := SampleRateFromEncoding(e.config.OutputFormat)
	result := &AudioResult{
		Audio: audio,
		Format: AudioFormat{
			Encoding:   e.config.OutputFormat,
			SampleRate: sampleRate,
			Channels:   1,
			BitDepth:   16,
		},
		CharCount: len(text),
		LatencyMs: firstByte.Milliseconds(),
	}
	if sampleRate > 0 {
		samples := len(audio) / 2
		result.Duration = time.Duration(samples) * time.Second / time.Duration(sampleRate)
	}

	e.logger.Debug("synthesis complete",
		"chars", len(text),
		"bytes", len(audio),
		"latency_ms", result.LatencyMs)
	return result, nil
}

func (e *ElevenLabsWS) dial(ctx context.Context) (*websocket.Conn, error) {
	base := e.config.BaseURL
	if base == "" {
		base = elevenLabsWSBaseURL
	}
	url := fmt.Sprintf("%s/%s/stream-input?model_id=%s&output_format=%s",
		base, e.config.VoiceID, e.config.ModelID, e.config.OutputFormat)

	headers := http.Header{}
	headers.Set("xi-api-key", e.config.APIKey)

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, resp, err := dialer.DialContext(ctx, url, headers)
	if err != nil {
		if resp != nil {
			return nil, &APIError{
				Provider:   "elevenlabs_ws",
				StatusCode: resp.StatusCode,
				Message:    err.Error(),
			}
		}
		return nil, WrapError("elevenlabs_ws", fmt.Errorf("websocket dial failed: %w", err))
	}
	return conn, nil
}

// Health opens and immediately closes a session to verify the API key
// and voice are accepted.
func (e *ElevenLabsWS) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	conn, err := e.dial(ctx)
	if err != nil {
		return err
	}
	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return conn.Close()
}

// Close releases resources. Sessions are per-call, so this is a no-op.
func (e *ElevenLabsWS) Close() error {
	return nil
}

// VoiceID returns the configured voice ID.
func (e *ElevenLabsWS) VoiceID() string {
	return e.config.VoiceID
}

var _ Provider = (*ElevenLabsWS)(nil)
