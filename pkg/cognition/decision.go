package cognition

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseDecision decodes a model answer into a Decision, applying
// defaults for missing or invalid fields rather than failing: a model
// that forgets a field should degrade to silence, not crash a pass.
func ParseDecision(text string) (*Decision, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var raw struct {
		ShouldSpeak *bool   `json:"should_speak"`
		Emotion     Emotion `json:"emotion"`
		Content     string  `json:"content"`
		Reasoning   string  `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("cognition: failed to parse decision: %w", err)
	}

	d := &Decision{
		Emotion:   raw.Emotion,
		Content:   strings.TrimSpace(raw.Content),
		Reasoning: strings.TrimSpace(raw.Reasoning),
	}
	if raw.ShouldSpeak != nil {
		d.ShouldSpeak = *raw.ShouldSpeak
	}
	if !d.Emotion.Valid() {
		d.Emotion = EmotionNeutral
	}
	if d.Reasoning == "" {
		d.Reasoning = "no reasoning"
	}
	if d.Content == "" {
		d.ShouldSpeak = false
	}
	return d, nil
}
