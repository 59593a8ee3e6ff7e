package fallback

import (
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cinemate/go-cinemate/pkg/cognition"
)

// Cue is one scripted line tied to a time range within a clip.
// A cue covers [Start, End): a cue ending at 60s no longer matches at
// exactly 60 seconds.
type Cue struct {
	Start   time.Duration
	End     time.Duration
	Text    string
	Emotion cognition.Emotion
}

// Timeline is a script for a known clip: while the clip plays,
// elapsed time selects a cue.
type Timeline struct {
	mu        sync.Mutex
	cues      []Cue
	startedAt time.Time
	active    bool
}

// NewTimeline creates a timeline from cues, which are kept sorted by
// start time.
func NewTimeline(cues []Cue) *Timeline {
	sorted := append([]Cue(nil), cues...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})
	return &Timeline{cues: sorted}
}

// Start marks the clip as playing from now.
func (t *Timeline) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.startedAt = time.Now()
	t.active = true
}

// Stop marks the clip as no longer playing.
func (t *Timeline) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = false
}

// Active reports whether a clip is playing.
func (t *Timeline) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// Elapsed returns how long the clip has been playing, or 0 when
// inactive.
func (t *Timeline) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active {
		return 0
	}
	return time.Since(t.startedAt)
}

// CueNow returns the cue covering the current elapsed time, if the
// clip is active and one matches.
func (t *Timeline) CueNow() (Cue, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active {
		return Cue{}, false
	}
	return t.cueAt(time.Since(t.startedAt))
}

// CueAt returns the cue covering the given elapsed time, regardless
// of whether the clip is active.
func (t *Timeline) CueAt(elapsed time.Duration) (Cue, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cueAt(elapsed)
}

func (t *Timeline) cueAt(elapsed time.Duration) (Cue, bool) {
	for _, cue := range t.cues {
		if elapsed >= cue.Start && elapsed < cue.End {
			return cue, true
		}
	}
	return Cue{}, false
}

// Cues returns a copy of the script.
func (t *Timeline) Cues() []Cue {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Cue(nil), t.cues...)
}

// scriptFile is the YAML layout for a clip script.
type scriptFile struct {
	Clip struct {
		Title string `yaml:"title"`
		Cues  []struct {
			Start   float64 `yaml:"start"`
			End     float64 `yaml:"end"`
			Text    string  `yaml:"text"`
			Emotion string  `yaml:"emotion"`
		} `yaml:"cues"`
	} `yaml:"clip"`
	Responses map[string][]string `yaml:"responses"`
}

// LoadScript reads a clip script from a YAML file. Start and end are
// seconds from the beginning of the clip. The optional responses
// section overrides canned lines per category.
func LoadScript(path string) (*Timeline, map[Category][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("fallback: read script: %w", err)
	}
	return parseScript(data)
}

func parseScript(data []byte) (*Timeline, map[Category][]string, error) {
	var file scriptFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, nil, fmt.Errorf("fallback: parse script: %w", err)
	}

	cues := make([]Cue, 0, len(file.Clip.Cues))
	for i, c := range file.Clip.Cues {
		if c.End <= c.Start {
			return nil, nil, fmt.Errorf("fallback: cue %d: end %.1fs not after start %.1fs", i, c.End, c.Start)
		}
		if c.Text == "" {
			return nil, nil, fmt.Errorf("fallback: cue %d: empty text", i)
		}
		emotion := cognition.Emotion(c.Emotion)
		if !emotion.Valid() {
			emotion = cognition.EmotionNeutral
		}
		cues = append(cues, Cue{
			Start:   time.Duration(c.Start * float64(time.Second)),
			End:     time.Duration(c.End * float64(time.Second)),
			Text:    c.Text,
			Emotion: emotion,
		})
	}

	overrides := make(map[Category][]string, len(file.Responses))
	for name, texts := range file.Responses {
		overrides[ParseCategory(name)] = texts
	}

	return NewTimeline(cues), overrides, nil
}
