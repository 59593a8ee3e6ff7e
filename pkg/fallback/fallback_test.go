package fallback

import (
	"testing"
	"time"

	"github.com/cinemate/go-cinemate/pkg/cognition"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in   string
		want Category
	}{
		{"greeting", CategoryGreeting},
		{"Scene_Description", CategoryScene},
		{"distress", CategoryDistress},
		{"farewell", CategoryFarewell},
		{"generic", CategoryGeneric},
		{"", CategoryGeneric},
		{"nonsense", CategoryGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseCategory(tt.in); got != tt.want {
				t.Errorf("ParseCategory(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestResponsesPick(t *testing.T) {
	r := NewResponses()

	resp := r.Pick(CategoryDistress)
	if resp.Text == "" {
		t.Error("expected non-empty response text")
	}
	if resp.Emotion != cognition.EmotionEmpathetic {
		t.Errorf("expected empathetic emotion for distress, got %q", resp.Emotion)
	}
	if resp.Category != CategoryDistress {
		t.Errorf("expected distress category, got %q", resp.Category)
	}
}

func TestResponsesPickUnknownFallsBackToGeneric(t *testing.T) {
	r := NewResponses()
	resp := r.Pick(Category("mystery"))
	if resp.Category != CategoryGeneric {
		t.Errorf("expected generic category, got %q", resp.Category)
	}
}

func TestResponsesSet(t *testing.T) {
	r := NewResponses()
	r.Set(CategoryGreeting, []string{"custom hello"})

	resp := r.Pick(CategoryGreeting)
	if resp.Text != "custom hello" {
		t.Errorf("expected custom line, got %q", resp.Text)
	}

	// Empty set restores the defaults.
	r.Set(CategoryGreeting, nil)
	if resp := r.Pick(CategoryGreeting); resp.Text == "custom hello" {
		t.Error("expected defaults restored")
	}
}

func TestTimelineCueAt(t *testing.T) {
	tl := NewTimeline([]Cue{
		{Start: 0, End: 10 * time.Second, Text: "A"},
		{Start: 30 * time.Second, End: 60 * time.Second, Text: "B"},
	})

	tests := []struct {
		elapsed time.Duration
		want    string
		ok      bool
	}{
		{0, "A", true},
		{5 * time.Second, "A", true},
		{10 * time.Second, "", false},
		{29 * time.Second, "", false},
		{30 * time.Second, "B", true},
		{45 * time.Second, "B", true},
		{59 * time.Second, "B", true},
		{60 * time.Second, "", false},
	}

	for _, tt := range tests {
		cue, ok := tl.CueAt(tt.elapsed)
		if ok != tt.ok {
			t.Errorf("CueAt(%v) ok = %v, want %v", tt.elapsed, ok, tt.ok)
			continue
		}
		if ok && cue.Text != tt.want {
			t.Errorf("CueAt(%v) = %q, want %q", tt.elapsed, cue.Text, tt.want)
		}
	}
}

func TestTimelineActivation(t *testing.T) {
	tl := NewTimeline([]Cue{{Start: 0, End: time.Hour, Text: "A"}})

	if _, ok := tl.CueNow(); ok {
		t.Error("expected no cue while clip inactive")
	}

	tl.Start()
	if !tl.Active() {
		t.Error("expected clip active after Start")
	}
	if cue, ok := tl.CueNow(); !ok || cue.Text != "A" {
		t.Errorf("expected cue A, got %v (ok=%v)", cue, ok)
	}

	tl.Stop()
	if tl.Active() {
		t.Error("expected clip inactive after Stop")
	}
	if tl.Elapsed() != 0 {
		t.Error("expected zero elapsed while inactive")
	}
}

func TestParseScript(t *testing.T) {
	data := []byte(`
clip:
  title: "Singin' in the Rain"
  cues:
    - start: 30
      end: 60
      text: "This is the famous rain scene!"
      emotion: cheerful
    - start: 0
      end: 10
      text: "Here we go."
responses:
  greeting:
    - "Welcome back!"
`)
	tl, overrides, err := parseScript(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cues := tl.Cues()
	if len(cues) != 2 {
		t.Fatalf("expected 2 cues, got %d", len(cues))
	}
	// Cues are sorted by start time.
	if cues[0].Text != "Here we go." {
		t.Errorf("expected cues sorted by start, got %q first", cues[0].Text)
	}
	if cues[1].Emotion != cognition.EmotionCheerful {
		t.Errorf("expected cheerful cue, got %q", cues[1].Emotion)
	}
	// Missing emotion defaults to neutral.
	if cues[0].Emotion != cognition.EmotionNeutral {
		t.Errorf("expected neutral default, got %q", cues[0].Emotion)
	}

	if cue, ok := tl.CueAt(45 * time.Second); !ok || cue.Text != "This is the famous rain scene!" {
		t.Errorf("expected rain scene cue at 45s, got %v (ok=%v)", cue, ok)
	}

	if lines := overrides[CategoryGreeting]; len(lines) != 1 || lines[0] != "Welcome back!" {
		t.Errorf("unexpected greeting overrides: %v", lines)
	}
}

func TestParseScriptRejectsBadCues(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"end before start", "clip:\n  cues:\n    - start: 10\n      end: 5\n      text: x\n"},
		{"empty text", "clip:\n  cues:\n    - start: 0\n      end: 5\n      text: \"\"\n"},
		{"not yaml", ": ["},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := parseScript([]byte(tt.data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestControllerServesScriptedCue(t *testing.T) {
	tl := NewTimeline([]Cue{{Start: 0, End: time.Hour, Text: "scripted line", Emotion: cognition.EmotionCalm}})
	c := NewController(nil, WithTimeline(tl))

	// Clip inactive: canned response.
	if resp := c.Resolve(CategoryScene); resp.Scripted {
		t.Error("expected canned response while clip inactive")
	}

	tl.Start()
	resp := c.Resolve(CategoryScene)
	if !resp.Scripted || resp.Text != "scripted line" {
		t.Errorf("expected scripted cue, got %+v", resp)
	}
}

func TestControllerManualOverride(t *testing.T) {
	c := NewController(nil)

	forced := c.ForceCategory(CategoryFarewell)
	if forced.Category != CategoryFarewell {
		t.Errorf("expected farewell, got %q", forced.Category)
	}

	// The override is served once regardless of the requested category.
	resp := c.Resolve(CategoryGeneric)
	if resp.Text != forced.Text {
		t.Errorf("expected override %q, got %q", forced.Text, resp.Text)
	}

	// Next resolve is back to normal.
	if resp := c.Resolve(CategoryGeneric); resp.Category != CategoryGeneric {
		t.Errorf("expected generic after override consumed, got %q", resp.Category)
	}
}

func TestControllerResponseOverrides(t *testing.T) {
	c := NewController(nil, WithResponseOverrides(map[Category][]string{
		CategoryGreeting: {"script hello"},
	}))

	resp := c.Resolve(CategoryGreeting)
	if resp.Text != "script hello" {
		t.Errorf("expected overridden line, got %q", resp.Text)
	}
}
