package fallback

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// Controller resolves fallback responses. A scripted cue wins while a
// known clip is playing; otherwise the category tables serve. An
// operator can also force a response manually.
type Controller struct {
	responses *Responses
	timeline  *Timeline
	logger    *slog.Logger

	mu       sync.Mutex
	override *Response

	resolved atomic.Uint64
	scripted atomic.Uint64
	manual   atomic.Uint64
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithTimeline attaches a clip script.
func WithTimeline(t *Timeline) ControllerOption {
	return func(c *Controller) {
		c.timeline = t
	}
}

// WithResponseOverrides replaces canned lines per category.
func WithResponseOverrides(overrides map[Category][]string) ControllerOption {
	return func(c *Controller) {
		for cat, texts := range overrides {
			c.responses.Set(cat, texts)
		}
	}
}

// NewController creates a fallback controller with the built-in
// response set.
func NewController(logger *slog.Logger, opts ...ControllerOption) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		responses: NewResponses(),
		logger:    logger.With("component", "fallback"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve picks the response for the given category. Priority order:
// a pending manual override, then the active clip's current cue, then
// the category table.
func (c *Controller) Resolve(cat Category) Response {
	c.resolved.Add(1)

	c.mu.Lock()
	if c.override != nil {
		resp := *c.override
		c.override = nil
		c.mu.Unlock()
		c.manual.Add(1)
		c.logger.Info("serving manual override", "category", resp.Category)
		return resp
	}
	c.mu.Unlock()

	if c.timeline != nil {
		if cue, ok := c.timeline.CueNow(); ok {
			c.scripted.Add(1)
			c.logger.Debug("serving scripted cue",
				"elapsed", c.timeline.Elapsed(), "text", cue.Text)
			return Response{
				Text:     cue.Text,
				Emotion:  cue.Emotion,
				Category: cat,
				Scripted: true,
			}
		}
	}

	return c.responses.Pick(cat)
}

// ForceCategory queues a manual override: the next Resolve call
// serves a line from the given category regardless of clip state.
func (c *Controller) ForceCategory(cat Category) Response {
	resp := c.responses.Pick(cat)

	c.mu.Lock()
	c.override = &resp
	c.mu.Unlock()

	c.logger.Info("manual override queued", "category", cat)
	return resp
}

// Timeline returns the attached clip timeline, or nil.
func (c *Controller) Timeline() *Timeline {
	return c.timeline
}

// Stats returns controller counters.
func (c *Controller) Stats() map[string]uint64 {
	return map[string]uint64{
		"resolved": c.resolved.Load(),
		"scripted": c.scripted.Load(),
		"manual":   c.manual.Load(),
	}
}
