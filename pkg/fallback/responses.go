package fallback

import (
	"math/rand"
	"sync"

	"github.com/cinemate/go-cinemate/pkg/cognition"
)

// categoryEmotions is the delivery style each category defaults to.
var categoryEmotions = map[Category]cognition.Emotion{
	CategoryGreeting: cognition.EmotionCheerful,
	CategoryScene:    cognition.EmotionCalm,
	CategoryDistress: cognition.EmotionEmpathetic,
	CategoryFarewell: cognition.EmotionCalm,
	CategoryGeneric:  cognition.EmotionNeutral,
}

// defaultResponses are the built-in lines served when no custom
// response set is loaded.
var defaultResponses = map[Category][]string{
	CategoryGreeting: {
		"Hello! It's lovely to see you. Shall we watch something together?",
		"Good to see you again. I'm right here with you.",
	},
	CategoryScene: {
		"That looks like quite a scene, doesn't it?",
		"I'm watching along with you.",
	},
	CategoryDistress: {
		"I'm here with you. Take a slow breath, everything is alright.",
		"You're not alone, I'm right here. Would you like me to call someone?",
	},
	CategoryFarewell: {
		"Goodbye for now. I really enjoyed watching with you.",
		"Rest well. I'll be here when you want company again.",
	},
	CategoryGeneric: {
		"I'm still here with you.",
		"Mm, I see.",
	},
}

// Responses holds fallback lines by category and picks one at random
// per request so repeats are less noticeable.
type Responses struct {
	mu    sync.Mutex
	lines map[Category][]string
	rng   *rand.Rand
}

// NewResponses returns the built-in response set.
func NewResponses() *Responses {
	lines := make(map[Category][]string, len(defaultResponses))
	for cat, texts := range defaultResponses {
		lines[cat] = append([]string(nil), texts...)
	}
	return &Responses{
		lines: lines,
		rng:   rand.New(rand.NewSource(rand.Int63())),
	}
}

// Set replaces the lines for a category. An empty slice restores the
// built-in lines.
func (r *Responses) Set(cat Category, texts []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(texts) == 0 {
		r.lines[cat] = append([]string(nil), defaultResponses[cat]...)
		return
	}
	r.lines[cat] = append([]string(nil), texts...)
}

// Pick returns a response for the category. Unknown categories fall
// back to generic.
func (r *Responses) Pick(cat Category) Response {
	r.mu.Lock()
	defer r.mu.Unlock()

	texts := r.lines[cat]
	if len(texts) == 0 {
		cat = CategoryGeneric
		texts = r.lines[CategoryGeneric]
	}
	if len(texts) == 0 {
		texts = defaultResponses[CategoryGeneric]
	}

	return Response{
		Text:     texts[r.rng.Intn(len(texts))],
		Emotion:  emotionFor(cat),
		Category: cat,
	}
}

func emotionFor(cat Category) cognition.Emotion {
	if e, ok := categoryEmotions[cat]; ok {
		return e
	}
	return cognition.EmotionNeutral
}
