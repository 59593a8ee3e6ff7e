// Package fallback keeps the companion talking when the reasoning
// backend is unreachable. It serves canned responses by category and,
// during a known clip, scripted lines from a timeline.
package fallback

import (
	"strings"

	"github.com/cinemate/go-cinemate/pkg/cognition"
)

// Category classifies why a fallback response is needed.
type Category string

const (
	CategoryGreeting Category = "greeting"
	CategoryScene    Category = "scene_description"
	CategoryDistress Category = "distress"
	CategoryFarewell Category = "farewell"
	CategoryGeneric  Category = "generic"
)

// ParseCategory maps a string to a Category, defaulting to generic.
func ParseCategory(s string) Category {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryGreeting:
		return CategoryGreeting
	case CategoryScene:
		return CategoryScene
	case CategoryDistress:
		return CategoryDistress
	case CategoryFarewell:
		return CategoryFarewell
	default:
		return CategoryGeneric
	}
}

// Response is a canned or scripted line ready to speak.
type Response struct {
	// Text is what to say.
	Text string `json:"text"`

	// Emotion is the delivery style.
	Emotion cognition.Emotion `json:"emotion"`

	// Category is why this response was chosen.
	Category Category `json:"category"`

	// Scripted is true when the response came from a clip timeline.
	Scripted bool `json:"scripted"`
}
