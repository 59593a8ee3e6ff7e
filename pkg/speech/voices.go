package speech

// Voices maps friendly preset names to ElevenLabs voice IDs. Use
// ResolveVoice to look up a voice by name or pass through raw IDs.
var Voices = map[string]string{
	"charlotte": "XB0fDUnXU5powFXDhCwa", // British female, warm
	"rachel":    "21m00Tcm4TlvDq8ikWAM", // American female, calm
	"sarah":     "EXAVITQu4vr4xnSDxMaL", // American female, soft
	"lily":      "pFZP5JQG7iQjIQuC4Bku", // British female, warm
	"josh":      "TxGEqnHWrfWFTfGW9XjX", // American male, deep
	"adam":      "pNInz6obpgDQGcFmaJgB", // American male, deep
}

// DefaultVoice is the default voice preset. A calm voice suits a
// companion that speaks over a film.
const DefaultVoice = "rachel"

// ResolveVoice returns the voice ID for a preset name, or the input
// unchanged if it's already a voice ID.
func ResolveVoice(name string) string {
	if id, ok := Voices[name]; ok {
		return id
	}
	return name
}

// IsPreset returns true if the name is a known preset.
func IsPreset(name string) bool {
	_, ok := Voices[name]
	return ok
}
