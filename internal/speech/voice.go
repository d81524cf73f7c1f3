package speech

import "strings"

// Voice describes one synthesis voice a playback backend offers.
type Voice struct {
	Name string `json:"name"`
	Lang string `json:"lang"`
}

// DefaultVoices is the voice set advertised when no client has reported
// its own. It mirrors what the common synthesis backends ship.
var DefaultVoices = []Voice{
	{Name: "Samantha", Lang: "en-US"},
	{Name: "Karen", Lang: "en-AU"},
	{Name: "Moira", Lang: "en-IE"},
	{Name: "Daniel", Lang: "en-GB"},
	{Name: "Tessa", Lang: "en-ZA"},
	{Name: "Thomas", Lang: "fr-FR"},
}

// Names commonly carried by regional English female voices across the
// synthesis backends we target.
var preferredVoiceHints = []string{
	"female",
	"samantha",
	"karen",
	"moira",
	"tessa",
	"serena",
	"zira",
	"hazel",
}

// SelectVoice picks a voice from the available set. The user's saved voice
// wins when it is still present; otherwise a regional English female voice
// is preferred, then any English voice, then the first voice offered.
// Returns nil when no voices are available.
func SelectVoice(saved string, voices []Voice) *Voice {
	if len(voices) == 0 {
		return nil
	}

	if saved != "" {
		for i := range voices {
			if voices[i].Name == saved {
				return &voices[i]
			}
		}
	}

	for i := range voices {
		if !isEnglish(voices[i].Lang) {
			continue
		}
		lower := strings.ToLower(voices[i].Name)
		for _, hint := range preferredVoiceHints {
			if strings.Contains(lower, hint) {
				return &voices[i]
			}
		}
	}

	for i := range voices {
		if isEnglish(voices[i].Lang) {
			return &voices[i]
		}
	}
	return &voices[0]
}

func isEnglish(lang string) bool {
	lang = strings.ToLower(lang)
	return lang == "en" || strings.HasPrefix(lang, "en-") || strings.HasPrefix(lang, "en_")
}
