package speech

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Segmentation limits. Long sentences are re-split on secondary punctuation
// so each clip stays short enough for the synthesis backends.
const (
	maxSegmentLen = 200
)

func isTerminal(r rune) bool {
	switch r {
	case '.', '!', '?', '…', '。', '！', '？':
		return true
	}
	return false
}

func isSecondary(r rune) bool {
	switch r {
	case ',', ';', ':', '(', ')', '–', '—', '、', '，', '；':
		return true
	}
	return false
}

// Segment splits text into speakable sentences. A sentence ends at terminal
// punctuation followed by whitespace (or end of text). Sentences longer than
// maxSegmentLen are further split on secondary punctuation; a long run with
// no punctuation at all stays whole rather than being cut mid-word.
// Concatenating the segments with single spaces loses no words.
func Segment(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	sentences := splitSentences(text)
	segments := make([]string, 0, len(sentences))
	for _, sentence := range sentences {
		// Length is counted in runes so multibyte text is not re-split
		// early.
		if utf8.RuneCountInString(sentence) <= maxSegmentLen {
			segments = append(segments, sentence)
			continue
		}
		segments = append(segments, splitLong(sentence)...)
	}
	return segments
}

func splitSentences(text string) []string {
	var sentences []string
	runes := []rune(text)
	start := 0
	for i := 0; i < len(runes); i++ {
		if !isTerminal(runes[i]) {
			continue
		}
		// Consume a run of terminal punctuation ("?!", "...").
		end := i
		for end+1 < len(runes) && isTerminal(runes[end+1]) {
			end++
		}
		if end+1 < len(runes) && !unicode.IsSpace(runes[end+1]) {
			i = end
			continue
		}
		sentence := strings.TrimSpace(string(runes[start : end+1]))
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
		i = end
		start = end + 1
	}
	if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

func splitLong(sentence string) []string {
	var parts []string
	runes := []rune(sentence)
	start := 0
	for i := 0; i < len(runes); i++ {
		if !isSecondary(runes[i]) {
			continue
		}
		part := strings.TrimSpace(string(runes[start : i+1]))
		if part != "" {
			parts = append(parts, part)
		}
		start = i + 1
	}
	if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
		parts = append(parts, tail)
	}
	if len(parts) == 0 {
		return []string{sentence}
	}
	return parts
}
