package speech

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentBasicSentences(t *testing.T) {
	segments := Segment("Hello there. How are you today? I am fine!")
	assert.Equal(t, []string{
		"Hello there.",
		"How are you today?",
		"I am fine!",
	}, segments)
}

func TestSegmentEmpty(t *testing.T) {
	assert.Nil(t, Segment(""))
	assert.Nil(t, Segment("   \n\t "))
}

func TestSegmentNoTerminalPunctuation(t *testing.T) {
	segments := Segment("just a trailing fragment with no period")
	assert.Equal(t, []string{"just a trailing fragment with no period"}, segments)
}

func TestSegmentKeepsAbbreviationRuns(t *testing.T) {
	// Punctuation not followed by whitespace does not end a sentence, so
	// decimals and version strings stay intact.
	segments := Segment("The build is at version 1.2.3 now. Ship it!")
	assert.Equal(t, []string{
		"The build is at version 1.2.3 now.",
		"Ship it!",
	}, segments)
}

func TestSegmentConsumesPunctuationRuns(t *testing.T) {
	segments := Segment("Really?! Yes... Absolutely.")
	assert.Equal(t, []string{"Really?!", "Yes...", "Absolutely."}, segments)
}

func TestSegmentLongSentenceSplitsOnCommas(t *testing.T) {
	long := "This sentence keeps going with one clause, then another clause that adds still more words to the total, then a third clause piled on top of the previous ones, and finally a fourth clause that pushes the whole thing comfortably past the length limit."
	require.Greater(t, len(long), maxSegmentLen)

	segments := Segment(long)
	require.Greater(t, len(segments), 1)
	for _, seg := range segments {
		assert.LessOrEqual(t, len(seg), maxSegmentLen)
	}
}

func TestSegmentLongSentenceWithoutPunctuationStaysWhole(t *testing.T) {
	long := strings.TrimSpace(strings.Repeat("word ", 50)) // 249 chars, no punctuation
	require.Greater(t, len(long), maxSegmentLen)

	segments := Segment(long)
	assert.Equal(t, []string{long}, segments)
}

func TestSegmentCountsRunesNotBytes(t *testing.T) {
	// 151 CJK runes is several hundred bytes but under the segment limit,
	// so the enumeration comma must not trigger a re-split.
	text := strings.Repeat("声", 75) + "、" + strings.Repeat("音", 74) + "。"
	require.Greater(t, len(text), maxSegmentLen)

	segments := Segment(text)
	assert.Equal(t, []string{text}, segments)
}

func TestSegmentIsLossless(t *testing.T) {
	text := "First sentence. Second one, with a clause! And a third? Plus a tail without punctuation"
	segments := Segment(text)

	joined := strings.Join(segments, " ")
	assert.Equal(t, strings.Join(strings.Fields(text), " "), strings.Join(strings.Fields(joined), " "))
}
