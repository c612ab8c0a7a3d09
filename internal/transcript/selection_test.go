package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSentence() Transcript {
	return New([]Token{
		{Text: "The", Start: 0.0, End: 0.2, Kind: KindWord},
		{Text: " ", Start: 0.2, End: 0.2, Kind: KindSpacing},
		{Text: "quick", Start: 0.2, End: 0.6, Kind: KindWord},
		{Text: " ", Start: 0.6, End: 0.6, Kind: KindSpacing},
		{Text: "fox", Start: 0.6, End: 0.9, Kind: KindWord},
		{Text: ",", Start: 0.9, End: 0.9, Kind: KindPunctuation},
		{Text: " ", Start: 0.9, End: 0.9, Kind: KindSpacing},
		{Text: "jumps", Start: 0.9, End: 1.3, Kind: KindWord},
		{Text: ".", Start: 1.3, End: 1.3, Kind: KindPunctuation},
	})
}

func TestNewSelection_WordBoundedTimes(t *testing.T) {
	// edge spacing and punctuation must not contribute to the time window
	sel, err := NewSelection(sampleSentence(), 1, 6)
	require.NoError(t, err)

	assert.InDelta(t, 0.2, sel.StartTime, 1e-9) // "quick"
	assert.InDelta(t, 0.9, sel.EndTime, 1e-9)   // "fox"
	assert.Equal(t, " quick fox, ", sel.Text)
	assert.InDelta(t, 0.7, sel.SpanDuration(), 1e-9)
}

func TestNewSelection_SingleWord(t *testing.T) {
	sel, err := NewSelection(sampleSentence(), 4, 4)
	require.NoError(t, err)
	assert.Equal(t, "fox", sel.Text)
	assert.InDelta(t, 0.6, sel.StartTime, 1e-9)
	assert.InDelta(t, 0.9, sel.EndTime, 1e-9)
}

func TestNewSelection_NoWordToken(t *testing.T) {
	_, err := NewSelection(sampleSentence(), 5, 6)
	assert.ErrorIs(t, err, ErrNoWordInRange)
}

func TestNewSelection_BadIndices(t *testing.T) {
	_, err := NewSelection(sampleSentence(), 3, 1)
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = NewSelection(sampleSentence(), 0, 99)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestContextHelpers(t *testing.T) {
	ts := sampleSentence()

	t.Run("before", func(t *testing.T) {
		assert.Equal(t, "", ContextBefore(ts, 0, 10))
		assert.Equal(t, "The quick ", ContextBefore(ts, 4, 10))
		assert.Equal(t, "quick ", ContextBefore(ts, 4, 1))
	})

	t.Run("after", func(t *testing.T) {
		assert.Equal(t, "", ContextAfter(ts, 8, 10))
		assert.Equal(t, ", jumps.", ContextAfter(ts, 4, 10))
		assert.Equal(t, ", jumps", ContextAfter(ts, 4, 1))
	})
}

func TestTranscriptHelpers(t *testing.T) {
	ts := sampleSentence()
	assert.Equal(t, "The quick fox, jumps.", ts.Text)
	assert.Equal(t, 4, ts.WordCount())
	assert.InDelta(t, 1.3, ts.Duration(), 1e-9)
}
