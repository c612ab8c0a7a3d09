package transcript

import "fmt"

// Selection is an ephemeral view over a contiguous token index range.
// StartTime/EndTime come from the first and last word token inside the range,
// not from edge punctuation or spacing, which may lie outside true speech
// boundaries. Text is the literal concatenation of every token in the range.
type Selection struct {
	StartIndex int
	EndIndex   int
	StartTime  float64
	EndTime    float64
	Text       string
}

// NewSelection derives a Selection from t over [startIndex, endIndex].
// It fails with ErrInvalidRange for out-of-bounds or inverted indices and
// with ErrNoWordInRange when the range holds no word token.
func NewSelection(t Transcript, startIndex, endIndex int) (Selection, error) {
	if startIndex < 0 || endIndex >= len(t.Tokens) || startIndex > endIndex {
		return Selection{}, fmt.Errorf("%w: [%d, %d] over %d tokens",
			ErrInvalidRange, startIndex, endIndex, len(t.Tokens))
	}

	sel := Selection{StartIndex: startIndex, EndIndex: endIndex}
	firstWord := -1
	lastWord := -1
	for i := startIndex; i <= endIndex; i++ {
		if t.Tokens[i].IsWord() {
			if firstWord < 0 {
				firstWord = i
			}
			lastWord = i
		}
	}
	if firstWord < 0 {
		return Selection{}, fmt.Errorf("%w: [%d, %d]", ErrNoWordInRange, startIndex, endIndex)
	}

	sel.StartTime = t.Tokens[firstWord].Start
	sel.EndTime = t.Tokens[lastWord].End
	sel.Text = JoinText(t.Tokens[startIndex : endIndex+1])
	return sel, nil
}

// SpanDuration is the word-bounded duration of the selection in seconds.
func (s Selection) SpanDuration() float64 {
	return s.EndTime - s.StartTime
}

// ContextBefore returns the text of up to n word tokens preceding index,
// joined with the intervening spacing/punctuation tokens. It is used as
// prosody context for synthesis.
func ContextBefore(t Transcript, index, n int) string {
	if index <= 0 || n <= 0 {
		return ""
	}
	if index > len(t.Tokens) {
		index = len(t.Tokens)
	}
	words := 0
	start := index
	for start > 0 && words < n {
		start--
		if t.Tokens[start].IsWord() {
			words++
		}
	}
	return JoinText(t.Tokens[start:index])
}

// ContextAfter returns the text of up to n word tokens following index,
// including intervening spacing/punctuation.
func ContextAfter(t Transcript, index, n int) string {
	if index >= len(t.Tokens)-1 || n <= 0 {
		return ""
	}
	if index < -1 {
		index = -1
	}
	words := 0
	end := index + 1
	for end < len(t.Tokens) && words < n {
		if t.Tokens[end].IsWord() {
			words++
		}
		end++
	}
	return JoinText(t.Tokens[index+1 : end])
}
