// Package transcript holds the word-level transcript model and the
// reconciliation logic that keeps token timing consistent after an audio edit.
//
// A transcript is an ordered token sequence where spacing and punctuation are
// tokens in their own right, so concatenating every token's text reproduces
// the full transcript text exactly. Only word tokens carry timing that
// participates in selection and edit logic.
package transcript

import (
	"errors"
	"strings"
)

// TokenKind classifies a transcript token.
type TokenKind string

const (
	// KindWord is a spoken word with a meaningful [Start, End] interval.
	KindWord TokenKind = "word"

	// KindPunctuation is a punctuation mark. It is preserved positionally
	// for text reconstruction but carries no independent timing contract.
	KindPunctuation TokenKind = "punctuation"

	// KindSpacing is inter-word whitespace, preserved positionally like
	// punctuation.
	KindSpacing TokenKind = "spacing"
)

// Token is one unit of the transcript.
type Token struct {
	Text  string    `json:"text"`
	Start float64   `json:"start"`
	End   float64   `json:"end"`
	Kind  TokenKind `json:"kind"`
}

// IsWord reports whether the token is a spoken word.
func (tk Token) IsWord() bool {
	return tk.Kind == KindWord
}

// Transcript is an immutable snapshot of the token sequence plus the full
// reconstructed text. It is replaced wholesale after each successful edit,
// never mutated in place.
type Transcript struct {
	Tokens []Token `json:"tokens"`
	Text   string  `json:"text"`
}

// Predefined errors for selection and reconciliation.
var (
	// ErrInvalidRange means startIndex/endIndex are out of bounds or inverted.
	ErrInvalidRange = errors.New("invalid token index range")

	// ErrNoWordInRange means the selected range contains no word token, so
	// no speech boundary can be derived from it.
	ErrNoWordInRange = errors.New("selection contains no word token")

	// ErrDegenerateSelection means the selected span has zero-length text or
	// zero duration, leaving the length-ratio duration estimate undefined.
	ErrDegenerateSelection = errors.New("degenerate selection")
)

// New builds a Transcript from tokens, computing the full text.
func New(tokens []Token) Transcript {
	return Transcript{Tokens: tokens, Text: JoinText(tokens)}
}

// JoinText concatenates token texts in order. No separator is inserted:
// spacing is itself a token.
func JoinText(tokens []Token) string {
	var sb strings.Builder
	for _, tk := range tokens {
		sb.WriteString(tk.Text)
	}
	return sb.String()
}

// Duration returns the end time of the last word token, or zero for a
// transcript without words.
func (t Transcript) Duration() float64 {
	for i := len(t.Tokens) - 1; i >= 0; i-- {
		if t.Tokens[i].IsWord() {
			return t.Tokens[i].End
		}
	}
	return 0
}

// WordCount returns the number of word tokens.
func (t Transcript) WordCount() int {
	n := 0
	for _, tk := range t.Tokens {
		if tk.IsWord() {
			n++
		}
	}
	return n
}
