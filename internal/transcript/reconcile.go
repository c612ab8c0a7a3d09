package transcript

import "fmt"

// Reconcile produces the transcript that results from replacing the token
// range [startIndex, endIndex] with newText.
//
// The removed range collapses into a single word token starting at the old
// word-bounded start time. Its duration is estimated from the character-length
// ratio between newText and the original selected text:
//
//	estimated = originalSpanDuration * len(newText) / len(originalText)
//
// This is a documented approximation, not a measurement of the synthesized
// clip. Every token after the edit point shifts by the constant delta between
// estimated and original duration. Callers that have probed the real
// replacement duration should use ReconcileWithDuration instead.
//
// The input transcript is never mutated; a fully new value is returned.
func Reconcile(t Transcript, startIndex, endIndex int, newText string) (Transcript, error) {
	sel, err := NewSelection(t, startIndex, endIndex)
	if err != nil {
		return Transcript{}, err
	}
	if len(sel.Text) == 0 || sel.SpanDuration() <= 0 {
		return Transcript{}, fmt.Errorf("%w: span [%f, %f] text %q",
			ErrDegenerateSelection, sel.StartTime, sel.EndTime, sel.Text)
	}

	estimated := sel.SpanDuration() * float64(len(newText)) / float64(len(sel.Text))
	return spliceTokens(t, sel, newText, estimated), nil
}

// ReconcileWithDuration is Reconcile with a measured replacement duration in
// place of the character-ratio estimate. measured must be non-negative.
func ReconcileWithDuration(t Transcript, startIndex, endIndex int, newText string, measured float64) (Transcript, error) {
	sel, err := NewSelection(t, startIndex, endIndex)
	if err != nil {
		return Transcript{}, err
	}
	if measured < 0 {
		return Transcript{}, fmt.Errorf("%w: negative measured duration %f",
			ErrDegenerateSelection, measured)
	}
	return spliceTokens(t, sel, newText, measured), nil
}

// spliceTokens performs the token-sequence surgery shared by both entry
// points: remove the selected range, insert one replacement word token, shift
// everything after it by the duration delta, and recompute the full text.
func spliceTokens(t Transcript, sel Selection, newText string, newDuration float64) Transcript {
	replacement := Token{
		Text:  newText,
		Start: sel.StartTime,
		End:   sel.StartTime + newDuration,
		Kind:  KindWord,
	}
	timeOffset := newDuration - sel.SpanDuration()

	tokens := make([]Token, 0, len(t.Tokens)-(sel.EndIndex-sel.StartIndex+1)+1)
	tokens = append(tokens, t.Tokens[:sel.StartIndex]...)
	tokens = append(tokens, replacement)
	for _, tk := range t.Tokens[sel.EndIndex+1:] {
		tk.Start += timeOffset
		tk.End += timeOffset
		tokens = append(tokens, tk)
	}

	return New(tokens)
}
