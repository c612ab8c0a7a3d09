package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// helloWorld is the three-token transcript used across the scenarios:
// "Hello" [0, 0.5], spacing, "world" [0.5, 1.0].
func helloWorld() Transcript {
	return New([]Token{
		{Text: "Hello", Start: 0, End: 0.5, Kind: KindWord},
		{Text: " ", Start: 0.5, End: 0.5, Kind: KindSpacing},
		{Text: "world", Start: 0.5, End: 1.0, Kind: KindWord},
	})
}

func TestReconcile_SameLengthReplacement(t *testing.T) {
	// "world" -> "there": equal character counts, so no time shift.
	got, err := Reconcile(helloWorld(), 2, 2, "there")
	require.NoError(t, err)

	require.Len(t, got.Tokens, 3)
	assert.Equal(t, Token{Text: "there", Start: 0.5, End: 1.0, Kind: KindWord}, got.Tokens[2])
	assert.Equal(t, "Hello there", got.Text)

	// tokens before the edit point are untouched
	assert.Equal(t, helloWorld().Tokens[0], got.Tokens[0])
	assert.Equal(t, helloWorld().Tokens[1], got.Tokens[1])
}

func TestReconcile_AsymmetricLengthShiftsTail(t *testing.T) {
	// "world" (5 chars, 0.5s) -> "everyone" (8 chars):
	// estimated = 0.5 * 8/5 = 0.8, new end = 1.3, shift = +0.3.
	in := New([]Token{
		{Text: "Hello", Start: 0, End: 0.5, Kind: KindWord},
		{Text: " ", Start: 0.5, End: 0.5, Kind: KindSpacing},
		{Text: "world", Start: 0.5, End: 1.0, Kind: KindWord},
		{Text: " ", Start: 1.0, End: 1.0, Kind: KindSpacing},
		{Text: "again", Start: 1.0, End: 1.4, Kind: KindWord},
		{Text: ".", Start: 1.4, End: 1.4, Kind: KindPunctuation},
	})

	got, err := Reconcile(in, 2, 2, "everyone")
	require.NoError(t, err)

	require.Len(t, got.Tokens, 6)
	assert.InDelta(t, 0.5, got.Tokens[2].Start, 1e-9)
	assert.InDelta(t, 1.3, got.Tokens[2].End, 1e-9)

	// every token after the replacement shifts by the same +0.3
	assert.InDelta(t, 1.3, got.Tokens[3].Start, 1e-9)
	assert.InDelta(t, 1.3, got.Tokens[4].Start, 1e-9)
	assert.InDelta(t, 1.7, got.Tokens[4].End, 1e-9)
	assert.InDelta(t, 1.7, got.Tokens[5].Start, 1e-9)

	assert.Equal(t, "Hello everyone again.", got.Text)
}

func TestReconcile_TokenCountInvariant(t *testing.T) {
	in := helloWorld()
	for start := 0; start < len(in.Tokens); start++ {
		for end := start; end < len(in.Tokens); end++ {
			got, err := Reconcile(in, start, end, "x")
			if err != nil {
				// ranges without a word token are rejected, not resized
				assert.ErrorIs(t, err, ErrNoWordInRange)
				continue
			}
			want := len(in.Tokens) - (end - start + 1) + 1
			assert.Len(t, got.Tokens, want, "range [%d, %d]", start, end)
		}
	}
}

func TestReconcile_CollapsesMixedRangeIntoOneWord(t *testing.T) {
	// replacing "Hello world" (word+spacing+word) yields one word token
	got, err := Reconcile(helloWorld(), 0, 2, "Goodbye")
	require.NoError(t, err)

	require.Len(t, got.Tokens, 1)
	assert.Equal(t, KindWord, got.Tokens[0].Kind)
	assert.Equal(t, "Goodbye", got.Text)
	assert.InDelta(t, 0.0, got.Tokens[0].Start, 1e-9)
	// 11 original chars over 1.0s, 7 new chars -> 7/11 s
	assert.InDelta(t, 7.0/11.0, got.Tokens[0].End, 1e-9)
}

func TestReconcile_DoesNotMutateInput(t *testing.T) {
	in := helloWorld()
	_, err := Reconcile(in, 2, 2, "everyone")
	require.NoError(t, err)

	assert.Equal(t, helloWorld(), in)
}

func TestReconcile_InvalidRanges(t *testing.T) {
	in := helloWorld()

	cases := []struct {
		name       string
		start, end int
	}{
		{"negative start", -1, 1},
		{"end past tail", 0, 3},
		{"inverted", 2, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Reconcile(in, tc.start, tc.end, "x")
			assert.ErrorIs(t, err, ErrInvalidRange)
		})
	}
}

func TestReconcile_DegenerateSpanRejected(t *testing.T) {
	in := New([]Token{
		{Text: "beep", Start: 1.0, End: 1.0, Kind: KindWord},
	})
	_, err := Reconcile(in, 0, 0, "boop")
	assert.ErrorIs(t, err, ErrDegenerateSelection)
}

func TestReconcileWithDuration_UsesMeasuredDuration(t *testing.T) {
	// measured duration 0.75 wins over the 0.8 char-ratio estimate
	in := New([]Token{
		{Text: "Hello", Start: 0, End: 0.5, Kind: KindWord},
		{Text: " ", Start: 0.5, End: 0.5, Kind: KindSpacing},
		{Text: "world", Start: 0.5, End: 1.0, Kind: KindWord},
		{Text: " ", Start: 1.0, End: 1.0, Kind: KindSpacing},
		{Text: "again", Start: 1.0, End: 1.4, Kind: KindWord},
	})

	got, err := ReconcileWithDuration(in, 2, 2, "everyone", 0.75)
	require.NoError(t, err)

	assert.InDelta(t, 1.25, got.Tokens[2].End, 1e-9)
	assert.InDelta(t, 1.25, got.Tokens[3].Start, 1e-9)
	assert.InDelta(t, 1.65, got.Tokens[4].End, 1e-9)

	_, err = ReconcileWithDuration(in, 2, 2, "everyone", -0.1)
	assert.ErrorIs(t, err, ErrDegenerateSelection)
}

func TestReconcile_TextInvariantHolds(t *testing.T) {
	got, err := Reconcile(helloWorld(), 2, 2, "there")
	require.NoError(t, err)
	assert.Equal(t, JoinText(got.Tokens), got.Text)
}
