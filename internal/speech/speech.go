// Package speech abstracts the external voice-AI collaborators: word-level
// transcription, same-voice speech synthesis, and instant voice cloning.
// It defines standard interfaces with multiple implementations (ElevenLabs,
// OpenAI, and a deterministic mock) so the edit pipeline never depends on a
// concrete vendor API.
package speech

import (
	"context"

	"github.com/revoicehq/revoice/internal/transcript"
)

// Transcriber converts an audio file into an ordered token sequence with
// word-level timing.
type Transcriber interface {
	// Transcribe reads the audio at audioPath and returns its transcript.
	// Spacing and punctuation come back as positional tokens so the full
	// text reconstructs exactly from token concatenation.
	Transcribe(ctx context.Context, audioPath string) (transcript.Transcript, error)
}

// SynthesisRequest carries one synthesis call.
type SynthesisRequest struct {
	// Text is the phrase to synthesize.
	Text string

	// VoiceID selects the cloned voice.
	VoiceID string

	// PreviousText and NextText hold up to ~10 surrounding transcript
	// words on each side. Providers that support conditioning use them to
	// keep prosody continuous across the splice boundary.
	PreviousText string
	NextText     string
}

// Synthesizer produces speech audio for text in a given voice. Output is
// MP3 compatible with the engine's canonical format (the splicer re-encodes
// it regardless, since the source encoding is not guaranteed).
type Synthesizer interface {
	Synthesize(ctx context.Context, req SynthesisRequest) ([]byte, error)
}

// VoiceCloner registers a voice from sample audio and returns its ID.
type VoiceCloner interface {
	CloneVoice(ctx context.Context, name, audioPath string) (string, error)
}

// Provider bundles the three collaborator roles behind one backend.
type Provider interface {
	Transcriber
	Synthesizer
	VoiceCloner

	// Name identifies the backend ("elevenlabs", "openai", "mock").
	Name() string

	// Health checks connectivity and credential validity.
	Health(ctx context.Context) error
}
