package speech

import (
	"context"

	"github.com/revoicehq/revoice/internal/transcript"
)

// Mock is a deterministic in-memory backend for development and tests. It
// performs no network or media work.
type Mock struct {
	// TranscribeResult is returned by Transcribe when set; otherwise a
	// small fixed transcript is used.
	TranscribeResult *transcript.Transcript

	// SynthesizeResult is returned by Synthesize.
	SynthesizeResult []byte

	// Err, when set, is returned by every operation.
	Err error

	// Calls records the synthesis requests received, for assertions.
	Calls []SynthesisRequest
}

// NewMock returns a Mock with usable defaults.
func NewMock() *Mock {
	return &Mock{SynthesizeResult: []byte("mock-mp3-bytes")}
}

// Name implements Provider.
func (m *Mock) Name() string { return "mock" }

// Health implements Provider.
func (m *Mock) Health(ctx context.Context) error { return m.Err }

// Transcribe implements Transcriber.
func (m *Mock) Transcribe(ctx context.Context, audioPath string) (transcript.Transcript, error) {
	if m.Err != nil {
		return transcript.Transcript{}, m.Err
	}
	if m.TranscribeResult != nil {
		return *m.TranscribeResult, nil
	}
	return transcript.New([]transcript.Token{
		{Text: "Hello", Start: 0, End: 0.5, Kind: transcript.KindWord},
		{Text: " ", Start: 0.5, End: 0.5, Kind: transcript.KindSpacing},
		{Text: "world", Start: 0.5, End: 1.0, Kind: transcript.KindWord},
	}), nil
}

// Synthesize implements Synthesizer.
func (m *Mock) Synthesize(ctx context.Context, req SynthesisRequest) ([]byte, error) {
	m.Calls = append(m.Calls, req)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.SynthesizeResult, nil
}

// CloneVoice implements VoiceCloner.
func (m *Mock) CloneVoice(ctx context.Context, name, audioPath string) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	return "mock-voice-" + name, nil
}
