package speech

import (
	"context"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"

	"github.com/revoicehq/revoice/internal/transcript"
)

// OpenAI is the fallback backend: whisper transcription with word-level
// timestamps and stock-voice TTS. It cannot clone voices, so edits through
// this backend speak in a built-in voice rather than the source speaker's.
type OpenAI struct {
	cli *openai.Client
}

// NewOpenAI builds the backend. baseURL overrides the API endpoint for
// tests or OpenAI-compatible gateways.
func NewOpenAI(apiKey, baseURL string) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAI{cli: openai.NewClientWithConfig(cfg)}
}

// Name implements Provider.
func (o *OpenAI) Name() string { return "openai" }

// Health implements Provider with a cheap model listing call.
func (o *OpenAI) Health(ctx context.Context) error {
	if _, err := o.cli.ListModels(ctx); err != nil {
		return fmt.Errorf("openai unreachable: %w", err)
	}
	return nil
}

// Transcribe runs whisper with word timestamp granularity. Whisper reports
// bare words without spacing, so spacing tokens are synthesized between
// consecutive words to keep the transcript's text-reconstruction invariant.
func (o *OpenAI) Transcribe(ctx context.Context, audioPath string) (transcript.Transcript, error) {
	resp, err := o.cli.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: audioPath,
		Format:   openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []openai.TranscriptionTimestampGranularity{
			openai.TranscriptionTimestampGranularityWord,
		},
	})
	if err != nil {
		return transcript.Transcript{}, fmt.Errorf("whisper transcription: %w", err)
	}
	if len(resp.Words) == 0 {
		return transcript.Transcript{}, fmt.Errorf("whisper returned no word timestamps")
	}

	tokens := make([]transcript.Token, 0, len(resp.Words)*2-1)
	for i, w := range resp.Words {
		if i > 0 {
			prevEnd := tokens[len(tokens)-1].End
			tokens = append(tokens, transcript.Token{
				Text:  " ",
				Start: prevEnd,
				End:   prevEnd,
				Kind:  transcript.KindSpacing,
			})
		}
		tokens = append(tokens, transcript.Token{
			Text:  w.Word,
			Start: w.Start,
			End:   w.End,
			Kind:  transcript.KindWord,
		})
	}
	return transcript.New(tokens), nil
}

// Synthesize renders the text with the TTS endpoint. VoiceID maps onto a
// built-in voice name; prosody context is not supported by this API and is
// ignored.
func (o *OpenAI) Synthesize(ctx context.Context, req SynthesisRequest) ([]byte, error) {
	voice := openai.VoiceAlloy
	if req.VoiceID != "" {
		voice = openai.SpeechVoice(req.VoiceID)
	}

	resp, err := o.cli.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.TTSModel1,
		Input:          req.Text,
		Voice:          voice,
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, fmt.Errorf("tts: %w", err)
	}
	defer resp.Close()

	return io.ReadAll(resp)
}

// CloneVoice is unsupported; callers should fall back to a built-in voice.
func (o *OpenAI) CloneVoice(ctx context.Context, name, audioPath string) (string, error) {
	return "", fmt.Errorf("openai backend does not support voice cloning")
}
