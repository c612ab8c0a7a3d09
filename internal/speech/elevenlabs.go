package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/revoicehq/revoice/internal/transcript"
)

const (
	defaultElevenLabsBaseURL = "https://api.elevenlabs.io"

	// scribeModelID is the speech-to-text model returning word tokens
	// with semantic types and [start, end] intervals.
	scribeModelID = "scribe_v1"

	// ttsModelID supports previous_text/next_text prosody conditioning.
	ttsModelID = "eleven_multilingual_v2"

	// ttsOutputFormat matches the engine's canonical format so replacement
	// clips arrive join-compatible.
	ttsOutputFormat = "mp3_44100_128"
)

// ElevenLabs is the primary speech backend: scribe transcription,
// context-conditioned synthesis, and instant voice cloning.
type ElevenLabs struct {
	apiKey  string
	baseURL string
	client  *http.Client

	// Stability and SimilarityBoost tune the cloned voice. Lower stability
	// is more expressive, higher similarity sticks closer to the sample.
	Stability       float64
	SimilarityBoost float64
}

// NewElevenLabs builds a client against the public API. baseURL overrides
// the endpoint for tests.
func NewElevenLabs(apiKey, baseURL string) *ElevenLabs {
	if baseURL == "" {
		baseURL = defaultElevenLabsBaseURL
	}
	return &ElevenLabs{
		apiKey:          apiKey,
		baseURL:         baseURL,
		client:          &http.Client{Timeout: 5 * time.Minute},
		Stability:       0.5,
		SimilarityBoost: 0.75,
	}
}

// Name implements Provider.
func (e *ElevenLabs) Name() string { return "elevenlabs" }

// Health verifies the API key against the voices endpoint.
func (e *ElevenLabs) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/v1/voices", nil)
	if err != nil {
		return err
	}
	req.Header.Set("xi-api-key", e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("elevenlabs unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("elevenlabs health: http %d", resp.StatusCode)
	}
	return nil
}

type scribeWord struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Type  string  `json:"type"` // "word", "spacing", "punctuation", "audio_event"
}

type scribeResponse struct {
	LanguageCode string       `json:"language_code"`
	Text         string       `json:"text"`
	Words        []scribeWord `json:"words"`
}

// Transcribe uploads the audio to the scribe endpoint and maps its word
// tokens onto the transcript model.
func (e *ElevenLabs) Transcribe(ctx context.Context, audioPath string) (transcript.Transcript, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return transcript.Transcript{}, err
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("model_id", scribeModelID); err != nil {
		return transcript.Transcript{}, err
	}
	fw, err := mw.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return transcript.Transcript{}, err
	}
	if _, err := io.Copy(fw, f); err != nil {
		return transcript.Transcript{}, err
	}
	if err := mw.Close(); err != nil {
		return transcript.Transcript{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/v1/speech-to-text", &body)
	if err != nil {
		return transcript.Transcript{}, err
	}
	req.Header.Set("xi-api-key", e.apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := e.client.Do(req)
	if err != nil {
		return transcript.Transcript{}, fmt.Errorf("scribe request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return transcript.Transcript{}, fmt.Errorf("scribe http %d: %s", resp.StatusCode, string(b))
	}

	var sr scribeResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return transcript.Transcript{}, fmt.Errorf("scribe response: %w", err)
	}

	tokens := make([]transcript.Token, 0, len(sr.Words))
	for _, w := range sr.Words {
		tokens = append(tokens, transcript.Token{
			Text:  w.Text,
			Start: w.Start,
			End:   w.End,
			Kind:  tokenKind(w.Type),
		})
	}
	return transcript.New(tokens), nil
}

func tokenKind(scribeType string) transcript.TokenKind {
	switch scribeType {
	case "spacing":
		return transcript.KindSpacing
	case "punctuation":
		return transcript.KindPunctuation
	default:
		// words and audio events both carry timing that matters
		return transcript.KindWord
	}
}

type ttsRequest struct {
	Text          string         `json:"text"`
	ModelID       string         `json:"model_id"`
	PreviousText  string         `json:"previous_text,omitempty"`
	NextText      string         `json:"next_text,omitempty"`
	VoiceSettings map[string]any `json:"voice_settings,omitempty"`
}

// Synthesize renders req.Text in the cloned voice, conditioning on the
// surrounding transcript text for prosody continuity.
func (e *ElevenLabs) Synthesize(ctx context.Context, req SynthesisRequest) ([]byte, error) {
	if req.VoiceID == "" {
		return nil, fmt.Errorf("synthesize: voice id required")
	}

	payload := ttsRequest{
		Text:         req.Text,
		ModelID:      ttsModelID,
		PreviousText: req.PreviousText,
		NextText:     req.NextText,
		VoiceSettings: map[string]any{
			"stability":        e.Stability,
			"similarity_boost": e.SimilarityBoost,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=%s",
		e.baseURL, url.PathEscape(req.VoiceID), ttsOutputFormat)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("xi-api-key", e.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("tts request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("tts http %d: %s", resp.StatusCode, string(b))
	}

	return io.ReadAll(resp.Body)
}

type cloneResponse struct {
	VoiceID string `json:"voice_id"`
}

// CloneVoice registers an instant voice clone from the uploaded sample and
// returns the new voice ID.
func (e *ElevenLabs) CloneVoice(ctx context.Context, name, audioPath string) (string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("name", name); err != nil {
		return "", err
	}
	fw, err := mw.CreateFormFile("files", filepath.Base(audioPath))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(fw, f); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/v1/voices/add", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("xi-api-key", e.apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("voice clone request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("voice clone http %d: %s", resp.StatusCode, string(b))
	}

	var cr cloneResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", fmt.Errorf("voice clone response: %w", err)
	}
	if cr.VoiceID == "" {
		return "", fmt.Errorf("voice clone returned empty voice_id")
	}
	return cr.VoiceID, nil
}
