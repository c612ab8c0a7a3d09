package orchestrator

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode identifies which pipeline stage failed.
type ErrorCode string

const (
	TRANSCRIBE_FAILED  ErrorCode = "TRANSCRIBE_FAILED"
	SYNTH_FAILED       ErrorCode = "SYNTH_FAILED"
	VOICE_CLONE_FAILED ErrorCode = "VOICE_CLONE_FAILED"
	AUDIO_STORE_FAILED ErrorCode = "AUDIO_STORE_FAILED"
)

// PipelineError wraps a stage failure with its code so handlers can map it
// to an HTTP status without string matching.
type PipelineError struct {
	Code      ErrorCode
	Message   string
	Cause     error
	Timestamp time.Time
}

func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

func newPipelineError(code ErrorCode, message string, cause error) *PipelineError {
	return &PipelineError{
		Code:      code,
		Message:   message,
		Cause:     cause,
		Timestamp: time.Now(),
	}
}

func NewTranscribeError(cause error) *PipelineError {
	return newPipelineError(TRANSCRIBE_FAILED, "speech-to-text request failed", cause)
}

func NewSynthError(cause error) *PipelineError {
	return newPipelineError(SYNTH_FAILED, "speech synthesis failed", cause)
}

func NewVoiceCloneError(cause error) *PipelineError {
	return newPipelineError(VOICE_CLONE_FAILED, "voice clone registration failed", cause)
}

func NewAudioStoreError(path string, cause error) *PipelineError {
	return newPipelineError(AUDIO_STORE_FAILED, fmt.Sprintf("cannot store audio at %s", path), cause)
}

// CodeOfPipeline extracts the code from a pipeline error, or "" when err is
// not one.
func CodeOfPipeline(err error) ErrorCode {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}
