package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revoicehq/revoice/internal/domain/sessions"
	"github.com/revoicehq/revoice/internal/engine"
	"github.com/revoicehq/revoice/internal/speech"
	"github.com/revoicehq/revoice/internal/transcript"
)

// stubRunner stands in for ffmpeg at the orchestrator level. It reports a
// ten second source, materializes every output file, and returns fixed
// bytes for the concat result.
type stubRunner struct{}

func (stubRunner) Run(_ context.Context, cmd engine.Command) (engine.Result, error) {
	args := strings.Join(cmd.Args, " ")
	if strings.Contains(args, "-f null") {
		return engine.Result{Stderr: "size=N/A time=00:00:10.00 bitrate=N/A speed= 112x"}, nil
	}
	out := cmd.Args[len(cmd.Args)-1]
	if err := os.WriteFile(out, []byte("spliced-audio"), 0o644); err != nil {
		return engine.Result{}, err
	}
	return engine.Result{}, nil
}

func newTestOrchestrator(t *testing.T, cfg Config, provider speech.Provider) *Orchestrator {
	t.Helper()
	if cfg.AudioDir == "" {
		cfg.AudioDir = t.TempDir()
	}
	tools := engine.NewToolchain("ffmpeg", stubRunner{})
	splicer := engine.NewSplicer(tools, t.TempDir(), 2)
	return New(cfg, provider, splicer, sessions.NewRegistry(), nil, nil)
}

func createTestSession(t *testing.T, o *Orchestrator) sessions.Session {
	t.Helper()
	src := filepath.Join(t.TempDir(), "original.mp3")
	require.NoError(t, os.WriteFile(src, []byte("original-audio"), 0o644))
	s, err := o.CreateSession(context.Background(), "podcast", src, "")
	require.NoError(t, err)
	return s
}

func TestCreateSession_ClonesAndTranscribes(t *testing.T) {
	o := newTestOrchestrator(t, Config{}, speech.NewMock())
	s := createTestSession(t, o)

	assert.Equal(t, "mock-voice-podcast", s.VoiceID)
	assert.Equal(t, "Hello world", s.Transcript.Text)
	assert.Equal(t, 0, s.EditCount)

	got, ok := o.Registry().Get(s.ID)
	require.True(t, ok)
	assert.Equal(t, s.ID, got.ID)
}

func TestCreateSession_ExplicitVoiceSkipsClone(t *testing.T) {
	mock := speech.NewMock()
	o := newTestOrchestrator(t, Config{}, mock)

	src := filepath.Join(t.TempDir(), "original.mp3")
	require.NoError(t, os.WriteFile(src, []byte("original-audio"), 0o644))
	s, err := o.CreateSession(context.Background(), "podcast", src, "voice-preset")
	require.NoError(t, err)
	assert.Equal(t, "voice-preset", s.VoiceID)
}

func TestReplace_UpdatesAudioAndTranscript(t *testing.T) {
	mock := speech.NewMock()
	o := newTestOrchestrator(t, Config{}, mock)
	s := createTestSession(t, o)

	next, err := o.Replace(context.Background(), s.ID, 2, 2, "there")
	require.NoError(t, err)

	assert.Equal(t, "Hello there", next.Transcript.Text)
	assert.Equal(t, 1, next.EditCount)
	assert.NotEqual(t, s.AudioPath, next.AudioPath)
	assert.Equal(t, s.ID+"_v1.mp3", filepath.Base(next.AudioPath))

	data, err := os.ReadFile(next.AudioPath)
	require.NoError(t, err)
	assert.Equal(t, []byte("spliced-audio"), data)

	// the synthesis request carried the surrounding words as context
	require.Len(t, mock.Calls, 1)
	assert.Equal(t, "there", mock.Calls[0].Text)
	assert.Equal(t, "Hello", mock.Calls[0].PreviousText)
	assert.Equal(t, "", mock.Calls[0].NextText)
	assert.Equal(t, s.VoiceID, mock.Calls[0].VoiceID)
}

func TestReplace_SecondEditVersionsAudio(t *testing.T) {
	o := newTestOrchestrator(t, Config{}, speech.NewMock())
	s := createTestSession(t, o)

	_, err := o.Replace(context.Background(), s.ID, 2, 2, "there")
	require.NoError(t, err)
	next, err := o.Replace(context.Background(), s.ID, 0, 0, "Goodbye")
	require.NoError(t, err)

	assert.Equal(t, 2, next.EditCount)
	assert.Equal(t, s.ID+"_v2.mp3", filepath.Base(next.AudioPath))
	assert.Equal(t, "Goodbye there", next.Transcript.Text)
}

func TestReplace_SynthFailureLeavesSessionIntact(t *testing.T) {
	mock := speech.NewMock()
	o := newTestOrchestrator(t, Config{}, mock)
	s := createTestSession(t, o)

	mock.Err = errors.New("quota exceeded")
	_, err := o.Replace(context.Background(), s.ID, 0, 0, "Goodbye")
	require.Error(t, err)
	assert.Equal(t, SYNTH_FAILED, CodeOfPipeline(err))

	got, ok := o.Registry().Get(s.ID)
	require.True(t, ok)
	assert.Equal(t, s.Transcript.Text, got.Transcript.Text)
	assert.Equal(t, 0, got.EditCount)
}

func TestReplace_RetriesSynthesis(t *testing.T) {
	mock := &flakySynth{Mock: speech.NewMock(), failures: 2}
	o := newTestOrchestrator(t, Config{SynthRetries: 2}, mock)
	s := createTestSession(t, o)

	next, err := o.Replace(context.Background(), s.ID, 2, 2, "there")
	require.NoError(t, err)
	assert.Equal(t, "Hello there", next.Transcript.Text)
	assert.Equal(t, 3, mock.attempts)
}

// flakySynth fails the first N synthesis calls, then succeeds.
type flakySynth struct {
	*speech.Mock
	failures int
	attempts int
}

func (f *flakySynth) Synthesize(ctx context.Context, req speech.SynthesisRequest) ([]byte, error) {
	f.attempts++
	if f.attempts <= f.failures {
		return nil, fmt.Errorf("transient failure %d", f.attempts)
	}
	return f.Mock.Synthesize(ctx, req)
}

func TestReplace_InvalidRangeRejected(t *testing.T) {
	o := newTestOrchestrator(t, Config{}, speech.NewMock())
	s := createTestSession(t, o)

	_, err := o.Replace(context.Background(), s.ID, 5, 9, "nope")
	assert.ErrorIs(t, err, transcript.ErrInvalidRange)
}

func TestReplace_UnknownSession(t *testing.T) {
	o := newTestOrchestrator(t, Config{}, speech.NewMock())
	_, err := o.Replace(context.Background(), "no-such-id", 0, 0, "x")
	assert.ErrorIs(t, err, sessions.ErrNotFound)
}

func TestUndo_RestoresPreviousState(t *testing.T) {
	o := newTestOrchestrator(t, Config{}, speech.NewMock())
	s := createTestSession(t, o)

	_, err := o.Replace(context.Background(), s.ID, 2, 2, "there")
	require.NoError(t, err)

	restored, err := o.Undo(s.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello world", restored.Transcript.Text)

	_, err = o.Undo(s.ID)
	assert.ErrorIs(t, err, sessions.ErrNothingToUndo)
}

func TestDeleteSession_RemovesVersionedAudio(t *testing.T) {
	audioDir := t.TempDir()
	o := newTestOrchestrator(t, Config{AudioDir: audioDir}, speech.NewMock())
	s := createTestSession(t, o)

	next, err := o.Replace(context.Background(), s.ID, 2, 2, "there")
	require.NoError(t, err)
	require.FileExists(t, next.AudioPath)
	require.FileExists(t, s.SourcePath)

	require.NoError(t, o.DeleteSession(s.ID))
	assert.NoFileExists(t, next.AudioPath)
	assert.NoFileExists(t, s.SourcePath)

	_, ok := o.Registry().Get(s.ID)
	assert.False(t, ok)
	assert.ErrorIs(t, o.DeleteSession(s.ID), sessions.ErrNotFound)
}

func TestDeleteSession_WaitsForInFlightEdit(t *testing.T) {
	o := newTestOrchestrator(t, Config{}, speech.NewMock())
	s := createTestSession(t, o)

	unlock, err := o.Registry().LockEdit(s.ID)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- o.DeleteSession(s.ID)
	}()

	select {
	case <-done:
		t.Fatal("delete completed while the edit lock was held")
	case <-time.After(50 * time.Millisecond):
	}

	unlock()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("delete did not complete after the edit lock was released")
	}
	_, ok := o.Registry().Get(s.ID)
	assert.False(t, ok)
}

func TestReplace_MeasuredTimingUsesProbedDuration(t *testing.T) {
	o := newTestOrchestrator(t, Config{MeasuredTiming: true}, speech.NewMock())
	s := createTestSession(t, o)

	// the stub runner probes every file at ten seconds, so the replacement
	// word spans the full probed duration
	next, err := o.Replace(context.Background(), s.ID, 2, 2, "there")
	require.NoError(t, err)

	word := next.Transcript.Tokens[2]
	assert.Equal(t, "there", word.Text)
	assert.InDelta(t, 10.0, word.End-word.Start, 1e-9)
}
