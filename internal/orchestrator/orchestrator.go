// Package orchestrator drives the edit pipeline: selection resolution,
// speech synthesis with prosody context, timestamp-driven splicing, and
// transcript reconciliation. Edits on the same session are serialized
// through the registry's per-session edit lock.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/revoicehq/revoice/internal/audit"
	"github.com/revoicehq/revoice/internal/domain/sessions"
	"github.com/revoicehq/revoice/internal/engine"
	"github.com/revoicehq/revoice/internal/metrics"
	"github.com/revoicehq/revoice/internal/speech"
	"github.com/revoicehq/revoice/internal/transcript"
	"github.com/revoicehq/revoice/pkg/logger"
)

// contextWordCount bounds the prosody context sent with each synthesis
// request to roughly ten words on each side of the replacement.
const contextWordCount = 10

// Config tunes the orchestrator.
type Config struct {
	// AudioDir is where per-session audio files live. Each successful edit
	// writes a new versioned file; the session value points at the latest.
	AudioDir string

	// MeasuredTiming switches transcript reconciliation from the
	// character-ratio duration estimate to the probed duration of the
	// synthesized clip.
	MeasuredTiming bool

	// SynthRetries is how many extra attempts a failed synthesis call
	// gets. Synthesis is the only retried stage; local media failures are
	// not expected to be transient.
	SynthRetries int
}

// Orchestrator owns the session registry and runs edits against it.
type Orchestrator struct {
	cfg      Config
	provider speech.Provider
	splicer  *engine.Splicer
	registry *sessions.Registry
	auditLog *audit.Logger
	logger   *slog.Logger
}

// New builds an Orchestrator. auditLog may be nil to disable auditing.
func New(cfg Config, provider speech.Provider, splicer *engine.Splicer, registry *sessions.Registry, auditLog *audit.Logger, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		cfg:      cfg,
		provider: provider,
		splicer:  splicer,
		registry: registry,
		auditLog: auditLog,
		logger:   logger,
	}
}

// Registry exposes the session registry for read-side handlers.
func (o *Orchestrator) Registry() *sessions.Registry {
	return o.registry
}

// Provider exposes the active speech backend for health checks.
func (o *Orchestrator) Provider() speech.Provider {
	return o.provider
}

// CreateSession ingests an uploaded recording: registers a cloned voice
// (unless voiceID pins an existing one), transcribes the audio, and creates
// the session value.
func (o *Orchestrator) CreateSession(ctx context.Context, name, audioPath, voiceID string) (sessions.Session, error) {
	if voiceID == "" {
		start := time.Now()
		id, err := o.provider.CloneVoice(ctx, name, audioPath)
		if err != nil {
			o.recordStage("clone", "", start, string(VOICE_CLONE_FAILED))
			return sessions.Session{}, NewVoiceCloneError(err)
		}
		o.recordStage("clone", "", start, "")
		voiceID = id
	}

	start := time.Now()
	tr, err := o.provider.Transcribe(ctx, audioPath)
	if err != nil {
		o.recordStage("transcribe", "", start, string(TRANSCRIBE_FAILED))
		return sessions.Session{}, NewTranscribeError(err)
	}
	o.recordStage("transcribe", "", start, "")

	s := o.registry.Create(name, voiceID, audioPath, tr)
	metrics.SetActiveSessions(len(o.registry.List()))
	o.auditLog.LogAction(audit.ActionCreateSession, s.ID, name)
	o.logger.Info("session created",
		"session_id", s.ID,
		"voice_id", voiceID,
		"tokens", len(tr.Tokens),
	)
	return s, nil
}

// Replace runs one edit end to end and returns the new session value. On
// any failure the session keeps its pre-edit value: no stage mutates its
// inputs, so there is nothing to roll back.
func (o *Orchestrator) Replace(ctx context.Context, sessionID string, startIndex, endIndex int, newText string) (sessions.Session, error) {
	unlock, err := o.registry.LockEdit(sessionID)
	if err != nil {
		return sessions.Session{}, err
	}
	defer unlock()

	editStart := time.Now()
	next, err := o.replaceLocked(ctx, sessionID, startIndex, endIndex, newText)

	o.auditLog.LogEdit(sessionID, startIndex, endIndex, newText, time.Since(editStart).Milliseconds(), err)
	metrics.RecordEdit(err == nil)
	if err != nil {
		return sessions.Session{}, err
	}
	return next, nil
}

func (o *Orchestrator) replaceLocked(ctx context.Context, sessionID string, startIndex, endIndex int, newText string) (sessions.Session, error) {
	s, ok := o.registry.Get(sessionID)
	if !ok {
		return sessions.Session{}, sessions.ErrNotFound
	}

	sel, err := transcript.NewSelection(s.Transcript, startIndex, endIndex)
	if err != nil {
		return sessions.Session{}, err
	}

	synthStart := time.Now()
	clip, err := o.synthesize(ctx, speech.SynthesisRequest{
		Text:         newText,
		VoiceID:      s.VoiceID,
		PreviousText: transcript.ContextBefore(s.Transcript, startIndex, contextWordCount),
		NextText:     transcript.ContextAfter(s.Transcript, endIndex, contextWordCount),
	})
	if err != nil {
		o.recordStage("synthesize", sessionID, synthStart, string(SYNTH_FAILED))
		return sessions.Session{}, NewSynthError(err)
	}
	o.recordStage("synthesize", sessionID, synthStart, "")

	clipPath, cleanup, err := o.writeClip(clip)
	if err != nil {
		return sessions.Session{}, err
	}
	defer cleanup()

	spliceStart := time.Now()
	newAudio, err := o.splicer.Splice(ctx, engine.Request{
		OriginalPath:    s.AudioPath,
		ReplacementPath: clipPath,
		StartTime:       sel.StartTime,
		EndTime:         sel.EndTime,
	})
	if err != nil {
		o.recordStage("splice", sessionID, spliceStart, string(engine.CodeOf(err)))
		return sessions.Session{}, err
	}
	o.recordStage("splice", sessionID, spliceStart, "")

	// reconcile timing metadata against the same cut window
	reconcileStart := time.Now()
	var newTranscript transcript.Transcript
	if o.cfg.MeasuredTiming {
		measured, probeErr := o.splicer.ProbeDuration(ctx, clipPath)
		if probeErr != nil {
			o.recordStage("reconcile", sessionID, reconcileStart, string(engine.CodeOf(probeErr)))
			return sessions.Session{}, probeErr
		}
		newTranscript, err = transcript.ReconcileWithDuration(s.Transcript, startIndex, endIndex, newText, measured)
	} else {
		newTranscript, err = transcript.Reconcile(s.Transcript, startIndex, endIndex, newText)
	}
	if err != nil {
		return sessions.Session{}, err
	}
	o.recordStage("reconcile", sessionID, reconcileStart, "")

	outPath := filepath.Join(o.cfg.AudioDir, fmt.Sprintf("%s_v%d.mp3", s.ID, s.EditCount+1))
	if err := os.WriteFile(outPath, newAudio, 0o644); err != nil {
		metrics.RecordError("store", string(AUDIO_STORE_FAILED))
		return sessions.Session{}, NewAudioStoreError(outPath, err)
	}

	next := s
	next.AudioPath = outPath
	next.Transcript = newTranscript

	updated, err := o.registry.Replace(sessionID, next)
	if err != nil {
		return sessions.Session{}, err
	}

	o.logger.Info("edit applied",
		"session_id", sessionID,
		"range", fmt.Sprintf("[%d, %d]", startIndex, endIndex),
		"cut_window", fmt.Sprintf("[%.3f, %.3f)", sel.StartTime, sel.EndTime),
		"audio_path", outPath,
	)
	return updated, nil
}

// recordStage emits the metric and structured log record for one finished
// pipeline stage. sessionID may be empty during ingest, before a session
// exists.
func (o *Orchestrator) recordStage(stage, sessionID string, start time.Time, errorCode string) {
	elapsed := time.Since(start)
	metrics.RecordStageDuration(stage, elapsed.Seconds())
	action := "success"
	if errorCode != "" {
		action = "error"
		metrics.RecordError(stage, errorCode)
	}
	logger.LogEditStage(o.logger, stage, action, sessionID, elapsed.Milliseconds(), errorCode)
}

// synthesize retries provider failures up to cfg.SynthRetries extra
// attempts, bailing out as soon as the context is done.
func (o *Orchestrator) synthesize(ctx context.Context, req speech.SynthesisRequest) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= o.cfg.SynthRetries; attempt++ {
		clip, err := o.provider.Synthesize(ctx, req)
		if err == nil {
			return clip, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		o.logger.Warn("synthesis attempt failed",
			"attempt", attempt+1,
			"error", err.Error(),
		)
	}
	return nil, lastErr
}

// writeClip stores the synthesized bytes where ffmpeg can read them. The
// file lives only for the duration of the splice.
func (o *Orchestrator) writeClip(clip []byte) (string, func(), error) {
	f, err := os.CreateTemp(o.cfg.AudioDir, "clip_*.mp3")
	if err != nil {
		return "", nil, NewAudioStoreError(o.cfg.AudioDir, err)
	}
	path := f.Name()
	if _, err := f.Write(clip); err != nil {
		f.Close()
		os.Remove(path)
		return "", nil, NewAudioStoreError(path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", nil, NewAudioStoreError(path, err)
	}
	return path, func() { _ = os.Remove(path) }, nil
}

// Undo restores the session's immediate previous state.
func (o *Orchestrator) Undo(sessionID string) (sessions.Session, error) {
	unlock, err := o.registry.LockEdit(sessionID)
	if err != nil {
		return sessions.Session{}, err
	}
	defer unlock()

	s, err := o.registry.Undo(sessionID)
	if err != nil {
		return sessions.Session{}, err
	}
	o.auditLog.LogAction(audit.ActionUndo, sessionID, "")
	return s, nil
}

// DeleteSession drops the session and removes the uploaded source plus all
// versioned audio files. It waits for the edit lock first so an in-flight
// edit cannot write a new file after the cleanup. Removal failures are
// logged, not fatal: the registry entry is already gone.
func (o *Orchestrator) DeleteSession(sessionID string) error {
	unlock, err := o.registry.LockEdit(sessionID)
	if err != nil {
		return err
	}
	defer unlock()

	s, ok := o.registry.Delete(sessionID)
	if !ok {
		return sessions.ErrNotFound
	}
	metrics.SetActiveSessions(len(o.registry.List()))
	o.auditLog.LogAction(audit.ActionDeleteSession, sessionID, "")

	paths, err := filepath.Glob(filepath.Join(o.cfg.AudioDir, s.ID+"_v*.mp3"))
	if err != nil {
		paths = nil
	}
	if s.SourcePath != "" {
		paths = append(paths, s.SourcePath)
	}
	for _, p := range paths {
		if rmErr := os.Remove(p); rmErr != nil && !os.IsNotExist(rmErr) {
			o.logger.Warn("cannot remove session audio", "path", p, "error", rmErr.Error())
		}
	}
	return nil
}
