package sessions

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/revoicehq/revoice/internal/transcript"
)

var (
	// ErrNotFound means no session exists under the given ID.
	ErrNotFound = errors.New("session not found")

	// ErrNothingToUndo means the session has no previous state to restore.
	ErrNothingToUndo = errors.New("nothing to undo")
)

// entry pairs the current session value with the immediate previous one.
// Undo beyond one step is out of scope, so older states are discarded.
type entry struct {
	current  Session
	previous *Session

	// editing serializes edits per session: one replace (or undo) completes
	// or fails before the next begins.
	editing sync.Mutex
}

// Registry is a thread-safe in-memory collection of sessions. Edits are
// never persisted to disk beyond the audio files the sessions point at.
type Registry struct {
	mu sync.Mutex
	m  map[string]*entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{m: map[string]*entry{}}
}

// Create registers a new session and returns its value.
func (r *Registry) Create(name, voiceID, audioPath string, tr transcript.Transcript) Session {
	now := time.Now()
	s := Session{
		ID:         uuid.NewString(),
		Name:       name,
		VoiceID:    voiceID,
		AudioPath:  audioPath,
		SourcePath: audioPath,
		Transcript: tr,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[s.ID] = &entry{current: s}
	return s
}

// Get returns the current value of a session.
func (r *Registry) Get(id string) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.m[id]
	if !ok {
		return Session{}, false
	}
	return e.current, true
}

// List returns the current value of every session.
func (r *Registry) List() []Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Session, 0, len(r.m))
	for _, e := range r.m {
		out = append(out, e.current)
	}
	return out
}

// Delete removes a session and returns its last value.
func (r *Registry) Delete(id string) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.m[id]
	if !ok {
		return Session{}, false
	}
	delete(r.m, id)
	return e.current, true
}

// LockEdit acquires the per-session edit lock and returns the release
// function, so the caller serializes the whole synthesize-splice-reconcile
// chain for that session.
func (r *Registry) LockEdit(id string) (func(), error) {
	r.mu.Lock()
	e, ok := r.m[id]
	r.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	e.editing.Lock()
	return e.editing.Unlock, nil
}

// Replace swaps in the post-edit session value, keeping the prior value for
// one-step undo. The stored value keeps the original identity and creation
// time; audio path and transcript come from next.
func (r *Registry) Replace(id string, next Session) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.m[id]
	if !ok {
		return Session{}, ErrNotFound
	}

	prev := e.current
	next.ID = prev.ID
	next.Name = prev.Name
	next.SourcePath = prev.SourcePath
	next.CreatedAt = prev.CreatedAt
	next.EditCount = prev.EditCount + 1
	next.UpdatedAt = time.Now()

	e.previous = &prev
	e.current = next
	return next, nil
}

// Undo restores the immediate previous session value. A second consecutive
// undo fails: only one step of history is retained.
func (r *Registry) Undo(id string) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.m[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	if e.previous == nil {
		return Session{}, ErrNothingToUndo
	}

	e.current = *e.previous
	e.previous = nil
	return e.current, nil
}
