package sessions

import (
	"time"

	"github.com/revoicehq/revoice/internal/transcript"
)

// Session is the owned state of one uploaded recording: the cloned voice,
// the current audio file, and the current transcript. It is an immutable
// value replaced wholesale after each successful edit; handlers never mutate
// a Session they hold.
type Session struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	VoiceID string `json:"voice_id"`

	// AudioPath is the current audio file; SourcePath is the uploaded
	// original, kept so it can be removed with the session.
	AudioPath  string                `json:"audio_path"`
	SourcePath string                `json:"source_path"`
	Transcript transcript.Transcript `json:"transcript"`
	EditCount  int                   `json:"edit_count"`
	CreatedAt  time.Time             `json:"created_at"`
	UpdatedAt  time.Time             `json:"updated_at"`
}
