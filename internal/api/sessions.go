package api

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/revoicehq/revoice/internal/orchestrator"
)

const (
	// MaxUploadSize caps the uploaded recording at 200MB.
	MaxUploadSize = 200 * 1024 * 1024
)

// HandleCreateSession ingests a recording and opens an editing session.
// POST /api/v1/sessions (multipart: audio file, optional name and voice_id)
func HandleCreateSession(orch *orchestrator.Orchestrator, uploadDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		file, err := c.FormFile("audio")
		if err != nil {
			errorResponse(c, http.StatusBadRequest, fmt.Sprintf("missing audio file: %v", err))
			return
		}
		if file.Size > MaxUploadSize {
			errorResponse(c, http.StatusRequestEntityTooLarge, "audio file exceeds 200MB limit")
			return
		}

		ext := strings.ToLower(filepath.Ext(file.Filename))
		if ext != ".mp3" {
			errorResponse(c, http.StatusBadRequest, fmt.Sprintf("unsupported audio format %q, expected .mp3", ext))
			return
		}

		name := c.PostForm("name")
		if name == "" {
			name = strings.TrimSuffix(file.Filename, ext)
		}

		if err := os.MkdirAll(uploadDir, 0o755); err != nil {
			errorResponse(c, http.StatusInternalServerError, fmt.Sprintf("cannot create upload dir: %v", err))
			return
		}
		savePath := filepath.Join(uploadDir, fmt.Sprintf("upload_%s.mp3", uuid.NewString()))
		if err := c.SaveUploadedFile(file, savePath); err != nil {
			errorResponse(c, http.StatusInternalServerError, fmt.Sprintf("cannot save upload: %v", err))
			return
		}

		s, err := orch.CreateSession(c.Request.Context(), name, savePath, c.PostForm("voice_id"))
		if err != nil {
			os.Remove(savePath)
			writeDomainError(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"success": true,
			"data":    s,
		})
	}
}

// HandleListSessions lists all open sessions.
// GET /api/v1/sessions
func HandleListSessions(orch *orchestrator.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		successResponse(c, orch.Registry().List())
	}
}

// HandleGetSession returns one session.
// GET /api/v1/sessions/:id
func HandleGetSession(orch *orchestrator.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := orch.Registry().Get(c.Param("id"))
		if !ok {
			errorResponse(c, http.StatusNotFound, "session not found")
			return
		}
		successResponse(c, s)
	}
}

// HandleGetTranscript returns the session's current transcript.
// GET /api/v1/sessions/:id/transcript
func HandleGetTranscript(orch *orchestrator.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := orch.Registry().Get(c.Param("id"))
		if !ok {
			errorResponse(c, http.StatusNotFound, "session not found")
			return
		}
		successResponse(c, s.Transcript)
	}
}

// HandleGetAudio streams the session's current audio.
// GET /api/v1/sessions/:id/audio
func HandleGetAudio(orch *orchestrator.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := orch.Registry().Get(c.Param("id"))
		if !ok {
			errorResponse(c, http.StatusNotFound, "session not found")
			return
		}
		if _, err := os.Stat(s.AudioPath); err != nil {
			errorResponse(c, http.StatusInternalServerError, "session audio missing on disk")
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.mp3"`, s.ID))
		c.Header("Content-Type", "audio/mpeg")
		c.File(s.AudioPath)
	}
}

// HandleDeleteSession closes a session and removes its audio.
// DELETE /api/v1/sessions/:id
func HandleDeleteSession(orch *orchestrator.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := orch.DeleteSession(c.Param("id")); err != nil {
			writeDomainError(c, err)
			return
		}
		successResponse(c, gin.H{"deleted": true})
	}
}
