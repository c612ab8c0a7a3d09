package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/revoicehq/revoice/internal/domain/sessions"
	"github.com/revoicehq/revoice/internal/engine"
	"github.com/revoicehq/revoice/internal/orchestrator"
	"github.com/revoicehq/revoice/internal/transcript"
)

func errorResponse(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"success": false,
		"message": message,
	})
}

func successResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

// writeDomainError maps a pipeline failure onto an HTTP status. Client
// mistakes (bad ranges, unknown sessions) are 4xx; provider failures are
// 502 because retrying may succeed; local media and storage failures are
// 500.
func writeDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, sessions.ErrNotFound):
		errorResponse(c, http.StatusNotFound, "session not found")
	case errors.Is(err, sessions.ErrNothingToUndo):
		errorResponse(c, http.StatusConflict, "nothing to undo")
	case errors.Is(err, transcript.ErrInvalidRange),
		errors.Is(err, transcript.ErrNoWordInRange),
		errors.Is(err, transcript.ErrDegenerateSelection):
		errorResponse(c, http.StatusBadRequest, err.Error())
	default:
		writeCodedError(c, err)
	}
}

func writeCodedError(c *gin.Context, err error) {
	if code := engine.CodeOf(err); code != "" {
		if code == engine.INVALID_RANGE {
			errorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
		errorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	switch orchestrator.CodeOfPipeline(err) {
	case orchestrator.TRANSCRIBE_FAILED, orchestrator.SYNTH_FAILED, orchestrator.VOICE_CLONE_FAILED:
		errorResponse(c, http.StatusBadGateway, err.Error())
	case orchestrator.AUDIO_STORE_FAILED:
		errorResponse(c, http.StatusInternalServerError, err.Error())
	default:
		errorResponse(c, http.StatusInternalServerError, err.Error())
	}
}
