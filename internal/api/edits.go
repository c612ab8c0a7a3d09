package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/revoicehq/revoice/internal/orchestrator"
)

// editRequest is the body of a replacement edit. Indices address tokens of
// the session's current transcript, inclusive on both ends.
type editRequest struct {
	StartIndex *int   `json:"start_index" binding:"required"`
	EndIndex   *int   `json:"end_index" binding:"required"`
	Text       string `json:"text" binding:"required"`
}

// HandleCreateEdit replaces the selected words with newly synthesized
// speech and returns the updated session. The pipeline stages each carry
// their own budget; timeout is the overall bound on the whole request, so
// a stalled provider cannot hold the connection open indefinitely.
// POST /api/v1/sessions/:id/edits
func HandleCreateEdit(orch *orchestrator.Orchestrator, timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req editRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errorResponse(c, http.StatusBadRequest, "start_index, end_index and text are required")
			return
		}

		ctx := c.Request.Context()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		s, err := orch.Replace(ctx, c.Param("id"), *req.StartIndex, *req.EndIndex, req.Text)
		if err != nil {
			if ctx.Err() == context.DeadlineExceeded {
				errorResponse(c, http.StatusGatewayTimeout, "edit timed out")
				return
			}
			writeDomainError(c, err)
			return
		}
		successResponse(c, s)
	}
}

// HandleUndo restores the session state before the most recent edit.
// POST /api/v1/sessions/:id/undo
func HandleUndo(orch *orchestrator.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := orch.Undo(c.Param("id"))
		if err != nil {
			writeDomainError(c, err)
			return
		}
		successResponse(c, s)
	}
}
