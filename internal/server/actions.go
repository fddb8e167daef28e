package server

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	headerSlackTimestamp = "X-Slack-Request-Timestamp"
	headerSlackSignature = "X-Slack-Signature"
)

// handleSlackAction must answer within Slack's three second budget, so the
// state transition and follow-ups run on the task runner.
func (s *Server) handleSlackAction(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	cb, err := s.actionSvc.Ingest(
		c.Request.Context(),
		body,
		c.GetHeader(headerSlackTimestamp),
		c.GetHeader(headerSlackSignature),
	)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.runner.Go("action:"+cb.TransactionID, func(ctx context.Context) {
		s.actionSvc.Process(ctx, cb)
	})

	c.Status(http.StatusOK)
}
