package server

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

const headerSignature = "X-Signature"

// handleBankWebhook acknowledges the gateway as soon as the transaction is
// reserved; classification continues on the task runner.
func (s *Server) handleBankWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	result, err := s.reconcileSvc.Ingest(c.Request.Context(), body, c.GetHeader(headerSignature))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if !result.Duplicate {
		trxID := result.TransactionID
		s.runner.Go("reconcile:"+trxID, func(ctx context.Context) {
			s.reconcileSvc.Reconcile(ctx, trxID)
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         "received",
		"transaction_id": result.TransactionID,
		"duplicate":      result.Duplicate,
	})
}
