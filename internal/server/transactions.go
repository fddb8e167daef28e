package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	txdomain "github.com/openbanc/bankrecon/internal/transaction/domain"
)

func (s *Server) listTransactions(c *gin.Context) {
	filter := txdomain.ListFilter{
		Status: txdomain.Status(c.Query("status")),
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		filter.Limit = limit
	}

	items, err := s.txRepo.List(c.Request.Context(), s.db, filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (s *Server) getTransaction(c *gin.Context) {
	tx, err := s.txRepo.FindByTransactionID(c.Request.Context(), s.db, c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if tx == nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	c.JSON(http.StatusOK, tx)
}
