package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// handleHistory returns the most recent encode/decode frames from the
// audit log. Returns an empty list, not an error, when the store is
// disabled.
func (s *Server) handleHistory(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusOK, gin.H{"frames": []any{}})
		return
	}

	limit := 50
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	frames, err := s.store.RecentFrames(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"frames": frames})
}
