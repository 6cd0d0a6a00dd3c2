package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// handleListActivity returns the newest audit entries of a project.
func (s *Server) handleListActivity(c *gin.Context) {
	projectID, ok := s.parseID(c, "projectId")
	if !ok {
		return
	}
	entries, err := s.tracker.ListActivity(c.Request.Context(), caller(c), projectID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"activities": entries})
}
