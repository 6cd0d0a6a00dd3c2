package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskhub/internal/apperr"
)

type memberRequest struct {
	UserID flexibleID `json:"userId"`
}

func (s *Server) handleAddMember(c *gin.Context) {
	projectID, ok := s.parseID(c, "projectId")
	if !ok {
		return
	}
	var req memberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, apperr.Validation("userId required"))
		return
	}
	project, err := s.tracker.AddMember(c.Request.Context(), caller(c), projectID, int64(req.UserID))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"project": project})
}

func (s *Server) handleRemoveMember(c *gin.Context) {
	projectID, ok := s.parseID(c, "projectId")
	if !ok {
		return
	}
	memberID, ok := s.parseID(c, "memberId")
	if !ok {
		return
	}
	project, err := s.tracker.RemoveMember(c.Request.Context(), caller(c), projectID, memberID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"project": project})
}

// handleAvailableUsers lists users that could be added to the project.
func (s *Server) handleAvailableUsers(c *gin.Context) {
	projectID, ok := s.parseID(c, "projectId")
	if !ok {
		return
	}
	users, err := s.tracker.AvailableUsers(c.Request.Context(), caller(c), projectID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"users": users})
}
