package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskhub/internal/apperr"
	"taskhub/internal/tracker"
)

type projectRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

func (r projectRequest) input() tracker.ProjectInput {
	return tracker.ProjectInput{Title: r.Title, Description: r.Description}
}

// handleListProjects returns the projects the caller owns or belongs to.
func (s *Server) handleListProjects(c *gin.Context) {
	projects, err := s.tracker.ListProjects(c.Request.Context(), caller(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"projects": projects})
}

// handleCreateProject creates a project owned by the caller.
func (s *Server) handleCreateProject(c *gin.Context) {
	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, apperr.Validation("invalid request body"))
		return
	}
	project, err := s.tracker.CreateProject(c.Request.Context(), caller(c), req.input())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"project": project})
}

func (s *Server) handleGetProject(c *gin.Context) {
	id, ok := s.parseID(c, "projectId")
	if !ok {
		return
	}
	project, err := s.tracker.GetProject(c.Request.Context(), caller(c), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"project": project})
}

// handleUpdateProject changes the title or description.
func (s *Server) handleUpdateProject(c *gin.Context) {
	id, ok := s.parseID(c, "projectId")
	if !ok {
		return
	}
	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, apperr.Validation("invalid request body"))
		return
	}
	project, err := s.tracker.UpdateProject(c.Request.Context(), caller(c), id, req.input())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"project": project})
}

// handleDeleteProject removes a project and all related tasks and activity.
func (s *Server) handleDeleteProject(c *gin.Context) {
	id, ok := s.parseID(c, "projectId")
	if !ok {
		return
	}
	if err := s.tracker.DeleteProject(c.Request.Context(), caller(c), id); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"message": "project deleted"})
}
