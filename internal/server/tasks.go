package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"taskhub/internal/apperr"
	"taskhub/internal/models"
	"taskhub/internal/query"
	"taskhub/internal/tracker"
)

const idempotencyHeader = "Idempotency-Key"

// flexibleID accepts a JSON number, a numeric string or null (0).
type flexibleID int64

func (f *flexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	var raw string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	} else {
		raw = string(data)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		*f = 0
		return nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		return fmt.Errorf("invalid id %q", raw)
	}
	*f = flexibleID(id)
	return nil
}

type createTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	AssignedTo  flexibleID `json:"assignedTo"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
}

// handleListTasks returns one filtered, sorted page of a project's tasks.
func (s *Server) handleListTasks(c *gin.Context) {
	projectID, ok := s.parseID(c, "projectId")
	if !ok {
		return
	}
	req, err := query.ParseRequest(c.Request.URL.Query())
	if err != nil {
		s.respondError(c, err)
		return
	}
	res, err := s.tracker.ListTasks(c.Request.Context(), caller(c), projectID, req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, res)
}

// handleCreateTask inserts a new task into a project. A repeated
// Idempotency-Key from the same caller is rejected while the key is remembered.
func (s *Server) handleCreateTask(c *gin.Context) {
	projectID, ok := s.parseID(c, "projectId")
	if !ok {
		return
	}
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, apperr.Validation("invalid request body"))
		return
	}

	ctx := c.Request.Context()
	who := caller(c)
	key := strings.TrimSpace(c.GetHeader(idempotencyHeader))
	scope := fmt.Sprintf("create_task:%d:%d", who.UserID, projectID)
	if s.dedup != nil && key != "" {
		if !s.dedup.AcquireOnce(ctx, scope, key) {
			s.respondError(c, apperr.Conflict("duplicate request"))
			return
		}
	}

	task, err := s.tracker.CreateTask(ctx, who, projectID, tracker.TaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      models.TaskStatus(req.Status),
		Priority:    models.Priority(req.Priority),
		AssignedTo:  int64(req.AssignedTo),
	})
	if err != nil {
		if s.dedup != nil && key != "" {
			s.dedup.Release(ctx, scope, key)
		}
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"task": task})
}

// handleUpdateTask applies the fields present in the body.
func (s *Server) handleUpdateTask(c *gin.Context) {
	projectID, ok := s.parseID(c, "projectId")
	if !ok {
		return
	}
	taskID, ok := s.parseID(c, "taskId")
	if !ok {
		return
	}

	var body map[string]json.RawMessage
	if err := c.ShouldBindJSON(&body); err != nil {
		s.respondError(c, apperr.Validation("invalid request body"))
		return
	}
	task, err := s.tracker.UpdateTask(c.Request.Context(), caller(c), projectID, taskID, decodePatch(body))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task})
}

func (s *Server) handleDeleteTask(c *gin.Context) {
	projectID, ok := s.parseID(c, "projectId")
	if !ok {
		return
	}
	taskID, ok := s.parseID(c, "taskId")
	if !ok {
		return
	}
	if _, err := s.tracker.DeleteTask(c.Request.Context(), caller(c), projectID, taskID); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"message": "task deleted"})
}

// decodePatch keeps every key of body in Fields, so unknown or forbidden
// fields reach the authorization check instead of being dropped silently.
// The first malformed value is carried in Invalid.
func decodePatch(body map[string]json.RawMessage) tracker.TaskPatch {
	var patch tracker.TaskPatch
	for field := range body {
		patch.Fields = append(patch.Fields, field)
	}
	sort.Strings(patch.Fields)

	str := func(field string, dst *string) {
		raw, ok := body[field]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return
		}
		if err := json.Unmarshal(raw, dst); err != nil && patch.Invalid == nil {
			patch.Invalid = apperr.Validationf("invalid %s", field)
		}
	}

	var status, priority string
	str(tracker.FieldTitle, &patch.Title)
	str(tracker.FieldDescription, &patch.Description)
	str(tracker.FieldStatus, &status)
	str(tracker.FieldPriority, &priority)
	patch.Status = models.TaskStatus(status)
	patch.Priority = models.Priority(priority)

	if raw, ok := body[tracker.FieldAssignedTo]; ok {
		var id flexibleID
		if err := json.Unmarshal(raw, &id); err != nil && patch.Invalid == nil {
			patch.Invalid = apperr.Validation("invalid assignedTo")
		}
		patch.AssignedTo = int64(id)
	}
	return patch
}
