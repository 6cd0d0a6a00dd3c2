package tracker

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"taskhub/internal/access"
	"taskhub/internal/apperr"
	"taskhub/internal/identity"
	"taskhub/internal/models"
	"taskhub/internal/query"
)

// Task fields accepted in an update.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldStatus      = "status"
	FieldPriority    = "priority"
	FieldAssignedTo  = "assignedTo"
)

var updatableFields = map[string]bool{
	FieldTitle:       true,
	FieldDescription: true,
	FieldStatus:      true,
	FieldPriority:    true,
	FieldAssignedTo:  true,
}

// TaskInput is a task creation request. Empty Status and Priority take the defaults.
type TaskInput struct {
	Title       string
	Description string
	Status      models.TaskStatus
	Priority    models.Priority
	AssignedTo  int64
}

// TaskPatch is a partial task update. Fields names every key the caller sent,
// recognized or not; only those fields are applied. AssignedTo 0 unassigns.
type TaskPatch struct {
	Fields      []string
	Title       string
	Description string
	Status      models.TaskStatus
	Priority    models.Priority
	AssignedTo  int64
	// Invalid is a malformed value in the request body. It is reported
	// only after the project, task and caller's rights have been checked.
	Invalid error
}

// Has reports whether the patch sets field.
func (p TaskPatch) Has(field string) bool {
	for _, f := range p.Fields {
		if f == field {
			return true
		}
	}
	return false
}

// ListTasks returns one page of the tasks caller may see in the project.
func (s *Service) ListTasks(ctx context.Context, caller identity.Identity, projectID int64, req query.Request) (query.Result, error) {
	p, rel, err := s.projectFor(ctx, caller, projectID, access.ListTasks)
	if err != nil {
		return query.Result{}, err
	}
	return s.engine.Run(ctx, p, caller, rel, req)
}

// CreateTask adds a task to the project. Only the project owner may create tasks.
func (s *Service) CreateTask(ctx context.Context, caller identity.Identity, projectID int64, in TaskInput) (models.Task, error) {
	p, _, err := s.projectFor(ctx, caller, projectID, access.CreateTask)
	if err != nil {
		return models.Task{}, err
	}

	t := models.Task{
		ProjectID:   p.ID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
	}
	if t.Title == "" {
		return models.Task{}, apperr.Validation("title required")
	}
	if t.Status == "" {
		t.Status = models.StatusTodo
	}
	if t.Priority == "" {
		t.Priority = models.PriorityMedium
	}
	if err := validateEnums(t); err != nil {
		return models.Task{}, err
	}
	if in.AssignedTo != 0 {
		if err := s.checkAssignee(ctx, p.ID, in.AssignedTo); err != nil {
			return models.Task{}, err
		}
		ref := models.UnresolvedRef(in.AssignedTo)
		t.AssignedTo = &ref
	}

	created, err := s.store.CreateTask(ctx, t)
	if err != nil {
		return models.Task{}, s.storeError(err, "project not found", "create task")
	}
	s.activity.RecordCreated(ctx, caller.UserID, created)
	s.logger.Info("task created",
		zap.Int64("project_id", p.ID),
		zap.Int64("task_id", created.ID),
		zap.Int64("user_id", caller.UserID),
	)
	return created, nil
}

// UpdateTask applies patch to a task. Members may only send the fields in
// access.MemberUpdatableFields; any other field rejects the whole update.
func (s *Service) UpdateTask(ctx context.Context, caller identity.Identity, projectID, taskID int64, patch TaskPatch) (models.Task, error) {
	if taskID <= 0 {
		return models.Task{}, apperr.Validation("invalid task id")
	}
	p, rel, err := s.projectFor(ctx, caller, projectID, access.UpdateTask)
	if err != nil {
		return models.Task{}, err
	}
	before, err := s.store.GetTask(ctx, p.ID, taskID)
	if err != nil {
		return models.Task{}, s.storeError(err, "task not found", "load task")
	}
	if err := access.CheckUpdateFields(rel, patch.Fields); err != nil {
		s.denied(caller, p.ID, string(access.UpdateTask), err)
		return models.Task{}, err
	}
	for _, f := range patch.Fields {
		if !updatableFields[f] {
			return models.Task{}, apperr.Validationf("field %q cannot be updated", f)
		}
	}
	if patch.Invalid != nil {
		return models.Task{}, patch.Invalid
	}
	if len(patch.Fields) == 0 {
		return before, nil
	}

	after := before
	if patch.Has(FieldTitle) {
		after.Title = strings.TrimSpace(patch.Title)
		if after.Title == "" {
			return models.Task{}, apperr.Validation("title required")
		}
	}
	if patch.Has(FieldDescription) {
		after.Description = patch.Description
	}
	if patch.Has(FieldStatus) {
		after.Status = patch.Status
	}
	if patch.Has(FieldPriority) {
		after.Priority = patch.Priority
	}
	if err := validateEnums(after); err != nil {
		return models.Task{}, err
	}
	if patch.Has(FieldAssignedTo) {
		if patch.AssignedTo == 0 {
			after.AssignedTo = nil
		} else {
			if err := s.checkAssignee(ctx, p.ID, patch.AssignedTo); err != nil {
				return models.Task{}, err
			}
			ref := models.UnresolvedRef(patch.AssignedTo)
			after.AssignedTo = &ref
		}
	}

	updated, err := s.store.UpdateTask(ctx, after)
	if err != nil {
		return models.Task{}, s.storeError(err, "task not found", "update task")
	}
	s.activity.RecordUpdated(ctx, caller.UserID, before, updated)
	return updated, nil
}

// DeleteTask removes a task. Only the project owner may delete tasks.
func (s *Service) DeleteTask(ctx context.Context, caller identity.Identity, projectID, taskID int64) (models.Task, error) {
	if taskID <= 0 {
		return models.Task{}, apperr.Validation("invalid task id")
	}
	p, _, err := s.projectFor(ctx, caller, projectID, access.DeleteTask)
	if err != nil {
		return models.Task{}, err
	}
	deleted, err := s.store.DeleteTask(ctx, p.ID, taskID)
	if err != nil {
		return models.Task{}, s.storeError(err, "task not found", "delete task")
	}
	s.activity.RecordDeleted(ctx, caller.UserID, deleted)
	s.logger.Info("task deleted",
		zap.Int64("project_id", p.ID),
		zap.Int64("task_id", deleted.ID),
		zap.Int64("user_id", caller.UserID),
	)
	return deleted, nil
}

// ListActivity returns the newest activity entries of the project.
func (s *Service) ListActivity(ctx context.Context, caller identity.Identity, projectID int64) ([]models.Activity, error) {
	p, _, err := s.projectFor(ctx, caller, projectID, access.ViewActivity)
	if err != nil {
		return nil, err
	}
	entries, err := s.activity.Recent(ctx, p.ID)
	if err != nil {
		s.logger.Error("list activity failed", zap.Int64("project_id", p.ID), zap.Error(err))
		return nil, apperr.Internal(err)
	}
	return entries, nil
}

// checkAssignee reloads the project so membership is judged as of now,
// not from the snapshot loaded for authorization.
func (s *Service) checkAssignee(ctx context.Context, projectID, userID int64) error {
	current, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return s.storeError(err, "project not found", "load project")
	}
	if !access.IsMember(userID, current) {
		return apperr.Validation("assignedTo must be owner or member of project")
	}
	return nil
}

func validateEnums(t models.Task) error {
	if !t.Status.Valid() {
		return apperr.Validationf("invalid status %q", t.Status)
	}
	if !t.Priority.Valid() {
		return apperr.Validationf("invalid priority %q", t.Priority)
	}
	return nil
}
