package tracker

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"taskhub/internal/access"
	"taskhub/internal/apperr"
	"taskhub/internal/identity"
	"taskhub/internal/models"
	"taskhub/internal/storage"
)

// ProjectInput carries the editable project fields. Nil means "leave unchanged".
type ProjectInput struct {
	Title       *string
	Description *string
}

// CreateProject creates a project owned by caller. Only owner-tier accounts may create projects.
func (s *Service) CreateProject(ctx context.Context, caller identity.Identity, in ProjectInput) (models.Project, error) {
	if in.Title == nil || strings.TrimSpace(*in.Title) == "" {
		return models.Project{}, apperr.Validation("title required")
	}
	if err := access.CanCreateProject(caller); err != nil {
		s.denied(caller, 0, "create_project", err)
		return models.Project{}, err
	}

	p := models.Project{
		Title: strings.TrimSpace(*in.Title),
		Owner: models.UnresolvedRef(caller.UserID),
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
	}
	created, err := s.store.CreateProject(ctx, p)
	if err != nil {
		return models.Project{}, s.storeError(err, "user not found", "create project")
	}
	s.logger.Info("project created", zap.Int64("project_id", created.ID), zap.Int64("owner_id", caller.UserID))
	return created, nil
}

// ListProjects returns the projects caller owns or belongs to.
func (s *Service) ListProjects(ctx context.Context, caller identity.Identity) ([]models.Project, error) {
	projects, err := s.store.ListProjectsFor(ctx, caller.UserID)
	if err != nil {
		return nil, s.storeError(err, "project not found", "list projects")
	}
	if projects == nil {
		projects = []models.Project{}
	}
	return projects, nil
}

// GetProject returns a project visible to caller.
func (s *Service) GetProject(ctx context.Context, caller identity.Identity, projectID int64) (models.Project, error) {
	p, _, err := s.projectFor(ctx, caller, projectID, access.ViewProject)
	return p, err
}

// UpdateProject changes title and/or description.
func (s *Service) UpdateProject(ctx context.Context, caller identity.Identity, projectID int64, in ProjectInput) (models.Project, error) {
	p, _, err := s.projectFor(ctx, caller, projectID, access.UpdateProject)
	if err != nil {
		return models.Project{}, err
	}
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return models.Project{}, apperr.Validation("title required")
	}
	if in.Title != nil {
		p.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
	}
	updated, err := s.store.UpdateProject(ctx, p)
	if err != nil {
		return models.Project{}, s.storeError(err, "project not found", "update project")
	}
	return updated, nil
}

// DeleteProject removes a project together with its tasks and activity.
func (s *Service) DeleteProject(ctx context.Context, caller identity.Identity, projectID int64) error {
	p, _, err := s.projectFor(ctx, caller, projectID, access.DeleteProject)
	if err != nil {
		return err
	}
	if err := s.store.DeleteProject(ctx, p.ID); err != nil {
		return s.storeError(err, "project not found", "delete project")
	}
	s.logger.Info("project deleted", zap.Int64("project_id", p.ID), zap.Int64("user_id", caller.UserID))
	return nil
}

// AddMember adds an existing user to the project.
func (s *Service) AddMember(ctx context.Context, caller identity.Identity, projectID, userID int64) (models.Project, error) {
	if userID <= 0 {
		return models.Project{}, apperr.Validation("userId required")
	}
	p, _, err := s.projectFor(ctx, caller, projectID, access.ManageMembers)
	if err != nil {
		return models.Project{}, err
	}
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return models.Project{}, s.storeError(err, "user not found", "load user")
	}
	if access.IsMember(userID, p) {
		return models.Project{}, apperr.Validation("user already member")
	}

	if err := s.store.AddMember(ctx, p.ID, userID); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return models.Project{}, apperr.Validation("user already member")
		}
		return models.Project{}, s.storeError(err, "project not found", "add member")
	}
	s.logger.Info("member added", zap.Int64("project_id", p.ID), zap.Int64("member_id", userID))
	return s.reload(ctx, p.ID)
}

// RemoveMember drops a member and unassigns that member's tasks in the project.
// Removing a user who is not a member is a no-op.
func (s *Service) RemoveMember(ctx context.Context, caller identity.Identity, projectID, memberID int64) (models.Project, error) {
	if memberID <= 0 {
		return models.Project{}, apperr.Validation("invalid member id")
	}
	p, _, err := s.projectFor(ctx, caller, projectID, access.ManageMembers)
	if err != nil {
		return models.Project{}, err
	}
	if access.IsOwner(memberID, p) {
		return models.Project{}, apperr.Validation("cannot remove project owner")
	}

	if err := s.store.RemoveMember(ctx, p.ID, memberID); err != nil {
		return models.Project{}, s.storeError(err, "project not found", "remove member")
	}
	cleared, err := s.store.ClearAssignee(ctx, p.ID, memberID)
	if err != nil {
		return models.Project{}, s.storeError(err, "project not found", "clear assignee")
	}
	s.logger.Info("member removed",
		zap.Int64("project_id", p.ID),
		zap.Int64("member_id", memberID),
		zap.Int64("tasks_unassigned", cleared),
	)
	return s.reload(ctx, p.ID)
}

// AvailableUsers lists every user who is neither the owner nor a member of the project.
func (s *Service) AvailableUsers(ctx context.Context, caller identity.Identity, projectID int64) ([]models.UserSummary, error) {
	p, _, err := s.projectFor(ctx, caller, projectID, access.ListAvailableUsers)
	if err != nil {
		return nil, err
	}
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, s.storeError(err, "user not found", "list users")
	}
	out := []models.UserSummary{}
	for _, u := range users {
		if access.Relate(u.ID, p) == access.RelNone {
			out = append(out, u.Summary())
		}
	}
	return out, nil
}

func (s *Service) reload(ctx context.Context, projectID int64) (models.Project, error) {
	p, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return models.Project{}, s.storeError(err, "project not found", "load project")
	}
	return p, nil
}
