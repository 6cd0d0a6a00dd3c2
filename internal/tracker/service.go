// Package tracker coordinates every project, membership and task mutation:
// authorize, validate, persist, record activity, return the stored record.
//
// Checks run in a fixed order on every operation: malformed input first, then
// existence of the project (and task), then the caller's authorization. A caller
// outside a project can therefore tell a missing project (404) from one it may
// not touch (403).
package tracker

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"taskhub/internal/access"
	"taskhub/internal/activity"
	"taskhub/internal/apperr"
	"taskhub/internal/identity"
	"taskhub/internal/metrics"
	"taskhub/internal/models"
	"taskhub/internal/query"
	"taskhub/internal/storage"
)

// UserStore reads accounts.
type UserStore interface {
	GetUser(ctx context.Context, id int64) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
}

// ProjectStore persists projects and memberships.
type ProjectStore interface {
	CreateProject(ctx context.Context, p models.Project) (models.Project, error)
	GetProject(ctx context.Context, id int64) (models.Project, error)
	ListProjectsFor(ctx context.Context, userID int64) ([]models.Project, error)
	UpdateProject(ctx context.Context, p models.Project) (models.Project, error)
	DeleteProject(ctx context.Context, id int64) error
	AddMember(ctx context.Context, projectID, userID int64) error
	RemoveMember(ctx context.Context, projectID, userID int64) error
}

// TaskStore persists tasks.
type TaskStore interface {
	query.TaskFinder
	CreateTask(ctx context.Context, t models.Task) (models.Task, error)
	GetTask(ctx context.Context, projectID, id int64) (models.Task, error)
	UpdateTask(ctx context.Context, t models.Task) (models.Task, error)
	DeleteTask(ctx context.Context, projectID, id int64) (models.Task, error)
	ClearAssignee(ctx context.Context, projectID, userID int64) (int64, error)
}

// Store is everything the coordinator needs from persistence.
type Store interface {
	UserStore
	ProjectStore
	TaskStore
}

// Service is the mutation coordinator.
type Service struct {
	store    Store
	engine   *query.Engine
	activity *activity.Log
	logger   *zap.Logger
}

// NewService wires the coordinator over store. log receives the audit trail.
func NewService(store Store, log *activity.Log, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if log == nil {
		log = activity.NewLog(nopRepository{}, nil, logger)
	}
	return &Service{
		store:    store,
		engine:   query.NewEngine(store, logger),
		activity: log,
		logger:   logger,
	}
}

// loadProject validates id and fetches the project it names.
func (s *Service) loadProject(ctx context.Context, id int64) (models.Project, error) {
	if id <= 0 {
		return models.Project{}, apperr.Validation("invalid project id")
	}
	p, err := s.store.GetProject(ctx, id)
	if err != nil {
		return models.Project{}, s.storeError(err, "project not found", "load project")
	}
	return p, nil
}

// projectFor loads a project and authorizes action on it.
func (s *Service) projectFor(ctx context.Context, caller identity.Identity, projectID int64, action access.Action) (models.Project, access.Relationship, error) {
	p, err := s.loadProject(ctx, projectID)
	if err != nil {
		return models.Project{}, access.RelNone, err
	}
	rel, err := access.Authorize(caller, p, action)
	if err != nil {
		s.denied(caller, p.ID, string(action), err)
		return models.Project{}, rel, err
	}
	return p, rel, nil
}

func (s *Service) denied(caller identity.Identity, projectID int64, action string, err error) {
	metrics.IncrementAuthorizationDenied(action)
	s.logger.Info("action denied",
		zap.Int64("user_id", caller.UserID),
		zap.Int64("project_id", projectID),
		zap.String("action", action),
		zap.String("reason", apperr.Message(err)),
	)
}

// storeError maps a store failure onto the error taxonomy.
func (s *Service) storeError(err error, notFoundMsg, op string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return apperr.NotFound(notFoundMsg)
	}
	s.logger.Error(op+" failed", zap.Error(err))
	return apperr.Internal(err)
}

// nopRepository drops audit entries.
type nopRepository struct{}

func (nopRepository) CreateActivity(ctx context.Context, a models.Activity) (models.Activity, error) {
	return a, nil
}

func (nopRepository) RecentActivities(ctx context.Context, projectID int64, limit int) ([]models.Activity, error) {
	return []models.Activity{}, nil
}
