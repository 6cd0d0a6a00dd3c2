// Package query lists the tasks of a project visible to a caller.
package query

import (
	"context"
	"time"

	"go.uber.org/zap"

	"taskhub/internal/access"
	"taskhub/internal/apperr"
	"taskhub/internal/identity"
	"taskhub/internal/metrics"
	"taskhub/internal/models"
	"taskhub/internal/storage"
)

// TaskFinder is the read side of the task store.
type TaskFinder interface {
	CountTasks(ctx context.Context, f storage.TaskFilter) (int, error)
	FindTasks(ctx context.Context, f storage.TaskFilter, order *storage.Order, window *storage.Window) ([]models.Task, error)
}

// Meta describes the page returned.
type Meta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// Result is one page of tasks.
type Result struct {
	Tasks []models.Task `json:"tasks"`
	Meta  Meta          `json:"meta"`
}

// Engine filters, sorts and paginates tasks.
type Engine struct {
	finder TaskFinder
	logger *zap.Logger
}

// NewEngine builds a query engine reading from finder.
func NewEngine(finder TaskFinder, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{finder: finder, logger: logger}
}

// EffectiveFilter applies the caller's scope to req. A scoped caller always gets
// assignedTo = self, whatever req asked for.
func EffectiveFilter(p models.Project, caller identity.Identity, rel access.Relationship, req Request) storage.TaskFilter {
	f := storage.TaskFilter{
		ProjectID: p.ID,
		Status:    req.Status,
		Search:    req.Search,
	}
	if self, restricted := access.TaskScope(caller, rel); restricted {
		f.AssignedTo = self
	} else {
		f.AssignedTo = req.AssignedTo
	}
	return f
}

// Run lists the page of tasks of p that caller may see. p must already be authorized.
func (e *Engine) Run(ctx context.Context, p models.Project, caller identity.Identity, rel access.Relationship, req Request) (Result, error) {
	if req.SortField == "" {
		req.SortField = DefaultSortField
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 {
		req.Limit = DefaultLimit
	}
	if !Sortable(req.SortField) {
		return Result{}, apperr.Validationf("unsupported sort field %q", req.SortField)
	}

	f := EffectiveFilter(p, caller, rel, req)
	start := time.Now()

	var (
		res      Result
		err      error
		strategy string
	)
	if weighted(req.SortField) {
		strategy = "memory"
		res, err = e.runInMemory(ctx, f, req)
	} else {
		strategy = "store"
		res, err = e.runInStore(ctx, f, req)
	}
	if err != nil {
		e.logger.Error("task query failed",
			zap.Int64("project_id", p.ID),
			zap.String("sort", req.SortField),
			zap.Error(err),
		)
		return Result{}, apperr.Internal(err)
	}
	metrics.RecordTaskQuery(strategy, time.Since(start))

	e.logger.Debug("tasks listed",
		zap.Int64("project_id", p.ID),
		zap.Int64("user_id", caller.UserID),
		zap.String("strategy", strategy),
		zap.Int("total", res.Meta.Total),
		zap.Int("page", res.Meta.Page),
	)
	return res, nil
}

// runInStore pushes ordering and paging to the store.
func (e *Engine) runInStore(ctx context.Context, f storage.TaskFilter, req Request) (Result, error) {
	total, err := e.finder.CountTasks(ctx, f)
	if err != nil {
		return Result{}, err
	}
	meta := newMeta(total, req)
	if req.Page > meta.TotalPages {
		return Result{Tasks: []models.Task{}, Meta: meta}, nil
	}
	tasks, err := e.finder.FindTasks(ctx, f,
		&storage.Order{Field: req.SortField, Desc: req.Desc},
		&storage.Window{Offset: (req.Page - 1) * req.Limit, Limit: req.Limit},
	)
	if err != nil {
		return Result{}, err
	}
	return Result{Tasks: tasks, Meta: meta}, nil
}

// runInMemory loads every match and applies the weight order before slicing.
func (e *Engine) runInMemory(ctx context.Context, f storage.TaskFilter, req Request) (Result, error) {
	tasks, err := e.finder.FindTasks(ctx, f, nil, nil)
	if err != nil {
		return Result{}, err
	}
	SortTasks(tasks, req.SortField, req.Desc)
	return Result{Tasks: Paginate(tasks, req.Page, req.Limit), Meta: newMeta(len(tasks), req)}, nil
}

// Paginate returns the 1-based page of tasks, or an empty slice past the end.
// The page is compared against the page count before any offset is computed,
// so huge page numbers cannot overflow.
func Paginate(tasks []models.Task, page, limit int) []models.Task {
	if page < 1 || limit < 1 || page > pageCount(len(tasks), limit) {
		return []models.Task{}
	}
	start := (page - 1) * limit
	end := start + limit
	if end > len(tasks) {
		end = len(tasks)
	}
	return tasks[start:end]
}

func newMeta(total int, req Request) Meta {
	return Meta{
		Total:      total,
		Page:       req.Page,
		Limit:      req.Limit,
		TotalPages: pageCount(total, req.Limit),
	}
}

func pageCount(total, limit int) int {
	if total == 0 {
		return 0
	}
	return (total-1)/limit + 1
}
