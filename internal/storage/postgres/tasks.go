package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"taskhub/internal/models"
	"taskhub/internal/storage"
)

const taskSelect = `SELECT t.id, t.project_id, t.title, t.description, t.status, t.priority,
        t.assigned_to, u.name, u.email, t.created_at, t.updated_at
        FROM tasks t LEFT JOIN users u ON u.id = t.assigned_to`

// CreateTask inserts a new task for a project.
func (s *Store) CreateTask(ctx context.Context, t models.Task) (models.Task, error) {
	if strings.TrimSpace(t.Title) == "" {
		return models.Task{}, fmt.Errorf("task title must not be empty")
	}
	if !t.Status.Valid() {
		t.Status = models.StatusTodo
	}
	if !t.Priority.Valid() {
		t.Priority = models.PriorityMedium
	}

	now := s.now()
	var id int64
	err := s.db.QueryRow(ctx, `
        INSERT INTO tasks (project_id, title, description, status, priority, assigned_to, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id`,
		t.ProjectID, strings.TrimSpace(t.Title), strings.TrimSpace(t.Description), string(t.Status), string(t.Priority),
		nullableID(t.AssigneeID()), now, now,
	).Scan(&id)
	if err != nil {
		return models.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return s.GetTask(ctx, t.ProjectID, id)
}

// GetTask retrieves a task by id. A task of another project counts as missing.
func (s *Store) GetTask(ctx context.Context, projectID, id int64) (models.Task, error) {
	t, err := scanTask(s.db.QueryRow(ctx, taskSelect+` WHERE t.id = $1 AND t.project_id = $2`, id, projectID))
	if isNoRows(err) {
		return models.Task{}, notFound("task", id)
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// UpdateTask overwrites the mutable fields of a task in a single statement.
func (s *Store) UpdateTask(ctx context.Context, t models.Task) (models.Task, error) {
	tag, err := s.db.Exec(ctx, `
        UPDATE tasks SET title = $1, description = $2, status = $3, priority = $4, assigned_to = $5, updated_at = $6
        WHERE id = $7 AND project_id = $8`,
		strings.TrimSpace(t.Title), strings.TrimSpace(t.Description), string(t.Status), string(t.Priority),
		nullableID(t.AssigneeID()), s.now(), t.ID, t.ProjectID)
	if err != nil {
		return models.Task{}, fmt.Errorf("update task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.Task{}, notFound("task", t.ID)
	}
	return s.GetTask(ctx, t.ProjectID, t.ID)
}

// DeleteTask removes a task and returns the record as it was.
func (s *Store) DeleteTask(ctx context.Context, projectID, id int64) (models.Task, error) {
	t, err := s.GetTask(ctx, projectID, id)
	if err != nil {
		return models.Task{}, err
	}
	tag, err := s.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND project_id = $2`, id, projectID)
	if err != nil {
		return models.Task{}, fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.Task{}, notFound("task", id)
	}
	return t, nil
}

// CountTasks counts the tasks matching f.
func (s *Store) CountTasks(ctx context.Context, f storage.TaskFilter) (int, error) {
	a := &args{}
	var total int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM tasks t WHERE `+taskWhere(f, a), a.values...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return total, nil
}

// FindTasks lists tasks matching f. A nil order leaves the row order unspecified;
// a nil window returns every match.
func (s *Store) FindTasks(ctx context.Context, f storage.TaskFilter, order *storage.Order, window *storage.Window) ([]models.Task, error) {
	a := &args{}
	query := taskSelect + ` WHERE ` + taskWhere(f, a)
	if order != nil {
		clause, err := orderBy(*order)
		if err != nil {
			return nil, err
		}
		query += clause
	}
	if window != nil {
		query += ` LIMIT ` + a.add(window.Limit) + ` OFFSET ` + a.add(window.Offset)
	}

	rows, err := s.db.Query(ctx, query, a.values...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	tasks, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Task, error) {
		return scanTask(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan task: %w", err)
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return tasks, nil
}

// ClearAssignee unassigns userID from every task of the project.
func (s *Store) ClearAssignee(ctx context.Context, projectID, userID int64) (int64, error) {
	tag, err := s.db.Exec(ctx, `UPDATE tasks SET assigned_to = NULL, updated_at = $1 WHERE project_id = $2 AND assigned_to = $3`,
		s.now(), projectID, userID)
	if err != nil {
		return 0, fmt.Errorf("clear assignee: %w", err)
	}
	if n := tag.RowsAffected(); n > 0 {
		s.logger.Info("cleared task assignments",
			zap.Int64("project_id", projectID),
			zap.Int64("user_id", userID),
			zap.Int64("tasks", n),
		)
	}
	return tag.RowsAffected(), nil
}

func taskWhere(f storage.TaskFilter, a *args) string {
	clauses := []string{"t.project_id = " + a.add(f.ProjectID)}
	if f.Status != "" {
		clauses = append(clauses, "t.status = "+a.add(string(f.Status)))
	}
	if f.AssignedTo != 0 {
		clauses = append(clauses, "t.assigned_to = "+a.add(f.AssignedTo))
	}
	if f.Search != "" {
		clauses = append(clauses, `t.title ILIKE `+a.add(storage.LikePattern(f.Search))+` ESCAPE '\'`)
	}
	return strings.Join(clauses, " AND ")
}

// orderBy renders ORDER BY for a column-backed field. Unassigned tasks sort
// before any assignee ascending and after them descending, as in SQLite.
func orderBy(o storage.Order) (string, error) {
	col, ok := storage.SortColumns[o.Field]
	if !ok {
		return "", fmt.Errorf("unsupported sort field %q", o.Field)
	}
	dir := "ASC"
	nulls := ""
	if o.Desc {
		dir = "DESC"
	}
	if col == "assigned_to" {
		nulls = " NULLS FIRST"
		if o.Desc {
			nulls = " NULLS LAST"
		}
	}
	return fmt.Sprintf(` ORDER BY t.%s %s%s, t.id %s`, col, dir, nulls, dir), nil
}

func scanTask(row pgx.Row) (models.Task, error) {
	var t models.Task
	var status, priority string
	var assignee *int64
	var name, email *string
	if err := row.Scan(&t.ID, &t.ProjectID, &t.Title, &t.Description, &status, &priority,
		&assignee, &name, &email, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return models.Task{}, err
	}
	t.Status = models.TaskStatus(status)
	t.Priority = models.Priority(priority)
	if assignee != nil {
		u := models.UserSummary{ID: *assignee}
		if name != nil {
			u.Name = *name
		}
		if email != nil {
			u.Email = *email
		}
		ref := models.ResolvedRef(u)
		t.AssignedTo = &ref
	}
	return t, nil
}
