package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

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
	res, err := s.db.ExecContext(ctx, `INSERT INTO tasks(project_id, title, description, status, priority, assigned_to, created_at, updated_at)
        VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ProjectID, strings.TrimSpace(t.Title), strings.TrimSpace(t.Description), string(t.Status), string(t.Priority),
		nullableID(t.AssigneeID()), now, now)
	if err != nil {
		return models.Task{}, fmt.Errorf("insert task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Task{}, fmt.Errorf("task id: %w", err)
	}
	return s.GetTask(ctx, t.ProjectID, id)
}

// GetTask retrieves a task by id. A task of another project counts as missing.
func (s *Store) GetTask(ctx context.Context, projectID, id int64) (models.Task, error) {
	t, err := scanTask(s.db.QueryRowContext(ctx, taskSelect+` WHERE t.id = ? AND t.project_id = ?`, id, projectID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, notFound("task", id)
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// UpdateTask overwrites the mutable fields of a task in a single statement.
func (s *Store) UpdateTask(ctx context.Context, t models.Task) (models.Task, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE tasks SET title = ?, description = ?, status = ?, priority = ?, assigned_to = ?, updated_at = ?
        WHERE id = ? AND project_id = ?`,
		strings.TrimSpace(t.Title), strings.TrimSpace(t.Description), string(t.Status), string(t.Priority),
		nullableID(t.AssigneeID()), s.now(), t.ID, t.ProjectID)
	if err != nil {
		return models.Task{}, fmt.Errorf("update task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.Task{}, err
	}
	if affected == 0 {
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
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ? AND project_id = ?`, id, projectID)
	if err != nil {
		return models.Task{}, fmt.Errorf("delete task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.Task{}, err
	}
	if affected == 0 {
		return models.Task{}, notFound("task", id)
	}
	return t, nil
}

// CountTasks counts the tasks matching f.
func (s *Store) CountTasks(ctx context.Context, f storage.TaskFilter) (int, error) {
	where, args := taskWhere(f)
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks t WHERE `+where, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return total, nil
}

// FindTasks lists tasks matching f. A nil order leaves the row order unspecified;
// a nil window returns every match.
func (s *Store) FindTasks(ctx context.Context, f storage.TaskFilter, order *storage.Order, window *storage.Window) ([]models.Task, error) {
	where, args := taskWhere(f)
	query := taskSelect + ` WHERE ` + where

	if order != nil {
		col, ok := storage.SortColumns[order.Field]
		if !ok {
			return nil, fmt.Errorf("unsupported sort field %q", order.Field)
		}
		dir := "ASC"
		if order.Desc {
			dir = "DESC"
		}
		query += fmt.Sprintf(` ORDER BY t.%s %s, t.id %s`, col, dir, dir)
	}
	if window != nil {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, window.Limit, window.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// ClearAssignee unassigns userID from every task of the project.
func (s *Store) ClearAssignee(ctx context.Context, projectID, userID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE tasks SET assigned_to = NULL, updated_at = ? WHERE project_id = ? AND assigned_to = ?`,
		s.now(), projectID, userID)
	if err != nil {
		return 0, fmt.Errorf("clear assignee: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected > 0 {
		s.logger.Info("cleared task assignments",
			zap.Int64("project_id", projectID),
			zap.Int64("user_id", userID),
			zap.Int64("tasks", affected),
		)
	}
	return affected, nil
}

func taskWhere(f storage.TaskFilter) (string, []any) {
	clauses := []string{"t.project_id = ?"}
	args := []any{f.ProjectID}
	if f.Status != "" {
		clauses = append(clauses, "t.status = ?")
		args = append(args, string(f.Status))
	}
	if f.AssignedTo != 0 {
		clauses = append(clauses, "t.assigned_to = ?")
		args = append(args, f.AssignedTo)
	}
	if f.Search != "" {
		clauses = append(clauses, `unicode_lower(t.title) LIKE ? ESCAPE '\'`)
		args = append(args, storage.LikePattern(f.Search))
	}
	return strings.Join(clauses, " AND "), args
}

func scanTask(row rowScanner) (models.Task, error) {
	var t models.Task
	var status, priority string
	var assignee sql.NullInt64
	var name, email sql.NullString
	if err := row.Scan(&t.ID, &t.ProjectID, &t.Title, &t.Description, &status, &priority,
		&assignee, &name, &email, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return models.Task{}, err
	}
	t.Status = models.TaskStatus(status)
	t.Priority = models.Priority(priority)
	if assignee.Valid {
		ref := models.ResolvedRef(models.UserSummary{ID: assignee.Int64, Name: name.String, Email: email.String})
		t.AssignedTo = &ref
	}
	return t, nil
}
