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

const projectSelect = `SELECT p.id, p.title, p.description, p.created_at, p.updated_at,
        u.id, u.name, u.email
        FROM projects p JOIN users u ON u.id = p.owner_id`

// CreateProject persists a new project owned by p.Owner.
func (s *Store) CreateProject(ctx context.Context, p models.Project) (models.Project, error) {
	if strings.TrimSpace(p.Title) == "" {
		return models.Project{}, fmt.Errorf("project title must not be empty")
	}
	now := s.now()
	var id int64
	err := s.db.QueryRow(ctx, `
        INSERT INTO projects (title, description, owner_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id`,
		strings.TrimSpace(p.Title), strings.TrimSpace(p.Description), p.Owner.ID(), now, now,
	).Scan(&id)
	if err != nil {
		return models.Project{}, fmt.Errorf("insert project: %w", err)
	}
	return s.GetProject(ctx, id)
}

// GetProject fetches a project with its owner and members resolved.
func (s *Store) GetProject(ctx context.Context, id int64) (models.Project, error) {
	p, err := scanProject(s.db.QueryRow(ctx, projectSelect+` WHERE p.id = $1`, id))
	if isNoRows(err) {
		return models.Project{}, notFound("project", id)
	}
	if err != nil {
		return models.Project{}, fmt.Errorf("get project: %w", err)
	}
	if p.Members, err = s.loadMembers(ctx, p.ID); err != nil {
		return models.Project{}, err
	}
	return p, nil
}

// ListProjectsFor returns the projects userID owns or belongs to, oldest first.
func (s *Store) ListProjectsFor(ctx context.Context, userID int64) ([]models.Project, error) {
	rows, err := s.db.Query(ctx, projectSelect+`
        WHERE p.owner_id = $1 OR p.id IN (SELECT project_id FROM project_members WHERE user_id = $1)
        ORDER BY p.created_at ASC, p.id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	projects, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Project, error) {
		return scanProject(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan project: %w", err)
	}

	for i := range projects {
		if projects[i].Members, err = s.loadMembers(ctx, projects[i].ID); err != nil {
			return nil, err
		}
	}
	return projects, nil
}

// UpdateProject saves title and description.
func (s *Store) UpdateProject(ctx context.Context, p models.Project) (models.Project, error) {
	if strings.TrimSpace(p.Title) == "" {
		return models.Project{}, fmt.Errorf("project title must not be empty")
	}
	tag, err := s.db.Exec(ctx, `UPDATE projects SET title = $1, description = $2, updated_at = $3 WHERE id = $4`,
		strings.TrimSpace(p.Title), strings.TrimSpace(p.Description), s.now(), p.ID)
	if err != nil {
		return models.Project{}, fmt.Errorf("update project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.Project{}, notFound("project", p.ID)
	}
	return s.GetProject(ctx, p.ID)
}

// DeleteProject removes a project; members, tasks and activity go with it.
func (s *Store) DeleteProject(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("project", id)
	}
	s.logger.Info("project deleted", zap.Int64("project_id", id))
	return nil
}

// AddMember inserts a membership row. An existing membership yields storage.ErrDuplicate.
func (s *Store) AddMember(ctx context.Context, projectID, userID int64) error {
	_, err := s.db.Exec(ctx, `INSERT INTO project_members (project_id, user_id) VALUES ($1, $2)`, projectID, userID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("member %d of project %d: %w", userID, projectID, storage.ErrDuplicate)
		}
		return fmt.Errorf("add member: %w", err)
	}
	return nil
}

// RemoveMember deletes a membership row. Removing a non-member is not an error.
func (s *Store) RemoveMember(ctx context.Context, projectID, userID int64) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM project_members WHERE project_id = $1 AND user_id = $2`, projectID, userID); err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	return nil
}

func (s *Store) loadMembers(ctx context.Context, projectID int64) ([]models.UserRef, error) {
	rows, err := s.db.Query(ctx, `SELECT u.id, u.name, u.email FROM project_members m
        JOIN users u ON u.id = m.user_id WHERE m.project_id = $1 ORDER BY u.id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	members := []models.UserRef{}
	for rows.Next() {
		var u models.UserSummary
		if err := rows.Scan(&u.ID, &u.Name, &u.Email); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, models.ResolvedRef(u))
	}
	return members, rows.Err()
}

func scanProject(row pgx.Row) (models.Project, error) {
	var p models.Project
	var owner models.UserSummary
	if err := row.Scan(&p.ID, &p.Title, &p.Description, &p.CreatedAt, &p.UpdatedAt, &owner.ID, &owner.Name, &owner.Email); err != nil {
		return models.Project{}, err
	}
	p.Owner = models.ResolvedRef(owner)
	p.Members = []models.UserRef{}
	return p, nil
}
