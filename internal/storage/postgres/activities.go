package postgres

import (
	"context"
	"fmt"

	"taskhub/internal/models"
)

// CreateActivity appends an audit entry.
func (s *Store) CreateActivity(ctx context.Context, a models.Activity) (models.Activity, error) {
	a.CreatedAt = s.now()
	err := s.db.QueryRow(ctx, `
        INSERT INTO activities (project_id, user_id, action, details, created_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id`,
		a.ProjectID, a.User.ID(), a.Action, a.Details, a.CreatedAt,
	).Scan(&a.ID)
	if err != nil {
		return models.Activity{}, fmt.Errorf("insert activity: %w", err)
	}
	return a, nil
}

// RecentActivities returns up to limit entries of a project, newest first, with actors resolved.
func (s *Store) RecentActivities(ctx context.Context, projectID int64, limit int) ([]models.Activity, error) {
	rows, err := s.db.Query(ctx, `SELECT a.id, a.project_id, a.action, a.details, a.created_at, u.id, u.name, u.email
        FROM activities a JOIN users u ON u.id = a.user_id
        WHERE a.project_id = $1
        ORDER BY a.created_at DESC, a.id DESC
        LIMIT $2`, projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	activities := []models.Activity{}
	for rows.Next() {
		var a models.Activity
		var u models.UserSummary
		if err := rows.Scan(&a.ID, &a.ProjectID, &a.Action, &a.Details, &a.CreatedAt, &u.ID, &u.Name, &u.Email); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		a.User = models.ResolvedRef(u)
		activities = append(activities, a)
	}
	return activities, rows.Err()
}
