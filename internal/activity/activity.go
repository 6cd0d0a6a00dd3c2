// Package activity keeps the audit trail of task mutations.
//
// Entries are written after the mutation they describe has been persisted.
// A failed write is logged and swallowed: the caller still sees the mutation
// succeed, and the trail has a gap.
package activity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"taskhub/internal/metrics"
	"taskhub/internal/models"
)

const (
	ActionCreated = "created task"
	ActionUpdated = "updated task"
	ActionDeleted = "deleted task"

	// RecentLimit is the number of entries returned by Recent.
	RecentLimit = 50

	// RoutingKey is used when entries are published to the broker.
	RoutingKey = "activity.created"
)

// Repository persists and reads activity entries.
type Repository interface {
	CreateActivity(ctx context.Context, a models.Activity) (models.Activity, error)
	RecentActivities(ctx context.Context, projectID int64, limit int) ([]models.Activity, error)
}

// Publisher sends a payload to a message broker.
type Publisher interface {
	Publish(routingKey string, payload any) error
}

// Event is the broker payload for a written entry.
type Event struct {
	ID        int64     `json:"id"`
	ProjectID int64     `json:"projectId"`
	UserID    int64     `json:"userId"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"createdAt"`
}

// Log records task mutations.
type Log struct {
	repo      Repository
	publisher Publisher
	logger    *zap.Logger
}

// NewLog builds an activity log. publisher may be nil.
func NewLog(repo Repository, publisher Publisher, logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{repo: repo, publisher: publisher, logger: logger}
}

// RecordCreated writes the entry for a new task.
func (l *Log) RecordCreated(ctx context.Context, actorID int64, t models.Task) {
	l.record(ctx, actorID, t.ProjectID, ActionCreated, fmt.Sprintf("Created task %q", t.Title))
}

// RecordUpdated writes an entry when a tracked field changed between before and after.
// It reports whether an entry was attempted.
func (l *Log) RecordUpdated(ctx context.Context, actorID int64, before, after models.Task) bool {
	details, changed := DescribeUpdate(before, after)
	if !changed {
		return false
	}
	l.record(ctx, actorID, after.ProjectID, ActionUpdated, details)
	return true
}

// RecordDeleted writes the entry for a removed task.
func (l *Log) RecordDeleted(ctx context.Context, actorID int64, t models.Task) {
	l.record(ctx, actorID, t.ProjectID, ActionDeleted, fmt.Sprintf("Deleted task %q", t.Title))
}

// Recent returns the newest entries of a project with actors resolved.
func (l *Log) Recent(ctx context.Context, projectID int64) ([]models.Activity, error) {
	entries, err := l.repo.RecentActivities(ctx, projectID, RecentLimit)
	if err != nil {
		return nil, fmt.Errorf("recent activity of project %d: %w", projectID, err)
	}
	if entries == nil {
		entries = []models.Activity{}
	}
	return entries, nil
}

// DescribeUpdate lists the tracked changes from before to after.
// Only status and description are tracked; a description change is flagged, not diffed.
func DescribeUpdate(before, after models.Task) (string, bool) {
	var changes []string
	if after.Status != before.Status {
		changes = append(changes, fmt.Sprintf("status: %s → %s", before.Status, after.Status))
	}
	if after.Description != before.Description {
		changes = append(changes, "updated description")
	}
	if len(changes) == 0 {
		return "", false
	}
	return fmt.Sprintf("Updated %q (%s)", after.Title, strings.Join(changes, ", ")), true
}

func (l *Log) record(ctx context.Context, actorID, projectID int64, action, details string) {
	entry, err := l.repo.CreateActivity(ctx, models.Activity{
		ProjectID: projectID,
		User:      models.UnresolvedRef(actorID),
		Action:    action,
		Details:   details,
	})
	if err != nil {
		metrics.IncrementActivityWrite("failed")
		l.logger.Warn("activity write failed",
			zap.Int64("project_id", projectID),
			zap.Int64("user_id", actorID),
			zap.String("action", action),
			zap.Error(err),
		)
		return
	}
	metrics.IncrementActivityWrite("ok")

	if l.publisher == nil {
		return
	}
	err = l.publisher.Publish(RoutingKey, Event{
		ID:        entry.ID,
		ProjectID: entry.ProjectID,
		UserID:    actorID,
		Action:    entry.Action,
		Details:   entry.Details,
		CreatedAt: entry.CreatedAt,
	})
	if err != nil {
		metrics.IncrementActivityPublished("failed")
		l.logger.Warn("activity publish failed", zap.Int64("activity_id", entry.ID), zap.Error(err))
		return
	}
	metrics.IncrementActivityPublished("ok")
}
