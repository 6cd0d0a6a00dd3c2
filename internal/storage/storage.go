// Package storage holds the types shared by the record stores.
package storage

import (
	"errors"
	"strings"

	"taskhub/internal/models"
)

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a write violates a uniqueness constraint.
	ErrDuplicate = errors.New("duplicate record")
)

// TaskFilter selects tasks of one project. Zero values mean "any".
type TaskFilter struct {
	ProjectID  int64
	Status     models.TaskStatus
	AssignedTo int64
	Search     string
}

// Match evaluates the filter against a single task.
func (f TaskFilter) Match(t models.Task) bool {
	if t.ProjectID != f.ProjectID {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.AssignedTo != 0 && t.AssigneeID() != f.AssignedTo {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(t.Title), strings.ToLower(f.Search)) {
		return false
	}
	return true
}

// Order sorts by a column-backed field; ties fall back to id in the same direction.
type Order struct {
	Field string
	Desc  bool
}

// Window is an offset/limit slice of an ordered result.
type Window struct {
	Offset int
	Limit  int
}

// SortColumns lists the task fields a store can order by natively.
var SortColumns = map[string]string{
	"id":          "id",
	"title":       "title",
	"description": "description",
	"assignedTo":  "assigned_to",
	"createdAt":   "created_at",
	"updatedAt":   "updated_at",
}

// LikePattern builds a LIKE pattern for a case-insensitive substring match, escaping with '\'.
func LikePattern(search string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(search)) + "%"
}
