package query

import (
	"sort"
	"strings"

	"taskhub/internal/models"
)

// weighted fields have an explicit order that no store can compare natively.
func weighted(field string) bool {
	return field == "priority" || field == "status"
}

// SortTasks orders tasks in place by field. Ties fall back to id in the same direction.
func SortTasks(tasks []models.Task, field string, desc bool) {
	dir := 1
	if desc {
		dir = -1
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		c := compareField(tasks[i], tasks[j], field)
		if c == 0 {
			c = compareInt(tasks[i].ID, tasks[j].ID)
		}
		return c*dir < 0
	})
}

func compareField(a, b models.Task, field string) int {
	switch field {
	case "priority":
		return compareInt(int64(a.Priority.Weight()), int64(b.Priority.Weight()))
	case "status":
		return compareInt(int64(a.Status.Weight()), int64(b.Status.Weight()))
	case "id":
		return compareInt(a.ID, b.ID)
	case "title":
		return strings.Compare(a.Title, b.Title)
	case "description":
		return strings.Compare(a.Description, b.Description)
	case "assignedTo":
		return compareInt(a.AssigneeID(), b.AssigneeID())
	case "createdAt":
		return a.CreatedAt.Compare(b.CreatedAt)
	case "updatedAt":
		return a.UpdatedAt.Compare(b.UpdatedAt)
	default:
		return 0
	}
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
