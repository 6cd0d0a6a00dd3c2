package storage

import (
	"testing"

	"taskhub/internal/models"
)

func TestTaskFilter_Match(t *testing.T) {
	alice := models.UnresolvedRef(2)
	task := models.Task{ProjectID: 1, Title: "Write Release Notes", Status: models.StatusTodo, AssignedTo: &alice}

	tests := []struct {
		name   string
		filter TaskFilter
		want   bool
	}{
		{"project only", TaskFilter{ProjectID: 1}, true},
		{"other project", TaskFilter{ProjectID: 9}, false},
		{"status match", TaskFilter{ProjectID: 1, Status: models.StatusTodo}, true},
		{"status mismatch", TaskFilter{ProjectID: 1, Status: models.StatusDone}, false},
		{"assignee match", TaskFilter{ProjectID: 1, AssignedTo: 2}, true},
		{"assignee mismatch", TaskFilter{ProjectID: 1, AssignedTo: 3}, false},
		{"search case-insensitive", TaskFilter{ProjectID: 1, Search: "release"}, true},
		{"search miss", TaskFilter{ProjectID: 1, Search: "deploy"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Match(task); got != tt.want {
				t.Errorf("Match = %v, want %v", got, tt.want)
			}
		})
	}

	unassigned := models.Task{ProjectID: 1, Title: "x"}
	if (TaskFilter{ProjectID: 1, AssignedTo: 2}).Match(unassigned) {
		t.Error("unassigned task should not match an assignee filter")
	}
}

func TestLikePattern(t *testing.T) {
	cases := map[string]string{
		"Fix":    "%fix%",
		"50%":    `%50\%%`,
		"a_b":    `%a\_b%`,
		`back\s`: `%back\\s%`,
	}
	for in, want := range cases {
		if got := LikePattern(in); got != want {
			t.Errorf("LikePattern(%q) = %q, want %q", in, got, want)
		}
	}
}
