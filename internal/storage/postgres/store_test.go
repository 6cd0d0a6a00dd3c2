package postgres

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"taskhub/internal/models"
	"taskhub/internal/storage"
)

func TestTaskWhere(t *testing.T) {
	a := &args{}
	got := taskWhere(storage.TaskFilter{ProjectID: 4, Status: models.StatusDone, AssignedTo: 9, Search: "50%_off"}, a)
	want := `t.project_id = $1 AND t.status = $2 AND t.assigned_to = $3 AND t.title ILIKE $4 ESCAPE '\'`
	if got != want {
		t.Errorf("taskWhere = %q, want %q", got, want)
	}
	if len(a.values) != 4 || a.values[3] != `%50\%\_off%` {
		t.Errorf("args = %v", a.values)
	}
}

func TestOrderBy(t *testing.T) {
	cases := []struct {
		order storage.Order
		want  string
	}{
		{storage.Order{Field: "createdAt", Desc: true}, ` ORDER BY t.created_at DESC, t.id DESC`},
		{storage.Order{Field: "title"}, ` ORDER BY t.title ASC, t.id ASC`},
		{storage.Order{Field: "assignedTo"}, ` ORDER BY t.assigned_to ASC NULLS FIRST, t.id ASC`},
		{storage.Order{Field: "assignedTo", Desc: true}, ` ORDER BY t.assigned_to DESC NULLS LAST, t.id DESC`},
	}
	for _, c := range cases {
		got, err := orderBy(c.order)
		if err != nil {
			t.Fatalf("orderBy(%+v): %v", c.order, err)
		}
		if got != c.want {
			t.Errorf("orderBy(%+v) = %q, want %q", c.order, got, c.want)
		}
	}
	if _, err := orderBy(storage.Order{Field: "priority"}); err == nil {
		t.Error("orderBy(priority) should fail: weights are not stored")
	}
}

// TestStore_RoundTrip runs against a live database when TASKHUB_TEST_DATABASE_URL is set.
func TestStore_RoundTrip(t *testing.T) {
	dsn := os.Getenv("TASKHUB_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TASKHUB_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	s, err := Open(ctx, dsn, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	suffix := strings.ReplaceAll(t.Name(), "/", "_") + "-" + s.now().Format("150405.000000")
	owner, err := s.CreateUser(ctx, models.User{Name: "olga", Email: "olga-" + suffix + "@example.com", PasswordHash: "x", Role: models.RoleOwner})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if _, err := s.CreateUser(ctx, models.User{Email: owner.Email, PasswordHash: "x", Role: models.RoleMember}); !errors.Is(err, storage.ErrDuplicate) {
		t.Errorf("duplicate email err = %v", err)
	}

	p, err := s.CreateProject(ctx, models.Project{Title: "pg", Owner: models.UnresolvedRef(owner.ID)})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	defer func() { _ = s.DeleteProject(ctx, p.ID) }()

	if err := s.AddMember(ctx, p.ID, owner.ID); err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	if err := s.AddMember(ctx, p.ID, owner.ID); !errors.Is(err, storage.ErrDuplicate) {
		t.Errorf("duplicate member err = %v", err)
	}

	for _, title := range []string{"alpha", "beta", "gamma"} {
		ref := models.UnresolvedRef(owner.ID)
		if _, err := s.CreateTask(ctx, models.Task{ProjectID: p.ID, Title: title, AssignedTo: &ref}); err != nil {
			t.Fatalf("CreateTask: %v", err)
		}
	}
	f := storage.TaskFilter{ProjectID: p.ID, Search: "A"}
	n, err := s.CountTasks(ctx, f)
	if err != nil || n != 3 {
		t.Errorf("CountTasks = %d, %v", n, err)
	}
	tasks, err := s.FindTasks(ctx, f, &storage.Order{Field: "title"}, &storage.Window{Offset: 1, Limit: 1})
	if err != nil || len(tasks) != 1 || tasks[0].Title != "beta" {
		t.Errorf("FindTasks = %+v, %v", tasks, err)
	}

	cleared, err := s.ClearAssignee(ctx, p.ID, owner.ID)
	if err != nil || cleared != 3 {
		t.Errorf("ClearAssignee = %d, %v", cleared, err)
	}

	if _, err := s.CreateActivity(ctx, models.Activity{ProjectID: p.ID, User: models.UnresolvedRef(owner.ID), Action: "created task"}); err != nil {
		t.Fatalf("CreateActivity: %v", err)
	}
	entries, err := s.RecentActivities(ctx, p.ID, 50)
	if err != nil || len(entries) != 1 {
		t.Errorf("RecentActivities = %v, %v", entries, err)
	}
}
