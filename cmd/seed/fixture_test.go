package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"taskhub/internal/activity"
	"taskhub/internal/identity"
	"taskhub/internal/models"
	"taskhub/internal/query"
	"taskhub/internal/storage/sqlite"
	"taskhub/internal/tracker"
)

func newSeeder(t *testing.T) (*Seeder, *sqlite.Store, *tracker.Service) {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "seed.db"), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	auth := identity.NewService(store, identity.NewTokens("seed", 0), 4, nil)
	coord := tracker.NewService(store, activity.NewLog(store, nil, nil), nil)
	return NewSeeder(auth, store, coord, nil), store, coord
}

func loadFixture(t *testing.T) Fixture {
	t.Helper()
	f, err := os.Open(filepath.Join("testdata", "fixture.yaml"))
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	defer f.Close()
	fx, err := ParseFixture(f)
	if err != nil {
		t.Fatalf("ParseFixture: %v", err)
	}
	return fx
}

func TestParseFixture(t *testing.T) {
	fx := loadFixture(t)
	if len(fx.Users) != 3 || len(fx.Projects) != 2 {
		t.Fatalf("got %d users and %d projects, want 3 and 2", len(fx.Users), len(fx.Projects))
	}
	if got := fx.Projects[0].Tasks[0].Assignee; got != "mia@example.com" {
		t.Fatalf("assignee = %q, want %q", got, "mia@example.com")
	}

	if _, err := ParseFixture(strings.NewReader("users:\n  - nick: x\n")); err == nil {
		t.Fatal("expected unknown field to be rejected")
	}
}

func TestSeederApply(t *testing.T) {
	seeder, store, coord := newSeeder(t)
	ctx := context.Background()

	sum, err := seeder.Apply(ctx, loadFixture(t))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if sum != (Summary{Users: 3, Projects: 2, Tasks: 4}) {
		t.Fatalf("summary = %+v", sum)
	}

	mia, err := store.GetUserByEmail(ctx, "mia@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if mia.Role != models.RoleMember {
		t.Fatalf("role = %q, want member", mia.Role)
	}
	caller := identity.Identity{UserID: mia.ID, Role: mia.Role}

	projects, err := coord.ListProjects(ctx, caller)
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if len(projects) != 2 {
		t.Fatalf("mia belongs to %d projects, want 2", len(projects))
	}

	var relaunch models.Project
	for _, p := range projects {
		if p.Title == "Website relaunch" {
			relaunch = p
		}
	}
	res, err := coord.ListTasks(ctx, caller, relaunch.ID, query.DefaultRequest())
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if res.Meta.Total != 1 || res.Tasks[0].Title != "Draft copy" {
		t.Fatalf("mia sees %+v, want only her task", res.Tasks)
	}

	entries, err := coord.ListActivity(ctx, caller, relaunch.ID)
	if err != nil {
		t.Fatalf("ListActivity: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("activities = %d, want 3", len(entries))
	}
}

func TestSeederApplyReusesUsers(t *testing.T) {
	seeder, _, _ := newSeeder(t)
	ctx := context.Background()
	fx := loadFixture(t)

	if _, err := seeder.Apply(ctx, Fixture{Users: fx.Users}); err != nil {
		t.Fatalf("first Apply: %v", err)
	}
	sum, err := seeder.Apply(ctx, fx)
	if err != nil {
		t.Fatalf("second Apply: %v", err)
	}
	if sum.Users != 0 || sum.Projects != 2 {
		t.Fatalf("summary = %+v, want users reused", sum)
	}
}

func TestSeederApplyUnknownUser(t *testing.T) {
	seeder, _, _ := newSeeder(t)
	_, err := seeder.Apply(context.Background(), Fixture{
		Projects: []ProjectFixture{{Title: "Orphan", Owner: "nobody@example.com"}},
	})
	if err == nil || !strings.Contains(err.Error(), "unknown user") {
		t.Fatalf("err = %v, want unknown user", err)
	}
}
