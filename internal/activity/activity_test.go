package activity

import (
	"context"
	"errors"
	"strings"
	"testing"

	"taskhub/internal/models"
)

type mockRepo struct {
	entries []models.Activity
	err     error
	limit   int
}

func (m *mockRepo) CreateActivity(ctx context.Context, a models.Activity) (models.Activity, error) {
	if m.err != nil {
		return models.Activity{}, m.err
	}
	a.ID = int64(len(m.entries) + 1)
	m.entries = append(m.entries, a)
	return a, nil
}

func (m *mockRepo) RecentActivities(ctx context.Context, projectID int64, limit int) ([]models.Activity, error) {
	m.limit = limit
	if m.err != nil {
		return nil, m.err
	}
	var out []models.Activity
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if m.entries[i].ProjectID == projectID {
			out = append(out, m.entries[i])
		}
	}
	return out, nil
}

type mockPublisher struct {
	keys   []string
	events []Event
	err    error
}

func (m *mockPublisher) Publish(routingKey string, payload any) error {
	if m.err != nil {
		return m.err
	}
	m.keys = append(m.keys, routingKey)
	m.events = append(m.events, payload.(Event))
	return nil
}

func sample() models.Task {
	return models.Task{ID: 3, ProjectID: 9, Title: "Ship release", Description: "v1", Status: models.StatusTodo}
}

func TestRecordCreated(t *testing.T) {
	repo := &mockRepo{}
	pub := &mockPublisher{}
	NewLog(repo, pub, nil).RecordCreated(context.Background(), 5, sample())

	if len(repo.entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(repo.entries))
	}
	got := repo.entries[0]
	if got.Action != ActionCreated || got.Details != `Created task "Ship release"` {
		t.Errorf("entry = %q / %q", got.Action, got.Details)
	}
	if got.User.ID() != 5 || got.ProjectID != 9 {
		t.Errorf("entry user/project = %d/%d", got.User.ID(), got.ProjectID)
	}
	if len(pub.keys) != 1 || pub.keys[0] != RoutingKey || pub.events[0].UserID != 5 {
		t.Errorf("published %v %+v", pub.keys, pub.events)
	}
}

func TestRecordUpdated_StatusTransition(t *testing.T) {
	repo := &mockRepo{}
	before := sample()
	after := before
	after.Status = models.StatusInProgress

	if !NewLog(repo, nil, nil).RecordUpdated(context.Background(), 2, before, after) {
		t.Fatal("RecordUpdated returned false for a status change")
	}
	if len(repo.entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(repo.entries))
	}
	if !strings.Contains(repo.entries[0].Details, "status: todo → in-progress") {
		t.Errorf("details = %q", repo.entries[0].Details)
	}
	if repo.entries[0].Action != ActionUpdated {
		t.Errorf("action = %q", repo.entries[0].Action)
	}
}

func TestRecordUpdated_UntrackedFieldWritesNothing(t *testing.T) {
	repo := &mockRepo{}
	before := sample()
	after := before
	after.Priority = models.PriorityHigh
	after.Title = "Renamed"

	if NewLog(repo, nil, nil).RecordUpdated(context.Background(), 2, before, after) {
		t.Error("RecordUpdated returned true for untracked changes")
	}
	if len(repo.entries) != 0 {
		t.Errorf("entries = %d, want 0", len(repo.entries))
	}
}

func TestDescribeUpdate(t *testing.T) {
	before := sample()
	after := before
	after.Status = models.StatusDone
	after.Description = "v2"

	got, ok := DescribeUpdate(before, after)
	want := `Updated "Ship release" (status: todo → done, updated description)`
	if !ok || got != want {
		t.Errorf("DescribeUpdate = %q, want %q", got, want)
	}

	after = before
	after.Description = "v2"
	got, _ = DescribeUpdate(before, after)
	if got != `Updated "Ship release" (updated description)` {
		t.Errorf("description only = %q", got)
	}
}

func TestRecordDeleted(t *testing.T) {
	repo := &mockRepo{}
	NewLog(repo, nil, nil).RecordDeleted(context.Background(), 1, sample())
	if len(repo.entries) != 1 || repo.entries[0].Details != `Deleted task "Ship release"` || repo.entries[0].Action != ActionDeleted {
		t.Errorf("entries = %+v", repo.entries)
	}
}

func TestWriteFailureIsSwallowed(t *testing.T) {
	repo := &mockRepo{err: errors.New("disk full")}
	pub := &mockPublisher{}
	log := NewLog(repo, pub, nil)

	log.RecordCreated(context.Background(), 1, sample())
	log.RecordDeleted(context.Background(), 1, sample())

	if len(pub.events) != 0 {
		t.Errorf("published %d events after failed writes", len(pub.events))
	}
}

func TestPublishFailureKeepsEntry(t *testing.T) {
	repo := &mockRepo{}
	NewLog(repo, &mockPublisher{err: errors.New("channel closed")}, nil).RecordCreated(context.Background(), 1, sample())
	if len(repo.entries) != 1 {
		t.Errorf("entries = %d, want 1", len(repo.entries))
	}
}

func TestRecent(t *testing.T) {
	repo := &mockRepo{}
	log := NewLog(repo, nil, nil)
	for i := 0; i < 60; i++ {
		log.RecordCreated(context.Background(), 1, sample())
	}
	other := sample()
	other.ProjectID = 10
	log.RecordCreated(context.Background(), 1, other)

	got, err := log.Recent(context.Background(), 9)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if repo.limit != RecentLimit || len(got) != RecentLimit {
		t.Errorf("limit=%d len=%d, want %d", repo.limit, len(got), RecentLimit)
	}
	if got[0].ID != 60 {
		t.Errorf("first id = %d, want newest (60)", got[0].ID)
	}

	empty, err := log.Recent(context.Background(), 99)
	if err != nil || empty == nil || len(empty) != 0 {
		t.Errorf("Recent(empty) = %v, %v", empty, err)
	}

	repo.err = errors.New("boom")
	if _, err := log.Recent(context.Background(), 9); err == nil {
		t.Error("Recent should surface store errors")
	}
}
