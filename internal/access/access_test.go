package access

import (
	"testing"

	"taskhub/internal/apperr"
	"taskhub/internal/identity"
	"taskhub/internal/models"
)

func project(owner int64, members ...int64) models.Project {
	p := models.Project{ID: 1, Title: "p", Owner: models.UnresolvedRef(owner)}
	for _, m := range members {
		p.Members = append(p.Members, models.UnresolvedRef(m))
	}
	return p
}

func TestRelate(t *testing.T) {
	p := project(1, 2, 3)
	tests := []struct {
		user int64
		want Relationship
	}{
		{1, RelOwner},
		{2, RelMember},
		{3, RelMember},
		{4, RelNone},
		{0, RelNone},
	}
	for _, tt := range tests {
		if got := Relate(tt.user, p); got != tt.want {
			t.Errorf("Relate(%d) = %v, want %v", tt.user, got, tt.want)
		}
	}
}

func TestMembershipImplications(t *testing.T) {
	projects := []models.Project{
		project(1),
		project(1, 2),
		project(2, 1, 3),
		project(5, 6, 7, 8),
	}
	for _, p := range projects {
		for user := int64(0); user <= 9; user++ {
			owner := IsOwner(user, p)
			member := IsMember(user, p)
			listed := false
			for _, id := range p.MemberIDs() {
				if id == user {
					listed = true
				}
			}
			if owner && !member {
				t.Errorf("user %d owns project %d but is not a member", user, p.Owner.ID())
			}
			if member && !(owner || listed) {
				t.Errorf("user %d is a member without being owner or listed", user)
			}
		}
	}
}

func TestAuthorize(t *testing.T) {
	p := project(1, 2)
	owner := identity.Identity{UserID: 1, Role: models.RoleOwner}
	member := identity.Identity{UserID: 2, Role: models.RoleMember}
	outsider := identity.Identity{UserID: 3, Role: models.RoleOwner}

	tests := []struct {
		name    string
		caller  identity.Identity
		action  Action
		allowed bool
	}{
		{"owner deletes", owner, DeleteProject, true},
		{"member deletes", member, DeleteProject, false},
		{"member views", member, ViewProject, true},
		{"outsider views", outsider, ViewProject, false},
		{"member lists tasks", member, ListTasks, true},
		{"member updates task", member, UpdateTask, true},
		{"member creates task", member, CreateTask, false},
		{"member deletes task", member, DeleteTask, false},
		{"member manages members", member, ManageMembers, false},
		{"owner lists available users", owner, ListAvailableUsers, true},
		{"member lists available users", member, ListAvailableUsers, false},
		{"member reads activity", member, ViewActivity, true},
		{"outsider reads activity", outsider, ViewActivity, false},
		{"unknown action", owner, Action("rename_owner"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Authorize(tt.caller, p, tt.action)
			if tt.allowed && err != nil {
				t.Fatalf("Authorize: %v", err)
			}
			if !tt.allowed && !apperr.Is(err, apperr.KindAuthorization) {
				t.Fatalf("err = %v, want authorization error", err)
			}
		})
	}
}

func TestCanCreateProject(t *testing.T) {
	if err := CanCreateProject(identity.Identity{UserID: 1, Role: models.RoleOwner}); err != nil {
		t.Errorf("owner tier: %v", err)
	}
	if err := CanCreateProject(identity.Identity{UserID: 2, Role: models.RoleMember}); !apperr.Is(err, apperr.KindAuthorization) {
		t.Errorf("member tier err = %v, want authorization", err)
	}
}

func TestCheckUpdateFields(t *testing.T) {
	tests := []struct {
		name   string
		rel    Relationship
		fields []string
		ok     bool
	}{
		{"owner any field", RelOwner, []string{"priority", "title", "assignedTo"}, true},
		{"member status", RelMember, []string{"status"}, true},
		{"member status and description", RelMember, []string{"status", "description"}, true},
		{"member priority", RelMember, []string{"priority"}, false},
		{"member mixed rejected wholesale", RelMember, []string{"status", "title"}, false},
		{"member unknown field", RelMember, []string{"project"}, false},
		{"none", RelNone, []string{"status"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckUpdateFields(tt.rel, tt.fields)
			if tt.ok && err != nil {
				t.Fatalf("CheckUpdateFields: %v", err)
			}
			if !tt.ok && !apperr.Is(err, apperr.KindAuthorization) {
				t.Fatalf("err = %v, want authorization", err)
			}
		})
	}
}

func TestTaskScope(t *testing.T) {
	tests := []struct {
		name       string
		caller     identity.Identity
		rel        Relationship
		restricted bool
	}{
		{"owner tier owning project", identity.Identity{UserID: 1, Role: models.RoleOwner}, RelOwner, false},
		{"owner tier as member elsewhere", identity.Identity{UserID: 1, Role: models.RoleOwner}, RelMember, true},
		{"member tier", identity.Identity{UserID: 2, Role: models.RoleMember}, RelMember, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assignee, restricted := TaskScope(tt.caller, tt.rel)
			if restricted != tt.restricted {
				t.Fatalf("restricted = %v, want %v", restricted, tt.restricted)
			}
			if restricted && assignee != tt.caller.UserID {
				t.Errorf("assignee = %d, want caller %d", assignee, tt.caller.UserID)
			}
		})
	}
}
