// Package access decides what a caller may do with a project and its tasks.
//
// Two independent values are composed here: the caller's account tier
// (models.Role, fixed at registration) and the caller's Relationship to one
// specific project (owner, member or none).
package access

import (
	"taskhub/internal/apperr"
	"taskhub/internal/identity"
	"taskhub/internal/models"
)

// Relationship of a user to one project.
type Relationship int

const (
	RelNone Relationship = iota
	RelMember
	RelOwner
)

func (r Relationship) String() string {
	switch r {
	case RelOwner:
		return "owner"
	case RelMember:
		return "member"
	default:
		return "none"
	}
}

// Relate classifies userID against p. The owner check always comes first.
func Relate(userID int64, p models.Project) Relationship {
	if userID == 0 {
		return RelNone
	}
	if p.Owner.ID() == userID {
		return RelOwner
	}
	for _, m := range p.Members {
		if m.ID() == userID {
			return RelMember
		}
	}
	return RelNone
}

// IsOwner reports whether userID owns p.
func IsOwner(userID int64, p models.Project) bool {
	return Relate(userID, p) == RelOwner
}

// IsMember reports whether userID owns p or is listed among its members.
func IsMember(userID int64, p models.Project) bool {
	return Relate(userID, p) >= RelMember
}

// Action is a project-scoped operation subject to authorization.
type Action string

const (
	ViewProject        Action = "view_project"
	UpdateProject      Action = "update_project"
	DeleteProject      Action = "delete_project"
	ManageMembers      Action = "manage_members"
	ListAvailableUsers Action = "list_available_users"
	CreateTask         Action = "create_task"
	DeleteTask         Action = "delete_task"
	ListTasks          Action = "list_tasks"
	UpdateTask         Action = "update_task"
	ViewActivity       Action = "view_activity"
)

type rule struct {
	need    Relationship
	message string
}

var rules = map[Action]rule{
	ViewProject:        {RelMember, "project access required"},
	UpdateProject:      {RelOwner, "owner permissions required"},
	DeleteProject:      {RelOwner, "owner permissions required"},
	ManageMembers:      {RelOwner, "owner permissions required"},
	ListAvailableUsers: {RelOwner, "owner permissions required"},
	CreateTask:         {RelOwner, "owner permissions required"},
	DeleteTask:         {RelOwner, "owner permissions required"},
	ListTasks:          {RelMember, "project access required"},
	UpdateTask:         {RelMember, "project access required"},
	ViewActivity:       {RelMember, "project access required"},
}

// Authorize checks action for caller on p and returns the caller's relationship.
// Project existence must be established before calling.
func Authorize(caller identity.Identity, p models.Project, action Action) (Relationship, error) {
	rel := Relate(caller.UserID, p)
	r, ok := rules[action]
	if !ok {
		return rel, apperr.Authorization("action not permitted")
	}
	if rel < r.need {
		return rel, apperr.Authorization(r.message)
	}
	return rel, nil
}

// CanCreateProject allows project creation for the owner tier only.
func CanCreateProject(caller identity.Identity) error {
	if !caller.IsOwnerTier() {
		return apperr.Authorization("only owners can create projects")
	}
	return nil
}

// MemberUpdatableFields are the task fields a non-owner may change.
var MemberUpdatableFields = []string{"status", "description"}

// CheckUpdateFields rejects the whole update when a non-owner touches any field
// outside MemberUpdatableFields.
func CheckUpdateFields(rel Relationship, fields []string) error {
	if rel == RelOwner {
		return nil
	}
	if rel == RelNone {
		return apperr.Authorization("project access required")
	}
	for _, f := range fields {
		if !memberMayUpdate(f) {
			return apperr.Authorization("members can only update task status and description")
		}
	}
	return nil
}

func memberMayUpdate(field string) bool {
	for _, allowed := range MemberUpdatableFields {
		if field == allowed {
			return true
		}
	}
	return false
}

// TaskScope returns the assignee every task listing of caller is pinned to.
// Only an owner-tier caller who owns the project sees all tasks (restricted=false).
func TaskScope(caller identity.Identity, rel Relationship) (assignedTo int64, restricted bool) {
	if caller.IsOwnerTier() && rel == RelOwner {
		return 0, false
	}
	return caller.UserID, true
}
