package models

import "time"

// Role is the account tier assigned at registration. It never changes afterwards.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleMember Role = "member"
)

// ParseRole maps a requested role onto a tier; anything but "owner" registers as a member.
func ParseRole(raw string) Role {
	if raw == string(RoleOwner) {
		return RoleOwner
	}
	return RoleMember
}

// User is a registered account. PasswordHash never leaves the process.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Summary returns the display identity of the user.
func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}

// UserSummary is the public part of a user shown next to projects, tasks and activity.
type UserSummary struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Project groups tasks and a membership list. The owner is never stored among Members.
type Project struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Owner       UserRef   `json:"owner"`
	Members     []UserRef `json:"members"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// MemberIDs returns the ids of all members, excluding the owner.
func (p Project) MemberIDs() []int64 {
	ids := make([]int64, 0, len(p.Members))
	for _, m := range p.Members {
		ids = append(ids, m.ID())
	}
	return ids
}

// Task represents a single unit of work inside a project.
type Task struct {
	ID          int64      `json:"id"`
	ProjectID   int64      `json:"project"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	Priority    Priority   `json:"priority"`
	AssignedTo  *UserRef   `json:"assignedTo"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// AssigneeID returns the assigned user id, or 0 when the task is unassigned.
func (t Task) AssigneeID() int64 {
	if t.AssignedTo == nil {
		return 0
	}
	return t.AssignedTo.ID()
}

// Activity is an append-only audit entry for a task mutation.
type Activity struct {
	ID        int64     `json:"id"`
	ProjectID int64     `json:"project"`
	User      UserRef   `json:"user"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"createdAt"`
}
