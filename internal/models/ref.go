package models

import (
	"encoding/json"
	"fmt"
)

// RefState tells which of the two shapes a UserRef holds.
type RefState uint8

const (
	RefUnresolved RefState = iota
	RefResolved
)

// UserRef points at a user either by bare id or by a resolved summary.
// Callers branch on State, never on which fields happen to be filled in.
type UserRef struct {
	state RefState
	id    int64
	user  UserSummary
}

// UnresolvedRef references a user by id only.
func UnresolvedRef(id int64) UserRef {
	return UserRef{state: RefUnresolved, id: id}
}

// ResolvedRef references a user through its loaded summary.
func ResolvedRef(u UserSummary) UserRef {
	return UserRef{state: RefResolved, id: u.ID, user: u}
}

// State returns the shape of the reference.
func (r UserRef) State() RefState {
	return r.state
}

// ID is available in both shapes.
func (r UserRef) ID() int64 {
	return r.id
}

// User returns the resolved summary; ok is false for an unresolved reference.
func (r UserRef) User() (UserSummary, bool) {
	if r.state != RefResolved {
		return UserSummary{}, false
	}
	return r.user, true
}

// Resolve upgrades an unresolved reference using lookup. Missing users stay unresolved.
func (r UserRef) Resolve(lookup map[int64]UserSummary) UserRef {
	if r.state == RefResolved {
		return r
	}
	if u, ok := lookup[r.id]; ok {
		return ResolvedRef(u)
	}
	return r
}

// MarshalJSON renders a resolved reference as an object and an unresolved one as its id.
func (r UserRef) MarshalJSON() ([]byte, error) {
	if r.state == RefResolved {
		return json.Marshal(r.user)
	}
	return json.Marshal(r.id)
}

// UnmarshalJSON accepts either shape.
func (r *UserRef) UnmarshalJSON(data []byte) error {
	var id int64
	if err := json.Unmarshal(data, &id); err == nil {
		*r = UnresolvedRef(id)
		return nil
	}
	var u UserSummary
	if err := json.Unmarshal(data, &u); err != nil {
		return fmt.Errorf("user reference: %w", err)
	}
	*r = ResolvedRef(u)
	return nil
}
