package models

import (
	"encoding/json"
	"testing"
)

func TestPriorityWeight(t *testing.T) {
	if !(PriorityHigh.Weight() < PriorityMedium.Weight() && PriorityMedium.Weight() < PriorityLow.Weight()) {
		t.Fatalf("weights = high %d, medium %d, low %d; want high < medium < low",
			PriorityHigh.Weight(), PriorityMedium.Weight(), PriorityLow.Weight())
	}
	if Priority("urgent").Valid() {
		t.Error("urgent should not be a valid priority")
	}
}

func TestStatusWeight(t *testing.T) {
	if !(StatusTodo.Weight() < StatusInProgress.Weight() && StatusInProgress.Weight() < StatusDone.Weight()) {
		t.Fatal("want todo < in-progress < done")
	}
	if TaskStatus("in_progress").Valid() {
		t.Error("in_progress should not be a valid status")
	}
}

func TestParseRole(t *testing.T) {
	cases := map[string]Role{
		"owner":  RoleOwner,
		"member": RoleMember,
		"admin":  RoleMember,
		"":       RoleMember,
	}
	for in, want := range cases {
		if got := ParseRole(in); got != want {
			t.Errorf("ParseRole(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestUserRef_Shapes(t *testing.T) {
	ref := UnresolvedRef(7)
	if ref.State() != RefUnresolved {
		t.Fatalf("state = %v, want unresolved", ref.State())
	}
	if _, ok := ref.User(); ok {
		t.Error("unresolved ref should not expose a user")
	}

	resolved := ref.Resolve(map[int64]UserSummary{7: {ID: 7, Name: "Ada", Email: "ada@example.com"}})
	u, ok := resolved.User()
	if !ok {
		t.Fatal("expected resolved ref")
	}
	if u.Name != "Ada" || resolved.ID() != 7 {
		t.Errorf("resolved = %+v (id %d)", u, resolved.ID())
	}

	missing := UnresolvedRef(9).Resolve(map[int64]UserSummary{})
	if missing.State() != RefUnresolved {
		t.Error("ref to unknown user should stay unresolved")
	}
}

func TestUserRef_JSON(t *testing.T) {
	raw, err := json.Marshal(UnresolvedRef(3))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != "3" {
		t.Errorf("unresolved json = %s, want 3", raw)
	}

	raw, err = json.Marshal(ResolvedRef(UserSummary{ID: 3, Name: "Bo", Email: "bo@example.com"}))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"id":3,"name":"Bo","email":"bo@example.com"}`
	if string(raw) != want {
		t.Errorf("resolved json = %s, want %s", raw, want)
	}

	var back UserRef
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.State() != RefResolved || back.ID() != 3 {
		t.Errorf("round trip = state %v id %d", back.State(), back.ID())
	}
}
