package identity

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"taskhub/internal/apperr"
	"taskhub/internal/models"
	"taskhub/internal/storage"
)

// mockUserStore implements UserStore for tests.
type mockUserStore struct {
	users  map[int64]models.User
	nextID int64
	err    error
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{users: map[int64]models.User{}}
}

func (m *mockUserStore) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	if m.err != nil {
		return models.User{}, m.err
	}
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return models.User{}, fmt.Errorf("email: %w", storage.ErrDuplicate)
		}
	}
	m.nextID++
	u.ID = m.nextID
	m.users[u.ID] = u
	return u, nil
}

func (m *mockUserStore) GetUser(ctx context.Context, id int64) (models.User, error) {
	if m.err != nil {
		return models.User{}, m.err
	}
	u, ok := m.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return u, nil
}

func (m *mockUserStore) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	if m.err != nil {
		return models.User{}, m.err
	}
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, storage.ErrNotFound
}

func newTestService(store *mockUserStore) *Service {
	return NewService(store, NewTokens("test-secret", time.Hour), bcrypt.MinCost, nil)
}

func TestRegister_DefaultsToMember(t *testing.T) {
	svc := newTestService(newMockUserStore())

	u, err := svc.Register(context.Background(), Registration{Name: "Max", Email: "max@example.com", Password: "pw", Role: "admin"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.Role != models.RoleMember {
		t.Errorf("role = %q, want %q", u.Role, models.RoleMember)
	}
	if u.PasswordHash == "pw" || !CheckPassword("pw", u.PasswordHash) {
		t.Error("password should be stored as a bcrypt hash")
	}

	owner, err := svc.Register(context.Background(), Registration{Email: "olga@example.com", Password: "pw", Role: "owner"})
	if err != nil {
		t.Fatalf("Register owner: %v", err)
	}
	if owner.Role != models.RoleOwner {
		t.Errorf("role = %q, want owner", owner.Role)
	}
}

func TestRegister_Validation(t *testing.T) {
	svc := newTestService(newMockUserStore())
	ctx := context.Background()

	if _, err := svc.Register(ctx, Registration{Email: "a@example.com"}); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("missing password err = %v, want validation", err)
	}
	if _, err := svc.Register(ctx, Registration{Email: "a@example.com", Password: "pw"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, err := svc.Register(ctx, Registration{Email: "a@example.com", Password: "pw"})
	if !apperr.Is(err, apperr.KindValidation) || apperr.Message(err) != "email already used" {
		t.Errorf("duplicate err = %v, want validation 'email already used'", err)
	}

	long := strings.Repeat("p", MaxPasswordBytes+8)
	_, err = svc.Register(ctx, Registration{Email: "long@example.com", Password: long})
	if !apperr.Is(err, apperr.KindValidation) || apperr.Message(err) != "password too long" {
		t.Errorf("long password err = %v, want validation 'password too long'", err)
	}
	if _, err := svc.Register(ctx, Registration{Email: "edge@example.com", Password: long[:MaxPasswordBytes]}); err != nil {
		t.Errorf("72-byte password: %v", err)
	}
}

func TestLoginAndResolve(t *testing.T) {
	store := newMockUserStore()
	svc := newTestService(store)
	ctx := context.Background()

	u, err := svc.Register(ctx, Registration{Email: "olga@example.com", Password: "secret", Role: "owner"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, _, err := svc.Login(ctx, "olga@example.com", "wrong"); !apperr.Is(err, apperr.KindAuthentication) {
		t.Errorf("bad password err = %v, want authentication", err)
	}
	if _, _, err := svc.Login(ctx, "nobody@example.com", "secret"); !apperr.Is(err, apperr.KindAuthentication) {
		t.Errorf("unknown email err = %v, want authentication", err)
	}

	token, got, err := svc.Login(ctx, "olga@example.com", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("login user = %d, want %d", got.ID, u.ID)
	}

	id, err := svc.Resolve(ctx, token)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if id.UserID != u.ID || id.Role != models.RoleOwner {
		t.Errorf("identity = %+v, want user %d owner", id, u.ID)
	}

	delete(store.users, u.ID)
	if _, err := svc.Resolve(ctx, token); !apperr.Is(err, apperr.KindAuthentication) {
		t.Errorf("deleted user err = %v, want authentication", err)
	}
}

func TestResolve_RejectsBadTokens(t *testing.T) {
	svc := newTestService(newMockUserStore())
	ctx := context.Background()

	other := NewTokens("other-secret", time.Hour)
	forged, err := other.Issue(models.User{ID: 1, Role: models.RoleOwner})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	for name, token := range map[string]string{"empty": "", "garbage": "abc.def.ghi", "wrong secret": forged} {
		if _, err := svc.Resolve(ctx, token); !apperr.Is(err, apperr.KindAuthentication) {
			t.Errorf("%s: err = %v, want authentication", name, err)
		}
	}
}

func TestTokens_Expiry(t *testing.T) {
	tokens := NewTokens("s", time.Minute)
	issuedAt := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	tokens.now = func() time.Time { return issuedAt }

	token, err := tokens.Issue(models.User{ID: 42, Role: models.RoleMember})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if id, err := tokens.Parse(token); err != nil || id != 42 {
		t.Fatalf("Parse = %d, %v; want 42", id, err)
	}

	tokens.now = func() time.Time { return issuedAt.Add(2 * time.Minute) }
	if _, err := tokens.Parse(token); err != ErrInvalidToken {
		t.Errorf("expired token err = %v, want ErrInvalidToken", err)
	}
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"Basic abc", ""},
		{"Bearer", ""},
		{"Bearer a b", ""},
	}
	for _, tt := range tests {
		r, _ := http.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			r.Header.Set("Authorization", tt.header)
		}
		if got := ExtractToken(r); got != tt.want {
			t.Errorf("ExtractToken(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestContextRoundTrip(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Error("empty context should carry no identity")
	}
	ctx := WithIdentity(context.Background(), Identity{UserID: 5, Role: models.RoleMember})
	id, ok := FromContext(ctx)
	if !ok || id.UserID != 5 || id.IsOwnerTier() {
		t.Errorf("identity = %+v, %v", id, ok)
	}
}
