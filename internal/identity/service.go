package identity

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"taskhub/internal/apperr"
	"taskhub/internal/models"
	"taskhub/internal/storage"
)

// UserStore is the persistence the identity service needs.
type UserStore interface {
	CreateUser(ctx context.Context, u models.User) (models.User, error)
	GetUser(ctx context.Context, id int64) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
}

// Service registers users, logs them in and resolves tokens to identities.
type Service struct {
	users      UserStore
	tokens     *Tokens
	bcryptCost int
	logger     *zap.Logger
}

// NewService builds the identity service.
func NewService(users UserStore, tokens *Tokens, bcryptCost int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{users: users, tokens: tokens, bcryptCost: bcryptCost, logger: logger}
}

// Registration is the input of Register.
type Registration struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// Register creates an account. The tier is owner only when explicitly requested.
func (s *Service) Register(ctx context.Context, r Registration) (models.User, error) {
	email := strings.TrimSpace(r.Email)
	if email == "" || r.Password == "" {
		return models.User{}, apperr.Validation("email and password required")
	}
	if len(r.Password) > MaxPasswordBytes {
		return models.User{}, apperr.Validation("password too long")
	}

	hash, err := HashPassword(r.Password, s.bcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return models.User{}, apperr.Validation("password too long")
	}
	if err != nil {
		return models.User{}, apperr.Internal(err)
	}

	u, err := s.users.CreateUser(ctx, models.User{
		Name:         strings.TrimSpace(r.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         models.ParseRole(r.Role),
	})
	if errors.Is(err, storage.ErrDuplicate) {
		return models.User{}, apperr.Validation("email already used")
	}
	if err != nil {
		return models.User{}, apperr.Internal(err)
	}

	s.logger.Info("user registered", zap.Int64("user_id", u.ID), zap.String("role", string(u.Role)))
	return u, nil
}

// Login checks credentials and returns a fresh token with the user.
func (s *Service) Login(ctx context.Context, email, password string) (string, models.User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return "", models.User{}, apperr.Validation("email and password required")
	}

	u, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		return "", models.User{}, apperr.Authentication("invalid email or password")
	}
	if err != nil {
		return "", models.User{}, apperr.Internal(err)
	}
	if !CheckPassword(password, u.PasswordHash) {
		return "", models.User{}, apperr.Authentication("invalid email or password")
	}

	token, err := s.tokens.Issue(u)
	if err != nil {
		return "", models.User{}, apperr.Internal(err)
	}
	return token, u, nil
}

// Resolve turns a bearer token into the caller identity.
// The tier comes from the stored user, so a stale token cannot claim a different role.
func (s *Service) Resolve(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, apperr.Authentication("no token")
	}
	userID, err := s.tokens.Parse(token)
	if err != nil {
		return Identity{}, apperr.Authentication("invalid token")
	}
	u, err := s.users.GetUser(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return Identity{}, apperr.Authentication("user not found")
	}
	if err != nil {
		return Identity{}, apperr.Internal(err)
	}
	return Identity{UserID: u.ID, Role: u.Role}, nil
}

// Profile returns the stored record of the caller.
func (s *Service) Profile(ctx context.Context, id Identity) (models.User, error) {
	u, err := s.users.GetUser(ctx, id.UserID)
	if errors.Is(err, storage.ErrNotFound) {
		return models.User{}, apperr.NotFound("user not found")
	}
	if err != nil {
		return models.User{}, apperr.Internal(err)
	}
	return u, nil
}
