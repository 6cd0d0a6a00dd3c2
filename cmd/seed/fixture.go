package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"taskhub/internal/identity"
	"taskhub/internal/models"
	"taskhub/internal/storage"
	"taskhub/internal/tracker"
)

// Fixture is the YAML document accepted by the seed command.
type Fixture struct {
	Users    []UserFixture    `yaml:"users"`
	Projects []ProjectFixture `yaml:"projects"`
}

type UserFixture struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
}

// ProjectFixture refers to users by email.
type ProjectFixture struct {
	Title       string        `yaml:"title"`
	Description string        `yaml:"description"`
	Owner       string        `yaml:"owner"`
	Members     []string      `yaml:"members"`
	Tasks       []TaskFixture `yaml:"tasks"`
}

type TaskFixture struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Status      string `yaml:"status"`
	Priority    string `yaml:"priority"`
	Assignee    string `yaml:"assignee"`
}

// ParseFixture decodes a fixture, rejecting unknown keys.
func ParseFixture(r io.Reader) (Fixture, error) {
	var fx Fixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil {
		return Fixture{}, fmt.Errorf("decode fixture: %w", err)
	}
	return fx, nil
}

// Registrar creates accounts.
type Registrar interface {
	Register(ctx context.Context, r identity.Registration) (models.User, error)
}

// EmailLookup finds an already registered account.
type EmailLookup interface {
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
}

// Seeder replays a fixture through the same services the API uses.
type Seeder struct {
	auth   Registrar
	users  EmailLookup
	coord  *tracker.Service
	logger *zap.Logger
}

func NewSeeder(auth Registrar, users EmailLookup, coord *tracker.Service, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{auth: auth, users: users, coord: coord, logger: logger}
}

// Summary counts what Apply created.
type Summary struct {
	Users    int
	Projects int
	Tasks    int
}

// Apply registers users (reusing existing accounts by email), then creates
// projects, memberships and tasks on behalf of each project owner.
func (s *Seeder) Apply(ctx context.Context, fx Fixture) (Summary, error) {
	var sum Summary
	known := make(map[string]identity.Identity, len(fx.Users))

	for _, u := range fx.Users {
		email := strings.ToLower(strings.TrimSpace(u.Email))
		if existing, err := s.users.GetUserByEmail(ctx, email); err == nil {
			known[email] = identity.Identity{UserID: existing.ID, Role: existing.Role}
			s.logger.Debug("user exists, reusing", zap.String("email", email))
			continue
		} else if !errors.Is(err, storage.ErrNotFound) {
			return sum, fmt.Errorf("look up %s: %w", email, err)
		}

		created, err := s.auth.Register(ctx, identity.Registration{
			Name: u.Name, Email: email, Password: u.Password, Role: u.Role,
		})
		if err != nil {
			return sum, fmt.Errorf("register %s: %w", email, err)
		}
		known[email] = identity.Identity{UserID: created.ID, Role: created.Role}
		sum.Users++
	}

	resolve := func(email string) (identity.Identity, error) {
		id, ok := known[strings.ToLower(strings.TrimSpace(email))]
		if !ok {
			return identity.Identity{}, fmt.Errorf("unknown user %q", email)
		}
		return id, nil
	}

	for _, p := range fx.Projects {
		owner, err := resolve(p.Owner)
		if err != nil {
			return sum, fmt.Errorf("project %q owner: %w", p.Title, err)
		}
		title, desc := p.Title, p.Description
		project, err := s.coord.CreateProject(ctx, owner, tracker.ProjectInput{Title: &title, Description: &desc})
		if err != nil {
			return sum, fmt.Errorf("create project %q: %w", p.Title, err)
		}
		sum.Projects++

		for _, email := range p.Members {
			member, err := resolve(email)
			if err != nil {
				return sum, fmt.Errorf("project %q member: %w", p.Title, err)
			}
			if _, err := s.coord.AddMember(ctx, owner, project.ID, member.UserID); err != nil {
				return sum, fmt.Errorf("add %s to %q: %w", email, p.Title, err)
			}
		}

		for _, t := range p.Tasks {
			in := tracker.TaskInput{
				Title:       t.Title,
				Description: t.Description,
				Status:      models.TaskStatus(t.Status),
				Priority:    models.Priority(t.Priority),
			}
			if t.Assignee != "" {
				assignee, err := resolve(t.Assignee)
				if err != nil {
					return sum, fmt.Errorf("task %q assignee: %w", t.Title, err)
				}
				in.AssignedTo = assignee.UserID
			}
			if _, err := s.coord.CreateTask(ctx, owner, project.ID, in); err != nil {
				return sum, fmt.Errorf("create task %q: %w", t.Title, err)
			}
			sum.Tasks++
		}
		s.logger.Info("project seeded",
			zap.Int64("project_id", project.ID),
			zap.String("title", project.Title),
			zap.Int("tasks", len(p.Tasks)),
		)
	}
	return sum, nil
}
