package service

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/mbolis/quick-forms/apperr"
	"github.com/mbolis/quick-forms/log"
	"github.com/mbolis/quick-forms/model"
	"github.com/mbolis/quick-forms/store"
)

// MaxPasswordBytes is the longest password bcrypt can hash.
const MaxPasswordBytes = 72

type UserService struct {
	base
	users store.Users
	cost  int
}

func NewUserService(users store.Users, opts ...Option) *UserService {
	return &UserService{base: newBase(opts), users: users, cost: bcrypt.DefaultCost}
}

// WithHashCost lowers the bcrypt cost, for tests.
func (s *UserService) WithHashCost(cost int) *UserService {
	s.cost = cost
	return s
}

// RegisterUser creates a regular user. Registration never grants admin.
func (s *UserService) RegisterUser(ctx context.Context, username, password string) (model.User, error) {
	return s.CreateUser(ctx, username, password, model.RoleUser)
}

// CreateUser creates a user with the given role; used for seeding admins.
func (s *UserService) CreateUser(ctx context.Context, username, password string, role model.Role) (model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return model.User{}, apperr.New(apperr.ValidationFailed, "username and password required")
	}
	if len(password) > MaxPasswordBytes {
		return model.User{}, apperr.New(apperr.ValidationFailed, "password longer than %d bytes", MaxPasswordBytes)
	}
	if role != model.RoleAdmin && role != model.RoleUser {
		return model.User{}, apperr.New(apperr.ValidationFailed, "unknown role %q", role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return model.User{}, err
	}
	id, err := s.newID()
	if err != nil {
		return model.User{}, err
	}
	user := model.User{
		ID:           id,
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    s.now(),
	}
	if err := s.users.AppendUser(ctx, user); err != nil {
		return model.User{}, err
	}

	log.With(log.Fields{"user": user.ID, "username": username, "role": role}).Info("user registered")
	return user, nil
}

// Authenticate checks the password against the stored bcrypt hash. Unknown
// users and wrong passwords fail the same way.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (model.User, error) {
	user, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if apperr.IsKind(err, apperr.NotFound) {
		return model.User{}, apperr.New(apperr.InvalidCredentials, "invalid username or password")
	}
	if err != nil {
		return model.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return model.User{}, apperr.New(apperr.InvalidCredentials, "invalid username or password")
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (model.User, error) {
	return s.users.GetUser(ctx, id)
}

func (s *UserService) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	return s.users.GetUserByUsername(ctx, username)
}

func (s *UserService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.users.ListUsers(ctx)
}
