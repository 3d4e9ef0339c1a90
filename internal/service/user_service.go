package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"weekly-menu/internal/document"
	"weekly-menu/internal/domain"
	"weekly-menu/internal/repository"
)

// Registration is the payload accepted when creating an account.
type Registration struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,min=8"`
	Email    string `json:"email" validate:"required,email"`
}

// UserService describes user lifecycle operations.
type UserService interface {
	Register(ctx context.Context, reg Registration) (*domain.User, error)
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	Delete(ctx context.Context, id string) error
}

// AccountCleanup releases resources kept outside the database for a deleted
// account.
type AccountCleanup func(ctx context.Context, userID string) error

type userService struct {
	users    repository.UserRepository
	clock    document.Clock
	logger   logrus.FieldLogger
	cleanups []AccountCleanup
}

func NewUserService(users repository.UserRepository, clock document.Clock, logger logrus.FieldLogger, cleanups ...AccountCleanup) UserService {
	return &userService{
		users:    users,
		clock:    clock,
		logger:   logger,
		cleanups: cleanups,
	}
}

// Register creates the account and its shopping list in one transaction.
func (s *userService) Register(ctx context.Context, reg Registration) (*domain.User, error) {
	reg.Username = strings.TrimSpace(reg.Username)
	reg.Email = strings.TrimSpace(reg.Email)
	if err := document.Validate(reg); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		ID:           document.NewID(),
		Username:     reg.Username,
		Email:        reg.Email,
		PasswordHash: string(hash),
	}

	now := s.clock.Now()
	list := &domain.ShoppingList{
		Meta: domain.Meta{
			ID:              document.NewID(),
			OfflineID:       uuid.NewString(),
			Owner:           user.ID,
			InsertTimestamp: now,
			UpdateTimestamp: now,
		},
		Items: []domain.ShoppingListItem{},
	}

	if err := s.users.Register(ctx, user, list); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, domain.DuplicateEntry(fmt.Sprintf("user %s already exists", reg.Username))
		}
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"user_id": user.ID, "username": user.Username}).Info("user registered")
	return sanitizeUser(user), nil
}

func (s *userService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, domain.BadCredentials()
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.BadCredentials()
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.BadCredentials()
	}

	return sanitizeUser(user), nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFound(fmt.Sprintf("no user found with id %s", id))
		}
		return nil, err
	}
	return sanitizeUser(user), nil
}

// Delete removes the account together with every document it owns.
func (s *userService) Delete(ctx context.Context, id string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.NotFound(fmt.Sprintf("no user found with id %s", id))
		}
		return err
	}
	for _, fn := range s.cleanups {
		if err := fn(ctx, id); err != nil {
			s.logger.WithError(err).WithField("user_id", id).Warn("account cleanup failed")
		}
	}
	s.logger.WithField("user_id", id).Info("user deleted")
	return nil
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
