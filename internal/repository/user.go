package repository

import (
	"context"

	"weekly-menu/internal/domain"
)

// UserRepository defines persistence operations for User entities.
type UserRepository interface {
	Init(ctx context.Context) error
	// Register stores the user together with its initial shopping list in a
	// single transaction.
	Register(ctx context.Context, user *domain.User, list *domain.ShoppingList) error
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// Delete removes the user and every document it owns.
	Delete(ctx context.Context, id string) error
}
