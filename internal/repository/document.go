package repository

import (
	"context"
	"errors"

	"weekly-menu/internal/domain"
)

var (
	// ErrNotFound is returned when no record matches within the owner scope.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a write violates a uniqueness constraint.
	ErrDuplicate = errors.New("duplicate record")
)

// DocumentRepository persists owned documents of one collection. Every read
// and write is scoped to the given owner.
type DocumentRepository[T any, P domain.DocumentPtr[T]] interface {
	Init(ctx context.Context) error
	Collection() string
	Insert(ctx context.Context, doc P) error
	Update(ctx context.Context, doc P) error
	Get(ctx context.Context, owner, id string) (P, error)
	Delete(ctx context.Context, owner, id string) error
	List(ctx context.Context, owner string, req domain.PageRequest) (domain.Page[P], error)
	// CountOwned returns how many of ids exist within the owner scope.
	CountOwned(ctx context.Context, owner string, ids []string) (int, error)
}
