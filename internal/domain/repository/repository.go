package repository

import (
	"context"
	"errors"
)

// ErrEmptyID is returned by Save when the entity carries no key.
var ErrEmptyID = errors.New("repository: empty id")

// Repository is the generic CRUD contract every entity repository inherits.
//
// FindByID reports a missing record with found=false and a nil error.
// DeleteByID reports whether a record was removed; a missing key is not an error.
type Repository[T any, ID comparable] interface {
	// Save creates or updates the entity and returns the stored representation.
	Save(ctx context.Context, entity *T) (*T, error)
	FindByID(ctx context.Context, id ID) (entity *T, found bool, err error)
	FindAll(ctx context.Context) ([]T, error)
	DeleteByID(ctx context.Context, id ID) (deleted bool, err error)
	Count(ctx context.Context) (int64, error)
}
