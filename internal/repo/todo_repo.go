package repo

import (
	"context"
	"errors"

	dom "todolist/internal/domain"
)

// ErrNotFound is returned by every TodoRepo when an id does not resolve,
// including ids that are malformed for the backing store.
var ErrNotFound = errors.New("todo not found")

type TodoRepo interface {
	Create(ctx context.Context, t dom.Todo) (dom.Todo, error)
	GetByID(ctx context.Context, id string) (dom.Todo, error)
	List(ctx context.Context) ([]dom.Todo, error)
	Update(ctx context.Context, id string, patch dom.TodoPatch) (dom.Todo, error)
	Delete(ctx context.Context, id string) error
}
