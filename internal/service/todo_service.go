package service

import (
	"context"
	"errors"
	"time"

	"todolist/internal/cache"
	dom "todolist/internal/domain"
	"todolist/internal/repo"
	"todolist/internal/utils"

	"golang.org/x/sync/singleflight"
)

var (
	ErrNotFound    = errors.New("todo not found")
	ErrInvalidText = errors.New("todo text is required")
)

// listTimeout bounds the shared list load, which outlives any single caller.
const listTimeout = 10 * time.Second

type TodoService struct {
	repo  repo.TodoRepo
	cache *cache.TodoCache
	sf    singleflight.Group
	now   func() time.Time
}

// NewTodoService creates a TodoService. If c is nil, caching is disabled.
func NewTodoService(r repo.TodoRepo, c *cache.TodoCache) *TodoService {
	return &TodoService{repo: r, cache: c, now: time.Now}
}

// Create validates text and stores a new, not yet completed todo.
// text is nil when the field was absent from the request.
func (s *TodoService) Create(ctx context.Context, text *string) (dom.Todo, error) {
	if text == nil {
		return dom.Todo{}, ErrInvalidText
	}
	trimmed, ok := utils.TrimmedText(*text)
	if !ok {
		return dom.Todo{}, ErrInvalidText
	}

	t, err := s.repo.Create(ctx, dom.Todo{
		Text:      trimmed,
		Completed: false,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return dom.Todo{}, err
	}
	s.invalidateCache(ctx)
	return t, nil
}

// List returns every todo, newest first.
func (s *TodoService) List(ctx context.Context) ([]dom.Todo, error) {
	if s.cache != nil {
		v, err, _ := s.sf.Do("list", func() (interface{}, error) {
			// shared by every waiting caller, so detached from this one
			ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), listTimeout)
			defer cancel()

			if list, err := s.cache.GetList(ctx); err == nil && list != nil {
				return list, nil
			}
			gen, genErr := s.cache.Generation(ctx)
			list, err := s.listFromRepo(ctx)
			if err != nil {
				return nil, err
			}
			if genErr == nil {
				_ = s.cache.SetList(ctx, list, gen)
			}
			return list, nil
		})
		if err != nil {
			return nil, err
		}
		return v.([]dom.Todo), nil
	}
	return s.listFromRepo(ctx)
}

func (s *TodoService) listFromRepo(ctx context.Context) ([]dom.Todo, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []dom.Todo{}
	}
	return list, nil
}

func (s *TodoService) GetByID(ctx context.Context, id string) (dom.Todo, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return dom.Todo{}, mapRepoErr(err)
	}
	return t, nil
}

// Update applies the supplied fields only. A supplied text is trimmed and must not be empty.
func (s *TodoService) Update(ctx context.Context, id string, text *string, completed *bool) (dom.Todo, error) {
	patch := dom.TodoPatch{Completed: completed}
	if text != nil {
		trimmed, ok := utils.TrimmedText(*text)
		if !ok {
			return dom.Todo{}, ErrInvalidText
		}
		patch.Text = &trimmed
	}

	t, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return dom.Todo{}, mapRepoErr(err)
	}
	if !patch.Empty() {
		s.invalidateCache(ctx)
	}
	return t, nil
}

func (s *TodoService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepoErr(err)
	}
	s.invalidateCache(ctx)
	return nil
}

func (s *TodoService) invalidateCache(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx)
	}
}

func mapRepoErr(err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
