package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	dom "todolist/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryTodoRepo keeps todos in process memory. Used by STORE_DRIVER=memory and tests.
type MemoryTodoRepo struct {
	mu      sync.Mutex
	nextSeq int64
	items   map[string]memoryRecord
}

type memoryRecord struct {
	seq  int64
	todo dom.Todo
}

func NewMemoryTodoRepo() *MemoryTodoRepo {
	return &MemoryTodoRepo{items: make(map[string]memoryRecord)}
}

func (r *MemoryTodoRepo) Create(ctx context.Context, t dom.Todo) (dom.Todo, error) {
	if err := ctx.Err(); err != nil {
		return dom.Todo{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextSeq++
	t.ID = primitive.NewObjectID().Hex()
	t.CreatedAt = t.CreatedAt.UTC().Truncate(time.Millisecond)
	r.items[t.ID] = memoryRecord{seq: r.nextSeq, todo: t}
	return t, nil
}

func (r *MemoryTodoRepo) GetByID(ctx context.Context, id string) (dom.Todo, error) {
	if err := ctx.Err(); err != nil {
		return dom.Todo{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.items[id]
	if !ok {
		return dom.Todo{}, ErrNotFound
	}
	return rec.todo, nil
}

func (r *MemoryTodoRepo) List(ctx context.Context) ([]dom.Todo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	recs := make([]memoryRecord, 0, len(r.items))
	for _, rec := range r.items {
		recs = append(recs, rec)
	}
	r.mu.Unlock()

	sort.Slice(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if !a.todo.CreatedAt.Equal(b.todo.CreatedAt) {
			return a.todo.CreatedAt.After(b.todo.CreatedAt)
		}
		return a.seq > b.seq
	})
	list := make([]dom.Todo, len(recs))
	for i := range recs {
		list[i] = recs[i].todo
	}
	return list, nil
}

func (r *MemoryTodoRepo) Update(ctx context.Context, id string, patch dom.TodoPatch) (dom.Todo, error) {
	if err := ctx.Err(); err != nil {
		return dom.Todo{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.items[id]
	if !ok {
		return dom.Todo{}, ErrNotFound
	}
	if patch.Text != nil {
		rec.todo.Text = *patch.Text
	}
	if patch.Completed != nil {
		rec.todo.Completed = *patch.Completed
	}
	r.items[id] = rec
	return rec.todo, nil
}

func (r *MemoryTodoRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return ErrNotFound
	}
	delete(r.items, id)
	return nil
}
