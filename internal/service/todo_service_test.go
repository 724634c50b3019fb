package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"todolist/internal/cache"
	dom "todolist/internal/domain"
	"todolist/internal/repo"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

// tickingClock returns a clock that advances one second per call.
func tickingClock() func() time.Time {
	t := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newTestService(t *testing.T) *TodoService {
	t.Helper()
	svc := NewTodoService(repo.NewMemoryTodoRepo(), nil)
	svc.now = tickingClock()
	return svc
}

// failingRepo simulates an unreachable store.
type failingRepo struct{ err error }

func (f failingRepo) Create(context.Context, dom.Todo) (dom.Todo, error) { return dom.Todo{}, f.err }
func (f failingRepo) GetByID(context.Context, string) (dom.Todo, error)  { return dom.Todo{}, f.err }
func (f failingRepo) List(context.Context) ([]dom.Todo, error)           { return nil, f.err }
func (f failingRepo) Update(context.Context, string, dom.TodoPatch) (dom.Todo, error) {
	return dom.Todo{}, f.err
}
func (f failingRepo) Delete(context.Context, string) error { return f.err }

func TestCreateTrimsAndDefaults(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	got, err := svc.Create(ctx, strPtr("  buy milk  "))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got.Text != "buy milk" {
		t.Errorf("Text = %q, want %q", got.Text, "buy milk")
	}
	if got.Completed {
		t.Error("new todo must not be completed")
	}
	if got.ID == "" || got.CreatedAt.IsZero() {
		t.Errorf("server fields not assigned: %+v", got)
	}

	list, _ := svc.List(ctx)
	if len(list) != 1 || list[0].ID != got.ID {
		t.Errorf("List = %+v, want the created todo", list)
	}
}

func TestCreateRejectsEmptyText(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		text *string
	}{
		{"absent", nil},
		{"empty", strPtr("")},
		{"whitespace", strPtr("   ")},
		{"tabs and newlines", strPtr("\t\n ")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, tt.text); !errors.Is(err, ErrInvalidText) {
				t.Errorf("err = %v, want ErrInvalidText", err)
			}
		})
	}

	list, _ := svc.List(ctx)
	if len(list) != 0 {
		t.Errorf("store changed after rejected creates: %d todos", len(list))
	}
}

func TestCreateGivesFreshIDs(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		got, err := svc.Create(ctx, strPtr("same text"))
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if seen[got.ID] {
			t.Fatalf("duplicate id %s", got.ID)
		}
		seen[got.ID] = true
	}
}

func TestListNewestFirst(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	first, _ := svc.Create(ctx, strPtr("t1"))
	second, _ := svc.Create(ctx, strPtr("t2"))
	third, _ := svc.Create(ctx, strPtr("t3"))

	list, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{third.ID, second.ID, first.ID}
	for i := range want {
		if list[i].ID != want[i] {
			t.Errorf("list[%d] = %s, want %s", i, list[i].Text, want[i])
		}
	}
}

func TestUpdateCompletedKeepsOtherFields(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	created, _ := svc.Create(ctx, strPtr("buy milk"))

	got, err := svc.Update(ctx, created.ID, nil, boolPtr(true))
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !got.Completed {
		t.Error("expected completed=true")
	}
	if got.Text != created.Text || got.ID != created.ID || !got.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("immutable fields changed: before %+v after %+v", created, got)
	}

	fetched, err := svc.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if fetched != got {
		t.Errorf("GetByID = %+v, want %+v", fetched, got)
	}
}

func TestUpdateText(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	created, _ := svc.Create(ctx, strPtr("buy milk"))

	got, err := svc.Update(ctx, created.ID, strPtr("  buy oat milk "), nil)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Text != "buy oat milk" || got.Completed {
		t.Errorf("unexpected todo %+v", got)
	}

	if _, err := svc.Update(ctx, created.ID, strPtr("   "), boolPtr(true)); !errors.Is(err, ErrInvalidText) {
		t.Fatalf("err = %v, want ErrInvalidText", err)
	}
	after, _ := svc.GetByID(ctx, created.ID)
	if after.Text != "buy oat milk" || after.Completed {
		t.Errorf("rejected update was partially applied: %+v", after)
	}
}

func TestUnknownIDIsNotFound(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	kept, _ := svc.Create(ctx, strPtr("keep me"))

	for _, id := range []string{"000000000000000000000000", "nope"} {
		if _, err := svc.Update(ctx, id, nil, boolPtr(true)); !errors.Is(err, ErrNotFound) {
			t.Errorf("Update(%q) err = %v, want ErrNotFound", id, err)
		}
		if err := svc.Delete(ctx, id); !errors.Is(err, ErrNotFound) {
			t.Errorf("Delete(%q) err = %v, want ErrNotFound", id, err)
		}
		if _, err := svc.GetByID(ctx, id); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetByID(%q) err = %v, want ErrNotFound", id, err)
		}
	}

	list, _ := svc.List(ctx)
	if len(list) != 1 || list[0] != kept {
		t.Errorf("store changed: %+v", list)
	}
}

func TestDeleteTwice(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	created, _ := svc.Create(ctx, strPtr("once"))

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := svc.Delete(ctx, created.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("repeat %d: err = %v, want ErrNotFound", i, err)
		}
	}
	if _, err := svc.GetByID(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID err = %v, want ErrNotFound", err)
	}
	list, _ := svc.List(ctx)
	if len(list) != 0 {
		t.Errorf("expected empty list, got %+v", list)
	}
}

func TestStoreFailuresPassThrough(t *testing.T) {
	boom := errors.New("connection refused")
	svc := NewTodoService(failingRepo{err: boom}, nil)
	ctx := context.Background()

	if _, err := svc.List(ctx); !errors.Is(err, boom) {
		t.Errorf("List err = %v", err)
	}
	if _, err := svc.Create(ctx, strPtr("x")); !errors.Is(err, boom) {
		t.Errorf("Create err = %v", err)
	}
	if _, err := svc.Update(ctx, "id", nil, boolPtr(true)); !errors.Is(err, boom) {
		t.Errorf("Update err = %v", err)
	}
	if err := svc.Delete(ctx, "id"); !errors.Is(err, boom) {
		t.Errorf("Delete err = %v", err)
	}
	// validation still wins over the store
	if _, err := svc.Create(ctx, strPtr(" ")); !errors.Is(err, ErrInvalidText) {
		t.Errorf("Create err = %v, want ErrInvalidText", err)
	}
}

func TestListCacheInvalidatedOnWrite(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	svc := NewTodoService(repo.NewMemoryTodoRepo(), cache.NewTodoCache(rdb, time.Minute))
	svc.now = tickingClock()
	ctx := context.Background()

	list, err := svc.List(ctx)
	if err != nil || len(list) != 0 {
		t.Fatalf("List = %v, %v", list, err)
	}
	if !mr.Exists("todo:list") {
		t.Fatal("expected list to be cached")
	}

	created, _ := svc.Create(ctx, strPtr("cached?"))
	list, _ = svc.List(ctx)
	if len(list) != 1 || list[0].ID != created.ID {
		t.Fatalf("stale list after create: %+v", list)
	}

	_, _ = svc.Update(ctx, created.ID, nil, boolPtr(true))
	list, _ = svc.List(ctx)
	if !list[0].Completed {
		t.Fatalf("stale list after update: %+v", list)
	}

	_ = svc.Delete(ctx, created.ID)
	list, _ = svc.List(ctx)
	if len(list) != 0 {
		t.Fatalf("stale list after delete: %+v", list)
	}
}

func newCachedService(t *testing.T, r repo.TodoRepo) (*TodoService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	svc := NewTodoService(r, cache.NewTodoCache(rdb, time.Minute))
	svc.now = tickingClock()
	return svc, mr
}

// pausingRepo holds the first List after it has read the store.
type pausingRepo struct {
	repo.TodoRepo
	once    sync.Once
	read    chan struct{}
	release chan struct{}
}

func (p *pausingRepo) List(ctx context.Context) ([]dom.Todo, error) {
	list, err := p.TodoRepo.List(ctx)
	p.once.Do(func() {
		close(p.read)
		<-p.release
	})
	return list, err
}

func TestListDoesNotCacheOverConcurrentWrite(t *testing.T) {
	r := &pausingRepo{TodoRepo: repo.NewMemoryTodoRepo(), read: make(chan struct{}), release: make(chan struct{})}
	svc, mr := newCachedService(t, r)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := svc.List(ctx)
		done <- err
	}()
	<-r.read

	created, err := svc.Create(ctx, strPtr("buy milk"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	close(r.release)
	if err := <-done; err != nil {
		t.Fatalf("List: %v", err)
	}
	if mr.Exists("todo:list") {
		t.Fatal("list read before the write was cached")
	}

	list, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].ID != created.ID {
		t.Fatalf("List after Create = %+v, want the created todo", list)
	}
}

func TestListIgnoresCallerCancelWhenCached(t *testing.T) {
	svc, _ := newCachedService(t, repo.NewMemoryTodoRepo())
	if _, err := svc.Create(context.Background(), strPtr("walk dog")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// the load is shared with other callers, so it runs detached from this one
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	list, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("List = %+v", list)
	}
}
