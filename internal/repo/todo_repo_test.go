package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	dom "todolist/internal/domain"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

// testTodoRepo runs the behaviour every TodoRepo must share.
func testTodoRepo(t *testing.T, newRepo func(t *testing.T) TodoRepo) {
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("create assigns id and keeps fields", func(t *testing.T) {
		r := newRepo(t)
		got, err := r.Create(ctx, dom.Todo{Text: "buy milk", CreatedAt: base})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if got.ID == "" {
			t.Fatal("expected id to be assigned")
		}
		if got.Text != "buy milk" || got.Completed {
			t.Errorf("unexpected todo %+v", got)
		}
		if !got.CreatedAt.Equal(base) {
			t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, base)
		}

		again, err := r.GetByID(ctx, got.ID)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if again != got {
			t.Errorf("GetByID = %+v, want %+v", again, got)
		}
	})

	t.Run("list is newest first with insertion tie-break", func(t *testing.T) {
		r := newRepo(t)
		t1, _ := r.Create(ctx, dom.Todo{Text: "one", CreatedAt: base})
		t2, _ := r.Create(ctx, dom.Todo{Text: "two", CreatedAt: base.Add(time.Second)})
		t3, _ := r.Create(ctx, dom.Todo{Text: "three", CreatedAt: base.Add(2 * time.Second)})
		tie, _ := r.Create(ctx, dom.Todo{Text: "tie", CreatedAt: base.Add(2 * time.Second)})

		list, err := r.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		want := []string{tie.ID, t3.ID, t2.ID, t1.ID}
		if len(list) != len(want) {
			t.Fatalf("len(list) = %d, want %d", len(list), len(want))
		}
		for i, id := range want {
			if list[i].ID != id {
				t.Errorf("list[%d] = %s (%s), want %s", i, list[i].ID, list[i].Text, id)
			}
		}
	})

	t.Run("update changes only supplied fields", func(t *testing.T) {
		r := newRepo(t)
		created, _ := r.Create(ctx, dom.Todo{Text: "walk dog", CreatedAt: base})

		got, err := r.Update(ctx, created.ID, dom.TodoPatch{Completed: boolPtr(true)})
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		if !got.Completed || got.Text != "walk dog" || got.ID != created.ID || !got.CreatedAt.Equal(created.CreatedAt) {
			t.Errorf("unexpected todo after completed update: %+v", got)
		}

		got, err = r.Update(ctx, created.ID, dom.TodoPatch{Text: strPtr("walk cat")})
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		if !got.Completed || got.Text != "walk cat" {
			t.Errorf("unexpected todo after text update: %+v", got)
		}

		got, err = r.Update(ctx, created.ID, dom.TodoPatch{})
		if err != nil {
			t.Fatalf("empty Update: %v", err)
		}
		if got.Text != "walk cat" {
			t.Errorf("empty patch changed todo: %+v", got)
		}
	})

	t.Run("unknown ids are not found", func(t *testing.T) {
		r := newRepo(t)
		for _, id := range []string{"000000000000000000000000", "not-an-id", "", "6e0a1f3c-0000-4000-8000-000000000000"} {
			if _, err := r.GetByID(ctx, id); !errors.Is(err, ErrNotFound) {
				t.Errorf("GetByID(%q) err = %v, want ErrNotFound", id, err)
			}
			if _, err := r.Update(ctx, id, dom.TodoPatch{Completed: boolPtr(true)}); !errors.Is(err, ErrNotFound) {
				t.Errorf("Update(%q) err = %v, want ErrNotFound", id, err)
			}
			if err := r.Delete(ctx, id); !errors.Is(err, ErrNotFound) {
				t.Errorf("Delete(%q) err = %v, want ErrNotFound", id, err)
			}
		}
	})

	t.Run("delete removes and is not repeatable", func(t *testing.T) {
		r := newRepo(t)
		created, _ := r.Create(ctx, dom.Todo{Text: "gone soon", CreatedAt: base})

		if err := r.Delete(ctx, created.ID); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if err := r.Delete(ctx, created.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("second Delete err = %v, want ErrNotFound", err)
		}
		if _, err := r.GetByID(ctx, created.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetByID after delete err = %v, want ErrNotFound", err)
		}
		list, err := r.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(list) != 0 {
			t.Errorf("expected empty list, got %d", len(list))
		}

		recreated, _ := r.Create(ctx, dom.Todo{Text: "gone soon", CreatedAt: base})
		if recreated.ID == created.ID {
			t.Error("re-creation reused a deleted id")
		}
	})
}

func TestMemoryTodoRepo(t *testing.T) {
	testTodoRepo(t, func(t *testing.T) TodoRepo { return NewMemoryTodoRepo() })
}

func TestMemoryTodoRepoCanceledContext(t *testing.T) {
	r := NewMemoryTodoRepo()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := r.List(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("List err = %v, want context.Canceled", err)
	}
	if _, err := r.Create(ctx, dom.Todo{Text: "x"}); !errors.Is(err, context.Canceled) {
		t.Errorf("Create err = %v, want context.Canceled", err)
	}
}
