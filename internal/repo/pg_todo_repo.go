package repo

import (
	"context"
	"errors"

	dom "todolist/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const todoColumns = `id, text, completed, created_at`

type PGTodoRepo struct {
	db *pgxpool.Pool
}

func NewPGTodoRepo(db *pgxpool.Pool) *PGTodoRepo {
	return &PGTodoRepo{db: db}
}

func (r *PGTodoRepo) Create(ctx context.Context, t dom.Todo) (dom.Todo, error) {
	query := `
		INSERT INTO todos (id, text, completed, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + todoColumns
	var out dom.Todo
	err := r.db.QueryRow(ctx, query, uuid.NewString(), t.Text, t.Completed, t.CreatedAt.UTC()).Scan(
		&out.ID, &out.Text, &out.Completed, &out.CreatedAt,
	)
	out.CreatedAt = out.CreatedAt.UTC()
	return out, err
}

func (r *PGTodoRepo) GetByID(ctx context.Context, id string) (dom.Todo, error) {
	if _, err := uuid.Parse(id); err != nil {
		return dom.Todo{}, ErrNotFound
	}
	query := `SELECT ` + todoColumns + ` FROM todos WHERE id = $1`
	var t dom.Todo
	err := r.db.QueryRow(ctx, query, id).Scan(&t.ID, &t.Text, &t.Completed, &t.CreatedAt)
	t.CreatedAt = t.CreatedAt.UTC()
	return t, mapPGErr(err)
}

func (r *PGTodoRepo) List(ctx context.Context) ([]dom.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos ORDER BY created_at DESC, seq DESC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []dom.Todo{}
	for rows.Next() {
		var t dom.Todo
		if err := rows.Scan(&t.ID, &t.Text, &t.Completed, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.CreatedAt = t.CreatedAt.UTC()
		list = append(list, t)
	}
	return list, rows.Err()
}

func (r *PGTodoRepo) Update(ctx context.Context, id string, patch dom.TodoPatch) (dom.Todo, error) {
	if _, err := uuid.Parse(id); err != nil {
		return dom.Todo{}, ErrNotFound
	}
	query := `
		UPDATE todos SET text = COALESCE($2, text), completed = COALESCE($3, completed)
		WHERE id = $1
		RETURNING ` + todoColumns
	var t dom.Todo
	err := r.db.QueryRow(ctx, query, id, patch.Text, patch.Completed).Scan(
		&t.ID, &t.Text, &t.Completed, &t.CreatedAt,
	)
	t.CreatedAt = t.CreatedAt.UTC()
	return t, mapPGErr(err)
}

func (r *PGTodoRepo) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM todos WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func mapPGErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
