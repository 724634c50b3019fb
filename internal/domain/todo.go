package domain

import "time"

// Domain entity: the business object (source of truth).
// Does not depend on Gin, Mongo, Postgres or Redis.
type Todo struct {
	ID        string
	Text      string
	Completed bool
	CreatedAt time.Time
}

// TodoPatch carries the optional fields of an update. Nil means "leave as is".
type TodoPatch struct {
	Text      *string
	Completed *bool
}

// Empty reports whether the patch changes nothing.
func (p TodoPatch) Empty() bool {
	return p.Text == nil && p.Completed == nil
}
