package client

import (
	"context"
	"errors"
	"sync"

	"todolist/internal/dto"
	"todolist/internal/utils"

	"github.com/charmbracelet/log"
)

// User-visible notices.
const (
	NoticeFetchFailed  = "Failed to fetch todos"
	NoticeAddFailed    = "Failed to add todo"
	NoticeUpdateFailed = "Failed to update todo"
	NoticeDeleteFailed = "Failed to delete todo"
)

// ErrUnknownItem is returned for ids that are not in the held list.
var ErrUnknownItem = errors.New("todo is not in the list")

// Session holds the client view state and reconciles it with service answers.
// The lock is never held across a network call, so operations may overlap.
type Session struct {
	api    TodoAPI
	logger *log.Logger

	mu       sync.Mutex
	todos    []Todo
	draft    string
	inflight int // running List calls
	notice   string
}

func NewSession(api TodoAPI, logger *log.Logger) *Session {
	return &Session{api: api, logger: logger, todos: []Todo{}}
}

// Snapshot is a copy of the view state, safe to read while operations run.
type Snapshot struct {
	Todos   []Todo
	Draft   string
	Loading bool
	Notice  string
}

// Stats are the derived counts shown under the list.
type Stats struct {
	Total     int
	Completed int
	Remaining int
}

// Stats computes counts from the held list.
func (s Snapshot) Stats() Stats {
	st := Stats{Total: len(s.Todos)}
	for _, t := range s.Todos {
		if t.Completed {
			st.Completed++
		}
	}
	st.Remaining = st.Total - st.Completed
	return st
}

// Empty reports whether the empty-state indicator should be shown.
func (s Snapshot) Empty() bool {
	return !s.Loading && len(s.Todos) == 0
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	todos := make([]Todo, len(s.todos))
	copy(todos, s.todos)
	return Snapshot{Todos: todos, Draft: s.draft, Loading: s.inflight > 0, Notice: s.notice}
}

// SetDraft replaces the pending-entry buffer.
func (s *Session) SetDraft(text string) {
	s.mu.Lock()
	s.draft = text
	s.mu.Unlock()
}

// ClearNotice dismisses the current notice.
func (s *Session) ClearNotice() {
	s.mu.Lock()
	s.notice = ""
	s.mu.Unlock()
}

// Refresh replaces the held list with the service's. On failure the previous
// list is kept.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.inflight++
	s.mu.Unlock()

	todos, err := s.api.List(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight--
	if err != nil {
		s.fail(NoticeFetchFailed, err)
		return err
	}
	s.todos = todos
	s.notice = ""
	return nil
}

// Submit creates a todo from the draft. It reports false without a request
// when the trimmed draft is empty. The draft is kept when the request fails.
func (s *Session) Submit(ctx context.Context) (bool, error) {
	s.mu.Lock()
	text, ok := utils.TrimmedText(s.draft)
	s.mu.Unlock()
	if !ok {
		return false, nil
	}

	created, err := s.api.Create(ctx, text)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.fail(NoticeAddFailed, err)
		return true, err
	}
	s.todos = append([]Todo{created}, s.todos...)
	s.draft = ""
	s.notice = ""
	return true, nil
}

// Toggle flips completion for id and merges the service's answer.
func (s *Session) Toggle(ctx context.Context, id string) error {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return ErrUnknownItem
	}
	completed := !s.todos[idx].Completed
	s.mu.Unlock()

	return s.update(ctx, id, dto.UpdateTodoRequest{Completed: &completed})
}

// Edit replaces the text of id. Blank text is ignored.
func (s *Session) Edit(ctx context.Context, id, text string) error {
	trimmed, ok := utils.TrimmedText(text)
	if !ok {
		return nil
	}
	s.mu.Lock()
	known := s.indexOf(id) >= 0
	s.mu.Unlock()
	if !known {
		return ErrUnknownItem
	}
	return s.update(ctx, id, dto.UpdateTodoRequest{Text: &trimmed})
}

func (s *Session) update(ctx context.Context, id string, req dto.UpdateTodoRequest) error {
	updated, err := s.api.Update(ctx, id, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.fail(NoticeUpdateFailed, err)
		return err
	}
	if idx := s.indexOf(id); idx >= 0 {
		s.todos[idx] = updated
	}
	s.notice = ""
	return nil
}

// Delete removes id. Callers ask the user for confirmation first.
func (s *Session) Delete(ctx context.Context, id string) error {
	err := s.api.Delete(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.fail(NoticeDeleteFailed, err)
		return err
	}
	if idx := s.indexOf(id); idx >= 0 {
		s.todos = append(s.todos[:idx:idx], s.todos[idx+1:]...)
	}
	s.notice = ""
	return nil
}

// indexOf must be called with mu held.
func (s *Session) indexOf(id string) int {
	for i := range s.todos {
		if s.todos[i].ID == id {
			return i
		}
	}
	return -1
}

// fail must be called with mu held.
func (s *Session) fail(notice string, err error) {
	s.notice = notice
	s.logger.Error(notice, "err", err)
}
