package dto

import "time"

// CreateTodoRequest is the JSON body for POST /todos.
// Text is a pointer so an absent field can be told apart from an empty one.
type CreateTodoRequest struct {
	Text *string `json:"text"`
}

type UpdateTodoRequest struct {
	Text      *string `json:"text"`      // nil = do not change
	Completed *bool   `json:"completed"` // nil = do not change
}

type TodoResponse struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
}

// ErrorResponse is the body of every non-2xx answer.
// Details is only filled outside production.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
