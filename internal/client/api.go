// Package client talks to the todo service and keeps the client-side view state.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"todolist/internal/dto"
)

// DefaultTimeout bounds every request when no timeout is configured.
const DefaultTimeout = 10 * time.Second

// Todo is the client's view of a todo, exactly as the service returns it.
type Todo = dto.TodoResponse

// TodoAPI is the set of service calls the Session needs.
type TodoAPI interface {
	List(ctx context.Context) ([]Todo, error)
	Create(ctx context.Context, text string) (Todo, error)
	Update(ctx context.Context, id string, req dto.UpdateTodoRequest) (Todo, error)
	Delete(ctx context.Context, id string) error
}

// APIError is a non-2xx answer from the service.
type APIError struct {
	Status  int
	Message string
	Details string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Details != "" {
		return fmt.Sprintf("%d %s: %s", e.Status, msg, e.Details)
	}
	return fmt.Sprintf("%d %s", e.Status, msg)
}

// IsNotFound reports whether err is a 404 from the service.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// HTTPClient calls the todo REST API.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// NewHTTPClient returns a client for baseURL (e.g. http://localhost:5000).
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) List(ctx context.Context) ([]Todo, error) {
	var out []Todo
	if err := c.do(ctx, http.MethodGet, "/api/todos", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []Todo{}
	}
	return out, nil
}

func (c *HTTPClient) Create(ctx context.Context, text string) (Todo, error) {
	var out Todo
	err := c.do(ctx, http.MethodPost, "/api/todos", dto.CreateTodoRequest{Text: &text}, &out)
	return out, err
}

func (c *HTTPClient) Update(ctx context.Context, id string, req dto.UpdateTodoRequest) (Todo, error) {
	var out Todo
	err := c.do(ctx, http.MethodPut, todoPath(id), req, &out)
	return out, err
}

func (c *HTTPClient) Delete(ctx context.Context, id string) error {
	var out dto.MessageResponse
	return c.do(ctx, http.MethodDelete, todoPath(id), nil, &out)
}

// Health calls the liveness probe.
func (c *HTTPClient) Health(ctx context.Context) (dto.HealthResponse, error) {
	var out dto.HealthResponse
	err := c.do(ctx, http.MethodGet, "/api/health", nil, &out)
	return out, err
}

func todoPath(id string) string {
	return "/api/todos/" + url.PathEscape(id)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: read body: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var e dto.ErrorResponse
		if json.Unmarshal(data, &e) == nil {
			apiErr.Message = e.Error
			apiErr.Details = e.Details
		}
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}
