package handlers

import (
	"errors"
	"io"
	"net/http"

	dom "todolist/internal/domain"
	"todolist/internal/dto"
	"todolist/internal/service"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
)

type TodoHandler struct {
	svc    *service.TodoService
	logger *log.Logger
	// details adds the internal cause to 500 responses. Off in production.
	details bool
}

func NewTodoHandler(svc *service.TodoService, logger *log.Logger, exposeDetails bool) *TodoHandler {
	return &TodoHandler{svc: svc, logger: logger, details: exposeDetails}
}

// List godoc
// @Summary      List all todos, newest first
// @Tags         todos
// @Produce      json
// @Success      200  {array}   dto.TodoResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /todos [get]
func (h *TodoHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		h.serverError(c, "Failed to fetch todos", err)
		return
	}
	c.JSON(http.StatusOK, todosToResponses(list))
}

// Create godoc
// @Summary      Create a todo
// @Tags         todos
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CreateTodoRequest  true  "Todo body"
// @Success      201   {object}  dto.TodoResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /todos [post]
func (h *TodoHandler) Create(c *gin.Context) {
	var req dto.CreateTodoRequest
	if !h.bind(c, &req) {
		return
	}

	t, err := h.svc.Create(c.Request.Context(), req.Text)
	if err != nil {
		if errors.Is(err, service.ErrInvalidText) {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Todo text is required"})
			return
		}
		h.serverError(c, "Failed to create todo", err)
		return
	}

	c.JSON(http.StatusCreated, todoToResponse(t))
}

// GetByID godoc
// @Summary      Get a todo by ID
// @Tags         todos
// @Produce      json
// @Param        id   path      string  true  "Todo ID"
// @Success      200  {object}  dto.TodoResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /todos/{id} [get]
func (h *TodoHandler) GetByID(c *gin.Context) {
	t, err := h.svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			notFound(c)
			return
		}
		h.serverError(c, "Failed to fetch todo", err)
		return
	}
	c.JSON(http.StatusOK, todoToResponse(t))
}

// Update godoc
// @Summary      Update a todo
// @Description  Only the supplied fields change.
// @Tags         todos
// @Accept       json
// @Produce      json
// @Param        id    path      string                 true  "Todo ID"
// @Param        body  body      dto.UpdateTodoRequest  true  "Partial update"
// @Success      200   {object}  dto.TodoResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /todos/{id} [put]
func (h *TodoHandler) Update(c *gin.Context) {
	var req dto.UpdateTodoRequest
	if !h.bind(c, &req) {
		return
	}
	t, err := h.svc.Update(c.Request.Context(), c.Param("id"), req.Text, req.Completed)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			notFound(c)
			return
		}
		if errors.Is(err, service.ErrInvalidText) {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Todo text cannot be empty"})
			return
		}
		h.serverError(c, "Failed to update todo", err)
		return
	}
	c.JSON(http.StatusOK, todoToResponse(t))
}

// Delete godoc
// @Summary      Delete a todo
// @Tags         todos
// @Produce      json
// @Param        id   path      string  true  "Todo ID"
// @Success      200  {object}  dto.MessageResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /todos/{id} [delete]
func (h *TodoHandler) Delete(c *gin.Context) {
	err := h.svc.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			notFound(c)
			return
		}
		h.serverError(c, "Failed to delete todo", err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Todo deleted successfully"})
}

// bind decodes the JSON body. An empty body decodes as {}.
func (h *TodoHandler) bind(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	resp := dto.ErrorResponse{Error: "Invalid request body"}
	if h.details {
		resp.Details = err.Error()
	}
	c.JSON(http.StatusBadRequest, resp)
	return false
}

func (h *TodoHandler) serverError(c *gin.Context, msg string, err error) {
	h.logger.Error(msg, "method", c.Request.Method, "path", c.Request.URL.Path, "err", err)
	resp := dto.ErrorResponse{Error: msg}
	if h.details {
		resp.Details = err.Error()
	}
	c.JSON(http.StatusInternalServerError, resp)
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "Todo not found"})
}

func todoToResponse(t dom.Todo) dto.TodoResponse {
	return dto.TodoResponse{
		ID:        t.ID,
		Text:      t.Text,
		Completed: t.Completed,
		CreatedAt: t.CreatedAt,
	}
}

func todosToResponses(list []dom.Todo) []dto.TodoResponse {
	out := make([]dto.TodoResponse, len(list))
	for i := range list {
		out[i] = todoToResponse(list[i])
	}
	return out
}
