package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"todo/internal/model"
	"todo/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/google/uuid"
)

// TodoStore is implemented by repository.TodoRepository and repository.MongoTodoRepository.
type TodoStore interface {
	List(ctx context.Context) ([]model.Todo, error)
	NextOrder(ctx context.Context) (int, error)
	Create(ctx context.Context, todo *model.Todo) error
	GetByID(ctx context.Context, id string) (*model.Todo, error)
	Update(ctx context.Context, id string, patch model.TodoPatch) (*model.Todo, error)
	Delete(ctx context.Context, id string) error
	UpdateOrder(ctx context.Context, updates []model.OrderUpdate) (int, error)
}

type TodoHandler struct {
	store TodoStore
}

func NewTodoHandler(store TodoStore) *TodoHandler {
	registerValidators()
	return &TodoHandler{store: store}
}

var validatorsOnce sync.Once

// registerValidators adds the notblank tag to gin's validator engine.
func registerValidators() {
	validatorsOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("notblank", validators.NotBlank)
		}
	})
}

// OptionalTime distinguishes an absent JSON field from an explicit null.
type OptionalTime struct {
	Set   bool
	Value *time.Time
}

func (o *OptionalTime) UnmarshalJSON(b []byte) error {
	o.Set = true
	o.Value = nil
	if string(b) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if strings.TrimSpace(s) == "" {
		return nil
	}
	t, err := model.ParseDueDate(s)
	if err != nil {
		return err
	}
	o.Value = &t
	return nil
}

// CreateTodoRequest представляет запрос на создание задачи
type CreateTodoRequest struct {
	Title     string       `json:"title" binding:"required,notblank"`
	Content   string       `json:"content"`
	Completed bool         `json:"completed"`
	DueDate   OptionalTime `json:"dueDate" swaggertype:"string" format:"date-time"`
}

// UpdateTodoRequest представляет частичное обновление задачи
type UpdateTodoRequest struct {
	Title     *string      `json:"title" binding:"omitempty,notblank"`
	Content   *string      `json:"content"`
	Completed *bool        `json:"completed"`
	DueDate   OptionalTime `json:"dueDate" swaggertype:"string" format:"date-time"`
	Order     *int         `json:"order"`
}

// ReorderTodosRequest представляет запрос на изменение порядка задач
type ReorderTodosRequest struct {
	Todos []model.OrderUpdate `json:"todos" binding:"required,dive"`
}

// MessageResponse is returned by operations without a record to show
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the body of every 4xx response
type ErrorResponse struct {
	Error string `json:"error"`
}

// List godoc
// @Summary      List todos
// @Description  Returns every todo ordered by ascending order
// @Tags         Todos
// @Produce      json
// @Success      200  {array}   model.Todo
// @Failure      500  {object}  middleware.ServerErrorResponse
// @Router       /api/todos [get]
func (h *TodoHandler) List(c *gin.Context) {
	todos, err := h.store.List(c.Request.Context())
	if err != nil {
		_ = c.Error(fmt.Errorf("list todos: %w", err))
		return
	}
	c.JSON(http.StatusOK, todos)
}

// Create godoc
// @Summary      Create a todo
// @Description  Appends a todo after the current maximum order
// @Tags         Todos
// @Accept       json
// @Produce      json
// @Param        todo  body      CreateTodoRequest  true  "New todo"
// @Success      201   {object}  model.Todo
// @Failure      400   {object}  ErrorResponse
// @Failure      500   {object}  middleware.ServerErrorResponse
// @Router       /api/todos [post]
func (h *TodoHandler) Create(c *gin.Context) {
	var req CreateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: bindErrorMessage(err)})
		return
	}

	// Позиция новой задачи: максимум + 1, либо 0 для пустой коллекции
	order, err := h.store.NextOrder(c.Request.Context())
	if err != nil {
		_ = c.Error(fmt.Errorf("determine todo order: %w", err))
		return
	}

	todo := &model.Todo{
		Title:     strings.TrimSpace(req.Title),
		Content:   strings.TrimSpace(req.Content),
		Completed: req.Completed,
		DueDate:   req.DueDate.Value,
		Order:     order,
	}
	if err := h.store.Create(c.Request.Context(), todo); err != nil {
		_ = c.Error(fmt.Errorf("create todo: %w", err))
		return
	}

	c.JSON(http.StatusCreated, todo)
}

// GetByID godoc
// @Summary      Get a todo
// @Tags         Todos
// @Produce      json
// @Param        id   path      string  true  "Todo ID"
// @Success      200  {object}  model.Todo
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  middleware.ServerErrorResponse
// @Router       /api/todos/{id} [get]
func (h *TodoHandler) GetByID(c *gin.Context) {
	id, ok := todoID(c)
	if !ok {
		return
	}

	todo, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		h.storeError(c, "get todo", err)
		return
	}
	c.JSON(http.StatusOK, todo)
}

// Update godoc
// @Summary      Update a todo
// @Description  Applies a partial update; an explicit null dueDate clears it
// @Tags         Todos
// @Accept       json
// @Produce      json
// @Param        id    path      string             true  "Todo ID"
// @Param        todo  body      UpdateTodoRequest  true  "Fields to change"
// @Success      200   {object}  model.Todo
// @Failure      400   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Failure      500   {object}  middleware.ServerErrorResponse
// @Router       /api/todos/{id} [put]
func (h *TodoHandler) Update(c *gin.Context) {
	id, ok := todoID(c)
	if !ok {
		return
	}

	var req UpdateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: bindErrorMessage(err)})
		return
	}

	todo, err := h.store.Update(c.Request.Context(), id, req.patch())
	if err != nil {
		h.storeError(c, "update todo", err)
		return
	}
	c.JSON(http.StatusOK, todo)
}

// Delete godoc
// @Summary      Delete a todo
// @Tags         Todos
// @Produce      json
// @Param        id   path      string  true  "Todo ID"
// @Success      200  {object}  MessageResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  middleware.ServerErrorResponse
// @Router       /api/todos/{id} [delete]
func (h *TodoHandler) Delete(c *gin.Context) {
	id, ok := todoID(c)
	if !ok {
		return
	}

	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		h.storeError(c, "delete todo", err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Todo deleted"})
}

// Reorder godoc
// @Summary      Reorder todos
// @Description  Sets the order of each listed todo one by one. There is no
// @Description  transaction: on failure the updates already applied are kept
// @Description  and reported in the response.
// @Tags         Todos
// @Accept       json
// @Produce      json
// @Param        order  body      ReorderTodosRequest  true  "New orders"
// @Success      200    {object}  MessageResponse
// @Failure      400    {object}  ErrorResponse
// @Failure      500    {object}  ReorderErrorResponse
// @Router       /api/todos/reorder [put]
func (h *TodoHandler) Reorder(c *gin.Context) {
	var req ReorderTodosRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: bindErrorMessage(err)})
		return
	}
	for _, u := range req.Todos {
		if _, err := uuid.Parse(u.ID); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid todo ID format"})
			return
		}
	}

	applied, err := h.store.UpdateOrder(c.Request.Context(), req.Todos)
	if err != nil {
		_ = c.Error(fmt.Errorf("reorder todos: %w", err))
		c.JSON(http.StatusInternalServerError, ReorderErrorResponse{
			Error:   "Failed to reorder todos",
			Applied: applied,
			Total:   len(req.Todos),
		})
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Order updated"})
}

// ReorderErrorResponse reports how far a failed reorder got
type ReorderErrorResponse struct {
	Error   string `json:"error"`
	Applied int    `json:"applied"`
	Total   int    `json:"total"`
}

func (r UpdateTodoRequest) patch() model.TodoPatch {
	p := model.TodoPatch{
		Completed: r.Completed,
		Order:     r.Order,
	}
	if r.Title != nil {
		title := strings.TrimSpace(*r.Title)
		p.Title = &title
	}
	if r.Content != nil {
		content := strings.TrimSpace(*r.Content)
		p.Content = &content
	}
	if r.DueDate.Set {
		if r.DueDate.Value == nil {
			p.ClearDueDate = true
		} else {
			p.DueDate = r.DueDate.Value
		}
	}
	return p
}

func todoID(c *gin.Context) (string, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid todo ID format"})
		return "", false
	}
	return id.String(), true
}

func (h *TodoHandler) storeError(c *gin.Context, op string, err error) {
	if errors.Is(err, repository.ErrTodoNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Todo not found"})
		return
	}
	_ = c.Error(fmt.Errorf("%s: %w", op, err))
}

func bindErrorMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.Field() == "Title" {
				return "Title is required"
			}
		}
	}
	return "Invalid request"
}
