package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"todo/internal/handler"
	"todo/internal/middleware"
	"todo/internal/model"
	"todo/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Мок хранилища задач
type MockTodoStore struct {
	mock.Mock
}

func (m *MockTodoStore) List(ctx context.Context) ([]model.Todo, error) {
	args := m.Called(ctx)
	todos := args.Get(0)
	if todos == nil {
		return nil, args.Error(1)
	}
	return todos.([]model.Todo), args.Error(1)
}

func (m *MockTodoStore) NextOrder(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockTodoStore) Create(ctx context.Context, todo *model.Todo) error {
	args := m.Called(ctx, todo)
	return args.Error(0)
}

func (m *MockTodoStore) GetByID(ctx context.Context, id string) (*model.Todo, error) {
	args := m.Called(ctx, id)
	todo := args.Get(0)
	if todo == nil {
		return nil, args.Error(1)
	}
	return todo.(*model.Todo), args.Error(1)
}

func (m *MockTodoStore) Update(ctx context.Context, id string, patch model.TodoPatch) (*model.Todo, error) {
	args := m.Called(ctx, id, patch)
	todo := args.Get(0)
	if todo == nil {
		return nil, args.Error(1)
	}
	return todo.(*model.Todo), args.Error(1)
}

func (m *MockTodoStore) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTodoStore) UpdateOrder(ctx context.Context, updates []model.OrderUpdate) (int, error) {
	args := m.Called(ctx, updates)
	return args.Int(0), args.Error(1)
}

func setupTest(development bool) (*gin.Engine, *MockTodoStore) {
	gin.SetMode(gin.TestMode)
	logger := log.New()
	logger.SetOutput(io.Discard)

	r := gin.New()
	r.Use(middleware.ErrorHandler(development, logger))

	mockStore := new(MockTodoStore)
	h := handler.NewTodoHandler(mockStore)

	todos := r.Group("/api/todos")
	todos.GET("", h.List)
	todos.POST("", h.Create)
	todos.PUT("/reorder", h.Reorder)
	todos.GET("/:id", h.GetByID)
	todos.PUT("/:id", h.Update)
	todos.DELETE("/:id", h.Delete)
	return r, mockStore
}

func doJSON(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		buf = bytes.NewBufferString(b)
	default:
		jsonBody, _ := json.Marshal(b)
		buf = bytes.NewBuffer(jsonBody)
	}
	req, _ := http.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestList_Success(t *testing.T) {
	// Arrange
	router, mockStore := setupTest(false)
	todos := []model.Todo{
		{ID: uuid.NewString(), Title: "first", Order: 0},
		{ID: uuid.NewString(), Title: "second", Order: 1},
	}
	mockStore.On("List", mock.Anything).Return(todos, nil)

	// Act
	resp := doJSON(router, "GET", "/api/todos", nil)

	// Assert
	assert.Equal(t, http.StatusOK, resp.Code)

	var got []model.Todo
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
	assert.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Title)
	assert.Contains(t, resp.Body.String(), `"_id"`)
	mockStore.AssertExpectations(t)
}

func TestList_StoreFailure(t *testing.T) {
	router, mockStore := setupTest(false)
	mockStore.On("List", mock.Anything).Return(nil, errors.New("dial tcp: refused"))

	resp := doJSON(router, "GET", "/api/todos", nil)

	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.NotContains(t, resp.Body.String(), "refused")
	mockStore.AssertExpectations(t)
}

func TestCreate_AssignsNextOrder(t *testing.T) {
	// Arrange
	router, mockStore := setupTest(false)
	id := uuid.NewString()

	mockStore.On("NextOrder", mock.Anything).Return(4, nil)
	mockStore.On("Create", mock.Anything, mock.MatchedBy(func(todo *model.Todo) bool {
		return todo.Title == "Buy milk" && todo.Content == "2 liters" && todo.Order == 4 &&
			!todo.Completed && todo.DueDate != nil
	})).Run(func(args mock.Arguments) {
		todo := args.Get(1).(*model.Todo)
		todo.ID = id
		todo.CreatedAt = time.Now()
	}).Return(nil)

	// Act
	resp := doJSON(router, "POST", "/api/todos", map[string]any{
		"title":   "  Buy milk ",
		"content": "2 liters",
		"dueDate": "2026-10-20T18:30",
	})

	// Assert
	assert.Equal(t, http.StatusCreated, resp.Code)

	var got model.Todo
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
	assert.Equal(t, id, got.ID)
	assert.Equal(t, 4, got.Order)
	mockStore.AssertExpectations(t)
}

func TestCreate_EmptyCollectionStartsAtZero(t *testing.T) {
	router, mockStore := setupTest(false)

	mockStore.On("NextOrder", mock.Anything).Return(0, nil)
	mockStore.On("Create", mock.Anything, mock.MatchedBy(func(todo *model.Todo) bool {
		return todo.Order == 0 && todo.DueDate == nil
	})).Return(nil)

	resp := doJSON(router, "POST", "/api/todos", map[string]any{"title": "first", "dueDate": nil})

	assert.Equal(t, http.StatusCreated, resp.Code)
	mockStore.AssertExpectations(t)
}

func TestCreate_TitleRequired(t *testing.T) {
	router, mockStore := setupTest(false)

	for _, body := range []any{
		map[string]any{"content": "no title"},
		map[string]any{"title": "   "},
	} {
		resp := doJSON(router, "POST", "/api/todos", body)

		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Contains(t, resp.Body.String(), "Title is required")
	}
	mockStore.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreate_InvalidDueDate(t *testing.T) {
	router, mockStore := setupTest(false)

	resp := doJSON(router, "POST", "/api/todos", map[string]any{"title": "x", "dueDate": "next week"})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	mockStore.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestGetByID_NotFound(t *testing.T) {
	router, mockStore := setupTest(false)
	id := uuid.NewString()
	mockStore.On("GetByID", mock.Anything, id).Return(nil, repository.ErrTodoNotFound)

	resp := doJSON(router, "GET", "/api/todos/"+id, nil)

	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Contains(t, resp.Body.String(), "Todo not found")
}

func TestUpdate_ToggleCompleted(t *testing.T) {
	// Arrange
	router, mockStore := setupTest(false)
	id := uuid.NewString()
	completed := true
	updated := &model.Todo{ID: id, Title: "Buy milk", Completed: true}

	mockStore.On("Update", mock.Anything, id, model.TodoPatch{Completed: &completed}).Return(updated, nil)

	// Act
	resp := doJSON(router, "PUT", "/api/todos/"+id, map[string]any{"completed": true})

	// Assert
	assert.Equal(t, http.StatusOK, resp.Code)

	var got model.Todo
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
	assert.True(t, got.Completed)
	mockStore.AssertExpectations(t)
}

func TestUpdate_ClearDueDateAndTrim(t *testing.T) {
	router, mockStore := setupTest(false)
	id := uuid.NewString()

	mockStore.On("Update", mock.Anything, id, mock.MatchedBy(func(p model.TodoPatch) bool {
		return p.ClearDueDate && p.DueDate == nil && p.Title != nil && *p.Title == "edited" &&
			p.Content != nil && *p.Content == "" && p.Completed == nil
	})).Return(&model.Todo{ID: id, Title: "edited"}, nil)

	resp := doJSON(router, "PUT", "/api/todos/"+id, `{"title":" edited ","content":"  ","dueDate":null}`)

	assert.Equal(t, http.StatusOK, resp.Code)
	mockStore.AssertExpectations(t)
}

func TestUpdate_NotFound(t *testing.T) {
	router, mockStore := setupTest(false)
	id := uuid.NewString()
	mockStore.On("Update", mock.Anything, id, mock.Anything).Return(nil, repository.ErrTodoNotFound)

	resp := doJSON(router, "PUT", "/api/todos/"+id, map[string]any{"title": "x"})

	assert.Equal(t, http.StatusNotFound, resp.Code)
	mockStore.AssertExpectations(t)
}

func TestUpdate_BlankTitleRejected(t *testing.T) {
	router, mockStore := setupTest(false)

	resp := doJSON(router, "PUT", "/api/todos/"+uuid.NewString(), map[string]any{"title": ""})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	mockStore.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdate_InvalidID(t *testing.T) {
	router, mockStore := setupTest(false)

	resp := doJSON(router, "PUT", "/api/todos/not-a-uuid", map[string]any{"completed": true})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "Invalid todo ID format")
	mockStore.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestDelete_TwiceReportsNotFound(t *testing.T) {
	// Arrange
	router, mockStore := setupTest(false)
	id := uuid.NewString()
	mockStore.On("Delete", mock.Anything, id).Return(nil).Once()
	mockStore.On("Delete", mock.Anything, id).Return(repository.ErrTodoNotFound).Once()

	// Act
	first := doJSON(router, "DELETE", "/api/todos/"+id, nil)
	second := doJSON(router, "DELETE", "/api/todos/"+id, nil)

	// Assert
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Contains(t, first.Body.String(), "Todo deleted")
	assert.Equal(t, http.StatusNotFound, second.Code)
	mockStore.AssertExpectations(t)
}

func TestDelete_StoreFailureInDevelopment(t *testing.T) {
	router, mockStore := setupTest(true)
	id := uuid.NewString()
	mockStore.On("Delete", mock.Anything, id).Return(errors.New("socket closed"))

	resp := doJSON(router, "DELETE", "/api/todos/"+id, nil)

	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Contains(t, resp.Body.String(), "socket closed")
}

func TestReorder_Success(t *testing.T) {
	router, mockStore := setupTest(false)
	a, b := uuid.NewString(), uuid.NewString()
	updates := []model.OrderUpdate{{ID: a, Order: 0}, {ID: b, Order: 1}}
	mockStore.On("UpdateOrder", mock.Anything, updates).Return(2, nil)

	resp := doJSON(router, "PUT", "/api/todos/reorder", map[string]any{"todos": updates})

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "Order updated")
	mockStore.AssertExpectations(t)
}

func TestReorder_PartialFailureReportsApplied(t *testing.T) {
	router, mockStore := setupTest(false)
	updates := []model.OrderUpdate{
		{ID: uuid.NewString(), Order: 0},
		{ID: uuid.NewString(), Order: 1},
		{ID: uuid.NewString(), Order: 2},
	}
	mockStore.On("UpdateOrder", mock.Anything, updates).Return(1, errors.New("timeout"))

	resp := doJSON(router, "PUT", "/api/todos/reorder", map[string]any{"todos": updates})

	assert.Equal(t, http.StatusInternalServerError, resp.Code)

	var body handler.ReorderErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Applied)
	assert.Equal(t, 3, body.Total)
}

func TestReorder_InvalidBody(t *testing.T) {
	router, mockStore := setupTest(false)

	missing := doJSON(router, "PUT", "/api/todos/reorder", map[string]any{})
	badID := doJSON(router, "PUT", "/api/todos/reorder", map[string]any{
		"todos": []map[string]any{{"id": "42", "order": 0}},
	})

	assert.Equal(t, http.StatusBadRequest, missing.Code)
	assert.Equal(t, http.StatusBadRequest, badID.Code)
	mockStore.AssertNotCalled(t, "UpdateOrder", mock.Anything, mock.Anything)
}
