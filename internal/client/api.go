package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"todo/internal/model"
)

// NewTodo is the body of a create request.
type NewTodo struct {
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Completed bool       `json:"completed"`
	DueDate   *time.Time `json:"dueDate"`
}

// TodoUpdate is a partial update; nil fields are not sent.
type TodoUpdate struct {
	Title     *string `json:"title,omitempty"`
	Content   *string `json:"content,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

// APIError is a non-2xx answer from the todo API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("todo api: %d %s", e.Status, e.Message)
}

// APIClient talks JSON to the todo REST API rooted at an absolute base URL,
// e.g. http://localhost:3000/api/todos.
type APIClient struct {
	BaseURL string
	HTTP    *http.Client
}

func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *APIClient) List(ctx context.Context) ([]model.Todo, error) {
	var todos []model.Todo
	if err := c.do(ctx, http.MethodGet, "", nil, &todos); err != nil {
		return nil, err
	}
	return todos, nil
}

func (c *APIClient) Create(ctx context.Context, todo NewTodo) (*model.Todo, error) {
	var created model.Todo
	if err := c.do(ctx, http.MethodPost, "", todo, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *APIClient) Update(ctx context.Context, id string, update TodoUpdate) (*model.Todo, error) {
	var updated model.Todo
	if err := c.do(ctx, http.MethodPut, "/"+id, update, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *APIClient) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/"+id, nil, nil)
}

func (c *APIClient) Reorder(ctx context.Context, updates []model.OrderUpdate) error {
	body := struct {
		Todos []model.OrderUpdate `json:"todos"`
	}{Todos: updates}
	return c.do(ctx, http.MethodPut, "/reorder", body, nil)
}

func (c *APIClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf := new(bytes.Buffer)
		if err := json.NewEncoder(buf).Encode(body); err != nil {
			return err
		}
		reader = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeAPIError(resp *http.Response) error {
	var body struct {
		Error   any    `json:"error"`
		Message string `json:"message"`
	}
	apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return apiErr
	}
	if msg, ok := body.Error.(string); ok && msg != "" {
		apiErr.Message = msg
	} else if body.Message != "" {
		apiErr.Message = body.Message
	}
	return apiErr
}
