package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"todo/internal/model"
)

// TodoRepository stores todos in Postgres through gorm.
type TodoRepository struct {
	db *gorm.DB
}

func NewTodoRepository(db *gorm.DB) *TodoRepository {
	return &TodoRepository{db: db}
}

// List returns every todo by ascending order, newest first on ties
func (r *TodoRepository) List(ctx context.Context) ([]model.Todo, error) {
	todos := []model.Todo{}
	result := r.db.WithContext(ctx).Order("sort_order ASC").Order("created_at DESC").Find(&todos)
	if result.Error != nil {
		return nil, result.Error
	}
	return todos, nil
}

// NextOrder returns the current maximum order plus one, or 0 when the table is empty
func (r *TodoRepository) NextOrder(ctx context.Context) (int, error) {
	var maxOrder struct {
		Max *int
	}
	err := r.db.WithContext(ctx).Model(&model.Todo{}).
		Select("MAX(sort_order) AS max").
		Scan(&maxOrder).Error
	if err != nil {
		return 0, err
	}
	if maxOrder.Max == nil {
		return 0, nil
	}
	return *maxOrder.Max + 1, nil
}

// Create adds a new todo; the database assigns its id
func (r *TodoRepository) Create(ctx context.Context, todo *model.Todo) error {
	return r.db.WithContext(ctx).Create(todo).Error
}

// GetByID retrieves a todo by its ID
func (r *TodoRepository) GetByID(ctx context.Context, id string) (*model.Todo, error) {
	var todo model.Todo
	result := r.db.WithContext(ctx).First(&todo, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTodoNotFound
		}
		return nil, result.Error
	}
	return &todo, nil
}

// Update applies a partial update and returns the stored record
func (r *TodoRepository) Update(ctx context.Context, id string, patch model.TodoPatch) (*model.Todo, error) {
	if patch.Empty() {
		return r.GetByID(ctx, id)
	}

	result := r.db.WithContext(ctx).Model(&model.Todo{}).
		Where("id = ?", id).
		Updates(patchColumns(patch))
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrTodoNotFound
	}
	return r.GetByID(ctx, id)
}

// Delete removes a todo by its ID
func (r *TodoRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&model.Todo{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTodoNotFound
	}
	return nil
}

// UpdateOrder writes each order one statement at a time, without a surrounding
// transaction. Updates made before a failure stay committed; the returned count
// says how many were applied. Unknown ids are skipped.
func (r *TodoRepository) UpdateOrder(ctx context.Context, updates []model.OrderUpdate) (int, error) {
	applied := 0
	for _, u := range updates {
		err := r.db.WithContext(ctx).Model(&model.Todo{}).
			Where("id = ?", u.ID).
			Update("sort_order", u.Order).Error
		if err != nil {
			return applied, fmt.Errorf("update order of %s: %w", u.ID, err)
		}
		applied++
	}
	return applied, nil
}

func patchColumns(p model.TodoPatch) map[string]any {
	cols := map[string]any{}
	if p.Title != nil {
		cols["title"] = *p.Title
	}
	if p.Content != nil {
		cols["content"] = *p.Content
	}
	if p.Completed != nil {
		cols["completed"] = *p.Completed
	}
	if p.ClearDueDate {
		cols["due_date"] = nil
	} else if p.DueDate != nil {
		cols["due_date"] = *p.DueDate
	}
	if p.Order != nil {
		cols["sort_order"] = *p.Order
	}
	return cols
}
