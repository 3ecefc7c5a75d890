package client

import (
	"sort"
	"strings"

	"todo/internal/model"
)

type StatusFilter string

const (
	StatusAll       StatusFilter = "all"
	StatusCompleted StatusFilter = "completed"
	StatusActive    StatusFilter = "active"
)

type SortMode string

const (
	// SortCreated shows the newest todos first.
	SortCreated SortMode = "created"
	// SortDueDate orders todos by due date when both sides have one and
	// falls back to SortCreated otherwise.
	SortDueDate SortMode = "due-date"
	// SortManual keeps the drag-and-drop order.
	SortManual SortMode = "manual"
)

// ViewOptions are the list controls: status filter, search term and sort.
type ViewOptions struct {
	Status StatusFilter
	Search string
	Sort   SortMode
}

func ParseStatus(s string) StatusFilter {
	switch StatusFilter(s) {
	case StatusCompleted, StatusActive:
		return StatusFilter(s)
	}
	return StatusAll
}

func ParseSort(s string) SortMode {
	switch SortMode(s) {
	case SortDueDate, SortManual:
		return SortMode(s)
	}
	return SortCreated
}

// Visible runs the render pipeline over a copy of todos: status filter,
// case-insensitive content search, then sort.
func Visible(todos []model.Todo, opts ViewOptions) []model.Todo {
	out := make([]model.Todo, 0, len(todos))
	term := strings.ToLower(opts.Search)
	for _, todo := range todos {
		if !matchesStatus(todo, opts.Status) {
			continue
		}
		if term != "" && !strings.Contains(strings.ToLower(todo.Content), term) {
			continue
		}
		out = append(out, todo)
	}

	if opts.Sort == SortManual {
		return out
	}
	byDueDate := opts.Sort == SortDueDate
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if byDueDate && a.DueDate != nil && b.DueDate != nil {
			return a.DueDate.Before(*b.DueDate)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	return out
}

func matchesStatus(todo model.Todo, status StatusFilter) bool {
	switch status {
	case StatusCompleted:
		return todo.Completed
	case StatusActive:
		return !todo.Completed
	default:
		return true
	}
}
