package client

import (
	"testing"
	"time"

	"todo/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDueSoon(t *testing.T) {
	now := base
	todos := []model.Todo{
		{ID: "soon", Title: "t1", Content: "file taxes", DueDate: at(5 * time.Hour)},
		{ID: "far", Title: "t2", Content: "renew passport", DueDate: at(30 * time.Hour)},
		{ID: "done", Title: "t3", Content: "call mom", DueDate: at(5 * time.Hour), Completed: true},
		{ID: "past", Title: "t4", Content: "missed", DueDate: at(-time.Hour)},
		{ID: "none", Title: "t5", Content: "someday"},
	}

	got := DueSoon(todos, now)

	require.Len(t, got, 1)
	assert.Equal(t, "soon", got[0].TodoID)
	assert.Equal(t, 5, got[0].HoursLeft)
	assert.Contains(t, got[0].Message(), "5")
	assert.Contains(t, got[0].Message(), "file taxes")
}

func TestDueSoon_RoundsUpAndIncludesWindowEdge(t *testing.T) {
	todos := []model.Todo{
		{ID: "partial", Content: "x", DueDate: at(4*time.Hour + 12*time.Minute)},
		{ID: "edge", Content: "y", DueDate: at(24 * time.Hour)},
		{ID: "beyond", Content: "z", DueDate: at(24*time.Hour + time.Second)},
	}

	got := DueSoon(todos, base)

	require.Len(t, got, 2)
	assert.Equal(t, 5, got[0].HoursLeft)
	assert.Equal(t, 24, got[1].HoursLeft)
}

func TestDueSoon_FallsBackToTitle(t *testing.T) {
	todos := []model.Todo{{ID: "1", Title: "Buy milk", DueDate: at(time.Hour)}}

	got := DueSoon(todos, base)

	require.Len(t, got, 1)
	assert.Contains(t, got[0].Message(), "Buy milk")
}
