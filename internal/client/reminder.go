package client

import (
	"fmt"
	"math"
	"time"

	"todo/internal/model"
)

const (
	// ReminderWindow is how far ahead a due date triggers a reminder.
	ReminderWindow = 24 * time.Hour
	// ReminderInterval is the polling period of RunReminders.
	ReminderInterval = time.Minute
)

type Reminder struct {
	TodoID    string
	Label     string
	HoursLeft int
}

func (r Reminder) Message() string {
	return fmt.Sprintf("%q is due in %d hours", r.Label, r.HoursLeft)
}

// DueSoon returns a reminder for every incomplete todo due after now and
// within ReminderWindow. Hours are rounded up.
func DueSoon(todos []model.Todo, now time.Time) []Reminder {
	var out []Reminder
	for _, todo := range todos {
		if todo.Completed || todo.DueDate == nil {
			continue
		}
		left := todo.DueDate.Sub(now)
		if left <= 0 || left > ReminderWindow {
			continue
		}
		label := todo.Content
		if label == "" {
			label = todo.Title
		}
		out = append(out, Reminder{
			TodoID:    todo.ID,
			Label:     label,
			HoursLeft: int(math.Ceil(left.Hours())),
		})
	}
	return out
}
