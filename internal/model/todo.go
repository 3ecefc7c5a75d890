package model

import (
	"fmt"
	"strings"
	"time"
)

// Todo is the single persisted entity. The same struct is stored by the
// Postgres (gorm) and the MongoDB (bson) backends.
type Todo struct {
	ID        string     `gorm:"type:uuid;default:gen_random_uuid();primaryKey" bson:"_id" json:"_id"`
	Title     string     `gorm:"not null" bson:"title" json:"title"`
	Content   string     `gorm:"not null" bson:"content" json:"content"`
	Completed bool       `gorm:"not null" bson:"completed" json:"completed"`
	DueDate   *time.Time `bson:"dueDate,omitempty" json:"dueDate"`
	CreatedAt time.Time  `gorm:"autoCreateTime" bson:"createdAt" json:"createdAt"`
	Order     int        `gorm:"column:sort_order;not null;index" bson:"order" json:"order"`
}

// TodoPatch is a partial update. Nil fields are left untouched.
type TodoPatch struct {
	Title        *string
	Content      *string
	Completed    *bool
	DueDate      *time.Time
	ClearDueDate bool
	Order        *int
}

// Empty reports whether the patch changes nothing.
func (p TodoPatch) Empty() bool {
	return p.Title == nil && p.Content == nil && p.Completed == nil &&
		p.DueDate == nil && !p.ClearDueDate && p.Order == nil
}

// OrderUpdate sets the manual position of one todo.
type OrderUpdate struct {
	ID    string `json:"id" binding:"required"`
	Order int    `json:"order"`
}

var dueDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDueDate accepts RFC 3339 timestamps as well as the values produced by
// HTML date and datetime-local inputs. Zone-less values are read as local time.
func ParseDueDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dueDateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid due date %q", s)
}
