package client

import (
	"context"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"todo/internal/model"
)

// API is the subset of the REST API the app needs. APIClient implements it.
type API interface {
	List(ctx context.Context) ([]model.Todo, error)
	Create(ctx context.Context, todo NewTodo) (*model.Todo, error)
	Update(ctx context.Context, id string, update TodoUpdate) (*model.Todo, error)
	Delete(ctx context.Context, id string) error
	Reorder(ctx context.Context, updates []model.OrderUpdate) error
}

// App is the client state: a mirror of the server's todos, the single entry
// being edited and the notifications shown to the user.
//
// Network calls run without the lock held. Responses are merged into
// whatever the mirror holds when they arrive, so the last response wins.
type App struct {
	api    API
	notes  *Notifier
	logger *log.Logger

	mu        sync.Mutex
	todos     []model.Todo
	editingID string
}

func NewApp(api API, notes *Notifier, logger *log.Logger) *App {
	return &App{api: api, notes: notes, logger: logger}
}

// Load replaces the mirror with the server's list. On failure the mirror is
// left as it was. An edit of a record that no longer exists is dropped.
func (a *App) Load(ctx context.Context) error {
	todos, err := a.api.List(ctx)
	if err != nil {
		a.fail("Failed to load todos", err)
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.todos = todos
	if a.editingID != "" && !containsID(todos, a.editingID) {
		a.editingID = ""
	}
	return nil
}

// Create adds a todo. A blank title is ignored.
func (a *App) Create(ctx context.Context, todo NewTodo) error {
	todo.Title = strings.TrimSpace(todo.Title)
	todo.Content = strings.TrimSpace(todo.Content)
	if todo.Title == "" {
		return nil
	}

	created, err := a.api.Create(ctx, todo)
	if err != nil {
		a.fail("Failed to add todo", err)
		return err
	}

	a.mu.Lock()
	a.todos = append(a.todos, *created)
	a.mu.Unlock()
	a.notes.Push(KindSuccess, "Todo added")
	return nil
}

// Toggle flips the completed flag of a todo.
func (a *App) Toggle(ctx context.Context, id string) error {
	todo, ok := a.find(id)
	if !ok {
		return nil
	}

	completed := !todo.Completed
	updated, err := a.api.Update(ctx, id, TodoUpdate{Completed: &completed})
	if err != nil {
		a.fail("Failed to update status", err)
		return err
	}

	a.merge(*updated)
	a.notes.Push(KindSuccess, "Status updated")
	return nil
}

// BeginEdit puts id into edit state. Any other entry being edited is
// cancelled without saving.
func (a *App) BeginEdit(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, todo := range a.todos {
		if todo.ID == id {
			a.editingID = id
			return
		}
	}
}

func (a *App) CancelEdit(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.editingID == id {
		a.editingID = ""
	}
}

// SaveEdit commits an edit. A blank title abandons the edit without a request.
func (a *App) SaveEdit(ctx context.Context, id, title, content string) error {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" {
		a.CancelEdit(id)
		return nil
	}

	updated, err := a.api.Update(ctx, id, TodoUpdate{Title: &title, Content: &content})
	if err != nil {
		a.fail("Failed to save changes", err)
		return err
	}

	a.merge(*updated)
	a.CancelEdit(id)
	a.notes.Push(KindSuccess, "Changes saved")
	return nil
}

// Delete removes a todo once the user has confirmed.
func (a *App) Delete(ctx context.Context, id string, confirmed bool) error {
	if !confirmed {
		return nil
	}

	if err := a.api.Delete(ctx, id); err != nil {
		a.fail("Failed to delete todo", err)
		return err
	}

	a.mu.Lock()
	kept := a.todos[:0]
	for _, todo := range a.todos {
		if todo.ID != id {
			kept = append(kept, todo)
		}
	}
	a.todos = kept
	if a.editingID == id {
		a.editingID = ""
	}
	a.mu.Unlock()
	a.notes.Push(KindSuccess, "Todo deleted")
	return nil
}

// Reorder rearranges the mirror to follow ids, reusing the existing records,
// and sends each record's new position to the server. Unknown ids are
// ignored; records missing from ids keep their relative order at the end.
// Nothing is sent when every record already sits at its position.
func (a *App) Reorder(ctx context.Context, ids []string) error {
	a.mu.Lock()
	byID := make(map[string]int, len(a.todos))
	for i, todo := range a.todos {
		byID[todo.ID] = i
	}
	placed := make([]bool, len(a.todos))
	reordered := make([]model.Todo, 0, len(a.todos))
	for _, id := range ids {
		i, ok := byID[id]
		if !ok || placed[i] {
			continue
		}
		placed[i] = true
		reordered = append(reordered, a.todos[i])
	}
	for i, todo := range a.todos {
		if !placed[i] {
			reordered = append(reordered, todo)
		}
	}

	unchanged := true
	updates := make([]model.OrderUpdate, len(reordered))
	for i := range reordered {
		if reordered[i].ID != a.todos[i].ID || reordered[i].Order != i {
			unchanged = false
		}
		reordered[i].Order = i
		updates[i] = model.OrderUpdate{ID: reordered[i].ID, Order: i}
	}
	a.todos = reordered
	a.mu.Unlock()

	if unchanged {
		return nil
	}

	if err := a.api.Reorder(ctx, updates); err != nil {
		a.fail("Failed to save order", err)
		return err
	}
	return nil
}

// CheckReminders pushes a warning for every todo due within the next day.
// Repeated checks notify again for the same todo.
func (a *App) CheckReminders(now time.Time) []Reminder {
	reminders := DueSoon(a.Todos(), now)
	for _, r := range reminders {
		a.notes.Push(KindWarning, r.Message())
	}
	return reminders
}

// RunReminders reloads the list and checks immediately, then again every
// interval until ctx is done. A failed reload checks the previous list.
func (a *App) RunReminders(ctx context.Context, interval time.Duration) {
	_ = a.Load(ctx)
	a.CheckReminders(time.Now())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = a.Load(ctx)
			a.CheckReminders(time.Now())
		}
	}
}

// Todos returns a copy of the mirror in its current order.
func (a *App) Todos() []model.Todo {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]model.Todo(nil), a.todos...)
}

// View returns the filtered and sorted todos to render.
func (a *App) View(opts ViewOptions) []model.Todo {
	return Visible(a.Todos(), opts)
}

func (a *App) EditingID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.editingID
}

// Notify shows a message that did not come out of an API call.
func (a *App) Notify(kind Kind, message string) {
	a.notes.Push(kind, message)
}

func (a *App) Notifications() []Notification {
	return a.notes.Active()
}

func containsID(todos []model.Todo, id string) bool {
	for _, todo := range todos {
		if todo.ID == id {
			return true
		}
	}
	return false
}

func (a *App) find(id string) (model.Todo, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, todo := range a.todos {
		if todo.ID == id {
			return todo, true
		}
	}
	return model.Todo{}, false
}

// merge replaces the record with the same id. A record deleted meanwhile stays deleted.
func (a *App) merge(updated model.Todo) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.todos {
		if a.todos[i].ID == updated.ID {
			a.todos[i] = updated
			return
		}
	}
}

func (a *App) fail(message string, err error) {
	a.logger.WithError(err).Warn(message)
	a.notes.Push(KindError, message)
}
