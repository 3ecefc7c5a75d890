package web

import (
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"todo/internal/client"
	"todo/internal/model"

	"github.com/gin-gonic/gin"
)

const dueLayout = "Jan 2, 2006 15:04"

// PageHandler renders the todo page and turns form posts into App calls.
// Failed calls are already reported as notifications by App, so every
// action ends with a redirect back to the page.
type PageHandler struct {
	app *client.App
}

func NewPageHandler(app *client.App) *PageHandler {
	return &PageHandler{app: app}
}

type option struct {
	Value    string
	Label    string
	Selected bool
}

type todoView struct {
	model.Todo
	Editing  bool
	DueLabel string
}

type pageData struct {
	Todos         []todoView
	Options       client.ViewOptions
	Query         template.URL
	StatusOptions []option
	SortOptions   []option
	Notifications []client.Notification
}

type reorderRequest struct {
	IDs []string `json:"ids" binding:"required"`
}

// Index reloads the list from the API before rendering, so changes made
// elsewhere show up. A failed reload renders the previous list.
func (h *PageHandler) Index(c *gin.Context) {
	_ = h.app.Load(c.Request.Context())

	opts := viewOptions(c.Request.URL.Query())
	editing := h.app.EditingID()

	todos := h.app.View(opts)
	views := make([]todoView, 0, len(todos))
	for _, todo := range todos {
		v := todoView{Todo: todo, Editing: todo.ID == editing}
		if todo.DueDate != nil {
			v.DueLabel = todo.DueDate.Local().Format(dueLayout)
		}
		views = append(views, v)
	}

	c.HTML(http.StatusOK, "index.html", pageData{
		Todos:   views,
		Options: opts,
		Query:   controlsQuery(opts),
		StatusOptions: []option{
			{Value: string(client.StatusAll), Label: "All", Selected: opts.Status == client.StatusAll},
			{Value: string(client.StatusActive), Label: "Active", Selected: opts.Status == client.StatusActive},
			{Value: string(client.StatusCompleted), Label: "Completed", Selected: opts.Status == client.StatusCompleted},
		},
		SortOptions: []option{
			{Value: string(client.SortCreated), Label: "Newest first", Selected: opts.Sort == client.SortCreated},
			{Value: string(client.SortDueDate), Label: "Due date", Selected: opts.Sort == client.SortDueDate},
			{Value: string(client.SortManual), Label: "My order", Selected: opts.Sort == client.SortManual},
		},
		Notifications: h.app.Notifications(),
	})
}

// Notifications lists the active notifications. With ?after=<id> only newer
// ones are returned.
func (h *PageHandler) Notifications(c *gin.Context) {
	after, err := strconv.ParseInt(c.DefaultQuery("after", "0"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid after"})
		return
	}

	notes := []client.Notification{}
	for _, note := range h.app.Notifications() {
		if note.ID > after {
			notes = append(notes, note)
		}
	}
	c.JSON(http.StatusOK, notes)
}

func (h *PageHandler) Create(c *gin.Context) {
	todo := client.NewTodo{
		Title:   c.PostForm("title"),
		Content: c.PostForm("content"),
	}
	if raw := strings.TrimSpace(c.PostForm("dueDate")); raw != "" {
		due, err := model.ParseDueDate(raw)
		if err != nil {
			h.app.Notify(client.KindError, "Invalid due date")
			back(c)
			return
		}
		todo.DueDate = &due
	}

	_ = h.app.Create(c.Request.Context(), todo)
	back(c)
}

func (h *PageHandler) Toggle(c *gin.Context) {
	_ = h.app.Toggle(c.Request.Context(), c.Param("id"))
	back(c)
}

func (h *PageHandler) Edit(c *gin.Context) {
	h.app.BeginEdit(c.Param("id"))
	back(c)
}

func (h *PageHandler) Save(c *gin.Context) {
	_ = h.app.SaveEdit(c.Request.Context(), c.Param("id"), c.PostForm("title"), c.PostForm("content"))
	back(c)
}

func (h *PageHandler) Cancel(c *gin.Context) {
	h.app.CancelEdit(c.Param("id"))
	back(c)
}

// Delete only acts when the page confirmed it with confirm=yes.
func (h *PageHandler) Delete(c *gin.Context) {
	_ = h.app.Delete(c.Request.Context(), c.Param("id"), c.PostForm("confirm") == "yes")
	back(c)
}

func (h *PageHandler) Reorder(c *gin.Context) {
	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if err := h.app.Reorder(c.Request.Context(), req.IDs); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to save order"})
		return
	}
	c.Status(http.StatusNoContent)
}

func viewOptions(q url.Values) client.ViewOptions {
	return client.ViewOptions{
		Status: client.ParseStatus(q.Get("status")),
		Search: strings.TrimSpace(q.Get("q")),
		Sort:   client.ParseSort(q.Get("sort")),
	}
}

// controlsQuery encodes the non-default list controls as "?..." for form
// actions, or "" when everything is at its default.
func controlsQuery(opts client.ViewOptions) template.URL {
	q := url.Values{}
	if opts.Status != client.StatusAll {
		q.Set("status", string(opts.Status))
	}
	if opts.Sort != client.SortCreated {
		q.Set("sort", string(opts.Sort))
	}
	if opts.Search != "" {
		q.Set("q", opts.Search)
	}
	if len(q) == 0 {
		return ""
	}
	// Encode escapes every value, so the result is safe as a URL.
	return template.URL("?" + q.Encode())
}

// back redirects to the page with the list controls the form was posted from.
func back(c *gin.Context) {
	target := "/"
	if q := c.Request.URL.RawQuery; q != "" {
		target += "?" + q
	}
	c.Redirect(http.StatusSeeOther, target)
}
