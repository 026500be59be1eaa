package views

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"dashboard/internal/api"
	"dashboard/internal/collection"
	"dashboard/internal/models"
)

// Todo status filter values.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

// TodoFilter selects which todos are visible.
type TodoFilter struct {
	Search   string
	Status   string // all, pending, completed
	Priority string // all, low, medium, high
}

// FilterTodos returns the todos matching every part of f, in mirror order.
func FilterTodos(todos []models.Todo, f TodoFilter) []models.Todo {
	return filterSlice(todos, func(t models.Todo) bool {
		if !matchesText(f.Search, t.Title, t.Description) {
			return false
		}
		switch f.Status {
		case StatusCompleted:
			if !t.Completed {
				return false
			}
		case StatusPending:
			if t.Completed {
				return false
			}
		}
		return matchesChoice(f.Priority, string(t.Priority))
	})
}

// Overdue reports whether t was due before the day of now and is still open.
func Overdue(t models.Todo, now time.Time) bool {
	if t.Completed {
		return false
	}
	due, ok := t.Due()
	if !ok {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return due.Before(today)
}

// TodoDraft is the add-todo form.
type TodoDraft struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Priority    models.Priority `json:"priority"`
	DueDate     string          `json:"dueDate"`
}

// NewTodoDraft returns an empty form with medium priority.
func NewTodoDraft() TodoDraft {
	return TodoDraft{Priority: models.PriorityMedium}
}

// TodoCounts summarizes a list of todos.
type TodoCounts struct {
	Total     int
	Completed int
	Pending   int
}

// CountTodos counts todos by completion.
func CountTodos(todos []models.Todo) TodoCounts {
	c := TodoCounts{Total: len(todos)}
	for _, t := range todos {
		if t.Completed {
			c.Completed++
		}
	}
	c.Pending = c.Total - c.Completed
	return c
}

// TodosView is the task list screen.
type TodosView struct {
	Mirror *collection.Mirror[models.Todo]
	Filter TodoFilter
	Draft  TodoDraft
}

// NewTodosView creates the view over the todos collection.
func NewTodosView(client collection.Fetcher, logger *log.Logger) *TodosView {
	return &TodosView{
		Mirror: NewTodoMirror(client, logger),
		Filter: TodoFilter{Status: All, Priority: All},
		Draft:  NewTodoDraft(),
	}
}

// NewTodoMirror creates a mirror of /api/todos.
func NewTodoMirror(client collection.Fetcher, logger *log.Logger) *collection.Mirror[models.Todo] {
	return collection.New("todos", api.TodosPath, func(t models.Todo) string { return t.ID }, client, logger)
}

// Visible returns the filtered todos.
func (v *TodosView) Visible() []models.Todo {
	return FilterTodos(v.Mirror.Items(), v.Filter)
}

// Counts summarizes the whole mirror.
func (v *TodosView) Counts() TodoCounts {
	return CountTodos(v.Mirror.Items())
}

// Submit creates a todo from the draft. The draft is reset only on success.
func (v *TodosView) Submit(ctx context.Context) (models.Todo, error) {
	return submitTodo(ctx, v.Mirror, &v.Draft)
}

func submitTodo(ctx context.Context, m *collection.Mirror[models.Todo], d *TodoDraft) (models.Todo, error) {
	if strings.TrimSpace(d.Title) == "" {
		return models.Todo{}, ErrEmptyTitle
	}
	in := *d
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}
	if in.DueDate == "" {
		in.DueDate = models.Today()
	}
	created, err := m.Create(ctx, in)
	if err != nil {
		return models.Todo{}, fmt.Errorf("%w: %w", ErrNotSaved, err)
	}
	*d = NewTodoDraft()
	return created, nil
}

// Toggle flips the completion flag of the todo with id.
func (v *TodosView) Toggle(ctx context.Context, id string) error {
	return toggleTodo(ctx, v.Mirror, id)
}

func toggleTodo(ctx context.Context, m *collection.Mirror[models.Todo], id string) error {
	t, ok := m.Find(id)
	if !ok {
		return fmt.Errorf("todo %s: %w", id, ErrUnknownItem)
	}
	t.Completed = !t.Completed
	return m.Update(ctx, t)
}

// Remove deletes the todo with id.
func (v *TodosView) Remove(ctx context.Context, id string) error {
	return v.Mirror.Delete(ctx, id)
}
