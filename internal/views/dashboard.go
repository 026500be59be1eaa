package views

import (
	"context"
	"log"

	"dashboard/internal/collection"
	"dashboard/internal/models"
)

// DashboardSummary holds the overview figures.
type DashboardSummary struct {
	Todos         TodoCounts
	TotalExpenses float64
}

// DashboardView is the overview screen: both collections, the headline
// figures and a quick-add form for todos.
type DashboardView struct {
	Todos    *collection.Mirror[models.Todo]
	Expenses *collection.Mirror[models.Expense]
	Draft    TodoDraft
}

// NewDashboardView creates the overview over both collections.
func NewDashboardView(client collection.Fetcher, logger *log.Logger) *DashboardView {
	return &DashboardView{
		Todos:    NewTodoMirror(client, logger),
		Expenses: NewExpenseMirror(client, logger),
		Draft:    NewTodoDraft(),
	}
}

// Mount fetches both collections once an identity is available.
func (v *DashboardView) Mount(ctx context.Context, src collection.Source) {
	v.Todos.Mount(ctx, src)
	v.Expenses.Mount(ctx, src)
}

// Unmount discards both mirrors.
func (v *DashboardView) Unmount() {
	v.Todos.Unmount()
	v.Expenses.Unmount()
}

// Summary computes the headline figures over the unfiltered mirrors.
func (v *DashboardView) Summary() DashboardSummary {
	return DashboardSummary{
		Todos:         CountTodos(v.Todos.Items()),
		TotalExpenses: Summarize(v.Expenses.Items()).Total,
	}
}

// RecentTodos returns the first five todos.
func (v *DashboardView) RecentTodos() []models.Todo {
	return head(v.Todos.Items(), 5)
}

// RecentExpenses returns the first three expenses.
func (v *DashboardView) RecentExpenses() []models.Expense {
	return head(v.Expenses.Items(), 3)
}

// Submit quick-adds a todo from the draft.
func (v *DashboardView) Submit(ctx context.Context) (models.Todo, error) {
	return submitTodo(ctx, v.Todos, &v.Draft)
}

// Toggle flips the completion flag of a todo.
func (v *DashboardView) Toggle(ctx context.Context, id string) error {
	return toggleTodo(ctx, v.Todos, id)
}

// RemoveTodo deletes a todo.
func (v *DashboardView) RemoveTodo(ctx context.Context, id string) error {
	return v.Todos.Delete(ctx, id)
}
