package apitest

import (
	"net/http"
	"strings"

	"dashboard/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// SeedTodo stores t for the account with the given email. An empty ID is generated.
func (s *Server) SeedTodo(email string, t models.Todo) models.Todo {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a := s.findByEmail(strings.ToLower(email)); a != nil {
		t.UserID = a.user.ID
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt == "" {
		t.CreatedAt = timestamp()
	}
	s.todos = append(s.todos, t)
	return t
}

// SeedExpense stores e for the account with the given email. An empty ID is generated.
func (s *Server) SeedExpense(email string, e models.Expense) models.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a := s.findByEmail(strings.ToLower(email)); a != nil {
		e.UserID = a.user.ID
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt == "" {
		e.CreatedAt = timestamp()
	}
	s.expenses = append(s.expenses, e)
	return e
}

// TodosOf returns the stored todos of a user, oldest first.
func (s *Server) TodosOf(userID string) []models.Todo {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Todo
	for _, t := range s.todos {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out
}

// ExpensesOf returns the stored expenses of a user, oldest first.
func (s *Server) ExpensesOf(userID string) []models.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Expense
	for _, e := range s.expenses {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out
}

func (s *Server) handleListTodos(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)
	out := s.TodosOf(u.ID)
	if out == nil {
		out = []models.Todo{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateTodo(w http.ResponseWriter, r *http.Request) {
	var in models.Todo
	if err := decodeJSON(r, &in); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(in.Title) == "" {
		errorJSON(w, http.StatusBadRequest, "title is required")
		return
	}
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}
	in.ID = uuid.NewString()
	in.UserID = currentUser(r).ID
	in.CreatedAt = timestamp()
	in.Completed = false

	s.mu.Lock()
	s.todos = append(s.todos, in)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, in)
}

func (s *Server) handleUpdateTodo(w http.ResponseWriter, r *http.Request) {
	var in models.Todo
	if err := decodeJSON(r, &in); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid json")
		return
	}
	id := chi.URLParam(r, "id")
	uid := currentUser(r).ID

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.todos {
		if t.ID == id && t.UserID == uid {
			in.ID, in.UserID, in.CreatedAt = t.ID, t.UserID, t.CreatedAt
			s.todos[i] = in
			writeJSON(w, http.StatusOK, in)
			return
		}
	}
	errorJSON(w, http.StatusNotFound, "todo not found")
}

func (s *Server) handleDeleteTodo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	uid := currentUser(r).ID

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.todos {
		if t.ID == id && t.UserID == uid {
			s.todos = append(s.todos[:i], s.todos[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	errorJSON(w, http.StatusNotFound, "todo not found")
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	out := s.ExpensesOf(currentUser(r).ID)
	if out == nil {
		out = []models.Expense{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var in models.Expense
	if err := decodeJSON(r, &in); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(in.Title) == "" {
		errorJSON(w, http.StatusBadRequest, "title is required")
		return
	}
	in.ID = uuid.NewString()
	in.UserID = currentUser(r).ID
	in.CreatedAt = timestamp()
	if in.Date == "" {
		in.Date = models.Today()
	}

	s.mu.Lock()
	s.expenses = append(s.expenses, in)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, in)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var in models.Expense
	if err := decodeJSON(r, &in); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid json")
		return
	}
	id := chi.URLParam(r, "id")
	uid := currentUser(r).ID

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.expenses {
		if e.ID == id && e.UserID == uid {
			in.ID, in.UserID, in.CreatedAt = e.ID, e.UserID, e.CreatedAt
			s.expenses[i] = in
			writeJSON(w, http.StatusOK, in)
			return
		}
	}
	errorJSON(w, http.StatusNotFound, "expense not found")
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	uid := currentUser(r).ID

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.expenses {
		if e.ID == id && e.UserID == uid {
			s.expenses = append(s.expenses[:i], s.expenses[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	errorJSON(w, http.StatusNotFound, "expense not found")
}
