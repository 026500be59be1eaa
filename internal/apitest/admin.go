package apitest

import (
	"errors"
	"net/http"
	"strings"

	"dashboard/internal/models"

	"github.com/go-chi/chi/v5"
)

type userInput struct {
	models.User
	Password string `json:"password"`
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]models.User, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, a.user)
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var in userInput
	if err := decodeJSON(r, &in); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid json")
		return
	}
	if in.Password == "" {
		in.Password = "changeme"
	}
	u, err := s.AddUser(in.Name, in.Email, in.Password, in.Role)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, ErrEmailTaken) {
			status = http.StatusConflict
		}
		errorJSON(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var in models.User
	if err := decodeJSON(r, &in); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid json")
		return
	}
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.findByID(id)
	if a == nil {
		errorJSON(w, http.StatusNotFound, "user not found")
		return
	}
	if in.Name != "" {
		a.user.Name = strings.TrimSpace(in.Name)
	}
	if in.Role == models.RoleUser || in.Role == models.RoleAdmin {
		a.user.Role = in.Role
	}
	a.user.Avatar = in.Avatar
	writeJSON(w, http.StatusOK, a.user)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, a := range s.accounts {
		if a.user.ID == id {
			s.accounts = append(s.accounts[:i], s.accounts[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	errorJSON(w, http.StatusNotFound, "user not found")
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stats != nil {
		writeJSON(w, http.StatusOK, s.stats)
		return
	}

	active := make(map[string]bool)
	var revenue float64
	for _, t := range s.todos {
		active[t.UserID] = true
	}
	for _, e := range s.expenses {
		active[e.UserID] = true
		revenue += e.Amount
	}
	n := 0
	for _, a := range s.accounts {
		if active[a.user.ID] {
			n++
		}
	}
	writeJSON(w, http.StatusOK, models.AdminStats{
		TotalUsers:   len(s.accounts),
		ActiveUsers:  n,
		TotalRevenue: revenue,
	})
}
