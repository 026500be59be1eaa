package apitest

import (
	"errors"
	"net/http"
	"strings"

	"dashboard/internal/api"
	"dashboard/internal/models"

	"golang.org/x/crypto/bcrypt"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in api.LoginRequest
	if err := decodeJSON(r, &in); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid json")
		return
	}
	email := strings.TrimSpace(strings.ToLower(in.Email))

	s.mu.Lock()
	a := s.findByEmail(email)
	var u models.User
	var hash string
	if a != nil {
		u, hash = a.user, a.passwordHash
	}
	s.mu.Unlock()

	if a == nil || bcrypt.CompareHashAndPassword([]byte(hash), []byte(in.Password)) != nil {
		errorJSON(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	s.respondAuth(w, http.StatusOK, u)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in api.RegisterRequest
	if err := decodeJSON(r, &in); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid json")
		return
	}
	u, err := s.AddUser(in.Username, in.Email, in.Password, models.RoleUser)
	switch {
	case errors.Is(err, ErrEmailTaken):
		errorJSON(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, ErrBadInput):
		errorJSON(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		errorJSON(w, http.StatusInternalServerError, "could not create user")
		return
	}
	s.respondAuth(w, http.StatusCreated, u)
}

func (s *Server) respondAuth(w http.ResponseWriter, status int, u models.User) {
	token, err := s.sign(u.ID)
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, "token error")
		return
	}
	writeJSON(w, status, api.AuthResponse{Username: u.Name, Email: u.Email, Role: u.Role, Token: token})
}
