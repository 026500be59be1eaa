// Package apitest is an in-memory implementation of the dashboard HTTP API.
// Tests and cmd/devapi serve it; it is not a production backend.
package apitest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"dashboard/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken = errors.New("email already in use")
	ErrBadInput   = errors.New("username, email and password are required")
)

type account struct {
	user         models.User
	passwordHash string
}

type claims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

type ctxKey struct{}

// Server holds the fake API state.
type Server struct {
	secret   []byte
	tokenTTL time.Duration

	mu       sync.Mutex
	accounts []*account
	todos    []models.Todo
	expenses []models.Expense
	stats    *models.AdminStats
	failures map[string]int
	requests []string
}

// New creates an empty server that signs tokens with secret.
func New(secret string) *Server {
	return &Server{
		secret:   []byte(secret),
		tokenTTL: 24 * time.Hour,
		failures: make(map[string]int),
	}
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.recordAndFail)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/register", s.handleRegister)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Get("/todos", s.handleListTodos)
			r.Post("/todos", s.handleCreateTodo)
			r.Put("/todos/{id}", s.handleUpdateTodo)
			r.Delete("/todos/{id}", s.handleDeleteTodo)

			r.Get("/expenses", s.handleListExpenses)
			r.Post("/expenses", s.handleCreateExpense)
			r.Put("/expenses/{id}", s.handleUpdateExpense)
			r.Delete("/expenses/{id}", s.handleDeleteExpense)

			r.Route("/admin", func(r chi.Router) {
				r.Use(requireAdmin)
				r.Get("/users", s.handleListUsers)
				r.Post("/users", s.handleCreateUser)
				r.Put("/users/{id}", s.handleUpdateUser)
				r.Delete("/users/{id}", s.handleDeleteUser)
				r.Get("/stats", s.handleStats)
			})
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	return r
}

// Fail makes every request matching method and exact path answer with status.
func (s *Server) Fail(method, path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = status
}

// Recover clears all injected failures.
func (s *Server) Recover() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = make(map[string]int)
}

// Requests lists "METHOD path" of every request received, in order.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// SetStats fixes the payload of the stats endpoint.
func (s *Server) SetStats(st models.AdminStats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = &st
}

func (s *Server) recordAndFail(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		s.mu.Lock()
		s.requests = append(s.requests, key)
		status, fail := s.failures[key]
		s.mu.Unlock()

		if fail {
			http.Error(w, http.StatusText(status), status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AddUser creates an account directly.
func (s *Server) AddUser(name, email, password string, role models.Role) (models.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(strings.ToLower(email))
	if name == "" || email == "" || password == "" {
		return models.User{}, ErrBadInput
	}
	if role == "" {
		role = models.RoleUser
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return models.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findByEmail(email) != nil {
		return models.User{}, ErrEmailTaken
	}
	a := &account{
		user:         models.User{ID: uuid.NewString(), Name: name, Email: email, Role: role},
		passwordHash: string(hash),
	}
	s.accounts = append(s.accounts, a)
	return a.user, nil
}

// Token signs a credential for the account with the given email.
func (s *Server) Token(email string) (string, error) {
	s.mu.Lock()
	a := s.findByEmail(strings.ToLower(email))
	s.mu.Unlock()
	if a == nil {
		return "", errors.New("no such user")
	}
	return s.sign(a.user.ID)
}

func (s *Server) findByEmail(email string) *account {
	for _, a := range s.accounts {
		if a.user.Email == email {
			return a
		}
	}
	return nil
}

func (s *Server) findByID(id string) *account {
	for _, a := range s.accounts {
		if a.user.ID == id {
			return a
		}
	}
	return nil
}

func (s *Server) sign(userID string) (string, error) {
	now := time.Now()
	c := &claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
}

func (s *Server) parse(token string) (*claims, error) {
	var c claims
	tok, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, errors.New("invalid token")
	}
	return &c, nil
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(h, "Bearer ")
		if !ok || token == "" {
			errorJSON(w, http.StatusUnauthorized, "missing authorization header")
			return
		}
		c, err := s.parse(token)
		if err != nil {
			errorJSON(w, http.StatusUnauthorized, "invalid token")
			return
		}

		s.mu.Lock()
		a := s.findByID(c.UserID)
		var u models.User
		if a != nil {
			u = a.user
		}
		s.mu.Unlock()
		if a == nil {
			errorJSON(w, http.StatusUnauthorized, "unknown user")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, u)))
	})
}

func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if currentUser(r).Role != models.RoleAdmin {
			errorJSON(w, http.StatusForbidden, "admin only")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func currentUser(r *http.Request) models.User {
	u, _ := r.Context().Value(ctxKey{}).(models.User)
	return u
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func errorJSON(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
