package api

import (
	"context"
	"net/http"

	"dashboard/internal/models"
)

// Collection endpoints.
const (
	TodosPath      = "/api/todos"
	ExpensesPath   = "/api/expenses"
	AdminUsersPath = "/api/admin/users"
	AdminStatsPath = "/api/admin/stats"
	LoginPath      = "/api/auth/login"
	RegisterPath   = "/api/auth/register"
)

// ItemPath returns the path of a single item in a collection.
func ItemPath(collection, id string) string {
	return collection + "/" + id
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by the login and register endpoints.
type AuthResponse struct {
	Username string      `json:"username"`
	Email    string      `json:"email"`
	Role     models.Role `json:"role,omitempty"`
	Token    string      `json:"token"`
}

// Identity builds the cached identity from the response.
func (r *AuthResponse) Identity() *models.Identity {
	return &models.Identity{Username: r.Username, Email: r.Email, Role: r.Role}
}

// Login authenticates with email and password.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.Do(ctx, http.MethodPost, LoginPath, LoginRequest{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account and returns its first credential.
func (c *Client) Register(ctx context.Context, username, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	body := RegisterRequest{Username: username, Email: email, Password: password}
	if err := c.Do(ctx, http.MethodPost, RegisterPath, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AdminStats fetches the admin statistics.
func (c *Client) AdminStats(ctx context.Context) (models.AdminStats, error) {
	var out models.AdminStats
	err := c.Do(ctx, http.MethodGet, AdminStatsPath, nil, &out)
	return out, err
}
