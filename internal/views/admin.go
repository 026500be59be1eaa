package views

import (
	"context"
	"fmt"
	"log"
	"sync"

	"dashboard/internal/api"
	"dashboard/internal/collection"
	"dashboard/internal/models"
)

// StatsFetcher loads the admin statistics. api.Client satisfies it.
type StatsFetcher interface {
	collection.Fetcher
	AdminStats(ctx context.Context) (models.AdminStats, error)
}

// UserFilter selects which users are visible.
type UserFilter struct {
	Search string
	Role   string // all, user, admin
}

// FilterUsers returns the users matching every part of f.
func FilterUsers(users []models.User, f UserFilter) []models.User {
	return filterSlice(users, func(u models.User) bool {
		return matchesText(f.Search, u.Name, u.Email) && matchesChoice(f.Role, string(u.Role))
	})
}

// AdminView is the admin dashboard and user management screen.
type AdminView struct {
	Users  *collection.Mirror[models.User]
	Filter UserFilter

	client StatsFetcher
	logger *log.Logger

	mu    sync.Mutex
	stats models.AdminStats
}

// NewAdminView creates the admin view.
func NewAdminView(client StatsFetcher, logger *log.Logger) *AdminView {
	if logger == nil {
		logger = log.Default()
	}
	return &AdminView{
		Users:  collection.New("admin", api.AdminUsersPath, func(u models.User) string { return u.ID }, client, logger),
		Filter: UserFilter{Role: All},
		client: client,
		logger: logger,
	}
}

// Load fetches users then stats. It does not wait for an identity. A failed
// stats call keeps the previous figures.
func (v *AdminView) Load(ctx context.Context) {
	_ = v.Users.Load(ctx)

	st, err := v.client.AdminStats(ctx)
	if err != nil {
		v.logger.Printf("[admin] error fetching stats: %v", err)
		return
	}
	v.mu.Lock()
	v.stats = st
	v.mu.Unlock()
}

// Stats returns the last fetched statistics.
func (v *AdminView) Stats() models.AdminStats {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.stats
}

// Visible returns the filtered users.
func (v *AdminView) Visible() []models.User {
	return FilterUsers(v.Users.Items(), v.Filter)
}

// Recent returns the first five users.
func (v *AdminView) Recent() []models.User {
	return head(v.Users.Items(), 5)
}

// NewUser is the body of an admin account creation.
type NewUser struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password,omitempty"`
	Role     models.Role `json:"role"`
}

// Add creates an account and prepends it to the user list.
func (v *AdminView) Add(ctx context.Context, in NewUser) (models.User, error) {
	if in.Role == "" {
		in.Role = models.RoleUser
	}
	return v.Users.Create(ctx, in)
}

// SetRole changes a user's role.
func (v *AdminView) SetRole(ctx context.Context, id string, role models.Role) error {
	u, ok := v.Users.Find(id)
	if !ok {
		return fmt.Errorf("user %s: %w", id, ErrUnknownItem)
	}
	u.Role = role
	return v.Users.Update(ctx, u)
}

// Remove deletes the user with id.
func (v *AdminView) Remove(ctx context.Context, id string) error {
	return v.Users.Delete(ctx, id)
}
