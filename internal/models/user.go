package models

import "encoding/json"

// Role of an account.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Identity is the signed-in user's display attributes cached on the client.
type Identity struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"role,omitempty"`
}

// IsAdmin reports whether the identity carries the admin role.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

// ParseIdentity decodes a persisted identity record. It rejects anything that
// is not a JSON object naming at least a username or an email.
func ParseIdentity(raw string) (*Identity, error) {
	if raw == "" || raw == "undefined" {
		return nil, ErrMalformedIdentity
	}
	var id Identity
	if err := json.Unmarshal([]byte(raw), &id); err != nil {
		return nil, ErrMalformedIdentity
	}
	if id.Username == "" && id.Email == "" {
		return nil, ErrMalformedIdentity
	}
	return &id, nil
}

// User represents an account as listed by the admin endpoints.
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
	Avatar string `json:"avatar,omitempty"`
}

// AdminStats is the payload of the admin statistics endpoint.
type AdminStats struct {
	TotalUsers   int     `json:"totalUsers"`
	ActiveUsers  int     `json:"activeUsers"`
	TotalRevenue float64 `json:"totalRevenue"`
	GrowthRate   float64 `json:"growthRate"`
}
