// Package session holds the logged-in user's role and email and decides which views they may reach.
package session

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Roles handed out by the backend. Any other string is accepted and treated as a non-admin role.
const (
	RoleAdmin = "admin"
	RoleTutor = "tutor"
)

type Session struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// New returns a Session with a fresh ID.
func New(role, email string) Session {
	return Session{
		ID:        uuid.New().String(),
		Role:      role,
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}
}

// LoggedIn reports whether a role is present.
func (s Session) LoggedIn() bool { return s.Role != "" }

func (s Session) IsAdmin() bool { return s.Role == RoleAdmin }

type (
	// Store persists one Session. Save overwrites role and email together; Clear removes both.
	Store interface {
		Save(Session) error
		Load() (Session, bool)
		Clear() error
	}

	// Provider binds a Store to a browser request.
	Provider interface {
		Store(w http.ResponseWriter, r *http.Request) Store
	}
)
