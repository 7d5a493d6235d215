// Package auth resolves caller identity at the service boundary.
//
// Every request carries a bearer credential which resolves into exactly
// one of three states: a trusted internal backend, an admin user session
// or rejected. All authorization decisions dispatch on that resolved
// state, never on the raw credential.
package auth

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Kind int

const (
	Rejected Kind = iota
	Internal
	AdminUser
)

func (k Kind) String() string {
	return [...]string{"rejected", "internal", "admin"}[k]
}

// Caller is the resolved identity of a request.
type Caller struct {
	Kind   Kind
	UserID string
	Roles  []string
}

// Authorized reports whether the caller may reach the key pool at all.
func (c Caller) Authorized() bool {
	return c.Kind == Internal || c.Kind == AdminUser
}

func (c Caller) IsInternal() bool {
	return c.Kind == Internal
}

const RoleAdmin = "admin"

// Session is a dashboard login session. Sessions are created by the
// out-of-scope login flow; this service only reads them.
type Session struct {
	Token     string    `json:"-" gorm:"primaryKey"`
	UserID    string    `json:"userId" gorm:"index"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Session) TableName() string {
	return "sessions"
}

func (s *Session) Expired() bool {
	return time.Now().After(s.ExpiresAt)
}

// UserRole is one role grant for one user.
type UserRole struct {
	ID        int            `json:"-" gorm:"primaryKey"`
	UserID    string         `json:"userId" gorm:"index"`
	Role      string         `json:"role"`
	CreatedAt time.Time      `json:"createdAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (UserRole) TableName() string {
	return "user_roles"
}

type contextKey int

const callerKey contextKey = 0

// WithCaller stores the resolved caller in the request context.
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey, c)
}

// CallerFromContext returns the resolved caller, if any.
func CallerFromContext(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(callerKey).(Caller)
	return c, ok
}
