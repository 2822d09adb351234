package domain

import (
	"context"
	"errors"
)

// Principal is the authenticated caller of the API: a chat bot process or an operator.
type Principal struct {
	Subject string
	Role    Role
}

// Role represents a caller's access level
type Role string

const (
	// RoleAdmin may adjust balances and run reconciliation
	RoleAdmin Role = "admin"

	// RoleService is the presentation layer acting on behalf of chat users
	RoleService Role = "service"
)

// IsValid checks if the role is a valid role
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleService
}

// Authentication errors
var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInsufficientRole = errors.New("insufficient role for this operation")
)

type principalKey struct{}

// ContextWithPrincipal attaches the caller to ctx.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the caller attached by the auth middleware.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok
}

// ActorFromContext names the caller for ledger notes, "system" when unauthenticated.
func ActorFromContext(ctx context.Context) string {
	if p, ok := PrincipalFromContext(ctx); ok && p.Subject != "" {
		return p.Subject
	}
	return "system"
}
