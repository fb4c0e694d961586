package payroll

import (
	"context"
	"fmt"
	"strings"
)

// Actor is the authenticated caller, as established by the transport layer.
type Actor struct {
	ID   string
	Role string
}

type actorKey struct{}

// WithActor attaches the caller to ctx.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFrom returns the caller attached to ctx, if any.
func ActorFrom(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(Actor)
	return a, ok
}

// FinancialGate decides whether the caller may see pay figures for a company.
type FinancialGate interface {
	AuthorizeFinancial(ctx context.Context, companyID string) error
}

// RoleGate admits callers whose role is in Roles.
type RoleGate struct {
	Roles []string
}

// DefaultFinancialRoles may view pay figures unless configured otherwise.
var DefaultFinancialRoles = []string{"admin", "payroll"}

func NewRoleGate(roles ...string) RoleGate {
	if len(roles) == 0 {
		roles = DefaultFinancialRoles
	}
	return RoleGate{Roles: roles}
}

func (g RoleGate) AuthorizeFinancial(ctx context.Context, companyID string) error {
	actor, ok := ActorFrom(ctx)
	if !ok || actor.Role == "" {
		return fmt.Errorf("company %s: no caller role: %w", companyID, ErrForbidden)
	}
	for _, r := range g.Roles {
		if strings.EqualFold(r, actor.Role) {
			return nil
		}
	}
	return fmt.Errorf("company %s: role %q: %w", companyID, actor.Role, ErrForbidden)
}
