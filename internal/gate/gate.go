// Package gate is the single authorization checkpoint. Instead of re-deriving
// "is admin or employee" conditions at every boundary, the acting user's role
// resolves once to one of four fixed policies (customer, supplier, courier,
// staff); every operation then asks that policy whether the action is allowed
// on the concrete resource.
package gate

import (
	"context"

	"github.com/printdesk/printdesk/internal/identity"
	"github.com/printdesk/printdesk/internal/models"
)

// Policy defines what one role may do. Implementations check whether the
// actor may perform action on resource; resource may be nil for actions that
// are not tied to a specific row (create, list).
type Policy interface {
	Can(ctx context.Context, actor identity.Actor, action Action, resource any) bool
}

// Gate resolves a role to its policy and answers authorization questions.
type Gate struct {
	policies map[identity.Role]Policy
}

// New builds the gate with the four fixed role policies registered.
func New() *Gate {
	return &Gate{policies: map[identity.Role]Policy{
		identity.RoleCustomer: customerPolicy{},
		identity.RoleSupplier: supplierPolicy{},
		identity.RoleCourier:  courierPolicy{},
		identity.RoleStaff:    staffPolicy{},
	}}
}

// Resolve returns the fixed policy for a role, or nil for unknown roles.
func (g *Gate) Resolve(role identity.Role) Policy {
	return g.policies[role]
}

// Authorize returns ErrUnauthorized unless the actor's policy allows the
// action on the resource.
func (g *Gate) Authorize(ctx context.Context, actor identity.Actor, action Action, resource any) error {
	if actor.ID == 0 {
		return models.ErrUnauthorized
	}
	p := g.Resolve(actor.Role)
	if p == nil || !p.Can(ctx, actor, action, resource) {
		return models.ErrUnauthorized
	}
	return nil
}

// Can is a convenience wrapper returning bool instead of error.
func (g *Gate) Can(ctx context.Context, actor identity.Actor, action Action, resource any) bool {
	return g.Authorize(ctx, actor, action, resource) == nil
}
