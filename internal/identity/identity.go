// Package identity carries the acting user through the request context.
// Authentication itself happens in an upstream collaborator (gateway/session
// service); this service trusts the resolved identity headers it forwards.
package identity

import (
	"context"
	"net/http"
	"strconv"
)

// Role is one of the four fixed parties of the brokerage. Admins are staff
// with the Admin flag set.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleSupplier Role = "supplier"
	RoleCourier  Role = "courier"
	RoleStaff    Role = "staff"
)

// Actor is the acting user for one request.
type Actor struct {
	ID    uint
	Role  Role
	Admin bool
}

type ctxKey string

const actorCtxKey = ctxKey("actor")

// Header names the identity collaborator sets.
const (
	HeaderActorID   = "X-Actor-Id"
	HeaderActorRole = "X-Actor-Role"
)

// WithActor stores the actor in context.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorCtxKey, a)
}

// FromContext extracts the actor.
func FromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorCtxKey).(Actor)
	return a, ok
}

// ParseRequest reads the identity headers. "admin" resolves to staff with the
// Admin flag so downstream code deals with exactly four policies.
func ParseRequest(r *http.Request) (Actor, bool) {
	id64, err := strconv.ParseUint(r.Header.Get(HeaderActorID), 10, 64)
	if err != nil || id64 == 0 {
		return Actor{}, false
	}
	switch Role(r.Header.Get(HeaderActorRole)) {
	case RoleCustomer:
		return Actor{ID: uint(id64), Role: RoleCustomer}, true
	case RoleSupplier:
		return Actor{ID: uint(id64), Role: RoleSupplier}, true
	case RoleCourier:
		return Actor{ID: uint(id64), Role: RoleCourier}, true
	case RoleStaff:
		return Actor{ID: uint(id64), Role: RoleStaff}, true
	case Role("admin"):
		return Actor{ID: uint(id64), Role: RoleStaff, Admin: true}, true
	}
	return Actor{}, false
}

// Middleware resolves the actor once per request and stores it in context.
// Requests without a resolvable identity pass through with no actor; each
// operation's policy decides whether that is acceptable.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a, ok := ParseRequest(r); ok {
			r = r.WithContext(WithActor(r.Context(), a))
		}
		next.ServeHTTP(w, r)
	})
}
