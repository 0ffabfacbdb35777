package gate

import (
	"testing"

	"github.com/printdesk/printdesk/internal/identity"
	"github.com/printdesk/printdesk/internal/models"
)

func TestAuthorizeRejectsAnonymous(t *testing.T) {
	g := New()
	if err := g.Authorize(t.Context(), identity.Actor{}, ActionCreateQuote, nil); err != models.ErrUnauthorized {
		t.Fatalf("expected ErrUnauthorized got %v", err)
	}
}

func TestAuthorizeRejectsUnknownRole(t *testing.T) {
	g := New()
	actor := identity.Actor{ID: 1, Role: identity.Role("intern")}
	if err := g.Authorize(t.Context(), actor, ActionCreateQuote, nil); err != models.ErrUnauthorized {
		t.Fatalf("expected ErrUnauthorized got %v", err)
	}
}

func TestCustomerPolicyOwnership(t *testing.T) {
	g := New()
	owner := identity.Actor{ID: 10, Role: identity.RoleCustomer}
	stranger := identity.Actor{ID: 11, Role: identity.RoleCustomer}
	quote := &models.Quote{ID: 1, CustomerID: 10}

	if !g.Can(t.Context(), owner, ActionApproveQuote, quote) {
		t.Fatal("owner must approve their quote")
	}
	if g.Can(t.Context(), stranger, ActionApproveQuote, quote) {
		t.Fatal("stranger must not approve a foreign quote")
	}
	if g.Can(t.Context(), owner, ActionPriceQuote, nil) {
		t.Fatal("customers do not price quotes")
	}
	if g.Can(t.Context(), owner, ActionAssign, nil) {
		t.Fatal("customers do not assign suppliers")
	}
}

func TestSupplierPolicyOwnership(t *testing.T) {
	g := New()
	assignee := identity.Actor{ID: 20, Role: identity.RoleSupplier}
	other := identity.Actor{ID: 21, Role: identity.RoleSupplier}
	job := &models.SupplierJob{ID: 1, SupplierID: 20}

	if !g.Can(t.Context(), assignee, ActionAcceptJob, job) {
		t.Fatal("assignee must accept their job")
	}
	if g.Can(t.Context(), other, ActionAcceptJob, job) {
		t.Fatal("another supplier must not accept the job")
	}
	if g.Can(t.Context(), assignee, ActionPickupJob, job) {
		t.Fatal("suppliers do not pick up jobs")
	}
	if g.Can(t.Context(), assignee, ActionCreateQuote, nil) {
		t.Fatal("suppliers do not open quotes")
	}
}

func TestCourierPolicy(t *testing.T) {
	g := New()
	courier := identity.Actor{ID: 30, Role: identity.RoleCourier}
	job := &models.SupplierJob{ID: 1, SupplierID: 20}

	// couriers are not pre-assigned: any courier may run any job
	if !g.Can(t.Context(), courier, ActionPickupJob, job) {
		t.Fatal("courier must pick up a job")
	}
	if !g.Can(t.Context(), courier, ActionDeliverJob, job) {
		t.Fatal("courier must deliver a job")
	}
	if g.Can(t.Context(), courier, ActionCancelJob, nil) {
		t.Fatal("couriers do not cancel jobs")
	}
}

func TestStaffPolicy(t *testing.T) {
	g := New()
	staff := identity.Actor{ID: 40, Role: identity.RoleStaff}
	admin := identity.Actor{ID: 41, Role: identity.RoleStaff, Admin: true}
	quote := &models.Quote{ID: 1, CustomerID: 10}

	if !g.Can(t.Context(), staff, ActionPriceQuote, nil) {
		t.Fatal("staff price quotes")
	}
	if !g.Can(t.Context(), staff, ActionCancelJob, nil) {
		t.Fatal("staff cancel jobs")
	}
	if !g.Can(t.Context(), staff, ActionAcceptJob, &models.SupplierJob{SupplierID: 20}) {
		t.Fatal("staff may act on a supplier's behalf")
	}
	// the customer alone decides on their quote
	if g.Can(t.Context(), staff, ActionApproveQuote, quote) {
		t.Fatal("staff must not approve for the customer")
	}
	if g.Can(t.Context(), staff, ActionRejectQuote, quote) {
		t.Fatal("staff must not reject for the customer")
	}
	// weight edits need the admin flag
	if g.Can(t.Context(), staff, ActionUpdateWeights, nil) {
		t.Fatal("plain staff must not edit weights")
	}
	if !g.Can(t.Context(), admin, ActionUpdateWeights, nil) {
		t.Fatal("admin must edit weights")
	}
}
