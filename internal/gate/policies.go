package gate

import (
	"context"

	"github.com/printdesk/printdesk/internal/identity"
	"github.com/printdesk/printdesk/internal/models"
)

// ownQuote reports whether the resource is a quote belonging to the customer.
func ownQuote(actor identity.Actor, resource any) bool {
	q, ok := resource.(*models.Quote)
	return ok && q.CustomerID == actor.ID
}

// ownJob reports whether the resource is a job assigned to the supplier.
func ownJob(actor identity.Actor, resource any) bool {
	j, ok := resource.(*models.SupplierJob)
	return ok && j.SupplierID == actor.ID
}

// customerPolicy: customers request, approve and reject their own quotes and
// see their own data through the customer projection.
type customerPolicy struct{}

func (customerPolicy) Can(_ context.Context, actor identity.Actor, action Action, resource any) bool {
	switch action {
	case ActionCreateQuote:
		return true
	case ActionViewQuote, ActionApproveQuote, ActionRejectQuote, ActionAddAttachment, ActionViewAttachments:
		return resource == nil || ownQuote(actor, resource)
	}
	return false
}

// supplierPolicy: suppliers act only on jobs assigned to them.
type supplierPolicy struct{}

func (supplierPolicy) Can(_ context.Context, actor identity.Actor, action Action, resource any) bool {
	switch action {
	case ActionViewJob, ActionAcceptJob, ActionReadyJob, ActionViewAttachments:
		return resource == nil || ownJob(actor, resource)
	}
	return false
}

// courierPolicy: couriers move any job that is physically ready; jobs are not
// pre-assigned to a courier, the stamping records who handled it.
type courierPolicy struct{}

func (courierPolicy) Can(_ context.Context, _ identity.Actor, action Action, _ any) bool {
	switch action {
	case ActionViewJob, ActionPickupJob, ActionDeliverJob:
		return true
	}
	return false
}

// staffPolicy: staff run the brokerage side of every operation, including
// accepting or readying a job on a supplier's behalf. Weight updates need the
// admin flag.
type staffPolicy struct{}

func (staffPolicy) Can(_ context.Context, actor identity.Actor, action Action, _ any) bool {
	if action == ActionUpdateWeights {
		return actor.Admin
	}
	switch action {
	case ActionCreateQuote, ActionApproveQuote, ActionRejectQuote:
		// the customer decides on their own quote; staff create requests on
		// behalf of customers but do not approve or reject for them
		return action == ActionCreateQuote
	}
	return true
}
