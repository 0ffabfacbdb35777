package services

import (
	"errors"
	"testing"

	"github.com/printdesk/printdesk/internal/gate"
	"github.com/printdesk/printdesk/internal/models"
)

func TestJobHappyPath(t *testing.T) {
	gdb := setupTestDB(t)
	f := seedFixtures(t, gdb)
	g := gate.New()
	fs := NewFulfillmentService(gdb, g, nil)
	qs := NewQuoteService(gdb, g, nil)
	quote, job := newQuoteInProduction(t, gdb, f)

	courier := models.Courier{Name: "Speedy"}
	if err := gdb.Create(&courier).Error; err != nil {
		t.Fatalf("seed courier: %v", err)
	}

	job2, err := fs.AcceptJob(t.Context(), supplierActor(f.Supplier.ID), job.ID)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if job2.Status != models.JobAccepted || job2.SupplierAcceptedAt == nil {
		t.Fatalf("accept not recorded: %+v", job2)
	}

	if _, err := fs.MarkJobReady(t.Context(), supplierActor(f.Supplier.ID), job.ID); err != nil {
		t.Fatalf("ready: %v", err)
	}
	// the single job is ready: the quote promotes in the same transaction
	q, err := qs.Get(t.Context(), quote.ID)
	if err != nil {
		t.Fatalf("get quote: %v", err)
	}
	if q.Status != models.QuoteReady {
		t.Fatalf("expected quote ready got %s", q.Status)
	}

	picked, err := fs.MarkPickedUp(t.Context(), courierActor(courier.ID), job.ID)
	if err != nil {
		t.Fatalf("pickup: %v", err)
	}
	if picked.PickedUpBy == nil || *picked.PickedUpBy != courier.ID {
		t.Fatalf("courier not stamped: %+v", picked)
	}

	delivered, err := fs.MarkDelivered(t.Context(), courierActor(courier.ID), job.ID)
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if delivered.Status != models.JobDelivered || delivered.DeliveredAt == nil {
		t.Fatalf("delivery not recorded: %+v", delivered)
	}
	if onTime, ok := delivered.OnTime(); !ok || !onTime {
		t.Fatalf("same-moment delivery must be on time: onTime=%v ok=%v", onTime, ok)
	}
}

func TestJobTransitionOrderEnforced(t *testing.T) {
	gdb := setupTestDB(t)
	f := seedFixtures(t, gdb)
	fs := NewFulfillmentService(gdb, gate.New(), nil)
	_, job := newQuoteInProduction(t, gdb, f)

	// ready before accept
	if _, err := fs.MarkJobReady(t.Context(), supplierActor(f.Supplier.ID), job.ID); !errors.Is(err, models.ErrInvalidTransition) {
		t.Fatalf("ready from pending: expected ErrInvalidTransition got %v", err)
	}
	// pickup before ready
	if _, err := fs.MarkPickedUp(t.Context(), courierActor(1), job.ID); !errors.Is(err, models.ErrInvalidTransition) {
		t.Fatalf("pickup from pending: expected ErrInvalidTransition got %v", err)
	}

	if _, err := fs.AcceptJob(t.Context(), supplierActor(f.Supplier.ID), job.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	// double submission of the same step
	if _, err := fs.AcceptJob(t.Context(), supplierActor(f.Supplier.ID), job.ID); !errors.Is(err, models.ErrInvalidTransition) {
		t.Fatalf("double accept: expected ErrInvalidTransition got %v", err)
	}
}

func TestJobOwnershipEnforced(t *testing.T) {
	gdb := setupTestDB(t)
	f := seedFixtures(t, gdb)
	fs := NewFulfillmentService(gdb, gate.New(), nil)
	_, job := newQuoteInProduction(t, gdb, f)

	if _, err := fs.AcceptJob(t.Context(), supplierActor(f.Supplier.ID+9), job.ID); !errors.Is(err, models.ErrUnauthorized) {
		t.Fatalf("foreign supplier: expected ErrUnauthorized got %v", err)
	}
	// staff may accept on the supplier's behalf
	if _, err := fs.AcceptJob(t.Context(), staffActor(f.Employee.ID), job.ID); err != nil {
		t.Fatalf("staff accept: %v", err)
	}
}

func TestCancelJobOnlyBeforePickup(t *testing.T) {
	gdb := setupTestDB(t)
	f := seedFixtures(t, gdb)
	fs := NewFulfillmentService(gdb, gate.New(), nil)
	_, job := newQuoteInProduction(t, gdb, f)

	if _, err := fs.CancelJob(t.Context(), staffActor(f.Employee.ID), job.ID, ""); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("blank reason: expected ErrValidation got %v", err)
	}
	if _, err := fs.CancelJob(t.Context(), supplierActor(f.Supplier.ID), job.ID, "nope"); !errors.Is(err, models.ErrUnauthorized) {
		t.Fatalf("supplier cancel: expected ErrUnauthorized got %v", err)
	}

	if _, err := fs.AcceptJob(t.Context(), supplierActor(f.Supplier.ID), job.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := fs.MarkJobReady(t.Context(), supplierActor(f.Supplier.ID), job.ID); err != nil {
		t.Fatalf("ready: %v", err)
	}
	if _, err := fs.MarkPickedUp(t.Context(), courierActor(1), job.ID); err != nil {
		t.Fatalf("pickup: %v", err)
	}
	// fulfillment has started, too late
	if _, err := fs.CancelJob(t.Context(), staffActor(f.Employee.ID), job.ID, "changed mind"); !errors.Is(err, models.ErrInvalidTransition) {
		t.Fatalf("cancel after pickup: expected ErrInvalidTransition got %v", err)
	}
}

func TestCancelKeepsRowAndCompletesReadySet(t *testing.T) {
	gdb := setupTestDB(t)
	f := seedFixtures(t, gdb)
	g := gate.New()
	qs := NewQuoteService(gdb, g, nil)
	as := NewAssignmentService(gdb, g, nil)
	fs := NewFulfillmentService(gdb, g, nil)

	// two items, two jobs
	quote, err := qs.CreateQuoteRequest(t.Context(), customerActor(f.Customer.ID), f.Customer.ID,
		[]NewQuoteItem{{SKUID: f.SKU.ID, Quantity: 1}, {SKUID: f.SKU.ID, Quantity: 2}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := qs.PriceQuote(t.Context(), staffActor(f.Employee.ID), quote.ID, f.Employee.ID,
		[]ItemPrice{{ItemID: quote.Items[0].ID, Price: 50}, {ItemID: quote.Items[1].ID, Price: 90}}, 140, false); err != nil {
		t.Fatalf("price: %v", err)
	}
	if _, err := as.ApproveQuote(t.Context(), customerActor(f.Customer.ID), quote.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := as.AssignSuppliers(t.Context(), staffActor(f.Employee.ID), quote.ID, f.Supplier.ID,
		[]ItemAssignment{
			{ItemID: quote.Items[0].ID, Cost: 20, DeliveryDays: 2},
			{ItemID: quote.Items[1].ID, Cost: 30, DeliveryDays: 2},
		}); err != nil {
		t.Fatalf("assign: %v", err)
	}
	var jobs []models.SupplierJob
	if err := gdb.Where("quote_id = ?", quote.ID).Order("id").Find(&jobs).Error; err != nil || len(jobs) != 2 {
		t.Fatalf("load jobs: %v (%d)", err, len(jobs))
	}

	// first job goes all the way to ready, second lags pending
	if _, err := fs.AcceptJob(t.Context(), supplierActor(f.Supplier.ID), jobs[0].ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := fs.MarkJobReady(t.Context(), supplierActor(f.Supplier.ID), jobs[0].ID); err != nil {
		t.Fatalf("ready: %v", err)
	}
	q, _ := qs.Get(t.Context(), quote.ID)
	if q.Status != models.QuoteInProduction {
		t.Fatalf("pending sibling must hold the quote in production, got %s", q.Status)
	}

	// cancelling the laggard completes the ready set
	cancelled, err := fs.CancelJob(t.Context(), staffActor(f.Employee.ID), jobs[1].ID, "supplier overloaded")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if !cancelled.IsCancelled || cancelled.Status != models.JobPending {
		t.Fatalf("cancellation must keep the pre-cancel status: %+v", cancelled)
	}
	q, _ = qs.Get(t.Context(), quote.ID)
	if q.Status != models.QuoteReady {
		t.Fatalf("expected quote ready after cancelling the laggard, got %s", q.Status)
	}
}

func TestRateJobOnlyAfterDelivery(t *testing.T) {
	gdb := setupTestDB(t)
	f := seedFixtures(t, gdb)
	fs := NewFulfillmentService(gdb, gate.New(), nil)
	_, job := newQuoteInProduction(t, gdb, f)

	if _, err := fs.RateJob(t.Context(), staffActor(f.Employee.ID), job.ID, 4); !errors.Is(err, models.ErrInvalidTransition) {
		t.Fatalf("rate pending: expected ErrInvalidTransition got %v", err)
	}

	if _, err := fs.AcceptJob(t.Context(), supplierActor(f.Supplier.ID), job.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := fs.MarkJobReady(t.Context(), supplierActor(f.Supplier.ID), job.ID); err != nil {
		t.Fatalf("ready: %v", err)
	}
	if _, err := fs.MarkPickedUp(t.Context(), courierActor(1), job.ID); err != nil {
		t.Fatalf("pickup: %v", err)
	}
	if _, err := fs.MarkDelivered(t.Context(), courierActor(1), job.ID); err != nil {
		t.Fatalf("deliver: %v", err)
	}

	if _, err := fs.RateJob(t.Context(), staffActor(f.Employee.ID), job.ID, 6); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("rating 6: expected ErrValidation got %v", err)
	}
	rated, err := fs.RateJob(t.Context(), staffActor(f.Employee.ID), job.ID, 5)
	if err != nil {
		t.Fatalf("rate: %v", err)
	}
	if rated.SupplierRating == nil || *rated.SupplierRating != 5 {
		t.Fatalf("rating not stored: %+v", rated)
	}
}
