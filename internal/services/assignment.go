package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/printdesk/printdesk/internal/gate"
	"github.com/printdesk/printdesk/internal/identity"
	"github.com/printdesk/printdesk/internal/models"
)

// AssignmentService decides, on customer approval, whether a quote promotes
// straight to production, and creates supplier jobs as items gain suppliers.
type AssignmentService struct {
	DB       *gorm.DB
	Gate     *gate.Gate
	Notifier Notifier
}

func NewAssignmentService(db *gorm.DB, g *gate.Gate, n Notifier) *AssignmentService {
	return &AssignmentService{DB: db, Gate: g, Notifier: n}
}

// ApproveQuote handles the customer's approval of a sent quote. If the quote
// is flagged for auto-production and every item already carries a supplier,
// it lands directly in in_production with one pending job per item; otherwise
// it waits in approved with no jobs until staff assign suppliers.
func (s *AssignmentService) ApproveQuote(ctx context.Context, actor identity.Actor, quoteID uint) (*models.Quote, error) {
	var quote *models.Quote
	var produced bool
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if quote, err = loadQuote(tx, quoteID); err != nil {
			return err
		}
		if err := s.Gate.Authorize(ctx, actor, gate.ActionApproveQuote, quote); err != nil {
			return err
		}

		allAssigned := len(quote.Items) > 0
		for i := range quote.Items {
			if !quote.Items[i].Assigned() {
				allAssigned = false
				break
			}
		}
		if quote.AutoProduction && allAssigned {
			if err := applyTransition(tx, quote, models.QuoteInProduction, nil); err != nil {
				return err
			}
			if err := createJobs(tx, quote, quote.Items); err != nil {
				return err
			}
			produced = true
			return nil
		}
		return applyTransition(tx, quote, models.QuoteApproved, nil)
	})
	if err != nil {
		return nil, err
	}
	event := "quote.approved"
	if produced {
		event = "quote.production_started"
	}
	notify(s.Notifier, event, map[string]any{"quote_id": quote.ID})
	return quote, nil
}

// ItemAssignment carries staff pricing for one item-supplier pairing.
type ItemAssignment struct {
	ItemID       uint    `json:"item_id"`
	Cost         float64 `json:"cost"`
	DeliveryDays int     `json:"delivery_days"`
}

// AssignSupplierToItem assigns one supplier to one item. See AssignSuppliers
// for the transition semantics.
func (s *AssignmentService) AssignSupplierToItem(ctx context.Context, actor identity.Actor, quoteID, supplierID uint, assignment ItemAssignment) (*models.Quote, error) {
	return s.AssignSuppliers(ctx, actor, quoteID, supplierID, []ItemAssignment{assignment})
}

// AssignSuppliers assigns one supplier to a set of items (the category
// assignment path), updating the items' supplier snapshot and creating jobs
// atomically. On an approved quote, jobs are created for every newly covered
// item once all items carry a supplier, and the quote promotes to
// in_production. On an in_production quote (an item's job was cancelled and
// the item is being re-assigned), the replacement job is created immediately.
// Items already covered by a non-cancelled job are never given a second one.
func (s *AssignmentService) AssignSuppliers(ctx context.Context, actor identity.Actor, quoteID, supplierID uint, assignments []ItemAssignment) (*models.Quote, error) {
	if err := s.Gate.Authorize(ctx, actor, gate.ActionAssign, nil); err != nil {
		return nil, err
	}
	if len(assignments) == 0 {
		return nil, fmt.Errorf("no items to assign: %w", models.ErrValidation)
	}
	for _, a := range assignments {
		if a.Cost < 0 || a.DeliveryDays <= 0 {
			return nil, fmt.Errorf("item %d: cost must be non-negative and delivery days positive: %w", a.ItemID, models.ErrValidation)
		}
	}

	var quote *models.Quote
	var promoted bool
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var supplier models.Supplier
		if err := tx.First(&supplier, supplierID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("supplier %d: %w", supplierID, models.ErrNotFound)
			}
			return err
		}
		if !supplier.IsActive {
			return fmt.Errorf("supplier %d is inactive: %w", supplierID, models.ErrValidation)
		}

		var err error
		if quote, err = loadQuote(tx, quoteID); err != nil {
			return err
		}
		if quote.Status != models.QuoteApproved && quote.Status != models.QuoteInProduction {
			return fmt.Errorf("quote %d: assign in %s: %w", quote.ID, quote.Status, models.ErrInvalidTransition)
		}

		itemsByID := make(map[uint]*models.QuoteItem, len(quote.Items))
		for i := range quote.Items {
			itemsByID[quote.Items[i].ID] = &quote.Items[i]
		}
		assigned := make([]models.QuoteItem, 0, len(assignments))
		for _, a := range assignments {
			item, ok := itemsByID[a.ItemID]
			if !ok {
				return fmt.Errorf("item %d not on quote %d: %w", a.ItemID, quoteID, models.ErrNotFound)
			}
			covered, err := hasOpenJob(tx, item.ID)
			if err != nil {
				return err
			}
			if covered {
				return fmt.Errorf("item %d already has an open job: %w", item.ID, models.ErrConflict)
			}
			updates := map[string]any{
				"supplier_id":   supplierID,
				"supplier_cost": a.Cost,
				"delivery_days": a.DeliveryDays,
			}
			if err := tx.Model(&models.QuoteItem{}).Where("id = ?", item.ID).Updates(updates).Error; err != nil {
				return err
			}
			sid, cost, days := supplierID, a.Cost, a.DeliveryDays
			item.SupplierID, item.SupplierCost, item.DeliveryDays = &sid, &cost, &days
			assigned = append(assigned, *item)
		}

		if quote.Status == models.QuoteInProduction {
			// re-assignment after a cancellation: replacement jobs only
			return createJobs(tx, quote, assigned)
		}

		for i := range quote.Items {
			if !quote.Items[i].Assigned() {
				return nil // coverage incomplete, quote stays approved
			}
		}
		if err := applyTransition(tx, quote, models.QuoteInProduction, nil); err != nil {
			return err
		}
		promoted = true
		return createJobs(tx, quote, quote.Items)
	})
	if err != nil {
		return nil, err
	}
	if promoted {
		notify(s.Notifier, "quote.production_started", map[string]any{"quote_id": quote.ID})
	}
	return quote, nil
}

// hasOpenJob reports whether the item is covered by a non-cancelled job.
func hasOpenJob(tx *gorm.DB, itemID uint) (bool, error) {
	var count int64
	err := tx.Model(&models.SupplierJob{}).
		Where("quote_item_id = ? AND is_cancelled = ?", itemID, false).
		Count(&count).Error
	return count > 0, err
}

// createJobs creates exactly one pending job per assigned item that is not
// already covered by a non-cancelled job. The price and delivery promise come
// from the item's assignment snapshot, not the supplier's current standing
// price.
func createJobs(tx *gorm.DB, quote *models.Quote, items []models.QuoteItem) error {
	for i := range items {
		item := &items[i]
		if !item.Assigned() {
			return fmt.Errorf("item %d has no supplier: %w", item.ID, models.ErrValidation)
		}
		if item.SupplierCost == nil || item.DeliveryDays == nil {
			return fmt.Errorf("item %d assignment is missing cost or delivery days: %w", item.ID, models.ErrValidation)
		}
		covered, err := hasOpenJob(tx, item.ID)
		if err != nil {
			return err
		}
		if covered {
			continue
		}
		job := models.SupplierJob{
			QuoteID:              quote.ID,
			QuoteItemID:          item.ID,
			SupplierID:           *item.SupplierID,
			CustomerID:           quote.CustomerID,
			SKUID:                item.SKUID,
			Quantity:             item.Quantity,
			PricePerUnit:         *item.SupplierCost,
			PromisedDeliveryDays: *item.DeliveryDays,
			Status:               models.JobPending,
		}
		if err := tx.Create(&job).Error; err != nil {
			return err
		}
	}
	return nil
}
