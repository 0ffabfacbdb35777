package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/printdesk/printdesk/internal/gate"
	"github.com/printdesk/printdesk/internal/identity"
	"github.com/printdesk/printdesk/internal/models"
)

// QuoteService owns the quote ledger: creation, pricing, the status state
// machine and the append-only version chain.
type QuoteService struct {
	DB       *gorm.DB
	Gate     *gate.Gate
	Notifier Notifier
}

func NewQuoteService(db *gorm.DB, g *gate.Gate, n Notifier) *QuoteService {
	return &QuoteService{DB: db, Gate: g, Notifier: n}
}

// NewQuoteItem is one requested line of a draft quote.
type NewQuoteItem struct {
	SKUID    uint   `json:"sku_id"`
	Quantity int    `json:"quantity"`
	IsUpsell bool   `json:"is_upsell"`
	AddonIDs []uint `json:"addon_ids"`
}

// ItemPrice carries staff pricing for one item.
type ItemPrice struct {
	ItemID uint    `json:"item_id"`
	Price  float64 `json:"price"`
}

// loadQuote fetches a quote with its items, mapping gorm's not-found.
func loadQuote(tx *gorm.DB, id uint) (*models.Quote, error) {
	var q models.Quote
	if err := tx.Preload("Items").First(&q, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("quote %d: %w", id, models.ErrNotFound)
		}
		return nil, err
	}
	return &q, nil
}

// applyTransition writes a new quote status with an optimistic guard: the
// whitelist is checked against the status we read, and the UPDATE only
// matches rows still in that status. Zero rows affected means another actor
// got there first.
func applyTransition(tx *gorm.DB, q *models.Quote, to models.QuoteStatus, updates map[string]any) error {
	if !models.CanTransition(q.Status, to) {
		return fmt.Errorf("quote %d: %s -> %s: %w", q.ID, q.Status, to, models.ErrInvalidTransition)
	}
	if updates == nil {
		updates = map[string]any{}
	}
	updates["status"] = to
	res := tx.Model(&models.Quote{}).
		Where("id = ? AND status = ?", q.ID, q.Status).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("quote %d status changed concurrently: %w", q.ID, models.ErrConflict)
	}
	q.Status = to
	return nil
}

// CreateQuoteRequest opens a draft quote for a customer. The quote number is
// allocated in the same transaction as the quote row.
func (s *QuoteService) CreateQuoteRequest(ctx context.Context, actor identity.Actor, customerID uint, items []NewQuoteItem) (*models.Quote, error) {
	if err := s.Gate.Authorize(ctx, actor, gate.ActionCreateQuote, nil); err != nil {
		return nil, err
	}
	if actor.Role == identity.RoleCustomer && actor.ID != customerID {
		return nil, fmt.Errorf("customer may only request quotes for themselves: %w", models.ErrUnauthorized)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("quote needs at least one item: %w", models.ErrValidation)
	}
	for _, in := range items {
		if in.Quantity <= 0 {
			return nil, fmt.Errorf("item quantity must be positive: %w", models.ErrValidation)
		}
	}

	var quote models.Quote
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var customer models.Customer
		if err := tx.First(&customer, customerID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("customer %d: %w", customerID, models.ErrNotFound)
			}
			return err
		}

		number, err := NextNumber(tx, models.SeqQuote)
		if err != nil {
			return err
		}
		quote = models.Quote{
			QuoteNumber: number,
			CustomerID:  customerID,
			Status:      models.QuoteDraft,
			Version:     1,
		}
		if err := tx.Create(&quote).Error; err != nil {
			return err
		}
		// version 1 roots its own chain
		quote.RootQuoteID = quote.ID
		if err := tx.Model(&models.Quote{}).Where("id = ?", quote.ID).
			Update("root_quote_id", quote.ID).Error; err != nil {
			return err
		}

		for _, in := range items {
			var sku models.SKU
			if err := tx.First(&sku, in.SKUID).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					return fmt.Errorf("sku %d: %w", in.SKUID, models.ErrNotFound)
				}
				return err
			}
			item := models.QuoteItem{
				QuoteID:  quote.ID,
				SKUID:    in.SKUID,
				Quantity: in.Quantity,
				IsUpsell: in.IsUpsell,
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
			if len(in.AddonIDs) > 0 {
				var addons []models.AddonOption
				if err := tx.Find(&addons, in.AddonIDs).Error; err != nil {
					return err
				}
				if len(addons) != len(in.AddonIDs) {
					return fmt.Errorf("unknown addon id: %w", models.ErrNotFound)
				}
				if err := tx.Model(&item).Association("Addons").Append(&addons); err != nil {
					return err
				}
			}
			quote.Items = append(quote.Items, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	notify(s.Notifier, "quote.created", map[string]any{"quote_id": quote.ID, "quote_number": quote.QuoteNumber})
	return &quote, nil
}

// PriceQuote finalizes per-item pricing and moves the quote draft→sent. Every
// item must be covered by a non-negative price; the prices become immutable
// snapshots once the quote leaves draft.
func (s *QuoteService) PriceQuote(ctx context.Context, actor identity.Actor, quoteID, employeeID uint, prices []ItemPrice, finalValue float64, autoProduction bool) (*models.Quote, error) {
	if err := s.Gate.Authorize(ctx, actor, gate.ActionPriceQuote, nil); err != nil {
		return nil, err
	}
	if finalValue < 0 {
		return nil, fmt.Errorf("final value must be non-negative: %w", models.ErrValidation)
	}
	priceByItem := make(map[uint]float64, len(prices))
	for _, p := range prices {
		if p.Price < 0 {
			return nil, fmt.Errorf("item %d price must be non-negative: %w", p.ItemID, models.ErrValidation)
		}
		priceByItem[p.ItemID] = p.Price
	}

	var quote *models.Quote
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if quote, err = loadQuote(tx, quoteID); err != nil {
			return err
		}
		var employee models.Employee
		if err := tx.First(&employee, employeeID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("employee %d: %w", employeeID, models.ErrNotFound)
			}
			return err
		}
		for i := range quote.Items {
			item := &quote.Items[i]
			price, ok := priceByItem[item.ID]
			if !ok {
				return fmt.Errorf("item %d has no price: %w", item.ID, models.ErrValidation)
			}
			if err := tx.Model(item).Update("price_at_time_of_quote", price).Error; err != nil {
				return err
			}
			item.PriceAtTimeOfQuote = price
		}
		return applyTransition(tx, quote, models.QuoteSent, map[string]any{
			"employee_id":     employeeID,
			"final_value":     finalValue,
			"auto_production": autoProduction,
		})
	})
	if err != nil {
		return nil, err
	}
	notify(s.Notifier, "quote.sent", map[string]any{"quote_id": quote.ID, "final_value": finalValue})
	return quote, nil
}

// RejectQuote is the customer's refusal; a non-empty reason is required.
func (s *QuoteService) RejectQuote(ctx context.Context, actor identity.Actor, quoteID uint, reason string) (*models.Quote, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("rejection reason must not be empty: %w", models.ErrValidation)
	}
	var quote *models.Quote
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if quote, err = loadQuote(tx, quoteID); err != nil {
			return err
		}
		if err := s.Gate.Authorize(ctx, actor, gate.ActionRejectQuote, quote); err != nil {
			return err
		}
		return applyTransition(tx, quote, models.QuoteRejected, map[string]any{"rejection_reason": reason})
	})
	if err != nil {
		return nil, err
	}
	notify(s.Notifier, "quote.rejected", map[string]any{"quote_id": quote.ID, "reason": reason})
	return quote, nil
}

// ReviseQuote appends a new version to the chain and supersedes the old one,
// both inside one transaction so no observer ever sees two non-superseded
// quotes in the same chain. RootQuoteID is copied forward at creation; finding
// a chain never walks parent pointers.
func (s *QuoteService) ReviseQuote(ctx context.Context, actor identity.Actor, quoteID, employeeID uint) (*models.Quote, error) {
	if err := s.Gate.Authorize(ctx, actor, gate.ActionReviseQuote, nil); err != nil {
		return nil, err
	}
	var revision models.Quote
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		old, err := loadQuote(tx, quoteID)
		if err != nil {
			return err
		}
		if old.Status != models.QuoteSent && old.Status != models.QuoteApproved {
			return fmt.Errorf("quote %d: revise from %s: %w", old.ID, old.Status, models.ErrInvalidTransition)
		}
		if err := applyTransition(tx, old, models.QuoteSuperseded, nil); err != nil {
			return err
		}

		parentID := old.ID
		revision = models.Quote{
			QuoteNumber:    old.QuoteNumber,
			CustomerID:     old.CustomerID,
			EmployeeID:     &employeeID,
			Status:         models.QuoteDraft,
			Version:        old.Version + 1,
			RootQuoteID:    old.RootQuoteID,
			ParentQuoteID:  &parentID,
			AutoProduction: old.AutoProduction,
		}
		if err := tx.Create(&revision).Error; err != nil {
			return err
		}
		for _, it := range old.Items {
			var addons []models.AddonOption
			if err := tx.Model(&it).Association("Addons").Find(&addons); err != nil {
				return err
			}
			copied := models.QuoteItem{
				QuoteID:            revision.ID,
				SKUID:              it.SKUID,
				Quantity:           it.Quantity,
				PriceAtTimeOfQuote: it.PriceAtTimeOfQuote,
				IsUpsell:           it.IsUpsell,
				SupplierID:         it.SupplierID,
				SupplierCost:       it.SupplierCost,
				DeliveryDays:       it.DeliveryDays,
			}
			if err := tx.Create(&copied).Error; err != nil {
				return err
			}
			if len(addons) > 0 {
				if err := tx.Model(&copied).Association("Addons").Append(&addons); err != nil {
					return err
				}
			}
			revision.Items = append(revision.Items, copied)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	notify(s.Notifier, "quote.revised", map[string]any{"quote_id": quoteID, "revision_id": revision.ID, "version": revision.Version})
	return &revision, nil
}

// RateDeal records the staff 1–10 judgement of the whole deal. It is
// independent of the per-job 1–5 supplier rating.
func (s *QuoteService) RateDeal(ctx context.Context, actor identity.Actor, quoteID uint, rating int) (*models.Quote, error) {
	if err := s.Gate.Authorize(ctx, actor, gate.ActionRateDeal, nil); err != nil {
		return nil, err
	}
	if rating < 1 || rating > 10 {
		return nil, fmt.Errorf("deal rating must be 1-10: %w", models.ErrValidation)
	}
	var quote *models.Quote
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if quote, err = loadQuote(tx, quoteID); err != nil {
			return err
		}
		if err := tx.Model(quote).Update("deal_rating", rating).Error; err != nil {
			return err
		}
		quote.DealRating = &rating
		return nil
	})
	if err != nil {
		return nil, err
	}
	return quote, nil
}

// Get returns one quote with items.
func (s *QuoteService) Get(ctx context.Context, quoteID uint) (*models.Quote, error) {
	return loadQuote(s.DB.WithContext(ctx), quoteID)
}

// Chain lists every version sharing a root, oldest first. This is a single
// indexed lookup; the chain is never reconstructed by walking parent ids.
func (s *QuoteService) Chain(ctx context.Context, rootQuoteID uint) ([]models.Quote, error) {
	var quotes []models.Quote
	err := s.DB.WithContext(ctx).
		Where("root_quote_id = ?", rootQuoteID).
		Order("version").
		Find(&quotes).Error
	if err != nil {
		return nil, err
	}
	if len(quotes) == 0 {
		return nil, fmt.Errorf("chain %d: %w", rootQuoteID, models.ErrNotFound)
	}
	return quotes, nil
}
