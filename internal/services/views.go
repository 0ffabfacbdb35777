package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/printdesk/printdesk/internal/gate"
	"github.com/printdesk/printdesk/internal/identity"
	"github.com/printdesk/printdesk/internal/models"
)

// ViewService implements the anonymous-brokerage visibility policy. Each role
// gets its own query projection — a distinct SELECT column set scanned into a
// distinct DTO — rather than one generic payload filtered after the fact, so
// a hidden field is never even read from the store.
type ViewService struct {
	DB   *gorm.DB
	Gate *gate.Gate
}

func NewViewService(db *gorm.DB, g *gate.Gate) *ViewService {
	return &ViewService{DB: db, Gate: g}
}

// CustomerQuoteView is what a customer sees of their quote: product, size,
// quantity, price, status, timestamps. No supplier identity, contact, or cost
// ever appears.
type CustomerQuoteView struct {
	QuoteID     uint               `json:"quote_id"`
	QuoteNumber int64              `json:"quote_number"`
	Status      models.QuoteStatus `json:"status"`
	Version     int                `json:"version"`
	FinalValue  float64            `json:"final_value"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
	Items       []CustomerItemView `json:"items"`
}

type CustomerItemView struct {
	ItemID    uint    `json:"item_id"`
	Product   string  `json:"product"`
	Size      string  `json:"size"`
	UnitCount int     `json:"unit_count"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	IsUpsell  bool    `json:"is_upsell"`
}

// SupplierJobView is what a supplier sees of a job: the work, their own
// commercial terms, and the customer's shipping contact. The shipping contact
// is an intentional, documented exception to anonymous brokerage — the
// supplier often ships or labels the parcel — and the quote's customer-facing
// final price is never included.
type SupplierJobView struct {
	JobID                uint             `json:"job_id"`
	Status               models.JobStatus `json:"status"`
	Product              string           `json:"product"`
	Size                 string           `json:"size"`
	UnitCount            int              `json:"unit_count"`
	Quantity             int              `json:"quantity"`
	PricePerUnit         float64          `json:"price_per_unit"`
	PromisedDeliveryDays int              `json:"promised_delivery_days"`
	ShippingName         string           `json:"shipping_name"`
	ShippingAddress      string           `json:"shipping_address"`
	ShippingPhone        string           `json:"shipping_phone"`
	CreatedAt            time.Time        `json:"created_at"`
}

// CourierJobView is what a courier sees: both parties' contact details for
// the physical run, and no commercial field of either side.
type CourierJobView struct {
	JobID           uint             `json:"job_id"`
	Status          models.JobStatus `json:"status"`
	Product         string           `json:"product"`
	Size            string           `json:"size"`
	Quantity        int              `json:"quantity"`
	SupplierName    string           `json:"supplier_name"`
	SupplierAddress string           `json:"supplier_address"`
	SupplierPhone   string           `json:"supplier_phone"`
	CustomerName    string           `json:"customer_name"`
	CustomerAddress string           `json:"customer_address"`
	CustomerPhone   string           `json:"customer_phone"`
}

// CustomerQuote projects a quote for its customer.
func (s *ViewService) CustomerQuote(ctx context.Context, actor identity.Actor, quoteID uint) (*CustomerQuoteView, error) {
	tx := s.DB.WithContext(ctx)
	quote, err := loadQuote(tx, quoteID)
	if err != nil {
		return nil, err
	}
	if err := s.Gate.Authorize(ctx, actor, gate.ActionViewQuote, quote); err != nil {
		return nil, err
	}

	view := &CustomerQuoteView{
		QuoteID:     quote.ID,
		QuoteNumber: quote.QuoteNumber,
		Status:      quote.Status,
		Version:     quote.Version,
		FinalValue:  quote.FinalValue,
		CreatedAt:   quote.CreatedAt,
		UpdatedAt:   quote.UpdatedAt,
	}
	err = tx.Table("quote_items").
		Select("quote_items.id AS item_id, products.name AS product, skus.size, skus.unit_count, quote_items.quantity, quote_items.price_at_time_of_quote AS price, quote_items.is_upsell").
		Joins("JOIN skus ON skus.id = quote_items.sku_id").
		Joins("JOIN products ON products.id = skus.product_id").
		Where("quote_items.quote_id = ?", quoteID).
		Order("quote_items.id").
		Scan(&view.Items).Error
	if err != nil {
		return nil, err
	}
	return view, nil
}

// SupplierJob projects a job for its supplier.
func (s *ViewService) SupplierJob(ctx context.Context, actor identity.Actor, jobID uint) (*SupplierJobView, error) {
	tx := s.DB.WithContext(ctx)
	job, err := loadJob(tx, jobID)
	if err != nil {
		return nil, err
	}
	if err := s.Gate.Authorize(ctx, actor, gate.ActionViewJob, job); err != nil {
		return nil, err
	}

	var view SupplierJobView
	err = tx.Table("supplier_jobs").
		Select("supplier_jobs.id AS job_id, supplier_jobs.status, products.name AS product, skus.size, skus.unit_count, supplier_jobs.quantity, supplier_jobs.price_per_unit, supplier_jobs.promised_delivery_days, customers.name AS shipping_name, customers.address AS shipping_address, customers.phone AS shipping_phone, supplier_jobs.created_at").
		Joins("JOIN skus ON skus.id = supplier_jobs.sku_id").
		Joins("JOIN products ON products.id = skus.product_id").
		Joins("JOIN customers ON customers.id = supplier_jobs.customer_id").
		Where("supplier_jobs.id = ?", jobID).
		Scan(&view).Error
	if err != nil {
		return nil, err
	}
	if view.JobID == 0 {
		return nil, fmt.Errorf("job %d: %w", jobID, models.ErrNotFound)
	}
	return &view, nil
}

// CourierJob projects a job for a courier run.
func (s *ViewService) CourierJob(ctx context.Context, actor identity.Actor, jobID uint) (*CourierJobView, error) {
	tx := s.DB.WithContext(ctx)
	job, err := loadJob(tx, jobID)
	if err != nil {
		return nil, err
	}
	if err := s.Gate.Authorize(ctx, actor, gate.ActionViewJob, job); err != nil {
		return nil, err
	}

	var view CourierJobView
	err = tx.Table("supplier_jobs").
		Select("supplier_jobs.id AS job_id, supplier_jobs.status, products.name AS product, skus.size, supplier_jobs.quantity, suppliers.name AS supplier_name, suppliers.address AS supplier_address, suppliers.phone AS supplier_phone, customers.name AS customer_name, customers.address AS customer_address, customers.phone AS customer_phone").
		Joins("JOIN skus ON skus.id = supplier_jobs.sku_id").
		Joins("JOIN products ON products.id = skus.product_id").
		Joins("JOIN suppliers ON suppliers.id = supplier_jobs.supplier_id").
		Joins("JOIN customers ON customers.id = supplier_jobs.customer_id").
		Where("supplier_jobs.id = ?", jobID).
		Scan(&view).Error
	if err != nil {
		return nil, err
	}
	if view.JobID == 0 {
		return nil, fmt.Errorf("job %d: %w", jobID, models.ErrNotFound)
	}
	return &view, nil
}
