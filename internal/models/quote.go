package models

import "time"

// QuoteStatus is the quote lifecycle state.
type QuoteStatus string

const (
	QuoteDraft        QuoteStatus = "draft"
	QuoteSent         QuoteStatus = "sent"
	QuoteApproved     QuoteStatus = "approved"
	QuoteRejected     QuoteStatus = "rejected"
	QuoteSuperseded   QuoteStatus = "superseded"
	QuoteInProduction QuoteStatus = "in_production"
	QuoteReady        QuoteStatus = "ready"
)

// QuoteTransitions whitelists the legal previous→next status pairs. Any other
// requested pair fails with ErrInvalidTransition. The sent→approved edge is
// requested as "approve" but the assignment step decides whether the quote
// lands in approved or goes straight to in_production.
var QuoteTransitions = map[QuoteStatus][]QuoteStatus{
	QuoteDraft:        {QuoteSent},
	QuoteSent:         {QuoteApproved, QuoteInProduction, QuoteRejected, QuoteSuperseded},
	QuoteApproved:     {QuoteInProduction, QuoteSuperseded},
	QuoteInProduction: {QuoteReady},
}

// CanTransition reports whether from→to is a whitelisted edge.
func CanTransition(from, to QuoteStatus) bool {
	for _, next := range QuoteTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Quote is one version in a version chain of price proposals. Versions are
// append-only: revising creates a new row and marks the old one superseded in
// the same transaction. RootQuoteID is stored directly at creation (equal to
// ID for version 1) so that listing a chain is a single indexed lookup.
type Quote struct {
	ID              uint        `gorm:"primaryKey"`
	QuoteNumber     int64       `gorm:"not null;index"`
	CustomerID      uint        `gorm:"not null;index"`
	EmployeeID      *uint       // set when staff price the quote
	Status          QuoteStatus `gorm:"not null;index"`
	Version         int         `gorm:"not null;default:1"`
	RootQuoteID     uint        `gorm:"not null;index"`
	ParentQuoteID   *uint
	FinalValue      float64
	RejectionReason *string
	DealRating      *int // 1–10, staff judgement of the whole deal
	AutoProduction  bool
	Items           []QuoteItem `gorm:"foreignKey:QuoteID"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// QuoteItem is one SKU+quantity line within a quote. PriceAtTimeOfQuote is an
// immutable snapshot once the quote leaves draft. SupplierCost and
// DeliveryDays are set together with SupplierID or not at all.
type QuoteItem struct {
	ID                 uint `gorm:"primaryKey"`
	QuoteID            uint `gorm:"not null;index"`
	SKUID              uint `gorm:"column:sku_id;not null"`
	SKU                SKU  `gorm:"foreignKey:SKUID"`
	Quantity           int  `gorm:"not null"`
	PriceAtTimeOfQuote float64
	IsUpsell           bool
	SupplierID         *uint
	SupplierCost       *float64
	DeliveryDays       *int
	Addons             []AddonOption `gorm:"many2many:quote_item_addons"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Assigned reports whether the item carries a supplier assignment.
func (it *QuoteItem) Assigned() bool { return it.SupplierID != nil }
