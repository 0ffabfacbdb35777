package models

import "time"

// JobStatus is the fulfillment state of a supplier job. Cancellation is a
// side terminal tracked by IsCancelled, not a status value, so the row keeps
// the state it was cancelled in for history.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobAccepted  JobStatus = "accepted"
	JobReady     JobStatus = "ready"
	JobPickedUp  JobStatus = "picked_up"
	JobDelivered JobStatus = "delivered"
)

// SupplierJob is a unit of fulfillment work given to exactly one supplier for
// exactly one quote item. At most one non-cancelled job exists per quote item.
// PricePerUnit and PromisedDeliveryDays are copied from the item's assignment
// snapshot at creation, never re-read from the supplier's standing price.
type SupplierJob struct {
	ID                   uint      `gorm:"primaryKey"`
	QuoteID              uint      `gorm:"not null;index"`
	QuoteItemID          uint      `gorm:"not null;index"`
	SupplierID           uint      `gorm:"not null;index"`
	CustomerID           uint      `gorm:"not null"`
	SKUID                uint      `gorm:"column:sku_id;not null"`
	Quantity             int       `gorm:"not null"`
	PricePerUnit         float64   `gorm:"not null"`
	PromisedDeliveryDays int       `gorm:"not null"`
	Status               JobStatus `gorm:"not null;index"`
	SupplierAcceptedAt   *time.Time
	SupplierReadyAt      *time.Time
	SupplierRating       *int // 1–5, set by staff after delivery
	PickedUpAt           *time.Time
	PickedUpBy           *uint
	DeliveredAt          *time.Time
	DeliveredBy          *uint
	IsCancelled          bool `gorm:"not null;default:false;index"`
	CancelledAt          *time.Time
	CancelledReason      *string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// FulfillmentStarted reports whether the job has physically left the supplier;
// cancellation is only allowed before that point.
func (j *SupplierJob) FulfillmentStarted() bool {
	return j.Status == JobPickedUp || j.Status == JobDelivered
}

// OnTime reports whether a delivered job met its promised delivery window,
// measured from supplier acceptance. Jobs without both timestamps are not
// judged.
func (j *SupplierJob) OnTime() (onTime, ok bool) {
	if j.Status != JobDelivered || j.SupplierAcceptedAt == nil || j.DeliveredAt == nil {
		return false, false
	}
	deadline := j.SupplierAcceptedAt.Add(time.Duration(j.PromisedDeliveryDays) * 24 * time.Hour)
	return !j.DeliveredAt.After(deadline), true
}
