package models

import "time"

// Attachment is a file attached to a quote, optionally scoped to one item or
// one supplier job (artwork, proofs, delivery notes). Only the storage key is
// kept here; the object store itself is an external collaborator. Attachments
// of a cancelled job are not deleted but become inaccessible to queries.
type Attachment struct {
	ID            uint   `gorm:"primaryKey"`
	QuoteID       uint   `gorm:"not null;index"`
	QuoteItemID   *uint  `gorm:"index"`
	SupplierJobID *uint  `gorm:"index"`
	FileName      string `gorm:"not null"`
	ContentType   string
	SizeBytes     int64
	StorageKey    string `gorm:"not null;uniqueIndex"`
	UploadedBy    uint
	CreatedAt     time.Time
}
