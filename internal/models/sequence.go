package models

// CodeSequence backs the sequence allocator. LastNo is advanced with an
// UPDATE inside the same transaction that persists the row being numbered,
// so a number is only consumed if that transaction commits.
type CodeSequence struct {
	Name   string `gorm:"primaryKey"`
	LastNo int64  `gorm:"not null"`
}

// Allocator counter names.
const (
	SeqQuote    = "quote"
	SeqCustomer = "customer"
)
