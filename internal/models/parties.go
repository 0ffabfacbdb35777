package models

import "time"

// Customer orders print work through the brokerage. CustomerNumber comes
// from the sequence allocator, assigned in the same transaction as the row.
type Customer struct {
	ID             uint   `gorm:"primaryKey"`
	CustomerNumber int64  `gorm:"not null;uniqueIndex"`
	Name           string `gorm:"not null"`
	Email          string
	Phone          string
	Address        string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Employee is brokerage staff; admins may additionally edit scoring weights.
type Employee struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"not null"`
	Email     string
	IsAdmin   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Supplier fulfils quote items. Identity and contact details are hidden from
// customers by the visibility projections.
type Supplier struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"not null"`
	Email     string
	Phone     string
	Address   string
	IsActive  bool `gorm:"default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Courier ferries jobs between supplier and customer.
type Courier struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"not null"`
	Phone     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
