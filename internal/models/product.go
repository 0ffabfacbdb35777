package models

import "time"

// Product is a base print product (flyer, business card, banner...).
// Category groups products for category-level supplier recommendations.
type Product struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"not null"`
	Category  string `gorm:"not null;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SKU is a specific size+quantity combination of a base product, the unit
// suppliers price against.
type SKU struct {
	ID        uint    `gorm:"primaryKey"`
	ProductID uint    `gorm:"not null;index"`
	Product   Product `gorm:"foreignKey:ProductID"`
	Size      string  `gorm:"not null"`
	UnitCount int     `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AddonOption is an optional finishing extra on a quote item (lamination,
// rounded corners, ...).
type AddonOption struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"not null"`
}

// SupplierPrice is a supplier's standing offer for one SKU. It is consulted
// by the scoring engine and is distinct from the cost snapshot captured on a
// quote item at assignment time.
type SupplierPrice struct {
	ID           uint    `gorm:"primaryKey"`
	SupplierID   uint    `gorm:"not null;uniqueIndex:idx_supplier_sku"`
	SKUID        uint    `gorm:"column:sku_id;not null;uniqueIndex:idx_supplier_sku"`
	PricePerUnit float64 `gorm:"not null"`
	DeliveryDays int     `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
