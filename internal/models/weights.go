package models

import "time"

// SupplierWeightConfig is the process-wide scoring weight set, stored as a
// single versioned row. Each weight is 0–100 and the four must sum to exactly
// 100. Scoring reads the current row at the start of each call; admin updates
// bump Version so a reader can tell which configuration produced a ranking.
type SupplierWeightConfig struct {
	ID                uint `gorm:"primaryKey"`
	PriceWeight       int  `gorm:"not null"`
	RatingWeight      int  `gorm:"not null"`
	DeliveryWeight    int  `gorm:"not null"`
	ReliabilityWeight int  `gorm:"not null"`
	Version           int  `gorm:"not null;default:1"`
	UpdatedBy         *uint
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Validate checks the range and sum invariants.
func (c *SupplierWeightConfig) Validate() error {
	sum := 0
	for _, w := range []int{c.PriceWeight, c.RatingWeight, c.DeliveryWeight, c.ReliabilityWeight} {
		if w < 0 || w > 100 {
			return ErrValidation
		}
		sum += w
	}
	if sum != 100 {
		return ErrValidation
	}
	return nil
}

// DefaultWeights is the configuration seeded on first start.
func DefaultWeights() SupplierWeightConfig {
	return SupplierWeightConfig{PriceWeight: 40, RatingWeight: 20, DeliveryWeight: 20, ReliabilityWeight: 20, Version: 1}
}
