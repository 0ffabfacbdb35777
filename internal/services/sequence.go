package services

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/printdesk/printdesk/internal/models"
)

// NextNumber allocates the next value of a named counter. It must be called
// inside the transaction that persists the row being numbered: the UPDATE
// locks the counter row until that transaction commits, which is what makes
// concurrent allocations unique, and an abort returns the number unconsumed.
// Gaps are permitted, monotonicity is guaranteed per counter.
func NextNumber(tx *gorm.DB, name string) (int64, error) {
	res := tx.Model(&models.CodeSequence{}).
		Where("name = ?", name).
		Update("last_no", gorm.Expr("last_no + 1"))
	if res.Error != nil {
		return 0, fmt.Errorf("advance sequence %q: %w", name, res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, fmt.Errorf("sequence %q: %w", name, models.ErrNotFound)
	}

	var seq models.CodeSequence
	if err := tx.Where("name = ?", name).First(&seq).Error; err != nil {
		return 0, fmt.Errorf("read sequence %q: %w", name, err)
	}
	return seq.LastNo, nil
}
