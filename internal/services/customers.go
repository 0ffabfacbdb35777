package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/printdesk/printdesk/internal/identity"
	"github.com/printdesk/printdesk/internal/models"
)

// CustomerService registers customers. The customer number comes from the
// same allocator discipline as quote numbers: allocated inside the insert's
// transaction, never as a separate read-then-insert.
type CustomerService struct {
	DB *gorm.DB
}

func NewCustomerService(db *gorm.DB) *CustomerService {
	return &CustomerService{DB: db}
}

// CustomerInput carries a registration.
type CustomerInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// Create registers a customer; staff only.
func (s *CustomerService) Create(ctx context.Context, actor identity.Actor, in CustomerInput) (*models.Customer, error) {
	if actor.Role != identity.RoleStaff {
		return nil, fmt.Errorf("only staff register customers: %w", models.ErrUnauthorized)
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("customer name must not be empty: %w", models.ErrValidation)
	}
	var customer models.Customer
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		number, err := NextNumber(tx, models.SeqCustomer)
		if err != nil {
			return err
		}
		customer = models.Customer{
			CustomerNumber: number,
			Name:           strings.TrimSpace(in.Name),
			Email:          in.Email,
			Phone:          in.Phone,
			Address:        in.Address,
		}
		return tx.Create(&customer).Error
	})
	if err != nil {
		return nil, err
	}
	return &customer, nil
}
