package services

import (
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/printdesk/printdesk/internal/db"
	"github.com/printdesk/printdesk/internal/gate"
	"github.com/printdesk/printdesk/internal/identity"
	"github.com/printdesk/printdesk/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	// one connection so concurrent transactions serialize instead of
	// hitting SQLITE_BUSY
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	for _, m := range db.Models() {
		if err := gdb.AutoMigrate(m); err != nil {
			t.Fatalf("migrate %T: %v", m, err)
		}
	}
	if err := db.EnsureBaseline(gdb); err != nil {
		t.Fatalf("baseline: %v", err)
	}
	return gdb
}

func staffActor(id uint) identity.Actor {
	return identity.Actor{ID: id, Role: identity.RoleStaff}
}

func adminActor(id uint) identity.Actor {
	return identity.Actor{ID: id, Role: identity.RoleStaff, Admin: true}
}

func customerActor(id uint) identity.Actor {
	return identity.Actor{ID: id, Role: identity.RoleCustomer}
}

func supplierActor(id uint) identity.Actor {
	return identity.Actor{ID: id, Role: identity.RoleSupplier}
}

func courierActor(id uint) identity.Actor {
	return identity.Actor{ID: id, Role: identity.RoleCourier}
}

type fixtures struct {
	Customer models.Customer
	Employee models.Employee
	Supplier models.Supplier
	Product  models.Product
	SKU      models.SKU
}

func seedFixtures(t *testing.T, gdb *gorm.DB) fixtures {
	t.Helper()
	f := fixtures{
		Customer: models.Customer{CustomerNumber: 9001, Name: "Acme Events", Phone: "0601020304", Address: "12 rue des Fêtes, Paris"},
		Employee: models.Employee{Name: "Broker One"},
		Supplier: models.Supplier{Name: "PrintWorks", Phone: "0605060708", Address: "3 zone industrielle, Lyon", IsActive: true},
		Product:  models.Product{Name: "Flyers A5", Category: "flyers"},
	}
	for _, row := range []any{&f.Customer, &f.Employee, &f.Supplier, &f.Product} {
		if err := gdb.Create(row).Error; err != nil {
			t.Fatalf("seed %T: %v", row, err)
		}
	}
	f.SKU = models.SKU{ProductID: f.Product.ID, Size: "A5", UnitCount: 1000}
	if err := gdb.Create(&f.SKU).Error; err != nil {
		t.Fatalf("seed sku: %v", err)
	}
	return f
}

// newQuoteSent creates a one-item quote and prices it into sent.
func newQuoteSent(t *testing.T, gdb *gorm.DB, f fixtures, autoProduction bool) *models.Quote {
	t.Helper()
	g := gate.New()
	qs := NewQuoteService(gdb, g, nil)
	quote, err := qs.CreateQuoteRequest(t.Context(), customerActor(f.Customer.ID), f.Customer.ID,
		[]NewQuoteItem{{SKUID: f.SKU.ID, Quantity: 2}})
	if err != nil {
		t.Fatalf("create quote: %v", err)
	}
	quote, err = qs.PriceQuote(t.Context(), staffActor(f.Employee.ID), quote.ID, f.Employee.ID,
		[]ItemPrice{{ItemID: quote.Items[0].ID, Price: 120}}, 240, autoProduction)
	if err != nil {
		t.Fatalf("price quote: %v", err)
	}
	return quote
}

// newQuoteInProduction walks a quote through approval and assignment so that
// one pending job exists for its single item.
func newQuoteInProduction(t *testing.T, gdb *gorm.DB, f fixtures) (*models.Quote, models.SupplierJob) {
	t.Helper()
	g := gate.New()
	as := NewAssignmentService(gdb, g, nil)

	quote := newQuoteSent(t, gdb, f, false)
	quote, err := as.ApproveQuote(t.Context(), customerActor(f.Customer.ID), quote.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	quote, err = as.AssignSupplierToItem(t.Context(), staffActor(f.Employee.ID), quote.ID, f.Supplier.ID,
		ItemAssignment{ItemID: quote.Items[0].ID, Cost: 40, DeliveryDays: 3})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if quote.Status != models.QuoteInProduction {
		t.Fatalf("expected in_production got %s", quote.Status)
	}
	var job models.SupplierJob
	if err := gdb.Where("quote_id = ?", quote.ID).First(&job).Error; err != nil {
		t.Fatalf("load job: %v", err)
	}
	return quote, job
}
