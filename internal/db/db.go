package db

import (
	"fmt"
	"log"
	"time"

	migrate "github.com/golang-migrate/migrate/v4"
	// The following blank imports register the postgres driver and file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/printdesk/printdesk/internal/config"
	"github.com/printdesk/printdesk/internal/models"
)

// Models enumerates every persisted type, in dependency order, for
// AutoMigrate and test fixtures.
func Models() []any {
	return []any{
		&models.Customer{}, &models.Employee{}, &models.Supplier{}, &models.Courier{},
		&models.Product{}, &models.SKU{}, &models.AddonOption{}, &models.SupplierPrice{},
		&models.Quote{}, &models.QuoteItem{}, &models.SupplierJob{},
		&models.SupplierWeightConfig{}, &models.CodeSequence{}, &models.Attachment{},
	}
}

// ConnectAndMigrate opens the configured database and brings the schema up.
// Postgres is the runtime store; sqlite serves development and tests. With
// MIGRATIONS=1 the SQL migrations run via golang-migrate, otherwise
// AutoMigrate keeps the dev loop short.
func ConnectAndMigrate(cfg config.Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}

	var db *gorm.DB
	var err error
	switch cfg.DatabaseDriver {
	case "sqlite":
		db, err = gorm.Open(sqlite.Open(cfg.DatabaseDSN), gormCfg)
	default:
		for i := 0; i < 10; i++ {
			db, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), gormCfg)
			if err == nil {
				break
			}
			log.Println("retrying DB connection...", err)
			time.Sleep(2 * time.Second)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	if pingErr := db.Exec("SELECT 1").Error; pingErr != nil {
		return nil, fmt.Errorf("db ping failed: %w", pingErr)
	}

	if cfg.Migrations {
		if err := runSQLMigrations(cfg.MigrationURL, cfg.DatabaseDSN); err != nil {
			return nil, fmt.Errorf("sql migrations failed: %w", err)
		}
	} else {
		for _, m := range Models() {
			if migErr := db.AutoMigrate(m); migErr != nil {
				return nil, fmt.Errorf("automigrate %T: %w", m, migErr)
			}
		}
	}

	if err := EnsureBaseline(db); err != nil {
		return nil, fmt.Errorf("baseline rows: %w", err)
	}
	if cfg.Seed {
		if err := seed(db); err != nil {
			return nil, fmt.Errorf("seed: %w", err)
		}
	}
	return db, nil
}

// EnsureBaseline creates the rows the core cannot run without: the allocator
// counters and the weight configuration singleton.
func EnsureBaseline(db *gorm.DB) error {
	for _, name := range []string{models.SeqQuote, models.SeqCustomer} {
		var seq models.CodeSequence
		err := db.Where("name = ?", name).First(&seq).Error
		if err == gorm.ErrRecordNotFound {
			if err := db.Create(&models.CodeSequence{Name: name, LastNo: 0}).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
	}
	var count int64
	if err := db.Model(&models.SupplierWeightConfig{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		w := models.DefaultWeights()
		if err := db.Create(&w).Error; err != nil {
			return err
		}
	}
	return nil
}

// seed inserts a handful of demo rows for development.
func seed(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Product{}).Count(&count).Error; err != nil || count > 0 {
		return err
	}
	products := []models.Product{
		{Name: "Business Cards", Category: "cards"},
		{Name: "Flyers A5", Category: "flyers"},
		{Name: "Roll-up Banner", Category: "banners"},
	}
	if err := db.Create(&products).Error; err != nil {
		return err
	}
	skus := []models.SKU{
		{ProductID: products[0].ID, Size: "85x55", UnitCount: 500},
		{ProductID: products[0].ID, Size: "85x55", UnitCount: 1000},
		{ProductID: products[1].ID, Size: "A5", UnitCount: 1000},
		{ProductID: products[2].ID, Size: "85x200", UnitCount: 1},
	}
	if err := db.Create(&skus).Error; err != nil {
		return err
	}
	addons := []models.AddonOption{{Name: "Matte lamination"}, {Name: "Rounded corners"}}
	return db.Create(&addons).Error
}

// runSQLMigrations executes migrations using the golang-migrate file source.
func runSQLMigrations(sourceURL, dsn string) error {
	m, err := migrate.New(sourceURL, dsn)
	if err != nil {
		return err
	}
	if err = m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}
