package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/printdesk/printdesk/internal/gate"
	"github.com/printdesk/printdesk/internal/models"
)

func seedSupplierWithOffer(t *testing.T, gdb *gorm.DB, name string, skuID uint, price float64, days int) models.Supplier {
	t.Helper()
	s := models.Supplier{Name: name, IsActive: true}
	require.NoError(t, gdb.Create(&s).Error)
	require.NoError(t, gdb.Create(&models.SupplierPrice{SupplierID: s.ID, SKUID: skuID, PricePerUnit: price, DeliveryDays: days}).Error)
	return s
}

// seedHistory inserts delivered jobs so the supplier carries a rating and an
// on-time record.
func seedHistory(t *testing.T, gdb *gorm.DB, f fixtures, supplierID uint, rating int, onTime bool) {
	t.Helper()
	accepted := time.Now().UTC().Add(-10 * 24 * time.Hour)
	delivered := accepted.Add(2 * 24 * time.Hour)
	if !onTime {
		delivered = accepted.Add(9 * 24 * time.Hour)
	}
	job := models.SupplierJob{
		QuoteID: 1, QuoteItemID: 1, SupplierID: supplierID, CustomerID: f.Customer.ID,
		SKUID: f.SKU.ID, Quantity: 1, PricePerUnit: 1, PromisedDeliveryDays: 3,
		Status:             models.JobDelivered,
		SupplierAcceptedAt: &accepted,
		DeliveredAt:        &delivered,
		SupplierRating:     &rating,
	}
	require.NoError(t, gdb.Create(&job).Error)
}

func TestRecommendSuppliersOrdersByComposite(t *testing.T) {
	gdb := setupTestDB(t)
	f := seedFixtures(t, gdb)
	ss := NewScoringService(gdb, gate.New())

	cheap := seedSupplierWithOffer(t, gdb, "CheapPrint", f.SKU.ID, 10, 5)
	fast := seedSupplierWithOffer(t, gdb, "FastPrint", f.SKU.ID, 20, 1)
	seedHistory(t, gdb, f, cheap.ID, 5, true)
	seedHistory(t, gdb, f, fast.ID, 5, true)

	recs, err := ss.RecommendSuppliers(t.Context(), staffActor(f.Employee.ID), f.SKU.ID, 100)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	// default weights favour price 40 vs delivery 20: the cheap supplier wins
	assert.Equal(t, cheap.ID, recs[0].SupplierID)
	assert.Equal(t, fast.ID, recs[1].SupplierID)
	assert.InDelta(t, 100, recs[0].PriceScore, 0.001)
	assert.InDelta(t, 100, recs[1].DeliveryScore, 0.001)
	assert.InDelta(t, 10*100, recs[0].TotalPrice, 0.001)
	assert.Greater(t, recs[0].Composite, recs[1].Composite)
}

func TestRecommendSuppliersNeutralScoreForNoHistory(t *testing.T) {
	gdb := setupTestDB(t)
	f := seedFixtures(t, gdb)
	ss := NewScoringService(gdb, gate.New())

	newcomer := seedSupplierWithOffer(t, gdb, "Newcomer", f.SKU.ID, 10, 3)

	recs, err := ss.RecommendSuppliers(t.Context(), staffActor(f.Employee.ID), f.SKU.ID, 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, newcomer.ID, recs[0].SupplierID)
	assert.InDelta(t, neutralScore, recs[0].RatingScore, 0.001)
	assert.InDelta(t, neutralScore, recs[0].ReliabilityScore, 0.001)
}

func TestRecommendSuppliersCancelledJobsDoNotCount(t *testing.T) {
	gdb := setupTestDB(t)
	f := seedFixtures(t, gdb)
	ss := NewScoringService(gdb, gate.New())

	s := seedSupplierWithOffer(t, gdb, "Flaky", f.SKU.ID, 10, 3)
	// a cancelled delivered-late job must not drag reliability down
	accepted := time.Now().UTC().Add(-10 * 24 * time.Hour)
	late := accepted.Add(9 * 24 * time.Hour)
	one := 1
	require.NoError(t, gdb.Create(&models.SupplierJob{
		QuoteID: 1, QuoteItemID: 1, SupplierID: s.ID, CustomerID: f.Customer.ID,
		SKUID: f.SKU.ID, Quantity: 1, PricePerUnit: 1, PromisedDeliveryDays: 3,
		Status: models.JobDelivered, SupplierAcceptedAt: &accepted, DeliveredAt: &late,
		SupplierRating: &one, IsCancelled: true,
	}).Error)

	recs, err := ss.RecommendSuppliers(t.Context(), staffActor(f.Employee.ID), f.SKU.ID, 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.InDelta(t, neutralScore, recs[0].RatingScore, 0.001)
	assert.InDelta(t, neutralScore, recs[0].ReliabilityScore, 0.001)
}

func TestRecommendSuppliersTieBreaks(t *testing.T) {
	gdb := setupTestDB(t)
	f := seedFixtures(t, gdb)
	ss := NewScoringService(gdb, gate.New())

	// identical offers and identical (empty) history: equal composites
	a := seedSupplierWithOffer(t, gdb, "Twin A", f.SKU.ID, 10, 3)
	b := seedSupplierWithOffer(t, gdb, "Twin B", f.SKU.ID, 10, 3)

	recs, err := ss.RecommendSuppliers(t.Context(), staffActor(f.Employee.ID), f.SKU.ID, 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.InDelta(t, recs[0].Composite, recs[1].Composite, 0.001)
	// equal composite and price: lowest supplier id first, deterministically
	assert.Equal(t, a.ID, recs[0].SupplierID)
	assert.Equal(t, b.ID, recs[1].SupplierID)
}

func TestRecommendSuppliersEmptyAndInvalid(t *testing.T) {
	gdb := setupTestDB(t)
	f := seedFixtures(t, gdb)
	ss := NewScoringService(gdb, gate.New())

	recs, err := ss.RecommendSuppliers(t.Context(), staffActor(f.Employee.ID), f.SKU.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, recs)

	_, err = ss.RecommendSuppliers(t.Context(), staffActor(f.Employee.ID), f.SKU.ID, 0)
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = ss.RecommendSuppliers(t.Context(), staffActor(f.Employee.ID), 9999, 10)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestRecommendByCategoryRequiresFullCoverage(t *testing.T) {
	gdb := setupTestDB(t)
	f := seedFixtures(t, gdb)
	ss := NewScoringService(gdb, gate.New())

	sku2 := models.SKU{ProductID: f.Product.ID, Size: "A4", UnitCount: 500}
	require.NoError(t, gdb.Create(&sku2).Error)

	full := seedSupplierWithOffer(t, gdb, "FullRange", f.SKU.ID, 12, 3)
	require.NoError(t, gdb.Create(&models.SupplierPrice{SupplierID: full.ID, SKUID: sku2.ID, PricePerUnit: 8, DeliveryDays: 3}).Error)
	// partial covers only one SKU of the bundle
	seedSupplierWithOffer(t, gdb, "Partial", f.SKU.ID, 5, 1)

	result, err := ss.RecommendByCategory(t.Context(), staffActor(f.Employee.ID),
		[]BundleItem{{SKUID: f.SKU.ID, Quantity: 100}, {SKUID: sku2.ID, Quantity: 50}})
	require.NoError(t, err)
	require.Contains(t, result, "flyers")

	recs := result["flyers"]
	require.Len(t, recs, 1)
	assert.Equal(t, full.ID, recs[0].SupplierID)
	assert.InDelta(t, 12*100+8*50, recs[0].TotalPrice, 0.001)
	// bundle delivery promise is the slowest SKU of the bundle
	assert.Equal(t, 3, recs[0].DeliveryDays)
}

func TestUpdateWeights(t *testing.T) {
	gdb := setupTestDB(t)
	f := seedFixtures(t, gdb)
	ss := NewScoringService(gdb, gate.New())

	// plain staff cannot touch weights
	_, err := ss.UpdateWeights(t.Context(), staffActor(f.Employee.ID), WeightsInput{Price: 25, Rating: 25, Delivery: 25, Reliability: 25})
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	// sum must be exactly 100
	_, err = ss.UpdateWeights(t.Context(), adminActor(f.Employee.ID), WeightsInput{Price: 50, Rating: 30, Delivery: 30, Reliability: 30})
	assert.ErrorIs(t, err, models.ErrValidation)
	_, err = ss.UpdateWeights(t.Context(), adminActor(f.Employee.ID), WeightsInput{Price: 120, Rating: -20, Delivery: 0, Reliability: 0})
	assert.ErrorIs(t, err, models.ErrValidation)

	updated, err := ss.UpdateWeights(t.Context(), adminActor(f.Employee.ID), WeightsInput{Price: 25, Rating: 25, Delivery: 25, Reliability: 25})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)
	assert.Equal(t, 25, updated.PriceWeight)

	current, err := ss.Weights(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 2, current.Version)
	assert.Equal(t, 25, current.ReliabilityWeight)
}

func TestWeightsInfluenceRanking(t *testing.T) {
	gdb := setupTestDB(t)
	f := seedFixtures(t, gdb)
	ss := NewScoringService(gdb, gate.New())

	cheap := seedSupplierWithOffer(t, gdb, "CheapPrint", f.SKU.ID, 10, 5)
	fast := seedSupplierWithOffer(t, gdb, "FastPrint", f.SKU.ID, 20, 1)

	// all weight on delivery: the fast supplier must win
	_, err := ss.UpdateWeights(t.Context(), adminActor(f.Employee.ID), WeightsInput{Price: 0, Rating: 0, Delivery: 100, Reliability: 0})
	require.NoError(t, err)

	recs, err := ss.RecommendSuppliers(t.Context(), staffActor(f.Employee.ID), f.SKU.ID, 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, fast.ID, recs[0].SupplierID)
	assert.Equal(t, cheap.ID, recs[1].SupplierID)
}

func TestWeightsValidateDirectly(t *testing.T) {
	good := models.SupplierWeightConfig{PriceWeight: 40, RatingWeight: 20, DeliveryWeight: 20, ReliabilityWeight: 20}
	if err := good.Validate(); err != nil {
		t.Fatalf("default split must validate: %v", err)
	}
	bad := models.SupplierWeightConfig{PriceWeight: 101, RatingWeight: -1, DeliveryWeight: 0, ReliabilityWeight: 0}
	if err := bad.Validate(); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected ErrValidation got %v", err)
	}
}
