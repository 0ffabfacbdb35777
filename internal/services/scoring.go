package services

import (
	"context"
	"fmt"
	"sort"

	"gorm.io/gorm"

	"github.com/printdesk/printdesk/internal/gate"
	"github.com/printdesk/printdesk/internal/identity"
	"github.com/printdesk/printdesk/internal/models"
)

// neutralScore is the rating/reliability sub-score given to suppliers with no
// job history, so new suppliers compete instead of ranking last.
const neutralScore = 70.0

// ScoringService ranks candidate suppliers for a SKU or a category bundle
// using the process-wide weight configuration.
type ScoringService struct {
	DB   *gorm.DB
	Gate *gate.Gate
}

func NewScoringService(db *gorm.DB, g *gate.Gate) *ScoringService {
	return &ScoringService{DB: db, Gate: g}
}

// Recommendation is one ranked candidate. For bundles, TotalPrice sums the
// standing offers over the bundle's SKUs weighted by requested quantity, and
// the sub-scores are per-SKU averages.
type Recommendation struct {
	SupplierID       uint    `json:"supplier_id"`
	SupplierName     string  `json:"supplier_name"`
	TotalPrice       float64 `json:"total_price"`
	DeliveryDays     int     `json:"delivery_days"`
	PriceScore       float64 `json:"price_score"`
	RatingScore      float64 `json:"rating_score"`
	DeliveryScore    float64 `json:"delivery_score"`
	ReliabilityScore float64 `json:"reliability_score"`
	Composite        float64 `json:"composite"`
}

// BundleItem is one line of a category-bundle recommendation request.
type BundleItem struct {
	SKUID    uint `json:"sku_id"`
	Quantity int  `json:"quantity"`
}

// Weights returns the current configuration row.
func (s *ScoringService) Weights(ctx context.Context) (models.SupplierWeightConfig, error) {
	var w models.SupplierWeightConfig
	if err := s.DB.WithContext(ctx).Order("id").First(&w).Error; err != nil {
		return w, fmt.Errorf("weight config: %w", err)
	}
	return w, nil
}

// WeightsInput carries an admin weight update.
type WeightsInput struct {
	Price       int `json:"price"`
	Rating      int `json:"rating"`
	Delivery    int `json:"delivery"`
	Reliability int `json:"reliability"`
}

// UpdateWeights replaces the configuration. The sum-to-100 invariant is
// validated against the candidate row, and the write carries an optimistic
// version guard against concurrent admin edits.
func (s *ScoringService) UpdateWeights(ctx context.Context, actor identity.Actor, in WeightsInput) (models.SupplierWeightConfig, error) {
	var out models.SupplierWeightConfig
	if err := s.Gate.Authorize(ctx, actor, gate.ActionUpdateWeights, nil); err != nil {
		return out, err
	}
	candidate := models.SupplierWeightConfig{
		PriceWeight:       in.Price,
		RatingWeight:      in.Rating,
		DeliveryWeight:    in.Delivery,
		ReliabilityWeight: in.Reliability,
	}
	if err := candidate.Validate(); err != nil {
		return out, fmt.Errorf("weights must each be 0-100 and sum to 100: %w", err)
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.SupplierWeightConfig
		if err := tx.Order("id").First(&current).Error; err != nil {
			return err
		}
		res := tx.Model(&models.SupplierWeightConfig{}).
			Where("id = ? AND version = ?", current.ID, current.Version).
			Updates(map[string]any{
				"price_weight":       candidate.PriceWeight,
				"rating_weight":      candidate.RatingWeight,
				"delivery_weight":    candidate.DeliveryWeight,
				"reliability_weight": candidate.ReliabilityWeight,
				"version":            current.Version + 1,
				"updated_by":         actor.ID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("weight config changed concurrently: %w", models.ErrConflict)
		}
		out = current
		out.PriceWeight = candidate.PriceWeight
		out.RatingWeight = candidate.RatingWeight
		out.DeliveryWeight = candidate.DeliveryWeight
		out.ReliabilityWeight = candidate.ReliabilityWeight
		out.Version = current.Version + 1
		return nil
	})
	return out, err
}

// supplierHistory aggregates rated and delivered jobs per supplier. Cancelled
// jobs never count; their rows are kept only so the history survives.
type supplierHistory struct {
	ratingSum   int
	ratingCount int
	onTime      int
	delivered   int
}

func (h *supplierHistory) ratingScore() float64 {
	if h == nil || h.ratingCount == 0 {
		return neutralScore
	}
	avg := float64(h.ratingSum) / float64(h.ratingCount)
	return avg / 5 * 100
}

func (h *supplierHistory) reliabilityScore() float64 {
	if h == nil || h.delivered == 0 {
		return neutralScore
	}
	return float64(h.onTime) / float64(h.delivered) * 100
}

// histories loads every non-cancelled job that contributes to rating or
// reliability and aggregates in memory; the on-time judgement needs date
// arithmetic that is kept portable across postgres and sqlite.
func (s *ScoringService) histories(tx *gorm.DB) (map[uint]*supplierHistory, error) {
	var jobs []models.SupplierJob
	err := tx.Where("is_cancelled = ?", false).
		Where("supplier_rating IS NOT NULL OR status = ?", models.JobDelivered).
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	hist := make(map[uint]*supplierHistory)
	for i := range jobs {
		j := &jobs[i]
		h := hist[j.SupplierID]
		if h == nil {
			h = &supplierHistory{}
			hist[j.SupplierID] = h
		}
		if j.SupplierRating != nil {
			h.ratingSum += *j.SupplierRating
			h.ratingCount++
		}
		if onTime, ok := j.OnTime(); ok {
			h.delivered++
			if onTime {
				h.onTime++
			}
		}
	}
	return hist, nil
}

// offer is one supplier's standing price for one SKU, joined with the
// supplier's name.
type offer struct {
	SupplierID   uint
	Name         string
	SKUID        uint `gorm:"column:sku_id"`
	PricePerUnit float64
	DeliveryDays int
}

func (s *ScoringService) offersForSKUs(tx *gorm.DB, skuIDs []uint) ([]offer, error) {
	var rows []offer
	err := tx.Table("supplier_prices").
		Select("supplier_prices.supplier_id, suppliers.name, supplier_prices.sku_id, supplier_prices.price_per_unit, supplier_prices.delivery_days").
		Joins("JOIN suppliers ON suppliers.id = supplier_prices.supplier_id AND suppliers.is_active = ?", true).
		Where("supplier_prices.sku_id IN ?", skuIDs).
		Scan(&rows).Error
	return rows, err
}

// RecommendSuppliers ranks the suppliers holding a standing offer for one SKU.
func (s *ScoringService) RecommendSuppliers(ctx context.Context, actor identity.Actor, skuID uint, quantity int) ([]Recommendation, error) {
	if err := s.Gate.Authorize(ctx, actor, gate.ActionRecommend, nil); err != nil {
		return nil, err
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive: %w", models.ErrValidation)
	}
	tx := s.DB.WithContext(ctx)
	var sku models.SKU
	if err := tx.First(&sku, skuID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("sku %d: %w", skuID, models.ErrNotFound)
		}
		return nil, err
	}
	weights, err := s.Weights(ctx)
	if err != nil {
		return nil, err
	}
	offers, err := s.offersForSKUs(tx, []uint{skuID})
	if err != nil {
		return nil, err
	}
	if len(offers) == 0 {
		return []Recommendation{}, nil
	}
	hist, err := s.histories(tx)
	if err != nil {
		return nil, err
	}

	bundle := map[uint][]offer{}
	for _, o := range offers {
		bundle[o.SupplierID] = append(bundle[o.SupplierID], o)
	}
	return rank(bundle, map[uint]int{skuID: quantity}, hist, weights), nil
}

// RecommendByCategory groups the requested items by product category and
// ranks, per category, the suppliers able to fulfil the whole bundle. A
// supplier missing a standing offer for any SKU of the bundle is excluded
// from that category's ranking.
func (s *ScoringService) RecommendByCategory(ctx context.Context, actor identity.Actor, items []BundleItem) (map[string][]Recommendation, error) {
	if err := s.Gate.Authorize(ctx, actor, gate.ActionRecommend, nil); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("bundle needs at least one item: %w", models.ErrValidation)
	}
	tx := s.DB.WithContext(ctx)
	weights, err := s.Weights(ctx)
	if err != nil {
		return nil, err
	}
	hist, err := s.histories(tx)
	if err != nil {
		return nil, err
	}

	// resolve categories: sku -> category, category -> sku set
	quantities := map[uint]int{}
	skuIDs := make([]uint, 0, len(items))
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("item quantity must be positive: %w", models.ErrValidation)
		}
		quantities[it.SKUID] += it.Quantity
		skuIDs = append(skuIDs, it.SKUID)
	}
	var skus []models.SKU
	if err := tx.Preload("Product").Find(&skus, skuIDs).Error; err != nil {
		return nil, err
	}
	if len(skus) != len(quantities) {
		return nil, fmt.Errorf("unknown sku in bundle: %w", models.ErrNotFound)
	}
	byCategory := map[string][]uint{}
	for _, sku := range skus {
		byCategory[sku.Product.Category] = append(byCategory[sku.Product.Category], sku.ID)
	}

	result := make(map[string][]Recommendation, len(byCategory))
	for category, catSKUs := range byCategory {
		offers, err := s.offersForSKUs(tx, catSKUs)
		if err != nil {
			return nil, err
		}
		perSupplier := map[uint][]offer{}
		for _, o := range offers {
			perSupplier[o.SupplierID] = append(perSupplier[o.SupplierID], o)
		}
		// full-coverage candidates only
		for id, os := range perSupplier {
			if len(os) != len(catSKUs) {
				delete(perSupplier, id)
			}
		}
		catQty := map[uint]int{}
		for _, id := range catSKUs {
			catQty[id] = quantities[id]
		}
		result[category] = rank(perSupplier, catQty, hist, weights)
	}
	return result, nil
}

// rank scores full-coverage candidates. Per SKU: the cheapest candidate
// scores 100 on price and the fastest 100 on delivery, the rest scale
// inversely; per-SKU sub-scores are averaged across the bundle before the
// weights apply. Order is descending composite, ties broken by ascending
// total price then supplier id so rankings are reproducible.
func rank(candidates map[uint][]offer, quantities map[uint]int, hist map[uint]*supplierHistory, weights models.SupplierWeightConfig) []Recommendation {
	if len(candidates) == 0 {
		return []Recommendation{}
	}

	// per-SKU minimums across the candidate set
	minPrice := map[uint]float64{}
	minDays := map[uint]int{}
	for _, offers := range candidates {
		for _, o := range offers {
			if p, ok := minPrice[o.SKUID]; !ok || o.PricePerUnit < p {
				minPrice[o.SKUID] = o.PricePerUnit
			}
			if d, ok := minDays[o.SKUID]; !ok || o.DeliveryDays < d {
				minDays[o.SKUID] = o.DeliveryDays
			}
		}
	}

	recs := make([]Recommendation, 0, len(candidates))
	for supplierID, offers := range candidates {
		var priceScore, deliveryScore, totalPrice float64
		maxDays := 0
		for _, o := range offers {
			if o.PricePerUnit > 0 {
				priceScore += 100 * minPrice[o.SKUID] / o.PricePerUnit
			} else {
				priceScore += 100
			}
			if o.DeliveryDays > 0 {
				deliveryScore += 100 * float64(minDays[o.SKUID]) / float64(o.DeliveryDays)
			} else {
				deliveryScore += 100
			}
			totalPrice += o.PricePerUnit * float64(quantities[o.SKUID])
			if o.DeliveryDays > maxDays {
				maxDays = o.DeliveryDays
			}
		}
		n := float64(len(offers))
		priceScore /= n
		deliveryScore /= n

		h := hist[supplierID]
		rec := Recommendation{
			SupplierID:       supplierID,
			SupplierName:     offers[0].Name,
			TotalPrice:       totalPrice,
			DeliveryDays:     maxDays,
			PriceScore:       priceScore,
			RatingScore:      h.ratingScore(),
			DeliveryScore:    deliveryScore,
			ReliabilityScore: h.reliabilityScore(),
		}
		rec.Composite = (rec.PriceScore*float64(weights.PriceWeight) +
			rec.RatingScore*float64(weights.RatingWeight) +
			rec.DeliveryScore*float64(weights.DeliveryWeight) +
			rec.ReliabilityScore*float64(weights.ReliabilityWeight)) / 100
		recs = append(recs, rec)
	}

	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Composite != recs[j].Composite {
			return recs[i].Composite > recs[j].Composite
		}
		if recs[i].TotalPrice != recs[j].TotalPrice {
			return recs[i].TotalPrice < recs[j].TotalPrice
		}
		return recs[i].SupplierID < recs[j].SupplierID
	})
	return recs
}
