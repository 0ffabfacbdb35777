package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/printdesk/printdesk/internal/gate"
	"github.com/printdesk/printdesk/internal/identity"
	"github.com/printdesk/printdesk/internal/models"
)

// FulfillmentService advances supplier jobs from pending through delivered,
// driven by supplier and courier actions, and promotes the owning quote to
// ready once every non-cancelled job is ready.
type FulfillmentService struct {
	DB       *gorm.DB
	Gate     *gate.Gate
	Notifier Notifier
}

func NewFulfillmentService(db *gorm.DB, g *gate.Gate, n Notifier) *FulfillmentService {
	return &FulfillmentService{DB: db, Gate: g, Notifier: n}
}

func loadJob(tx *gorm.DB, id uint) (*models.SupplierJob, error) {
	var j models.SupplierJob
	if err := tx.First(&j, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("job %d: %w", id, models.ErrNotFound)
		}
		return nil, err
	}
	return &j, nil
}

// applyJobTransition writes a job status with the same optimistic guard shape
// as quote transitions: a double submission re-reads the already-advanced
// status and fails with ErrInvalidTransition; losing a genuine race surfaces
// as ErrConflict.
func applyJobTransition(tx *gorm.DB, j *models.SupplierJob, from, to models.JobStatus, updates map[string]any) error {
	if j.IsCancelled || j.Status != from {
		return fmt.Errorf("job %d: %s -> %s: %w", j.ID, j.Status, to, models.ErrInvalidTransition)
	}
	if updates == nil {
		updates = map[string]any{}
	}
	updates["status"] = to
	res := tx.Model(&models.SupplierJob{}).
		Where("id = ? AND status = ? AND is_cancelled = ?", j.ID, from, false).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("job %d status changed concurrently: %w", j.ID, models.ErrConflict)
	}
	j.Status = to
	return nil
}

// AcceptJob: supplier (or staff on their behalf) takes the job on.
func (s *FulfillmentService) AcceptJob(ctx context.Context, actor identity.Actor, jobID uint) (*models.SupplierJob, error) {
	var job *models.SupplierJob
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if job, err = loadJob(tx, jobID); err != nil {
			return err
		}
		if err := s.Gate.Authorize(ctx, actor, gate.ActionAcceptJob, job); err != nil {
			return err
		}
		now := time.Now().UTC()
		if err := applyJobTransition(tx, job, models.JobPending, models.JobAccepted, map[string]any{"supplier_accepted_at": now}); err != nil {
			return err
		}
		job.SupplierAcceptedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	notify(s.Notifier, "job.accepted", map[string]any{"job_id": job.ID, "supplier_id": job.SupplierID})
	return job, nil
}

// MarkJobReady: supplier signals the work is produced and awaiting pickup.
// If this completes the quote's set of non-cancelled jobs, the quote promotes
// to ready in the same transaction.
func (s *FulfillmentService) MarkJobReady(ctx context.Context, actor identity.Actor, jobID uint) (*models.SupplierJob, error) {
	var job *models.SupplierJob
	var quoteReady bool
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if job, err = loadJob(tx, jobID); err != nil {
			return err
		}
		if err := s.Gate.Authorize(ctx, actor, gate.ActionReadyJob, job); err != nil {
			return err
		}
		now := time.Now().UTC()
		if err := applyJobTransition(tx, job, models.JobAccepted, models.JobReady, map[string]any{"supplier_ready_at": now}); err != nil {
			return err
		}
		job.SupplierReadyAt = &now
		if quoteReady, err = promoteQuoteIfReady(tx, job.QuoteID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	notify(s.Notifier, "job.ready", map[string]any{"job_id": job.ID})
	if quoteReady {
		notify(s.Notifier, "quote.ready", map[string]any{"quote_id": job.QuoteID})
	}
	return job, nil
}

// MarkPickedUp: courier collects the job from the supplier.
func (s *FulfillmentService) MarkPickedUp(ctx context.Context, actor identity.Actor, jobID uint) (*models.SupplierJob, error) {
	var job *models.SupplierJob
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if job, err = loadJob(tx, jobID); err != nil {
			return err
		}
		if err := s.Gate.Authorize(ctx, actor, gate.ActionPickupJob, job); err != nil {
			return err
		}
		now := time.Now().UTC()
		if err := applyJobTransition(tx, job, models.JobReady, models.JobPickedUp, map[string]any{
			"picked_up_at": now,
			"picked_up_by": actor.ID,
		}); err != nil {
			return err
		}
		job.PickedUpAt, job.PickedUpBy = &now, &actor.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	notify(s.Notifier, "job.picked_up", map[string]any{"job_id": job.ID, "courier_id": actor.ID})
	return job, nil
}

// MarkDelivered: courier hands the job to the customer.
func (s *FulfillmentService) MarkDelivered(ctx context.Context, actor identity.Actor, jobID uint) (*models.SupplierJob, error) {
	var job *models.SupplierJob
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if job, err = loadJob(tx, jobID); err != nil {
			return err
		}
		if err := s.Gate.Authorize(ctx, actor, gate.ActionDeliverJob, job); err != nil {
			return err
		}
		now := time.Now().UTC()
		if err := applyJobTransition(tx, job, models.JobPickedUp, models.JobDelivered, map[string]any{
			"delivered_at": now,
			"delivered_by": actor.ID,
		}); err != nil {
			return err
		}
		job.DeliveredAt, job.DeliveredBy = &now, &actor.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	notify(s.Notifier, "job.delivered", map[string]any{"job_id": job.ID, "courier_id": actor.ID})
	return job, nil
}

// CancelJob: staff withdraw a job any time before pickup. The row stays, with
// cancellation metadata, so supplier history survives; its attachments become
// inaccessible. Cancelling may complete the owning quote's ready set.
func (s *FulfillmentService) CancelJob(ctx context.Context, actor identity.Actor, jobID uint, reason string) (*models.SupplierJob, error) {
	if err := s.Gate.Authorize(ctx, actor, gate.ActionCancelJob, nil); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("cancellation reason must not be empty: %w", models.ErrValidation)
	}
	var job *models.SupplierJob
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if job, err = loadJob(tx, jobID); err != nil {
			return err
		}
		if job.IsCancelled || job.FulfillmentStarted() {
			return fmt.Errorf("job %d: cancel in %s: %w", job.ID, job.Status, models.ErrInvalidTransition)
		}
		now := time.Now().UTC()
		res := tx.Model(&models.SupplierJob{}).
			Where("id = ? AND is_cancelled = ? AND status IN ?", job.ID, false,
				[]models.JobStatus{models.JobPending, models.JobAccepted, models.JobReady}).
			Updates(map[string]any{
				"is_cancelled":     true,
				"cancelled_at":     now,
				"cancelled_reason": reason,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("job %d changed concurrently: %w", job.ID, models.ErrConflict)
		}
		job.IsCancelled, job.CancelledAt, job.CancelledReason = true, &now, &reason
		// a cancellation can leave every remaining job ready
		if _, err := promoteQuoteIfReady(tx, job.QuoteID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	notify(s.Notifier, "job.cancelled", map[string]any{"job_id": job.ID, "reason": reason})
	return job, nil
}

// RateJob: staff grade the supplier 1–5 after delivery; the grade feeds the
// scoring engine's historical aggregates.
func (s *FulfillmentService) RateJob(ctx context.Context, actor identity.Actor, jobID uint, rating int) (*models.SupplierJob, error) {
	if err := s.Gate.Authorize(ctx, actor, gate.ActionRateJob, nil); err != nil {
		return nil, err
	}
	if rating < 1 || rating > 5 {
		return nil, fmt.Errorf("supplier rating must be 1-5: %w", models.ErrValidation)
	}
	var job *models.SupplierJob
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if job, err = loadJob(tx, jobID); err != nil {
			return err
		}
		if job.IsCancelled || job.Status != models.JobDelivered {
			return fmt.Errorf("job %d: rate in %s: %w", job.ID, job.Status, models.ErrInvalidTransition)
		}
		if err := tx.Model(job).Update("supplier_rating", rating).Error; err != nil {
			return err
		}
		job.SupplierRating = &rating
		return nil
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

// Get returns one job.
func (s *FulfillmentService) Get(ctx context.Context, jobID uint) (*models.SupplierJob, error) {
	return loadJob(s.DB.WithContext(ctx), jobID)
}

// promoteQuoteIfReady moves an in_production quote to ready once every one of
// its non-cancelled jobs is ready or beyond. Runs inside the transaction of
// the job transition that may have completed the set.
func promoteQuoteIfReady(tx *gorm.DB, quoteID uint) (bool, error) {
	var quote models.Quote
	if err := tx.First(&quote, quoteID).Error; err != nil {
		return false, err
	}
	if quote.Status != models.QuoteInProduction {
		return false, nil
	}
	var open, behind int64
	if err := tx.Model(&models.SupplierJob{}).
		Where("quote_id = ? AND is_cancelled = ?", quoteID, false).
		Count(&open).Error; err != nil {
		return false, err
	}
	if open == 0 {
		return false, nil
	}
	if err := tx.Model(&models.SupplierJob{}).
		Where("quote_id = ? AND is_cancelled = ? AND status IN ?", quoteID, false,
			[]models.JobStatus{models.JobPending, models.JobAccepted}).
		Count(&behind).Error; err != nil {
		return false, err
	}
	if behind > 0 {
		return false, nil
	}
	if err := applyTransition(tx, &quote, models.QuoteReady, nil); err != nil {
		return false, err
	}
	return true, nil
}
