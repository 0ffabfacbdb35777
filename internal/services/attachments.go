package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/printdesk/printdesk/internal/gate"
	"github.com/printdesk/printdesk/internal/identity"
	"github.com/printdesk/printdesk/internal/models"
)

// FileValidator is the file-validation collaborator consulted before an
// attachment is accepted onto a quote (format/size rules live outside the
// core).
type FileValidator interface {
	Validate(fileName, contentType string, sizeBytes int64) error
}

// AcceptAllFiles is the default validator for development and tests.
type AcceptAllFiles struct{}

func (AcceptAllFiles) Validate(string, string, int64) error { return nil }

// AttachmentService stores attachment metadata; the bytes live with an
// external storage collaborator addressed by StorageKey.
type AttachmentService struct {
	DB        *gorm.DB
	Gate      *gate.Gate
	Validator FileValidator
}

func NewAttachmentService(db *gorm.DB, g *gate.Gate, v FileValidator) *AttachmentService {
	return &AttachmentService{DB: db, Gate: g, Validator: v}
}

// AttachmentInput describes one upload.
type AttachmentInput struct {
	QuoteID       uint   `json:"quote_id"`
	QuoteItemID   *uint  `json:"quote_item_id"`
	SupplierJobID *uint  `json:"supplier_job_id"`
	FileName      string `json:"file_name"`
	ContentType   string `json:"content_type"`
	SizeBytes     int64  `json:"size_bytes"`
}

// Add validates the file with the collaborator and records the attachment.
func (s *AttachmentService) Add(ctx context.Context, actor identity.Actor, in AttachmentInput) (*models.Attachment, error) {
	tx := s.DB.WithContext(ctx)
	quote, err := loadQuote(tx, in.QuoteID)
	if err != nil {
		return nil, err
	}
	if err := s.Gate.Authorize(ctx, actor, gate.ActionAddAttachment, quote); err != nil {
		return nil, err
	}
	if in.FileName == "" {
		return nil, fmt.Errorf("file name must not be empty: %w", models.ErrValidation)
	}
	if err := s.Validator.Validate(in.FileName, in.ContentType, in.SizeBytes); err != nil {
		return nil, fmt.Errorf("file rejected: %v: %w", err, models.ErrValidation)
	}
	att := models.Attachment{
		QuoteID:       in.QuoteID,
		QuoteItemID:   in.QuoteItemID,
		SupplierJobID: in.SupplierJobID,
		FileName:      in.FileName,
		ContentType:   in.ContentType,
		SizeBytes:     in.SizeBytes,
		StorageKey:    uuid.NewString(),
		UploadedBy:    actor.ID,
	}
	if err := tx.Create(&att).Error; err != nil {
		return nil, err
	}
	return &att, nil
}

// ListForJob returns a job's attachments. A cancelled job's attachments are
// revoked for everyone; the rows stay but the query refuses.
func (s *AttachmentService) ListForJob(ctx context.Context, actor identity.Actor, jobID uint) ([]models.Attachment, error) {
	tx := s.DB.WithContext(ctx)
	job, err := loadJob(tx, jobID)
	if err != nil {
		return nil, err
	}
	if err := s.Gate.Authorize(ctx, actor, gate.ActionViewAttachments, job); err != nil {
		return nil, err
	}
	if job.IsCancelled {
		return nil, fmt.Errorf("job %d is cancelled, attachments revoked: %w", jobID, models.ErrUnauthorized)
	}
	var atts []models.Attachment
	if err := tx.Where("supplier_job_id = ?", jobID).Order("id").Find(&atts).Error; err != nil {
		return nil, err
	}
	return atts, nil
}

// ListForQuote returns a quote's attachments, excluding those scoped to
// cancelled jobs.
func (s *AttachmentService) ListForQuote(ctx context.Context, actor identity.Actor, quoteID uint) ([]models.Attachment, error) {
	tx := s.DB.WithContext(ctx)
	quote, err := loadQuote(tx, quoteID)
	if err != nil {
		return nil, err
	}
	if err := s.Gate.Authorize(ctx, actor, gate.ActionViewAttachments, quote); err != nil {
		return nil, err
	}
	var atts []models.Attachment
	err = tx.Where("quote_id = ?", quoteID).
		Where("supplier_job_id IS NULL OR supplier_job_id NOT IN (?)",
			tx.Model(&models.SupplierJob{}).Select("id").Where("is_cancelled = ?", true)).
		Order("id").
		Find(&atts).Error
	if err != nil {
		return nil, err
	}
	return atts, nil
}
