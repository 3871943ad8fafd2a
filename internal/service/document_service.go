package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/docflow-hr/docflow-api/internal/models"
	appErrors "github.com/docflow-hr/docflow-api/pkg/errors"
	"github.com/docflow-hr/docflow-api/pkg/storage"
)

type documentStore interface {
	FindByID(ctx context.Context, orgID, id string) (*models.Document, error)
	List(ctx context.Context, orgID string, filter models.DocumentFilter) ([]models.Document, int, error)
	ListExpiring(ctx context.Context, orgID string, until time.Time) ([]models.Document, error)
	Create(ctx context.Context, document *models.Document) error
	Update(ctx context.Context, document *models.Document) error
}

type documentEmployeeReader interface {
	FindByID(ctx context.Context, orgID, id string) (*models.Employee, error)
}

// DocumentService manages document intake and the review workflow.
// Deletion scheduling is deliberately NOT here; that path belongs to the
// retention service, the single writer of deletion_scheduled_at.
type DocumentService struct {
	documents documentStore
	employees documentEmployeeReader
	blobs     *storage.LocalStorage
	signer    *storage.SignedURLSigner
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewDocumentService constructs the service.
func NewDocumentService(documents documentStore, employees documentEmployeeReader, blobs *storage.LocalStorage, signer *storage.SignedURLSigner, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *DocumentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &DocumentService{
		documents: documents,
		employees: employees,
		blobs:     blobs,
		signer:    signer,
		audit:     audit,
		validator: validate,
		logger:    logger,
	}
	svc.validator.RegisterValidation("doc_category", func(fl validator.FieldLevel) bool {
		return models.ValidDocumentCategory(fl.Field().String())
	})
	return svc
}

// CreateDocumentRequest describes the intake payload.
type CreateDocumentRequest struct {
	EmployeeID     string     `json:"employee_id" validate:"required"`
	Name           string     `json:"name" validate:"required,max=255"`
	Category       string     `json:"category" validate:"required,doc_category"`
	FileName       string     `json:"file_name" validate:"required"`
	FileType       string     `json:"file_type" validate:"required"`
	Notes          *string    `json:"notes" validate:"omitempty,max=2000"`
	ExpirationDate *time.Time `json:"expiration_date"`
	Content        []byte     `json:"-"`
	OrgID          string     `json:"-"`
	ActorID        string     `json:"-"`
	ActorEmail     *string    `json:"-"`
}

// Create stores a new document in pending_review status and emits a
// document.received audit event.
func (s *DocumentService) Create(ctx context.Context, req CreateDocumentRequest) (*models.Document, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid document payload")
	}

	if _, err := s.employees.FindByID(ctx, req.OrgID, req.EmployeeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFound("employee", req.EmployeeID)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee")
	}

	document := &models.Document{
		OrgID:          req.OrgID,
		EmployeeID:     req.EmployeeID,
		Name:           req.Name,
		Category:       models.DocumentCategory(req.Category),
		Status:         models.DocumentPendingReview,
		FileName:       req.FileName,
		FileType:       req.FileType,
		FileSize:       int64(len(req.Content)),
		Notes:          req.Notes,
		Version:        1,
		ExpirationDate: req.ExpirationDate,
	}

	if len(req.Content) > 0 && s.blobs != nil {
		relPath := path.Join(req.OrgID, req.EmployeeID, req.FileName)
		stored, err := s.blobs.Save(relPath, req.Content)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store document file")
		}
		document.StoragePath = stored
	}

	if err := s.documents.Create(ctx, document); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create document")
	}

	recordAudit(ctx, s.logger, s.audit, &models.AuditEvent{
		OrgID:      req.OrgID,
		EntityType: "document",
		EntityID:   document.ID,
		Action:     models.AuditDocumentReceived,
		ActorID:    req.ActorID,
		ActorEmail: req.ActorEmail,
		Metadata: models.JSONMap{
			"category":    string(document.Category),
			"employee_id": document.EmployeeID,
			"file_name":   document.FileName,
		},
	})
	return document, nil
}

// Get returns a single document.
func (s *DocumentService) Get(ctx context.Context, orgID, id string) (*models.Document, error) {
	document, err := s.documents.FindByID(ctx, orgID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFound("document", id)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}
	return document, nil
}

// List returns documents with pagination.
func (s *DocumentService) List(ctx context.Context, orgID string, filter models.DocumentFilter) ([]models.Document, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}
	documents, total, err := s.documents.List(ctx, orgID, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list documents")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return documents, pagination, nil
}

// UpdateDocumentRequest describes the review/metadata update payload.
type UpdateDocumentRequest struct {
	Name           *string    `json:"name" validate:"omitempty,max=255"`
	Status         *string    `json:"status" validate:"omitempty,oneof=pending_review approved rejected expired"`
	Notes          *string    `json:"notes" validate:"omitempty,max=2000"`
	ExpirationDate *time.Time `json:"expiration_date"`
	OrgID          string     `json:"-"`
	ActorID        string     `json:"-"`
}

// Update applies metadata and review-status changes and emits the
// matching audit event.
func (s *DocumentService) Update(ctx context.Context, id string, req UpdateDocumentRequest) (*models.Document, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid document payload")
	}
	document, err := s.Get(ctx, req.OrgID, id)
	if err != nil {
		return nil, err
	}

	action := models.AuditDocumentUpdated
	if req.Name != nil {
		document.Name = *req.Name
	}
	if req.Notes != nil {
		document.Notes = req.Notes
	}
	if req.ExpirationDate != nil {
		document.ExpirationDate = req.ExpirationDate
	}
	if req.Status != nil {
		document.Status = models.DocumentStatus(*req.Status)
		switch document.Status {
		case models.DocumentApproved:
			action = models.AuditDocumentApproved
		case models.DocumentRejected:
			action = models.AuditDocumentRejected
		}
	}

	if err := s.documents.Update(ctx, document); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update document")
	}

	recordAudit(ctx, s.logger, s.audit, &models.AuditEvent{
		OrgID:      req.OrgID,
		EntityType: "document",
		EntityID:   document.ID,
		Action:     action,
		ActorID:    req.ActorID,
		Metadata: models.JSONMap{
			"status":   string(document.Status),
			"category": string(document.Category),
		},
	})
	return document, nil
}

// Expiring returns documents whose expiration date falls within the
// given number of days from now.
func (s *DocumentService) Expiring(ctx context.Context, orgID string, withinDays int) ([]models.Document, error) {
	if withinDays <= 0 {
		withinDays = 30
	}
	until := time.Now().UTC().AddDate(0, 0, withinDays)
	documents, err := s.documents.ListExpiring(ctx, orgID, until)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list expiring documents")
	}
	return documents, nil
}

// DownloadURL returns a signed, short-lived token for fetching the
// document's file content.
func (s *DocumentService) DownloadURL(ctx context.Context, orgID, id string) (string, time.Time, error) {
	document, err := s.Get(ctx, orgID, id)
	if err != nil {
		return "", time.Time{}, err
	}
	if document.StoragePath == "" {
		return "", time.Time{}, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("document %s has no stored file", id))
	}
	token, expiresAt, err := s.signer.Generate(document.ID, document.StoragePath)
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download url")
	}
	return token, expiresAt, nil
}

// Download redeems a signed token for the stored file content. The HMAC
// signature is the sole credential here; expired or tampered tokens are
// rejected without touching storage.
func (s *DocumentService) Download(ctx context.Context, token string) (string, []byte, error) {
	_, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return "", nil, appErrors.Clone(appErrors.ErrUnauthorized, "download token is invalid or expired")
	}
	file, err := s.blobs.Open(relPath)
	if err != nil {
		return "", nil, appErrors.Clone(appErrors.ErrNotFound, "stored file is no longer available")
	}
	defer file.Close() //nolint:errcheck
	content, err := io.ReadAll(file)
	if err != nil {
		return "", nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read stored file")
	}
	return path.Base(relPath), content, nil
}
