package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/docflow-hr/docflow-api/internal/models"
	appErrors "github.com/docflow-hr/docflow-api/pkg/errors"
	"github.com/docflow-hr/docflow-api/pkg/export"
)

type auditLedger interface {
	Insert(ctx context.Context, event *models.AuditEvent) error
	Query(ctx context.Context, orgID string, filter models.AuditEventFilter) ([]models.AuditEvent, int, error)
}

// auditRecorder is the sink side of the ledger consumed by mutating
// services. Implemented by AuditService.
type auditRecorder interface {
	Emit(ctx context.Context, event *models.AuditEvent) error
}

type auditMetrics interface {
	AuditWriteFailed()
}

// recordAudit appends the event best-effort: a ledger write failure is
// logged at warning level and never unwinds the primary operation that
// triggered it. Services that need transactional pairing instead swap
// this helper out.
func recordAudit(ctx context.Context, logger *zap.Logger, sink auditRecorder, event *models.AuditEvent) {
	if sink == nil {
		return
	}
	if err := sink.Emit(ctx, event); err != nil {
		logger.Warn("audit event write failed",
			zap.String("action", event.Action),
			zap.String("entity_type", event.EntityType),
			zap.String("entity_id", event.EntityID),
			zap.Error(err))
	}
}

// AuditService manages the append-only audit trail. Events are immutable:
// the service exposes emit, query and export only.
type AuditService struct {
	repo    auditLedger
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	metrics auditMetrics
	logger  *zap.Logger
}

// NewAuditService constructs the service.
func NewAuditService(repo auditLedger, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{
		repo:   repo,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
		logger: logger,
	}
}

// SetMetrics attaches the write failure counter. Optional.
func (s *AuditService) SetMetrics(m auditMetrics) {
	s.metrics = m
}

// Emit appends one audit event, assigning id and timestamp when absent.
func (s *AuditService) Emit(ctx context.Context, event *models.AuditEvent) error {
	if event.OrgID == "" || event.EntityType == "" || event.Action == "" {
		return appErrors.Validation("audit_event", "org_id, entity_type and action are required")
	}
	if err := s.repo.Insert(ctx, event); err != nil {
		if s.metrics != nil {
			s.metrics.AuditWriteFailed()
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to write audit event")
	}
	return nil
}

// Query returns audit events with pagination.
func (s *AuditService) Query(ctx context.Context, orgID string, filter models.AuditEventFilter) ([]models.AuditEvent, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}
	events, total, err := s.repo.Query(ctx, orgID, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to query audit events")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return events, pagination, nil
}

// DocumentTrail returns the full audit history of one document.
func (s *AuditService) DocumentTrail(ctx context.Context, orgID, documentID string, page, pageSize int) ([]models.AuditEvent, *models.Pagination, error) {
	filter := models.AuditEventFilter{
		EntityType: "document",
		EntityID:   documentID,
		Page:       page,
		PageSize:   pageSize,
	}
	return s.Query(ctx, orgID, filter)
}

// Export formats supported by the audit trail exporter.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

// Export renders the filtered audit trail as CSV or PDF bytes.
func (s *AuditService) Export(ctx context.Context, orgID string, filter models.AuditEventFilter, format string) ([]byte, string, error) {
	filter.Page = 1
	if filter.PageSize <= 0 {
		filter.PageSize = 500
	}
	events, _, err := s.repo.Query(ctx, orgID, filter)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to query audit events")
	}

	data := export.Dataset{
		Headers: []string{"timestamp", "action", "entity_type", "entity_id", "actor_id", "actor_email", "metadata"},
	}
	for _, event := range events {
		row := map[string]string{
			"timestamp":   event.CreatedAt.UTC().Format(time.RFC3339),
			"action":      event.Action,
			"entity_type": event.EntityType,
			"entity_id":   event.EntityID,
			"actor_id":    event.ActorID,
		}
		if event.ActorEmail != nil {
			row["actor_email"] = *event.ActorEmail
		}
		if len(event.Metadata) > 0 {
			if raw, err := json.Marshal(event.Metadata); err == nil {
				row["metadata"] = string(raw)
			}
		}
		data.Rows = append(data.Rows, row)
	}

	switch format {
	case ExportFormatCSV:
		payload, err := s.csv.Render(data)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return payload, "text/csv", nil
	case ExportFormatPDF:
		title := fmt.Sprintf("Audit Trail %s", time.Now().UTC().Format("2006-01-02"))
		payload, err := s.pdf.Render(data, title)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Validation("format", "export format must be csv or pdf")
	}
}
