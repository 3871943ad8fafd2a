package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/docflow-hr/docflow-api/internal/models"
	"github.com/docflow-hr/docflow-api/internal/service"
	appErrors "github.com/docflow-hr/docflow-api/pkg/errors"
	"github.com/docflow-hr/docflow-api/pkg/response"
)

// AuditHandler exposes read and export access to the audit trail.
type AuditHandler struct {
	service *service.AuditService
}

// NewAuditHandler constructs an audit handler.
func NewAuditHandler(svc *service.AuditService) *AuditHandler {
	return &AuditHandler{service: svc}
}

func auditFilterFromQuery(c *gin.Context) models.AuditEventFilter {
	filter := models.AuditEventFilter{
		EntityType: c.Query("entity_type"),
		EntityID:   c.Query("entity_id"),
		Action:     c.Query("action"),
		ActorID:    c.Query("actor_id"),
		Page:       queryInt(c, "page", 1),
		PageSize:   queryInt(c, "limit", 50),
	}
	if raw := c.Query("date_from"); raw != "" {
		if t, err := models.ParseFlexTime(raw); err == nil {
			filter.DateFrom = &t
		}
	}
	if raw := c.Query("date_to"); raw != "" {
		if t, err := models.ParseFlexTime(raw); err == nil {
			filter.DateTo = &t
		}
	}
	return filter
}

// Query godoc
// @Summary Query audit events
// @Tags Audit
// @Produce json
// @Param entity_type query string false "Filter by entity type"
// @Param entity_id query string false "Filter by entity id"
// @Param action query string false "Filter by action"
// @Param actor_id query string false "Filter by actor"
// @Param date_from query string false "Events at or after this time"
// @Param date_to query string false "Events at or before this time"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /audit-events [get]
func (h *AuditHandler) Query(c *gin.Context) {
	auth, ok := currentAuth(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	events, pagination, err := h.service.Query(c.Request.Context(), auth.OrgID, auditFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, pagination)
}

// DocumentTrail godoc
// @Summary Audit history of a document
// @Tags Audit
// @Produce json
// @Param id path string true "Document ID"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /documents/{id}/audit-trail [get]
func (h *AuditHandler) DocumentTrail(c *gin.Context) {
	auth, ok := currentAuth(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	events, pagination, err := h.service.DocumentTrail(c.Request.Context(), auth.OrgID, c.Param("id"),
		queryInt(c, "page", 1), queryInt(c, "limit", 50))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, pagination)
}

// Export godoc
// @Summary Export audit trail
// @Description Streams the filtered trail as a CSV or PDF attachment
// @Tags Audit
// @Produce text/csv
// @Produce application/pdf
// @Param format query string true "csv or pdf"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /audit-events/export [get]
func (h *AuditHandler) Export(c *gin.Context) {
	auth, ok := currentAuth(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	format := c.DefaultQuery("format", service.ExportFormatCSV)
	payload, contentType, err := h.service.Export(c.Request.Context(), auth.OrgID, auditFilterFromQuery(c), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	fileName := fmt.Sprintf("audit-trail-%s.%s", time.Now().UTC().Format("2006-01-02"), format)
	response.Blob(c, contentType, fileName, payload)
}
