package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/docflow-hr/docflow-api/internal/models"
	"github.com/docflow-hr/docflow-api/internal/service"
	appErrors "github.com/docflow-hr/docflow-api/pkg/errors"
	"github.com/docflow-hr/docflow-api/pkg/response"
)

// LegalHoldHandler exposes hold lifecycle and document status endpoints.
type LegalHoldHandler struct {
	service *service.LegalHoldService
}

// NewLegalHoldHandler constructs a legal hold handler.
func NewLegalHoldHandler(svc *service.LegalHoldService) *LegalHoldHandler {
	return &LegalHoldHandler{service: svc}
}

// List godoc
// @Summary List legal holds
// @Tags LegalHolds
// @Produce json
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /legal-holds [get]
func (h *LegalHoldHandler) List(c *gin.Context) {
	auth, ok := currentAuth(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	filter := models.LegalHoldFilter{
		Status:   models.LegalHoldStatus(c.Query("status")),
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "limit", 50),
	}
	holds, pagination, err := h.service.List(c.Request.Context(), auth.OrgID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, holds, pagination)
}

// Create godoc
// @Summary Create legal hold
// @Tags LegalHolds
// @Accept json
// @Produce json
// @Param payload body service.CreateLegalHoldRequest true "Hold payload"
// @Success 201 {object} response.Envelope
// @Router /legal-holds [post]
func (h *LegalHoldHandler) Create(c *gin.Context) {
	auth, ok := currentAuth(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateLegalHoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req.OrgID = auth.OrgID
	req.ActorID = auth.ActorID
	hold, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, hold)
}

// Release godoc
// @Summary Release legal hold
// @Description One-way transition from active to released
// @Tags LegalHolds
// @Accept json
// @Produce json
// @Param id path string true "Hold ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /legal-holds/{id}/release [post]
func (h *LegalHoldHandler) Release(c *gin.Context) {
	auth, ok := currentAuth(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var payload struct {
		Reason *string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&payload)

	result, err := h.service.Release(c.Request.Context(), auth.OrgID, c.Param("id"), auth.ActorID, payload.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// DocumentStatus godoc
// @Summary Hold status for a document
// @Description Reports whether the document may be deleted and which active holds protect it
// @Tags LegalHolds
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Router /documents/{id}/hold-status [get]
func (h *LegalHoldHandler) DocumentStatus(c *gin.Context) {
	auth, ok := currentAuth(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	status, err := h.service.DocumentStatus(c.Request.Context(), auth.OrgID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}
