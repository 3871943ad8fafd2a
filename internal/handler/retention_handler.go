package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/docflow-hr/docflow-api/internal/service"
	appErrors "github.com/docflow-hr/docflow-api/pkg/errors"
	"github.com/docflow-hr/docflow-api/pkg/response"
)

// RetentionHandler exposes retention calculation, deletion scheduling
// and policy management endpoints.
type RetentionHandler struct {
	service *service.RetentionService
}

// NewRetentionHandler constructs a retention handler.
func NewRetentionHandler(svc *service.RetentionService) *RetentionHandler {
	return &RetentionHandler{service: svc}
}

// Calculate godoc
// @Summary Calculate retention for a document
// @Description Derives the candidate deletion date without persisting anything
// @Tags Retention
// @Produce json
// @Param employee_id query string true "Employee ID"
// @Param document_id query string true "Document ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /retention/calculate [get]
func (h *RetentionHandler) Calculate(c *gin.Context) {
	auth, ok := currentAuth(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	employeeID := c.Query("employee_id")
	documentID := c.Query("document_id")
	if employeeID == "" || documentID == "" {
		response.Error(c, appErrors.Validation("query", "employee_id and document_id are required"))
		return
	}
	calc, err := h.service.Calculate(c.Request.Context(), auth.OrgID, employeeID, documentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, calc, nil)
}

// ScheduleDeletion godoc
// @Summary Schedule document deletion
// @Description Rejected with 409 while any active legal hold matches the document
// @Tags Retention
// @Accept json
// @Produce json
// @Param payload body service.ScheduleDeletionRequest true "Scheduling payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /retention/schedule-deletion [post]
func (h *RetentionHandler) ScheduleDeletion(c *gin.Context) {
	auth, ok := currentAuth(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.ScheduleDeletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req.OrgID = auth.OrgID
	req.ActorID = auth.ActorID
	schedule, err := h.service.ScheduleDeletion(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// ListPolicies godoc
// @Summary List retention policies
// @Tags Retention
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /retention/policies [get]
func (h *RetentionHandler) ListPolicies(c *gin.Context) {
	auth, ok := currentAuth(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	policies, err := h.service.ListPolicies(c.Request.Context(), auth.OrgID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, policies, nil)
}

// GetPolicy godoc
// @Summary Get retention policy
// @Tags Retention
// @Produce json
// @Param state path string true "Two letter state code"
// @Param category path string true "Document category"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /retention/policies/{state}/{category} [get]
func (h *RetentionHandler) GetPolicy(c *gin.Context) {
	auth, ok := currentAuth(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	policy, err := h.service.GetPolicy(c.Request.Context(), auth.OrgID, c.Param("state"), c.Param("category"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, policy, nil)
}

// CreatePolicy godoc
// @Summary Create retention policy
// @Description Applies to future calculations only
// @Tags Retention
// @Accept json
// @Produce json
// @Param payload body service.CreatePolicyRequest true "Policy payload"
// @Success 201 {object} response.Envelope
// @Router /retention/policies [post]
func (h *RetentionHandler) CreatePolicy(c *gin.Context) {
	auth, ok := currentAuth(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreatePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req.OrgID = auth.OrgID
	req.ActorID = auth.ActorID
	policy, err := h.service.CreatePolicy(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, policy)
}
