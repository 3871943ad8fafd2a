package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/docflow-hr/docflow-api/internal/service"
	appErrors "github.com/docflow-hr/docflow-api/pkg/errors"
	"github.com/docflow-hr/docflow-api/pkg/response"
)

// OrganizationHandler exposes organization provisioning and lookup.
type OrganizationHandler struct {
	service *service.OrganizationService
}

// NewOrganizationHandler constructs an organization handler.
func NewOrganizationHandler(svc *service.OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{service: svc}
}

// Create godoc
// @Summary Create organization
// @Description Provisions the organization, its admin user and default retention policies
// @Tags Organizations
// @Accept json
// @Produce json
// @Param payload body service.CreateOrganizationRequest true "Organization payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /organizations [post]
func (h *OrganizationHandler) Create(c *gin.Context) {
	var req service.CreateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	org, admin, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"organization": org, "admin": admin})
}

// GetBySlug godoc
// @Summary Look up organization by slug
// @Tags Organizations
// @Produce json
// @Param slug path string true "Organization slug"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /organizations/by-slug/{slug} [get]
func (h *OrganizationHandler) GetBySlug(c *gin.Context) {
	org, err := h.service.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, org, nil)
}

// Current godoc
// @Summary Current organization
// @Tags Organizations
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /organizations/current [get]
func (h *OrganizationHandler) Current(c *gin.Context) {
	auth, ok := currentAuth(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	org, err := h.service.Get(c.Request.Context(), auth.OrgID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, org, nil)
}
