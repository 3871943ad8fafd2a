package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/docflow-hr/docflow-api/internal/models"
	"github.com/docflow-hr/docflow-api/internal/service"
	appErrors "github.com/docflow-hr/docflow-api/pkg/errors"
	"github.com/docflow-hr/docflow-api/pkg/response"
)

// EmployeeHandler exposes employee CRUD and termination endpoints.
type EmployeeHandler struct {
	service *service.EmployeeService
}

// NewEmployeeHandler constructs an employee handler.
func NewEmployeeHandler(svc *service.EmployeeService) *EmployeeHandler {
	return &EmployeeHandler{service: svc}
}

// List godoc
// @Summary List employees
// @Tags Employees
// @Produce json
// @Param department query string false "Filter by department"
// @Param status query string false "Filter by employment status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /employees [get]
func (h *EmployeeHandler) List(c *gin.Context) {
	auth, ok := currentAuth(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	filter := models.EmployeeFilter{
		Department: c.Query("department"),
		Status:     models.EmploymentStatus(c.Query("status")),
		Page:       queryInt(c, "page", 1),
		PageSize:   queryInt(c, "limit", 50),
	}
	employees, pagination, err := h.service.List(c.Request.Context(), auth.OrgID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, employees, pagination)
}

// Get godoc
// @Summary Get employee
// @Tags Employees
// @Produce json
// @Param id path string true "Employee ID"
// @Success 200 {object} response.Envelope
// @Router /employees/{id} [get]
func (h *EmployeeHandler) Get(c *gin.Context) {
	auth, ok := currentAuth(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	employee, err := h.service.Get(c.Request.Context(), auth.OrgID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, employee, nil)
}

// Create godoc
// @Summary Create employee
// @Tags Employees
// @Accept json
// @Produce json
// @Param payload body service.CreateEmployeeRequest true "Employee payload"
// @Success 201 {object} response.Envelope
// @Router /employees [post]
func (h *EmployeeHandler) Create(c *gin.Context) {
	auth, ok := currentAuth(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req.OrgID = auth.OrgID
	req.ActorID = auth.ActorID
	employee, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, employee)
}

// Update godoc
// @Summary Update employee
// @Tags Employees
// @Accept json
// @Produce json
// @Param id path string true "Employee ID"
// @Param payload body service.UpdateEmployeeRequest true "Employee payload"
// @Success 200 {object} response.Envelope
// @Router /employees/{id} [put]
func (h *EmployeeHandler) Update(c *gin.Context) {
	auth, ok := currentAuth(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.UpdateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req.OrgID = auth.OrgID
	req.ActorID = auth.ActorID
	employee, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, employee, nil)
}

// Terminate godoc
// @Summary Terminate employee
// @Description Record the employment end date and start the retention clock
// @Tags Employees
// @Accept json
// @Produce json
// @Param id path string true "Employee ID"
// @Param payload body object true "Termination payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /employees/{id}/terminate [post]
func (h *EmployeeHandler) Terminate(c *gin.Context) {
	auth, ok := currentAuth(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var payload struct {
		TerminationDate *time.Time `json:"termination_date"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid termination payload"))
		return
	}
	at := time.Now().UTC()
	if payload.TerminationDate != nil {
		at = *payload.TerminationDate
	}
	employee, err := h.service.Terminate(c.Request.Context(), auth.OrgID, c.Param("id"), auth.ActorID, at)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, employee, nil)
}
