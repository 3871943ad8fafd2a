package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/docflow-hr/docflow-api/internal/models"
	"github.com/docflow-hr/docflow-api/internal/service"
	appErrors "github.com/docflow-hr/docflow-api/pkg/errors"
	"github.com/docflow-hr/docflow-api/pkg/response"
)

// DocumentHandler exposes document intake, review and download endpoints.
type DocumentHandler struct {
	service     *service.DocumentService
	maxFileSize int64
}

// NewDocumentHandler constructs a document handler.
func NewDocumentHandler(svc *service.DocumentService, maxFileSize int64) *DocumentHandler {
	if maxFileSize <= 0 {
		maxFileSize = 25 * 1024 * 1024
	}
	return &DocumentHandler{service: svc, maxFileSize: maxFileSize}
}

// List godoc
// @Summary List documents
// @Tags Documents
// @Produce json
// @Param employee_id query string false "Filter by employee"
// @Param category query string false "Filter by category"
// @Param status query string false "Filter by review status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /documents [get]
func (h *DocumentHandler) List(c *gin.Context) {
	auth, ok := currentAuth(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	filter := models.DocumentFilter{
		EmployeeID: c.Query("employee_id"),
		Category:   models.DocumentCategory(c.Query("category")),
		Status:     models.DocumentStatus(c.Query("status")),
		Page:       queryInt(c, "page", 1),
		PageSize:   queryInt(c, "limit", 50),
	}
	documents, pagination, err := h.service.List(c.Request.Context(), auth.OrgID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, documents, pagination)
}

// Get godoc
// @Summary Get document
// @Tags Documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Router /documents/{id} [get]
func (h *DocumentHandler) Get(c *gin.Context) {
	auth, ok := currentAuth(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	document, err := h.service.Get(c.Request.Context(), auth.OrgID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, document, nil)
}

// Create godoc
// @Summary Upload document
// @Description Multipart upload with metadata fields and an optional file part
// @Tags Documents
// @Accept multipart/form-data
// @Produce json
// @Param employee_id formData string true "Employee ID"
// @Param name formData string true "Document name"
// @Param category formData string true "Document category"
// @Param file formData file false "Document file"
// @Success 201 {object} response.Envelope
// @Router /documents [post]
func (h *DocumentHandler) Create(c *gin.Context) {
	auth, ok := currentAuth(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	req := service.CreateDocumentRequest{
		EmployeeID: c.PostForm("employee_id"),
		Name:       c.PostForm("name"),
		Category:   c.PostForm("category"),
		OrgID:      auth.OrgID,
		ActorID:    auth.ActorID,
	}
	if auth.ActorEmail != "" {
		email := auth.ActorEmail
		req.ActorEmail = &email
	}
	if notes := c.PostForm("notes"); notes != "" {
		req.Notes = &notes
	}
	if raw := c.PostForm("expiration_date"); raw != "" {
		t, err := models.ParseFlexTime(raw)
		if err != nil {
			response.Error(c, appErrors.Validation("expiration_date", "invalid expiration date"))
			return
		}
		req.ExpirationDate = &t
	}

	file, header, err := c.Request.FormFile("file")
	if err == nil {
		defer file.Close() //nolint:errcheck
		if header.Size > h.maxFileSize {
			response.Error(c, appErrors.Validation("file", "file exceeds the maximum allowed size"))
			return
		}
		content, readErr := io.ReadAll(io.LimitReader(file, h.maxFileSize+1))
		if readErr != nil {
			response.Error(c, appErrors.Wrap(readErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read uploaded file"))
			return
		}
		if int64(len(content)) > h.maxFileSize {
			response.Error(c, appErrors.Validation("file", "file exceeds the maximum allowed size"))
			return
		}
		req.Content = content
		req.FileName = header.Filename
		req.FileType = header.Header.Get("Content-Type")
	} else {
		req.FileName = c.PostForm("file_name")
		req.FileType = c.PostForm("file_type")
	}

	document, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, document)
}

// Update godoc
// @Summary Update document metadata or review status
// @Tags Documents
// @Accept json
// @Produce json
// @Param id path string true "Document ID"
// @Param payload body service.UpdateDocumentRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Router /documents/{id} [put]
func (h *DocumentHandler) Update(c *gin.Context) {
	auth, ok := currentAuth(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.UpdateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req.OrgID = auth.OrgID
	req.ActorID = auth.ActorID
	document, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, document, nil)
}

// Expiring godoc
// @Summary List expiring documents
// @Tags Documents
// @Produce json
// @Param within_days query int false "Window in days (default 30)"
// @Success 200 {object} response.Envelope
// @Router /documents/expiring [get]
func (h *DocumentHandler) Expiring(c *gin.Context) {
	auth, ok := currentAuth(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	documents, err := h.service.Expiring(c.Request.Context(), auth.OrgID, queryInt(c, "within_days", 30))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, documents, nil)
}

// DownloadURL godoc
// @Summary Create a signed download token
// @Tags Documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Router /documents/{id}/download-url [post]
func (h *DocumentHandler) DownloadURL(c *gin.Context) {
	auth, ok := currentAuth(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	token, expiresAt, err := h.service.DownloadURL(c.Request.Context(), auth.OrgID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"token": token, "expires_at": expiresAt}, nil)
}

// Download godoc
// @Summary Download a document file
// @Description Redeems a signed token issued by the download-url endpoint
// @Tags Documents
// @Produce application/octet-stream
// @Param token query string true "Signed download token"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Router /documents/download [get]
func (h *DocumentHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Validation("token", "download token is required"))
		return
	}
	fileName, content, err := h.service.Download(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Blob(c, "application/octet-stream", fileName, content)
}
