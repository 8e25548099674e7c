package handler

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/veloca-labs/mds-api/internal/dto"
	"github.com/veloca-labs/mds-api/internal/models"
	"github.com/veloca-labs/mds-api/internal/service"
	appErrors "github.com/veloca-labs/mds-api/pkg/errors"
	"github.com/veloca-labs/mds-api/pkg/response"
)

const maxComplaintMediaBytes = 10 << 20

// mediaStorage persists complaint attachments uploaded with a claim.
type mediaStorage interface {
	SaveStream(filename string, r io.Reader) (string, error)
}

// ReplacementHandler handles replacement/warranty claim endpoints.
type ReplacementHandler struct {
	service   *service.ReplacementService
	customers *service.CustomerService
	media     mediaStorage
}

// NewReplacementHandler creates a new replacement handler.
func NewReplacementHandler(svc *service.ReplacementService, customers *service.CustomerService, media mediaStorage) *ReplacementHandler {
	return &ReplacementHandler{service: svc, customers: customers, media: media}
}

// List godoc
// @Summary List replacement requests
// @Description Customers see their own claims, technicians their assignments
// @Tags Replacements
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param status query string false "Comma-separated status filter"
// @Param product_id query string false "Product filter"
// @Success 200 {object} response.Envelope
// @Router /replacements [get]
func (h *ReplacementHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var filter models.ReplacementFilter

	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "20")); err == nil {
		filter.PageSize = size
	}
	if statuses := c.Query("status"); statuses != "" {
		for _, s := range strings.Split(statuses, ",") {
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				filter.Status = append(filter.Status, models.ReplacementStatus(strings.ToUpper(trimmed)))
			}
		}
	}
	filter.ProductID = c.Query("product_id")
	filter.SortBy = c.Query("sort_by")
	filter.SortOrder = c.Query("sort_order")

	switch claims.Role {
	case models.RoleCustomer:
		customer, err := h.customers.GetByUser(c.Request.Context(), claims.UserID)
		if err != nil {
			response.Error(c, err)
			return
		}
		filter.CustomerID = customer.ID
	case models.RoleTechnician:
		filter.TechnicianID = claims.UserID
	default:
		filter.CustomerID = c.Query("customer_id")
		filter.TechnicianID = c.Query("technician_id")
	}

	requests, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, requests, pagination)
}

// Get godoc
// @Summary Get replacement request
// @Description Returns the claim with its advisory bill once diagnosed
// @Tags Replacements
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /replacements/{id} [get]
func (h *ReplacementHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	detail, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	switch claims.Role {
	case models.RoleCustomer:
		customer, err := h.customers.GetByUser(c.Request.Context(), claims.UserID)
		if err != nil || detail.CustomerID != customer.ID {
			response.Error(c, appErrors.ErrForbidden)
			return
		}
	case models.RoleTechnician:
		if detail.TechnicianID == nil || *detail.TechnicianID != claims.UserID {
			response.Error(c, appErrors.ErrForbidden)
			return
		}
	}

	response.JSON(c, http.StatusOK, detail, nil)
}

// Create godoc
// @Summary File a replacement request
// @Description Customer files a complaint for a purchased unit, optionally attaching media
// @Tags Replacements
// @Accept multipart/form-data
// @Produce json
// @Param product_id formData string true "Product ID"
// @Param sale_id formData string true "Sale ID"
// @Param complaint_description formData string true "Complaint description"
// @Param preferred_visit_date formData string false "Preferred visit date (YYYY-MM-DD)"
// @Param media formData file false "Complaint photo or video"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /replacements [post]
func (h *ReplacementHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	req := dto.CreateReplacementRequest{
		ProductID:            strings.TrimSpace(c.PostForm("product_id")),
		SaleID:               strings.TrimSpace(c.PostForm("sale_id")),
		ComplaintDescription: strings.TrimSpace(c.PostForm("complaint_description")),
	}
	if visit := strings.TrimSpace(c.PostForm("preferred_visit_date")); visit != "" {
		parsed, err := time.Parse("2006-01-02", visit)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid preferred_visit_date, expected YYYY-MM-DD"))
			return
		}
		req.PreferredVisitDate = &parsed
	}

	var mediaURL *string
	if fileHeader, err := c.FormFile("media"); err == nil {
		if fileHeader.Size > maxComplaintMediaBytes {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "media file exceeds the 10MB limit"))
			return
		}
		src, openErr := fileHeader.Open()
		if openErr != nil {
			response.Error(c, appErrors.Wrap(openErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open media file"))
			return
		}
		defer src.Close()

		filename := fmt.Sprintf("complaints/%s%s", uuid.NewString(), filepath.Ext(fileHeader.Filename))
		saved, saveErr := h.media.SaveStream(filename, src)
		if saveErr != nil {
			response.Error(c, appErrors.Wrap(saveErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store media file"))
			return
		}
		mediaURL = &saved
	}

	request, err := h.service.Create(c.Request.Context(), req, claims.UserID, mediaURL)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, request)
}

// Candidates godoc
// @Summary Assignable technicians for a claim
// @Description Active technicians partitioned by proximity to the customer
// @Tags Replacements
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /replacements/{id}/candidates [get]
func (h *ReplacementHandler) Candidates(c *gin.Context) {
	candidates, err := h.service.Candidates(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, candidates, nil)
}

// Approve godoc
// @Summary Approve and assign a claim
// @Description Approval carries the technician assignment in one operation
// @Tags Replacements
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.ApproveReplacementRequest true "Assignment payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /replacements/{id}/approve [post]
func (h *ReplacementHandler) Approve(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.ApproveReplacementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	request, err := h.service.Approve(c.Request.Context(), c.Param("id"), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, request, nil)
}

// Reject godoc
// @Summary Reject a claim
// @Tags Replacements
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.RejectReplacementRequest true "Rejection payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /replacements/{id}/reject [post]
func (h *ReplacementHandler) Reject(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.RejectReplacementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	request, err := h.service.Reject(c.Request.Context(), c.Param("id"), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, request, nil)
}

// Start godoc
// @Summary Start servicing a claim
// @Description The assigned technician begins the visit
// @Tags Replacements
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /replacements/{id}/start [post]
func (h *ReplacementHandler) Start(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	request, err := h.service.Start(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, request, nil)
}

// SubmitDiagnosis godoc
// @Summary Submit service diagnosis
// @Description Technician reports the outcome with any replaced parts
// @Tags Replacements
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.SubmitDiagnosisRequest true "Diagnosis payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /replacements/{id}/diagnosis [post]
func (h *ReplacementHandler) SubmitDiagnosis(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.SubmitDiagnosisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	detail, err := h.service.SubmitDiagnosis(c.Request.Context(), c.Param("id"), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, detail, nil)
}

// Close godoc
// @Summary Close a replacement-required claim
// @Description Completes a claim once the replacement unit has been handed over
// @Tags Replacements
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /replacements/{id}/close [post]
func (h *ReplacementHandler) Close(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	request, err := h.service.Close(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, request, nil)
}
