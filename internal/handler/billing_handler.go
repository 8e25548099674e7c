package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/veloca-labs/mds-api/internal/dto"
	"github.com/veloca-labs/mds-api/internal/models"
	"github.com/veloca-labs/mds-api/internal/service"
	appErrors "github.com/veloca-labs/mds-api/pkg/errors"
	"github.com/veloca-labs/mds-api/pkg/response"
)

// BillingHandler handles billing configuration endpoints.
type BillingHandler struct {
	service *service.BillingService
}

// NewBillingHandler creates a new billing handler.
func NewBillingHandler(svc *service.BillingService) *BillingHandler {
	return &BillingHandler{service: svc}
}

// GetConfig godoc
// @Summary Billing configuration
// @Description Charges for both warranty scopes; missing scopes report zero
// @Tags Billing
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /billing/config [get]
func (h *BillingHandler) GetConfig(c *gin.Context) {
	config, err := h.service.GetConfig(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, config, nil)
}

// UpdateCharges godoc
// @Summary Update billing charges
// @Description Update service and replacement charges for one warranty scope
// @Tags Billing
// @Accept json
// @Produce json
// @Param scope path string true "Billing scope (IN_WARRANTY or OUT_OF_WARRANTY)"
// @Param payload body dto.UpdateBillingChargesRequest true "Charges payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /billing/config/{scope} [put]
func (h *BillingHandler) UpdateCharges(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.UpdateBillingChargesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	scope := models.BillingScope(strings.ToUpper(c.Param("scope")))
	charges, err := h.service.UpdateCharges(c.Request.Context(), scope, req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, charges, nil)
}
