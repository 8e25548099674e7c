package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/veloca-labs/mds-api/internal/models"
	"github.com/veloca-labs/mds-api/internal/service"
	appErrors "github.com/veloca-labs/mds-api/pkg/errors"
	"github.com/veloca-labs/mds-api/pkg/response"
)

// SaleHandler handles sale recording endpoints.
type SaleHandler struct {
	service *service.SaleService
}

// NewSaleHandler creates a new sale handler.
func NewSaleHandler(svc *service.SaleService) *SaleHandler {
	return &SaleHandler{service: svc}
}

// List godoc
// @Summary List sales
// @Description Dealers see only sales they recorded
// @Tags Sales
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param customer_id query string false "Customer filter"
// @Param product_id query string false "Product filter"
// @Success 200 {object} response.Envelope
// @Router /sales [get]
func (h *SaleHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var filter models.SaleFilter

	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "20")); err == nil {
		filter.PageSize = size
	}
	filter.CustomerID = c.Query("customer_id")
	filter.ProductID = c.Query("product_id")
	filter.SortBy = c.Query("sort_by")
	filter.SortOrder = c.Query("sort_order")

	if claims.Role == models.RoleDealer {
		filter.DealerID = claims.UserID
	} else {
		filter.DealerID = c.Query("dealer_id")
	}

	sales, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, sales, pagination)
}

// Get godoc
// @Summary Get sale with warranty status
// @Tags Sales
// @Produce json
// @Param id path string true "Sale ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sales/{id} [get]
func (h *SaleHandler) Get(c *gin.Context) {
	sale, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, sale, nil)
}

// Record godoc
// @Summary Record sale
// @Description Record a sale of a serialized unit to a customer
// @Tags Sales
// @Accept json
// @Produce json
// @Param payload body service.RecordSaleRequest true "Sale payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /sales [post]
func (h *SaleHandler) Record(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.RecordSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	sale, err := h.service.Record(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, sale)
}
