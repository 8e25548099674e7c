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

// ProductHandler handles serialized unit endpoints.
type ProductHandler struct {
	service *service.ProductService
	sales   *service.SaleService
}

// NewProductHandler creates a new product handler.
func NewProductHandler(svc *service.ProductService, sales *service.SaleService) *ProductHandler {
	return &ProductHandler{service: svc, sales: sales}
}

// List godoc
// @Summary List products
// @Tags Products
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param model_id query string false "Model filter"
// @Param dealer_id query string false "Dealer filter"
// @Param status query string false "Status filter"
// @Param search query string false "Serial number search"
// @Success 200 {object} response.Envelope
// @Router /products [get]
func (h *ProductHandler) List(c *gin.Context) {
	var filter models.ProductFilter

	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "20")); err == nil {
		filter.PageSize = size
	}
	if status := c.Query("status"); status != "" {
		s := models.ProductStatus(status)
		filter.Status = &s
	}
	filter.ModelID = c.Query("model_id")
	filter.DealerID = c.Query("dealer_id")
	filter.Search = c.Query("search")
	filter.SortBy = c.Query("sort_by")
	filter.SortOrder = c.Query("sort_order")

	products, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, products, pagination)
}

// Get godoc
// @Summary Get product
// @Tags Products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /products/{id} [get]
func (h *ProductHandler) Get(c *gin.Context) {
	product, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, product, nil)
}

// Register godoc
// @Summary Register product
// @Description Register a manufactured unit by serial number
// @Tags Products
// @Accept json
// @Produce json
// @Param payload body service.RegisterProductRequest true "Register payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /products [post]
func (h *ProductHandler) Register(c *gin.Context) {
	var req service.RegisterProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	product, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, product)
}

// Allocate godoc
// @Summary Allocate product to dealer
// @Tags Products
// @Accept json
// @Produce json
// @Param id path string true "Product ID"
// @Param payload body service.AllocateProductRequest true "Allocation payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /products/{id}/allocate [post]
func (h *ProductHandler) Allocate(c *gin.Context) {
	var req service.AllocateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	product, err := h.service.Allocate(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, product, nil)
}

// Warranty godoc
// @Summary Product warranty status
// @Description Warranty snapshot derived from the unit's recorded sale
// @Tags Products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /products/{id}/warranty [get]
func (h *ProductHandler) Warranty(c *gin.Context) {
	snapshot, err := h.sales.WarrantyForProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, snapshot, nil)
}
