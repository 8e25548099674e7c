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

// CatalogHandler handles category and product model endpoints.
type CatalogHandler struct {
	service *service.CatalogService
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(svc *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: svc}
}

// ListCategories godoc
// @Summary List categories
// @Tags Catalog
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param active query bool false "Active filter"
// @Param search query string false "Search term"
// @Success 200 {object} response.Envelope
// @Router /categories [get]
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	var filter models.CategoryFilter

	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "20")); err == nil {
		filter.PageSize = size
	}
	if active := c.Query("active"); active != "" {
		if val, err := strconv.ParseBool(active); err == nil {
			filter.Active = &val
		}
	}
	filter.Search = c.Query("search")

	categories, pagination, err := h.service.ListCategories(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, categories, pagination)
}

// CreateCategory godoc
// @Summary Create category
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body service.CategoryRequest true "Category payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /categories [post]
func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var req service.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	category, err := h.service.CreateCategory(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, category)
}

// UpdateCategory godoc
// @Summary Update category
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "Category ID"
// @Param payload body service.CategoryRequest true "Category payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /categories/{id} [put]
func (h *CatalogHandler) UpdateCategory(c *gin.Context) {
	var req service.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	category, err := h.service.UpdateCategory(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, category, nil)
}

// ListModels godoc
// @Summary List product models
// @Tags Catalog
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param category_id query string false "Category filter"
// @Param factory_id query string false "Factory filter"
// @Param active query bool false "Active filter"
// @Param search query string false "Search term"
// @Success 200 {object} response.Envelope
// @Router /models [get]
func (h *CatalogHandler) ListModels(c *gin.Context) {
	var filter models.ProductModelFilter

	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "20")); err == nil {
		filter.PageSize = size
	}
	if active := c.Query("active"); active != "" {
		if val, err := strconv.ParseBool(active); err == nil {
			filter.Active = &val
		}
	}
	filter.CategoryID = c.Query("category_id")
	filter.FactoryID = c.Query("factory_id")
	filter.Search = c.Query("search")
	filter.SortBy = c.Query("sort_by")
	filter.SortOrder = c.Query("sort_order")

	productModels, pagination, err := h.service.ListModels(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, productModels, pagination)
}

// GetModel godoc
// @Summary Get product model
// @Tags Catalog
// @Produce json
// @Param id path string true "Model ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /models/{id} [get]
func (h *CatalogHandler) GetModel(c *gin.Context) {
	model, err := h.service.GetModel(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, model, nil)
}

// ModelCodeAvailable godoc
// @Summary Check product model code availability
// @Tags Catalog
// @Produce json
// @Param code query string true "Model code"
// @Success 200 {object} response.Envelope
// @Router /models/code-available [get]
func (h *CatalogHandler) ModelCodeAvailable(c *gin.Context) {
	code := c.Query("code")
	available, err := h.service.ModelCodeAvailable(c.Request.Context(), code)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"code": code, "available": available}, nil)
}

// CreateModel godoc
// @Summary Create product model
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body service.CreateProductModelRequest true "Model payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /models [post]
func (h *CatalogHandler) CreateModel(c *gin.Context) {
	var req service.CreateProductModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	model, err := h.service.CreateModel(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, model)
}

// UpdateModel godoc
// @Summary Update product model
// @Description Code and factory are immutable after creation
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "Model ID"
// @Param payload body service.UpdateProductModelRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /models/{id} [put]
func (h *CatalogHandler) UpdateModel(c *gin.Context) {
	var req service.UpdateProductModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	model, err := h.service.UpdateModel(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, model, nil)
}
