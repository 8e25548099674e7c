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

// FactoryHandler handles factory CRUD endpoints.
type FactoryHandler struct {
	service *service.FactoryService
}

// NewFactoryHandler creates a new factory handler.
func NewFactoryHandler(svc *service.FactoryService) *FactoryHandler {
	return &FactoryHandler{service: svc}
}

// List godoc
// @Summary List factories
// @Tags Factories
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param active query bool false "Active filter"
// @Param state query string false "State filter"
// @Param search query string false "Search term"
// @Success 200 {object} response.Envelope
// @Router /factories [get]
func (h *FactoryHandler) List(c *gin.Context) {
	var filter models.FactoryFilter

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
	filter.State = c.Query("state")
	filter.Search = c.Query("search")
	filter.SortBy = c.Query("sort_by")
	filter.SortOrder = c.Query("sort_order")

	factories, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, factories, pagination)
}

// Get godoc
// @Summary Get factory
// @Tags Factories
// @Produce json
// @Param id path string true "Factory ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /factories/{id} [get]
func (h *FactoryHandler) Get(c *gin.Context) {
	factory, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, factory, nil)
}

// CodeAvailable godoc
// @Summary Check factory code availability
// @Tags Factories
// @Produce json
// @Param code query string true "Factory code"
// @Success 200 {object} response.Envelope
// @Router /factories/code-available [get]
func (h *FactoryHandler) CodeAvailable(c *gin.Context) {
	code := c.Query("code")
	available, err := h.service.CodeAvailable(c.Request.Context(), code)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"code": code, "available": available}, nil)
}

// Create godoc
// @Summary Create factory
// @Tags Factories
// @Accept json
// @Produce json
// @Param payload body service.CreateFactoryRequest true "Create factory payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /factories [post]
func (h *FactoryHandler) Create(c *gin.Context) {
	var req service.CreateFactoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	factory, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, factory)
}

// Update godoc
// @Summary Update factory
// @Tags Factories
// @Accept json
// @Produce json
// @Param id path string true "Factory ID"
// @Param payload body service.UpdateFactoryRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /factories/{id} [put]
func (h *FactoryHandler) Update(c *gin.Context) {
	var req service.UpdateFactoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	factory, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, factory, nil)
}

// Delete godoc
// @Summary Deactivate factory
// @Tags Factories
// @Produce json
// @Param id path string true "Factory ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /factories/{id} [delete]
func (h *FactoryHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
