package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/soe-platform/workload-api/internal/models"
	"github.com/soe-platform/workload-api/internal/service"
	appErrors "github.com/soe-platform/workload-api/pkg/errors"
	"github.com/soe-platform/workload-api/pkg/response"
)

// CoordinationHandler handles coordination endpoints.
type CoordinationHandler struct {
	service *service.CoordinationService
}

// NewCoordinationHandler constructs a coordination handler.
func NewCoordinationHandler(svc *service.CoordinationService) *CoordinationHandler {
	return &CoordinationHandler{service: svc}
}

// List godoc
// @Summary List coordinations
// @Tags Coordinations
// @Produce json
// @Param search query string false "Search by code or name"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /coordinations [get]
func (h *CoordinationHandler) List(c *gin.Context) {
	var filter models.CoordinationFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort_by")
	filter.SortOrder = c.Query("sort_order")

	coordinations, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, coordinations, pagination)
}

// Get godoc
// @Summary Get coordination detail
// @Tags Coordinations
// @Produce json
// @Param id path string true "Coordination ID"
// @Success 200 {object} response.Envelope
// @Router /coordinations/{id} [get]
func (h *CoordinationHandler) Get(c *gin.Context) {
	coordination, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, coordination, nil)
}

// Create godoc
// @Summary Create coordination
// @Tags Coordinations
// @Accept json
// @Produce json
// @Param payload body service.CreateCoordinationRequest true "Coordination payload"
// @Success 201 {object} response.Envelope
// @Router /coordinations [post]
func (h *CoordinationHandler) Create(c *gin.Context) {
	var req service.CreateCoordinationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	coordination, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, coordination)
}

// Update godoc
// @Summary Update coordination
// @Tags Coordinations
// @Accept json
// @Produce json
// @Param id path string true "Coordination ID"
// @Param payload body service.UpdateCoordinationRequest true "Coordination payload"
// @Success 200 {object} response.Envelope
// @Router /coordinations/{id} [put]
func (h *CoordinationHandler) Update(c *gin.Context) {
	var req service.UpdateCoordinationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	coordination, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, coordination, nil)
}

// Delete godoc
// @Summary Soft delete coordination
// @Tags Coordinations
// @Produce json
// @Param id path string true "Coordination ID"
// @Success 204
// @Router /coordinations/{id} [delete]
func (h *CoordinationHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
