package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/soe-platform/workload-api/internal/models"
	"github.com/soe-platform/workload-api/internal/service"
	appErrors "github.com/soe-platform/workload-api/pkg/errors"
	"github.com/soe-platform/workload-api/pkg/response"
)

// RecycleHandler exposes the recycle bin for soft-deleted resources.
type RecycleHandler struct {
	service *service.RecycleService
}

// NewRecycleHandler constructs a recycle-bin handler.
func NewRecycleHandler(svc *service.RecycleService) *RecycleHandler {
	return &RecycleHandler{service: svc}
}

// List godoc
// @Summary List soft-deleted items
// @Description Returns recycle-bin entries across all resources, optionally narrowed by resource type
// @Tags RecycleBin
// @Produce json
// @Param resource query string false "Resource type (coordinations, courses, subjects, professors, load-files)"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /recycle-bin [get]
func (h *RecycleHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	items, pagination, err := h.service.List(c.Request.Context(), models.RecycleResource(c.Query("resource")), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Restore godoc
// @Summary Restore a soft-deleted item
// @Tags RecycleBin
// @Produce json
// @Param resource path string true "Resource type"
// @Param id path string true "Item ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /recycle-bin/{resource}/{id}/restore [post]
func (h *RecycleHandler) Restore(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	err := h.service.Restore(c.Request.Context(), models.RecycleResource(c.Param("resource")), c.Param("id"), claims.UserID, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Purge godoc
// @Summary Permanently delete a soft-deleted item
// @Description Removes the item and its dependent rows; load files also lose their cached billing entries
// @Tags RecycleBin
// @Produce json
// @Param resource path string true "Resource type"
// @Param id path string true "Item ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /recycle-bin/{resource}/{id} [delete]
func (h *RecycleHandler) Purge(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	err := h.service.Purge(c.Request.Context(), models.RecycleResource(c.Param("resource")), c.Param("id"), claims.UserID, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
