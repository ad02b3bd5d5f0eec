package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/soe-platform/workload-api/internal/models"
	"github.com/soe-platform/workload-api/internal/service"
	appErrors "github.com/soe-platform/workload-api/pkg/errors"
	"github.com/soe-platform/workload-api/pkg/response"
)

// RateHandler exposes the payment-rate history endpoints.
type RateHandler struct {
	service *service.RateService
}

// NewRateHandler constructs a rate handler.
func NewRateHandler(svc *service.RateService) *RateHandler {
	return &RateHandler{service: svc}
}

// List godoc
// @Summary List payment rates
// @Tags PaymentRates
// @Produce json
// @Param level query string false "Filter by academic level"
// @Param at query string false "Rates effective at date (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /payment-rates [get]
func (h *RateHandler) List(c *gin.Context) {
	var filter models.PaymentRateFilter
	if level := c.Query("level"); level != "" {
		code := models.LevelCode(level)
		if !code.Valid() {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown academic level"))
			return
		}
		filter.Level = &code
	}
	if at := c.Query("at"); at != "" {
		parsed, err := time.Parse("2006-01-02", at)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "at must be formatted YYYY-MM-DD"))
			return
		}
		filter.At = &parsed
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort_by")
	filter.SortOrder = c.Query("sort_order")

	rates, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rates, pagination)
}

// Get godoc
// @Summary Get payment rate detail
// @Tags PaymentRates
// @Produce json
// @Param id path string true "Rate ID"
// @Success 200 {object} response.Envelope
// @Router /payment-rates/{id} [get]
func (h *RateHandler) Get(c *gin.Context) {
	rate, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rate, nil)
}

// Create godoc
// @Summary Create payment rate
// @Description Add a rate history row; overlapping effective ranges per level are rejected
// @Tags PaymentRates
// @Accept json
// @Produce json
// @Param payload body service.CreateRateRequest true "Rate payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /payment-rates [post]
func (h *RateHandler) Create(c *gin.Context) {
	var req service.CreateRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	rate, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, rate)
}

// Update godoc
// @Summary Update payment rate
// @Tags PaymentRates
// @Accept json
// @Produce json
// @Param id path string true "Rate ID"
// @Param payload body service.UpdateRateRequest true "Rate payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /payment-rates/{id} [put]
func (h *RateHandler) Update(c *gin.Context) {
	var req service.UpdateRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	rate, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rate, nil)
}

// Delete godoc
// @Summary Delete payment rate
// @Tags PaymentRates
// @Produce json
// @Param id path string true "Rate ID"
// @Success 204
// @Router /payment-rates/{id} [delete]
func (h *RateHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
