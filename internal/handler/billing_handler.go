package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soe-platform/workload-api/internal/service"
	"github.com/soe-platform/workload-api/pkg/response"
)

// BillingHandler exposes billing views computed from a load file.
// Billing endpoints return their pinned top-level shape directly
// instead of the standard envelope.
type BillingHandler struct {
	service *service.BillingService
	metrics *service.MetricsService
}

// NewBillingHandler constructs a billing handler.
func NewBillingHandler(svc *service.BillingService, metrics *service.MetricsService) *BillingHandler {
	return &BillingHandler{service: svc, metrics: metrics}
}

// ScheduleBlocks godoc
// @Summary Schedule blocks of a load file
// @Description Collapses class records into day-pattern blocks with per-month session counts
// @Tags Billing
// @Produce json
// @Param id path string true "Load file ID"
// @Success 200 {object} dto.ScheduleBlocksResponse
// @Failure 404 {object} response.Envelope
// @Router /billing/load-files/{id}/schedule-blocks [get]
func (h *BillingHandler) ScheduleBlocks(c *gin.Context) {
	resp, err := h.service.ScheduleBlocks(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.record("schedule-blocks")
	c.JSON(http.StatusOK, resp)
}

// PaymentSummary godoc
// @Summary Payment summary of a load file
// @Description Aggregates paid hours and amounts per professor and level
// @Tags Billing
// @Produce json
// @Param id path string true "Load file ID"
// @Success 200 {object} dto.PaymentSummaryResponse
// @Failure 404 {object} response.Envelope
// @Router /billing/load-files/{id}/payment-summary [get]
func (h *BillingHandler) PaymentSummary(c *gin.Context) {
	resp, err := h.service.PaymentSummary(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.record("payment-summary")
	c.JSON(http.StatusOK, resp)
}

// MonthlyBudget godoc
// @Summary Monthly budget of a load file
// @Description Projects session counts and amounts per block and calendar month
// @Tags Billing
// @Produce json
// @Param id path string true "Load file ID"
// @Success 200 {object} dto.MonthlyBudgetResponse
// @Failure 404 {object} response.Envelope
// @Router /billing/load-files/{id}/monthly-budget [get]
func (h *BillingHandler) MonthlyBudget(c *gin.Context) {
	resp, err := h.service.MonthlyBudget(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.record("monthly-budget")
	c.JSON(http.StatusOK, resp)
}

// Report godoc
// @Summary Combined billing report of a load file
// @Tags Billing
// @Produce json
// @Param id path string true "Load file ID"
// @Success 200 {object} dto.BillingReportResponse
// @Failure 404 {object} response.Envelope
// @Router /billing/load-files/{id}/report [get]
func (h *BillingHandler) Report(c *gin.Context) {
	resp, err := h.service.Report(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.record("report")
	c.JSON(http.StatusOK, resp)
}

func (h *BillingHandler) record(section string) {
	if h.metrics != nil {
		h.metrics.RecordBillingReport(section)
	}
}
