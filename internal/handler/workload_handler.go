package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/soe-platform/workload-api/internal/models"
	"github.com/soe-platform/workload-api/internal/service"
	"github.com/soe-platform/workload-api/pkg/config"
	appErrors "github.com/soe-platform/workload-api/pkg/errors"
	"github.com/soe-platform/workload-api/pkg/response"
)

// WorkloadHandler exposes academic-load file endpoints.
type WorkloadHandler struct {
	service *service.WorkloadService
	metrics *service.MetricsService
	ingest  config.IngestConfig
}

// NewWorkloadHandler constructs a workload handler.
func NewWorkloadHandler(svc *service.WorkloadService, metrics *service.MetricsService, ingest config.IngestConfig) *WorkloadHandler {
	return &WorkloadHandler{service: svc, metrics: metrics, ingest: ingest}
}

// Upload godoc
// @Summary Ingest an academic-load file
// @Description Parse and validate a CSV upload; the whole file is rejected when any row fails
// @Tags LoadFiles
// @Accept multipart/form-data
// @Produce json
// @Param term_id formData string true "Term the load belongs to"
// @Param file formData file true "CSV load file"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /load-files [post]
func (h *WorkloadHandler) Upload(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	termID := strings.TrimSpace(c.PostForm("term_id"))
	if termID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "term_id is required"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	if h.ingest.MaxFileSizeBytes > 0 && fileHeader.Size > h.ingest.MaxFileSizeBytes {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file exceeds the maximum upload size"))
		return
	}
	if len(h.ingest.AllowedMIMEs) > 0 {
		contentType := fileHeader.Header.Get("Content-Type")
		if mime := strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]); mime != "" && !mimeAllowed(h.ingest.AllowedMIMEs, mime) {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unsupported file type"))
			return
		}
	}

	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file"))
		return
	}
	defer src.Close()

	req := service.IngestRequest{
		TermID:     termID,
		Filename:   fileHeader.Filename,
		UploadedBy: claims.UserID,
	}
	result, err := h.service.Ingest(c.Request.Context(), req, src, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordIngestion(result.RecordCount)
	}
	response.Created(c, result)
}

// List godoc
// @Summary List load files
// @Tags LoadFiles
// @Produce json
// @Param term_id query string false "Filter by term"
// @Param search query string false "Search by filename"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /load-files [get]
func (h *WorkloadHandler) List(c *gin.Context) {
	var filter models.LoadFileFilter
	filter.TermID = c.Query("term_id")
	filter.Search = strings.TrimSpace(c.Query("search"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort_by")
	filter.SortOrder = c.Query("sort_order")

	files, pagination, err := h.service.ListFiles(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, files, pagination)
}

// Get godoc
// @Summary Get load file detail
// @Tags LoadFiles
// @Produce json
// @Param id path string true "Load file ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /load-files/{id} [get]
func (h *WorkloadHandler) Get(c *gin.Context) {
	file, err := h.service.GetFile(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, file, nil)
}

// ListRecords godoc
// @Summary List class records of a load file
// @Tags LoadFiles
// @Produce json
// @Param id path string true "Load file ID"
// @Param section query string false "Filter by section"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /load-files/{id}/records [get]
func (h *WorkloadHandler) ListRecords(c *gin.Context) {
	records, err := h.service.ListRecords(c.Request.Context(), c.Param("id"), strings.TrimSpace(c.Query("section")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// ListSections godoc
// @Summary List distinct sections of a load file
// @Tags LoadFiles
// @Produce json
// @Param id path string true "Load file ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /load-files/{id}/sections [get]
func (h *WorkloadHandler) ListSections(c *gin.Context) {
	sections, err := h.service.ListSections(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sections, nil)
}

// Delete godoc
// @Summary Soft delete a load file
// @Description Moves the file to the recycle bin and invalidates its billing cache
// @Tags LoadFiles
// @Produce json
// @Param id path string true "Load file ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /load-files/{id} [delete]
func (h *WorkloadHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.DeleteFile(c.Request.Context(), c.Param("id"), claims.UserID, requestMeta(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func mimeAllowed(allowed []string, mime string) bool {
	for _, m := range allowed {
		if strings.EqualFold(m, mime) {
			return true
		}
	}
	return false
}
