package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"daicho/internal/domain"
	"daicho/internal/service"
)

// RunHandler handles persisted pipeline run endpoints.
type RunHandler struct {
	runService service.RunService
}

// NewRunHandler creates a new RunHandler.
func NewRunHandler(runService service.RunService) *RunHandler {
	return &RunHandler{runService: runService}
}

// Create handles POST /api/v1/runs
// @Summary Start a pipeline run
// @Description Accept a photo source and run the full ledger pipeline in the background
// @Tags runs
// @Accept json
// @Produce json
// @Param request body CreateRunRequest true "Run parameters"
// @Success 202 {object} Response{data=domain.Run} "Run accepted, pipeline started"
// @Failure 400 {object} ErrorResponseBody "Invalid request"
// @Failure 503 {object} ErrorResponseBody "Persistence not configured"
// @Security BearerAuth
// @Router /runs [post]
func (h *RunHandler) Create(c *gin.Context) {
	var input service.CreateRunInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "source is required and photosPerPage must be 2 or 3")
		return
	}

	run, err := h.runService.Create(c.Request.Context(), &input)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondAccepted(c, run)
}

// List handles GET /api/v1/runs
// @Summary List runs
// @Description List pipeline runs, newest first
// @Tags runs
// @Produce json
// @Param offset query int false "Pagination offset" default(0)
// @Param limit query int false "Page size (max 100)" default(20)
// @Success 200 {object} Response{data=[]domain.Run} "Runs with pagination metadata"
// @Failure 503 {object} ErrorResponseBody "Persistence not configured"
// @Security BearerAuth
// @Router /runs [get]
func (h *RunHandler) List(c *gin.Context) {
	offset, limit := parsePagination(c)

	runs, total, err := h.runService.List(c.Request.Context(), offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, runs, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// GetByID handles GET /api/v1/runs/:id
// @Summary Get run by ID
// @Description Get run status, stats and signed artifact download links
// @Tags runs
// @Produce json
// @Param id path string true "Run ID (UUID)"
// @Success 200 {object} Response{data=RunDetail} "Run with artifact links"
// @Failure 400 {object} ErrorResponseBody "Invalid ID"
// @Failure 404 {object} ErrorResponseBody "Run not found"
// @Failure 503 {object} ErrorResponseBody "Persistence not configured"
// @Security BearerAuth
// @Router /runs/{id} [get]
func (h *RunHandler) GetByID(c *gin.Context) {
	runID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid run ID")
		return
	}

	run, err := h.runService.GetByID(c.Request.Context(), runID)
	if err != nil {
		HandleError(c, err)
		return
	}

	artifacts, err := h.runService.ArtifactDownloads(run)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, RunDetail{Run: run, Artifacts: artifacts})
}

// ListRecords handles GET /api/v1/runs/:id/records
// @Summary List run records
// @Description List the classified records a run stored, in ledger order
// @Tags runs
// @Produce json
// @Param id path string true "Run ID (UUID)"
// @Success 200 {object} Response{data=[]domain.RecordEntry} "Stored records"
// @Failure 400 {object} ErrorResponseBody "Invalid ID"
// @Failure 404 {object} ErrorResponseBody "Run not found"
// @Failure 503 {object} ErrorResponseBody "Persistence not configured"
// @Security BearerAuth
// @Router /runs/{id}/records [get]
func (h *RunHandler) ListRecords(c *gin.Context) {
	runID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid run ID")
		return
	}

	records, err := h.runService.ListRecords(c.Request.Context(), runID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, records)
}

// ListCorrections handles GET /api/v1/runs/:id/corrections
// @Summary List run corrections
// @Description List the normalization corrections a run recorded
// @Tags runs
// @Produce json
// @Param id path string true "Run ID (UUID)"
// @Success 200 {object} Response{data=[]domain.Correction} "Correction audit trail"
// @Failure 400 {object} ErrorResponseBody "Invalid ID"
// @Failure 404 {object} ErrorResponseBody "Run not found"
// @Failure 503 {object} ErrorResponseBody "Persistence not configured"
// @Security BearerAuth
// @Router /runs/{id}/corrections [get]
func (h *RunHandler) ListCorrections(c *gin.Context) {
	runID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid run ID")
		return
	}

	corrections, err := h.runService.ListCorrections(c.Request.Context(), runID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, corrections)
}

// ExportCSV handles GET /api/v1/runs/:id/export
// @Summary Export run records as CSV
// @Description Download the stored records of a completed run as a CSV file
// @Tags runs
// @Produce text/csv
// @Param id path string true "Run ID (UUID)"
// @Success 200 {file} file "CSV download"
// @Failure 400 {object} ErrorResponseBody "Invalid ID"
// @Failure 404 {object} ErrorResponseBody "Run not found"
// @Failure 409 {object} ErrorResponseBody "Run has not completed"
// @Failure 503 {object} ErrorResponseBody "Persistence not configured"
// @Security BearerAuth
// @Router /runs/{id}/export [get]
func (h *RunHandler) ExportCSV(c *gin.Context) {
	runID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid run ID")
		return
	}

	data, fileName, err := h.runService.ExportRecordsCSV(c.Request.Context(), runID)
	if err != nil {
		HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Data(http.StatusOK, domain.ArtifactContentTypes[domain.ArtifactCSV], data)
}

// parsePagination extracts offset and limit from query params with defaults.
func parsePagination(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return offset, limit
}
