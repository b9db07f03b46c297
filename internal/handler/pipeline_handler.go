package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"daicho/internal/normalize"
	"daicho/internal/service"
)

// PipelineHandler handles the stateless pipeline endpoints. They take
// record batches in the request body and never touch the database.
type PipelineHandler struct {
	pipelineService service.PipelineService
}

// NewPipelineHandler creates a new PipelineHandler.
func NewPipelineHandler(pipelineService service.PipelineService) *PipelineHandler {
	return &PipelineHandler{pipelineService: pipelineService}
}

// Classify handles POST /api/v1/classify
// @Summary Classify raw records
// @Description Match recognized photo records against a hierarchy master
// @Tags pipeline
// @Accept json
// @Produce json
// @Param request body ClassifyRequest true "Raw records and optional master name"
// @Success 200 {object} Response{data=ClassifyResponse} "Classified records with match summary"
// @Failure 400 {object} ErrorResponseBody "Invalid request"
// @Failure 404 {object} ErrorResponseBody "Master not found"
// @Security BearerAuth
// @Router /classify [post]
func (h *PipelineHandler) Classify(c *gin.Context) {
	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "records are required")
		return
	}

	records, summary, err := h.pipelineService.ClassifyRecords(c.Request.Context(), req.Master, req.Records)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, ClassifyResponse{Records: records, Summary: summary})
}

// Normalize handles POST /api/v1/normalize
// @Summary Normalize classified records
// @Description Unify station labels and classification paths across a batch and report the corrections
// @Tags pipeline
// @Accept json
// @Produce json
// @Param request body NormalizeRequest true "Classified records and normalization options"
// @Success 200 {object} Response{data=normalize.Result} "Rewritten records with corrections, sets and stats"
// @Failure 400 {object} ErrorResponseBody "Invalid request"
// @Security BearerAuth
// @Router /normalize [post]
func (h *PipelineHandler) Normalize(c *gin.Context) {
	var req NormalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "records are required")
		return
	}

	opts := normalize.DefaultOptions()
	if req.Threshold > 0 {
		opts.Threshold = req.Threshold
	}
	if req.UnifyPathFields != nil {
		opts.UnifyPathFields = *req.UnifyPathFields
	}
	if req.UnifyStations != nil {
		opts.UnifyStations = *req.UnifyStations
	}
	opts.ProtectedFiles = req.ProtectedFiles

	RespondOK(c, h.pipelineService.NormalizeRecords(req.Records, opts))
}

// PlanLayout handles POST /api/v1/layout/plan
// @Summary Plan a ledger layout
// @Description Lay classified records out into pages without rendering anything
// @Tags pipeline
// @Accept json
// @Produce json
// @Param request body LayoutPlanRequest true "Classified records and page shape"
// @Success 200 {object} Response{data=layout.PlacementPlan} "Renderer-independent placement plan"
// @Failure 400 {object} ErrorResponseBody "Invalid request"
// @Security BearerAuth
// @Router /layout/plan [post]
func (h *PipelineHandler) PlanLayout(c *gin.Context) {
	var req LayoutPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "records are required")
		return
	}

	plan, err := h.pipelineService.PlanLayout(req.Records, req.PhotosPerPage)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, plan)
}
