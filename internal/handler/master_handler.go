package handler

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"daicho/internal/domain"
	"daicho/internal/service"
)

// maxMasterSize caps uploaded master files. Even XLSX masters with
// thousands of leaves stay far below this.
const maxMasterSize = 10 << 20

// MasterHandler handles hierarchy master endpoints.
type MasterHandler struct {
	masterService service.MasterService
}

// NewMasterHandler creates a new MasterHandler.
func NewMasterHandler(masterService service.MasterService) *MasterHandler {
	return &MasterHandler{masterService: masterService}
}

// List handles GET /api/v1/masters
// @Summary List masters
// @Description List the hierarchy masters available for classification, from the database and the master directory
// @Tags masters
// @Produce json
// @Success 200 {object} Response{data=[]service.MasterInfo} "Available masters"
// @Security BearerAuth
// @Router /masters [get]
func (h *MasterHandler) List(c *gin.Context) {
	masters, err := h.masterService.List(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, masters)
}

// Validate handles POST /api/v1/masters/validate
// @Summary Validate a master file
// @Description Check an uploaded master source (JSON, CSV or XLSX) and report findings without storing anything
// @Tags masters
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Master file to validate (.json, .csv or .xlsx)"
// @Success 200 {object} Response{data=validator.Report} "Validation report"
// @Failure 400 {object} ErrorResponseBody "Missing file or unsupported extension"
// @Failure 413 {object} ErrorResponseBody "File too large"
// @Security BearerAuth
// @Router /masters/validate [post]
func (h *MasterHandler) Validate(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	if header.Size > maxMasterSize {
		HandleError(c, domain.ErrFileTooLarge)
		return
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(header.Filename)), ".")
	format, ok := domain.MasterFormatExtensions[ext]
	if !ok {
		RespondError(c, http.StatusBadRequest, "UNSUPPORTED_FORMAT", "master must be a .json, .csv or .xlsx file")
		return
	}

	content, err := io.ReadAll(io.LimitReader(file, maxMasterSize))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "UNREADABLE_FILE", "could not read uploaded file")
		return
	}

	RespondOK(c, h.masterService.Validate(content, format))
}
