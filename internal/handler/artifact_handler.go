package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"daicho/internal/port"
	"daicho/internal/service"
)

// ArtifactHandler streams rendered artifacts out of object storage.
// Access is guarded by the signed token alone; its claims carry the
// storage coordinates, so no database row backs a download.
type ArtifactHandler struct {
	tokenService service.TokenService
	storage      port.ObjectStorage
}

// NewArtifactHandler creates a new ArtifactHandler.
func NewArtifactHandler(tokenService service.TokenService, storage port.ObjectStorage) *ArtifactHandler {
	return &ArtifactHandler{tokenService: tokenService, storage: storage}
}

// Download handles GET /api/v1/artifacts/:id
// @Summary Download an artifact
// @Description Stream a rendered ledger artifact using a signed download token
// @Tags artifacts
// @Produce octet-stream
// @Param id path string true "Artifact ID (UUID)"
// @Param token query string true "Signed download token"
// @Success 200 {file} file "Artifact download"
// @Failure 400 {object} ErrorResponseBody "Invalid ID"
// @Failure 401 {object} ErrorResponseBody "Missing, invalid or expired token"
// @Failure 503 {object} ErrorResponseBody "Object storage not configured"
// @Router /artifacts/{id} [get]
func (h *ArtifactHandler) Download(c *gin.Context) {
	artifactID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid artifact ID")
		return
	}

	token := c.Query("token")
	if token == "" {
		RespondError(c, http.StatusUnauthorized, "INVALID_TOKEN", "token query parameter is required")
		return
	}

	claims, err := h.tokenService.ValidateArtifactToken(token, artifactID)
	if err != nil {
		HandleError(c, err)
		return
	}

	if h.storage == nil {
		RespondError(c, http.StatusServiceUnavailable, "STORAGE_DISABLED", "object storage is not configured")
		return
	}

	data, err := h.storage.Download(c.Request.Context(), claims.S3Bucket, claims.S3Key)
	if err != nil {
		HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", claims.FileName))
	c.Data(http.StatusOK, claims.ContentType, data)
}
