package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"daicho/internal/domain"
	"daicho/internal/handler"
	"daicho/internal/service"
	"daicho/mocks"
)

func artifactRequest(id, token string) (*httptest.ResponseRecorder, *gin.Context) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/artifacts/"+id+"?token="+token, http.NoBody)
	c.Params = gin.Params{{Key: "id", Value: id}}
	return w, c
}

func TestArtifactHandler_Download(t *testing.T) {
	tokens := new(mocks.MockTokenService)
	storage := new(mocks.MockObjectStorage)
	h := handler.NewArtifactHandler(tokens, storage)

	artifactID := uuid.New()
	claims := &service.ArtifactClaims{
		Kind:        domain.ArtifactExcel,
		FileName:    "ledger_2026-08-01.xlsx",
		ContentType: domain.ArtifactContentTypes[domain.ArtifactExcel],
		S3Bucket:    "daicho-artifacts",
		S3Key:       "runs/abc/ledger.xlsx",
	}
	tokens.On("ValidateArtifactToken", "tok", artifactID).Return(claims, nil)
	storage.On("Download", mock.Anything, "daicho-artifacts", "runs/abc/ledger.xlsx").
		Return([]byte("workbook-bytes"), nil)

	w, c := artifactRequest(artifactID.String(), "tok")
	h.Download(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "ledger_2026-08-01.xlsx")
	assert.Equal(t, "workbook-bytes", w.Body.String())
}

func TestArtifactHandler_Download_MissingToken(t *testing.T) {
	h := handler.NewArtifactHandler(new(mocks.MockTokenService), new(mocks.MockObjectStorage))

	w, c := artifactRequest(uuid.New().String(), "")
	h.Download(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestArtifactHandler_Download_InvalidToken(t *testing.T) {
	tokens := new(mocks.MockTokenService)
	h := handler.NewArtifactHandler(tokens, new(mocks.MockObjectStorage))

	artifactID := uuid.New()
	tokens.On("ValidateArtifactToken", "bad", artifactID).Return(nil, domain.ErrInvalidToken)

	w, c := artifactRequest(artifactID.String(), "bad")
	h.Download(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestArtifactHandler_Download_InvalidID(t *testing.T) {
	h := handler.NewArtifactHandler(new(mocks.MockTokenService), new(mocks.MockObjectStorage))

	w, c := artifactRequest("not-a-uuid", "tok")
	h.Download(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
