package handler_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"daicho/internal/domain"
	"daicho/internal/handler"
	"daicho/internal/service"
	"daicho/internal/validator"
	"daicho/mocks"
)

func newMasterHandler() (*handler.MasterHandler, *mocks.MockMasterService) {
	mockSvc := new(mocks.MockMasterService)
	h := handler.NewMasterHandler(mockSvc)
	return h, mockSvc
}

func multipartUpload(t *testing.T, field, fileName string, content []byte) (*httptest.ResponseRecorder, *gin.Context) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, fileName)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/masters/validate", &buf)
	c.Request.Header.Set("Content-Type", mw.FormDataContentType())
	return w, c
}

func TestMasterHandler_List(t *testing.T) {
	h, mockSvc := newMasterHandler()

	infos := []service.MasterInfo{
		{Name: "kanagawa-r6", Format: domain.MasterFormatCSV, LeafCount: 42, Source: "file"},
		{Name: "shizuoka-r5", Format: domain.MasterFormatJSON, LeafCount: 18, Source: "database", IsActive: true},
	}
	mockSvc.On("List", mock.Anything).Return(infos, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/masters", http.NoBody)

	h.List(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	mockSvc.AssertExpectations(t)
}

func TestMasterHandler_Validate_CSV(t *testing.T) {
	h, mockSvc := newMasterHandler()

	content := []byte("区分,写真区分,工種,種別,細別,備考,検索パターン\n")
	report := &validator.Report{Valid: true, LeafCount: 1}
	mockSvc.On("Validate", content, domain.MasterFormatCSV).Return(report)

	w, c := multipartUpload(t, "file", "kanagawa-r6.csv", content)
	h.Validate(c)

	assert.Equal(t, http.StatusOK, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestMasterHandler_Validate_MissingFile(t *testing.T) {
	h, _ := newMasterHandler()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/masters/validate", http.NoBody)

	h.Validate(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "MISSING_FILE", resp.Error.Code)
}

func TestMasterHandler_Validate_UnsupportedExtension(t *testing.T) {
	h, _ := newMasterHandler()

	w, c := multipartUpload(t, "file", "master.txt", []byte("not a master"))
	h.Validate(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "UNSUPPORTED_FORMAT", resp.Error.Code)
}
