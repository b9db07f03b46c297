package service_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"daicho/internal/config"
	"daicho/internal/domain"
	"daicho/internal/service"
	"daicho/internal/validator"
	"daicho/mocks"
)

const masterCSV = `写真区分,写真種別,工種,種別,細別,撮影内容,検索パターン
"直接工事費","施工状況写真","舗装工","舗装打換え工","表層工","舗設状況","舗設|フィニッシャー"
"直接工事費","品質管理写真","舗装工","舗装打換え工","表層工","温度測定","温度管理"
`

func writeMasterFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(masterCSV), 0o644))
	return path
}

func TestMasterService_ResolveFromRepository(t *testing.T) {
	repo := new(mocks.MockMasterRepo)
	repo.On("GetByName", mock.Anything, "standard").Return(&domain.Master{
		Name:    "standard",
		Format:  domain.MasterFormatCSV,
		Content: []byte(masterCSV),
	}, nil)

	svc := service.NewMasterService(repo, config.MasterConfig{}, validator.NewDefaultEngine())
	m, err := svc.Resolve(context.Background(), "standard")
	require.NoError(t, err)
	assert.Equal(t, 2, m.LeafCount())
	repo.AssertExpectations(t)
}

func TestMasterService_ResolveFallsBackToDir(t *testing.T) {
	dir := t.TempDir()
	writeMasterFile(t, dir, "roadwork.csv")

	repo := new(mocks.MockMasterRepo)
	repo.On("GetByName", mock.Anything, "roadwork").Return(nil, domain.ErrNotFound)

	svc := service.NewMasterService(repo, config.MasterConfig{Dir: dir}, validator.NewDefaultEngine())
	m, err := svc.Resolve(context.Background(), "roadwork")
	require.NoError(t, err)
	assert.Equal(t, "直接工事費", m.Division())
}

func TestMasterService_ResolveNothingConfigured(t *testing.T) {
	svc := service.NewMasterService(nil, config.MasterConfig{}, validator.NewDefaultEngine())

	m, err := svc.Resolve(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, m, "no configured master means pass-through, not an error")
}

func TestMasterService_ResolveNothingConfiguredWithRepo(t *testing.T) {
	repo := new(mocks.MockMasterRepo)
	repo.On("GetActive", mock.Anything).Return(nil, domain.ErrNotFound)

	svc := service.NewMasterService(repo, config.MasterConfig{}, validator.NewDefaultEngine())
	m, err := svc.Resolve(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestMasterService_ResolveUnknownName(t *testing.T) {
	svc := service.NewMasterService(nil, config.MasterConfig{Dir: t.TempDir()}, validator.NewDefaultEngine())

	_, err := svc.Resolve(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMasterService_ResolveEmptyNameUsesActive(t *testing.T) {
	repo := new(mocks.MockMasterRepo)
	repo.On("GetActive", mock.Anything).Return(&domain.Master{
		Name:    "active",
		Format:  domain.MasterFormatCSV,
		Content: []byte(masterCSV),
	}, nil)

	svc := service.NewMasterService(repo, config.MasterConfig{}, validator.NewDefaultEngine())
	m, err := svc.Resolve(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 2, m.LeafCount())
}

func TestMasterService_ResolveEmptyNameUsesDefaultPath(t *testing.T) {
	path := writeMasterFile(t, t.TempDir(), "default.csv")

	svc := service.NewMasterService(nil, config.MasterConfig{Path: path}, validator.NewDefaultEngine())
	m, err := svc.Resolve(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 2, m.LeafCount())
}

func TestMasterService_ListMergesRepoAndDir(t *testing.T) {
	dir := t.TempDir()
	writeMasterFile(t, dir, "roadwork.csv")
	writeMasterFile(t, dir, "shadowed.csv")

	repo := new(mocks.MockMasterRepo)
	repo.On("List", mock.Anything).Return([]domain.Master{
		{Name: "shadowed", Format: domain.MasterFormatJSON, LeafCount: 5, IsActive: true},
	}, nil)

	svc := service.NewMasterService(repo, config.MasterConfig{Dir: dir}, validator.NewDefaultEngine())
	infos, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "roadwork", infos[0].Name)
	assert.Equal(t, "file", infos[0].Source)
	assert.Equal(t, "shadowed", infos[1].Name)
	assert.Equal(t, "database", infos[1].Source)
	assert.True(t, infos[1].IsActive)
}

func TestMasterService_UploadPersistenceDisabled(t *testing.T) {
	svc := service.NewMasterService(nil, config.MasterConfig{}, validator.NewDefaultEngine())

	_, err := svc.Upload(context.Background(), &service.UploadMasterInput{
		Name:    "standard",
		Format:  domain.MasterFormatCSV,
		Content: []byte(masterCSV),
	})
	assert.ErrorIs(t, err, domain.ErrPersistenceDisabled)
}

func TestMasterService_Upload(t *testing.T) {
	repo := new(mocks.MockMasterRepo)
	repo.On("Upsert", mock.Anything, mock.MatchedBy(func(m *domain.Master) bool {
		return m.Name == "standard" && m.LeafCount == 2
	})).Return(nil)
	repo.On("SetActive", mock.Anything, "standard").Return(nil)

	svc := service.NewMasterService(repo, config.MasterConfig{}, validator.NewDefaultEngine())
	m, err := svc.Upload(context.Background(), &service.UploadMasterInput{
		Name:     "standard",
		Format:   domain.MasterFormatCSV,
		Content:  []byte(masterCSV),
		Activate: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, m.LeafCount)
	assert.True(t, m.IsActive)
	repo.AssertExpectations(t)
}

func TestMasterService_UploadMalformed(t *testing.T) {
	repo := new(mocks.MockMasterRepo)
	svc := service.NewMasterService(repo, config.MasterConfig{}, validator.NewDefaultEngine())

	_, err := svc.Upload(context.Background(), &service.UploadMasterInput{
		Name:    "broken",
		Format:  domain.MasterFormatCSV,
		Content: []byte("写真区分\n"),
	})
	assert.Error(t, err)
	repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}
