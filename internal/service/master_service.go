package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"daicho/internal/config"
	"daicho/internal/domain"
	"daicho/internal/hierarchy"
	"daicho/internal/port"
	"daicho/internal/validator"
)

// MasterInfo describes one available hierarchy master without its
// content.
type MasterInfo struct {
	Name      string              `json:"name"`
	Format    domain.MasterFormat `json:"format"`
	LeafCount int                 `json:"leafCount"`
	Source    string              `json:"source"`
	IsActive  bool                `json:"isActive"`
}

// UploadMasterInput is the DTO for storing a master.
type UploadMasterInput struct {
	Name     string
	Format   domain.MasterFormat
	Content  []byte
	Activate bool
}

// MasterService manages hierarchy masters. Masters come from two
// places: the database (seeded or uploaded) and the configured master
// directory on disk. Database entries shadow files of the same name.
type MasterService interface {
	List(ctx context.Context) ([]MasterInfo, error)
	Resolve(ctx context.Context, name string) (*hierarchy.Master, error)
	Validate(content []byte, format domain.MasterFormat) *validator.Report
	Upload(ctx context.Context, input *UploadMasterInput) (*domain.Master, error)
	SetActive(ctx context.Context, name string) error
}

type masterService struct {
	repo   port.MasterRepository // nil when persistence is disabled
	cfg    config.MasterConfig
	engine *validator.Engine
}

// NewMasterService creates a new MasterService implementation. repo
// may be nil; file-based masters keep working without it.
func NewMasterService(repo port.MasterRepository, cfg config.MasterConfig, engine *validator.Engine) MasterService {
	return &masterService{repo: repo, cfg: cfg, engine: engine}
}

func (s *masterService) List(ctx context.Context) ([]MasterInfo, error) {
	var infos []MasterInfo
	seen := make(map[string]bool)

	if s.repo != nil {
		masters, err := s.repo.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("masterService.List: %w", err)
		}
		for _, m := range masters {
			infos = append(infos, MasterInfo{
				Name:      m.Name,
				Format:    m.Format,
				LeafCount: m.LeafCount,
				Source:    "database",
				IsActive:  m.IsActive,
			})
			seen[m.Name] = true
		}
	}

	fileInfos, err := s.listDir(seen)
	if err != nil {
		return nil, err
	}
	infos = append(infos, fileInfos...)

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

func (s *masterService) listDir(seen map[string]bool) ([]MasterInfo, error) {
	if s.cfg.Dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(s.cfg.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("masterService.List: reading master dir: %w", err)
	}

	var infos []MasterInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(entry.Name())), ".")
		format, ok := domain.MasterFormatExtensions[ext]
		if !ok {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		if seen[name] {
			continue
		}
		m, err := hierarchy.LoadFile(filepath.Join(s.cfg.Dir, entry.Name()))
		if err != nil {
			log.Printf("masterService.List: skipping unreadable master %q: %v", entry.Name(), err)
			continue
		}
		infos = append(infos, MasterInfo{
			Name:      name,
			Format:    format,
			LeafCount: m.LeafCount(),
			Source:    "file",
		})
	}
	return infos, nil
}

// Resolve loads a master by name, checking the database before the
// master directory. An empty name falls back to the active database
// master and then to the configured default file; when neither exists
// it returns a nil master, which classification treats as whole-batch
// pass-through. Only an explicitly named master that cannot be found
// is an error.
func (s *masterService) Resolve(ctx context.Context, name string) (*hierarchy.Master, error) {
	if name != "" {
		if s.repo != nil {
			m, err := s.repo.GetByName(ctx, name)
			if err == nil {
				return hierarchy.Load(m.Content, m.Format)
			}
			if !errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("masterService.Resolve: %w", err)
			}
		}
		if path, ok := s.dirFile(name); ok {
			return hierarchy.LoadFile(path)
		}
		return nil, fmt.Errorf("master %q: %w", name, domain.ErrNotFound)
	}

	if s.repo != nil {
		m, err := s.repo.GetActive(ctx)
		if err == nil {
			return hierarchy.Load(m.Content, m.Format)
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("masterService.Resolve: %w", err)
		}
	}
	if s.cfg.Path != "" {
		return hierarchy.LoadFile(s.cfg.Path)
	}
	return nil, nil
}

// dirFile looks for name with any supported extension under the
// master directory.
func (s *masterService) dirFile(name string) (string, bool) {
	if s.cfg.Dir == "" {
		return "", false
	}
	for _, ext := range []string{"json", "csv", "xlsx"} {
		path := filepath.Join(s.cfg.Dir, name+"."+ext)
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}

func (s *masterService) Validate(content []byte, format domain.MasterFormat) *validator.Report {
	return s.engine.ValidateSource(content, format)
}

func (s *masterService) Upload(ctx context.Context, input *UploadMasterInput) (*domain.Master, error) {
	if s.repo == nil {
		return nil, domain.ErrPersistenceDisabled
	}

	m, err := hierarchy.Load(input.Content, input.Format)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	master := &domain.Master{
		ID:        uuid.New(),
		Name:      input.Name,
		Format:    input.Format,
		Content:   input.Content,
		LeafCount: m.LeafCount(),
		IsActive:  input.Activate,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Upsert(ctx, master); err != nil {
		return nil, fmt.Errorf("masterService.Upload: %w", err)
	}
	if input.Activate {
		if err := s.repo.SetActive(ctx, input.Name); err != nil {
			return nil, fmt.Errorf("masterService.Upload: activating: %w", err)
		}
	}

	log.Printf("masterService.Upload: stored master %q (%d leaves)", input.Name, master.LeafCount)
	return master, nil
}

func (s *masterService) SetActive(ctx context.Context, name string) error {
	if s.repo == nil {
		return domain.ErrPersistenceDisabled
	}
	if err := s.repo.SetActive(ctx, name); err != nil {
		return fmt.Errorf("masterService.SetActive: %w", err)
	}
	return nil
}
