// Package scan lists the photos in a site folder and stamps each one
// with its capture date.
package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"

	"daicho/internal/domain"
)

// DateLayout is the timestamp format records carry through the
// pipeline and into the rendered ledger.
const DateLayout = "2006-01-02 15:04"

// Photo is one image found in the scanned folder.
type Photo struct {
	FilePath string
	FileName string
	FileType domain.PhotoFileType
	// Date is the capture timestamp in DateLayout, EXIF when the file
	// has it, file modification time otherwise.
	Date string
}

// Folder lists the photos directly under path, sorted by file name.
// Subdirectories are not descended into; files without a photo
// extension are skipped.
func Folder(path string) ([]Photo, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("scan folder %q: %w", path, domain.ErrFolderNotFound)
		}
		return nil, fmt.Errorf("scan folder %q: %w", path, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan folder %q: not a directory: %w", path, domain.ErrFolderNotFound)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("scan folder %q: %w", path, err)
	}

	// os.ReadDir returns entries sorted by name, which is the ledger
	// order.
	photos := make([]Photo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
		fileType, ok := domain.PhotoExtensions[ext]
		if !ok {
			continue
		}
		full := filepath.Join(path, name)
		photos = append(photos, Photo{
			FilePath: full,
			FileName: name,
			FileType: fileType,
			Date:     captureDate(full, entry),
		})
	}
	return photos, nil
}

func captureDate(path string, entry os.DirEntry) string {
	if t, err := exifTime(path); err == nil {
		return t.Format(DateLayout)
	}
	info, err := entry.Info()
	if err != nil {
		return ""
	}
	return info.ModTime().Format(DateLayout)
}

// exifTime reads the capture timestamp from the file's EXIF block.
// goexif's DateTime prefers DateTimeOriginal and falls back to
// DateTime on its own.
func exifTime(path string) (time.Time, error) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, err
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return time.Time{}, err
	}
	return x.DateTime()
}
