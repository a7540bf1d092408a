// Package sink persists result batches. Every save rewrites the whole
// output through a temp-then-rename cycle, so the destination always holds
// either the previous complete batch or the new one, never a partial write.
package sink

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aluiziolira/go-scrape-reviews/models"
)

// Writer defines the interface for checkpoint output.
type Writer interface {
	Save(batch []*models.HotelReviews) error
	Close() error
	Validate() error
}

// atomicWrite streams content into a sibling temp file and renames it over
// path. On any failure the temp file is removed and the destination is left
// untouched.
func atomicWrite(path string, write func(io.Writer) error) (err error) {
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(tmpPath)
		}
	}()

	if err = write(f); err != nil {
		return err
	}
	if err = f.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
