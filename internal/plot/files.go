package plot

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/banshee-data/gaze.report/internal/fsutil"
	"github.com/banshee-data/gaze.report/internal/security"
)

// Writer saves rendered reports under a single output directory.
type Writer struct {
	FS  fsutil.FileSystem
	Dir string
}

// Save creates Dir/<sanitised name> and fills it with render. It returns
// the path written.
func (rw Writer) Save(name string, render func(io.Writer) error) (string, error) {
	if err := rw.FS.MkdirAll(rw.Dir, 0755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(rw.Dir, security.SanitizeFilename(name))
	if _, isOS := rw.FS.(fsutil.OSFileSystem); isOS {
		if err := security.ValidatePathWithinDirectory(path, rw.Dir); err != nil {
			return "", err
		}
	}

	f, err := rw.FS.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	if err := render(f); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	return path, nil
}
