package content

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
)

// Catalog is the set of publishable media files in the media directory.
// Hidden AppleDouble files and source assets are excluded. Immutable after
// load; safe for concurrent readers.
type Catalog struct {
	dir   string
	files []string
}

// NewCatalog scans dir for publishable media files.
func NewCatalog(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read media directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !Publishable(name) {
			continue
		}
		files = append(files, name)
	}

	return &Catalog{dir: dir, files: files}, nil
}

// Publishable reports whether a file name is eligible for upload.
func Publishable(name string) bool {
	if strings.HasPrefix(name, "._") {
		return false
	}
	if strings.HasSuffix(name, ".ai") || strings.HasSuffix(name, ".psd") {
		return false
	}
	return true
}

// IsVideo reports whether the named media file needs the video upload
// verification branch.
func IsVideo(name string) bool {
	return strings.HasSuffix(name, ".mp4")
}

// Len returns the number of files in the catalog.
func (c *Catalog) Len() int {
	return len(c.files)
}

// Files returns the catalog file names.
func (c *Catalog) Files() []string {
	return c.files
}

// Pick returns a uniformly random file name from the catalog. The catalog
// must not be empty.
func (c *Catalog) Pick(rng *rand.Rand) string {
	return c.files[rng.Intn(len(c.files))]
}

// Path returns the absolute path of a catalog file.
func (c *Catalog) Path(name string) string {
	return filepath.Join(c.dir, name)
}
