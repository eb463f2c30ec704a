package brand

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"BrandPulse/internal/domain"
	"BrandPulse/internal/ports"
)

// repoFile mirrors the on-disk layout of the brand repository.
type repoFile struct {
	Brands []domain.BrandConfig `yaml:"brands"`
}

// Loader reads brand configurations from a YAML repository file.
type Loader struct {
	path   string
	logger *slog.Logger
}

var _ ports.BrandSource = (*Loader)(nil)

// NewLoader points the source at the repository file.
func NewLoader(path string, logger *slog.Logger) *Loader {
	return &Loader{path: path, logger: logger}
}

// LoadBrand returns the configuration whose id or display name matches
// brandID. The file is re-read on every call so edits take effect without
// a restart.
func (l *Loader) LoadBrand(brandID string) (domain.BrandConfig, error) {
	raw, err := os.ReadFile(l.path)
	if err != nil {
		return domain.BrandConfig{}, fmt.Errorf("read brand repo %s: %w", l.path, err)
	}

	var file repoFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return domain.BrandConfig{}, fmt.Errorf("parse brand repo %s: %w", l.path, err)
	}

	for _, b := range file.Brands {
		if b.ID == brandID || strings.EqualFold(b.DisplayName, brandID) {
			if l.logger != nil {
				l.logger.Debug("brand loaded", "brand_id", b.ID)
			}
			return b, nil
		}
	}

	return domain.BrandConfig{}, fmt.Errorf("brand %q not found in %s", brandID, l.path)
}
