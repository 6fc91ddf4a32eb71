package engine

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/bantay-panahon/stormwatch/internal/config"
)

// keywordOverlay is the YAML shape for keyword-table tuning files.
type keywordOverlay struct {
	CriticalKeywords []string `yaml:"critical_keywords"`
	MediumKeywords   []string `yaml:"medium_keywords"`
}

// LoadKeywordOverlay reads a YAML file of keyword tables and applies any
// non-empty list to cfg. Keyword tuning stays data-only: scoring logic is
// untouched.
func LoadKeywordOverlay(path string, cfg config.EngineConfig) (config.EngineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, eris.Wrapf(err, "engine: read keyword overlay %s", path)
	}

	var overlay keywordOverlay
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return cfg, eris.Wrapf(err, "engine: parse keyword overlay %s", path)
	}

	if len(overlay.CriticalKeywords) > 0 {
		cfg.CriticalKeywords = overlay.CriticalKeywords
	}
	if len(overlay.MediumKeywords) > 0 {
		cfg.MediumKeywords = overlay.MediumKeywords
	}
	return cfg, nil
}
