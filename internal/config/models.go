package config

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed models.yaml
var defaultModels []byte

// Model describes one model under test.
type Model struct {
	Name          string `yaml:"name" validate:"required"`
	Provider      string `yaml:"provider" validate:"required,oneof=ollama openai"`
	ContextLength int    `yaml:"context_length" validate:"required,min=1"`
	// ReportPrefix is the report subdirectory results for this model go to.
	ReportPrefix string `yaml:"report_prefix" validate:"required"`
}

// Catalog is the set of models the harness can run.
type Catalog struct {
	Models []Model `yaml:"models" validate:"required,min=1,dive"`
}

var validate = validator.New()

// LoadCatalog reads the catalog from path, or the built-in catalog when path is empty.
func LoadCatalog(path string) (Catalog, error) {
	data := defaultModels
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Catalog{}, fmt.Errorf("failed to read models file: %w", err)
		}
		data = b
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates a YAML catalog.
func ParseCatalog(data []byte) (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Catalog{}, fmt.Errorf("failed to parse models: %w", err)
	}
	if err := validate.Struct(&c); err != nil {
		return Catalog{}, fmt.Errorf("invalid models: %w", err)
	}
	seen := make(map[string]bool, len(c.Models))
	for _, m := range c.Models {
		if seen[m.Name] {
			return Catalog{}, fmt.Errorf("invalid models: duplicate model %q", m.Name)
		}
		seen[m.Name] = true
	}
	return c, nil
}

// Lookup returns the model with the given name.
func (c Catalog) Lookup(name string) (Model, bool) {
	for _, m := range c.Models {
		if m.Name == name {
			return m, true
		}
	}
	return Model{}, false
}

// Providers maps model names to providers.
func (c Catalog) Providers() map[string]string {
	out := make(map[string]string, len(c.Models))
	for _, m := range c.Models {
		out[m.Name] = m.Provider
	}
	return out
}

// ReportPrefixes maps model names to report subdirectories.
func (c Catalog) ReportPrefixes() map[string]string {
	out := make(map[string]string, len(c.Models))
	for _, m := range c.Models {
		out[m.Name] = m.ReportPrefix
	}
	return out
}

// Names returns the model names in sorted order.
func (c Catalog) Names() []string {
	out := make([]string, 0, len(c.Models))
	for _, m := range c.Models {
		out = append(out, m.Name)
	}
	sort.Strings(out)
	return out
}
