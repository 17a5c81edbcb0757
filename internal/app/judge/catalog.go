package judge

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"brocode_arena/internal/domain/model"

	"gopkg.in/yaml.v3"
)

// CatalogEntry holds the hidden test cases for one question.
type CatalogEntry struct {
	Name      string           `json:"name" yaml:"name"`
	Points    int              `json:"points" yaml:"points"`
	TestCases []model.TestCase `json:"test_cases" yaml:"test_cases"`
}

// Catalog maps upper-cased external question ids to their entries.
type Catalog map[string]CatalogEntry

// LoadCatalog reads a catalog file. Files ending in .json are decoded as
// JSON; everything else as YAML.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read test case catalog: %w", err)
	}
	return ParseCatalog(data, strings.EqualFold(filepath.Ext(path), ".json"))
}

func ParseCatalog(data []byte, isJSON bool) (Catalog, error) {
	raw := map[string]CatalogEntry{}
	var err error
	if isJSON {
		err = json.Unmarshal(data, &raw)
	} else {
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, fmt.Errorf("parse test case catalog: %w", err)
	}

	catalog := make(Catalog, len(raw))
	for id, entry := range raw {
		catalog[normalizeID(id)] = entry
	}
	return catalog, nil
}

func (c Catalog) Lookup(questionID string) (CatalogEntry, bool) {
	e, ok := c[normalizeID(questionID)]
	return e, ok
}

func normalizeID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}
