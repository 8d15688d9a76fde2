package etl

import (
	"smartbudget/pkg/db"
)

// CategoryMapper resolves raw source category values to canonical category
// ids using the category_mappings table. Matching is exact: the staged value
// must equal the mapped raw value.
type CategoryMapper struct {
	sourceSystem string
	mappings     map[string]int64
}

// NewCategoryMapper loads the mappings for a source system.
func NewCategoryMapper(reference *db.Reference, sourceSystem string) (*CategoryMapper, error) {
	mappings, err := reference.LoadCategoryMappings(sourceSystem)
	if err != nil {
		return nil, err
	}

	return &CategoryMapper{
		sourceSystem: sourceSystem,
		mappings:     mappings,
	}, nil
}

// SourceSystem returns the source system this mapper serves.
func (m *CategoryMapper) SourceSystem() string {
	return m.sourceSystem
}

// HasMapping reports whether a raw value has a canonical category.
func (m *CategoryMapper) HasMapping(rawValue string) bool {
	_, ok := m.mappings[rawValue]
	return ok
}

// Lookup returns the category id for a raw value.
func (m *CategoryMapper) Lookup(rawValue string) (int64, bool) {
	id, ok := m.mappings[rawValue]
	return id, ok
}
