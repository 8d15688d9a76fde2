package etl

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"smartbudget/pkg/db"
)

// SeedConfig holds the reference data applied by the seed stage. It mirrors
// the structure of config/seed.yaml.
type SeedConfig struct {
	Categories       []SeedCategory        `yaml:"categories"`
	CategoryMappings []SeedCategoryMapping `yaml:"category_mappings"`
	Labels           []SeedLabel           `yaml:"labels"`
	LabelWeights     []SeedLabelWeight     `yaml:"label_weights"`
	LabelRules       []SeedLabelRule       `yaml:"label_rules"`
	PaymentModes     []SeedPaymentMode     `yaml:"payment_modes"`
}

// SeedCategory is one canonical spending category.
type SeedCategory struct {
	ID          int64  `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
}

// SeedCategoryMapping maps a raw source value to a category.
type SeedCategoryMapping struct {
	SourceSystem string `yaml:"source_system"`
	RawValue     string `yaml:"raw_value"`
	CategoryID   int64  `yaml:"category_id"`
}

// SeedLabel is one label.
type SeedLabel struct {
	ID   int64  `yaml:"id"`
	Name string `yaml:"name"`
}

// SeedLabelWeight is the initial weight of a label.
type SeedLabelWeight struct {
	LabelID int64   `yaml:"label_id"`
	Weight  float64 `yaml:"weight"`
}

// SeedLabelRule assigns a label to every expense of a category.
type SeedLabelRule struct {
	Category string `yaml:"category"`
	Label    string `yaml:"label"`
}

// SeedPaymentMode is one payment mode.
type SeedPaymentMode struct {
	ID   int64  `yaml:"id"`
	Name string `yaml:"name"`
}

// DefaultSeedConfig returns the built-in reference data, used when no seed
// file is present.
func DefaultSeedConfig() *SeedConfig {
	return &SeedConfig{
		Categories: []SeedCategory{
			{ID: 1, Name: "Groceries"},
			{ID: 2, Name: "Dining"},
			{ID: 3, Name: "Transport"},
		},
		CategoryMappings: []SeedCategoryMapping{
			{SourceSystem: "google_sheets", RawValue: "supermarket", CategoryID: 1},
			{SourceSystem: "google_sheets", RawValue: "groceries", CategoryID: 1},
			{SourceSystem: "google_sheets", RawValue: "restaurant", CategoryID: 2},
			{SourceSystem: "google_sheets", RawValue: "uber", CategoryID: 3},
		},
		Labels: []SeedLabel{
			{ID: 101, Name: "essential"},
			{ID: 102, Name: "discretionary"},
			{ID: 103, Name: "work"},
		},
		LabelWeights: []SeedLabelWeight{
			{LabelID: 101, Weight: 0.5},
			{LabelID: 102, Weight: 1.5},
			{LabelID: 103, Weight: 0.8},
		},
		LabelRules: []SeedLabelRule{
			{Category: "Groceries", Label: "essential"},
			{Category: "Dining", Label: "discretionary"},
		},
		PaymentModes: []SeedPaymentMode{
			{ID: 1, Name: "cash"},
			{ID: 2, Name: "card"},
			{ID: 3, Name: "upi"},
		},
	}
}

// LoadSeedConfig loads seed data from a YAML file.
func LoadSeedConfig(configPath string) (*SeedConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var cfg SeedConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	return &cfg, nil
}

// LoadSeedConfigOrDefault loads the seed file, falling back to the built-in
// defaults when the file doesn't exist.
func LoadSeedConfigOrDefault(configPath string) (*SeedConfig, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		slog.Debug("Seed file not found, using built-in defaults", "path", configPath)
		return DefaultSeedConfig(), nil
	}

	return LoadSeedConfig(configPath)
}

// Seeder applies reference data to the store.
type Seeder struct {
	reference *db.Reference
	labels    *db.Labels
	now       func() time.Time
}

// NewSeeder creates a new Seeder.
func NewSeeder(conn *db.Connection) *Seeder {
	return &Seeder{
		reference: db.NewReference(conn),
		labels:    db.NewLabels(conn),
		now:       time.Now,
	}
}

// Apply writes the seed data. Every write is insert-or-ignore and a label
// that already has a weight row keeps it, so seeding an already seeded
// database changes nothing. Returns the number of seed entries processed.
func (s *Seeder) Apply(cfg *SeedConfig) (int64, error) {
	var applied int64

	for _, c := range cfg.Categories {
		category := db.Category{CategoryID: c.ID, Name: c.Name, Description: nullString(c.Description)}
		if err := s.reference.EnsureCategory(category); err != nil {
			return applied, err
		}
		applied++
	}

	for _, m := range cfg.CategoryMappings {
		mapping := db.CategoryMapping{SourceSystem: m.SourceSystem, RawValue: m.RawValue, CategoryID: m.CategoryID}
		if err := s.reference.EnsureCategoryMapping(mapping); err != nil {
			return applied, err
		}
		applied++
	}

	for _, l := range cfg.Labels {
		if err := s.labels.Ensure(db.Label{LabelID: l.ID, Name: l.Name}); err != nil {
			return applied, err
		}
		applied++
	}

	effectiveFrom := s.now()
	for _, w := range cfg.LabelWeights {
		// The weight PK is (label_id, effective_from); inserting with a fresh
		// timestamp on every run would pile up active weights, so a label
		// that already has one is skipped.
		exists, err := s.labels.HasWeight(w.LabelID)
		if err != nil {
			return applied, err
		}
		if !exists {
			weight := db.LabelWeight{LabelID: w.LabelID, Weight: w.Weight, EffectiveFrom: effectiveFrom}
			if err := s.labels.EnsureWeight(weight); err != nil {
				return applied, err
			}
		}
		applied++
	}

	for _, r := range cfg.LabelRules {
		rule := db.LabelRule{CategoryName: r.Category, LabelName: r.Label}
		if err := s.reference.EnsureLabelRule(rule); err != nil {
			return applied, err
		}
		applied++
	}

	for _, m := range cfg.PaymentModes {
		mode := db.PaymentMode{PaymentModeID: m.ID, Name: m.Name}
		if err := s.reference.EnsurePaymentMode(mode); err != nil {
			return applied, err
		}
		applied++
	}

	slog.Info("Seed applied",
		"categories", len(cfg.Categories),
		"mappings", len(cfg.CategoryMappings),
		"labels", len(cfg.Labels),
		"rules", len(cfg.LabelRules),
	)

	return applied, nil
}
