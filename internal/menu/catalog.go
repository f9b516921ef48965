package menu

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"gopkg.in/yaml.v3"

	errx "github.com/bowlmetrics/server/internal/core/error"
	"github.com/bowlmetrics/server/internal/model"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// MealPrice is the undiscounted base price of one meal unit.
type MealPrice struct {
	Name  string  `yaml:"name"`
	Price float64 `yaml:"price"`
}

// ProteinRule maps a protein key to the substrings that must all appear
// in an item name for it to count.
type ProteinRule struct {
	Key      model.ProteinKey `yaml:"key"`
	Keywords []string         `yaml:"keywords"`
}

// SetMeal is a bundled product that yields a fixed protein composition.
type SetMeal struct {
	Name     string                   `yaml:"name"`
	Proteins map[model.ProteinKey]int `yaml:"proteins"`
}

// InferenceOptions tunes the price arithmetic in InferQuantity.
type InferenceOptions struct {
	// PriceTolerance is how far a per-unit add-on may sit from zero and still be "no add-on".
	PriceTolerance float64 `yaml:"price_tolerance"`
	// AddonTolerance is the slack when matching a leftover against add-on combinations.
	AddonTolerance int `yaml:"addon_tolerance"`
	// MaxAddonPerUnit rejects leftovers too large to be real add-ons.
	MaxAddonPerUnit float64 `yaml:"max_addon_per_unit"`
}

// Catalog is the static menu configuration. It is read-only once loaded.
type Catalog struct {
	UnitMarkers            []string         `yaml:"unit_markers"`
	Exclusions             []string         `yaml:"exclusions"`
	DiscountFactor         float64          `yaml:"discount_factor"`
	Meals                  []MealPrice      `yaml:"meals"`
	AddonPrices            []int            `yaml:"addon_prices"`
	Inference              InferenceOptions `yaml:"inference"`
	Proteins               []ProteinRule    `yaml:"proteins"`
	SetMeals               []SetMeal        `yaml:"set_meals"`
	ValidationTolerance    int              `yaml:"validation_tolerance"`
	ProteinScaleByQuantity bool             `yaml:"protein_scale_by_quantity"`
}

// DefaultCatalog returns the catalog embedded in the binary.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCatalogYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return c
}

// LoadCatalog reads a catalog from path, or the embedded default when path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return ParseCatalog(defaultCatalogYAML)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file %s: %w", path, err)
	}
	return ParseCatalog(data)
}

// ParseCatalog parses YAML data over the defaults and validates the result.
// Fields absent from data keep their default; explicit zeros are kept.
func ParseCatalog(data []byte) (*Catalog, error) {
	c := defaults()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog YAML: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func defaults() *Catalog {
	return &Catalog{
		DiscountFactor: 1,
		Inference: InferenceOptions{
			PriceTolerance:  5,
			AddonTolerance:  2,
			MaxAddonPerUnit: 300,
		},
		ValidationTolerance: 5,
	}
}

// Validate checks the invariants the inference and aggregation code rely on.
func (c *Catalog) Validate() error {
	if len(c.UnitMarkers) == 0 {
		return errx.InvalidInput("catalog: at least one unit marker is required")
	}
	if c.DiscountFactor <= 0 || c.DiscountFactor > 1 {
		return errx.InvalidInput("catalog: discount factor %v must be in (0, 1]", c.DiscountFactor)
	}
	for _, m := range c.Meals {
		if m.Name == "" {
			return errx.InvalidInput("catalog: meal with empty name")
		}
		if m.Price <= 0 {
			return errx.InvalidInput("catalog: meal %q has non-positive price %v", m.Name, m.Price)
		}
	}
	for _, p := range c.AddonPrices {
		if p <= 0 {
			return errx.InvalidInput("catalog: add-on price %d must be positive", p)
		}
	}
	if c.Inference.PriceTolerance < 0 || c.Inference.AddonTolerance < 0 || c.Inference.MaxAddonPerUnit < 0 {
		return errx.InvalidInput("catalog: inference tolerances must not be negative")
	}
	if c.ValidationTolerance < 0 {
		return errx.InvalidInput("catalog: validation tolerance %d must not be negative", c.ValidationTolerance)
	}

	known := make(map[model.ProteinKey]bool, len(c.Proteins))
	for _, r := range c.Proteins {
		if r.Key == "" || len(r.Keywords) == 0 {
			return errx.InvalidInput("catalog: protein rule %q needs a key and keywords", r.Key)
		}
		if known[r.Key] {
			return errx.InvalidInput("catalog: duplicate protein key %q", r.Key)
		}
		known[r.Key] = true
	}
	for _, s := range c.SetMeals {
		for k, n := range s.Proteins {
			if !known[k] {
				return errx.InvalidInput("catalog: set meal %q references unknown protein %q", s.Name, k)
			}
			if n < 0 {
				return errx.InvalidInput("catalog: set meal %q has negative count for %q", s.Name, k)
			}
		}
	}
	return nil
}

// Fingerprint is a short content hash of the catalog. Reports built from
// catalogs with different content get different fingerprints.
func (c *Catalog) Fingerprint() string {
	b, err := yaml.Marshal(c)
	if err != nil {
		b = fmt.Appendf(nil, "%#v", *c)
	}
	return strconv.FormatUint(xxhash.Sum64(b), 16)
}

// ProteinKeys returns the protein enumeration in declaration order.
func (c *Catalog) ProteinKeys() []model.ProteinKey {
	keys := make([]model.ProteinKey, 0, len(c.Proteins))
	for _, r := range c.Proteins {
		keys = append(keys, r.Key)
	}
	return keys
}

// EmptyDistribution returns a distribution with every protein key at zero.
func (c *Catalog) EmptyDistribution() model.Distribution {
	d := make(model.Distribution, len(c.Proteins))
	for _, r := range c.Proteins {
		d[r.Key] = 0
	}
	return d
}

// BasePrice finds the first catalog meal whose name is contained in name.
func (c *Catalog) BasePrice(name string) (float64, bool) {
	for _, m := range c.Meals {
		if strings.Contains(name, m.Name) {
			return m.Price, true
		}
	}
	return 0, false
}

// ProteinsIn returns, in declaration order, every protein whose keywords all appear in name.
func (c *Catalog) ProteinsIn(name string) []model.ProteinKey {
	var keys []model.ProteinKey
	for _, r := range c.Proteins {
		if containsAll(name, r.Keywords) {
			keys = append(keys, r.Key)
		}
	}
	return keys
}

// MentionsProtein reports whether name contains any protein keyword at all.
func (c *Catalog) MentionsProtein(name string) bool {
	for _, r := range c.Proteins {
		if containsAny(name, r.Keywords) {
			return true
		}
	}
	return false
}

// SetMealFor returns the first set meal whose name is contained in name.
func (c *Catalog) SetMealFor(name string) (SetMeal, bool) {
	for _, s := range c.SetMeals {
		if strings.Contains(name, s.Name) {
			return s, true
		}
	}
	return SetMeal{}, false
}

func containsAll(s string, subs []string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
