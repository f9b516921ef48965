package menu

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/bowlmetrics/server/internal/model"
)

const itemDelim = ","

// trailing "$149.0" style price
var priceSuffix = regexp.MustCompile(`^(.*?)\s*\$\s*(-?[0-9]+(?:\.[0-9]+)?)\s*$`)

// Token is one classified entry of an order's item line.
type Token struct {
	Name       string
	Price      float64
	HasPrice   bool
	Qualifying bool
	Proteins   []model.ProteinKey
}

// SplitItems splits an item line on commas, trimming and dropping empty entries.
// The POS never prints thousands separators in line prices; a "$1,440.0" would
// split into two entries.
func SplitItems(itemsText string) []string {
	if strings.TrimSpace(itemsText) == "" {
		return nil
	}
	parts := strings.Split(itemsText, itemDelim)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseToken extracts the name and trailing price of a single item.
// ok is false when no parseable price is present; name is then the whole token.
func ParseToken(raw string) (name string, price float64, ok bool) {
	raw = strings.TrimSpace(raw)
	m := priceSuffix.FindStringSubmatch(raw)
	if m == nil {
		return raw, 0, false
	}
	v, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return raw, 0, false
	}
	return strings.TrimSpace(m[1]), v, true
}

// IsMealUnit reports whether name carries a unit marker and no exclusion.
func (c *Catalog) IsMealUnit(name string) bool {
	return containsAny(name, c.UnitMarkers) && !containsAny(name, c.Exclusions)
}

// Classify parses and classifies every token of an order's item line.
// Empty input yields an empty slice.
func (c *Catalog) Classify(itemsText string) []Token {
	raws := SplitItems(itemsText)
	tokens := make([]Token, 0, len(raws))
	for _, raw := range raws {
		name, price, ok := ParseToken(raw)
		tokens = append(tokens, Token{
			Name:       name,
			Price:      price,
			HasPrice:   ok,
			Qualifying: c.IsMealUnit(name),
			Proteins:   c.ProteinsIn(name),
		})
	}
	return tokens
}

// Quantity is the number of meal units the token stands for. Tokens without
// a price count once; non-qualifying tokens count zero.
func (c *Catalog) Quantity(t Token) int {
	if !t.Qualifying {
		return 0
	}
	if !t.HasPrice {
		return 1
	}
	return c.InferQuantity(t.Name, t.Price)
}

// CountUnits counts qualifying tokens without price inference.
func (c *Catalog) CountUnits(itemsText string) int {
	n := 0
	for _, t := range c.Classify(itemsText) {
		if t.Qualifying {
			n++
		}
	}
	return n
}

// CountUnitsSmart counts meal units, expanding merged lines by inferred quantity.
func (c *Catalog) CountUnitsSmart(itemsText string) int {
	n := 0
	for _, t := range c.Classify(itemsText) {
		n += c.Quantity(t)
	}
	return n
}
