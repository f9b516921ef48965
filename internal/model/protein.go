package model

import "fmt"

// ProteinKey tags the principal protein of a meal unit or add-on.
type ProteinKey string

// Distribution counts protein units per key. Keys outside the catalog's
// enumeration are never written.
type Distribution map[ProteinKey]int

// Total sums every count in the distribution.
func (d Distribution) Total() int {
	total := 0
	for _, n := range d {
		total += n
	}
	return total
}

// Add merges other into d element-wise.
func (d Distribution) Add(other Distribution) {
	for k, n := range other {
		d[k] += n
	}
}

// Source names one of the independent protein tallies.
type Source int

const (
	SourceBowls Source = iota
	SourceNonBowls
	SourceSetMeals
	SourceAdds
)

// Sources lists every tally in summation order.
var Sources = []Source{SourceBowls, SourceNonBowls, SourceSetMeals, SourceAdds}

func (s Source) String() string {
	switch s {
	case SourceBowls:
		return "bowls"
	case SourceNonBowls:
		return "non_bowls"
	case SourceSetMeals:
		return "set_meals"
	case SourceAdds:
		return "adds"
	default:
		return "unknown"
	}
}

// MarshalText keeps Source readable as a JSON map key.
func (s Source) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText is the inverse of MarshalText so cached reports decode.
func (s *Source) UnmarshalText(b []byte) error {
	for _, src := range Sources {
		if src.String() == string(b) {
			*s = src
			return nil
		}
	}
	return fmt.Errorf("unknown protein source %q", b)
}
