// Package protein combines the independent protein tallies of a batch of
// orders into one distribution, ranks it and cross-checks it against the
// meal-unit count.
package protein

import (
	"math"
	"sort"

	"github.com/bowlmetrics/server/internal/menu"
	"github.com/bowlmetrics/server/internal/model"
)

// Ranked is one protein in a ranking, with its share of the combined total in percent.
type Ranked struct {
	Key   model.ProteinKey `json:"key"`
	Count int              `json:"count"`
	Ratio float64          `json:"ratio"`
}

// Result is the combined protein picture for one batch.
type Result struct {
	Sources  map[model.Source]model.Distribution `json:"sources"`
	Combined model.Distribution                  `json:"combined"`
	Total    int                                 `json:"total"`
	Ranking  []Ranked                            `json:"ranking"`
	Drift    *DriftWarning                       `json:"drift,omitempty"`
}

// Top returns the n-th ranked protein (0-based), or nil when the ranking is shorter.
func (r *Result) Top(n int) *Ranked {
	if n < 0 || n >= len(r.Ranking) {
		return nil
	}
	return &r.Ranking[n]
}

// batch is the classified input shared by every contributor.
type batch struct {
	orders    [][]menu.Token
	modifiers []model.ModifierRecord
}

type contributor func(a *Aggregator, b *batch, into model.Distribution)

var contributors = map[model.Source]contributor{
	model.SourceBowls:    (*Aggregator).tallyBowls,
	model.SourceNonBowls: (*Aggregator).tallyNonBowls,
	model.SourceSetMeals: (*Aggregator).tallySetMeals,
	model.SourceAdds:     (*Aggregator).tallyAdds,
}

// Aggregator is stateless apart from its read-only catalog.
type Aggregator struct {
	catalog *menu.Catalog
}

func NewAggregator(catalog *menu.Catalog) *Aggregator {
	return &Aggregator{catalog: catalog}
}

// Aggregate tallies every source over the item lines and modifier ledger and
// sums them element-wise.
func (a *Aggregator) Aggregate(itemsTexts []string, modifiers []model.ModifierRecord) *Result {
	b := &batch{
		orders:    make([][]menu.Token, 0, len(itemsTexts)),
		modifiers: modifiers,
	}
	for _, text := range itemsTexts {
		b.orders = append(b.orders, a.catalog.Classify(text))
	}

	res := &Result{
		Sources:  make(map[model.Source]model.Distribution, len(model.Sources)),
		Combined: a.catalog.EmptyDistribution(),
	}
	for _, src := range model.Sources {
		d := a.catalog.EmptyDistribution()
		contributors[src](a, b, d)
		res.Sources[src] = d
		res.Combined.Add(d)
	}

	res.Total = res.Combined.Total()
	res.Ranking = a.Rank(res.Combined)
	return res
}

// Analyze aggregates and then validates against the independently counted meal units.
func (a *Aggregator) Analyze(itemsTexts []string, modifiers []model.ModifierRecord, totalUnits int) *Result {
	res := a.Aggregate(itemsTexts, modifiers)
	res.Drift = Validate(
		totalUnits,
		res.Sources[model.SourceBowls],
		res.Sources[model.SourceSetMeals],
		a.catalog.ValidationTolerance,
	)
	return res
}

// Rank orders d by count descending. Ties keep catalog declaration order.
func (a *Aggregator) Rank(d model.Distribution) []Ranked {
	keys := a.catalog.ProteinKeys()
	total := 0
	for _, k := range keys {
		total += d[k]
	}

	ranked := make([]Ranked, 0, len(keys))
	for _, k := range keys {
		ranked = append(ranked, Ranked{Key: k, Count: d[k], Ratio: percent(d[k], total)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	return ranked
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*100*100) / 100
}

// units is what one matching token contributes under the catalog's quantity policy.
func (a *Aggregator) units(t menu.Token) int {
	if !a.catalog.ProteinScaleByQuantity {
		return 1
	}
	return max(a.catalog.Quantity(t), 1)
}

func (a *Aggregator) tallyBowls(b *batch, into model.Distribution) {
	for _, tokens := range b.orders {
		for _, t := range tokens {
			if !t.Qualifying {
				continue
			}
			for _, k := range t.Proteins {
				into[k] += a.units(t)
			}
		}
	}
}

func (a *Aggregator) tallyNonBowls(b *batch, into model.Distribution) {
	for _, tokens := range b.orders {
		for _, t := range tokens {
			if t.Qualifying {
				continue
			}
			for _, k := range t.Proteins {
				into[k]++
			}
		}
	}
}

func (a *Aggregator) tallySetMeals(b *batch, into model.Distribution) {
	for _, tokens := range b.orders {
		for _, t := range tokens {
			set, ok := a.catalog.SetMealFor(t.Name)
			if !ok {
				continue
			}
			n := a.units(t)
			for k, count := range set.Proteins {
				into[k] += count * n
			}
		}
	}
}

func (a *Aggregator) tallyAdds(b *batch, into model.Distribution) {
	for _, m := range b.modifiers {
		for _, k := range a.catalog.ProteinsIn(m.Name) {
			into[k] += m.Count
		}
	}
}
