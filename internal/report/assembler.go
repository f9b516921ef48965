package report

import (
	"math"
	"strings"

	"github.com/bowlmetrics/server/internal/menu"
	"github.com/bowlmetrics/server/internal/model"
	"github.com/bowlmetrics/server/internal/protein"
)

// Assembler turns a batch of orders into the daily and weekly report shapes.
// Each call is independent; nothing is retained between runs.
type Assembler struct {
	catalog  *menu.Catalog
	proteins *protein.Aggregator
	settings Settings
}

func NewAssembler(catalog *menu.Catalog, settings Settings) *Assembler {
	return &Assembler{
		catalog:  catalog,
		proteins: protein.NewAggregator(catalog),
		settings: settings,
	}
}

// Eligible drops voided orders and orders with no paid amount (staff meals, comps).
func (a *Assembler) Eligible(orders []model.Order) []model.Order {
	out := make([]model.Order, 0, len(orders))
	for _, o := range orders {
		if a.settings.VoidedMarker != "" && strings.Contains(o.Status, a.settings.VoidedMarker) {
			continue
		}
		if o.InvoiceAmount <= 0 {
			continue
		}
		out = append(out, o)
	}
	return out
}

// unitOrder is an eligible order with its inferred meal-unit count.
type unitOrder struct {
	model.Order
	units int
}

func (a *Assembler) score(orders []model.Order) []unitOrder {
	eligible := a.Eligible(orders)
	out := make([]unitOrder, 0, len(eligible))
	for _, o := range eligible {
		out = append(out, unitOrder{Order: o, units: a.catalog.CountUnitsSmart(o.ItemsText)})
	}
	return out
}

func (a *Assembler) analyzeProteins(orders []unitOrder, modifiers []model.ModifierRecord, totalUnits int) *protein.Result {
	texts := make([]string, 0, len(orders))
	for _, o := range orders {
		texts = append(texts, o.ItemsText)
	}
	return a.proteins.Analyze(texts, modifiers, totalUnits)
}

type totals struct {
	orders  int
	units   int
	revenue float64
}

func (t *totals) add(o unitOrder) {
	t.orders++
	t.units += o.units
	t.revenue += o.InvoiceAmount
}

func sumWhere(orders []unitOrder, keep func(unitOrder) bool) totals {
	var t totals
	for _, o := range orders {
		if keep(o) {
			t.add(o)
		}
	}
	return t
}

// ratio divides and rounds to 2 decimals; a zero denominator yields 0.
func ratio(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return round2(part / whole)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
