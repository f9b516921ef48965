package report

import (
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/bowlmetrics/server/internal/model"
	"github.com/bowlmetrics/server/internal/protein"
)

// Daily is the per-day operational report.
type Daily struct {
	Date        string           `json:"date"`
	Metrics     DailyMetrics     `json:"metrics"`
	Periods     Periods          `json:"periods"`
	Operational Operational      `json:"operational"`
	Payments    PaymentRatios    `json:"payments"`
	Assumptions DailyAssumptions `json:"assumptions"`
}

type DailyMetrics struct {
	Revenue       float64 `json:"revenue"`
	Unit          string  `json:"unit"`
	TotalOrders   int     `json:"total_orders"`
	TotalUnits    int     `json:"total_units"`
	AvgUnitPrice  float64 `json:"avg_unit_price"`
	DineInUnits   int     `json:"dine_in_units"`
	TakeoutUnits  int     `json:"takeout_units"`
	OnlineOrders  int     `json:"online_orders"`
	OnlinePercent float64 `json:"online_percent"`
}

type Periods struct {
	LunchOrders  int `json:"lunch_orders"`
	LunchUnits   int `json:"lunch_units"`
	DinnerOrders int `json:"dinner_orders"`
	DinnerUnits  int `json:"dinner_units"`
}

// PeakHour is one clock hour ranked by meal units.
type PeakHour struct {
	Hour  int     `json:"hour"`
	Units int     `json:"units"`
	Ratio float64 `json:"ratio"`
}

// Label renders the hour as "12:00-13:00".
func (p PeakHour) Label() string {
	return fmt.Sprintf("%d:00-%d:00", p.Hour, p.Hour+1)
}

type Operational struct {
	FirstPeak  *PeakHour       `json:"first_peak,omitempty"`
	SecondPeak *PeakHour       `json:"second_peak,omitempty"`
	Proteins   *protein.Result `json:"proteins"`
}

type PaymentRatios struct {
	CashOrderRatio    float64 `json:"cash_order_ratio"`
	LinePayOrderRatio float64 `json:"linepay_order_ratio"`
}

type DailyAssumptions struct {
	StaffMealRule string `json:"staff_meal_rule"`
	UnitRule      string `json:"unit_rule"`
	VoidedRule    string `json:"voided_rule"`
	Lunch         string `json:"lunch"`
	Dinner        string `json:"dinner"`
}

// Daily builds the report for one date. It returns nil when no eligible orders remain.
// The modifier ledger is weekly-grained, so daily protein figures exclude it.
// Protein ratios are shares of the combined protein total, not of total units.
func (a *Assembler) Daily(date string, orders []model.Order) *Daily {
	scored := a.score(orders)
	if len(scored) == 0 {
		return nil
	}

	s := a.settings
	all := sumWhere(scored, func(unitOrder) bool { return true })
	dineIn := sumWhere(scored, func(o unitOrder) bool { return slices.Contains(s.DineInTypes, o.OrderType) })
	takeout := sumWhere(scored, func(o unitOrder) bool { return slices.Contains(s.TakeoutTypes, o.OrderType) })
	online := sumWhere(scored, func(o unitOrder) bool { return slices.Contains(s.OnlineSources, o.OrderSource) })
	lunch := sumWhere(scored, func(o unitOrder) bool { return s.Lunch.Contains(o.CheckoutTime) })
	dinner := sumWhere(scored, func(o unitOrder) bool { return s.Dinner.Contains(o.CheckoutTime) })
	cash := sumWhere(scored, func(o unitOrder) bool { return NormalizePayment(o.PaymentMethod) == "Cash" })
	linePay := sumWhere(scored, func(o unitOrder) bool { return NormalizePayment(o.PaymentMethod) == "LinePay" })

	peaks := peakHours(scored, all.units)

	d := &Daily{
		Date: date,
		Metrics: DailyMetrics{
			Revenue:       round2(all.revenue),
			Unit:          "bowl",
			TotalOrders:   all.orders,
			TotalUnits:    all.units,
			AvgUnitPrice:  ratio(all.revenue, float64(all.units)),
			DineInUnits:   dineIn.units,
			TakeoutUnits:  takeout.units,
			OnlineOrders:  online.orders,
			OnlinePercent: round2(ratio(float64(online.orders), float64(all.orders)) * 100),
		},
		Periods: Periods{
			LunchOrders:  lunch.orders,
			LunchUnits:   lunch.units,
			DinnerOrders: dinner.orders,
			DinnerUnits:  dinner.units,
		},
		Operational: Operational{
			Proteins: a.analyzeProteins(scored, nil, all.units),
		},
		Payments: PaymentRatios{
			CashOrderRatio:    ratio(float64(cash.orders), float64(all.orders)),
			LinePayOrderRatio: ratio(float64(linePay.orders), float64(all.orders)),
		},
		Assumptions: DailyAssumptions{
			StaffMealRule: "invoice_amount <= 0 is excluded",
			UnitRule:      "item name has a unit marker, no exclusion, quantity inferred from price",
			VoidedRule:    fmt.Sprintf("order_status contains %q", s.VoidedMarker),
			Lunch:         s.Lunch.String(),
			Dinner:        s.Dinner.String(),
		},
	}
	if len(peaks) > 0 {
		d.Operational.FirstPeak = &peaks[0]
	}
	if len(peaks) > 1 {
		d.Operational.SecondPeak = &peaks[1]
	}
	return d
}

// peakHours ranks clock hours by units, ties going to the earlier hour.
func peakHours(orders []unitOrder, totalUnits int) []PeakHour {
	byHour := map[int]int{}
	for _, o := range orders {
		byHour[o.CheckoutTime.Hour()] += o.units
	}

	peaks := make([]PeakHour, 0, len(byHour))
	for h, n := range byHour {
		peaks = append(peaks, PeakHour{Hour: h, Units: n, Ratio: ratio(float64(n), float64(totalUnits))})
	}
	sort.Slice(peaks, func(i, j int) bool {
		if peaks[i].Units != peaks[j].Units {
			return peaks[i].Units > peaks[j].Units
		}
		return peaks[i].Hour < peaks[j].Hour
	})
	return peaks
}

// UnitPriceDiagnostics explains a day's average unit price.
type UnitPriceDiagnostics struct {
	Date               string        `json:"date"`
	AvgUnitPrice       float64       `json:"avg_unit_price"`
	TotalRevenue       float64       `json:"total_revenue"`
	TotalUnits         int           `json:"total_units"`
	ZeroUnitOrders     int           `json:"zero_unit_orders"`
	HighPriceThreshold float64       `json:"high_price_threshold"`
	TopHighPrice       []PricedOrder `json:"top_high_price_orders"`
}

// PricedOrder is an order with its revenue per meal unit.
type PricedOrder struct {
	CheckoutTime  time.Time `json:"checkout_time"`
	InvoiceAmount float64   `json:"invoice_amount"`
	Units         int       `json:"units"`
	UnitPrice     float64   `json:"unit_price"`
	ItemsText     string    `json:"items_text"`
}

// UnitPriceDiagnostics returns nil when no eligible orders remain.
func (a *Assembler) UnitPriceDiagnostics(date string, orders []model.Order) *UnitPriceDiagnostics {
	scored := a.score(orders)
	if len(scored) == 0 {
		return nil
	}

	all := sumWhere(scored, func(unitOrder) bool { return true })
	avg := ratio(all.revenue, float64(all.units))
	threshold := avg * a.settings.HighUnitPriceFactor

	diag := &UnitPriceDiagnostics{
		Date:               date,
		AvgUnitPrice:       avg,
		TotalRevenue:       round2(all.revenue),
		TotalUnits:         all.units,
		HighPriceThreshold: round2(threshold),
		TopHighPrice:       []PricedOrder{},
	}

	for _, o := range scored {
		if o.units == 0 {
			diag.ZeroUnitOrders++
			continue
		}
		unitPrice := o.InvoiceAmount / float64(o.units)
		if unitPrice >= threshold {
			diag.TopHighPrice = append(diag.TopHighPrice, PricedOrder{
				CheckoutTime:  o.CheckoutTime,
				InvoiceAmount: o.InvoiceAmount,
				Units:         o.units,
				UnitPrice:     round2(unitPrice),
				ItemsText:     o.ItemsText,
			})
		}
	}

	sort.SliceStable(diag.TopHighPrice, func(i, j int) bool {
		return diag.TopHighPrice[i].UnitPrice > diag.TopHighPrice[j].UnitPrice
	})
	if n := a.settings.DiagnosticsTopN; n > 0 && len(diag.TopHighPrice) > n {
		diag.TopHighPrice = diag.TopHighPrice[:n]
	}
	return diag
}
