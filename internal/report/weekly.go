package report

import (
	"slices"
	"sort"

	"github.com/bowlmetrics/server/internal/model"
	"github.com/bowlmetrics/server/internal/protein"
)

// Weekly is the multi-day structural report.
type Weekly struct {
	Start string `json:"start"`
	End   string `json:"end"`

	TotalOrders  int     `json:"total_orders"`
	TotalUnits   int     `json:"total_units"`
	TotalRevenue float64 `json:"total_revenue"`

	OrderSize OrderSizeSplit `json:"order_size"`

	HourlyOrders map[int]int `json:"hourly_orders"`
	HourlyUnits  map[int]int `json:"hourly_units"`

	LunchOrders   int `json:"lunch_orders"`
	DinnerOrders  int `json:"dinner_orders"`
	PeakOrders    int `json:"peak_orders"`
	NonPeakOrders int `json:"non_peak_orders"`

	DineIn  Channel `json:"dine_in"`
	Takeout Channel `json:"takeout"`
	Online  Channel `json:"online"`
	Cash    Channel `json:"cash"`
	LinePay Channel `json:"linepay"`

	Days   []DayTotals `json:"days"`
	MaxDay DayTotals   `json:"max_unit_day"`
	MinDay DayTotals   `json:"min_unit_day"`

	PriceBands      PriceBands `json:"price_distribution"`
	HighValueOrders int        `json:"high_value_orders"`

	Proteins *protein.Result `json:"proteins"`
}

// OrderSizeSplit buckets orders by meal units: exactly 1, exactly 2, 3 or more.
type OrderSizeSplit struct {
	OneOrders        int     `json:"one_unit_orders"`
	TwoOrders        int     `json:"two_unit_orders"`
	ThreePlus        int     `json:"three_plus_unit_orders"`
	OneRevenue       float64 `json:"one_unit_revenue"`
	TwoRevenue       float64 `json:"two_unit_revenue"`
	ThreePlusRevenue float64 `json:"three_plus_unit_revenue"`
}

// Channel is an order slice crossed with the peak window.
type Channel struct {
	Orders        int `json:"orders"`
	Units         int `json:"units"`
	PeakOrders    int `json:"peak_orders"`
	NonPeakOrders int `json:"non_peak_orders"`
}

type DayTotals struct {
	Date    string  `json:"date"`
	Orders  int     `json:"orders"`
	Units   int     `json:"units"`
	Revenue float64 `json:"revenue"`
}

type PriceBands struct {
	Low  int `json:"low"`
	Mid  int `json:"mid"`
	High int `json:"high"`
}

// Weekly builds the report for [start, end]. It returns nil when no eligible
// orders remain. modifiers feed the add-on protein tally.
func (a *Assembler) Weekly(start, end string, orders []model.Order, modifiers []model.ModifierRecord) *Weekly {
	scored := a.score(orders)
	if len(scored) == 0 {
		return nil
	}

	s := a.settings
	w := &Weekly{
		Start:        start,
		End:          end,
		HourlyOrders: map[int]int{},
		HourlyUnits:  map[int]int{},
	}

	isDineIn := func(o unitOrder) bool { return slices.Contains(s.DineInTypes, o.OrderType) }
	isTakeout := func(o unitOrder) bool { return slices.Contains(s.TakeoutTypes, o.OrderType) }
	isOnline := func(o unitOrder) bool { return slices.Contains(s.OnlineSources, o.OrderSource) }
	isCash := func(o unitOrder) bool { return NormalizePayment(o.PaymentMethod) == "Cash" }
	isLinePay := func(o unitOrder) bool { return NormalizePayment(o.PaymentMethod) == "LinePay" }

	days := map[string]*DayTotals{}
	for _, o := range scored {
		w.TotalOrders++
		w.TotalUnits += o.units
		w.TotalRevenue += o.InvoiceAmount

		switch {
		case o.units == 1:
			w.OrderSize.OneOrders++
			w.OrderSize.OneRevenue += o.InvoiceAmount
		case o.units == 2:
			w.OrderSize.TwoOrders++
			w.OrderSize.TwoRevenue += o.InvoiceAmount
		case o.units >= 3:
			w.OrderSize.ThreePlus++
			w.OrderSize.ThreePlusRevenue += o.InvoiceAmount
		}

		h := o.CheckoutTime.Hour()
		w.HourlyOrders[h]++
		w.HourlyUnits[h] += o.units

		if s.Lunch.Contains(o.CheckoutTime) {
			w.LunchOrders++
		}
		if s.Dinner.Contains(o.CheckoutTime) {
			w.DinnerOrders++
		}
		peak := s.Peak.Contains(o.CheckoutTime)
		if peak {
			w.PeakOrders++
		} else {
			w.NonPeakOrders++
		}

		w.DineIn.tally(o, peak, isDineIn)
		w.Takeout.tally(o, peak, isTakeout)
		w.Online.tally(o, peak, isOnline)
		w.Cash.tally(o, peak, isCash)
		w.LinePay.tally(o, peak, isLinePay)

		date := o.CheckoutTime.Format("2006-01-02")
		d, ok := days[date]
		if !ok {
			d = &DayTotals{Date: date}
			days[date] = d
		}
		d.Orders++
		d.Units += o.units
		d.Revenue += o.InvoiceAmount

		switch {
		case o.InvoiceAmount < s.PriceBandLow:
			w.PriceBands.Low++
		case o.InvoiceAmount <= s.PriceBandHigh:
			w.PriceBands.Mid++
		default:
			w.PriceBands.High++
		}
		if o.InvoiceAmount >= s.HighValue {
			w.HighValueOrders++
		}
	}

	w.TotalRevenue = round2(w.TotalRevenue)
	w.Days = make([]DayTotals, 0, len(days))
	for _, d := range days {
		d.Revenue = round2(d.Revenue)
		w.Days = append(w.Days, *d)
	}
	sort.Slice(w.Days, func(i, j int) bool { return w.Days[i].Date < w.Days[j].Date })

	// first day wins on ties, in date order
	w.MaxDay, w.MinDay = w.Days[0], w.Days[0]
	for _, d := range w.Days[1:] {
		if d.Units > w.MaxDay.Units {
			w.MaxDay = d
		}
		if d.Units < w.MinDay.Units {
			w.MinDay = d
		}
	}

	w.Proteins = a.analyzeProteins(scored, modifiers, w.TotalUnits)
	return w
}

func (c *Channel) tally(o unitOrder, peak bool, in func(unitOrder) bool) {
	if !in(o) {
		return
	}
	c.Orders++
	c.Units += o.units
	if peak {
		c.PeakOrders++
	} else {
		c.NonPeakOrders++
	}
}
