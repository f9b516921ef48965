package report

import (
	"fmt"
	"strings"
	"time"
)

// Clock is a time of day in seconds since midnight.
type Clock int

// ParseClock reads "HH:MM" or "HH:MM:SS".
func ParseClock(v string) (Clock, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, strings.TrimSpace(v)); err == nil {
			return Clock(t.Hour()*3600 + t.Minute()*60 + t.Second()), nil
		}
	}
	return 0, fmt.Errorf("invalid clock %q", v)
}

func mustClock(v string) Clock {
	c, err := ParseClock(v)
	if err != nil {
		panic(err)
	}
	return c
}

func clockOf(t time.Time) Clock {
	return Clock(t.Hour()*3600 + t.Minute()*60 + t.Second())
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/3600, int(c)%3600/60)
}

// Window is a time-of-day range. Business periods include both ends; the peak
// window excludes its end.
type Window struct {
	Start        Clock `json:"start"`
	End          Clock `json:"end"`
	EndExclusive bool  `json:"end_exclusive,omitempty"`
}

// Contains reports whether t's time of day falls inside the window.
func (w Window) Contains(t time.Time) bool {
	c := clockOf(t)
	if c < w.Start {
		return false
	}
	if w.EndExclusive {
		return c < w.End
	}
	return c <= w.End
}

func (w Window) String() string {
	return w.Start.String() + "-" + w.End.String()
}

// Settings holds the restaurant-specific labels and thresholds the metrics
// assembler slices orders by.
type Settings struct {
	Lunch  Window
	Dinner Window
	Peak   Window

	DineInTypes   []string
	TakeoutTypes  []string
	OnlineSources []string
	VoidedMarker  string

	PriceBandLow  float64
	PriceBandHigh float64
	HighValue     float64

	// HighUnitPriceFactor scales the average unit price into the diagnostics threshold.
	HighUnitPriceFactor float64
	DiagnosticsTopN     int
}

// DefaultSettings matches the restaurant's current opening hours and POS labels.
func DefaultSettings() Settings {
	return Settings{
		Lunch:  Window{Start: mustClock("11:00"), End: mustClock("14:30")},
		Dinner: Window{Start: mustClock("16:30"), End: mustClock("20:00")},
		Peak:   Window{Start: mustClock("12:00"), End: mustClock("13:30"), EndExclusive: true},

		DineInTypes:   []string{"Dine In", "內用"},
		TakeoutTypes:  []string{"Takeout", "外帶", "Delivery", "外送"},
		OnlineSources: []string{"Online Store"},
		VoidedMarker:  "Voided",

		PriceBandLow:  150,
		PriceBandHigh: 250,
		HighValue:     200,

		HighUnitPriceFactor: 1.2,
		DiagnosticsTopN:     5,
	}
}

// NormalizePayment folds POS payment module labels into Cash, LinePay or Other.
func NormalizePayment(label string) string {
	switch {
	case label == "":
		return "Other"
	case strings.Contains(label, "現金") || strings.Contains(label, "Cash"):
		return "Cash"
	case strings.Contains(label, "Line"):
		return "LinePay"
	default:
		return "Other"
	}
}
