package protein

import (
	"github.com/bowlmetrics/server/internal/model"
	logx "github.com/bowlmetrics/server/pkg/logger"
)

// DriftWarning is the advisory signal raised when protein units and meal units disagree.
// A sustained warning usually means a stale catalog, e.g. a new set meal with no mapping.
type DriftWarning struct {
	Discrepancy     int `json:"discrepancy"`
	TotalUnits      int `json:"total_units"`
	BowlProteins    int `json:"bowl_proteins"`
	SetMealProteins int `json:"set_meal_proteins"`
	Tolerance       int `json:"tolerance"`
}

// Validate compares totalUnits with the bowl and set-meal protein sums and
// returns a warning only when the absolute gap exceeds tolerance.
func Validate(totalUnits int, bowls, setMeals model.Distribution, tolerance int) *DriftWarning {
	bowlSum := bowls.Total()
	setSum := setMeals.Total()

	diff := totalUnits - (bowlSum + setSum)
	if diff < 0 {
		diff = -diff
	}
	if diff <= tolerance {
		return nil
	}

	w := &DriftWarning{
		Discrepancy:     diff,
		TotalUnits:      totalUnits,
		BowlProteins:    bowlSum,
		SetMealProteins: setSum,
		Tolerance:       tolerance,
	}
	logx.Warn().
		Int("discrepancy", w.Discrepancy).
		Int("total_units", w.TotalUnits).
		Int("bowl_proteins", w.BowlProteins).
		Int("set_meal_proteins", w.SetMealProteins).
		Int("tolerance", w.Tolerance).
		Msg("protein units drift from meal unit count")
	return w
}
