package protein

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bowlmetrics/server/internal/menu"
	"github.com/bowlmetrics/server/internal/model"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		totalUnits int
		bowls      model.Distribution
		setMeals   model.Distribution
		wantDrift  bool
	}{
		{"matching counts", 10, model.Distribution{"chicken": 5, "salmon": 3, "tofu": 2}, model.Distribution{}, false},
		{"small gap", 10, model.Distribution{"chicken": 5, "salmon": 2}, model.Distribution{"chicken": 0}, false},
		{"gap equal to tolerance", 12, model.Distribution{"chicken": 7}, nil, false},
		{"large gap", 20, model.Distribution{"chicken": 5, "salmon": 2}, model.Distribution{"salmon": 0}, true},
		{"protein surplus", 1, model.Distribution{"chicken": 4}, model.Distribution{"chicken": 4}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := Validate(tt.totalUnits, tt.bowls, tt.setMeals, 5)
			if !tt.wantDrift {
				assert.Nil(t, w)
				return
			}
			require.NotNil(t, w)
			assert.Greater(t, w.Discrepancy, 5)
		})
	}
}

func TestValidateReportsComponents(t *testing.T) {
	w := Validate(20, model.Distribution{"chicken": 5, "salmon": 2}, model.Distribution{"chicken": 2}, 5)
	require.NotNil(t, w)

	assert.Equal(t, DriftWarning{
		Discrepancy:     11,
		TotalUnits:      20,
		BowlProteins:    7,
		SetMealProteins: 2,
		Tolerance:       5,
	}, *w)
}

func TestAnalyzeFlagsUnmappedSetMeal(t *testing.T) {
	// ten bundles nobody mapped: units are counted, proteins are not
	items := make([]string, 10)
	for i := range items {
		items[i] = "季節限定碗 $200.0"
	}
	c := menu.DefaultCatalog()
	res := NewAggregator(c).Analyze(items, nil, 10)

	require.NotNil(t, res.Drift)
	assert.Equal(t, 10, res.Drift.Discrepancy)
	assert.Zero(t, res.Total)
}
