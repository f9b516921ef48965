package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderDaily(t *testing.T) {
	d := newTestAssembler().Daily("2026-01-15", basicDay())
	require.NotNil(t, d)

	out := RenderDaily(d)
	for _, want := range []string{
		"📊 營運快報｜2026-01-15",
		"・總營收：$622",
		"・總出碗數：4 碗",
		"・平均單碗收入：$156",
		"・內用：3 碗(75%)",
		"・外帶：1 碗(25%)",
		"・午餐：3 碗",
		"・晚餐：1 碗",
		"・12:00-13:00：2 碗(50%)",
		"・11:00-12:00：1 碗(25%)",
		"・chicken：2 份(50%)",
		"・現金：33%",
		"・Line Pay：67%",
	} {
		assert.Contains(t, out, want)
	}
}

func TestRenderWeekly(t *testing.T) {
	w := newTestAssembler().Weekly("2026-02-22", "2026-02-28", sampleWeek(), nil)
	require.NotNil(t, w)

	out := RenderWeekly(w)
	for _, want := range []string{
		"📈 週報｜2026-02-22 ~ 2026-02-28",
		"・總訂單：4 單",
		"・總營收：$1,044",
		"・3 碗以上：1 單 / $432",
		"  13 時：1 單 / 3 碗",
		"・最高：2026-02-24（4 碗）",
		"・chicken：3 份(60.00%)",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "⚠")
}

func TestRenderNil(t *testing.T) {
	assert.Equal(t, "No data.", RenderDaily(nil))
	assert.Equal(t, "No data.", RenderWeekly(nil))
}

func TestCurrency(t *testing.T) {
	assert.Equal(t, "$0", currency(0))
	assert.Equal(t, "$622", currency(622))
	assert.Equal(t, "$1,320", currency(1319.6))
	assert.Equal(t, "$1,234,567", currency(1234567))
	assert.Equal(t, "-$5", currency(-5))
}
