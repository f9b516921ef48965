package report

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/bowlmetrics/server/internal/model"
	"github.com/bowlmetrics/server/internal/protein"
)

// RenderDaily formats a daily report as chat-friendly text.
func RenderDaily(d *Daily) string {
	if d == nil {
		return "No data."
	}
	m := d.Metrics
	var b strings.Builder

	fmt.Fprintf(&b, "📊 營運快報｜%s\n\n", d.Date)

	b.WriteString("💰 營收概況\n")
	fmt.Fprintf(&b, "・總營收：%s\n", currency(m.Revenue))
	fmt.Fprintf(&b, "・總出碗數：%d 碗\n", m.TotalUnits)
	fmt.Fprintf(&b, "・平均單碗收入：%s\n\n", currency(m.AvgUnitPrice))

	b.WriteString("🍽 出餐結構\n")
	fmt.Fprintf(&b, "・內用：%d 碗(%s)\n", m.DineInUnits, share(m.DineInUnits, m.TotalUnits))
	fmt.Fprintf(&b, "・外帶：%d 碗(%s)\n", m.TakeoutUnits, share(m.TakeoutUnits, m.TotalUnits))
	fmt.Fprintf(&b, "・線上點餐：%d 單(%s)\n\n", m.OnlineOrders, share(m.OnlineOrders, m.TotalOrders))

	b.WriteString("⏰ 時段表現\n")
	fmt.Fprintf(&b, "・午餐：%d 碗\n", d.Periods.LunchUnits)
	fmt.Fprintf(&b, "・晚餐：%d 碗\n\n", d.Periods.DinnerUnits)

	b.WriteString("🔥 營運節奏\n")
	for _, p := range []*PeakHour{d.Operational.FirstPeak, d.Operational.SecondPeak} {
		if p == nil {
			b.WriteString("・--：0 碗(0%)\n")
			continue
		}
		fmt.Fprintf(&b, "・%s：%d 碗(%s)\n", p.Label(), p.Units, fraction(p.Ratio))
	}
	b.WriteString("\n")

	if pr := d.Operational.Proteins; pr != nil && pr.Total > 0 {
		b.WriteString("🥩 蛋白質\n")
		for i := 0; i < 2; i++ {
			if r := pr.Top(i); r != nil && r.Count > 0 {
				fmt.Fprintf(&b, "・%s：%d 份(%.0f%%)\n", r.Key, r.Count, r.Ratio)
			}
		}
		b.WriteString("\n")
	}

	b.WriteString("💳 支付方式\n")
	fmt.Fprintf(&b, "・現金：%s\n", fraction(d.Payments.CashOrderRatio))
	fmt.Fprintf(&b, "・Line Pay：%s", fraction(d.Payments.LinePayOrderRatio))
	return b.String()
}

// RenderWeekly formats a weekly report as plain text.
func RenderWeekly(w *Weekly) string {
	if w == nil {
		return "No data."
	}
	var b strings.Builder

	fmt.Fprintf(&b, "📈 週報｜%s ~ %s\n\n", w.Start, w.End)

	b.WriteString("💰 基礎量體\n")
	fmt.Fprintf(&b, "・總訂單：%d 單\n", w.TotalOrders)
	fmt.Fprintf(&b, "・總出碗數：%d 碗\n", w.TotalUnits)
	fmt.Fprintf(&b, "・總營收：%s\n\n", currency(w.TotalRevenue))

	b.WriteString("🍽 訂單碗數結構\n")
	fmt.Fprintf(&b, "・1 碗：%d 單 / %s\n", w.OrderSize.OneOrders, currency(w.OrderSize.OneRevenue))
	fmt.Fprintf(&b, "・2 碗：%d 單 / %s\n", w.OrderSize.TwoOrders, currency(w.OrderSize.TwoRevenue))
	fmt.Fprintf(&b, "・3 碗以上：%d 單 / %s\n\n", w.OrderSize.ThreePlus, currency(w.OrderSize.ThreePlusRevenue))

	b.WriteString("⏰ 時段\n")
	fmt.Fprintf(&b, "・午餐：%d 單 / 晚餐：%d 單\n", w.LunchOrders, w.DinnerOrders)
	fmt.Fprintf(&b, "・尖峰：%d 單 / 離峰：%d 單\n", w.PeakOrders, w.NonPeakOrders)
	hours := make([]int, 0, len(w.HourlyUnits))
	for h := range w.HourlyUnits {
		hours = append(hours, h)
	}
	sort.Ints(hours)
	for _, h := range hours {
		fmt.Fprintf(&b, "  %02d 時：%d 單 / %d 碗\n", h, w.HourlyOrders[h], w.HourlyUnits[h])
	}
	b.WriteString("\n")

	b.WriteString("🧾 訂單型態（尖峰 / 離峰）\n")
	for _, c := range []struct {
		label string
		ch    Channel
	}{
		{"內用", w.DineIn},
		{"外帶", w.Takeout},
		{"線上", w.Online},
		{"現金", w.Cash},
		{"Line Pay", w.LinePay},
	} {
		fmt.Fprintf(&b, "・%s：%d 單 / %d 碗（%d / %d）\n", c.label, c.ch.Orders, c.ch.Units, c.ch.PeakOrders, c.ch.NonPeakOrders)
	}
	b.WriteString("\n")

	b.WriteString("📅 日別\n")
	for _, d := range w.Days {
		fmt.Fprintf(&b, "・%s：%d 單 / %d 碗 / %s\n", d.Date, d.Orders, d.Units, currency(d.Revenue))
	}
	fmt.Fprintf(&b, "・最高：%s（%d 碗）\n", w.MaxDay.Date, w.MaxDay.Units)
	fmt.Fprintf(&b, "・最低：%s（%d 碗）\n\n", w.MinDay.Date, w.MinDay.Units)

	b.WriteString("💵 客單價分布\n")
	fmt.Fprintf(&b, "・低：%d 單 / 中：%d 單 / 高：%d 單\n", w.PriceBands.Low, w.PriceBands.Mid, w.PriceBands.High)
	fmt.Fprintf(&b, "・高價值訂單：%d 單", w.HighValueOrders)

	if pr := w.Proteins; pr != nil {
		b.WriteString("\n\n🥩 蛋白質\n")
		writeProteins(&b, pr)
	}
	return b.String()
}

func writeProteins(b *strings.Builder, pr *protein.Result) {
	for _, r := range pr.Ranking {
		fmt.Fprintf(b, "・%s：%d 份(%.2f%%)\n", r.Key, r.Count, r.Ratio)
	}
	for _, src := range model.Sources {
		fmt.Fprintf(b, "  %s=%d", src, pr.Sources[src].Total())
	}
	if pr.Drift != nil {
		fmt.Fprintf(b, "\n⚠ 碗數與蛋白質差異：%d", pr.Drift.Discrepancy)
	}
}

func currency(v float64) string {
	n := int64(math.Round(v))
	if n < 0 {
		return "-$" + humanize.Comma(-n)
	}
	return "$" + humanize.Comma(n)
}

func share(part, total int) string {
	if total == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.0f%%", math.Round(float64(part)/float64(total)*100))
}

func fraction(r float64) string {
	return fmt.Sprintf("%.0f%%", math.Round(r*100))
}
