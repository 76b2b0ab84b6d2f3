package notifier

import (
	"fmt"
	"html"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"RateBoard/internal/calculator"
	"RateBoard/internal/dashboard"
	"RateBoard/internal/model"
)

const (
	sparkBlocks   = "▁▂▃▄▅▆▇█"
	sparkMaxWidth = 24
	noPrice       = "— ₽"
)

// FormatRUB renders a ruble amount as "1 234 567,89 ₽".
func FormatRUB(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return noPrice
	}
	return formatNumber(v) + " ₽"
}

// formatNumber groups thousands with spaces and uses a decimal comma.
func formatNumber(v float64) string {
	s := decimal.NewFromFloat(v).StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	b.WriteString(frac)
	return b.String()
}

// FormatAxis abbreviates large values with K and M suffixes, as on chart axes.
func FormatAxis(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1_000_000:
		return decimal.NewFromFloat(v/1_000_000).StringFixed(2) + "M"
	case abs >= 1_000:
		return decimal.NewFromFloat(v/1_000).StringFixed(2) + "K"
	default:
		return decimal.NewFromFloat(v).StringFixed(2)
	}
}

func formatPercent(p float64) string {
	return strings.Replace(fmt.Sprintf("%+.2f%%", p), ".", ",", 1)
}

// Sparkline draws values as block characters, downsampled to at most width points.
func Sparkline(values []float64, width int) string {
	values = calculator.Finite(values)
	if len(values) == 0 || width <= 0 {
		return ""
	}
	if len(values) > width {
		sampled := make([]float64, width)
		step := float64(len(values)-1) / float64(max(width-1, 1))
		for i := range sampled {
			sampled[i] = values[int(math.Round(float64(i)*step))]
		}
		values = sampled
	}

	blocks := []rune(sparkBlocks)
	low, high, _ := calculator.Range(values)
	var b strings.Builder
	for _, v := range values {
		b.WriteRune(blocks[int(calculator.Position(v, low, high)*float64(len(blocks)-1))])
	}
	return b.String()
}

// FormatChart renders a chart view as a Telegram message.
func FormatChart(v *dashboard.ChartView) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📈 <b>%s</b>\n\n", html.EscapeString(v.Title)))

	s := v.Series
	if s.InsufficientData || s.Len() == 0 {
		b.WriteString("Недостаточно данных для выбранного интервала.\n")
	} else {
		b.WriteString(fmt.Sprintf("<code>%s</code>\n", Sparkline(s.Values, sparkMaxWidth)))
		b.WriteString(fmt.Sprintf("%s … %s (%d точек)\n", s.Labels[0], s.Labels[s.Len()-1], s.Len()))
		if low, high, err := calculator.Range(s.Values); err == nil {
			b.WriteString(fmt.Sprintf("Мин: %s | Макс: %s\n", FormatAxis(low), FormatAxis(high)))
		}
		if pct, err := calculator.ChangePercent(s.Values[0], s.Values[s.Len()-1]); err == nil {
			b.WriteString(fmt.Sprintf("Изменение: %s\n", formatPercent(pct)))
		}
	}

	if v.Spot != nil {
		b.WriteString(fmt.Sprintf("Текущий курс: %s (%s, %s)\n",
			FormatRUB(v.Spot.RUB), v.Spot.Source, v.Spot.FetchedAt.Format("15:04:05")))
	}
	if s.Degraded {
		b.WriteString("≈ данные приближены\n")
	}
	if s.Synthetic {
		b.WriteString("⚠️ синтетические данные\n")
	}
	if s.LengthMismatch {
		b.WriteString("⚠️ ряд обрезан из-за несовпадения меток\n")
	}
	if v.Color != "" {
		b.WriteString(fmt.Sprintf("🎨 %s\n", v.Color))
	}
	return b.String()
}

// FormatStats renders the stats panel of a view.
func FormatStats(v *dashboard.ChartView) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>Статистика для: %s</b> (%s)\n", v.Code, dashboard.IntervalTitle(v.Interval)))
	b.WriteString(html.EscapeString(v.Description) + "\n\n")
	st := v.Stats
	if st.Insufficient {
		b.WriteString("Среднее: --\nМедиана: --\nВыбросы: --\n")
		return b.String()
	}
	b.WriteString(fmt.Sprintf("Среднее: %s\n", FormatRUB(st.Mean)))
	b.WriteString(fmt.Sprintf("Медиана: %s\n", FormatRUB(st.Median)))
	b.WriteString(fmt.Sprintf("Выбросы: %d\n", st.Outliers))
	return b.String()
}

// FormatSpotPrices lists the latest spot price of every code in order.
func FormatSpotPrices(codes []string, prices map[string]model.PricePoint) string {
	var b strings.Builder
	b.WriteString("💱 <b>Курсы к рублю</b>\n\n")
	var latest time.Time
	for _, code := range codes {
		p, ok := prices[code]
		if !ok {
			b.WriteString(fmt.Sprintf("%s: %s\n", code, noPrice))
			continue
		}
		b.WriteString(fmt.Sprintf("%s: %s\n", code, FormatRUB(p.RUB)))
		if p.FetchedAt.After(latest) {
			latest = p.FetchedAt
		}
	}
	if !latest.IsZero() {
		b.WriteString(fmt.Sprintf("\nОбновлено: %s", latest.Format("02.01.2006 15:04:05")))
	}
	return b.String()
}

// changeSpan names the period a change covers. Daily labels (YYYY-MM-DD) mean
// one month; monthly labels (YYYY-MM) span from the first month shown.
func changeSpan(labels []string) string {
	if len(labels) == 0 || len(labels[0]) == len("2006-01-02") {
		return "за месяц"
	}
	t, err := time.Parse("2006-01", labels[0])
	if err != nil {
		return "за период"
	}
	return "с " + t.Format("01.2006")
}

// FormatDigest summarizes the recent movement of every currency.
func FormatDigest(now time.Time, views []*dashboard.ChartView) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🗓 <b>Сводка RateBoard</b> | %s\n\n", now.Format("02.01.2006")))
	for _, v := range views {
		price := noPrice
		if v.Spot != nil {
			price = FormatRUB(v.Spot.RUB)
		} else if n := v.Series.Len(); n > 0 {
			price = FormatRUB(v.Series.Values[n-1])
		}
		line := fmt.Sprintf("%s: %s", v.Code, price)
		if n := v.Series.Len(); n > 1 {
			if pct, err := calculator.ChangePercent(v.Series.Values[0], v.Series.Values[n-1]); err == nil {
				line += fmt.Sprintf(" (%s %s)", formatPercent(pct), changeSpan(v.Series.Labels))
			}
		}
		if v.Series.Synthetic {
			line += " ⚠️"
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

// FormatHelp lists the bot commands.
func FormatHelp() string {
	return `🤖 <b>RateBoard</b>

/rates - текущие курсы
/chart [КОД] [интервал] - график (1m, 6m, 1y, 3y, all)
/stats [КОД] [интервал] - среднее, медиана, выбросы
/currency КОД - выбрать валюту по умолчанию
/interval 1m|6m|1y|3y|all - выбрать интервал
/color #rrggbb - цвет графика
/theme - переключить тему
/settings - текущие настройки
/help - эта справка`
}
