package presentation

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatMoney groups thousands with spaces and keeps cents only when present:
// 1250000 -> "1 250 000 so'm", 99.5 -> "99.50 so'm".
func FormatMoney(v float64, currency string) string {
	negative := v < 0
	v = math.Abs(v)

	whole := math.Floor(v)
	cents := int64(math.Round((v - whole) * 100))
	if cents == 100 {
		whole++
		cents = 0
	}

	digits := strconv.FormatFloat(whole, 'f', 0, 64)
	var b strings.Builder
	if negative {
		b.WriteByte('-')
	}
	for i, ch := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(ch)
	}
	if cents > 0 {
		fmt.Fprintf(&b, ".%02d", cents)
	}
	if currency != "" {
		b.WriteByte(' ')
		b.WriteString(currency)
	}
	return b.String()
}

func FormatQty(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func statusIcon(status string) string {
	switch strings.ToLower(status) {
	case "paid":
		return "✅"
	case "partial":
		return "🟡"
	case "overdue":
		return "❌"
	default:
		return "⏳"
	}
}
