package analytics

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.AmericanEnglish)

// formatMoney renders an amount as $1,234.56
func formatMoney(v float64) string {
	if v < 0 {
		return printer.Sprintf("-$%.2f", -v)
	}
	return printer.Sprintf("$%.2f", v)
}

func formatDecimal(d decimal.Decimal) string {
	f, _ := d.Float64()
	return formatMoney(f)
}

func formatPercent(v float64) string {
	return printer.Sprintf("%.1f%%", v)
}

// titleName normalizes a branch or client name for display. A Caser keeps
// state between calls, so each call gets its own.
func titleName(s string) string {
	return cases.Title(language.English).String(strings.ToLower(strings.TrimSpace(s)))
}
