// Package format renders won amounts the way the planner screens show them
// and wraps list responses with their empty-state text.
package format

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	printer  = message.NewPrinter(language.Korean)
	eok      = decimal.NewFromInt(100_000_000)
	man      = decimal.NewFromInt(10_000)
	eokLimit = int64(100_000_000)
	manLimit = int64(10_000)
)

// KRW formats n as ₩1,234,567.
func KRW(n int64) string {
	if n < 0 {
		return "-₩" + group(-n)
	}
	return "₩" + group(n)
}

// Won formats n as 1,234,567원.
func Won(n int64) string {
	if n < 0 {
		return "-" + group(-n) + "원"
	}
	return group(n) + "원"
}

// Compact abbreviates large amounts: 1.5억원, 350만원, otherwise Won.
func Compact(n int64) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	// Units are picked after rounding so 99,995,000 reads 1.0억원, not 10000만원.
	mans := decimal.NewFromInt(n).Div(man).Round(0)
	switch {
	case mans.Mul(man).IntPart() >= eokLimit:
		return sign + decimal.NewFromInt(n).Div(eok).StringFixed(1) + "억원"
	case n >= manLimit:
		return sign + mans.String() + "만원"
	default:
		return sign + group(n) + "원"
	}
}

// KRWDecimal rounds d to whole won before formatting.
func KRWDecimal(d decimal.Decimal) string {
	return KRW(d.Round(0).IntPart())
}

// WonDecimal rounds d to whole won before formatting.
func WonDecimal(d decimal.Decimal) string {
	return Won(d.Round(0).IntPart())
}

func group(n int64) string {
	return printer.Sprintf("%d", n)
}
