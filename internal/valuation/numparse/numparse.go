// Package numparse reads and writes amounts in Spanish notation, where the dot
// groups thousands and the comma marks decimals ("240.000,50").
package numparse

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Pending is shown instead of an amount that has not been computed.
const Pending = "Pendiente"

var printer = message.NewPrinter(language.Spanish)

var stripper = strings.NewReplacer(
	"€", "", "euros", "", "EUROS", "", "EUR", "", "eur", "",
	" ", "", "\u00a0", "", "\u202f", "", "*", "",
)

// Parse converts a Spanish-formatted number. Thousands dots are dropped and the
// first comma becomes the decimal point. Currency markers, spaces and trailing
// separators are ignored. Unparseable input yields (0, false).
func Parse(s string) (float64, bool) {
	s = stripper.Replace(strings.TrimSpace(s))
	s = strings.TrimRight(s, ".,")
	s = strings.TrimLeft(s, ".,")
	if s == "" {
		return 0, false
	}

	s = strings.ReplaceAll(s, ".", "")
	s = strings.Replace(s, ",", ".", 1)

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ParseOrZero is Parse with the failure folded into zero.
func ParseOrZero(s string) float64 {
	v, _ := Parse(s)
	return v
}

// FormatAmount groups thousands the Spanish way with no decimals.
func FormatAmount(v int64) string {
	return printer.Sprintf("%d", v)
}

// FormatEUR renders "250.000 €". Non-positive amounts render as Pending.
func FormatEUR(v int64) string {
	if v <= 0 {
		return Pending
	}
	return FormatAmount(v) + " €"
}

// FormatArea renders a surface with up to two decimals, "85,5".
func FormatArea(v float64) string {
	s := strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
	return strings.Replace(s, ".", ",", 1)
}
