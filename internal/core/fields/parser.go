// Package fields pulls the available margin and (contract, installment) pairs
// out of noisy OCR text.
package fields

import (
	"regexp"
	"strconv"
	"strings"
)

// ws is Unicode whitespace as OCR engines emit it, including NBSP and the
// separator controls; Go's \s is ASCII only.
const ws = `[\s\p{Z}\x{85}\x{1c}-\x{1f}]`

var (
	// "margem", optionally "disponível"/"líquida", optional colon and currency, then a decimal with 2 places
	reMargin = regexp.MustCompile(`(?i)(margem` + ws + `*(?:dispon[ií]vel|líquida)?:?)` + ws + `*R?\$?` + ws + `*(\d+[.,]\d{2})`)

	// 6+ digit contract id, up to 10 separator chars, optional currency, installment value; one line at a time.
	// Whitespace around the currency symbol does not count toward the separator budget.
	reContract = regexp.MustCompile(`(\d{6,})[^\d\n]{0,10}` + ws + `*R?\$?` + ws + `*(\d+[.,]\d{2})`)
)

// Contract is one (contract number, installment value) pair found on a single line.
type Contract struct {
	Number      string  `json:"number"`
	Installment float64 `json:"installment"`
}

// Reading is what a single document contributes to a session.
type Reading struct {
	Margin    float64    `json:"margin"`
	Contracts []Contract `json:"contracts"`
	Skipped   int        `json:"skipped"` // matches whose number failed to parse
}

// Parse scans text for the first margin mention and every contract line. It never fails:
// empty or unmatched text yields a zero margin and no contracts.
func Parse(text string) Reading {
	var r Reading

	if m := reMargin.FindStringSubmatch(text); m != nil {
		if v, ok := parseAmount(m[2]); ok {
			r.Margin = v
		} else {
			r.Skipped++
		}
	}

	for _, line := range splitLines(text) {
		m := reContract.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		v, ok := parseAmount(strings.ReplaceAll(m[2], "R$", ""))
		if !ok {
			r.Skipped++
			continue
		}
		r.Contracts = append(r.Contracts, Contract{Number: m[1], Installment: v})
	}
	return r
}

// splitLines breaks text on every line boundary OCR output may carry:
// \n, \r, \r\n, \v, \f, \x1c-\x1e, NEL, U+2028 and U+2029.
func splitLines(text string) []string {
	return strings.FieldsFunc(text, isLineBreak)
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
		return true
	}
	return false
}

// parseAmount converts "1234,56" or "1234.56" to a non-negative float.
func parseAmount(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}
