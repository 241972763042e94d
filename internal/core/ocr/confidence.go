package ocr

import (
	"regexp"
	"strings"
)

var (
	reDate     = regexp.MustCompile(`\b\d{2}/\d{2}/\d{4}\b`)
	reCurrency = regexp.MustCompile(`r\$`)
	reAmount   = regexp.MustCompile(`\b\d+[.,]\d{2}\b`)
	reKeywords = regexp.MustCompile(`margem|contrato|siape|matr[ií]cula`)
)

// naive heuristic confidence based on decoded text characteristics
func heuristicConfidence(txt string) float32 {
	txtL := strings.ToLower(txt)
	if strings.TrimSpace(txtL) == "" {
		return 0
	}
	score := float32(0.2) // base
	if reDate.MatchString(txtL) {
		score += 0.15
	}
	if reCurrency.MatchString(txtL) {
		score += 0.15
	}
	if reAmount.MatchString(txtL) {
		score += 0.15
	}
	if reKeywords.MatchString(txtL) {
		score += 0.2
	}
	if len(txt) > 120 {
		score += 0.1
	} // enough content
	if score > 1.0 {
		score = 1.0
	}
	return score
}
