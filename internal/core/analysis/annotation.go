package analysis

import (
	"fmt"
	"strings"

	"github.com/joseph-ayodele/siape-analyzer/constants"
	"github.com/joseph-ayodele/siape-analyzer/internal/core/fields"
)

// AnnotationStrategy decides which contract, if any, is shown next to an
// eligible portability-family row.
type AnnotationStrategy string

const (
	// AnnotateFirst reuses the first extracted contract for every lender.
	AnnotateFirst AnnotationStrategy = "first"
	// AnnotateNone never annotates.
	AnnotateNone AnnotationStrategy = "none"
)

// ParseAnnotationStrategy accepts "first", "none" or empty (first).
func ParseAnnotationStrategy(s string) (AnnotationStrategy, error) {
	switch AnnotationStrategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", AnnotateFirst:
		return AnnotateFirst, nil
	case AnnotateNone:
		return AnnotateNone, nil
	default:
		return "", fmt.Errorf("unknown annotation strategy %q", s)
	}
}

// annotate returns the annotation for one row.
func (s AnnotationStrategy) annotate(p constants.ProductType, eligible bool, contracts []fields.Contract) string {
	if s == AnnotateNone || !eligible || !p.IsPortability() || len(contracts) == 0 {
		return ""
	}
	return FormatContract(contracts[0])
}

// FormatContract renders "Contract: 778899, Installment: R$ 120.00".
func FormatContract(c fields.Contract) string {
	return fmt.Sprintf("Contract: %s, Installment: %s", c.Number, FormatBRL(c.Installment))
}

// FormatBRL renders an amount with two decimals and a dot separator.
func FormatBRL(v float64) string {
	return fmt.Sprintf("R$ %.2f", v)
}
