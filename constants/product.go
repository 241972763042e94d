package constants

import "strings"

// ProductType is one of the four credit products evaluated per lender.
type ProductType string

const (
	NewLoan              ProductType = "new_loan"
	BenefitCard          ProductType = "benefit_card"
	Portability          ProductType = "portability"
	PortabilityRefinance ProductType = "portability_refinance"
)

var allProducts = []ProductType{
	NewLoan,
	BenefitCard,
	Portability,
	PortabilityRefinance,
}

// AllProducts returns the product types in display order.
func AllProducts() []ProductType {
	out := make([]ProductType, len(allProducts))
	copy(out, allProducts)
	return out
}

// Label is the human-readable row title for a product.
func (p ProductType) Label() string {
	s := strings.ReplaceAll(string(p), "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// IsPortability reports whether the product belongs to the portability family.
func (p ProductType) IsPortability() bool {
	return strings.Contains(string(p), "portability")
}

// ParseProductType accepts the canonical keys only.
func ParseProductType(s string) (ProductType, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, p := range allProducts {
		if key == string(p) {
			return p, true
		}
	}
	return "", false
}
