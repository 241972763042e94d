// Package products holds the per-lender product matrix: for each lender and
// product type, the age range and margin floor that make a client eligible.
package products

import (
	"fmt"
	"strings"

	"github.com/joseph-ayodele/siape-analyzer/constants"
)

// Rule is an eligibility predicate over (age, margin). Zero bounds are open.
type Rule struct {
	MinAge    int     `json:"min_age,omitempty"`    // inclusive
	MaxAge    int     `json:"max_age,omitempty"`    // inclusive
	MinMargin float64 `json:"min_margin,omitempty"` // margin >= MinMargin, no tolerance
	Never     bool    `json:"never,omitempty"`
}

// Eligible evaluates the rule.
func (r Rule) Eligible(age int, margin float64) bool {
	if r.Never {
		return false
	}
	if r.MinAge > 0 && age < r.MinAge {
		return false
	}
	if r.MaxAge > 0 && age > r.MaxAge {
		return false
	}
	if r.MinMargin > 0 && margin < r.MinMargin {
		return false
	}
	return true
}

// String renders the rule the way the lender table is usually written ("22–76 & margin≥1").
func (r Rule) String() string {
	if r.Never {
		return "never"
	}
	var age string
	switch {
	case r.MinAge > 0 && r.MaxAge > 0:
		age = fmt.Sprintf("%d–%d", r.MinAge, r.MaxAge)
	case r.MaxAge > 0:
		age = fmt.Sprintf("≤%d", r.MaxAge)
	case r.MinAge > 0:
		age = fmt.Sprintf("≥%d", r.MinAge)
	default:
		age = "any age"
	}
	if r.MinMargin > 0 {
		return fmt.Sprintf("%s & margin≥%g", age, r.MinMargin)
	}
	return age
}

// Lender is one row of the matrix.
type Lender struct {
	Name     string                        `json:"name"`
	Products map[constants.ProductType]Rule `json:"products"`
}

// Table is an immutable, ordered set of lenders.
type Table struct {
	lenders []Lender
	index   map[string]int
}

// NewTable validates lenders (unique non-empty names, every product type present).
func NewTable(lenders []Lender) (*Table, error) {
	t := &Table{lenders: make([]Lender, 0, len(lenders)), index: make(map[string]int, len(lenders))}
	for _, l := range lenders {
		name := strings.TrimSpace(l.Name)
		if name == "" {
			return nil, fmt.Errorf("lender name is required")
		}
		if _, dup := t.index[name]; dup {
			return nil, fmt.Errorf("duplicate lender %q", name)
		}
		products := make(map[constants.ProductType]Rule, len(l.Products))
		for _, p := range constants.AllProducts() {
			r, ok := l.Products[p]
			if !ok {
				return nil, fmt.Errorf("lender %q: missing product %q", name, p)
			}
			if r.MinAge > 0 && r.MaxAge > 0 && r.MinAge > r.MaxAge {
				return nil, fmt.Errorf("lender %q: product %q: min_age %d > max_age %d", name, p, r.MinAge, r.MaxAge)
			}
			products[p] = r
		}
		for p := range l.Products {
			if _, ok := constants.ParseProductType(string(p)); !ok {
				return nil, fmt.Errorf("lender %q: unknown product %q", name, p)
			}
		}
		t.index[name] = len(t.lenders)
		t.lenders = append(t.lenders, Lender{Name: name, Products: products})
	}
	return t, nil
}

// Lenders returns lender names in table order.
func (t *Table) Lenders() []string {
	out := make([]string, len(t.lenders))
	for i, l := range t.lenders {
		out[i] = l.Name
	}
	return out
}

// Lender returns a copy of one lender's rules.
func (t *Table) Lender(name string) (Lender, bool) {
	i, ok := t.index[name]
	if !ok {
		return Lender{}, false
	}
	l := t.lenders[i]
	products := make(map[constants.ProductType]Rule, len(l.Products))
	for k, v := range l.Products {
		products[k] = v
	}
	return Lender{Name: l.Name, Products: products}, true
}

// ProductsFor evaluates every product of lender. Unknown lenders yield an empty map.
func (t *Table) ProductsFor(lender string, age int, margin float64) map[constants.ProductType]bool {
	out := map[constants.ProductType]bool{}
	i, ok := t.index[lender]
	if !ok {
		return out
	}
	for p, r := range t.lenders[i].Products {
		out[p] = r.Eligible(age, margin)
	}
	return out
}

// ProductsFor evaluates against the built-in table.
func ProductsFor(lender string, age int, margin float64) map[constants.ProductType]bool {
	return Default().ProductsFor(lender, age, margin)
}
