package analysis

import (
	"fmt"
	"strings"
	"time"

	"github.com/joseph-ayodele/siape-analyzer/constants"
	"github.com/joseph-ayodele/siape-analyzer/internal/core/fields"
	"github.com/joseph-ayodele/siape-analyzer/internal/core/policy"
	"github.com/joseph-ayodele/siape-analyzer/internal/core/products"
)

// ClientProfile is the form submission: free-text name and an integer age.
type ClientProfile struct {
	Name string `json:"name"`
	Age  int    `json:"age"`
}

// ProductRow is one product line of a lender block.
type ProductRow struct {
	Product    constants.ProductType `json:"product"`
	Label      string                `json:"label"`
	Eligible   bool                  `json:"eligible"`
	Annotation string                `json:"annotation,omitempty"`
}

// Answer is "Yes" or "No".
func (r ProductRow) Answer() string {
	if r.Eligible {
		return "Yes"
	}
	return "No"
}

// Display is the answer plus its annotation, if any.
func (r ProductRow) Display() string {
	if r.Annotation == "" {
		return r.Answer()
	}
	return fmt.Sprintf("%s (%s)", r.Answer(), r.Annotation)
}

// LenderResult holds the four product rows of one lender.
type LenderResult struct {
	Name string       `json:"name"`
	Rows []ProductRow `json:"rows"`
}

// Report is the outcome of one analysis. Lenders is empty when the verdict fails.
type Report struct {
	SessionID   string            `json:"session_id,omitempty"`
	Client      ClientProfile     `json:"client"`
	Verdict     policy.Verdict    `json:"verdict"`
	Margin      float64           `json:"margin"`
	Contracts   []fields.Contract `json:"contracts"`
	Documents   int               `json:"documents"`
	Lenders     []LenderResult    `json:"lenders"`
	GeneratedAt time.Time         `json:"generated_at"`
}

// Evaluate gates the client through the agreement policy and, only on pass,
// evaluates every lender of table in order.
func Evaluate(client ClientProfile, acc fields.Accumulator, corpus string, table *products.Table, strategy AnnotationStrategy) Report {
	if table == nil {
		table = products.Default()
	}
	if strategy == "" {
		strategy = AnnotateFirst
	}

	r := Report{
		Client:      client,
		Verdict:     policy.Evaluate(client.Age, corpus),
		Margin:      acc.Margin,
		Contracts:   append([]fields.Contract(nil), acc.Contracts...),
		Documents:   acc.Documents,
		GeneratedAt: time.Now().UTC(),
	}
	if !r.Verdict.Passed {
		return r
	}

	for _, name := range table.Lenders() {
		eligible := table.ProductsFor(name, client.Age, acc.Margin)
		lr := LenderResult{Name: name, Rows: make([]ProductRow, 0, len(eligible))}
		for _, p := range constants.AllProducts() {
			ok, present := eligible[p]
			if !present {
				continue
			}
			lr.Rows = append(lr.Rows, ProductRow{
				Product:    p,
				Label:      p.Label(),
				Eligible:   ok,
				Annotation: strategy.annotate(p, ok, acc.Contracts),
			})
		}
		r.Lenders = append(r.Lenders, lr)
	}
	return r
}

// Lender finds a lender block by name.
func (r Report) Lender(name string) (LenderResult, bool) {
	for _, l := range r.Lenders {
		if l.Name == name {
			return l, true
		}
	}
	return LenderResult{}, false
}

// Row finds a product row in a lender block.
func (l LenderResult) Row(p constants.ProductType) (ProductRow, bool) {
	for _, row := range l.Rows {
		if row.Product == p {
			return row, true
		}
	}
	return ProductRow{}, false
}

// Render produces the plain-text report printed by the CLI.
func (r Report) Render() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Client: %s (age %d)\n", r.Client.Name, r.Client.Age)
	fmt.Fprintf(&b, "Documents: %d\n", r.Documents)
	fmt.Fprintf(&b, "Available margin: %s\n", FormatBRL(r.Margin))
	if len(r.Contracts) > 0 {
		b.WriteString("Contracts:\n")
		for _, c := range r.Contracts {
			fmt.Fprintf(&b, "  %s  %s\n", c.Number, FormatBRL(c.Installment))
		}
	}
	b.WriteString("\n")

	if !r.Verdict.Passed {
		fmt.Fprintf(&b, "Rejected: %s\n", r.Verdict.Reason)
		return b.String()
	}
	fmt.Fprintf(&b, "Approved: %s\n", r.Verdict.Reason)

	for _, l := range r.Lenders {
		fmt.Fprintf(&b, "\n%s\n", l.Name)
		for _, row := range l.Rows {
			fmt.Fprintf(&b, "  %-22s %s\n", row.Label+":", row.Display())
		}
	}
	return b.String()
}
