package products

import "github.com/joseph-ayodele/siape-analyzer/constants"

var defaultTable = mustTable(defaultLenders())

// Default returns the built-in SIAPE lender table.
func Default() *Table { return defaultTable }

func ages(min, max int) Rule { return Rule{MinAge: min, MaxAge: max} }
func upTo(max int) Rule      { return Rule{MaxAge: max} }
func withMargin(r Rule) Rule {
	r.MinMargin = 1
	return r
}

var never = Rule{Never: true}

func lender(name string, newLoan, card, port, refin Rule) Lender {
	return Lender{Name: name, Products: map[constants.ProductType]Rule{
		constants.NewLoan:              newLoan,
		constants.BenefitCard:          card,
		constants.Portability:          port,
		constants.PortabilityRefinance: refin,
	}}
}

func defaultLenders() []Lender {
	return []Lender{
		lender("Facta", withMargin(ages(22, 76)), withMargin(ages(22, 76)), ages(22, 76), ages(22, 76)),
		lender("Banrisul", upTo(80), withMargin(upTo(80)), upTo(80), upTo(80)),
		lender("C6 Bank", ages(21, 77), withMargin(ages(21, 77)), ages(21, 77), ages(21, 77)),
		lender("Bradesco", upTo(78), upTo(78), upTo(78), upTo(75)),
		lender("Digio", upTo(79), upTo(79), upTo(79), upTo(75)),
		lender("Daycoval", upTo(77), upTo(77), upTo(77), upTo(77)),
		lender("Daycoval CLT", upTo(75), never, upTo(75), upTo(73)),
		lender("Daycoval Melhor Idade", ages(73, 84), never, ages(73, 84), ages(73, 84)),
		lender("Pan", upTo(77), upTo(77), upTo(77), upTo(77)),
		lender("Safra", upTo(77), upTo(77), upTo(77), upTo(77)),
		lender("Olé", upTo(78), upTo(78), upTo(78), upTo(75)),
	}
}

func mustTable(lenders []Lender) *Table {
	t, err := NewTable(lenders)
	if err != nil {
		panic(err)
	}
	return t
}
