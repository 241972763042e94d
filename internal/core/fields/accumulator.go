package fields

// Accumulator folds per-document readings into session totals.
// The margin is the maximum seen (the same disclosed margin often repeats across
// pages and documents); contracts keep first-seen order and are not deduplicated.
type Accumulator struct {
	Margin    float64
	Contracts []Contract
	Documents int
}

// Add returns a new accumulator including r. The receiver is not modified.
func (a Accumulator) Add(r Reading) Accumulator {
	out := Accumulator{
		Margin:    a.Margin,
		Documents: a.Documents + 1,
		Contracts: make([]Contract, 0, len(a.Contracts)+len(r.Contracts)),
	}
	if r.Margin > out.Margin {
		out.Margin = r.Margin
	}
	out.Contracts = append(out.Contracts, a.Contracts...)
	out.Contracts = append(out.Contracts, r.Contracts...)
	return out
}

// Fold reduces readings in order.
func Fold(readings ...Reading) Accumulator {
	var acc Accumulator
	for _, r := range readings {
		acc = acc.Add(r)
	}
	return acc
}

// FirstContract returns the earliest extracted contract, if any.
func (a Accumulator) FirstContract() (Contract, bool) {
	if len(a.Contracts) == 0 {
		return Contract{}, false
	}
	return a.Contracts[0], true
}
