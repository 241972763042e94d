// Package policy implements the SIAPE agreement gate that runs before any
// per-lender product evaluation.
package policy

import (
	"regexp"
	"strings"
)

const (
	MinAge = 18
	MaxAge = 90

	// ApprovedMessage is the reason reported when no rule is violated.
	ApprovedMessage = "Client eligible under the SIAPE agreement."
)

// Rule identifiers, stable for logs and API consumers.
const (
	RuleAgeRange           = "AGE_RANGE"
	RuleEmploymentLink     = "EMPLOYMENT_LINK"
	RuleBlockedRegion      = "BLOCKED_REGION"
	RuleTemporaryPensioner = "TEMPORARY_PENSIONER"
)

var (
	reEmploymentLink = regexp.MustCompile(`(?i)CLT|comissionado`)
	reBlockedRegion  = regexp.MustCompile(`UPAG.*PB|Paraíba`)
	rePensionEnd     = regexp.MustCompile(`(?i)término.*(\d{2}/\d{2}/\d{4})`)
	reInstituidorPai = regexp.MustCompile(`(?i)instituidor.*pai`)
)

// Rule is one disqualifying condition over (age, corpus).
type Rule struct {
	ID       string
	Message  string
	Violated func(age int, corpus string) bool
}

// DefaultRules is the fixed rule set, evaluated in this order.
var DefaultRules = []Rule{
	{
		ID:      RuleAgeRange,
		Message: "age out of allowed range",
		Violated: func(age int, _ string) bool {
			return age < MinAge || age > MaxAge
		},
	},
	{
		ID:      RuleEmploymentLink,
		Message: "CLT or commissioned employment link not accepted",
		Violated: func(_ int, corpus string) bool {
			return reEmploymentLink.MatchString(corpus)
		},
	},
	{
		ID:      RuleBlockedRegion,
		Message: "client linked to blocked regional unit (PB)",
		Violated: func(_ int, corpus string) bool {
			return reBlockedRegion.MatchString(corpus)
		},
	},
	{
		ID:      RuleTemporaryPensioner,
		Message: "temporary pensioner with future end date, age under 25",
		Violated: func(age int, corpus string) bool {
			return age < 25 && rePensionEnd.MatchString(corpus) && reInstituidorPai.MatchString(corpus)
		},
	},
}

// Verdict is the outcome of the gate. Reason joins every violated message with "; ".
type Verdict struct {
	Passed     bool     `json:"passed"`
	Reason     string   `json:"reason"`
	Violations []string `json:"violations,omitempty"`
}

// Evaluate applies DefaultRules. It is pure and never short-circuits.
func Evaluate(age int, corpus string) Verdict {
	return EvaluateRules(DefaultRules, age, corpus)
}

// EvaluateRules applies rules in order and collects every violation.
func EvaluateRules(rules []Rule, age int, corpus string) Verdict {
	var (
		ids      []string
		messages []string
	)
	for _, r := range rules {
		if r.Violated(age, corpus) {
			ids = append(ids, r.ID)
			messages = append(messages, r.Message)
		}
	}
	if len(messages) == 0 {
		return Verdict{Passed: true, Reason: ApprovedMessage}
	}
	return Verdict{Passed: false, Reason: strings.Join(messages, "; "), Violations: ids}
}
