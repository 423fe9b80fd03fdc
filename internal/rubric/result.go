package rubric

import "fmt"

// FailureScore is reported when no score could be recovered at all. Real
// rubric scores are never negative, so it cannot be mistaken for a zero.
const FailureScore = -1

type Status string

const (
	StatusOk             Status = "Ok"
	StatusPartialFailure Status = "PartialFailure"
	StatusTotalFailure   Status = "TotalFailure"
)

// Policy decides which score wins when the itemized sum and the total the
// generator declared disagree.
type Policy string

const (
	// PreferStructural reports the itemized sum so the headline always
	// matches the breakdown.
	PreferStructural Policy = "structural"
	// PreferDeclared trusts the generator's stated total when present.
	PreferDeclared Policy = "declared"
)

func (p Policy) valid() bool {
	return p == PreferStructural || p == PreferDeclared
}

// ParsePolicy maps a configuration string onto a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); {
	case s == "":
		return PreferStructural, nil
	case p.valid():
		return p, nil
	default:
		return "", fmt.Errorf("unknown reconciliation policy %q", s)
	}
}

type Criterion struct {
	Text          string `json:"text"`
	AwardedPoints int    `json:"awardedPoints"`
	MaxPoints     int    `json:"maxPoints"`
	Justification string `json:"justification"`
}

type Section struct {
	Title     string      `json:"title"`
	MaxPoints int         `json:"maxPoints"`
	IsPenalty bool        `json:"isPenalty"`
	Criteria  []Criterion `json:"criteria"`
}

// Score is the sum of awarded points; it may differ from MaxPoints.
func (s Section) Score() int {
	total := 0
	for _, c := range s.Criteria {
		total += c.AwardedPoints
	}
	return total
}

// Result is the outcome of parsing one evaluation text.
type Result struct {
	Sections      []Section `json:"sections"`
	Summary       string    `json:"summary"`
	FinalScore    int       `json:"finalScore"`
	Status        Status    `json:"status"`
	RawText       *string   `json:"rawText,omitempty"`
	DeclaredScore *int      `json:"declaredScore,omitempty"`
	Unclassified  []string  `json:"unclassified,omitempty"`
}

// StructuralSum adds up every criterion across all sections.
func (r Result) StructuralSum() int {
	return sumSections(r.Sections)
}

// Failed reports whether no usable score was recovered.
func (r Result) Failed() bool {
	return r.Status == StatusTotalFailure
}

func sumSections(sections []Section) int {
	total := 0
	for _, s := range sections {
		total += s.Score()
	}
	return total
}

func scored(sections []Section) bool {
	for _, s := range sections {
		if len(s.Criteria) > 0 {
			return true
		}
	}
	return false
}
