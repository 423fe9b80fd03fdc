package rubric

// Candidates holds every score source the reconciler chooses between.
type Candidates struct {
	Structural []Section
	Fallback   []Section
	Declared   *int
	Prior      *int
}

// Decision is the reconciled outcome: which sections back the score, the
// score itself, and how much of the text could be trusted.
type Decision struct {
	Sections   []Section
	FinalScore int
	Status     Status
}

// Reconcile picks the reported score. Under PreferStructural the itemized
// sum always wins when anything was itemized, so the headline and the
// breakdown cannot disagree. PreferDeclared lets a stated total override
// the sum while keeping the parsed sections.
//
// A rubric score is never negative: penalties floor the sum at zero, and a
// negative declared or prior score (such as a stored FailureScore) is not a
// score at all.
func Reconcile(policy Policy, c Candidates) Decision {
	declared := realScore(c.Declared)
	prior := realScore(c.Prior)

	if scored(c.Structural) {
		d := Decision{Sections: c.Structural, FinalScore: max(sumSections(c.Structural), 0), Status: StatusOk}
		if policy == PreferDeclared && declared != nil {
			d.FinalScore = *declared
		}
		return d
	}

	if scored(c.Fallback) {
		d := Decision{Sections: c.Fallback, FinalScore: max(sumSections(c.Fallback), 0), Status: StatusPartialFailure}
		if policy == PreferDeclared && declared != nil {
			d.FinalScore = *declared
		}
		return d
	}

	switch {
	case declared != nil:
		return Decision{Sections: []Section{}, FinalScore: *declared, Status: StatusPartialFailure}
	case prior != nil:
		return Decision{Sections: []Section{}, FinalScore: *prior, Status: StatusPartialFailure}
	default:
		return Decision{Sections: []Section{}, FinalScore: FailureScore, Status: StatusTotalFailure}
	}
}

func realScore(p *int) *int {
	if p == nil || *p < 0 {
		return nil
	}
	return p
}
