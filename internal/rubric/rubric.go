// Package rubric turns free-form rubric evaluations produced by a text
// generator into structured, scored results.
//
// Parsing never fails on malformed text. How much could be recovered is
// reported through Result.Status, and a failed parse is never reported as a
// score of zero.
package rubric

import "fmt"

const totalFailureSummary = "The evaluation could not be parsed. Original text:\n%s"

// Parse classifies rawText line by line, folds the tokens into sections and
// reconciles the itemized sum with any declared total and the caller's prior
// score. prior may be nil. It panics when schema is nil.
func Parse(rawText string, schema *Schema, prior *int) Result {
	if schema == nil {
		panic("rubric: Parse called with nil schema")
	}

	st := schema.parseStructure(rawText)

	c := Candidates{
		Structural: st.sections,
		Declared:   st.declared,
		Prior:      prior,
	}
	structural := scored(st.sections)
	if !structural {
		c.Fallback = schema.extractFallback(rawText)
	}
	d := Reconcile(schema.policy, c)

	res := Result{
		Sections:      copySections(d.Sections),
		Summary:       st.summary,
		FinalScore:    d.FinalScore,
		Status:        d.Status,
		DeclaredScore: copyInt(st.declared),
		Unclassified:  append([]string(nil), st.unclassified...),
	}
	if !structural {
		raw := rawText
		res.RawText = &raw
	}
	if res.Status == StatusTotalFailure {
		res.Summary = fmt.Sprintf(totalFailureSummary, rawText)
	} else if res.Summary == "" {
		res.Summary = schema.noSummary
	}
	return res
}

func copySections(in []Section) []Section {
	out := make([]Section, len(in))
	for i, s := range in {
		s.Criteria = append([]Criterion{}, s.Criteria...)
		out[i] = s
	}
	return out
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
