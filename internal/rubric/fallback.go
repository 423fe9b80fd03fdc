package rubric

import (
	"fmt"
	"regexp"
)

// compileFallback prepares, for every configured criterion, a pattern that
// finds "label ... number" anywhere in a text, ignoring line structure.
func (s *Schema) compileFallback() error {
	for i := range s.sections {
		for j := range s.sections[i].Criteria {
			crit := &s.sections[i].Criteria[j]
			expr := crit.re.String() + fmt.Sprintf(`\s*(?:\([^)\n]*\)\s*)?[^\d\n]{0,%d}?(-?\d+)`, s.fallbackWindow)
			re, err := regexp.Compile(expr)
			if err != nil {
				return fmt.Errorf("%w: fallback pattern for %q: %v", ErrInvalidSchema, crit.Label, err)
			}
			crit.fallback = re
		}
	}
	return nil
}

// extractFallback is the degraded pass used when no section could be built
// from the text's structure. It returns only sections with findings.
func (s *Schema) extractFallback(text string) []Section {
	var sections []Section
	for _, spec := range s.sections {
		sec := Section{
			Title:     spec.Title,
			MaxPoints: spec.MaxPoints,
			IsPenalty: spec.Penalty,
			Criteria:  []Criterion{},
		}
		for _, crit := range spec.Criteria {
			m := crit.fallback.FindStringSubmatch(text)
			if m == nil {
				continue
			}
			awarded, ok := atoi(m[1])
			if !ok {
				continue
			}
			if spec.Penalty {
				awarded = -abs(awarded)
			} else if awarded < 0 {
				continue
			}
			sec.Criteria = append(sec.Criteria, Criterion{
				Text:          crit.Label,
				AwardedPoints: awarded,
				MaxPoints:     crit.MaxPoints,
			})
		}
		if len(sec.Criteria) > 0 {
			sections = append(sections, sec)
		}
	}
	return sections
}
