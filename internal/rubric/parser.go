package rubric

import (
	"strings"
)

// parseState is the accumulator threaded through the fold. Nothing outside
// of it survives between lines.
type parseState struct {
	sections     []Section
	open         *Section
	openImplicit bool
	inSummary    bool
	summary      []string
	pendingBreak bool
	declared     *int
	unclassified []string
}

// structure is what the structural pass recovers from a text.
type structure struct {
	sections     []Section
	summary      string
	declared     *int
	unclassified []string
}

func (s *Schema) parseStructure(text string) structure {
	st := parseState{}
	for _, raw := range strings.Split(normalizeNewlines(text), "\n") {
		tok := s.classifier.classify(raw, st.context())
		st = s.step(st, tok)
	}
	st = st.closeSection()

	return structure{
		sections:     st.sections,
		summary:      strings.TrimSpace(strings.Join(st.summary, "\n")),
		declared:     st.declared,
		unclassified: st.unclassified,
	}
}

func (st parseState) context() Context {
	explicit := st.open != nil && !st.openImplicit
	return Context{
		InPenaltySection: explicit && st.open.IsPenalty,
		InSection:        explicit,
		InSummary:        st.inSummary,
	}
}

func (s *Schema) step(st parseState, tok Token) parseState {
	switch tok.Kind {
	case KindBlank:
		if st.inSummary && len(st.summary) > 0 {
			st.pendingBreak = true
		}
		return st

	case KindSectionHeader:
		st = st.endSummary().closeSection()
		st.open = &Section{Title: tok.Title, MaxPoints: tok.Max, IsPenalty: tok.Penalty, Criteria: []Criterion{}}
		return st

	case KindCriterion, KindPenalty:
		st = st.endSummary()
		penalty := tok.Kind == KindPenalty
		if st.open == nil || (penalty && !st.open.IsPenalty) || (!penalty && st.open.IsPenalty) {
			st = st.closeSection()
			st.open = s.implicitSection(penalty)
			st.openImplicit = true
		}
		st.open.Criteria = append(st.open.Criteria, Criterion{
			Text:          tok.Text,
			AwardedPoints: tok.Awarded,
			MaxPoints:     tok.Max,
			Justification: tok.Justification,
		})
		return st

	case KindSummaryMarker:
		st = st.endSummary()
		st.inSummary = true
		if len(st.summary) > 0 {
			st.pendingBreak = true
		}
		if tok.Leading != "" {
			st = st.appendSummary(tok.Leading)
		}
		return st

	case KindFinalScore:
		st = st.endSummary()
		v := tok.Value
		st.declared = &v
		return st

	default:
		if st.inSummary {
			return st.appendSummary(tok.Raw)
		}
		st.unclassified = append(st.unclassified, tok.Raw)
		return st
	}
}

func (s *Schema) implicitSection(penalty bool) *Section {
	if penalty {
		sec := &Section{Title: s.penaltyTitle(), IsPenalty: true, Criteria: []Criterion{}}
		if spec, ok := s.sectionFor(sec.Title); ok {
			sec.MaxPoints = spec.MaxPoints
		}
		return sec
	}
	return &Section{Title: s.implicitTitle, Criteria: []Criterion{}}
}

func (st parseState) closeSection() parseState {
	if st.open != nil {
		st.sections = append(st.sections, *st.open)
		st.open = nil
		st.openImplicit = false
	}
	return st
}

func (st parseState) endSummary() parseState {
	st.inSummary = false
	st.pendingBreak = false
	return st
}

func (st parseState) appendSummary(text string) parseState {
	if st.pendingBreak {
		st.summary = append(st.summary, "")
		st.pendingBreak = false
	}
	st.summary = append(st.summary, text)
	return st
}

func normalizeNewlines(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r\n", "\n"), "\r", "\n")
}
