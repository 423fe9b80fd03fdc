package rubric

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type Kind int

const (
	KindUnclassified Kind = iota
	KindBlank
	KindSectionHeader
	KindSummaryMarker
	KindFinalScore
	KindPenalty
	KindCriterion
)

var kindNames = map[Kind]string{
	KindUnclassified:  "unclassified",
	KindBlank:         "blank",
	KindSectionHeader: "section_header",
	KindSummaryMarker: "summary_marker",
	KindFinalScore:    "final_score",
	KindPenalty:       "penalty",
	KindCriterion:     "criterion",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Token is one classified line. Only the fields relevant to Kind are set.
type Token struct {
	Kind Kind
	Raw  string

	// SectionHeader
	Title   string
	Penalty bool

	// CriterionLine, PenaltyLine
	Text          string
	Awarded       int
	Justification string

	// SectionHeader, CriterionLine, PenaltyLine
	Max int

	// SummaryMarker
	Leading string

	// FinalScoreMarker
	Value int
}

// Context is the only state classification may depend on: the section the
// previous lines left open and whether a summary is being collected.
type Context struct {
	InPenaltySection bool
	// InSection is set once a header opened a section. Criteria that only
	// opened an implicit section do not count.
	InSection bool
	InSummary bool
}

type line struct {
	raw    string
	clean  string
	bullet bool
	// item is a bulleted or numbered line.
	item bool
}

type rule struct {
	kind Kind
	re   *regexp.Regexp
	// headerOnly rules never fire on bullet items.
	headerOnly bool
	build      func(c *classifier, m []string, ln line, ctx Context) (Token, bool)
}

type classifier struct {
	schema *Schema
	rules  []rule
}

var (
	headingPrefix = regexp.MustCompile(`^#{1,6}\s*`)
	bulletPrefix  = regexp.MustCompile(`^(?:[-•+–]|\*)\s+`)
	numberPrefix  = regexp.MustCompile(`^\(?\d{1,2}[.)]\s*`)
	markup        = strings.NewReplacer("**", "", "__", "", "*", "", "`", "")
)

// rest captures what follows a score: nothing, or text that does not glue
// onto the number (so "12/05/2024" is not read as 12 of 5).
const restGroup = `((?:[\s(;,.\-–—:].*)?)$`

func newClassifier(s *Schema) (*classifier, error) {
	units := `(?:(?:` + s.pointUnits + `)\.?)?`
	ceiling := `(?:(?:` + s.ceilingLabels + `)\s*:?\s*)?`
	label := `(.*?\p{L}.*?)`
	// A dash only separates when spaced, otherwise it is a sign.
	sep := `\s*(?:[:=]|[\-–—]\s)\s*`

	patterns := []struct {
		kind       Kind
		expr       string
		headerOnly bool
		build      func(c *classifier, m []string, ln line, ctx Context) (Token, bool)
	}{
		{
			kind:       KindSectionHeader,
			expr:       `^([^()]*\p{L}[^()]*?)\s*\(\s*` + ceiling + `(-?\d+)\s*(?:/\s*(-?\d+)\s*)?` + units + `\s*\)\s*:?$`,
			headerOnly: true,
			build:      (*classifier).buildHeader,
		},
		{
			kind:       KindSectionHeader,
			expr:       `^([^()]*\p{L}[^()]*?)\s*:?$`,
			headerOnly: true,
			build:      (*classifier).buildBareHeader,
		},
		{
			kind:  KindSummaryMarker,
			expr:  `^(?:` + s.summaryMarker + `)\s*(?::\s*(.*))?$`,
			build: (*classifier).buildSummary,
		},
		{
			kind:  KindFinalScore,
			expr:  `(?:^|[^\p{L}])(?:` + s.finalScore + `)\s*[:=\-]?\s*(-?\d+)`,
			build: (*classifier).buildFinalScore,
		},
		{
			// "Label (-10 pontos se sim, 0 se não): -10"
			kind:  KindPenalty,
			expr:  `^` + label + `\s*\(\s*` + ceiling + `-\s*(\d+)\s*` + units + `[^)]*\)\s*[:=]?\s*(-?\d+)\s*(?:/\s*-?\d+\s*)?` + units + restGroup,
			build: (*classifier).buildPenalty,
		},
		{
			// "Label (10 pontos): 7", "Label (Máximo: 10 pontos): 7/10"
			kind:  KindCriterion,
			expr:  `^` + label + `\s*\(\s*` + ceiling + `(-?\d+)\s*` + units + `\s*\)\s*[:=]?\s*(-?\d+)\s*(?:/\s*(-?\d+)\s*)?` + units + restGroup,
			build: (*classifier).buildCeilingFirst,
		},
		{
			// "Label (7/10):"
			kind:  KindCriterion,
			expr:  `^` + label + `\s*\(\s*(-?\d+)\s*/\s*(-?\d+)\s*` + units + `\s*\)` + restGroup,
			build: (*classifier).buildFraction,
		},
		{
			// "Label: 7/10"
			kind:  KindCriterion,
			expr:  `^` + label + sep + `(-?\d+)\s*/\s*(-?\d+)\s*` + units + restGroup,
			build: (*classifier).buildLooseFraction,
		},
		{
			// "Label: 7 pontos", only for labels the schema knows.
			kind:  KindCriterion,
			expr:  `^` + label + sep + `(-?\d+)\s*` + units + restGroup,
			build: (*classifier).buildKnownLabel,
		},
	}

	c := &classifier{schema: s, rules: make([]rule, 0, len(patterns))}
	for _, p := range patterns {
		re, err := regexp.Compile(`(?i)` + p.expr)
		if err != nil {
			return nil, fmt.Errorf("%w: %s pattern: %v", ErrInvalidSchema, p.kind, err)
		}
		c.rules = append(c.rules, rule{
			kind:       p.kind,
			re:         re,
			headerOnly: p.headerOnly,
			build:      p.build,
		})
	}
	return c, nil
}

// Classify turns one line into exactly one token.
func (s *Schema) Classify(raw string, ctx Context) Token {
	return s.classifier.classify(raw, ctx)
}

func (c *classifier) classify(raw string, ctx Context) Token {
	ln := normalize(raw)
	if ln.raw == "" {
		return Token{Kind: KindBlank}
	}
	if ln.clean != "" {
		for _, r := range c.rules {
			if r.headerOnly && ln.bullet {
				continue
			}
			// Summary prose keeps its ratios; only list items score there.
			if ctx.InSummary && !ln.item && (r.kind == KindCriterion || r.kind == KindPenalty) {
				continue
			}
			m := r.re.FindStringSubmatch(ln.clean)
			if m == nil {
				continue
			}
			if tok, ok := r.build(c, m, ln, ctx); ok {
				tok.Raw = ln.raw
				return tok
			}
		}
	}
	return Token{Kind: KindUnclassified, Raw: ln.raw}
}

func normalize(raw string) line {
	ln := line{raw: strings.TrimSpace(raw)}
	s := headingPrefix.ReplaceAllString(ln.raw, "")
	if loc := bulletPrefix.FindStringIndex(s); loc != nil {
		ln.bullet = true
		s = s[loc[1]:]
	}
	s = strings.TrimSpace(markup.Replace(s))
	if loc := numberPrefix.FindStringIndex(s); loc != nil {
		ln.item = true
		s = s[loc[1]:]
	}
	ln.item = ln.item || ln.bullet
	ln.clean = strings.TrimSpace(s)
	return ln
}

func (c *classifier) buildHeader(m []string, _ line, _ Context) (Token, bool) {
	title := cleanLabel(m[1])
	if title == "" || strings.HasSuffix(title, "?") {
		return Token{}, false
	}
	maxPoints, ok := atoi(m[2])
	if !ok {
		return Token{}, false
	}
	if m[3] != "" {
		if maxPoints, ok = atoi(m[3]); !ok {
			return Token{}, false
		}
	}
	tok := Token{Kind: KindSectionHeader, Title: title, Max: maxPoints, Penalty: maxPoints < 0}
	if spec, found := c.schema.sectionMentioned(title); found && spec.Penalty {
		tok.Penalty = true
	}
	return tok, true
}

func (c *classifier) buildBareHeader(m []string, _ line, _ Context) (Token, bool) {
	spec, found := c.schema.sectionFor(cleanLabel(m[1]))
	if !found {
		return Token{}, false
	}
	return Token{Kind: KindSectionHeader, Title: spec.Title, Max: spec.MaxPoints, Penalty: spec.Penalty}, true
}

func (c *classifier) buildSummary(m []string, _ line, _ Context) (Token, bool) {
	return Token{Kind: KindSummaryMarker, Leading: strings.TrimSpace(m[1])}, true
}

func (c *classifier) buildFinalScore(m []string, _ line, _ Context) (Token, bool) {
	v, ok := atoi(m[1])
	if !ok {
		return Token{}, false
	}
	return Token{Kind: KindFinalScore, Value: v}, true
}

func (c *classifier) buildPenalty(m []string, _ line, _ Context) (Token, bool) {
	maxPoints, ok1 := atoi(m[2])
	awarded, ok2 := atoi(m[3])
	if !ok1 || !ok2 {
		return Token{}, false
	}
	return c.criterion(m[1], awarded, -maxPoints, m[4], Context{InPenaltySection: true})
}

func (c *classifier) buildCeilingFirst(m []string, _ line, ctx Context) (Token, bool) {
	maxPoints, ok1 := atoi(m[2])
	awarded, ok2 := atoi(m[3])
	if !ok1 || !ok2 {
		return Token{}, false
	}
	return c.criterion(m[1], awarded, maxPoints, m[5], ctx)
}

func (c *classifier) buildFraction(m []string, _ line, ctx Context) (Token, bool) {
	awarded, ok1 := atoi(m[2])
	maxPoints, ok2 := atoi(m[3])
	if !ok1 || !ok2 {
		return Token{}, false
	}
	return c.criterion(m[1], awarded, maxPoints, m[4], ctx)
}

func (c *classifier) buildLooseFraction(m []string, _ line, ctx Context) (Token, bool) {
	awarded, ok1 := atoi(m[2])
	maxPoints, ok2 := atoi(m[3])
	if !ok1 || !ok2 {
		return Token{}, false
	}
	// Without parentheses this shape also matches dates, totals and ratios.
	if abs(awarded) > abs(maxPoints) {
		return Token{}, false
	}
	if !ctx.InSection {
		if _, _, found := c.schema.criterionFor(m[1]); !found {
			return Token{}, false
		}
	}
	return c.criterion(m[1], awarded, maxPoints, m[4], ctx)
}

func (c *classifier) buildKnownLabel(m []string, _ line, ctx Context) (Token, bool) {
	spec, section, found := c.schema.criterionFor(m[1])
	if !found {
		return Token{}, false
	}
	awarded, ok := atoi(m[2])
	if !ok {
		return Token{}, false
	}
	if section.Penalty {
		ctx.InPenaltySection = true
	}
	return c.criterion(m[1], awarded, spec.MaxPoints, m[3], ctx)
}

// criterion applies the sign rules shared by every criterion shape: penalty
// items only subtract, and a negative award outside a penalty is rejected.
func (c *classifier) criterion(label string, awarded, maxPoints int, rest string, ctx Context) (Token, bool) {
	text := cleanLabel(label)
	if text == "" {
		return Token{}, false
	}

	penalty := ctx.InPenaltySection || maxPoints < 0
	if !penalty && awarded < 0 {
		return Token{}, false
	}

	tok := Token{
		Kind:          KindCriterion,
		Text:          text,
		Awarded:       awarded,
		Max:           maxPoints,
		Justification: justification(rest),
	}
	if penalty {
		tok.Kind = KindPenalty
		tok.Awarded = -abs(awarded)
		tok.Max = -abs(maxPoints)
	}
	return tok, true
}

func cleanLabel(s string) string {
	return strings.TrimSpace(strings.TrimRight(strings.TrimSpace(s), ":-–—="))
}

func justification(rest string) string {
	s := strings.TrimSpace(rest)
	s = strings.TrimLeft(s, ":;,.-–— ")
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") && strings.Count(s, "(") == 1 {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

func atoi(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	return n, err == nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
