package rubric

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var ErrInvalidSchema = errors.New("invalid rubric schema")

const (
	defaultPointUnits     = `pontos?|pts?|points?|pt`
	defaultCeilingLabels  = `m[aá]ximo|max(?:imum)?|peso(?:\s+total)?|total\s+weight|weight`
	defaultSummaryMarker  = `summary|resumo(?:\s+da\s+an[aá]lise)?`
	defaultFinalScore     = `final[_\s]?score|score\s+final|nota\s+final|pontua[cç][aã]o\s+total`
	defaultImplicitTitle  = "General Criteria"
	defaultPenaltyTitle   = "Penalties"
	defaultNoSummary      = "No summary available."
	defaultFallbackWindow = 40
)

// CriterionSpec describes one expected rubric item.
type CriterionSpec struct {
	Label     string `json:"label" koanf:"label"`
	Match     string `json:"match,omitempty" koanf:"match"`
	MaxPoints int    `json:"max_points" koanf:"max_points"`

	re       *regexp.Regexp
	fallback *regexp.Regexp
}

// SectionSpec describes one expected rubric section. Match defaults to the
// quoted Title.
type SectionSpec struct {
	Title     string          `json:"title" koanf:"title"`
	Match     string          `json:"match,omitempty" koanf:"match"`
	MaxPoints int             `json:"max_points" koanf:"max_points"`
	Penalty   bool            `json:"penalty" koanf:"penalty"`
	Criteria  []CriterionSpec `json:"criteria" koanf:"criteria"`

	re *regexp.Regexp
}

// Schema is an immutable, validated rubric description. Build one with
// Define; it is safe for concurrent use.
type Schema struct {
	sections       []SectionSpec
	summaryMarker  string
	finalScore     string
	pointUnits     string
	ceilingLabels  string
	noSummary      string
	implicitTitle  string
	policy         Policy
	fallbackWindow int

	classifier *classifier
}

// Option customizes a Schema built by Define.
type Option func(*Schema)

// WithSummaryMarker overrides the pattern that opens the narrative summary.
func WithSummaryMarker(pattern string) Option {
	return func(s *Schema) {
		if pattern != "" {
			s.summaryMarker = pattern
		}
	}
}

// WithFinalScoreMarker overrides the pattern preceding an explicit total.
func WithFinalScoreMarker(pattern string) Option {
	return func(s *Schema) {
		if pattern != "" {
			s.finalScore = pattern
		}
	}
}

// WithPolicy selects how the itemized sum and a declared total are
// reconciled. Define rejects unknown policies.
func WithPolicy(p Policy) Option {
	return func(s *Schema) { s.policy = p }
}

// WithNoSummary sets the summary reported when the text has none.
func WithNoSummary(text string) Option {
	return func(s *Schema) {
		if text != "" {
			s.noSummary = text
		}
	}
}

// WithImplicitSectionTitle names the section opened for criteria that
// appear before any header.
func WithImplicitSectionTitle(title string) Option {
	return func(s *Schema) {
		if title != "" {
			s.implicitTitle = title
		}
	}
}

// WithPointUnits sets the regexp alternation of point unit words
// ("pontos|pts" by default).
func WithPointUnits(alternation string) Option {
	return func(s *Schema) {
		if alternation != "" {
			s.pointUnits = alternation
		}
	}
}

// WithCeilingLabels sets the regexp alternation of words that may prefix a
// ceiling inside parentheses, as in "(Máximo: 10 pontos)".
func WithCeilingLabels(alternation string) Option {
	return func(s *Schema) {
		if alternation != "" {
			s.ceilingLabels = alternation
		}
	}
}

// WithFallbackWindow bounds how many characters may separate a criterion
// label from its number during fallback extraction.
func WithFallbackWindow(n int) Option {
	return func(s *Schema) {
		if n > 0 {
			s.fallbackWindow = n
		}
	}
}

// Define validates the section specs and compiles every pattern the
// classifier and fallback extractor need.
func Define(sections []SectionSpec, opts ...Option) (*Schema, error) {
	s := &Schema{
		summaryMarker:  defaultSummaryMarker,
		finalScore:     defaultFinalScore,
		pointUnits:     defaultPointUnits,
		ceilingLabels:  defaultCeilingLabels,
		noSummary:      defaultNoSummary,
		implicitTitle:  defaultImplicitTitle,
		policy:         PreferStructural,
		fallbackWindow: defaultFallbackWindow,
	}
	for _, opt := range opts {
		opt(s)
	}

	if !s.policy.valid() {
		return nil, fmt.Errorf("%w: unknown policy %q", ErrInvalidSchema, s.policy)
	}

	seen := make(map[string]bool, len(sections))
	s.sections = make([]SectionSpec, len(sections))
	for i, sec := range sections {
		compiled, err := compileSection(sec)
		if err != nil {
			return nil, err
		}
		key := strings.ToLower(compiled.Title)
		if seen[key] {
			return nil, fmt.Errorf("%w: duplicate section %q", ErrInvalidSchema, compiled.Title)
		}
		seen[key] = true
		s.sections[i] = compiled
	}

	if err := s.compileFallback(); err != nil {
		return nil, err
	}

	c, err := newClassifier(s)
	if err != nil {
		return nil, err
	}
	s.classifier = c

	return s, nil
}

// MustDefine is Define for static rubrics; it panics on an invalid schema.
func MustDefine(sections []SectionSpec, opts ...Option) *Schema {
	s, err := Define(sections, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

func compileSection(sec SectionSpec) (SectionSpec, error) {
	sec.Title = strings.TrimSpace(sec.Title)
	if sec.Title == "" {
		return sec, fmt.Errorf("%w: section title is required", ErrInvalidSchema)
	}
	if sec.Penalty && sec.MaxPoints > 0 {
		return sec, fmt.Errorf("%w: penalty section %q must have a non-positive ceiling", ErrInvalidSchema, sec.Title)
	}
	if !sec.Penalty && sec.MaxPoints < 0 {
		return sec, fmt.Errorf("%w: section %q has a negative ceiling", ErrInvalidSchema, sec.Title)
	}

	re, err := compileMatch(sec.Match, sec.Title)
	if err != nil {
		return sec, fmt.Errorf("%w: section %q: %v", ErrInvalidSchema, sec.Title, err)
	}
	sec.re = re

	criteria := make([]CriterionSpec, len(sec.Criteria))
	for i, crit := range sec.Criteria {
		crit.Label = strings.TrimSpace(crit.Label)
		if crit.Label == "" {
			return sec, fmt.Errorf("%w: section %q has a criterion without label", ErrInvalidSchema, sec.Title)
		}
		if sec.Penalty && crit.MaxPoints > 0 {
			return sec, fmt.Errorf("%w: penalty criterion %q must have a non-positive ceiling", ErrInvalidSchema, crit.Label)
		}
		if !sec.Penalty && crit.MaxPoints < 0 {
			return sec, fmt.Errorf("%w: criterion %q has a negative ceiling", ErrInvalidSchema, crit.Label)
		}
		re, err := compileMatch(crit.Match, crit.Label)
		if err != nil {
			return sec, fmt.Errorf("%w: criterion %q: %v", ErrInvalidSchema, crit.Label, err)
		}
		crit.re = re
		criteria[i] = crit
	}
	sec.Criteria = criteria

	return sec, nil
}

func compileMatch(pattern, literal string) (*regexp.Regexp, error) {
	if pattern == "" {
		pattern = regexp.QuoteMeta(literal)
	}
	return regexp.Compile(`(?i)` + pattern)
}

// Sections returns a copy of the configured sections.
func (s *Schema) Sections() []SectionSpec {
	out := make([]SectionSpec, len(s.sections))
	for i, sec := range s.sections {
		sec.Criteria = append([]CriterionSpec(nil), sec.Criteria...)
		out[i] = sec
	}
	return out
}

func (s *Schema) Policy() Policy { return s.policy }

// MaxScore is the sum of all non-penalty section ceilings.
func (s *Schema) MaxScore() int {
	total := 0
	for _, sec := range s.sections {
		if !sec.Penalty {
			total += sec.MaxPoints
		}
	}
	return total
}

// sectionFor returns the configured section whose pattern covers the whole
// title.
func (s *Schema) sectionFor(title string) (SectionSpec, bool) {
	title = strings.TrimSpace(title)
	for _, sec := range s.sections {
		if loc := sec.re.FindStringIndex(title); loc != nil && loc[0] == 0 && loc[1] == len(title) {
			return sec, true
		}
	}
	return SectionSpec{}, false
}

func (s *Schema) penaltyTitle() string {
	for _, sec := range s.sections {
		if sec.Penalty {
			return sec.Title
		}
	}
	return defaultPenaltyTitle
}

// sectionMentioned is like sectionFor but accepts a pattern match anywhere
// in the title.
func (s *Schema) sectionMentioned(title string) (SectionSpec, bool) {
	for _, sec := range s.sections {
		if sec.re.MatchString(title) {
			return sec, true
		}
	}
	return SectionSpec{}, false
}

// criterionFor finds the configured criterion named by label.
func (s *Schema) criterionFor(label string) (CriterionSpec, SectionSpec, bool) {
	for _, sec := range s.sections {
		for _, crit := range sec.Criteria {
			if crit.re.MatchString(label) {
				return crit, sec, true
			}
		}
	}
	return CriterionSpec{}, SectionSpec{}, false
}
