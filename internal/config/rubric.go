package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"projetodesenvolve/meeting-evaluator/internal/rubric"
)

// RubricFile mirrors the YAML rubric document.
type RubricFile struct {
	Policy               string               `koanf:"policy"`
	SummaryMarker        string               `koanf:"summary_marker"`
	FinalScoreMarker     string               `koanf:"final_score_marker"`
	NoSummary            string               `koanf:"no_summary"`
	ImplicitSectionTitle string               `koanf:"implicit_section_title"`
	PointUnits           string               `koanf:"point_units"`
	CeilingLabels        string               `koanf:"ceiling_labels"`
	FallbackWindow       int                  `koanf:"fallback_window"`
	Sections             []rubric.SectionSpec `koanf:"sections"`
}

// LoadRubric reads a YAML rubric from path and compiles it. Scalar keys can
// be overridden from the environment: RUBRIC_POLICY sets policy,
// RUBRIC_NO_SUMMARY sets no_summary, and so on.
func LoadRubric(path string) (*rubric.Schema, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to read rubric %s: %w", path, err)
	}

	envProvider := env.Provider("RUBRIC_", ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), "rubric_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to read rubric overrides: %w", err)
	}

	var rf RubricFile
	if err := k.UnmarshalWithConf("", &rf, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to decode rubric %s: %w", path, err)
	}

	return rf.Schema()
}

// Schema validates the file contents and builds the parser schema.
func (rf RubricFile) Schema() (*rubric.Schema, error) {
	if len(rf.Sections) == 0 {
		return nil, fmt.Errorf("%w: rubric has no sections", rubric.ErrInvalidSchema)
	}

	policy, err := rubric.ParsePolicy(rf.Policy)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", rubric.ErrInvalidSchema, err)
	}

	schema, err := rubric.Define(rf.Sections,
		rubric.WithPolicy(policy),
		rubric.WithSummaryMarker(rf.SummaryMarker),
		rubric.WithFinalScoreMarker(rf.FinalScoreMarker),
		rubric.WithNoSummary(rf.NoSummary),
		rubric.WithImplicitSectionTitle(rf.ImplicitSectionTitle),
		rubric.WithPointUnits(rf.PointUnits),
		rubric.WithCeilingLabels(rf.CeilingLabels),
		rubric.WithFallbackWindow(rf.FallbackWindow),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compile rubric: %w", err)
	}
	return schema, nil
}
