package analyzer

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"safesphere/internal/domain/models"
)

// LibrarySpec is the file form of a Library. Sections left empty keep the built-in values.
type LibrarySpec struct {
	Categories        []CategorySpec `yaml:"categories,omitempty" toml:"categories,omitempty" json:"categories,omitempty"`
	URLRules          []RuleSpec     `yaml:"url_rules,omitempty" toml:"url_rules,omitempty" json:"urlRules,omitempty"`
	LegitimateDomains []string       `yaml:"legitimate_domains,omitempty" toml:"legitimate_domains,omitempty" json:"legitimateDomains,omitempty"`
	PersonalInfoRules []RuleSpec     `yaml:"personal_info_rules,omitempty" toml:"personal_info_rules,omitempty" json:"personalInfoRules,omitempty"`
	Scoring           *ScoringSpec   `yaml:"scoring,omitempty" toml:"scoring,omitempty" json:"scoring,omitempty"`
}

// CategorySpec overrides one keyword category, selected by flag
type CategorySpec struct {
	Flag     string   `yaml:"flag" toml:"flag" json:"flag"`
	Title    string   `yaml:"title,omitempty" toml:"title,omitempty" json:"title,omitempty"`
	Noun     string   `yaml:"noun,omitempty" toml:"noun,omitempty" json:"noun,omitempty"`
	Advice   string   `yaml:"advice,omitempty" toml:"advice,omitempty" json:"advice,omitempty"`
	Severity string   `yaml:"severity,omitempty" toml:"severity,omitempty" json:"severity,omitempty"`
	Keywords []string `yaml:"keywords,omitempty" toml:"keywords,omitempty" json:"keywords,omitempty"`
	Weight   int      `yaml:"weight,omitempty" toml:"weight,omitempty" json:"weight,omitempty"`
	Cap      int      `yaml:"cap,omitempty" toml:"cap,omitempty" json:"cap,omitempty"`
}

// RuleSpec is an uncompiled PatternRule
type RuleSpec struct {
	Name    string `yaml:"name" toml:"name" json:"name"`
	Pattern string `yaml:"pattern" toml:"pattern" json:"pattern"`
}

// ScoringSpec overrides the fixed per-detector weights
type ScoringSpec struct {
	URLWeight          int `yaml:"url_weight,omitempty" toml:"url_weight,omitempty" json:"urlWeight,omitempty"`
	URLCap             int `yaml:"url_cap,omitempty" toml:"url_cap,omitempty" json:"urlCap,omitempty"`
	GrammarWeight      int `yaml:"grammar_weight,omitempty" toml:"grammar_weight,omitempty" json:"grammarWeight,omitempty"`
	PersonalInfoWeight int `yaml:"personal_info_weight,omitempty" toml:"personal_info_weight,omitempty" json:"personalInfoWeight,omitempty"`
}

// LoadLibrary reads a pattern file and returns the resulting Library.
// An empty path returns DefaultLibrary. The format is chosen by extension (.yaml, .yml, .toml).
func LoadLibrary(path string) (*Library, error) {
	if path == "" {
		return DefaultLibrary(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pattern library: %w", err)
	}

	var spec LibrarySpec
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &spec); err != nil {
			return nil, fmt.Errorf("failed to parse pattern library %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &spec); err != nil {
			return nil, fmt.Errorf("failed to parse pattern library %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported pattern library format %q", ext)
	}

	lib, err := spec.Compile()
	if err != nil {
		return nil, fmt.Errorf("invalid pattern library %s: %w", path, err)
	}
	return lib, nil
}

// Compile applies the spec on top of DefaultLibrary and validates the result
func (s *LibrarySpec) Compile() (*Library, error) {
	lib := DefaultLibrary()

	for _, cs := range s.Categories {
		c := lib.category(models.Flag(cs.Flag))
		if c == nil {
			return nil, fmt.Errorf("unknown keyword category %q", cs.Flag)
		}
		if cs.Title != "" {
			c.Title = cs.Title
		}
		if cs.Noun != "" {
			c.Noun = cs.Noun
		}
		if cs.Advice != "" {
			c.Advice = cs.Advice
		}
		if cs.Severity != "" {
			c.Severity = models.ParseSeverity(cs.Severity)
		}
		if len(cs.Keywords) > 0 {
			c.Keywords = append([]string(nil), cs.Keywords...)
		}
		if cs.Weight != 0 {
			c.Weight = cs.Weight
		}
		if cs.Cap != 0 {
			c.Cap = cs.Cap
		}
	}

	if len(s.URLRules) > 0 {
		rules, err := compileRules(s.URLRules)
		if err != nil {
			return nil, err
		}
		lib.URLRules = rules
	}
	if len(s.PersonalInfoRules) > 0 {
		rules, err := compileRules(s.PersonalInfoRules)
		if err != nil {
			return nil, err
		}
		lib.PersonalInfoRules = rules
	}
	if len(s.LegitimateDomains) > 0 {
		lib.LegitimateDomains = make([]string, len(s.LegitimateDomains))
		for i, d := range s.LegitimateDomains {
			lib.LegitimateDomains[i] = strings.ToLower(strings.TrimSpace(d))
		}
	}

	if sc := s.Scoring; sc != nil {
		if sc.URLWeight != 0 {
			lib.URLWeight = sc.URLWeight
		}
		if sc.URLCap != 0 {
			lib.URLCap = sc.URLCap
		}
		if sc.GrammarWeight != 0 {
			lib.GrammarWeight = sc.GrammarWeight
		}
		if sc.PersonalInfoWeight != 0 {
			lib.PersonalInfoWeight = sc.PersonalInfoWeight
		}
	}

	if err := lib.Validate(); err != nil {
		return nil, err
	}
	return lib, nil
}

func compileRules(specs []RuleSpec) ([]PatternRule, error) {
	rules := make([]PatternRule, 0, len(specs))
	for _, rs := range specs {
		re, err := regexp.Compile(rs.Pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to compile rule %q: %w", rs.Name, err)
		}
		rules = append(rules, PatternRule{Name: rs.Name, Pattern: re})
	}
	return rules, nil
}

// Spec converts the library back to its file form
func (l *Library) Spec() *LibrarySpec {
	spec := &LibrarySpec{
		LegitimateDomains: append([]string(nil), l.LegitimateDomains...),
		URLRules:          ruleSpecs(l.URLRules),
		PersonalInfoRules: ruleSpecs(l.PersonalInfoRules),
		Scoring: &ScoringSpec{
			URLWeight:          l.URLWeight,
			URLCap:             l.URLCap,
			GrammarWeight:      l.GrammarWeight,
			PersonalInfoWeight: l.PersonalInfoWeight,
		},
	}
	for _, c := range l.KeywordCategories() {
		spec.Categories = append(spec.Categories, CategorySpec{
			Flag:     string(c.Flag),
			Title:    c.Title,
			Noun:     c.Noun,
			Advice:   c.Advice,
			Severity: string(c.Severity),
			Keywords: append([]string(nil), c.Keywords...),
			Weight:   c.Weight,
			Cap:      c.Cap,
		})
	}
	return spec
}

func ruleSpecs(rules []PatternRule) []RuleSpec {
	out := make([]RuleSpec, 0, len(rules))
	for _, r := range rules {
		out = append(out, RuleSpec{Name: r.Name, Pattern: r.Pattern.String()})
	}
	return out
}

// EncodeYAML encodes the spec as YAML
func (s *LibrarySpec) EncodeYAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return nil, fmt.Errorf("failed to encode pattern library: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode pattern library: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeTOML encodes the spec as TOML
func (s *LibrarySpec) EncodeTOML() ([]byte, error) {
	data, err := toml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode pattern library: %w", err)
	}
	return data, nil
}
