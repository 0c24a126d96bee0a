// Package analyzer scores free text for scam and phishing risk.
//
// Analysis is a single synchronous pass: nine detectors run in a fixed order
// over an immutable pattern Library and add to a shared accumulator, the total
// is clamped and classified, and recommendations are derived from the flags.
// The package does no I/O and keeps no state between calls.
package analyzer

import (
	"errors"
	"strings"

	"safesphere/internal/domain/models"
)

// ErrEmptyContent is returned for empty or whitespace-only input
var ErrEmptyContent = errors.New("content is empty")

// Analyzer runs the detector chain against one Library
type Analyzer struct {
	lib       *Library
	detectors []detector
}

// New creates an analyzer. A nil library uses DefaultLibrary.
func New(lib *Library) *Analyzer {
	if lib == nil {
		lib = DefaultLibrary()
	}
	return &Analyzer{
		lib:       lib,
		detectors: detectorChain(),
	}
}

// Library returns the pattern library in use
func (a *Analyzer) Library() *Library {
	return a.lib
}

// accumulator collects detector contributions for one analysis
type accumulator struct {
	total   int
	flags   []models.Flag
	details []models.Finding
}

func (acc *accumulator) add(c *contribution) {
	if c == nil {
		return
	}
	acc.total += c.score
	if c.flag != "" {
		acc.flags = append(acc.flags, c.flag)
	}
	acc.details = append(acc.details, c.finding)
}

// Analyze scores content and returns a fresh result
func (a *Analyzer) Analyze(content string) (*models.AnalysisResult, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	in := input{raw: content, lower: strings.ToLower(content)}
	acc := accumulator{
		flags:   []models.Flag{},
		details: []models.Finding{},
	}
	for _, d := range a.detectors {
		acc.add(d(a.lib, in))
	}

	score := ClampScore(acc.total)
	level, message := Classify(score)

	return &models.AnalysisResult{
		RiskScore:       score,
		RiskLevel:       level,
		RiskMessage:     message,
		Flags:           acc.flags,
		Details:         acc.details,
		Recommendations: Recommend(acc.flags, level),
	}, nil
}

var defaultAnalyzer = New(nil)

// Analyze scores content with the default library
func Analyze(content string) (*models.AnalysisResult, error) {
	return defaultAnalyzer.Analyze(content)
}
