package analyzer

import (
	"fmt"
	"strings"

	"safesphere/internal/domain/models"
)

// maxListedTerms bounds how many matched keywords a finding names
const maxListedTerms = 3

// input is the content handed to every detector
type input struct {
	raw   string
	lower string
}

// contribution is what one detector adds to the accumulator.
// A contribution without a flag carries only an informational finding.
type contribution struct {
	flag    models.Flag
	score   int
	finding models.Finding
}

// detector inspects the input and returns nil when its category did not trigger
type detector func(lib *Library, in input) *contribution

// detectorChain returns the detectors in their fixed order
func detectorChain() []detector {
	return []detector{
		keywordDetector(models.FlagUrgency),
		keywordDetector(models.FlagFinancial),
		keywordDetector(models.FlagAuthentication),
		keywordDetector(models.FlagActionRequest),
		keywordDetector(models.FlagScamIndicators),
		keywordDetector(models.FlagThreats),
		detectURLs,
		detectGrammar,
		detectPersonalInfo,
	}
}

// keywordDetector counts distinct keywords of one category contained in the lowercased content
func keywordDetector(flag models.Flag) detector {
	return func(lib *Library, in input) *contribution {
		c := lib.category(flag)
		if c == nil {
			return nil
		}

		matched := matchKeywords(c.Keywords, in.lower)
		if len(matched) == 0 {
			return nil
		}

		listed := matched
		if len(listed) > maxListedTerms {
			listed = listed[:maxListedTerms]
		}

		return &contribution{
			flag:  c.Flag,
			score: min(len(matched)*c.Weight, c.Cap),
			finding: models.Finding{
				Severity: c.Severity,
				Title:    c.Title,
				Message: fmt.Sprintf("Found %d %s: %s. %s",
					len(matched), c.Noun, strings.Join(listed, ", "), c.Advice),
			},
		}
	}
}

// matchKeywords returns the keywords found in text, in library order
func matchKeywords(keywords []string, text string) []string {
	var matched []string
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			matched = append(matched, kw)
		}
	}
	return matched
}

func detectPersonalInfo(lib *Library, in input) *contribution {
	count := 0
	for _, r := range lib.PersonalInfoRules {
		if r.Pattern.MatchString(in.raw) {
			count++
		}
	}
	if count == 0 {
		return nil
	}

	return &contribution{
		flag:  models.FlagPersonalInfoRequest,
		score: count * lib.PersonalInfoWeight,
		finding: models.Finding{
			Severity: models.SeverityDanger,
			Title:    "Personal Information Request",
			Message:  "Requests for sensitive personal information detected. Legitimate organizations rarely ask for this via email/text.",
		},
	}
}
