package analyzer

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"safesphere/internal/domain/models"
)

var (
	repeatedPunctuation = regexp.MustCompile(`[!?]{2,}`)
	hasUpper            = regexp.MustCompile(`[A-Z]`)
	excessiveWhitespace = regexp.MustCompile(`\s{3,}`)
	wordSeparator       = regexp.MustCompile(`\s+`)
)

// capsWordRatio is the share of shouted words above which the text counts as all-caps
const capsWordRatio = 0.3

// grammarIssues counts the three formatting checks that fired
func grammarIssues(content string) int {
	issues := 0

	if repeatedPunctuation.MatchString(content) {
		issues++
	}

	// Leading or trailing whitespace yields an empty word that still counts toward the total
	words := wordSeparator.Split(content, -1)
	caps := 0
	for _, w := range words {
		if utf8.RuneCountInString(w) > 3 && w == strings.ToUpper(w) && hasUpper.MatchString(w) {
			caps++
		}
	}
	if float64(caps) > float64(len(words))*capsWordRatio {
		issues++
	}

	if excessiveWhitespace.MatchString(content) {
		issues++
	}

	return issues
}

func detectGrammar(lib *Library, in input) *contribution {
	issues := grammarIssues(in.raw)
	if issues == 0 {
		return nil
	}

	return &contribution{
		flag:  models.FlagPoorGrammar,
		score: issues * lib.GrammarWeight,
		finding: models.Finding{
			Severity: models.SeverityWarning,
			Title:    "Grammar/Formatting Issues",
			Message:  "Poor grammar, excessive punctuation, or unusual formatting detected. This is common in phishing attempts.",
		},
	}
}
