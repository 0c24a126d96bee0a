package analyzer

import (
	"fmt"
	"regexp"
	"strings"

	"safesphere/internal/domain/models"
)

// urlCandidate picks out URL-like substrings: scheme URLs, www hosts, and bare host.tld tokens
var urlCandidate = regexp.MustCompile(`https?://\S+|www\.\S+|[a-zA-Z0-9-]+\.[a-zA-Z]{2,}\S*`)

// URLVerdict explains why a URL candidate was or was not considered suspicious
type URLVerdict struct {
	URL        string   `json:"url"`
	Suspicious bool     `json:"suspicious"`
	Reasons    []string `json:"reasons,omitempty"`
}

// ExtractURLs returns every URL-like candidate in content, in order of appearance
func ExtractURLs(content string) []string {
	return urlCandidate.FindAllString(content, -1)
}

// InspectURL checks a single candidate against the URL rules and the impersonation heuristic
func (l *Library) InspectURL(candidate string) URLVerdict {
	v := URLVerdict{URL: candidate}

	for _, r := range l.URLRules {
		if r.Pattern.MatchString(candidate) {
			v.Reasons = append(v.Reasons, r.Name)
		}
	}

	// Brand label present but canonical domain absent. Known to misfire on
	// hosts like amazonfulfillment.example.
	lower := strings.ToLower(candidate)
	for _, domain := range l.LegitimateDomains {
		if strings.Contains(lower, brandOf(domain)) && !strings.Contains(lower, domain) {
			v.Reasons = append(v.Reasons, "impersonates-"+domain)
		}
	}

	v.Suspicious = len(v.Reasons) > 0
	return v
}

func detectURLs(lib *Library, in input) *contribution {
	urls := ExtractURLs(in.raw)
	if len(urls) == 0 {
		return nil
	}

	suspicious := 0
	for _, u := range urls {
		if lib.InspectURL(u).Suspicious {
			suspicious++
		}
	}

	if suspicious == 0 {
		return &contribution{
			finding: models.Finding{
				Severity: models.SeverityInfo,
				Title:    "URLs Found",
				Message:  fmt.Sprintf("Found %d URL(s). Always verify URLs before clicking by hovering over links.", len(urls)),
			},
		}
	}

	return &contribution{
		flag:  models.FlagSuspiciousURLs,
		score: min(suspicious*lib.URLWeight, lib.URLCap),
		finding: models.Finding{
			Severity: models.SeverityDanger,
			Title:    "Suspicious URLs Detected",
			Message: fmt.Sprintf("Found %d suspicious URL(s). These may be shortened links, use IP addresses, or impersonate legitimate domains.",
				suspicious),
		},
	}
}
