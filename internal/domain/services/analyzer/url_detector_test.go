package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safesphere/internal/domain/models"
)

func TestExtractURLs(t *testing.T) {
	tests := []struct {
		content string
		want    []string
	}{
		{"no links here", nil},
		{"see https://example.com/a?b=c now", []string{"https://example.com/a?b=c"}},
		{"www.example.org and http://x.io", []string{"www.example.org", "http://x.io"}},
		{"bare host paypal-secure.net/login", []string{"paypal-secure.net/login"}},
		{"ends with a period.", nil},
	}

	for _, tt := range tests {
		t.Run(tt.content, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractURLs(tt.content))
		})
	}
}

func TestInspectURL(t *testing.T) {
	lib := DefaultLibrary()

	tests := []struct {
		url        string
		suspicious bool
		reason     string
	}{
		{"https://www.example.com/page", false, ""},
		{"https://www.paypal.com/signin", false, ""},
		{"https://www.microsoft.com/security", false, ""},
		{"http://bit.ly/x123", true, "shortener-bitly"},
		{"https://tinyurl.com/abc", true, "shortener-tinyurl"},
		{"http://t.co/abc", true, "shortener-tco"},
		{"http://192.168.1.1/login", true, "ipv4-host"},
		{"secure-login.example/account-verify", true, "hyphen-verify"},
		{"paypal-help.com", true, "lookalike-paypal"},
		{"amaz0n.com/orders", true, "lookalike-amazon"},
		{"http://free-prize.tk/claim", true, "suspicious-tld"},
		{"http://winner.ml", true, "suspicious-tld"},
		{"https://example.com/track/1234567", true, "digit-run"},
		{"google-support.net", true, "impersonates-google.com"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			v := lib.InspectURL(tt.url)
			assert.Equal(t, tt.suspicious, v.Suspicious, "reasons: %v", v.Reasons)
			if tt.reason != "" {
				assert.Contains(t, v.Reasons, tt.reason)
			}
		})
	}
}

// Shortener and IPv4 rules need word boundaries, and the TLD rule accepts a
// path, port, query or fragment after the TLD. These pin where the verdicts
// differ from plain substring and end-anchored matching.
func TestInspectURL_BoundedRules(t *testing.T) {
	lib := DefaultLibrary()

	tests := []struct {
		url        string
		suspicious bool
		reasons    []string
	}{
		{"evil.tk/login", true, []string{"suspicious-tld"}},
		{"http://evil.tk:8080", true, []string{"suspicious-tld"}},
		{"http://prize.tk?id=1", true, []string{"suspicious-tld"}},
		{"https://stock.tkx.example", false, nil},
		{"https://microsoft.com", false, nil},
		{"https://orbit.lyrics.example", false, nil},
		{"https://abit.lyx.example", false, nil},
		{"https://v10.20.30.400.example", false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			v := lib.InspectURL(tt.url)
			assert.Equal(t, tt.suspicious, v.Suspicious, "reasons: %v", v.Reasons)
			assert.Equal(t, tt.reasons, v.Reasons)
		})
	}
}

// The impersonation heuristic flags any host that contains a brand label
// without the brand's canonical domain. These cases are imprecise on purpose
// and pinned so that a change to the heuristic is a visible decision.
func TestInspectURL_ImpersonationFalsePositives(t *testing.T) {
	lib := DefaultLibrary()

	for _, u := range []string{
		"amazonfulfillment.example/track",
		"https://applesauce-recipes.example",
		"https://www.paypal.co.uk/help",
	} {
		v := lib.InspectURL(u)
		assert.True(t, v.Suspicious, u)
	}

	res, err := Analyze("Your parcel is waiting. Track it at amazonfulfillment.example/track")
	require.NoError(t, err)
	assert.True(t, res.HasFlag(models.FlagSuspiciousURLs))
	assert.Equal(t, 20, res.RiskScore)
	assert.Equal(t, models.RiskLevelLow, res.RiskLevel)
}

func TestDetectURLs_CountsEachCandidate(t *testing.T) {
	lib := DefaultLibrary()
	content := "https://example.com and http://bit.ly/abc"

	c := detectURLs(lib, input{raw: content})
	require.NotNil(t, c)
	assert.Equal(t, models.FlagSuspiciousURLs, c.flag)
	assert.Equal(t, 20, c.score)
	assert.Equal(t, models.SeverityDanger, c.finding.Severity)
	assert.Contains(t, c.finding.Message, "Found 1 suspicious URL(s)")
}

func TestDetectURLs_NoCandidates(t *testing.T) {
	assert.Nil(t, detectURLs(DefaultLibrary(), input{raw: "plain words only"}))
}
