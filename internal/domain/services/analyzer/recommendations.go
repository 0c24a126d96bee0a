package analyzer

import "safesphere/internal/domain/models"

// flagAdvice is checked in order; each triggered flag adds its line once
var flagAdvice = []struct {
	flag   models.Flag
	advice string
}{
	{models.FlagSuspiciousURLs, "Do NOT click on any links. Verify URLs by contacting the organization directly."},
	{models.FlagAuthentication, "Never share OTPs, passwords, or verification codes with anyone, including support staff."},
	{models.FlagPersonalInfoRequest, "Do not provide personal or financial information through unsecured channels."},
	{models.FlagUrgency, "Take time to verify. Legitimate organizations won't pressure you with extreme urgency."},
	{models.FlagThreats, "Contact the organization directly using official contact information to verify any claims."},
	{models.FlagFinancial, "Verify any financial requests through official channels before taking action."},
}

// Baseline recommendations included in every result
var baselineAdvice = []string{
	"When in doubt, contact the organization directly using verified contact information.",
	"Report suspicious messages to the appropriate authorities or platform.",
}

const blockSenderAdvice = "Consider blocking the sender and marking the message as spam/phishing."

// Recommend builds the ordered recommendation list for a set of flags and a level
func Recommend(flags []models.Flag, level models.RiskLevel) []string {
	triggered := make(map[models.Flag]bool, len(flags))
	for _, f := range flags {
		triggered[f] = true
	}

	recs := make([]string, 0, len(flagAdvice)+len(baselineAdvice)+1)
	for _, fa := range flagAdvice {
		if triggered[fa.flag] {
			recs = append(recs, fa.advice)
		}
	}
	recs = append(recs, baselineAdvice...)

	if level.IsSuspicious() {
		recs = append(recs, blockSenderAdvice)
	}
	return recs
}
