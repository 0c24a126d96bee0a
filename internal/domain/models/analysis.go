package models

// Flag identifies a heuristic category that matched at least once
type Flag string

const (
	FlagUrgency             Flag = "urgency"
	FlagFinancial           Flag = "financial"
	FlagAuthentication      Flag = "authentication"
	FlagActionRequest       Flag = "action_request"
	FlagScamIndicators      Flag = "scam_indicators"
	FlagThreats             Flag = "threats"
	FlagSuspiciousURLs      Flag = "suspicious_urls"
	FlagPoorGrammar         Flag = "poor_grammar"
	FlagPersonalInfoRequest Flag = "personal_info_request"
)

// AllFlags lists every flag in detector order
var AllFlags = []Flag{
	FlagUrgency,
	FlagFinancial,
	FlagAuthentication,
	FlagActionRequest,
	FlagScamIndicators,
	FlagThreats,
	FlagSuspiciousURLs,
	FlagPoorGrammar,
	FlagPersonalInfoRequest,
}

// IsValid reports whether f is a known flag
func (f Flag) IsValid() bool {
	for _, known := range AllFlags {
		if f == known {
			return true
		}
	}
	return false
}

// Severity is the tier of a single finding
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
)

// ParseSeverity maps free text to a severity, defaulting to warning
func ParseSeverity(s string) Severity {
	switch Severity(s) {
	case SeverityInfo, SeverityWarning, SeverityDanger:
		return Severity(s)
	default:
		return SeverityWarning
	}
}

// RiskLevel is the ordinal classification derived from a risk score
type RiskLevel string

const (
	RiskLevelSafe   RiskLevel = "safe"
	RiskLevelLow    RiskLevel = "low"
	RiskLevelMedium RiskLevel = "medium"
	RiskLevelHigh   RiskLevel = "high"
)

// Rank orders levels: safe < low < medium < high. Unknown levels rank -1.
func (l RiskLevel) Rank() int {
	switch l {
	case RiskLevelSafe:
		return 0
	case RiskLevelLow:
		return 1
	case RiskLevelMedium:
		return 2
	case RiskLevelHigh:
		return 3
	default:
		return -1
	}
}

// IsValid reports whether l is one of the four known levels
func (l RiskLevel) IsValid() bool {
	return l.Rank() >= 0
}

// IsSuspicious reports whether the level counts as a suspicious case (medium or high)
func (l RiskLevel) IsSuspicious() bool {
	return l == RiskLevelMedium || l == RiskLevelHigh
}

// Finding is one human-readable explanation of a triggered category
type Finding struct {
	Severity Severity `json:"severity"`
	Title    string   `json:"title"`
	Message  string   `json:"message"`
}

// AnalysisResult is the output of a single content analysis
type AnalysisResult struct {
	RiskScore       int       `json:"riskScore"`
	RiskLevel       RiskLevel `json:"riskLevel"`
	RiskMessage     string    `json:"riskMessage"`
	Flags           []Flag    `json:"flags"`
	Details         []Finding `json:"details"`
	Recommendations []string  `json:"recommendations"`
}

// HasFlag reports whether the result carries the given flag
func (r *AnalysisResult) HasFlag(f Flag) bool {
	for _, flag := range r.Flags {
		if flag == f {
			return true
		}
	}
	return false
}
