package remote

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"safesphere/internal/domain/models"
	"safesphere/internal/domain/services/analyzer"
)

// OutcomeKind tells a parsed reply apart from a substituted fallback
type OutcomeKind string

const (
	OutcomeParsed   OutcomeKind = "parsed"
	OutcomeFallback OutcomeKind = "fallback"
)

// FallbackReason says why a reply could not be used
type FallbackReason string

const (
	ReasonNoJSON    FallbackReason = "no_json"
	ReasonMalformed FallbackReason = "malformed"
)

// FallbackScore is the neutral score reported when a reply is unusable
const FallbackScore = 50

// Outcome is a completed remote classification, confident or not
type Outcome struct {
	Kind     OutcomeKind            `json:"outcome"`
	Reason   FallbackReason         `json:"reason,omitempty"`
	Result   *models.AnalysisResult `json:"result"`
	Provider string                 `json:"provider,omitempty"`
	Model    string                 `json:"model,omitempty"`
}

// IsFallback reports whether the result is the neutral substitute
func (o *Outcome) IsFallback() bool {
	return o.Kind == OutcomeFallback
}

// jsonSpan finds a ```json fenced block or, failing that, the widest {...} span
var jsonSpan = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```|(\\{.*\\})")

// ExtractJSON locates the JSON object inside a free-text model reply
func ExtractJSON(text string) (string, bool) {
	m := jsonSpan.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	if m[1] != "" {
		return m[1], true
	}
	if m[2] != "" {
		return m[2], true
	}
	return "", false
}

// replyPayload is the shape the model is asked to produce
type replyPayload struct {
	RiskScore       json.RawMessage `json:"riskScore"`
	RiskLevel       string          `json:"riskLevel"`
	RiskMessage     string          `json:"riskMessage"`
	Details         []replyFinding  `json:"details"`
	Recommendations []string        `json:"recommendations"`
}

type replyFinding struct {
	Type     string `json:"type"`
	Severity string `json:"severity"`
	Title    string `json:"title"`
	Message  string `json:"message"`
}

// ParseReply turns a raw model reply into an Outcome. It never fails:
// unusable replies produce a fallback outcome.
func ParseReply(text string) *Outcome {
	raw, ok := ExtractJSON(text)
	if !ok {
		return fallback(ReasonNoJSON)
	}

	var payload replyPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return fallback(ReasonMalformed)
	}

	score, err := parseScore(payload.RiskScore)
	if err != nil {
		return fallback(ReasonMalformed)
	}
	score = analyzer.ClampScore(score)

	level := models.RiskLevel(strings.ToLower(strings.TrimSpace(payload.RiskLevel)))
	if !level.IsValid() {
		level = analyzer.LevelFor(score)
	}

	message := strings.TrimSpace(payload.RiskMessage)
	if message == "" {
		message = analyzer.RiskMessage(level)
	}

	details := make([]models.Finding, 0, len(payload.Details))
	for _, d := range payload.Details {
		sev := d.Type
		if sev == "" {
			sev = d.Severity
		}
		details = append(details, models.Finding{
			Severity: models.ParseSeverity(strings.ToLower(sev)),
			Title:    d.Title,
			Message:  d.Message,
		})
	}

	recs := payload.Recommendations
	if recs == nil {
		recs = []string{}
	}

	return &Outcome{
		Kind: OutcomeParsed,
		Result: &models.AnalysisResult{
			RiskScore:       score,
			RiskLevel:       level,
			RiskMessage:     message,
			Flags:           []models.Flag{},
			Details:         details,
			Recommendations: recs,
		},
	}
}

// parseScore accepts a JSON number or a numeric string, rounded to an int
func parseScore(raw json.RawMessage) (int, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, fmt.Errorf("riskScore is missing")
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, fmt.Errorf("riskScore is not a number: %w", err)
		}
		f, err = strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, fmt.Errorf("riskScore is not a number: %w", err)
		}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("riskScore is not finite")
	}
	f = math.Max(0, math.Min(f, analyzer.MaxScore))
	return int(math.Round(f)), nil
}

// fallback builds the fixed neutral result for an unusable reply
func fallback(reason FallbackReason) *Outcome {
	res := &models.AnalysisResult{
		RiskScore: FallbackScore,
		RiskLevel: models.RiskLevelMedium,
		Flags:     []models.Flag{},
	}

	switch reason {
	case ReasonNoJSON:
		res.RiskMessage = "AI analysis failed: no valid JSON found in response."
		res.Details = []models.Finding{{
			Severity: models.SeverityDanger,
			Title:    "Invalid AI Response",
			Message:  "The AI model returned a response that did not contain a valid JSON object. This might be a temporary issue.",
		}}
		res.Recommendations = []string{
			"Please try analyzing the content again.",
			"If the problem continues, consider simplifying the content or checking the system status.",
		}
	default:
		res.RiskMessage = "Could not fully analyze the content due to a formatting issue. Please review carefully."
		res.Details = []models.Finding{{
			Severity: models.SeverityWarning,
			Title:    "Analysis Incomplete",
			Message:  "The AI response was not in the expected format. This is a system issue, but you should still treat the original content with caution.",
		}}
		res.Recommendations = []string{
			"Manually review the content for any red flags.",
			"When in doubt, do not click links or provide personal information.",
		}
	}

	return &Outcome{Kind: OutcomeFallback, Reason: reason, Result: res}
}
