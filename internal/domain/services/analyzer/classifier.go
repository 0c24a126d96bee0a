package analyzer

import "safesphere/internal/domain/models"

// Risk band lower bounds
const (
	HighThreshold   = 70
	MediumThreshold = 40
	LowThreshold    = 15
	MaxScore        = 100
)

var riskMessages = map[models.RiskLevel]string{
	models.RiskLevelHigh:   "HIGH RISK - This content shows multiple red flags commonly found in scams. Do not respond, click links, or provide any information.",
	models.RiskLevelMedium: "MEDIUM RISK - This content contains several suspicious elements. Exercise extreme caution and verify through official channels.",
	models.RiskLevelLow:    "LOW RISK - Some minor concerns detected. Stay vigilant and verify sender identity if unsure.",
	models.RiskLevelSafe:   "SAFE - No significant red flags detected. However, always remain cautious with unsolicited messages.",
}

// ClampScore bounds a raw score to [0, MaxScore]
func ClampScore(score int) int {
	return max(0, min(score, MaxScore))
}

// LevelFor maps a score to its risk band. The score is clamped first.
func LevelFor(score int) models.RiskLevel {
	switch score = ClampScore(score); {
	case score >= HighThreshold:
		return models.RiskLevelHigh
	case score >= MediumThreshold:
		return models.RiskLevelMedium
	case score >= LowThreshold:
		return models.RiskLevelLow
	default:
		return models.RiskLevelSafe
	}
}

// RiskMessage returns the fixed summary for a level, empty for unknown levels
func RiskMessage(level models.RiskLevel) string {
	return riskMessages[level]
}

// Classify returns the risk level and summary message for a score
func Classify(score int) (models.RiskLevel, string) {
	level := LevelFor(score)
	return level, riskMessages[level]
}
