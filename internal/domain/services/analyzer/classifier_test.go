package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"safesphere/internal/domain/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		score int
		want  models.RiskLevel
	}{
		{-10, models.RiskLevelSafe},
		{0, models.RiskLevelSafe},
		{14, models.RiskLevelSafe},
		{15, models.RiskLevelLow},
		{39, models.RiskLevelLow},
		{40, models.RiskLevelMedium},
		{69, models.RiskLevelMedium},
		{70, models.RiskLevelHigh},
		{100, models.RiskLevelHigh},
		{250, models.RiskLevelHigh},
	}

	for _, tt := range tests {
		level, msg := Classify(tt.score)
		assert.Equal(t, tt.want, level, "score %d", tt.score)
		assert.Equal(t, RiskMessage(tt.want), msg)
		assert.NotEmpty(t, msg)
	}
}

func TestClassify_Monotonic(t *testing.T) {
	prev := -1
	for score := 0; score <= MaxScore; score++ {
		rank := LevelFor(score).Rank()
		assert.GreaterOrEqual(t, rank, prev, "score %d", score)
		prev = rank
	}
}

func TestClampScore(t *testing.T) {
	assert.Equal(t, 0, ClampScore(-5))
	assert.Equal(t, 42, ClampScore(42))
	assert.Equal(t, 100, ClampScore(106))
}

func TestRecommend(t *testing.T) {
	t.Run("baseline only", func(t *testing.T) {
		recs := Recommend(nil, models.RiskLevelSafe)
		assert.Equal(t, baselineAdvice, recs)
	})

	t.Run("precedence follows flag table, not input order", func(t *testing.T) {
		recs := Recommend([]models.Flag{
			models.FlagFinancial,
			models.FlagUrgency,
			models.FlagSuspiciousURLs,
		}, models.RiskLevelLow)

		assert.Equal(t, []string{
			"Do NOT click on any links. Verify URLs by contacting the organization directly.",
			"Take time to verify. Legitimate organizations won't pressure you with extreme urgency.",
			"Verify any financial requests through official channels before taking action.",
			baselineAdvice[0],
			baselineAdvice[1],
		}, recs)
	})

	t.Run("flags without advice add nothing", func(t *testing.T) {
		recs := Recommend([]models.Flag{models.FlagPoorGrammar, models.FlagScamIndicators}, models.RiskLevelSafe)
		assert.Len(t, recs, 2)
	})

	t.Run("block sender for medium and high", func(t *testing.T) {
		for _, level := range []models.RiskLevel{models.RiskLevelMedium, models.RiskLevelHigh} {
			recs := Recommend(nil, level)
			assert.Equal(t, blockSenderAdvice, recs[len(recs)-1])
		}
		assert.NotContains(t, Recommend(nil, models.RiskLevelLow), blockSenderAdvice)
	})
}

func TestGrammarIssues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
	}{
		{"clean", "Meeting moved to Thursday.", 0},
		{"repeated punctuation", "Really?!", 1},
		{"single exclamation", "Great news!", 0},
		{"shouting", "THIS IS VERY IMPORTANT NEWS", 1},
		{"short caps ignored", "OK GO NOW", 0},
		{"digits are not caps", "1234 5678 9012", 0},
		{"wide gap", "hello    there", 1},
		{"all three", "ACT FAST!!!   CLAIM YOUR PRIZE", 3},
		{"trailing space dilutes shouting", "HELLO a b ", 0},
		{"no trailing space", "HELLO a b", 1},
		{"leading space dilutes shouting", " HELLO a b", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, grammarIssues(tt.content))
		})
	}
}
