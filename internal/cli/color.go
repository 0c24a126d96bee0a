package cli

import (
	"io"
	"os"
	"strings"

	"safesphere/internal/domain/models"
)

const (
	resetCode  = "\033[0m"
	greenCode  = "\033[32m"
	yellowCode = "\033[33m"
	redCode    = "\033[31m"
	boldRed    = "\033[1;31m"
)

var levelColors = map[models.RiskLevel]string{
	models.RiskLevelSafe:   greenCode,
	models.RiskLevelLow:    yellowCode,
	models.RiskLevelMedium: redCode,
	models.RiskLevelHigh:   boldRed,
}

// useColor is true for terminals unless NO_COLOR is set (any value) or --no-color was given
func useColor(w io.Writer, disabled bool) bool {
	if disabled {
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return isTerminal(w)
}

func levelLabel(level models.RiskLevel, color bool) string {
	label := strings.ToUpper(string(level))
	if code, ok := levelColors[level]; ok && color {
		return code + label + resetCode
	}
	return label
}
