package models

import "time"

// ScanRecord is the anonymized history entry kept for one analysis
type ScanRecord struct {
	ID             string    `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	ContentPreview string    `json:"contentPreview"`
	RiskLevel      RiskLevel `json:"riskLevel"`
	RiskScore      int       `json:"riskScore"`
	Flags          []Flag    `json:"flags"`
	FlagCount      int       `json:"flagCount"`
}

// ScanStats holds the running scan counters
type ScanStats struct {
	TotalScans      int64     `json:"totalScans"`
	SuspiciousCases int64     `json:"suspiciousCases"`
	SafeScans       int64     `json:"safeScans"`
	LastUpdated     time.Time `json:"lastUpdated"`
}

// ScanExport is a full snapshot of the history store
type ScanExport struct {
	Scans      []ScanRecord `json:"scans"`
	Stats      ScanStats    `json:"stats"`
	ExportedAt time.Time    `json:"exportedAt"`
}

// ScanPeriod filters history for dashboard views
type ScanPeriod string

const (
	ScanPeriodToday ScanPeriod = "today"
	ScanPeriod7Days ScanPeriod = "7d"
	ScanPeriodAll   ScanPeriod = "all"
)

// ParseScanPeriod maps a query value to a period, defaulting to all
func ParseScanPeriod(s string) ScanPeriod {
	switch ScanPeriod(s) {
	case ScanPeriodToday, ScanPeriod7Days:
		return ScanPeriod(s)
	default:
		return ScanPeriodAll
	}
}

// FlagCount is a flag with the number of scans that raised it
type FlagCount struct {
	Flag  Flag `json:"flag"`
	Count int  `json:"count"`
}

// ScoreBucket counts scans whose score falls in [Min, Max]
type ScoreBucket struct {
	Label string `json:"label"`
	Min   int    `json:"min"`
	Max   int    `json:"max"`
	Count int    `json:"count"`
}

// ScamTypeCount groups scans into the coarse categories shown on the admin view
type ScamTypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// Dashboard is the aggregated admin view over the retained history
type Dashboard struct {
	Period           ScanPeriod        `json:"period"`
	Stats            ScanStats         `json:"stats"`
	DetectionRate    int               `json:"detectionRate"` // percent, rounded
	RiskDistribution map[RiskLevel]int `json:"riskDistribution"`
	ScoreBuckets     []ScoreBucket     `json:"scoreBuckets"`
	TopFlags         []FlagCount       `json:"topFlags"`
	ScamTypes        []ScamTypeCount   `json:"scamTypes"`
	RecentActivity   []ScanRecord      `json:"recentActivity"`
	ScoreTrend       []int             `json:"scoreTrend"` // oldest first
	GeneratedAt      time.Time         `json:"generatedAt"`
}
