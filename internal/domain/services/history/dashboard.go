package history

import (
	"math"
	"sort"
	"time"

	"safesphere/internal/domain/models"
)

const (
	maxTopFlags       = 10
	maxRecentActivity = 5
	maxTrendPoints    = 20
)

// Scam type labels
const (
	ScamTypePhishing      = "Phishing"
	ScamTypeFinancial     = "Financial Scam"
	ScamTypeIdentityTheft = "Identity Theft"
	ScamTypeUrgency       = "Urgency Tactics"
	ScamTypeOther         = "Other"
)

var scoreBuckets = []models.ScoreBucket{
	{Label: "0-20", Min: 0, Max: 20},
	{Label: "21-40", Min: 21, Max: 40},
	{Label: "41-60", Min: 41, Max: 60},
	{Label: "61-80", Min: 61, Max: 80},
	{Label: "81-100", Min: 81, Max: 100},
}

// FilterByPeriod keeps records at or after the period's start.
// Period boundaries are local midnight in now's location.
func FilterByPeriod(records []models.ScanRecord, period models.ScanPeriod, now time.Time) []models.ScanRecord {
	var since time.Time
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch period {
	case models.ScanPeriodToday:
		since = midnight
	case models.ScanPeriod7Days:
		since = midnight.AddDate(0, 0, -7)
	default:
		return records
	}

	out := make([]models.ScanRecord, 0, len(records))
	for _, r := range records {
		if !r.Timestamp.Before(since) {
			out = append(out, r)
		}
	}
	return out
}

// BuildDashboard aggregates retained records (newest first) into the admin view.
// Counters and detection rate are all-time; the rest follows the period filter.
func BuildDashboard(records []models.ScanRecord, stats models.ScanStats, period models.ScanPeriod, now time.Time) *models.Dashboard {
	scans := FilterByPeriod(records, period, now)

	d := &models.Dashboard{
		Period:        period,
		Stats:         stats,
		DetectionRate: DetectionRate(stats),
		RiskDistribution: map[models.RiskLevel]int{
			models.RiskLevelSafe:   0,
			models.RiskLevelLow:    0,
			models.RiskLevelMedium: 0,
			models.RiskLevelHigh:   0,
		},
		ScoreBuckets:   append([]models.ScoreBucket(nil), scoreBuckets...),
		TopFlags:       topFlags(scans),
		ScamTypes:      scamTypes(scans),
		RecentActivity: append([]models.ScanRecord{}, records[:min(len(records), maxRecentActivity)]...),
		ScoreTrend:     scoreTrend(scans),
		GeneratedAt:    now.UTC(),
	}

	for _, s := range scans {
		if s.RiskLevel.IsValid() {
			d.RiskDistribution[s.RiskLevel]++
		}
		for i := range d.ScoreBuckets {
			if s.RiskScore <= d.ScoreBuckets[i].Max || i == len(d.ScoreBuckets)-1 {
				d.ScoreBuckets[i].Count++
				break
			}
		}
	}

	return d
}

// DetectionRate is the rounded percentage of suspicious scans
func DetectionRate(stats models.ScanStats) int {
	if stats.TotalScans == 0 {
		return 0
	}
	return int(math.Round(float64(stats.SuspiciousCases) / float64(stats.TotalScans) * 100))
}

// topFlags counts flags across scans, most frequent first; ties keep first-seen order
func topFlags(scans []models.ScanRecord) []models.FlagCount {
	index := make(map[models.Flag]int)
	counts := []models.FlagCount{}
	for _, s := range scans {
		for _, f := range s.Flags {
			i, ok := index[f]
			if !ok {
				i = len(counts)
				index[f] = i
				counts = append(counts, models.FlagCount{Flag: f})
			}
			counts[i].Count++
		}
	}

	sort.SliceStable(counts, func(i, j int) bool { return counts[i].Count > counts[j].Count })
	if len(counts) > maxTopFlags {
		counts = counts[:maxTopFlags]
	}
	return counts
}

// scamTypes groups scans by coarse category. A scan can count toward several types.
func scamTypes(scans []models.ScanRecord) []models.ScamTypeCount {
	var phishing, financial, identity, urgency, other int
	for _, s := range scans {
		has := make(map[models.Flag]bool, len(s.Flags))
		for _, f := range s.Flags {
			has[f] = true
		}

		known := false
		if has[models.FlagSuspiciousURLs] {
			phishing++
			known = true
		}
		if has[models.FlagFinancial] {
			financial++
			known = true
		}
		if has[models.FlagPersonalInfoRequest] || has[models.FlagAuthentication] {
			identity++
			known = true
		}
		if has[models.FlagUrgency] {
			urgency++
			known = true
		}
		if len(s.Flags) > 0 && !known {
			other++
		}
	}

	return []models.ScamTypeCount{
		{Type: ScamTypePhishing, Count: phishing},
		{Type: ScamTypeFinancial, Count: financial},
		{Type: ScamTypeIdentityTheft, Count: identity},
		{Type: ScamTypeUrgency, Count: urgency},
		{Type: ScamTypeOther, Count: other},
	}
}

// scoreTrend returns the scores of the latest scans, oldest first
func scoreTrend(scans []models.ScanRecord) []int {
	n := min(len(scans), maxTrendPoints)
	trend := make([]int, n)
	for i := 0; i < n; i++ {
		trend[n-1-i] = scans[i].RiskScore
	}
	return trend
}
