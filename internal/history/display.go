package history

import (
	"github.com/xaenox/wellbeing-bot/internal/models"
)

type CategoryShare struct {
	Category models.Category
	Count    int
	Percent  float64
}

// Breakdown returns each category's share of all assessments as a percent.
// Percent is 0 for every category when total is 0.
func Breakdown(stats *models.HistoryStats) []CategoryShare {
	shares := make([]CategoryShare, 0, len(models.Categories))
	for _, c := range models.Categories {
		share := CategoryShare{Category: c}
		if stats != nil {
			share.Count = stats.Count(c)
			if stats.TotalAssessments > 0 {
				share.Percent = float64(share.Count) / float64(stats.TotalAssessments) * 100
			}
		}
		shares = append(shares, share)
	}
	return shares
}

func TrendIcon(trend models.Trend) string {
	switch trend {
	case models.TrendImproving:
		return "📈"
	case models.TrendDeclining:
		return "📉"
	case models.TrendStable:
		return "➡️"
	case models.TrendInsufficientData:
		return "⏳"
	default:
		return "❓"
	}
}

func TrendLabel(trend models.Trend) string {
	switch trend {
	case models.TrendImproving:
		return "Improving"
	case models.TrendDeclining:
		return "Declining"
	case models.TrendStable:
		return "Stable"
	case models.TrendInsufficientData:
		return "Not enough data yet"
	default:
		return "Unknown"
	}
}

func CategoryIcon(c models.Category) string {
	switch c {
	case models.AtRisk:
		return "🔴"
	case models.Moderate:
		return "🟡"
	case models.Balanced:
		return "🟢"
	default:
		return "⚪"
	}
}

func CategoryColor(c models.Category) string {
	switch c {
	case models.AtRisk:
		return "#ef4444"
	case models.Moderate:
		return "#f59e0b"
	case models.Balanced:
		return "#22c55e"
	default:
		return "#9ca3af"
	}
}
