package bot

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/xaenox/wellbeing-bot/internal/history"
	"github.com/xaenox/wellbeing-bot/internal/models"
	"github.com/xaenox/wellbeing-bot/internal/session"
)

const (
	noAssessmentReply = "No assessment yet. Start one with /assess."
	resultFailedReply = "⚠️ Sorry, I couldn't load your result."
)

const barWidth = 10

// escapeMarkdown escapes the MarkdownV2 reserved characters
func escapeMarkdown(text string) string {
	specialChars := []string{"\\", "_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "-", "=", "|", "{", "}", ".", "!"}
	escaped := text
	for _, char := range specialChars {
		escaped = strings.ReplaceAll(escaped, char, "\\"+char)
	}
	return escaped
}

func bar(percent float64) string {
	filled := int(math.Round(percent / 100 * barWidth))
	if filled < 0 {
		filled = 0
	}
	if filled > barWidth {
		filled = barWidth
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}

func categoryDescription(c models.Category) string {
	switch c {
	case models.Balanced:
		return "Great job! You have a healthy relationship with social media."
	case models.Moderate:
		return "You're doing okay, but there's room for improvement."
	case models.AtRisk:
		return "Your digital habits may be affecting your well-being."
	}
	return ""
}

// ResultReply picks the reply for /result. A missing session sends the
// user back to /assess instead of rendering empty fields.
func ResultReply(in models.AssessmentInput, res models.PredictionResult, err error) (text string, markdown bool) {
	switch {
	case errors.Is(err, session.ErrMissingSession):
		return noAssessmentReply, false
	case err != nil:
		return resultFailedReply, false
	}
	return FormatResult(in, res), true
}

// FormatResult renders an assessment result as MarkdownV2.
func FormatResult(in models.AssessmentInput, res models.PredictionResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s *%s*\n", history.CategoryIcon(res.Prediction), escapeMarkdown(string(res.Prediction)))
	if desc := categoryDescription(res.Prediction); desc != "" {
		fmt.Fprintf(&b, "_%s_\n", escapeMarkdown(desc))
	}

	b.WriteString("\n*Confidence levels:*\n")
	for _, e := range res.RankedConfidence() {
		pct := math.Round(e.Score)
		b.WriteString(escapeMarkdown(fmt.Sprintf("%s %s %s %.0f%%", history.CategoryIcon(e.Category), bar(pct), e.Category, pct)))
		b.WriteString("\n")
	}

	if len(res.Recommendations) > 0 {
		b.WriteString("\n*Recommendations:*\n")
		for i, r := range res.Recommendations {
			b.WriteString(escapeMarkdown(fmt.Sprintf("%d. %s", i+1, r)))
			b.WriteString("\n")
		}
	}

	if len(res.FeatureImpact) > 0 {
		b.WriteString("\n*Key factors:*\n")
		for _, f := range rankedImpact(res.FeatureImpact) {
			b.WriteString(escapeMarkdown(fmt.Sprintf("%s %s: %+.2f", impactArrow(f.value), featureLabel(f.name), f.value)))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n*Your answers:*\n")
	b.WriteString(escapeMarkdown(fmt.Sprintf(
		"Age %d, %s, %.1fh/day on %s, sleep %d/10, stress %d/10, %d offline days/month, exercise %d/week",
		in.Age, in.Gender, in.DailyScreenTimeHrs, in.PrimaryPlatform,
		in.SleepQuality, in.StressLevel, in.DaysWithoutSocialMedia, in.ExerciseFrequencyWeek)))
	b.WriteString("\n")

	return b.String()
}

type impact struct {
	name  string
	value float64
}

func rankedImpact(m map[string]float64) []impact {
	out := make([]impact, 0, len(m))
	for name, v := range m {
		out = append(out, impact{name: name, value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if math.Abs(out[i].value) != math.Abs(out[j].value) {
			return math.Abs(out[i].value) > math.Abs(out[j].value)
		}
		return out[i].name < out[j].name
	})
	return out
}

func impactArrow(v float64) string {
	switch {
	case v > 0:
		return "⬆️"
	case v < 0:
		return "⬇️"
	}
	return "➖"
}

func featureLabel(name string) string {
	words := strings.Fields(strings.ReplaceAll(name, "_", " "))
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

// FormatHistory renders the loaded history page as MarkdownV2.
func FormatHistory(records []models.HistoryRecord, stats *models.HistoryStats) string {
	var b strings.Builder
	b.WriteString("*📊 Assessment History*\n")

	if stats != nil {
		b.WriteString(escapeMarkdown(fmt.Sprintf("\nTotal assessments: %d\n", stats.TotalAssessments)))
		b.WriteString(escapeMarkdown(fmt.Sprintf("Trend: %s %s\n", history.TrendIcon(stats.Trend), history.TrendLabel(stats.Trend))))
		if stats.LatestPrediction != "" {
			b.WriteString(escapeMarkdown(fmt.Sprintf("Latest: %s %s\n", history.CategoryIcon(stats.LatestPrediction), stats.LatestPrediction)))
		}
		if !stats.FirstAssessment.IsZero() {
			b.WriteString(escapeMarkdown(fmt.Sprintf("Tracking since: %s\n", formatDate(stats.FirstAssessment))))
		}

		b.WriteString("\n*Breakdown:*\n")
		for _, s := range history.Breakdown(stats) {
			b.WriteString(escapeMarkdown(fmt.Sprintf("%s %s %s %d (%.0f%%)", history.CategoryIcon(s.Category), bar(s.Percent), s.Category, s.Count, s.Percent)))
			b.WriteString("\n")
		}
	}

	if len(records) > 0 {
		b.WriteString("\n*Assessments:*\n")
		for _, r := range records {
			b.WriteString(escapeMarkdown(fmt.Sprintf("%s %s · %s · screen %.1fh, sleep %d, stress %d",
				history.CategoryIcon(r.Prediction), formatDate(r.CreatedAt), r.Prediction,
				r.DailyScreenTimeHrs, r.SleepQuality, r.StressLevel)))
			b.WriteString("\n")
		}
	}

	return b.String()
}

func FormatModelInfo(info *models.ModelInfo) string {
	classes := make([]string, len(info.Classes))
	for i, c := range info.Classes {
		classes[i] = string(c)
	}
	smote := "no"
	if info.BalancedWithSMOTE {
		smote = "yes (SMOTE)"
	}
	text := fmt.Sprintf("Algorithm: %s\nNeighbors: %d\nFeatures: %d\nClasses: %s\nBalanced: %s\nAccuracy: %.1f%%\nTraining samples: %d",
		info.Algorithm, info.NNeighbors, info.Features, strings.Join(classes, ", "),
		smote, info.Accuracy*100, info.TrainingSamples)
	return "*Model*\n" + escapeMarkdown(text)
}

func FormatFeatures(info *models.FeaturesInfo) string {
	var b strings.Builder
	b.WriteString("*Numeric features:*\n")
	for _, f := range info.NumericFeatures {
		b.WriteString(escapeMarkdown("• "+f) + "\n")
	}

	names := make([]string, 0, len(info.CategoricalFeatures))
	for name := range info.CategoricalFeatures {
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) > 0 {
		b.WriteString("\n*Categorical features:*\n")
		for _, name := range names {
			b.WriteString(escapeMarkdown(fmt.Sprintf("• %s: %s", name, strings.Join(info.CategoricalFeatures[name], ", "))) + "\n")
		}
	}
	return b.String()
}

func FormatHealth(h *models.HealthStatus) string {
	loaded := "not loaded"
	if h.ModelLoaded {
		loaded = "loaded"
	}
	return escapeMarkdown(fmt.Sprintf("Service %s, model %s, version %s", h.Status, loaded, h.Version))
}

func formatDate(ts models.Timestamp) string {
	return ts.Format("Jan 2, 2006 15:04")
}
