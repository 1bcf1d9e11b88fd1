package bot

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/xaenox/wellbeing-bot/internal/models"
	"github.com/xaenox/wellbeing-bot/internal/session"
)

func TestEscapeMarkdown(t *testing.T) {
	assert.Equal(t, `At Risk \(65\.5%\)\!`, escapeMarkdown("At Risk (65.5%)!"))
	assert.Equal(t, `a\\b`, escapeMarkdown(`a\b`))
}

func TestBar(t *testing.T) {
	assert.Equal(t, "██░░░░░░░░", bar(20))
	assert.Equal(t, "██████████", bar(100))
	assert.Equal(t, "░░░░░░░░░░", bar(-5))
}

func TestFormatResultOrdersConfidence(t *testing.T) {
	res := models.PredictionResult{
		Prediction:      models.Balanced,
		Confidence:      map[models.Category]float64{models.AtRisk: 10, models.Moderate: 25, models.Balanced: 65},
		Recommendations: []string{"Keep a regular sleep schedule."},
		FeatureImpact:   map[string]float64{"sleep_quality": -0.5, "stress_level": 0.2},
	}

	text := FormatResult(DefaultInput(), res)

	balanced := strings.Index(text, "Balanced 65%")
	moderate := strings.Index(text, "Moderate 25%")
	atRisk := strings.Index(text, "At Risk 10%")
	assert.True(t, balanced >= 0 && moderate > balanced && atRisk > moderate, text)

	assert.Contains(t, text, `1\. Keep a regular sleep schedule\.`)
	assert.Less(t, strings.Index(text, "Sleep Quality"), strings.Index(text, "Stress Level"))
	assert.Contains(t, text, "Great job")
}

func TestFormatHistory(t *testing.T) {
	created := models.Timestamp{Time: time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)}
	stats := &models.HistoryStats{
		TotalAssessments: 10, AtRiskCount: 2, ModerateCount: 3, BalancedCount: 5,
		Trend: models.TrendImproving, LatestPrediction: models.Balanced,
		FirstAssessment: created, LatestAssessment: created,
	}
	records := []models.HistoryRecord{{ID: 1, Prediction: models.Balanced, CreatedAt: created, SleepQuality: 8}}

	text := FormatHistory(records, stats)
	assert.Contains(t, text, "Total assessments: 10")
	assert.Contains(t, text, "📈 Improving")
	assert.Contains(t, text, "At Risk 2 \\(20%\\)")
	assert.Contains(t, text, "Moderate 3 \\(30%\\)")
	assert.Contains(t, text, "Balanced 5 \\(50%\\)")
	assert.Contains(t, text, "May 1, 2024 09:30")
}

func TestFeatureLabel(t *testing.T) {
	assert.Equal(t, "Days Without Social Media", featureLabel("days_without_social_media"))
}

func TestResultReplyWithoutSessionRedirects(t *testing.T) {
	text, markdown := ResultReply(models.AssessmentInput{}, models.PredictionResult{}, session.ErrMissingSession)
	assert.False(t, markdown)
	assert.Contains(t, text, "/assess")
	assert.NotContains(t, text, "Confidence")
}

func TestResultReplyRendersSession(t *testing.T) {
	res := models.PredictionResult{
		Prediction: models.Moderate,
		Confidence: map[models.Category]float64{models.AtRisk: 20, models.Moderate: 60, models.Balanced: 20},
	}
	text, markdown := ResultReply(DefaultInput(), res, nil)
	assert.True(t, markdown)
	assert.Contains(t, text, "Moderate 60%")
}

func TestResultReplyOtherError(t *testing.T) {
	text, markdown := ResultReply(models.AssessmentInput{}, models.PredictionResult{}, errors.New("boom"))
	assert.False(t, markdown)
	assert.NotContains(t, text, "boom")
}

func TestFeatureLabelMultiByte(t *testing.T) {
	assert.Equal(t, "Évasion Time", featureLabel("évasion_time"))
	assert.Equal(t, "Ünlü", featureLabel("ünlü"))
}

func TestResultReplyAfterEndedSession(t *testing.T) {
	s := session.New(nil, nil, zap.NewNop(), session.Options{})
	s.End()

	in, res, err := s.ReadCurrent()
	text, markdown := ResultReply(in, res, err)
	assert.False(t, markdown)
	assert.Equal(t, noAssessmentReply, text)
}
