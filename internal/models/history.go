package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

type Trend string

const (
	TrendImproving        Trend = "improving"
	TrendDeclining        Trend = "declining"
	TrendStable           Trend = "stable"
	TrendInsufficientData Trend = "insufficient_data"
)

// HistoryRecord is one assessment persisted by the remote history store
type HistoryRecord struct {
	ID                     int64     `json:"id"`
	UserID                 string    `json:"user_id,omitempty"`
	Age                    int       `json:"age"`
	Gender                 Gender    `json:"gender"`
	DailyScreenTimeHrs     float64   `json:"daily_screen_time_hrs"`
	PrimaryPlatform        Platform  `json:"primary_platform"`
	SleepQuality           int       `json:"sleep_quality"`
	StressLevel            int       `json:"stress_level"`
	DaysWithoutSocialMedia int       `json:"days_without_social_media"`
	ExerciseFrequencyWeek  int       `json:"exercise_frequency_week"`
	Prediction             Category  `json:"prediction"`
	ConfidenceAtRisk       float64   `json:"confidence_at_risk"`
	ConfidenceModerate     float64   `json:"confidence_moderate"`
	ConfidenceBalanced     float64   `json:"confidence_balanced"`
	CreatedAt              Timestamp `json:"created_at"`
}

func (r *HistoryRecord) Validate() error {
	if r.Prediction == "" {
		return fmt.Errorf("record %d has no prediction", r.ID)
	}
	if r.CreatedAt.IsZero() {
		return fmt.Errorf("record %d has no created_at", r.ID)
	}
	return nil
}

// HistoryStats is computed by the server on every fetch
type HistoryStats struct {
	TotalAssessments int       `json:"total_assessments"`
	AtRiskCount      int       `json:"at_risk_count"`
	ModerateCount    int       `json:"moderate_count"`
	BalancedCount    int       `json:"balanced_count"`
	Trend            Trend     `json:"trend"`
	LatestPrediction Category  `json:"latest_prediction"`
	FirstAssessment  Timestamp `json:"first_assessment"`
	LatestAssessment Timestamp `json:"latest_assessment"`
}

func (s *HistoryStats) Validate() error {
	if s.TotalAssessments < 0 || s.AtRiskCount < 0 || s.ModerateCount < 0 || s.BalancedCount < 0 {
		return fmt.Errorf("negative assessment count")
	}
	if s.AtRiskCount+s.ModerateCount+s.BalancedCount > s.TotalAssessments {
		return fmt.Errorf("category counts exceed total %d", s.TotalAssessments)
	}
	return nil
}

// Count returns the number of assessments in the given category.
func (s *HistoryStats) Count(c Category) int {
	switch c {
	case AtRisk:
		return s.AtRiskCount
	case Moderate:
		return s.ModerateCount
	case Balanced:
		return s.BalancedCount
	}
	return 0
}

type HistoryResponse struct {
	Status      string          `json:"status"`
	Count       int             `json:"count"`
	Assessments []HistoryRecord `json:"assessments"`
}

func (r *HistoryResponse) Validate() error {
	for i := range r.Assessments {
		if err := r.Assessments[i].Validate(); err != nil {
			return fmt.Errorf("assessments[%d]: %w", i, err)
		}
	}
	return nil
}

type StatsResponse struct {
	Status string        `json:"status"`
	Stats  *HistoryStats `json:"stats"`
}

func (r *StatsResponse) Validate() error {
	if r.Stats == nil {
		return nil
	}
	return r.Stats.Validate()
}

type SaveAck struct {
	Status       string `json:"status"`
	Message      string `json:"message"`
	AssessmentID int64  `json:"assessment_id"`
}

type DeleteAck struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Timestamp accepts RFC 3339 and the offset-less ISO 8601 form produced by
// the history service. Offset-less values are read as UTC.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if raw == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("timestamp: unrecognised format %q", raw)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}
