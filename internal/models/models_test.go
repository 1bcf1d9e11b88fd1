package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() AssessmentInput {
	return AssessmentInput{
		Age:                    25,
		Gender:                 Female,
		DailyScreenTimeHrs:     5.5,
		PrimaryPlatform:        Instagram,
		SleepQuality:           7,
		StressLevel:            5,
		DaysWithoutSocialMedia: 2,
		ExerciseFrequencyWeek:  3,
	}
}

func TestRankedConfidenceOrdersByScore(t *testing.T) {
	r := PredictionResult{
		Prediction: Balanced,
		Confidence: map[Category]float64{AtRisk: 10, Moderate: 25, Balanced: 65},
	}

	ranked := r.RankedConfidence()
	require.Len(t, ranked, 3)
	assert.Equal(t, []Category{Balanced, Moderate, AtRisk},
		[]Category{ranked[0].Category, ranked[1].Category, ranked[2].Category})
	assert.Equal(t, 65.0, ranked[0].Score)
}

func TestRankedConfidenceTiesKeepCategoryOrder(t *testing.T) {
	r := PredictionResult{Confidence: map[Category]float64{Balanced: 50, AtRisk: 50, Moderate: 0}}

	ranked := r.RankedConfidence()
	assert.Equal(t, AtRisk, ranked[0].Category)
	assert.Equal(t, Balanced, ranked[1].Category)
	assert.Equal(t, Moderate, ranked[2].Category)
}

func TestAssessmentInputValidate(t *testing.T) {
	require.NoError(t, validInput().Validate())

	cases := map[string]func(*AssessmentInput){
		"age too low":       func(in *AssessmentInput) { in.Age = 9 },
		"age too high":      func(in *AssessmentInput) { in.Age = 101 },
		"gender":            func(in *AssessmentInput) { in.Gender = "Unknown" },
		"screen time range": func(in *AssessmentInput) { in.DailyScreenTimeHrs = 24.5 },
		"screen time step":  func(in *AssessmentInput) { in.DailyScreenTimeHrs = 3.3 },
		"platform":          func(in *AssessmentInput) { in.PrimaryPlatform = "MySpace" },
		"sleep":             func(in *AssessmentInput) { in.SleepQuality = 0 },
		"stress":            func(in *AssessmentInput) { in.StressLevel = 11 },
		"days":              func(in *AssessmentInput) { in.DaysWithoutSocialMedia = 31 },
		"exercise":          func(in *AssessmentInput) { in.ExerciseFrequencyWeek = 15 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := validInput()
			mutate(&in)
			assert.Error(t, in.Validate())
		})
	}
}

func TestPredictionResultValidate(t *testing.T) {
	ok := PredictionResult{
		Prediction: Moderate,
		Confidence: map[Category]float64{AtRisk: 0.2, Moderate: 0.6, Balanced: 0.2},
	}
	require.NoError(t, ok.Validate())

	unknown := ok.Clone()
	unknown.Prediction = "Fine"
	assert.Error(t, unknown.Validate())

	missing := ok.Clone()
	delete(missing.Confidence, Balanced)
	assert.Error(t, missing.Validate())
}

func TestCloneIsDeep(t *testing.T) {
	orig := Assessment{
		Input: validInput(),
		Result: PredictionResult{
			Prediction:      AtRisk,
			Confidence:      map[Category]float64{AtRisk: 1},
			Recommendations: []string{"sleep more"},
			FeatureImpact:   map[string]float64{"stress_level": 0.4},
		},
	}
	cp := orig.Clone()
	cp.Result.Confidence[AtRisk] = 0
	cp.Result.Recommendations[0] = "changed"
	cp.Result.FeatureImpact["stress_level"] = 0

	assert.Equal(t, 1.0, orig.Result.Confidence[AtRisk])
	assert.Equal(t, "sleep more", orig.Result.Recommendations[0])
	assert.Equal(t, 0.4, orig.Result.FeatureImpact["stress_level"])
}

func TestTimestampParsesServiceFormats(t *testing.T) {
	var rec struct {
		A Timestamp `json:"a"`
		B Timestamp `json:"b"`
		C Timestamp `json:"c"`
		D Timestamp `json:"d"`
	}
	body := `{"a":"2024-03-01T10:20:30.123456","b":"2024-03-01T10:20:30","c":"2024-03-01T12:20:30+02:00","d":null}`
	require.NoError(t, json.Unmarshal([]byte(body), &rec))

	want := time.Date(2024, 3, 1, 10, 20, 30, 0, time.UTC)
	assert.True(t, rec.A.Truncate(time.Second).Equal(want))
	assert.True(t, rec.B.Equal(want))
	assert.True(t, rec.C.Equal(want))
	assert.True(t, rec.D.IsZero())

	var bad Timestamp
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &bad))
}

func TestHistoryStatsValidate(t *testing.T) {
	s := HistoryStats{TotalAssessments: 10, AtRiskCount: 2, ModerateCount: 3, BalancedCount: 5}
	require.NoError(t, s.Validate())
	assert.Equal(t, 3, s.Count(Moderate))

	s.BalancedCount = 6
	assert.Error(t, s.Validate())
}
