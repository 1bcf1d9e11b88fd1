package models

import (
	"fmt"
	"math"
	"sort"
)

// Category is the well-being class returned by the prediction service
type Category string

const (
	AtRisk   Category = "At Risk"
	Moderate Category = "Moderate"
	Balanced Category = "Balanced"
)

// Categories lists every class in the order the service reports them.
var Categories = []Category{AtRisk, Moderate, Balanced}

func (c Category) Valid() bool {
	switch c {
	case AtRisk, Moderate, Balanced:
		return true
	}
	return false
}

type Gender string

const (
	Female Gender = "Female"
	Male   Gender = "Male"
	Other  Gender = "Other"
)

var Genders = []Gender{Female, Male, Other}

type Platform string

const (
	Facebook  Platform = "Facebook"
	Instagram Platform = "Instagram"
	LinkedIn  Platform = "LinkedIn"
	TikTok    Platform = "TikTok"
	X         Platform = "X"
	YouTube   Platform = "YouTube"
)

var Platforms = []Platform{Facebook, Instagram, LinkedIn, TikTok, X, YouTube}

// AssessmentInput holds the eight survey answers sent to /predict
type AssessmentInput struct {
	Age                    int      `json:"age"`
	Gender                 Gender   `json:"gender"`
	DailyScreenTimeHrs     float64  `json:"daily_screen_time_hrs"`
	PrimaryPlatform        Platform `json:"primary_platform"`
	SleepQuality           int      `json:"sleep_quality"`
	StressLevel            int      `json:"stress_level"`
	DaysWithoutSocialMedia int      `json:"days_without_social_media"`
	ExerciseFrequencyWeek  int      `json:"exercise_frequency_week"`
}

// Validate checks ranges and steps. Input widgets call it; nothing
// downstream re-validates.
func (in AssessmentInput) Validate() error {
	if in.Age < 10 || in.Age > 100 {
		return fmt.Errorf("age must be between 10 and 100, got %d", in.Age)
	}
	if !oneOf(in.Gender, Genders) {
		return fmt.Errorf("unknown gender %q", in.Gender)
	}
	if in.DailyScreenTimeHrs < 0 || in.DailyScreenTimeHrs > 24 {
		return fmt.Errorf("daily screen time must be between 0 and 24 hours, got %v", in.DailyScreenTimeHrs)
	}
	if math.Mod(in.DailyScreenTimeHrs*2, 1) != 0 {
		return fmt.Errorf("daily screen time must be a multiple of 0.5 hours, got %v", in.DailyScreenTimeHrs)
	}
	if !oneOf(in.PrimaryPlatform, Platforms) {
		return fmt.Errorf("unknown platform %q", in.PrimaryPlatform)
	}
	if in.SleepQuality < 1 || in.SleepQuality > 10 {
		return fmt.Errorf("sleep quality must be between 1 and 10, got %d", in.SleepQuality)
	}
	if in.StressLevel < 1 || in.StressLevel > 10 {
		return fmt.Errorf("stress level must be between 1 and 10, got %d", in.StressLevel)
	}
	if in.DaysWithoutSocialMedia < 0 || in.DaysWithoutSocialMedia > 30 {
		return fmt.Errorf("days without social media must be between 0 and 30, got %d", in.DaysWithoutSocialMedia)
	}
	if in.ExerciseFrequencyWeek < 0 || in.ExerciseFrequencyWeek > 14 {
		return fmt.Errorf("exercise frequency must be between 0 and 14, got %d", in.ExerciseFrequencyWeek)
	}
	return nil
}

// PredictionResult is the classification returned by /predict
type PredictionResult struct {
	Prediction      Category             `json:"prediction"`
	Confidence      map[Category]float64 `json:"confidence"`
	Recommendations []string             `json:"recommendations"`
	FeatureImpact   map[string]float64   `json:"feature_impact"`
}

func (r *PredictionResult) Validate() error {
	if !r.Prediction.Valid() {
		return fmt.Errorf("unknown prediction %q", r.Prediction)
	}
	for _, c := range Categories {
		score, ok := r.Confidence[c]
		if !ok {
			return fmt.Errorf("confidence missing %q", c)
		}
		if math.IsNaN(score) || math.IsInf(score, 0) {
			return fmt.Errorf("confidence for %q is not a number", c)
		}
	}
	return nil
}

// Clone returns a deep copy so cached results stay immutable.
func (r PredictionResult) Clone() PredictionResult {
	out := PredictionResult{Prediction: r.Prediction}
	if r.Confidence != nil {
		out.Confidence = make(map[Category]float64, len(r.Confidence))
		for k, v := range r.Confidence {
			out.Confidence[k] = v
		}
	}
	if r.Recommendations != nil {
		out.Recommendations = append([]string{}, r.Recommendations...)
	}
	if r.FeatureImpact != nil {
		out.FeatureImpact = make(map[string]float64, len(r.FeatureImpact))
		for k, v := range r.FeatureImpact {
			out.FeatureImpact[k] = v
		}
	}
	return out
}

type ConfidenceEntry struct {
	Category Category
	Score    float64
}

// RankedConfidence returns confidence entries by descending score.
func (r *PredictionResult) RankedConfidence() []ConfidenceEntry {
	entries := make([]ConfidenceEntry, 0, len(r.Confidence))
	for c, score := range r.Confidence {
		entries = append(entries, ConfidenceEntry{Category: c, Score: score})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return categoryRank(entries[i].Category) < categoryRank(entries[j].Category)
	})
	return entries
}

// Assessment pairs the submitted answers with the returned prediction
type Assessment struct {
	Input  AssessmentInput  `json:"input_data"`
	Result PredictionResult `json:"prediction"`
}

func (a Assessment) Clone() Assessment {
	return Assessment{Input: a.Input, Result: a.Result.Clone()}
}

func categoryRank(c Category) int {
	for i, known := range Categories {
		if known == c {
			return i
		}
	}
	return len(Categories)
}

func oneOf[T comparable](v T, allowed []T) bool {
	for _, a := range allowed {
		if a == v {
			return true
		}
	}
	return false
}
