package bot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xaenox/wellbeing-bot/internal/models"
)

// DefaultInput mirrors the starting position of the assessment form.
func DefaultInput() models.AssessmentInput {
	return models.AssessmentInput{
		Age:                    25,
		Gender:                 models.Female,
		DailyScreenTimeHrs:     5,
		PrimaryPlatform:        models.Instagram,
		SleepQuality:           7,
		StressLevel:            5,
		DaysWithoutSocialMedia: 2,
		ExerciseFrequencyWeek:  3,
	}
}

var fieldAliases = map[string]string{
	"age":                       "age",
	"gender":                    "gender",
	"screen":                    "screen",
	"screen_time":               "screen",
	"daily_screen_time_hrs":     "screen",
	"platform":                  "platform",
	"primary_platform":          "platform",
	"sleep":                     "sleep",
	"sleep_quality":             "sleep",
	"stress":                    "stress",
	"stress_level":              "stress",
	"offline":                   "offline",
	"days_without_social_media": "offline",
	"exercise":                  "exercise",
	"exercise_frequency_week":   "exercise",
}

// ParseAssessment reads "key=value" pairs on top of DefaultInput and
// range-checks the result.
func ParseAssessment(args string) (models.AssessmentInput, error) {
	in := DefaultInput()

	for _, token := range strings.Fields(args) {
		key, value, ok := strings.Cut(token, "=")
		if !ok || value == "" {
			return in, fmt.Errorf("expected key=value, got %q", token)
		}
		field, known := fieldAliases[strings.ToLower(key)]
		if !known {
			return in, fmt.Errorf("unknown field %q", key)
		}

		var err error
		switch field {
		case "age":
			in.Age, err = strconv.Atoi(value)
		case "gender":
			in.Gender, err = matchEnum(value, models.Genders)
		case "screen":
			in.DailyScreenTimeHrs, err = strconv.ParseFloat(value, 64)
		case "platform":
			in.PrimaryPlatform, err = matchEnum(value, models.Platforms)
		case "sleep":
			in.SleepQuality, err = strconv.Atoi(value)
		case "stress":
			in.StressLevel, err = strconv.Atoi(value)
		case "offline":
			in.DaysWithoutSocialMedia, err = strconv.Atoi(value)
		case "exercise":
			in.ExerciseFrequencyWeek, err = strconv.Atoi(value)
		}
		if err != nil {
			return in, fmt.Errorf("invalid %s: %w", key, err)
		}
	}

	if err := in.Validate(); err != nil {
		return in, err
	}
	return in, nil
}

func matchEnum[T ~string](value string, allowed []T) (T, error) {
	for _, a := range allowed {
		if strings.EqualFold(string(a), value) {
			return a, nil
		}
	}
	names := make([]string, len(allowed))
	for i, a := range allowed {
		names[i] = string(a)
	}
	var zero T
	return zero, fmt.Errorf("%q is not one of %s", value, strings.Join(names, ", "))
}
