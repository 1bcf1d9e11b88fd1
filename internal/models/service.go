package models

import "fmt"

type HealthStatus struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	Version     string `json:"version"`
}

func (h *HealthStatus) Validate() error {
	if h.Status == "" {
		return fmt.Errorf("health status is empty")
	}
	return nil
}

// ModelInfo describes the classifier behind the prediction service
type ModelInfo struct {
	Algorithm         string     `json:"algorithm"`
	NNeighbors        int        `json:"n_neighbors"`
	Features          int        `json:"features"`
	FeatureNames      []string   `json:"feature_names"`
	Classes           []Category `json:"classes"`
	BalancedWithSMOTE bool       `json:"balanced_with_smote"`
	Accuracy          float64    `json:"accuracy"`
	TrainingSamples   int        `json:"training_samples"`
}

func (m *ModelInfo) Validate() error {
	if m.Algorithm == "" {
		return fmt.Errorf("model algorithm is empty")
	}
	return nil
}

type FeaturesInfo struct {
	NumericFeatures     []string            `json:"numeric_features"`
	CategoricalFeatures map[string][]string `json:"categorical_features"`
}

func (f *FeaturesInfo) Validate() error {
	if f.NumericFeatures == nil && f.CategoricalFeatures == nil {
		return fmt.Errorf("features info is empty")
	}
	return nil
}
