package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/xaenox/wellbeing-bot/internal/models"
)

const (
	healthPath    = "/api/v1/health"
	predictPath   = "/api/v1/predict"
	modelInfoPath = "/api/v1/model-info"
	featuresPath  = "/api/v1/features"
	historyPath   = "/api/v1/history"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://localhost:8000"

type validator interface {
	Validate() error
}

// Client talks to the prediction and history service. It never retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(baseURL string, httpClient *http.Client, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) Health(ctx context.Context) (*models.HealthStatus, error) {
	var out models.HealthStatus
	if err := c.do(ctx, http.MethodGet, healthPath, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Predict(ctx context.Context, input models.AssessmentInput) (*models.PredictionResult, error) {
	var out models.PredictionResult
	if err := c.do(ctx, http.MethodPost, predictPath, input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ModelInfo(ctx context.Context) (*models.ModelInfo, error) {
	var out models.ModelInfo
	if err := c.do(ctx, http.MethodGet, modelInfoPath, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Features(ctx context.Context) (*models.FeaturesInfo, error) {
	var out models.FeaturesInfo
	if err := c.do(ctx, http.MethodGet, featuresPath, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SaveAssessment(ctx context.Context, userID string, input models.AssessmentInput, result models.PredictionResult) (*models.SaveAck, error) {
	path := historyPath + "/save?user_id=" + url.QueryEscape(userID)
	body := models.Assessment{Input: input, Result: result}

	var out models.SaveAck
	if err := c.do(ctx, http.MethodPost, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UserHistory(ctx context.Context, userID string) ([]models.HistoryRecord, error) {
	var out models.HistoryResponse
	if err := c.do(ctx, http.MethodGet, historyPath+"/user/"+url.PathEscape(userID), nil, &out); err != nil {
		return nil, err
	}
	return out.Assessments, nil
}

// UserStats returns nil stats when the user has no assessments.
func (c *Client) UserStats(ctx context.Context, userID string) (*models.HistoryStats, error) {
	var out models.StatsResponse
	if err := c.do(ctx, http.MethodGet, historyPath+"/stats/"+url.PathEscape(userID), nil, &out); err != nil {
		return nil, err
	}
	return out.Stats, nil
}

func (c *Client) DeleteUserHistory(ctx context.Context, userID string) (*models.DeleteAck, error) {
	var out models.DeleteAck
	if err := c.do(ctx, http.MethodDelete, historyPath+"/user/"+url.PathEscape(userID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s body: %w", path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build %s %s: %w", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Request failed",
			zap.Error(err),
			zap.String("method", method),
			zap.String("path", path))
		return &NetworkError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Op: method + " " + path, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		remote := &RemoteError{Status: resp.StatusCode, Message: detailMessage(resp.StatusCode, data)}
		c.logger.Warn("Service returned error",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", remote.Status),
			zap.String("detail", remote.Message))
		return remote
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &SchemaError{Path: path, Err: err}
	}
	if v, ok := out.(validator); ok {
		if err := v.Validate(); err != nil {
			return &SchemaError{Path: path, Err: err}
		}
	}

	c.logger.Debug("Request completed",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode))
	return nil
}

// detailMessage extracts the service's "detail" field. FastAPI validation
// failures carry a list of {msg} objects instead of a string.
func detailMessage(status int, data []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return "Unknown error"
	}

	var text string
	if err := json.Unmarshal(envelope.Detail, &text); err == nil && text != "" {
		return text
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, item := range items {
			if item.Msg != "" {
				msgs = append(msgs, item.Msg)
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}

	return fmt.Sprintf("HTTP %d", status)
}
