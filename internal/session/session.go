package session

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xaenox/wellbeing-bot/internal/models"
)

// Gateway is the subset of the remote service a session talks to.
type Gateway interface {
	Predict(ctx context.Context, input models.AssessmentInput) (*models.PredictionResult, error)
	SaveAssessment(ctx context.Context, userID string, input models.AssessmentInput, result models.PredictionResult) (*models.SaveAck, error)
}

// Identity supplies the anonymous identifier history is attributed to.
type Identity interface {
	GetOrCreateID(ctx context.Context) string
}

type Options struct {
	// StrictHistorySave makes a failed history save fail the whole submit.
	// The prediction is still cached in the slot.
	StrictHistorySave bool
}

type Session struct {
	gateway  Gateway
	identity Identity
	slot     *Slot
	opts     Options
	logger   *zap.Logger
}

func New(gateway Gateway, identity Identity, logger *zap.Logger, opts Options) *Session {
	return &Session{
		gateway:  gateway,
		identity: identity,
		slot:     &Slot{},
		opts:     opts,
		logger:   logger,
	}
}

// Submit runs the prediction, caches it, then records it in remote history.
func (s *Session) Submit(ctx context.Context, input models.AssessmentInput) (*models.PredictionResult, error) {
	result, err := s.gateway.Predict(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("prediction failed: %w", err)
	}

	s.slot.Put(models.Assessment{Input: input, Result: *result})

	userID := s.identity.GetOrCreateID(ctx)
	if userID == "" {
		s.logger.Warn("No anonymous id available, assessment not saved to history")
		return result, nil
	}

	ack, err := s.gateway.SaveAssessment(ctx, userID, input, *result)
	if err != nil {
		s.logger.Error("Failed to save assessment to history",
			zap.Error(err),
			zap.String("user_id", userID))
		if s.opts.StrictHistorySave {
			return nil, fmt.Errorf("saving assessment failed: %w", err)
		}
		return result, nil
	}

	s.logger.Info("Assessment saved",
		zap.String("user_id", userID),
		zap.Int64("assessment_id", ack.AssessmentID),
		zap.String("prediction", string(result.Prediction)))
	return result, nil
}

// ReadCurrent returns the cached assessment or ErrMissingSession.
func (s *Session) ReadCurrent() (models.AssessmentInput, models.PredictionResult, error) {
	a, err := s.slot.Current()
	if err != nil {
		return models.AssessmentInput{}, models.PredictionResult{}, err
	}
	return a.Input, a.Result, nil
}

// End discards the cached assessment.
func (s *Session) End() {
	s.slot.Reset()
}
