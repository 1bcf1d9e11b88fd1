package history

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xaenox/wellbeing-bot/internal/models"
)

// Gateway is the subset of the remote service the history view needs.
type Gateway interface {
	UserHistory(ctx context.Context, userID string) ([]models.HistoryRecord, error)
	UserStats(ctx context.Context, userID string) (*models.HistoryStats, error)
	DeleteUserHistory(ctx context.Context, userID string) (*models.DeleteAck, error)
}

// Identity is the part of identity.Store the history view needs.
type Identity interface {
	GetOrCreateID(ctx context.Context) string
	HasHistory(ctx context.Context) bool
	Clear(ctx context.Context)
}

type ViewModel struct {
	gateway  Gateway
	identity Identity
	logger   *zap.Logger
}

func NewViewModel(gateway Gateway, identity Identity, logger *zap.Logger) *ViewModel {
	return &ViewModel{
		gateway:  gateway,
		identity: identity,
		logger:   logger,
	}
}

// Load fetches the record list and the stats concurrently. Either failure
// fails the whole load.
func (v *ViewModel) Load(ctx context.Context, userID string) ([]models.HistoryRecord, *models.HistoryStats, error) {
	var (
		records []models.HistoryRecord
		stats   *models.HistoryStats
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = v.gateway.UserHistory(gctx, userID)
		if err != nil {
			return fmt.Errorf("fetch history: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		stats, err = v.gateway.UserStats(gctx, userID)
		if err != nil {
			return fmt.Errorf("fetch stats: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		v.logger.Error("Failed to load history",
			zap.Error(err),
			zap.String("user_id", userID))
		return nil, nil, err
	}

	return records, stats, nil
}

// DeleteAll removes the user's remote history and then forgets the local
// identifier. Irreversible; callers confirm with the user first.
func (v *ViewModel) DeleteAll(ctx context.Context, userID string) error {
	ack, err := v.gateway.DeleteUserHistory(ctx, userID)
	if err != nil {
		v.logger.Error("Failed to delete history",
			zap.Error(err),
			zap.String("user_id", userID))
		return fmt.Errorf("delete history: %w", err)
	}

	v.identity.Clear(ctx)
	v.logger.Info("History deleted",
		zap.String("user_id", userID),
		zap.String("message", ack.Message))
	return nil
}
