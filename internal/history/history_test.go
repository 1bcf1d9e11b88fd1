package history

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xaenox/wellbeing-bot/internal/gateway"
	"github.com/xaenox/wellbeing-bot/internal/identity"
	"github.com/xaenox/wellbeing-bot/internal/models"
	"github.com/xaenox/wellbeing-bot/internal/storage"
)

type fakeGateway struct {
	mu         sync.Mutex
	records    map[string][]models.HistoryRecord
	historyErr error
	statsErr   error
	deleteErr  error

	historyCalls atomic.Int32
	statsCalls   atomic.Int32
	deleted      []string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{records: make(map[string][]models.HistoryRecord)}
}

func (f *fakeGateway) UserHistory(ctx context.Context, userID string) ([]models.HistoryRecord, error) {
	f.historyCalls.Add(1)
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.HistoryRecord(nil), f.records[userID]...), nil
}

func (f *fakeGateway) UserStats(ctx context.Context, userID string) (*models.HistoryStats, error) {
	f.statsCalls.Add(1)
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	recs := f.records[userID]
	if len(recs) == 0 {
		return nil, nil
	}
	stats := &models.HistoryStats{TotalAssessments: len(recs), Trend: models.TrendStable}
	for _, r := range recs {
		switch r.Prediction {
		case models.AtRisk:
			stats.AtRiskCount++
		case models.Moderate:
			stats.ModerateCount++
		case models.Balanced:
			stats.BalancedCount++
		}
	}
	return stats, nil
}

func (f *fakeGateway) DeleteUserHistory(ctx context.Context, userID string) (*models.DeleteAck, error) {
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.records, userID)
	f.deleted = append(f.deleted, userID)
	return &models.DeleteAck{Status: "success", Message: "Deleted"}, nil
}

func record(id int64, c models.Category) models.HistoryRecord {
	return models.HistoryRecord{
		ID:         id,
		Prediction: c,
		CreatedAt:  models.Timestamp{Time: time.Date(2024, 1, int(id), 9, 0, 0, 0, time.UTC)},
	}
}

func setup(t *testing.T) (*fakeGateway, *identity.Store, *Page) {
	t.Helper()
	gw := newFakeGateway()
	ids := identity.NewStore(storage.NewMemoryStorage(), "7", zaptest.NewLogger(t))
	vm := NewViewModel(gw, ids, zaptest.NewLogger(t))
	return gw, ids, NewPage(vm)
}

func TestLoadJoinsBothFetches(t *testing.T) {
	gw := newFakeGateway()
	gw.records["anon"] = []models.HistoryRecord{record(1, models.AtRisk), record(2, models.Balanced)}
	vm := NewViewModel(gw, identity.NewStore(storage.NewMemoryStorage(), "x", zaptest.NewLogger(t)), zaptest.NewLogger(t))

	records, stats, err := vm.Load(context.Background(), "anon")
	require.NoError(t, err)
	assert.Len(t, records, 2)
	require.NotNil(t, stats)
	assert.Equal(t, 2, stats.TotalAssessments)
	assert.EqualValues(t, 1, gw.historyCalls.Load())
	assert.EqualValues(t, 1, gw.statsCalls.Load())
}

func TestLoadFailsWhenEitherFetchFails(t *testing.T) {
	for name, mutate := range map[string]func(*fakeGateway){
		"history": func(f *fakeGateway) { f.historyErr = &gateway.RemoteError{Status: 500, Message: "db down"} },
		"stats":   func(f *fakeGateway) { f.statsErr = &gateway.RemoteError{Status: 500, Message: "db down"} },
	} {
		t.Run(name, func(t *testing.T) {
			gw := newFakeGateway()
			gw.records["anon"] = []models.HistoryRecord{record(1, models.Moderate)}
			mutate(gw)
			vm := NewViewModel(gw, identity.NewStore(storage.NewMemoryStorage(), "x", zaptest.NewLogger(t)), zaptest.NewLogger(t))

			records, stats, err := vm.Load(context.Background(), "anon")
			require.Error(t, err)
			assert.True(t, gateway.IsRemote(err))
			assert.Nil(t, records)
			assert.Nil(t, stats)
		})
	}
}

func TestOpenWithoutIdentifierSkipsNetwork(t *testing.T) {
	gw, _, page := setup(t)

	assert.Equal(t, StateLoading, page.State())
	assert.Equal(t, StateNoHistory, page.Open(context.Background()))
	assert.EqualValues(t, 0, gw.historyCalls.Load())
	assert.EqualValues(t, 0, gw.statsCalls.Load())
}

func TestOpenWithZeroRecordsIsNoHistory(t *testing.T) {
	gw, ids, page := setup(t)
	ids.GetOrCreateID(context.Background())

	assert.Equal(t, StateNoHistory, page.Open(context.Background()))
	assert.EqualValues(t, 1, gw.historyCalls.Load())
}

func TestOpenLoaded(t *testing.T) {
	ctx := context.Background()
	gw, ids, page := setup(t)
	id := ids.GetOrCreateID(ctx)
	gw.records[id] = []models.HistoryRecord{record(1, models.Moderate), record(2, models.Balanced)}

	require.Equal(t, StateLoaded, page.Open(ctx))
	assert.Len(t, page.Records(), 2)
	require.NotNil(t, page.Stats())
	assert.Equal(t, 1, page.Stats().BalancedCount)
}

func TestOpenErrorThenRetry(t *testing.T) {
	ctx := context.Background()
	gw, ids, page := setup(t)
	id := ids.GetOrCreateID(ctx)
	gw.records[id] = []models.HistoryRecord{record(1, models.Moderate)}
	gw.statsErr = &gateway.NetworkError{Op: "GET", Err: errors.New("connection refused")}

	require.Equal(t, StateError, page.Open(ctx))
	assert.Contains(t, page.Error(), "connection refused")
	assert.Empty(t, page.Records())

	gw.statsErr = nil
	assert.Equal(t, StateLoaded, page.Retry(ctx))
	assert.Empty(t, page.Error())
}

func TestRemoteErrorMessageIsShownVerbatim(t *testing.T) {
	ctx := context.Background()
	gw, ids, page := setup(t)
	ids.GetOrCreateID(ctx)
	gw.historyErr = &gateway.RemoteError{Status: 500, Message: "Failed to fetch history: boom"}

	require.Equal(t, StateError, page.Open(ctx))
	assert.Equal(t, "Failed to fetch history: boom", page.Error())
}

func TestDeleteAllTransitionsWithoutRefetch(t *testing.T) {
	ctx := context.Background()
	gw, ids, page := setup(t)
	id := ids.GetOrCreateID(ctx)
	gw.records[id] = []models.HistoryRecord{record(1, models.AtRisk)}
	require.Equal(t, StateLoaded, page.Open(ctx))

	require.NoError(t, page.DeleteAll(ctx))
	assert.Equal(t, StateNoHistory, page.State())
	assert.False(t, ids.HasHistory(ctx))
	assert.Equal(t, []string{id}, gw.deleted)
	assert.EqualValues(t, 1, gw.historyCalls.Load())
	assert.EqualValues(t, 1, gw.statsCalls.Load())
	assert.Nil(t, page.Stats())

	assert.NotEqual(t, id, ids.GetOrCreateID(ctx))
}

func TestDeleteAllFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	gw, ids, page := setup(t)
	id := ids.GetOrCreateID(ctx)
	gw.records[id] = []models.HistoryRecord{record(1, models.AtRisk)}
	require.Equal(t, StateLoaded, page.Open(ctx))

	gw.deleteErr = &gateway.RemoteError{Status: 500, Message: "nope"}
	err := page.DeleteAll(ctx)
	require.Error(t, err)
	assert.Equal(t, "Failed to delete history", err.Error())
	assert.Equal(t, StateLoaded, page.State())
	assert.True(t, ids.HasHistory(ctx))
	assert.Equal(t, id, ids.GetOrCreateID(ctx))
	assert.Len(t, page.Records(), 1)
}

func TestDeleteAllRequiresLoadedPage(t *testing.T) {
	_, _, page := setup(t)
	page.Open(context.Background())
	assert.ErrorIs(t, page.DeleteAll(context.Background()), ErrNotLoaded)
}

func TestViewModelDeleteAllClearsIdentity(t *testing.T) {
	ctx := context.Background()
	gw := newFakeGateway()
	ids := identity.NewStore(storage.NewMemoryStorage(), "x", zaptest.NewLogger(t))
	id := ids.GetOrCreateID(ctx)
	vm := NewViewModel(gw, ids, zaptest.NewLogger(t))

	require.NoError(t, vm.DeleteAll(ctx, id))
	assert.False(t, ids.HasHistory(ctx))
}

func TestRetryOutsideErrorDoesNotRefetch(t *testing.T) {
	ctx := context.Background()
	gw, ids, page := setup(t)
	id := ids.GetOrCreateID(ctx)
	gw.records[id] = []models.HistoryRecord{record(1, models.Balanced)}
	require.Equal(t, StateLoaded, page.Open(ctx))

	assert.Equal(t, StateLoaded, page.Retry(ctx))
	assert.EqualValues(t, 1, gw.historyCalls.Load())
	assert.EqualValues(t, 1, gw.statsCalls.Load())
}

func TestConcurrentRetryRefetchesOnce(t *testing.T) {
	ctx := context.Background()
	gw, ids, page := setup(t)
	id := ids.GetOrCreateID(ctx)
	gw.records[id] = []models.HistoryRecord{record(1, models.Moderate)}
	gw.historyErr = &gateway.RemoteError{Status: 503, Message: "busy"}
	require.Equal(t, StateError, page.Open(ctx))
	gw.historyErr = nil

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, StateLoaded, page.Retry(ctx))
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 2, gw.historyCalls.Load())
}
