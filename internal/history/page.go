package history

import (
	"context"
	"errors"
	"sync"

	"github.com/xaenox/wellbeing-bot/internal/gateway"
	"github.com/xaenox/wellbeing-bot/internal/models"
)

type State int

const (
	StateLoading State = iota
	StateNoHistory
	StateError
	StateLoaded
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateNoHistory:
		return "no_history"
	case StateError:
		return "error"
	case StateLoaded:
		return "loaded"
	}
	return "unknown"
}

const (
	loadFailedMessage   = "Failed to load history"
	deleteFailedMessage = "Failed to delete history"
)

var ErrNotLoaded = errors.New("history: nothing loaded to delete")

// Page is the history screen: Loading -> NoHistory | Error | Loaded.
type Page struct {
	mu       sync.Mutex
	vm       *ViewModel
	identity Identity

	state   State
	records []models.HistoryRecord
	stats   *models.HistoryStats
	errText string
}

func NewPage(vm *ViewModel) *Page {
	return &Page{
		vm:       vm,
		identity: vm.identity,
		state:    StateLoading,
	}
}

// Open performs the initial load. Profiles that never persisted an
// identifier skip the network entirely.
func (p *Page) Open(ctx context.Context) State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open(ctx)
}

// open must be called with p.mu held.
func (p *Page) open(ctx context.Context) State {
	p.state = StateLoading
	if !p.identity.HasHistory(ctx) {
		p.setNoHistory()
		return p.state
	}

	userID := p.identity.GetOrCreateID(ctx)
	records, stats, err := p.vm.Load(ctx, userID)
	if err != nil {
		p.state = StateError
		p.errText = gateway.UserMessage(unwrapGateway(err), loadFailedMessage)
		return p.state
	}

	if len(records) == 0 {
		p.setNoHistory()
		return p.state
	}

	p.records = records
	p.stats = stats
	p.errText = ""
	p.state = StateLoaded
	return p.state
}

// Retry re-runs Open from the error state.
func (p *Page) Retry(ctx context.Context) State {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateError {
		return p.state
	}
	return p.open(ctx)
}

// DeleteAll deletes everything and moves to NoHistory without re-fetching.
// On failure the page keeps its loaded data.
func (p *Page) DeleteAll(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateLoaded {
		return ErrNotLoaded
	}

	userID := p.identity.GetOrCreateID(ctx)
	if err := p.vm.DeleteAll(ctx, userID); err != nil {
		return errors.New(deleteFailedMessage)
	}

	p.setNoHistory()
	return nil
}

func (p *Page) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Page) Records() []models.HistoryRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.HistoryRecord(nil), p.records...)
}

func (p *Page) Stats() *models.HistoryStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stats == nil {
		return nil
	}
	cp := *p.stats
	return &cp
}

// Error returns the display message for StateError.
func (p *Page) Error() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.errText
}

func (p *Page) setNoHistory() {
	p.state = StateNoHistory
	p.records = nil
	p.stats = nil
	p.errText = ""
}

// unwrapGateway drops the fetch-history/fetch-stats prefix so the user
// sees only what the service said.
func unwrapGateway(err error) error {
	var re *gateway.RemoteError
	if errors.As(err, &re) {
		return re
	}
	var ne *gateway.NetworkError
	if errors.As(err, &ne) {
		return ne
	}
	var se *gateway.SchemaError
	if errors.As(err, &se) {
		return se
	}
	return errors.New(loadFailedMessage)
}
