package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xaenox/wellbeing-bot/internal/storage"
)

// UserIDKey is the durable key the anonymous identifier is stored under.
const UserIDKey = "digital_wellbeing_user_id"

// Backend is the durable part of storage.Storage the store needs.
type Backend interface {
	Get(ctx context.Context, profile, key string) (string, error)
	SetIfAbsent(ctx context.Context, profile, key, value string) (string, error)
	Delete(ctx context.Context, profile, key string) error
}

// Generator mints a new anonymous identifier.
type Generator func(now time.Time) string

// Store owns the single anonymous identifier of one profile.
// All operations are best effort: backend failures are logged, never returned.
type Store struct {
	backend  Backend
	profile  string
	generate Generator
	now      func() time.Time
	logger   *zap.Logger
}

type Option func(*Store)

func WithGenerator(g Generator) Option {
	return func(s *Store) { s.generate = g }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(backend Backend, profile string, logger *zap.Logger, opts ...Option) *Store {
	s := &Store{
		backend:  backend,
		profile:  profile,
		generate: NewAnonymousID,
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewAnonymousID returns anon_<unix millis>_<9 random chars>.
func NewAnonymousID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("anon_%d_%s", now.UnixMilli(), suffix)
}

// GetOrCreateID returns the persisted identifier, minting and persisting one
// on first use. Concurrent first calls agree on one identifier. An empty
// result means storage is unavailable and the caller is anonymous and
// non-persistent.
func (s *Store) GetOrCreateID(ctx context.Context) string {
	id, err := s.backend.Get(ctx, s.profile, UserIDKey)
	if err == nil && id != "" {
		return id
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.logger.Warn("Failed to read anonymous id",
			zap.Error(err),
			zap.String("profile", s.profile))
		return ""
	}

	minted := s.generate(s.now())
	id, err = s.backend.SetIfAbsent(ctx, s.profile, UserIDKey, minted)
	if err != nil {
		s.logger.Warn("Failed to persist anonymous id",
			zap.Error(err),
			zap.String("profile", s.profile))
		return ""
	}
	if id != minted {
		return id
	}

	s.logger.Info("Created anonymous id",
		zap.String("profile", s.profile),
		zap.String("user_id", id))
	return id
}

// HasHistory reports whether an identifier has been persisted.
func (s *Store) HasHistory(ctx context.Context) bool {
	id, err := s.backend.Get(ctx, s.profile, UserIDKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("Failed to read anonymous id",
				zap.Error(err),
				zap.String("profile", s.profile))
		}
		return false
	}
	return id != ""
}

// Clear forgets the identifier. Remote history is not touched.
func (s *Store) Clear(ctx context.Context) {
	if err := s.backend.Delete(ctx, s.profile, UserIDKey); err != nil {
		s.logger.Warn("Failed to clear anonymous id",
			zap.Error(err),
			zap.String("profile", s.profile))
	}
}
