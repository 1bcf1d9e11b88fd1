package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

//go:embed migrations.sql
var migrations embed.FS

type DatabaseConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	UseInMemory bool
}

// DSN renders the config as a lib/pq connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresStorage(config DatabaseConfig, logger *zap.Logger) (*PostgresStorage, error) {
	return OpenPostgres(config.DSN(), logger)
}

// OpenPostgres connects using a raw DSN or postgres:// URL.
func OpenPostgres(dsn string, logger *zap.Logger) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	storage := &PostgresStorage{db: db, logger: logger}

	if err := storage.initializeSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error initializing database schema: %w", err)
	}

	return storage, nil
}

func (s *PostgresStorage) initializeSchema() error {
	migrationSQL, err := migrations.ReadFile("migrations.sql")
	if err != nil {
		return fmt.Errorf("error reading migrations file: %w", err)
	}

	if _, err := s.db.Exec(string(migrationSQL)); err != nil {
		return fmt.Errorf("error executing migrations: %w", err)
	}

	s.logger.Debug("Database schema initialized")
	return nil
}

func (s *PostgresStorage) Get(ctx context.Context, profile, key string) (string, error) {
	query := `
		SELECT value
		FROM profile_values
		WHERE profile = $1 AND key = $2`

	var value string
	err := s.db.QueryRowContext(ctx, query, profile, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("error reading %s for profile %s: %w", key, profile, err)
	}
	return value, nil
}

func (s *PostgresStorage) Set(ctx context.Context, profile, key, value string) error {
	query := `
		INSERT INTO profile_values (profile, key, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (profile, key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`

	if _, err := s.db.ExecContext(ctx, query, profile, key, value); err != nil {
		return fmt.Errorf("error writing %s for profile %s: %w", key, profile, err)
	}
	return nil
}

func (s *PostgresStorage) SetIfAbsent(ctx context.Context, profile, key, value string) (string, error) {
	// The no-op update makes RETURNING yield the row that won the race.
	query := `
		INSERT INTO profile_values (profile, key, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (profile, key)
		DO UPDATE SET value = profile_values.value
		RETURNING value`

	var stored string
	if err := s.db.QueryRowContext(ctx, query, profile, key, value).Scan(&stored); err != nil {
		return "", fmt.Errorf("error writing %s for profile %s: %w", key, profile, err)
	}
	return stored, nil
}

func (s *PostgresStorage) Delete(ctx context.Context, profile, key string) error {
	query := `
		DELETE FROM profile_values
		WHERE profile = $1 AND key = $2`

	result, err := s.db.ExecContext(ctx, query, profile, key)
	if err != nil {
		return fmt.Errorf("error deleting %s for profile %s: %w", key, profile, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		s.logger.Debug("Nothing to delete",
			zap.String("profile", profile),
			zap.String("key", key))
	}
	return nil
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}
