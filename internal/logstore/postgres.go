package logstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// Connect establishes a connection to PostgreSQL.
func Connect(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Msg("Database connection established")

	return db, nil
}

// PostgresStore persists topic logs as one row per entry. An append is a
// single INSERT, which the database applies atomically, so concurrent
// appends from many processes need no explicit locking. Append order is
// the seq bigserial, not the entry timestamp.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a store backed by an open database handle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Append inserts the entry. The topic comes into existence with its
// first row.
func (s *PostgresStore) Append(ctx context.Context, topic string, entry Entry) error {
	query := `
		INSERT INTO topic_entries (topic, agent, content, entry_timestamp)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := s.db.ExecContext(ctx, query, topic, entry.Agent, entry.Content, entry.Timestamp); err != nil {
		return fmt.Errorf("failed to append entry: %w", err)
	}
	return nil
}

// Get returns the topic's entries ordered by insertion. Unknown topics
// yield an empty slice.
func (s *PostgresStore) Get(ctx context.Context, topic string) ([]Entry, error) {
	query := `
		SELECT agent, content, entry_timestamp
		FROM topic_entries
		WHERE topic = $1
		ORDER BY seq
	`
	rows, err := s.db.QueryContext(ctx, query, topic)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Agent, &e.Content, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read entries: %w", err)
	}
	return entries, nil
}

// Contains reports whether any entry exists for the topic.
func (s *PostgresStore) Contains(ctx context.Context, topic string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM topic_entries WHERE topic = $1)`
	if err := s.db.QueryRowContext(ctx, query, topic).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check topic: %w", err)
	}
	return exists, nil
}
