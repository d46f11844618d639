package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/engbot/pkg/models"
)

// WordRepository is the shared word catalog, keyed by term
type WordRepository struct {
	db *sqlx.DB
}

// NewWordRepository creates a new repository instance
func NewWordRepository(db *sqlx.DB) *WordRepository {
	return &WordRepository{db: db}
}

// Get returns the catalog entry for a term
func (r *WordRepository) Get(ctx context.Context, term string) (*models.WordEntry, error) {
	var word models.WordEntry
	query := r.db.Rebind("SELECT id, term, translation, example, created_at FROM words WHERE term = ?")
	err := r.db.GetContext(ctx, &word, query, term)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("word %q: %w", term, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get word: %w", err)
	}
	return &word, nil
}

// UpsertIfAbsent inserts the entry unless the term already exists.
// An existing entry is left untouched; inserted reports whether a row was added.
func (r *WordRepository) UpsertIfAbsent(ctx context.Context, word models.WordEntry) (inserted bool, err error) {
	query := r.db.Rebind(`
		INSERT INTO words (term, translation, example)
		VALUES (?, ?, ?)
		ON CONFLICT (term) DO NOTHING
	`)
	result, err := r.db.ExecContext(ctx, query, word.Term, word.Translation, word.Example)
	if err != nil {
		return false, fmt.Errorf("failed to insert word: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return n > 0, nil
}

// ListUnassigned returns catalog entries the user has no progress for, in insertion order
func (r *WordRepository) ListUnassigned(ctx context.Context, userID int64, limit int) ([]models.WordEntry, error) {
	var words []models.WordEntry
	query := r.db.Rebind(`
		SELECT w.id, w.term, w.translation, w.example, w.created_at
		FROM words w
		WHERE NOT EXISTS (
			SELECT 1 FROM user_words uw WHERE uw.user_id = ? AND uw.term = w.term
		)
		ORDER BY w.id
		LIMIT ?
	`)
	if err := r.db.SelectContext(ctx, &words, query, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to get new words: %w", err)
	}
	return words, nil
}

// Count returns the catalog size
func (r *WordRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM words"); err != nil {
		return 0, fmt.Errorf("failed to count words: %w", err)
	}
	return count, nil
}
