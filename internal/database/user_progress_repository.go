package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/engbot/internal/spaced_repetition"
	"github.com/example/engbot/pkg/models"
)

// ProgressRepository stores per-user review progress
type ProgressRepository struct {
	db *sqlx.DB
}

// NewProgressRepository creates a new repository instance
func NewProgressRepository(db *sqlx.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// progressRow is the storage shape of a progress record, optionally joined with its word
type progressRow struct {
	UserID      int64          `db:"user_id"`
	Term        string         `db:"term"`
	Stage       int            `db:"stage"`
	LastReview  string         `db:"last_review"`
	Learned     bool           `db:"learned"`
	Translation sql.NullString `db:"translation"`
	Example     sql.NullString `db:"example"`
}

func (row progressRow) record() (models.ProgressRecord, error) {
	last, err := spaced_repetition.ParseDate(row.LastReview)
	if err != nil {
		return models.ProgressRecord{}, fmt.Errorf("bad review date %q for %q: %w", row.LastReview, row.Term, err)
	}
	return models.ProgressRecord{
		UserID:         row.UserID,
		Term:           row.Term,
		Stage:          row.Stage,
		LastReviewDate: last,
		Learned:        row.Learned,
	}, nil
}

func (row progressRow) reviewWord() (models.ReviewWord, error) {
	record, err := row.record()
	if err != nil {
		return models.ReviewWord{}, err
	}
	return models.ReviewWord{
		ProgressRecord: record,
		Translation:    row.Translation.String,
		Example:        row.Example.String,
	}, nil
}

const progressColumns = "uw.user_id, uw.term, uw.stage, uw.last_review, uw.learned"

// Get returns the progress of a user for a term
func (r *ProgressRepository) Get(ctx context.Context, userID int64, term string) (*models.ProgressRecord, error) {
	var row progressRow
	query := r.db.Rebind("SELECT " + progressColumns + " FROM user_words uw WHERE uw.user_id = ? AND uw.term = ?")
	err := r.db.GetContext(ctx, &row, query, userID, term)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("progress %d/%q: %w", userID, term, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user progress: %w", err)
	}
	record, err := row.record()
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Assign starts tracking a catalog word for the user at stage 0.
// The catalog lookup and the insert run in one transaction; an existing record is kept
// and reported with created=false. ErrNotFound means the term is not in the catalog.
func (r *ProgressRepository) Assign(ctx context.Context, userID int64, term string, today time.Time) (word *models.WordEntry, created bool, err error) {
	err = r.inTx(ctx, func(tx *sqlx.Tx) error {
		var entry models.WordEntry
		lookup := tx.Rebind("SELECT id, term, translation, example, created_at FROM words WHERE term = ?")
		if err := tx.GetContext(ctx, &entry, lookup, term); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("word %q: %w", term, ErrNotFound)
			}
			return fmt.Errorf("failed to get word: %w", err)
		}

		insert := tx.Rebind(`
			INSERT INTO user_words (user_id, term, stage, last_review, learned)
			VALUES (?, ?, 0, ?, ?)
			ON CONFLICT (user_id, term) DO NOTHING
		`)
		result, err := tx.ExecContext(ctx, insert, userID, term, spaced_repetition.FormatDate(today), false)
		if err != nil {
			return fmt.Errorf("failed to create user progress: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get affected rows: %w", err)
		}

		word = &entry
		created = n > 0
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return word, created, nil
}

// Update applies mutate to the stored record and persists stage, review date and learned flag.
// The read and the write happen in one transaction.
func (r *ProgressRepository) Update(ctx context.Context, userID int64, term string, mutate func(*models.ProgressRecord)) (*models.ProgressRecord, error) {
	var updated models.ProgressRecord
	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		query := "SELECT " + progressColumns + " FROM user_words uw WHERE uw.user_id = ? AND uw.term = ?"
		if r.db.DriverName() == DriverPostgres {
			query += " FOR UPDATE"
		}

		var row progressRow
		if err := tx.GetContext(ctx, &row, tx.Rebind(query), userID, term); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("progress %d/%q: %w", userID, term, ErrNotFound)
			}
			return fmt.Errorf("failed to get user progress: %w", err)
		}
		record, err := row.record()
		if err != nil {
			return err
		}

		mutate(&record)

		update := tx.Rebind(`
			UPDATE user_words SET stage = ?, last_review = ?, learned = ?
			WHERE user_id = ? AND term = ?
		`)
		_, err = tx.ExecContext(ctx, update,
			record.Stage,
			spaced_repetition.FormatDate(record.LastReviewDate),
			record.Learned,
			userID,
			term,
		)
		if err != nil {
			return fmt.Errorf("failed to update user progress: %w", err)
		}

		updated = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// ListByUser returns every progress record of the user joined with the catalog, in catalog order
func (r *ProgressRepository) ListByUser(ctx context.Context, userID int64) ([]models.ReviewWord, error) {
	return r.listReviewWords(ctx, "uw.user_id = ?", userID)
}

// ListUnlearned returns the user's records not marked learned, in catalog order
func (r *ProgressRepository) ListUnlearned(ctx context.Context, userID int64) ([]models.ReviewWord, error) {
	return r.listReviewWords(ctx, "uw.user_id = ? AND uw.learned = ?", userID, false)
}

func (r *ProgressRepository) listReviewWords(ctx context.Context, where string, args ...interface{}) ([]models.ReviewWord, error) {
	query := r.db.Rebind(`
		SELECT ` + progressColumns + `, w.translation, w.example
		FROM user_words uw
		JOIN words w ON w.term = uw.term
		WHERE ` + where + `
		ORDER BY w.id
	`)

	var rows []progressRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get user words: %w", err)
	}

	words := make([]models.ReviewWord, 0, len(rows))
	for _, row := range rows {
		w, err := row.reviewWord()
		if err != nil {
			return nil, err
		}
		words = append(words, w)
	}
	return words, nil
}

// Statistics counts the user's records and how many of them are learned
func (r *ProgressRepository) Statistics(ctx context.Context, userID int64) (models.Statistics, error) {
	var stats models.Statistics
	query := r.db.Rebind(`
		SELECT COUNT(*) AS total,
		       COALESCE(SUM(CASE WHEN learned THEN 1 ELSE 0 END), 0) AS learned
		FROM user_words
		WHERE user_id = ?
	`)
	if err := r.db.GetContext(ctx, &stats, query, userID); err != nil {
		return models.Statistics{}, fmt.Errorf("failed to get user statistics: %w", err)
	}
	return stats, nil
}

// ActiveUsers returns the users that still have unlearned words
func (r *ProgressRepository) ActiveUsers(ctx context.Context) ([]int64, error) {
	var users []int64
	query := r.db.Rebind("SELECT DISTINCT user_id FROM user_words WHERE learned = ? ORDER BY user_id")
	if err := r.db.SelectContext(ctx, &users, query, false); err != nil {
		return nil, fmt.Errorf("failed to get active users: %w", err)
	}
	return users, nil
}

func (r *ProgressRepository) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
