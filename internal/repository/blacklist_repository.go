package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"arbitrage/internal/models"
)

var (
	ErrBlacklistEntryNotFound = errors.New("blacklist entry not found")
	ErrBlacklistEntryExists   = errors.New("symbol already in blacklist")
)

// BlacklistRepository excludes symbols from the relationship builder's
// subscription set, typically after repeated stream desync or a
// persistently empty book.
type BlacklistRepository struct {
	db *sql.DB
}

func NewBlacklistRepository(db *sql.DB) *BlacklistRepository {
	return &BlacklistRepository{db: db}
}

func (r *BlacklistRepository) Create(ctx context.Context, entry *models.BlacklistEntry) error {
	query := `
		INSERT INTO blacklist (symbol, reason, created_at)
		VALUES ($1, $2, NOW())
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, strings.ToUpper(entry.Symbol), entry.Reason).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrBlacklistEntryExists
		}
		return err
	}
	return nil
}

func (r *BlacklistRepository) GetAll(ctx context.Context) ([]*models.BlacklistEntry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, symbol, reason, created_at FROM blacklist ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.BlacklistEntry
	for rows.Next() {
		entry := &models.BlacklistEntry{}
		if err := rows.Scan(&entry.ID, &entry.Symbol, &entry.Reason, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *BlacklistRepository) Exists(ctx context.Context, symbol string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM blacklist WHERE symbol = $1)`, strings.ToUpper(symbol)).Scan(&exists)
	return exists, err
}

func (r *BlacklistRepository) Delete(ctx context.Context, symbol string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM blacklist WHERE symbol = $1`, strings.ToUpper(symbol))
	if err != nil {
		return err
	}
	return checkRowsAffected(result, ErrBlacklistEntryNotFound)
}

func (r *BlacklistRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM blacklist`).Scan(&count)
	return count, err
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "duplicate key") || strings.Contains(s, "23505")
}
