package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"streamstock/internal/model"
)

// CreateHistoryEntry records a withdrawal. Entries are immutable: there
// is no update function in this file on purpose.
func CreateHistoryEntry(ctx context.Context, db *sql.DB, userID int64, itemID, service, account, message string, timestamp int64) (*model.HistoryEntry, error) {
	id := uuid.NewString()

	_, err := db.ExecContext(ctx,
		`INSERT INTO history (id, user_id, item_id, service, account, message, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, userID, itemID, service, account, message, timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("creating history entry: %w", err)
	}

	return GetHistoryEntry(ctx, db, userID, id)
}

// GetHistoryEntry returns a history entry by ID, scoped to the user.
func GetHistoryEntry(ctx context.Context, db *sql.DB, userID int64, id string) (*model.HistoryEntry, error) {
	e := &model.HistoryEntry{}
	err := db.QueryRowContext(ctx,
		`SELECT id, user_id, item_id, service, account, message, timestamp
		 FROM history WHERE id = ? AND user_id = ?`, id, userID,
	).Scan(&e.ID, &e.UserID, &e.ItemID, &e.Service, &e.Account, &e.Message, &e.Timestamp)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting history entry: %w", err)
	}
	return e, nil
}

// ListHistory returns the user's withdrawal history, newest first.
func ListHistory(ctx context.Context, db *sql.DB, userID int64) ([]model.HistoryEntry, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, user_id, item_id, service, account, message, timestamp
		 FROM history WHERE user_id = ? ORDER BY timestamp DESC, id`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	defer rows.Close()

	var entries []model.HistoryEntry
	for rows.Next() {
		var e model.HistoryEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.ItemID, &e.Service, &e.Account, &e.Message, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning history entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteHistoryEntry removes a single history entry.
func DeleteHistoryEntry(ctx context.Context, db *sql.DB, userID int64, id string) error {
	_, err := db.ExecContext(ctx,
		`DELETE FROM history WHERE id = ? AND user_id = ?`, id, userID,
	)
	if err != nil {
		return fmt.Errorf("deleting history entry: %w", err)
	}
	return nil
}

// ClearHistory removes all of the user's history entries.
func ClearHistory(ctx context.Context, db *sql.DB, userID int64) error {
	_, err := db.ExecContext(ctx,
		`DELETE FROM history WHERE user_id = ?`, userID,
	)
	if err != nil {
		return fmt.Errorf("clearing history: %w", err)
	}
	return nil
}
