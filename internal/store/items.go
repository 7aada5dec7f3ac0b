// Package store contains the persistence layer: package-level functions
// over *sql.DB, one file per record type.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"streamstock/internal/model"
)

// CreateItem adds a new account to the user's stock. The ID and creation
// timestamp are assigned here; new items start available with no profile
// slots consumed.
func CreateItem(ctx context.Context, db *sql.DB, userID int64, service, account, credentials, notes string, profiles *int) (*model.InventoryItem, error) {
	id := uuid.NewString()
	createdAt := time.Now().UnixMilli()

	_, err := db.ExecContext(ctx,
		`INSERT INTO items (id, user_id, service, account, credentials, status, notes, profiles, profiles_used, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		id, userID, service, account, credentials, model.StatusAvailable, notes, profiles, createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	return GetItem(ctx, db, userID, id)
}

// GetItem returns an item by ID, scoped to the user.
func GetItem(ctx context.Context, db *sql.DB, userID int64, id string) (*model.InventoryItem, error) {
	item := &model.InventoryItem{}
	var notes sql.NullString
	var profiles sql.NullInt64
	err := db.QueryRowContext(ctx,
		`SELECT id, user_id, service, account, credentials, status, notes, profiles, profiles_used, version, created_at
		 FROM items WHERE id = ? AND user_id = ?`, id, userID,
	).Scan(&item.ID, &item.UserID, &item.Service, &item.Account, &item.Credentials,
		&item.Status, &notes, &profiles, &item.ProfilesUsed, &item.Version, &item.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	item.Notes = notes.String
	if profiles.Valid {
		p := int(profiles.Int64)
		item.Profiles = &p
	}
	return item, nil
}

// ListItems returns all of the user's items, newest first.
func ListItems(ctx context.Context, db *sql.DB, userID int64) ([]model.InventoryItem, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, user_id, service, account, credentials, status, notes, profiles, profiles_used, version, created_at
		 FROM items WHERE user_id = ? ORDER BY created_at DESC, id`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.InventoryItem
	for rows.Next() {
		var item model.InventoryItem
		var notes sql.NullString
		var profiles sql.NullInt64
		if err := rows.Scan(&item.ID, &item.UserID, &item.Service, &item.Account, &item.Credentials,
			&item.Status, &notes, &profiles, &item.ProfilesUsed, &item.Version, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		item.Notes = notes.String
		if profiles.Valid {
			p := int(profiles.Int64)
			item.Profiles = &p
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateItem replaces an item's editable fields and bumps its version,
// invalidating any withdrawal message generated against the old state.
// profiles_used is clamped into range if the slot count shrank.
func UpdateItem(ctx context.Context, db *sql.DB, userID int64, id, service, account, credentials, status, notes string, profiles *int) error {
	_, err := db.ExecContext(ctx,
		`UPDATE items
		 SET service = ?, account = ?, credentials = ?, status = ?, notes = ?, profiles = ?,
		     profiles_used = CASE WHEN ? IS NOT NULL AND profiles_used > ? THEN ? ELSE profiles_used END,
		     version = version + 1
		 WHERE id = ? AND user_id = ?`,
		service, account, credentials, status, notes, profiles,
		profiles, profiles, profiles, id, userID,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	return nil
}

// SetItemStatus sets an item's status directly (manual toggle). Reviving
// an exhausted profile item resets its slot counter, keeping
// profiles_used within range for the next withdrawal.
func SetItemStatus(ctx context.Context, db *sql.DB, userID int64, id, status string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE items
		 SET status = ?,
		     profiles_used = CASE
		         WHEN ? = 'available' AND profiles IS NOT NULL AND profiles_used >= profiles THEN 0
		         ELSE profiles_used
		     END,
		     version = version + 1
		 WHERE id = ? AND user_id = ?`,
		status, status, id, userID,
	)
	if err != nil {
		return fmt.Errorf("setting item status: %w", err)
	}
	return nil
}

// DeleteItem removes an item. History entries referencing it are kept.
func DeleteItem(ctx context.Context, db *sql.DB, userID int64, id string) error {
	_, err := db.ExecContext(ctx,
		`DELETE FROM items WHERE id = ? AND user_id = ?`, id, userID,
	)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	return nil
}

// ClearItems removes all of the user's items.
func ClearItems(ctx context.Context, db *sql.DB, userID int64) error {
	_, err := db.ExecContext(ctx,
		`DELETE FROM items WHERE user_id = ?`, userID,
	)
	if err != nil {
		return fmt.Errorf("clearing items: %w", err)
	}
	return nil
}
