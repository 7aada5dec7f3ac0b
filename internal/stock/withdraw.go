package stock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"streamstock/internal/model"
)

// Workflow errors, mapped to user-facing responses by the API layer.
var (
	// ErrOutOfStock means no available item exists for the requested service.
	ErrOutOfStock = errors.New("out of stock")

	// ErrStockChanged means the item was modified, withdrawn or deleted
	// between message generation and commit.
	ErrStockChanged = errors.New("stock changed, please retry")
)

// isBusy reports whether err is SQLite's busy/locked error. During a
// commit it means a concurrent withdrawal won the write, so it maps to
// the same conflict as a failed version check.
func isBusy(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	code := se.Code() & 0xff // strip extended result bits
	return code == sqlite3.SQLITE_BUSY || code == sqlite3.SQLITE_LOCKED
}

// SelectCandidate picks the item to sell for a service: the oldest
// available one, ties broken by ID so the choice is deterministic.
// Returns nil when the service has nothing available.
func SelectCandidate(items []model.InventoryItem, service string) *model.InventoryItem {
	var candidate *model.InventoryItem
	for i := range items {
		item := &items[i]
		if item.Status != model.StatusAvailable || item.Service != service {
			continue
		}
		if candidate == nil ||
			item.CreatedAt < candidate.CreatedAt ||
			(item.CreatedAt == candidate.CreatedAt && item.ID < candidate.ID) {
			candidate = item
		}
	}
	return candidate
}

// DeliveryMessage formats the delivery text for a candidate item. The
// support flag only changes the header label; it has no stock effect.
// Items with profile slots get a line naming the next profile to hand
// out, numbered from 1 and zero-padded.
func DeliveryMessage(item *model.InventoryItem, support bool) string {
	serviceDisplay := item.Service
	if support {
		serviceDisplay += " - SUPORTE"
	}

	profileLine := ""
	if item.Profiles != nil {
		profileLine = fmt.Sprintf("\n> *PERFIL:* PERFIL %02d", item.ProfilesUsed+1)
	}

	return fmt.Sprintf(`🔴*%s*🔴

> *EMAIL:* %s
> *SENHA:* %s%s

🚨 *Proibido altera senha da conta ou dos perfis* 🚨`,
		serviceDisplay, item.Account, item.Credentials, profileLine)
}

// Withdraw consumes one unit of stock and records history in a single
// transaction. version must be the item version observed when the message
// was generated; any mismatch (or a vanished/already-sold item) fails with
// ErrStockChanged and leaves everything untouched.
func Withdraw(ctx context.Context, db *sql.DB, userID int64, itemID string, version int64, message string) (*model.HistoryEntry, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var (
		service, account, status string
		profiles                 sql.NullInt64
		profilesUsed             int
		curVersion               int64
	)
	err = tx.QueryRowContext(ctx,
		`SELECT service, account, status, profiles, profiles_used, version
		 FROM items WHERE id = ? AND user_id = ?`, itemID, userID,
	).Scan(&service, &account, &status, &profiles, &profilesUsed, &curVersion)
	if err == sql.ErrNoRows {
		return nil, ErrStockChanged
	}
	if err != nil {
		return nil, fmt.Errorf("loading item: %w", err)
	}

	if curVersion != version || status != model.StatusAvailable {
		return nil, ErrStockChanged
	}

	// Consume one unit: a profile slot if the account has them, the
	// whole account otherwise.
	newStatus := model.StatusUsed
	newUsed := profilesUsed
	if profiles.Valid {
		newUsed = profilesUsed + 1
		if int64(newUsed) < profiles.Int64 {
			newStatus = model.StatusAvailable
		} else if int64(newUsed) > profiles.Int64 {
			// An edit can leave an exhausted item available; it sells
			// as a whole unit, the counter stays within range.
			newUsed = int(profiles.Int64)
		}
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE items SET status = ?, profiles_used = ?, version = version + 1
		 WHERE id = ? AND user_id = ?`,
		newStatus, newUsed, itemID, userID,
	)
	if err != nil {
		if isBusy(err) {
			return nil, ErrStockChanged
		}
		return nil, fmt.Errorf("consuming stock: %w", err)
	}

	entry := &model.HistoryEntry{
		ID:        uuid.NewString(),
		UserID:    userID,
		ItemID:    itemID,
		Service:   service,
		Account:   account,
		Message:   message,
		Timestamp: time.Now().UnixMilli(),
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO history (id, user_id, item_id, service, account, message, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.UserID, entry.ItemID, entry.Service, entry.Account, entry.Message, entry.Timestamp,
	)
	if err != nil {
		if isBusy(err) {
			return nil, ErrStockChanged
		}
		return nil, fmt.Errorf("recording history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		if isBusy(err) {
			return nil, ErrStockChanged
		}
		return nil, fmt.Errorf("committing withdrawal: %w", err)
	}
	return entry, nil
}
