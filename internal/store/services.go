package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"slices"
)

// DefaultServices is the catalog offered before a user configures their own.
var DefaultServices = []string{
	"Netflix", "Disney+", "HBO Max", "Prime Video", "Spotify", "Youtube", "Crunchyroll",
}

func servicesKey(userID int64) string {
	return fmt.Sprintf("services:%d", userID)
}

// GetServices returns the user's service catalog in insertion order,
// falling back to the default list if none has been configured.
func GetServices(ctx context.Context, db *sql.DB, userID int64) ([]string, error) {
	var raw string
	err := db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, servicesKey(userID),
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return slices.Clone(DefaultServices), nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying service catalog: %w", err)
	}

	var services []string
	if err := json.Unmarshal([]byte(raw), &services); err != nil {
		return nil, fmt.Errorf("decoding service catalog: %w", err)
	}
	return services, nil
}

// SetServices replaces the user's service catalog.
func SetServices(ctx context.Context, db *sql.DB, userID int64, services []string) error {
	raw, err := json.Marshal(services)
	if err != nil {
		return fmt.Errorf("encoding service catalog: %w", err)
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		servicesKey(userID), string(raw),
	)
	if err != nil {
		return fmt.Errorf("storing service catalog: %w", err)
	}
	return nil
}

// AddService appends a service name to the catalog if not already present.
// Matching is case-sensitive and exact.
func AddService(ctx context.Context, db *sql.DB, userID int64, name string) ([]string, error) {
	services, err := GetServices(ctx, db, userID)
	if err != nil {
		return nil, err
	}
	if slices.Contains(services, name) {
		return services, nil
	}
	services = append(services, name)
	if err := SetServices(ctx, db, userID, services); err != nil {
		return nil, err
	}
	return services, nil
}

// RemoveService filters a service name out of the catalog. Items that
// reference the name keep it; removal never cascades.
func RemoveService(ctx context.Context, db *sql.DB, userID int64, name string) ([]string, error) {
	services, err := GetServices(ctx, db, userID)
	if err != nil {
		return nil, err
	}
	services = slices.DeleteFunc(services, func(s string) bool { return s == name })
	if err := SetServices(ctx, db, userID, services); err != nil {
		return nil, err
	}
	return services, nil
}

// GetJWTSecret retrieves the JWT secret from the database.
// If no secret exists, it generates one, stores it, and returns it.
// Uses INSERT OR IGNORE + re-SELECT to avoid TOCTOU race on concurrent startup.
func GetJWTSecret(ctx context.Context, db *sql.DB) (string, error) {
	// Try to generate and insert first (safe against races).
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating jwt secret: %w", err)
	}
	candidate := hex.EncodeToString(buf)

	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (key, value) VALUES ('jwt_secret', ?)`,
		candidate,
	)
	if err != nil {
		return "", fmt.Errorf("storing jwt_secret: %w", err)
	}

	// Always read back (either our insert or the existing value).
	var secret string
	err = db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = 'jwt_secret'`,
	).Scan(&secret)
	if err != nil {
		return "", fmt.Errorf("querying jwt_secret: %w", err)
	}

	return secret, nil
}
