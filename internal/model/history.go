package model

// HistoryEntry records a single withdrawal. Entries are append-only:
// they are created on commit and only ever deleted, never updated.
type HistoryEntry struct {
	ID     string `json:"id"`
	UserID int64  `json:"-"`

	// ItemID is a lookup key, not an ownership edge: the referenced
	// item may be deleted while the entry persists.
	ItemID string `json:"item_id"`

	// Service and account are copied from the item at withdrawal time
	// so history stays meaningful if the item changes or disappears.
	Service string `json:"service"`
	Account string `json:"account"`

	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"` // epoch milliseconds
}
