package model

// InventoryItem represents a single streaming account in stock.
type InventoryItem struct {
	ID          string `json:"id"`
	UserID      int64  `json:"-"`
	Service     string `json:"service"`
	Account     string `json:"account"`
	Credentials string `json:"credentials"`
	Status      string `json:"status"`
	Notes       string `json:"notes,omitempty"`

	// Profiles is the number of sellable profile slots on this account.
	// Nil means the whole account is a single sellable unit.
	Profiles     *int `json:"profiles,omitempty"`
	ProfilesUsed int  `json:"profiles_used"`

	// Version is bumped on every mutation and checked on withdrawal
	// commit, so a stale commit fails instead of double-selling.
	Version   int64 `json:"version"`
	CreatedAt int64 `json:"created_at"` // epoch milliseconds
}

// Item statuses.
const (
	StatusAvailable = "available"
	StatusUsed      = "used"
)

// Exhausted reports whether all profile slots of the item have been sold.
// Always false for items without profile slots.
func (i *InventoryItem) Exhausted() bool {
	return i.Profiles != nil && i.ProfilesUsed >= *i.Profiles
}

// RemainingUnits returns how many sellable units the item still holds.
func (i *InventoryItem) RemainingUnits() int {
	if i.Status != StatusAvailable {
		return 0
	}
	if i.Profiles == nil {
		return 1
	}
	if r := *i.Profiles - i.ProfilesUsed; r > 0 {
		return r
	}
	return 0
}
