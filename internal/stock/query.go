// Package stock holds the derived views over the inventory and the
// withdrawal workflow. The query functions are pure: they compute from an
// item snapshot and keep no state of their own.
package stock

import (
	"strings"

	"streamstock/internal/model"
)

// Status filter values for Filter. FilterAll matches every status.
const (
	FilterAll       = "all"
	FilterAvailable = model.StatusAvailable
	FilterUsed      = model.StatusUsed
)

// Filter returns the items whose service or account contains the search
// string (case-insensitive) and whose status matches the filter.
func Filter(items []model.InventoryItem, search, status string) []model.InventoryItem {
	term := strings.ToLower(search)

	var out []model.InventoryItem
	for _, item := range items {
		matchesSearch := term == "" ||
			strings.Contains(strings.ToLower(item.Service), term) ||
			strings.Contains(strings.ToLower(item.Account), term)
		matchesFilter := status == "" || status == FilterAll || item.Status == status
		if matchesSearch && matchesFilter {
			out = append(out, item)
		}
	}
	return out
}

// OutOfStock returns the catalog services with no available item. Exhausted
// profile items already carry status "used", so status alone decides.
func OutOfStock(items []model.InventoryItem, services []string) []string {
	var out []string
	for _, service := range services {
		inStock := false
		for _, item := range items {
			if item.Service == service && item.Status == model.StatusAvailable {
				inStock = true
				break
			}
		}
		if !inStock {
			out = append(out, service)
		}
	}
	return out
}

// ServiceCount is the number of sellable units left for one service.
type ServiceCount struct {
	Service   string `json:"service"`
	Available int    `json:"available"`
}

// Availability aggregates remaining units per catalog service: each
// available item counts its free profile slots, or one whole account.
// Services with nothing left are omitted, matching the stats view.
func Availability(items []model.InventoryItem, services []string) []ServiceCount {
	var out []ServiceCount
	for _, service := range services {
		total := 0
		for _, item := range items {
			if item.Service == service {
				total += item.RemainingUnits()
			}
		}
		if total > 0 {
			out = append(out, ServiceCount{Service: service, Available: total})
		}
	}
	return out
}

// OfferableServices returns the distinct services that have at least one
// available item, in the order they first appear in the snapshot.
func OfferableServices(items []model.InventoryItem) []string {
	seen := make(map[string]bool)
	var out []string
	for _, item := range items {
		if item.Status != model.StatusAvailable || seen[item.Service] {
			continue
		}
		seen[item.Service] = true
		out = append(out, item.Service)
	}
	return out
}
