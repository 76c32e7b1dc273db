package cart

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/gemlane/storefront-bff/pkg/money"
)

// Two persisted shapes exist in the wild: the current array of line
// objects, and an older map of productId to quantity (no prices). Both
// normalize into the canonical []Item; everything unreadable is dropped
// with a warning instead of failing the load.

type legacyEntry struct {
	ProductID string      `json:"productId"`
	Quantity  json.Number `json:"quantity"`
	UnitPrice json.Number `json:"unitPriceMinorUnits"`
	Name      string      `json:"name"`
}

// Normalize parses a persisted cart payload in either historical shape.
// A payload that cannot be parsed at all yields an empty cart plus a
// corruption warning; individually malformed entries are dropped with
// one warning each. Normalize never returns an error.
func Normalize(raw []byte) ([]Item, []Warning) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}

	switch trimmed[0] {
	case '[':
		return normalizeArray(trimmed)
	case '{':
		return normalizeMap(trimmed)
	default:
		return nil, []Warning{corruptionWarning("cart payload is not valid JSON; starting from an empty cart")}
	}
}

func normalizeArray(payload string) ([]Item, []Warning) {
	var rawEntries []json.RawMessage
	if err := json.Unmarshal([]byte(payload), &rawEntries); err != nil {
		return nil, []Warning{corruptionWarning("cart payload could not be parsed; starting from an empty cart")}
	}

	var warnings []Warning
	items := make([]Item, 0, len(rawEntries))
	seen := make(map[string]bool, len(rawEntries))
	for i, raw := range rawEntries {
		var entry legacyEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			warnings = append(warnings, corruptionWarning(fmt.Sprintf("entry %d could not be parsed; dropped", i)))
			continue
		}
		item, warn := repairEntry(i, entry)
		if warn != nil {
			warnings = append(warnings, *warn)
			continue
		}
		if seen[item.ProductID] {
			warnings = append(warnings, corruptionWarning(fmt.Sprintf("duplicate entry for product %q dropped", item.ProductID)))
			continue
		}
		seen[item.ProductID] = true
		items = append(items, item)
	}
	return items, warnings
}

func normalizeMap(payload string) ([]Item, []Warning) {
	var entries map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &entries); err != nil {
		return nil, []Warning{corruptionWarning("cart payload could not be parsed; starting from an empty cart")}
	}

	// Map iteration order is random; sort for a stable canonical order.
	productIDs := make([]string, 0, len(entries))
	for productID := range entries {
		productIDs = append(productIDs, productID)
	}
	sort.Strings(productIDs)

	var warnings []Warning
	items := make([]Item, 0, len(productIDs))
	for _, productID := range productIDs {
		if strings.TrimSpace(productID) == "" {
			warnings = append(warnings, corruptionWarning("entry with empty product id dropped"))
			continue
		}
		var number json.Number
		if err := json.Unmarshal(entries[productID], &number); err != nil {
			warnings = append(warnings, corruptionWarning(fmt.Sprintf("entry for product %q has unusable quantity %s; dropped", productID, entries[productID])))
			continue
		}
		quantity, ok := wholeQuantity(number)
		if !ok || quantity <= 0 {
			warnings = append(warnings, corruptionWarning(fmt.Sprintf("entry for product %q has unusable quantity %q; dropped", productID, number.String())))
			continue
		}
		// The map shape never stored prices; lines are repriced from the
		// server cart on the next sync.
		items = append(items, Item{ProductID: productID, Quantity: quantity})
	}
	return items, warnings
}

func repairEntry(index int, entry legacyEntry) (Item, *Warning) {
	if strings.TrimSpace(entry.ProductID) == "" {
		warn := corruptionWarning(fmt.Sprintf("entry %d has no product id; dropped", index))
		return Item{}, &warn
	}
	quantity, ok := wholeQuantity(entry.Quantity)
	if !ok || quantity <= 0 {
		warn := corruptionWarning(fmt.Sprintf("entry for product %q has unusable quantity %q; dropped", entry.ProductID, entry.Quantity.String()))
		return Item{}, &warn
	}
	unitPrice := int64(0)
	if entry.UnitPrice.String() != "" {
		parsed, err := entry.UnitPrice.Int64()
		if err != nil || parsed < 0 {
			warn := corruptionWarning(fmt.Sprintf("entry for product %q has unusable unit price %q; dropped", entry.ProductID, entry.UnitPrice.String()))
			return Item{}, &warn
		}
		unitPrice = parsed
	}
	return Item{
		ProductID: entry.ProductID,
		Quantity:  quantity,
		UnitPrice: money.Cents(unitPrice),
		Name:      entry.Name,
	}, nil
}

func wholeQuantity(number json.Number) (int, bool) {
	if number.String() == "" {
		return 0, false
	}
	value, err := number.Int64()
	if err != nil {
		return 0, false
	}
	return int(value), true
}
