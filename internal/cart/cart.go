package cart

import (
	"github.com/gemlane/storefront-bff/pkg/commerce"
	pkgerrors "github.com/gemlane/storefront-bff/pkg/errors"
	"github.com/gemlane/storefront-bff/pkg/money"
)

// Item is one canonical cart line. ProductID is unique within a cart.
type Item struct {
	ProductID string      `json:"productId"`
	Quantity  int         `json:"quantity"`
	UnitPrice money.Cents `json:"unitPriceMinorUnits"`
	Name      string      `json:"name,omitempty"`
}

// Snapshot is an immutable copy of the cart contents handed to callers.
// Mutating it never affects the store it came from.
type Snapshot struct {
	Items    []Item `json:"items"`
	Currency string `json:"currency,omitempty"`
}

// IsEmpty reports whether the snapshot carries no lines.
func (s Snapshot) IsEmpty() bool {
	return len(s.Items) == 0
}

// Subtotal sums quantity times unit price across all lines.
func (s Snapshot) Subtotal() money.Cents {
	var total money.Cents
	for _, item := range s.Items {
		total = money.Add(total, money.MultiplyByQuantity(item.UnitPrice, item.Quantity))
	}
	return total
}

// Warning describes a repaired or dropped entry encountered while loading
// a persisted cart. Warnings are surfaced to the caller, never fatal.
type Warning struct {
	Code    pkgerrors.Code `json:"code"`
	Message string         `json:"message"`
}

func corruptionWarning(message string) Warning {
	return Warning{Code: pkgerrors.CodeCartCorruption, Message: message}
}

// FromRemote converts a server-authoritative cart into canonical items.
func FromRemote(remote *commerce.RemoteCart) []Item {
	if remote == nil {
		return nil
	}
	items := make([]Item, 0, len(remote.Items))
	for _, ri := range remote.Items {
		if ri.ProductID == "" || ri.Quantity <= 0 {
			continue
		}
		items = append(items, Item{
			ProductID: ri.ProductID,
			Quantity:  ri.Quantity,
			UnitPrice: money.Cents(ri.UnitPriceMinorUnit),
			Name:      ri.Name,
		})
	}
	return items
}
