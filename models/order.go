package models

import (
	"eventhub/internal/status"
)

// QuantityByItem tallies ordered quantities per item name across a set of
// orders, plus the overall total. Purchase caps are cumulative per
// participant across all their orders for an event, not per order.
func QuantityByItem(orders []Registration) (map[string]int, int) {
	perItem := make(map[string]int)
	total := 0
	for _, order := range orders {
		for _, line := range order.ItemsOrdered {
			perItem[line.ItemName] += line.Quantity
			total += line.Quantity
		}
	}
	return perItem, total
}

// ValidateOrder checks a new merchandise order against the event's cumulative
// purchase caps and current variant stock, then snapshots the variant price
// onto each line. lines is only mutated when every check passes.
//
// Stock here is a courtesy check against the current event document; the
// binding stock gate runs again at payment approval.
func ValidateOrder(ev *Event, prior []Registration, lines []OrderLine) error {
	if len(lines) == 0 {
		return status.ErrNoItems
	}

	priorQty, priorTotal := QuantityByItem(prior)

	newQty := make(map[string]int)
	newTotal := 0
	for _, line := range lines {
		newQty[line.ItemName] += line.Quantity
		newTotal += line.Quantity
	}

	// A zero limit means uncapped.
	if ev.PurchaseLimit > 0 && priorTotal+newTotal > ev.PurchaseLimit {
		return status.E(status.ErrPurchaseLimit,
			"Total purchase limit exceeded. Max %d items per participant. You've already ordered %d.",
			ev.PurchaseLimit, priorTotal)
	}

	for itemName, qty := range newQty {
		if ev.PerItemLimit > 0 && priorQty[itemName]+qty > ev.PerItemLimit {
			return status.E(status.ErrPerItemLimit,
				"Per-item limit exceeded for %q. Max %d per participant. You've already ordered %d.",
				itemName, ev.PerItemLimit, priorQty[itemName])
		}
	}

	prices := make([]float64, len(lines))
	for i, line := range lines {
		item := ev.FindItem(line.ItemName)
		if item == nil {
			return status.E(status.ErrUnknownItem, "Item %q not found", line.ItemName)
		}
		variant := item.FindVariant(line.Size, line.Color)
		if variant == nil {
			return status.E(status.ErrUnknownVariant,
				"Variant %s/%s not found for %q", line.Size, line.Color, line.ItemName)
		}
		if variant.Stock < line.Quantity {
			return status.E(status.ErrInsufficientStock,
				"Insufficient stock for %q (%s/%s). Available: %d",
				line.ItemName, line.Size, line.Color, variant.Stock)
		}
		prices[i] = variant.Price
	}

	for i := range lines {
		lines[i].Price = prices[i]
	}
	return nil
}

// ApproveOrder re-validates every ordered line against the event's current
// merchandise (items and variants may have been edited since order placement)
// and decrements stock. The event is not mutated at all unless every line
// passes.
func ApproveOrder(ev *Event, lines []OrderLine) error {
	variants := make([]*Variant, len(lines))
	for i, line := range lines {
		item := ev.FindItem(line.ItemName)
		if item == nil {
			return status.E(status.ErrUnknownItem, "Item %q no longer exists", line.ItemName)
		}
		variant := item.FindVariant(line.Size, line.Color)
		if variant == nil {
			return status.E(status.ErrUnknownVariant,
				"Variant %s/%s no longer exists for %q", line.Size, line.Color, line.ItemName)
		}
		if variant.Stock < line.Quantity {
			return status.E(status.ErrInsufficientStock,
				"Insufficient stock for %q (%s/%s). Available: %d",
				line.ItemName, line.Size, line.Color, variant.Stock)
		}
		variants[i] = variant
	}

	for i, line := range lines {
		variants[i].Stock -= line.Quantity
	}
	return nil
}

// RestoreStock adds each cancelled line's quantity back onto the matching
// variant. Lines whose item or variant has since been removed or renamed are
// skipped; there is nothing left to restore onto.
func (e *Event) RestoreStock(lines []OrderLine) {
	for _, line := range lines {
		item := e.FindItem(line.ItemName)
		if item == nil {
			continue
		}
		variant := item.FindVariant(line.Size, line.Color)
		if variant == nil {
			continue
		}
		variant.Stock += line.Quantity
	}
}
