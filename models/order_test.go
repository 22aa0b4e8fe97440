package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventhub/internal/status"
)

func merchEvent() *Event {
	return &Event{
		ID:            "evt1",
		Type:          EventTypeMerchandise,
		PurchaseLimit: 5,
		PerItemLimit:  2,
		MerchandiseItems: []MerchandiseItem{
			{
				ItemName: "Hoodie",
				Variants: []Variant{
					{Size: "M", Color: "black", Stock: 10, Price: 899},
					{Size: "L", Color: "black", Stock: 1, Price: 899},
				},
			},
			{
				ItemName: "Mug",
				Variants: []Variant{
					{Size: "std", Color: "white", Stock: 50, Price: 249},
				},
			},
		},
	}
}

func TestValidateOrder_SnapshotsPrices(t *testing.T) {
	ev := merchEvent()
	lines := []OrderLine{
		{ItemName: "Hoodie", Size: "M", Color: "black", Quantity: 1},
		{ItemName: "Mug", Size: "std", Color: "white", Quantity: 2},
	}

	err := ValidateOrder(ev, nil, lines)
	require.NoError(t, err)

	assert.Equal(t, 899.0, lines[0].Price)
	assert.Equal(t, 249.0, lines[1].Price)
}

func TestValidateOrder_EmptyOrder(t *testing.T) {
	err := ValidateOrder(merchEvent(), nil, nil)
	assert.ErrorIs(t, err, status.ErrNoItems)
}

func TestValidateOrder_CumulativePurchaseLimit(t *testing.T) {
	ev := merchEvent()
	prior := []Registration{
		{ItemsOrdered: []OrderLine{{ItemName: "Mug", Size: "std", Color: "white", Quantity: 2}}},
		{ItemsOrdered: []OrderLine{{ItemName: "Hoodie", Size: "M", Color: "black", Quantity: 2}}},
	}
	lines := []OrderLine{{ItemName: "Mug", Size: "std", Color: "white", Quantity: 2}}

	err := ValidateOrder(ev, prior, lines)
	require.ErrorIs(t, err, status.ErrPurchaseLimit)
	assert.Equal(t,
		"Total purchase limit exceeded. Max 5 items per participant. You've already ordered 4.",
		err.Error())
}

func TestValidateOrder_CumulativePerItemLimit(t *testing.T) {
	ev := merchEvent()
	prior := []Registration{
		{ItemsOrdered: []OrderLine{{ItemName: "Mug", Size: "std", Color: "white", Quantity: 2}}},
	}
	lines := []OrderLine{{ItemName: "Mug", Size: "std", Color: "white", Quantity: 1}}

	err := ValidateOrder(ev, prior, lines)
	require.ErrorIs(t, err, status.ErrPerItemLimit)
	assert.Equal(t,
		`Per-item limit exceeded for "Mug". Max 2 per participant. You've already ordered 2.`,
		err.Error())
}

func TestValidateOrder_ZeroLimitsAreUncapped(t *testing.T) {
	ev := merchEvent()
	ev.PurchaseLimit = 0
	ev.PerItemLimit = 0
	lines := []OrderLine{{ItemName: "Mug", Size: "std", Color: "white", Quantity: 4}}

	assert.NoError(t, ValidateOrder(ev, nil, lines))
}

func TestValidateOrder_UnknownItemAndVariant(t *testing.T) {
	ev := merchEvent()

	err := ValidateOrder(ev, nil, []OrderLine{{ItemName: "Cap", Size: "M", Color: "black", Quantity: 1}})
	require.ErrorIs(t, err, status.ErrUnknownItem)
	assert.Equal(t, `Item "Cap" not found`, err.Error())

	err = ValidateOrder(ev, nil, []OrderLine{{ItemName: "Hoodie", Size: "XL", Color: "red", Quantity: 1}})
	require.ErrorIs(t, err, status.ErrUnknownVariant)
	assert.Equal(t, `Variant XL/red not found for "Hoodie"`, err.Error())
}

func TestValidateOrder_InsufficientStock(t *testing.T) {
	ev := merchEvent()
	lines := []OrderLine{{ItemName: "Hoodie", Size: "L", Color: "black", Quantity: 2}}

	err := ValidateOrder(ev, nil, lines)
	require.ErrorIs(t, err, status.ErrInsufficientStock)
	assert.Equal(t, `Insufficient stock for "Hoodie" (L/black). Available: 1`, err.Error())
	// Failed validation must not snapshot prices.
	assert.Equal(t, 0.0, lines[0].Price)
}

func TestApproveOrder_DecrementsAllOrNothing(t *testing.T) {
	ev := merchEvent()
	lines := []OrderLine{
		{ItemName: "Hoodie", Size: "M", Color: "black", Quantity: 2},
		{ItemName: "Mug", Size: "std", Color: "white", Quantity: 1},
	}

	require.NoError(t, ApproveOrder(ev, lines))
	assert.Equal(t, 8, ev.MerchandiseItems[0].Variants[0].Stock)
	assert.Equal(t, 49, ev.MerchandiseItems[1].Variants[0].Stock)
}

func TestApproveOrder_StaleLineAbortsWithoutMutation(t *testing.T) {
	ev := merchEvent()
	lines := []OrderLine{
		{ItemName: "Mug", Size: "std", Color: "white", Quantity: 1},
		{ItemName: "Hoodie", Size: "L", Color: "black", Quantity: 5},
	}

	err := ApproveOrder(ev, lines)
	require.ErrorIs(t, err, status.ErrInsufficientStock)
	// The first line passed its check but nothing may be decremented.
	assert.Equal(t, 50, ev.MerchandiseItems[1].Variants[0].Stock)
}

func TestApproveOrder_RemovedVariant(t *testing.T) {
	ev := merchEvent()
	err := ApproveOrder(ev, []OrderLine{{ItemName: "Hoodie", Size: "S", Color: "black", Quantity: 1}})
	require.ErrorIs(t, err, status.ErrUnknownVariant)
	assert.Equal(t, `Variant S/black no longer exists for "Hoodie"`, err.Error())
}

func TestRestoreStock_SkipsRemovedVariants(t *testing.T) {
	ev := merchEvent()
	ev.RestoreStock([]OrderLine{
		{ItemName: "Hoodie", Size: "M", Color: "black", Quantity: 3},
		{ItemName: "Cap", Size: "M", Color: "black", Quantity: 1},
		{ItemName: "Hoodie", Size: "XS", Color: "black", Quantity: 1},
	})

	assert.Equal(t, 13, ev.MerchandiseItems[0].Variants[0].Stock)
	assert.Equal(t, 1, ev.MerchandiseItems[0].Variants[1].Stock)
}

func TestQuantityByItem(t *testing.T) {
	orders := []Registration{
		{ItemsOrdered: []OrderLine{
			{ItemName: "Hoodie", Quantity: 2},
			{ItemName: "Mug", Quantity: 1},
		}},
		{ItemsOrdered: []OrderLine{
			{ItemName: "Hoodie", Quantity: 1},
		}},
	}

	perItem, total := QuantityByItem(orders)
	assert.Equal(t, 4, total)
	assert.Equal(t, 3, perItem["Hoodie"])
	assert.Equal(t, 1, perItem["Mug"])
}
