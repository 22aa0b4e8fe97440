package ledger

import (
	"context"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventhub/internal/status"
	"eventhub/models"
)

func TestReserveSeat_Granted(t *testing.T) {
	db, mock := redismock.NewClientMock()
	l := New(db)

	mock.ExpectEval(reserveSeatScript, []string{"ledger:capacity:evt1"}, 100, 42).
		SetVal([]interface{}{int64(1), int64(43)})

	count, err := l.ReserveSeat(context.Background(), "evt1", 42, 100)
	require.NoError(t, err)
	assert.Equal(t, 43, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveSeat_Full(t *testing.T) {
	db, mock := redismock.NewClientMock()
	l := New(db)

	mock.ExpectEval(reserveSeatScript, []string{"ledger:capacity:evt1"}, 100, 100).
		SetVal([]interface{}{int64(0), int64(100)})

	count, err := l.ReserveSeat(context.Background(), "evt1", 100, 100)
	assert.ErrorIs(t, err, status.ErrCapacityFull)
	assert.Equal(t, 100, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseSeat(t *testing.T) {
	db, mock := redismock.NewClientMock()
	l := New(db)

	mock.ExpectEval(releaseSeatScript, []string{"ledger:capacity:evt1"}).
		SetVal(int64(41))

	require.NoError(t, l.ReleaseSeat(context.Background(), "evt1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecrementStock_Granted(t *testing.T) {
	db, mock := redismock.NewClientMock()
	l := New(db)

	lines := []models.OrderLine{
		{ItemName: "Hoodie", Size: "M", Color: "black", Quantity: 2},
		{ItemName: "Mug", Size: "std", Color: "white", Quantity: 1},
	}
	keys := []string{
		"ledger:stock:evt1:Hoodie:M:black",
		"ledger:stock:evt1:Mug:std:white",
	}

	mock.ExpectEval(decrementStockScript, keys, 2, 1).
		SetVal([]interface{}{int64(1), int64(0), int64(0)})

	require.NoError(t, l.DecrementStock(context.Background(), "evt1", lines))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecrementStock_Insufficient(t *testing.T) {
	db, mock := redismock.NewClientMock()
	l := New(db)

	lines := []models.OrderLine{
		{ItemName: "Hoodie", Size: "L", Color: "black", Quantity: 3},
	}

	mock.ExpectEval(decrementStockScript, []string{"ledger:stock:evt1:Hoodie:L:black"}, 3).
		SetVal([]interface{}{int64(0), int64(1), int64(1)})

	err := l.DecrementStock(context.Background(), "evt1", lines)
	require.ErrorIs(t, err, status.ErrInsufficientStock)
	assert.Equal(t, `Insufficient stock for "Hoodie" (L/black). Available: 1`, err.Error())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecrementStock_Unsynced(t *testing.T) {
	db, mock := redismock.NewClientMock()
	l := New(db)

	lines := []models.OrderLine{
		{ItemName: "Hoodie", Size: "M", Color: "black", Quantity: 1},
	}

	mock.ExpectEval(decrementStockScript, []string{"ledger:stock:evt1:Hoodie:M:black"}, 1).
		SetVal([]interface{}{int64(-1), int64(1), int64(0)})

	err := l.DecrementStock(context.Background(), "evt1", lines)
	assert.ErrorIs(t, err, status.ErrStockUnsynced)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRestoreStock(t *testing.T) {
	db, mock := redismock.NewClientMock()
	l := New(db)

	lines := []models.OrderLine{
		{ItemName: "Hoodie", Size: "M", Color: "black", Quantity: 2},
	}

	mock.ExpectEval(restoreStockScript, []string{"ledger:stock:evt1:Hoodie:M:black"}, 2).
		SetVal(int64(1))

	require.NoError(t, l.RestoreStock(context.Background(), "evt1", lines))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSyncStock(t *testing.T) {
	db, mock := redismock.NewClientMock()
	l := New(db)

	items := []models.MerchandiseItem{
		{
			ItemName: "Hoodie",
			Variants: []models.Variant{
				{Size: "M", Color: "black", Stock: 10},
				{Size: "L", Color: "black", Stock: 4},
			},
		},
	}

	mock.ExpectSet("ledger:stock:evt1:Hoodie:M:black", 10, 0).SetVal("OK")
	mock.ExpectSet("ledger:stock:evt1:Hoodie:L:black", 4, 0).SetVal("OK")

	require.NoError(t, l.SyncStock(context.Background(), "evt1", items))
	assert.NoError(t, mock.ExpectationsWereMet())
}
