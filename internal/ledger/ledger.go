// Package ledger is the fast-path capacity and stock accounting layer.
//
// The durable truth for capacity and stock lives in the event and
// registration documents; every mutation re-verifies inside a store
// transaction. The ledger mirrors those numbers into Redis and performs the
// check-and-claim step as a single Lua script, so concurrent requests are
// serialized before they ever reach the store and the classic read-then-write
// races (capacity check vs insert, stock check vs decrement) cannot oversell.
package ledger

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"eventhub/internal/status"
	"eventhub/models"
)

// reserveSeatScript claims one seat if the counter is still under the limit.
// The counter is seeded from the durable registration count on first use.
// Returns {1, count} on success, {0, count} when full.
const reserveSeatScript = `
local limit = tonumber(ARGV[1])
redis.call("SET", KEYS[1], ARGV[2], "NX")
local count = tonumber(redis.call("GET", KEYS[1]))
if count >= limit then
	return {0, count}
end
return {1, redis.call("INCR", KEYS[1])}
`

// releaseSeatScript undoes a reservation, never going below zero.
const releaseSeatScript = `
local count = tonumber(redis.call("GET", KEYS[1]) or "0")
if count <= 0 then
	return 0
end
return redis.call("DECR", KEYS[1])
`

// decrementStockScript decrements every variant key or none of them.
// Returns {1, 0, 0} on success, {0, i, available} when line i (1-based) has
// too little stock, {-1, i, 0} when line i's key has not been synced yet.
const decrementStockScript = `
for i = 1, #KEYS do
	local qty = tonumber(ARGV[i])
	local cur = tonumber(redis.call("GET", KEYS[i]) or "-1")
	if cur < 0 then
		return {-1, i, 0}
	end
	if cur < qty then
		return {0, i, cur}
	end
end
for i = 1, #KEYS do
	redis.call("DECRBY", KEYS[i], tonumber(ARGV[i]))
end
return {1, 0, 0}
`

// restoreStockScript adds quantities back onto variant keys that still exist.
// Unsynced keys are left alone; the durable document restore is authoritative.
const restoreStockScript = `
for i = 1, #KEYS do
	if redis.call("EXISTS", KEYS[i]) == 1 then
		redis.call("INCRBY", KEYS[i], tonumber(ARGV[i]))
	end
end
return 1
`

type Ledger struct {
	Redis *redis.Client
}

func New(redisClient *redis.Client) *Ledger {
	return &Ledger{Redis: redisClient}
}

func capacityKey(eventID string) string {
	return fmt.Sprintf("ledger:capacity:%s", eventID)
}

func stockKey(eventID, item, size, color string) string {
	return fmt.Sprintf("ledger:stock:%s:%s:%s:%s", eventID, item, size, color)
}

// ReserveSeat atomically claims one seat for eventID, seeding the counter
// from used (the durable registration count) when absent. Returns the
// counter value after the claim, or ErrCapacityFull.
func (l *Ledger) ReserveSeat(ctx context.Context, eventID string, used, limit int) (int, error) {
	res, err := l.Redis.Eval(ctx, reserveSeatScript,
		[]string{capacityKey(eventID)}, limit, used).Result()
	if err != nil {
		return 0, fmt.Errorf("ledger: reserve seat: %w", err)
	}

	vals, ok := res.([]interface{})
	if !ok || len(vals) != 2 {
		return 0, fmt.Errorf("ledger: reserve seat: unexpected reply %v", res)
	}
	granted, _ := vals[0].(int64)
	count, _ := vals[1].(int64)

	if granted != 1 {
		return int(count), status.ErrCapacityFull
	}
	return int(count), nil
}

// ReleaseSeat returns a previously reserved seat, e.g. when the store
// transaction fails after the reservation or a registration is cancelled.
func (l *Ledger) ReleaseSeat(ctx context.Context, eventID string) error {
	if err := l.Redis.Eval(ctx, releaseSeatScript, []string{capacityKey(eventID)}).Err(); err != nil {
		return fmt.Errorf("ledger: release seat: %w", err)
	}
	return nil
}

// SyncStock mirrors the durable per-variant stock into Redis. Called whenever
// the event document's merchandise is saved (create, edit, approval, cancel)
// so the gate always trails the document by at most one write.
func (l *Ledger) SyncStock(ctx context.Context, eventID string, items []models.MerchandiseItem) error {
	pipe := l.Redis.Pipeline()
	for _, item := range items {
		for _, v := range item.Variants {
			pipe.Set(ctx, stockKey(eventID, item.ItemName, v.Size, v.Color), v.Stock, 0)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("ledger: sync stock: %w", err)
	}
	return nil
}

// DecrementStock claims stock for every ordered line or none of them.
// Returns ErrInsufficientStock naming the limiting line and its remaining
// stock, or ErrStockUnsynced when a line's counter is missing (caller should
// SyncStock from the durable document and retry once).
func (l *Ledger) DecrementStock(ctx context.Context, eventID string, lines []models.OrderLine) error {
	keys := make([]string, len(lines))
	args := make([]interface{}, len(lines))
	for i, line := range lines {
		keys[i] = stockKey(eventID, line.ItemName, line.Size, line.Color)
		args[i] = line.Quantity
	}

	res, err := l.Redis.Eval(ctx, decrementStockScript, keys, args...).Result()
	if err != nil {
		return fmt.Errorf("ledger: decrement stock: %w", err)
	}

	vals, ok := res.([]interface{})
	if !ok || len(vals) != 3 {
		return fmt.Errorf("ledger: decrement stock: unexpected reply %v", res)
	}
	granted, _ := vals[0].(int64)
	idx, _ := vals[1].(int64)
	available, _ := vals[2].(int64)

	switch granted {
	case 1:
		return nil
	case -1:
		return status.ErrStockUnsynced
	default:
		line := lines[idx-1]
		return status.E(status.ErrInsufficientStock,
			"Insufficient stock for %q (%s/%s). Available: %d",
			line.ItemName, line.Size, line.Color, available)
	}
}

// RestoreStock returns claimed stock, e.g. when the approval transaction
// fails after the gate or a merchandise order is cancelled.
func (l *Ledger) RestoreStock(ctx context.Context, eventID string, lines []models.OrderLine) error {
	keys := make([]string, len(lines))
	args := make([]interface{}, len(lines))
	for i, line := range lines {
		keys[i] = stockKey(eventID, line.ItemName, line.Size, line.Color)
		args[i] = line.Quantity
	}

	if err := l.Redis.Eval(ctx, restoreStockScript, keys, args...).Err(); err != nil {
		return fmt.Errorf("ledger: restore stock: %w", err)
	}
	return nil
}

// Forget drops all ledger state for an event, freeing Redis once an event is
// closed. Counters are lazily re-seeded if the event ever comes back.
func (l *Ledger) Forget(ctx context.Context, eventID string) error {
	iter := l.Redis.Scan(ctx, 0, fmt.Sprintf("ledger:stock:%s:*", eventID), 0).Iterator()
	keys := []string{capacityKey(eventID)}
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("ledger: forget: %w", err)
	}
	if err := l.Redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("ledger: forget: %w", err)
	}
	return nil
}
