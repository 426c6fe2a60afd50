package inventory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"
)

const qtyEpsilon = 0.0001

// Store is the transactional persistence the ledger writes through.
type Store interface {
	// BalanceForUpdate returns the locked balance row, or a zero balance
	// when the product has never been stocked in the warehouse.
	BalanceForUpdate(ctx context.Context, companyID, warehouseID, productID int64) (Balance, error)
	UpsertBalance(ctx context.Context, b Balance) error
	InsertCardEntry(ctx context.Context, companyID int64, e StockCardEntry) error
	EntriesFor(ctx context.Context, companyID int64, refType string, refID int64) ([]StockCardEntry, error)
}

// Ledger applies movements to balances.
type Ledger struct {
	allowNegative bool
	now           func() time.Time
}

func NewLedger(allowNegative bool) *Ledger {
	return &Ledger{allowNegative: allowNegative, now: time.Now}
}

type balanceKey struct{ warehouse, product int64 }

// Post applies movements in order and records a card entry for each. Balance
// rows are locked in warehouse/product order before any change so concurrent
// postings touching the same rows cannot deadlock.
func (l *Ledger) Post(ctx context.Context, store Store, ref Ref, movements []Movement) ([]StockCardEntry, error) {
	for _, m := range movements {
		if math.Abs(m.Qty) < qtyEpsilon {
			return nil, ErrInvalidQuantity
		}
		if m.Qty > 0 && m.UnitCost < 0 {
			return nil, ErrInvalidUnitCost
		}
	}

	balances, err := l.lock(ctx, store, ref.CompanyID, movements)
	if err != nil {
		return nil, err
	}

	postedAt := l.now().UTC()
	entries := make([]StockCardEntry, 0, len(movements))
	for _, m := range movements {
		k := balanceKey{m.WarehouseID, m.ProductID}
		b := balances[k]
		newQty := b.Qty + m.Qty
		if !l.allowNegative && newQty < -qtyEpsilon {
			return nil, fmt.Errorf("product %d in warehouse %d: %w", m.ProductID, m.WarehouseID, ErrNegativeStock)
		}

		unitCost := b.AvgCost
		if m.Qty > 0 {
			unitCost = m.UnitCost
			if newQty > qtyEpsilon {
				b.AvgCost = (math.Max(b.Qty, 0)*b.AvgCost + m.Qty*m.UnitCost) / (math.Max(b.Qty, 0) + m.Qty)
			}
		}
		if math.Abs(newQty) < qtyEpsilon {
			newQty = 0
		}
		if newQty <= 0 {
			b.AvgCost = 0
		}
		b.Qty = newQty
		balances[k] = b

		entries = append(entries, StockCardEntry{
			WarehouseID: m.WarehouseID,
			ProductID:   m.ProductID,
			RefType:     ref.Type,
			RefID:       ref.ID,
			DocNumber:   ref.DocNumber,
			PostedAt:    postedAt,
			QtyIn:       math.Max(m.Qty, 0),
			QtyOut:      math.Max(-m.Qty, 0),
			BalanceQty:  newQty,
			UnitCost:    unitCost,
			BalanceCost: b.AvgCost,
			Note:        m.Note,
		})
	}

	for _, b := range balances {
		if err := store.UpsertBalance(ctx, b); err != nil {
			return nil, fmt.Errorf("upsert balance: %w", err)
		}
	}
	for _, e := range entries {
		if err := store.InsertCardEntry(ctx, ref.CompanyID, e); err != nil {
			return nil, fmt.Errorf("insert stock card entry: %w", err)
		}
	}
	return entries, nil
}

// Reverse undoes everything posted for ref. Outbound entries come back at the
// cost they left with; inbound entries leave at the current average.
func (l *Ledger) Reverse(ctx context.Context, store Store, ref Ref, reversal Ref) ([]StockCardEntry, error) {
	posted, err := store.EntriesFor(ctx, ref.CompanyID, ref.Type, ref.ID)
	if err != nil {
		return nil, err
	}
	if len(posted) == 0 {
		return nil, ErrNothingToReverse
	}
	movements := make([]Movement, 0, len(posted))
	for i := len(posted) - 1; i >= 0; i-- {
		e := posted[i]
		movements = append(movements, Movement{
			WarehouseID: e.WarehouseID,
			ProductID:   e.ProductID,
			Qty:         e.QtyOut - e.QtyIn,
			UnitCost:    e.UnitCost,
			Note:        "reversal of " + ref.DocNumber,
		})
	}
	return l.Post(ctx, store, reversal, movements)
}

func (l *Ledger) lock(ctx context.Context, store Store, companyID int64, movements []Movement) (map[balanceKey]Balance, error) {
	keys := make([]balanceKey, 0, len(movements))
	seen := make(map[balanceKey]bool, len(movements))
	for _, m := range movements {
		k := balanceKey{m.WarehouseID, m.ProductID}
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].warehouse != keys[j].warehouse {
			return keys[i].warehouse < keys[j].warehouse
		}
		return keys[i].product < keys[j].product
	})

	balances := make(map[balanceKey]Balance, len(keys))
	for _, k := range keys {
		b, err := store.BalanceForUpdate(ctx, companyID, k.warehouse, k.product)
		if err != nil {
			return nil, fmt.Errorf("lock balance: %w", err)
		}
		b.CompanyID, b.WarehouseID, b.ProductID = companyID, k.warehouse, k.product
		balances[k] = b
	}
	return balances, nil
}
