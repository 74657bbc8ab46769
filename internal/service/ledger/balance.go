package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/pocket-ledger/internal/domain"
)

// lockAccountsInOrder takes row locks in ascending id order so concurrent
// units touching the same pair of accounts cannot deadlock. Duplicate ids are
// locked once.
func lockAccountsInOrder(ctx context.Context, tx *sql.Tx, accounts accountRepo, userID uuid.UUID, ids ...uuid.UUID) (map[uuid.UUID]*domain.Account, error) {
	sorted := sortedUnique(ids)

	result := make(map[uuid.UUID]*domain.Account, len(sorted))
	for _, id := range sorted {
		acct, err := accounts.GetForUpdate(ctx, tx, userID, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("lockAccountsInOrder: %s: %w", id, domain.ErrAccountNotOwned)
			}
			return nil, fmt.Errorf("lockAccountsInOrder: %w", err)
		}
		result[id] = acct
	}
	return result, nil
}

// applyDeltas writes balance += delta for every locked account with a
// non-zero delta, in the same order the locks were taken.
func applyDeltas(ctx context.Context, tx *sql.Tx, accounts accountRepo, locked map[uuid.UUID]*domain.Account, deltas map[uuid.UUID]decimal.Decimal) error {
	ids := make([]uuid.UUID, 0, len(deltas))
	for id := range deltas {
		ids = append(ids, id)
	}

	for _, id := range sortedUnique(ids) {
		delta := deltas[id]
		if delta.IsZero() {
			continue
		}
		acct, ok := locked[id]
		if !ok {
			return fmt.Errorf("applyDeltas: account %s not locked", id)
		}
		if err := accounts.UpdateBalance(ctx, tx, id, acct.CurrentBalance.Add(delta), acct.Version+1); err != nil {
			return fmt.Errorf("applyDeltas: %w", err)
		}
	}
	return nil
}

// transitionDeltas is the per-account balance change of replacing the old
// effect with the new one. When both land on the same account the net is
// applied once.
func transitionDeltas(oldAccount uuid.UUID, oldSigned decimal.Decimal, newAccount uuid.UUID, newSigned decimal.Decimal) map[uuid.UUID]decimal.Decimal {
	deltas := map[uuid.UUID]decimal.Decimal{}
	deltas[oldAccount] = deltas[oldAccount].Sub(oldSigned)
	deltas[newAccount] = deltas[newAccount].Add(newSigned)
	return deltas
}

func sortedUnique(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].String() < out[j].String()
	})
	return out
}
