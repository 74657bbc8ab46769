package cache

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

func AnalyticsKey(userID uuid.UUID, year, month int) string {
	return fmt.Sprintf("analytics:%s:%04d-%02d", userID, year, month)
}

func AccountsKey(userID uuid.UUID) string {
	return "accounts:" + userID.String()
}

// LedgerKeys lists the entries a transaction write on the given dates makes
// stale: the account list and the analytics month of every date.
func LedgerKeys(userID uuid.UUID, dates ...time.Time) []string {
	keys := []string{AccountsKey(userID)}
	for _, d := range dates {
		k := AnalyticsKey(userID, d.Year(), int(d.Month()))
		if !slices.Contains(keys, k) {
			keys = append(keys, k)
		}
	}
	return keys
}
