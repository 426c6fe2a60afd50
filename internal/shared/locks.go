package shared

import "fmt"

// DocNumberLockKey builds the redis key guarding a company's document series.
func DocNumberLockKey(companyID int64, series string) string {
	return fmt.Sprintf("docseq:%d:%s:lock", companyID, series)
}

// ReconcileLockKey builds the redis key held while reconciling a company.
func ReconcileLockKey(companyID int64) string {
	return fmt.Sprintf("totals:reconcile:%d:lock", companyID)
}

// ProductCacheScope is the versioned cache scope for a company's product reads.
func ProductCacheScope(companyID int64) string {
	return fmt.Sprintf("products:%d", companyID)
}
