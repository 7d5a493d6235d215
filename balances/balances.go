// Package balances keeps the cached native balances of the fee payer
// pool synchronized with chain state.
package balances

// KeyResult reports the refresh outcome for one pool key.
type KeyResult struct {
	ID         int     `json:"id"`
	Address    string  `json:"address"`
	Network    string  `json:"network"`
	OldBalance float64 `json:"oldBalance"`
	NewBalance float64 `json:"newBalance"`
	Ok         bool    `json:"ok"`
	Error      string  `json:"error,omitempty"`
}

// Summary is the refresh envelope. Partial failure is data, not an
// error: a failed key appears here with Ok false and its previous
// cached balance untouched.
type Summary struct {
	UpdatedCount int         `json:"updatedCount"`
	FailedCount  int         `json:"failedCount"`
	PerKey       []KeyResult `json:"perKey"`
}
