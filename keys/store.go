package keys

import "github.com/custodia-hq/treasury-wallet-api/datastore"

// Store is the interface required by the key pool for data storage.
//
// The Claim* operations combine candidate selection with the usage
// accounting write (usage counter increment, last used timestamp) in a
// single atomic step so that concurrent selections cannot claim the
// same minimum-usage row twice.
type Store interface {
	Keys(datastore.ListOptions) ([]FeePayerKey, error)
	Key(id int) (FeePayerKey, error)
	// ActiveKeys returns the active rows that carry an encrypted secret.
	ActiveKeys() ([]FeePayerKey, error)
	// ClaimKey claims the given row if it is active and has a secret.
	ClaimKey(id int) (FeePayerKey, error)
	// ClaimLeastUsed claims the candidate with the smallest usage
	// counter, ties broken by smallest id.
	ClaimLeastUsed() (FeePayerKey, error)
	// ClaimAny claims any candidate row (smallest id first).
	ClaimAny() (FeePayerKey, error)
	UpdateBalance(id int, balance float64) error
	SetActive(id int, active bool) (FeePayerKey, error)
}
