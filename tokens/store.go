package tokens

import "github.com/custodia-hq/treasury-wallet-api/datastore"

// Store is the interface required by the token service for data
// storage. This subsystem never writes token rows.
type Store interface {
	Tokens(datastore.ListOptions) ([]TreasuryToken, error)
	Token(id string) (TreasuryToken, error)
}
