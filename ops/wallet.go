// Package ops holds the privileged operations wallet and the fee payer
// replenishment flow built on it.
package ops

import (
	"fmt"

	"github.com/custodia-hq/treasury-wallet-api/configs"
	"github.com/custodia-hq/treasury-wallet-api/solana_helpers"
	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// Wallet is the backend only operations signing key. It is constructed
// once at startup and read only afterwards, safe for concurrent use.
// Rotating the credential requires a process restart.
//
// The secret must never cross the trust boundary: no handler returns it
// and it is excluded from all serialization.
type Wallet struct {
	priv solana.PrivateKey
}

// NewWallet loads and validates the operations wallet key from
// configuration. A missing or malformed key is fatal to startup.
func NewWallet(cfg *configs.Config) (*Wallet, error) {
	raw, err := base58.Decode(cfg.OpsWalletKey)
	if err != nil {
		return nil, fmt.Errorf("malformed operations wallet key: %w", err)
	}

	priv, err := solana_helpers.PrivateKeyFromBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("operations wallet key: %w", err)
	}

	return &Wallet{priv: priv}, nil
}

// Address returns the wallet's derived public key.
func (w *Wallet) Address() solana.PublicKey {
	return w.priv.PublicKey()
}
