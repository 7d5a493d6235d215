// Package keys provides management of the custodial fee payer key pool.
package keys

import (
	"database/sql"
	"time"

	"gorm.io/gorm"
)

// FeePayerKey is one custodial signing key, scoped to one network.
// Rows are created by an out-of-band generation process; this service
// reads them, claims usage and caches balances.
//
// Balance is an eventually consistent mirror of chain state and never
// authoritative for spend decisions.
type FeePayerKey struct {
	ID              int     `json:"id" gorm:"primaryKey"`
	PublicAddress   string  `json:"publicAddress" gorm:"index"`
	EncryptedSecret *string `json:"-"`
	// No column default: a gorm default would swallow an explicit
	// false on insert and store the row as active.
	IsActive   bool           `json:"isActive"`
	UsageCount uint64         `json:"usageCount"`
	LastUsedAt sql.NullTime   `json:"lastUsedAt"`
	Balance    float64        `json:"balance"`
	Label      string         `json:"label"`
	Network    string         `json:"network" gorm:"index"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
}

func (FeePayerKey) TableName() string {
	return "fee_payer_keys"
}

// HasSecret reports whether the row carries an encrypted secret and is
// therefore usable for signing.
func (k *FeePayerKey) HasSecret() bool {
	return k.EncryptedSecret != nil && *k.EncryptedSecret != ""
}

// SelectedKey is the selector's result. SecretKey is the decrypted
// signing key in base58 wire form. The selector is the only endpoint in
// the application allowed to return secret material, and only to
// internal or admin callers.
type SelectedKey struct {
	ID            int    `json:"id"`
	PublicAddress string `json:"publicAddress"`
	SecretKey     string `json:"secretKey"`
	Label         string `json:"label"`
}

// SelectRequest are the selector inputs. PreferLeastUsed defaults to
// true when unset.
type SelectRequest struct {
	ID              int   `json:"id,omitempty"`
	PreferLeastUsed *bool `json:"preferLeastUsed,omitempty"`
}
