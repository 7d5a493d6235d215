// Package tokens provides treasury token records and disbursements from
// their treasury accounts.
package tokens

import (
	"time"

	"gorm.io/gorm"
)

const (
	ChainSolana = "solana"

	DeploymentStatusDeployed = "deployed"
)

// TreasuryToken is one deployed asset token. Rows are created and
// updated by the out-of-scope deployment flow; this service only reads
// them.
//
// TreasuryAccount ownership is not stored: it is re-derived from the
// key pool on every disbursement.
type TreasuryToken struct {
	ID               string         `json:"id" gorm:"primaryKey"`
	Chain            string         `json:"chain" gorm:"index"`
	Network          string         `json:"network"`
	DeploymentStatus string         `json:"deploymentStatus"`
	MintAddress      string         `json:"mintAddress"`
	TreasuryAccount  string         `json:"treasuryAccount"`
	Decimals         uint8          `json:"decimals"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
	DeletedAt        gorm.DeletedAt `json:"-" gorm:"index"`
}

func (TreasuryToken) TableName() string {
	return "treasury_tokens"
}

// DisbursementRequest is the payload of a treasury disbursement.
type DisbursementRequest struct {
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`
}

// DisbursementResult is the response of a confirmed disbursement.
type DisbursementResult struct {
	Signature        string `json:"signature"`
	RecipientAccount string `json:"recipientAccount"`
	ExplorerUrl      string `json:"explorerUrl"`
}
