// Package solana_helpers provides convenience functions for Solana interaction.
package solana_helpers

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-hq/treasury-wallet-api/errors"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/jpillora/backoff"
)

const LamportsPerSOL = solana.LAMPORTS_PER_SOL

// Client is the subset of the Solana RPC client this application uses.
// It exists so services can take a test double.
type Client interface {
	GetBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetBalanceResult, error)
	GetAccountInfo(ctx context.Context, account solana.PublicKey) (*rpc.GetAccountInfoResult, error)
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
	SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error)
	GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, signatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error)
}

// ValidateAddress checks that the input is a structurally valid base58
// Solana address.
func ValidateAddress(address string) (solana.PublicKey, error) {
	pk, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return solana.PublicKey{}, errors.InvalidRequest(fmt.Errorf(`not a valid address: "%s"`, address))
	}
	return pk, nil
}

// PrivateKeyFromBytes validates that raw is a structurally valid ed25519
// secret key and returns it. Used after decryption, since the at-rest
// cipher has no integrity check of its own.
func PrivateKeyFromBytes(raw []byte) (solana.PrivateKey, error) {
	if len(raw) != 64 {
		return nil, fmt.Errorf("invalid secret key length: %d", len(raw))
	}
	return solana.PrivateKey(raw), nil
}

// CommitmentFromString maps a configuration value to a commitment level,
// defaulting to confirmed.
func CommitmentFromString(s string) rpc.CommitmentType {
	switch s {
	case "processed":
		return rpc.CommitmentProcessed
	case "finalized":
		return rpc.CommitmentFinalized
	default:
		return rpc.CommitmentConfirmed
	}
}

func commitmentReached(status rpc.ConfirmationStatusType, target rpc.CommitmentType) bool {
	switch target {
	case rpc.CommitmentProcessed:
		return status == rpc.ConfirmationStatusProcessed ||
			status == rpc.ConfirmationStatusConfirmed ||
			status == rpc.ConfirmationStatusFinalized
	case rpc.CommitmentFinalized:
		return status == rpc.ConfirmationStatusFinalized
	default:
		return status == rpc.ConfirmationStatusConfirmed ||
			status == rpc.ConfirmationStatusFinalized
	}
}

// WaitForConfirmation blocks until
// - the signature reaches the target commitment level
// - the transaction fails on chain
// - an error occurs while fetching signature statuses
// - timeout is reached
func WaitForConfirmation(ctx context.Context, c Client, sig solana.Signature, commitment rpc.CommitmentType, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	b := &backoff.Backoff{
		Min:    500 * time.Millisecond,
		Max:    5 * time.Second,
		Factor: 2,
		Jitter: true,
	}

	for {
		res, err := c.GetSignatureStatuses(ctx, false, sig)
		if err != nil {
			return err
		}

		if res != nil && len(res.Value) > 0 && res.Value[0] != nil {
			status := res.Value[0]
			if status.Err != nil {
				return fmt.Errorf("transaction failed on chain: %v", status.Err)
			}
			if commitmentReached(status.ConfirmationStatus, commitment) {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("confirmation timed out for %s: %w", sig, ctx.Err())
		case <-time.After(b.Duration()):
		}
	}
}

// SendAndWait submits the transaction and waits for it to reach the
// target commitment level.
func SendAndWait(ctx context.Context, c Client, tx *solana.Transaction, commitment rpc.CommitmentType, timeout time.Duration) (solana.Signature, error) {
	sig, err := c.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: commitment,
	})
	if err != nil {
		return solana.Signature{}, err
	}

	if err := WaitForConfirmation(ctx, c, sig, commitment, timeout); err != nil {
		return sig, err
	}

	return sig, nil
}

// ExplorerURL returns the explorer link for a transaction signature.
// Networks other than mainnet get a cluster query parameter.
func ExplorerURL(signature, network string) string {
	switch network {
	case "mainnet", "mainnet-beta":
		return fmt.Sprintf("https://explorer.solana.com/tx/%s", signature)
	default:
		return fmt.Sprintf("https://explorer.solana.com/tx/%s?cluster=%s", signature, network)
	}
}

// LamportsToSOL converts a base unit balance to display units.
func LamportsToSOL(lamports uint64) float64 {
	return float64(lamports) / float64(LamportsPerSOL)
}
