package tokens

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// chainClientMock implements solana_helpers.Client for tests. It serves
// account existence from a set, confirms every submitted transaction
// immediately and counts every RPC call.
type chainClientMock struct {
	existingAccounts map[string]bool

	infoCalls      int
	blockhashCalls int
	sendCalls      int
	statusCalls    int
	balanceCalls   int

	lastTx *solana.Transaction

	// records whether the blockhash fetch carried its own deadline
	blockhashDeadline bool
}

func newChainClientMock() *chainClientMock {
	return &chainClientMock{existingAccounts: map[string]bool{}}
}

func (c *chainClientMock) totalCalls() int {
	return c.infoCalls + c.blockhashCalls + c.sendCalls + c.statusCalls + c.balanceCalls
}

func (c *chainClientMock) GetBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetBalanceResult, error) {
	c.balanceCalls++
	return &rpc.GetBalanceResult{}, nil
}

func (c *chainClientMock) GetAccountInfo(ctx context.Context, account solana.PublicKey) (*rpc.GetAccountInfoResult, error) {
	c.infoCalls++
	if c.existingAccounts[account.String()] {
		return &rpc.GetAccountInfoResult{Value: &rpc.Account{}}, nil
	}
	return nil, rpc.ErrNotFound
}

func (c *chainClientMock) GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error) {
	c.blockhashCalls++
	_, c.blockhashDeadline = ctx.Deadline()
	return &rpc.GetLatestBlockhashResult{
		Value: &rpc.LatestBlockhashResult{
			Blockhash: solana.Hash(solana.NewWallet().PublicKey()),
		},
	}, nil
}

func (c *chainClientMock) SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error) {
	c.sendCalls++
	c.lastTx = tx
	return tx.Signatures[0], nil
}

func (c *chainClientMock) GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, signatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error) {
	c.statusCalls++
	return &rpc.GetSignatureStatusesResult{
		Value: []*rpc.SignatureStatusesResult{
			{ConfirmationStatus: rpc.ConfirmationStatusFinalized},
		},
	}, nil
}
