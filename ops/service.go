package ops

import (
	"context"
	std_errors "errors"
	"fmt"

	"github.com/custodia-hq/treasury-wallet-api/auth"
	"github.com/custodia-hq/treasury-wallet-api/configs"
	"github.com/custodia-hq/treasury-wallet-api/errors"
	"github.com/custodia-hq/treasury-wallet-api/keys"
	"github.com/custodia-hq/treasury-wallet-api/solana_helpers"
	"github.com/custodia-hq/treasury-wallet-api/system"
	"github.com/gagliardetto/solana-go"
	solana_system "github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
	"gorm.io/gorm"
)

const solDecimals = 9

// Service executes internal strategy operations with the operations
// wallet. Currently that is replenishing low balance fee payer keys
// with native currency.
type Service struct {
	wallet        *Wallet
	keyStore      keys.Store
	sc            solana_helpers.Client
	systemService *system.Service
	cfg           *configs.Config
	commitment    rpc.CommitmentType
	txRatelimiter ratelimit.Limiter
}

type ServiceOption func(*Service)

func WithTxRatelimiter(rl ratelimit.Limiter) ServiceOption {
	return func(svc *Service) {
		svc.txRatelimiter = rl
	}
}

func NewService(
	cfg *configs.Config,
	wallet *Wallet,
	keyStore keys.Store,
	sc solana_helpers.Client,
	systemService *system.Service,
	opts ...ServiceOption,
) *Service {
	svc := &Service{
		wallet:        wallet,
		keyStore:      keyStore,
		sc:            sc,
		systemService: systemService,
		cfg:           cfg,
		commitment:    solana_helpers.CommitmentFromString(cfg.SolanaCommitment),
		txRatelimiter: ratelimit.NewUnlimited(),
	}

	for _, opt := range opts {
		opt(svc)
	}

	return svc
}

// WalletAddress returns the operations wallet public address. Internal
// callers only; the secret itself has no accessor.
func (s *Service) WalletAddress(caller auth.Caller) (string, error) {
	if !caller.IsInternal() {
		return "", errors.Forbidden(fmt.Errorf("operations wallet is internal only"))
	}
	return s.wallet.Address().String(), nil
}

// FundResult is the response of a fee payer funding transfer.
type FundResult struct {
	Signature   string `json:"signature"`
	ExplorerUrl string `json:"explorerUrl"`
}

// FundFeePayer transfers native currency from the operations wallet to
// the given fee payer key's address. Internal callers only.
func (s *Service) FundFeePayer(ctx context.Context, caller auth.Caller, keyID int, amount string) (*FundResult, error) {
	if !caller.IsInternal() {
		return nil, errors.Forbidden(fmt.Errorf("fee payer funding is internal only"))
	}

	if s.systemService.IsMaintenanceMode() {
		return nil, errors.Unavailable(fmt.Errorf("service is in maintenance mode"))
	}

	lamports, err := solana_helpers.AmountToBaseUnits(amount, solDecimals)
	if err != nil {
		return nil, errors.InvalidRequest(err)
	}

	k, err := s.keyStore.Key(keyID)
	if err != nil {
		if std_errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound(fmt.Errorf("fee payer key %d not found", keyID))
		}
		return nil, err
	}

	recipient, err := solana_helpers.ValidateAddress(k.PublicAddress)
	if err != nil {
		return nil, err
	}

	bctx, cancel := context.WithTimeout(ctx, s.cfg.ChainRequestTimeout)
	blockhash, err := s.sc.GetLatestBlockhash(bctx, s.commitment)
	cancel()
	if err != nil {
		return nil, errors.ChainError(err)
	}

	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			solana_system.NewTransferInstruction(lamports, s.wallet.Address(), recipient).Build(),
		},
		blockhash.Value.Blockhash,
		solana.TransactionPayer(s.wallet.Address()),
	)
	if err != nil {
		return nil, errors.ChainError(err)
	}

	if _, err := tx.Sign(func(pk solana.PublicKey) *solana.PrivateKey {
		if pk.Equals(s.wallet.Address()) {
			return &s.wallet.priv
		}
		return nil
	}); err != nil {
		return nil, errors.ChainError(err)
	}

	s.txRatelimiter.Take()

	sig, err := solana_helpers.SendAndWait(ctx, s.sc, tx, s.commitment, s.cfg.TransactionTimeout)
	if err != nil {
		return nil, errors.ChainError(err)
	}

	log.WithFields(log.Fields{
		"keyId":     keyID,
		"recipient": k.PublicAddress,
		"lamports":  lamports,
		"signature": sig.String(),
	}).Info("Funded fee payer key")

	return &FundResult{
		Signature:   sig.String(),
		ExplorerUrl: solana_helpers.ExplorerURL(sig.String(), s.cfg.SolanaNetwork),
	}, nil
}
