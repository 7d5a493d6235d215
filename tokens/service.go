package tokens

import (
	"context"
	std_errors "errors"
	"fmt"

	"github.com/custodia-hq/treasury-wallet-api/auth"
	"github.com/custodia-hq/treasury-wallet-api/configs"
	"github.com/custodia-hq/treasury-wallet-api/datastore"
	"github.com/custodia-hq/treasury-wallet-api/errors"
	"github.com/custodia-hq/treasury-wallet-api/keys"
	"github.com/custodia-hq/treasury-wallet-api/solana_helpers"
	"github.com/custodia-hq/treasury-wallet-api/system"
	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
	"gorm.io/gorm"
)

// Service reads treasury token records and executes disbursements from
// their treasury accounts to arbitrary recipients.
type Service struct {
	store         Store
	ks            *keys.Service
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
	store Store,
	ks *keys.Service,
	sc solana_helpers.Client,
	systemService *system.Service,
	opts ...ServiceOption,
) *Service {
	svc := &Service{
		store:         store,
		ks:            ks,
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

// List returns token records for authorized callers.
func (s *Service) List(caller auth.Caller, limit, offset int) ([]TreasuryToken, error) {
	if !caller.Authorized() {
		return nil, errors.Forbidden(fmt.Errorf("caller may not list treasury tokens"))
	}
	return s.store.Tokens(datastore.ParseListOptions(limit, offset))
}

// Details returns one token record.
func (s *Service) Details(caller auth.Caller, tokenID string) (*TreasuryToken, error) {
	if !caller.Authorized() {
		return nil, errors.Forbidden(fmt.Errorf("caller may not read treasury tokens"))
	}

	t, err := s.token(tokenID)
	if err != nil {
		return nil, err
	}

	return &t, nil
}

func (s *Service) token(tokenID string) (TreasuryToken, error) {
	if _, err := uuid.Parse(tokenID); err != nil {
		return TreasuryToken{}, errors.InvalidRequest(fmt.Errorf(`not a valid token id: "%s"`, tokenID))
	}

	t, err := s.store.Token(tokenID)
	if err != nil {
		if std_errors.Is(err, gorm.ErrRecordNotFound) {
			return TreasuryToken{}, errors.NotFound(fmt.Errorf("token %s not found", tokenID))
		}
		return TreasuryToken{}, err
	}

	return t, nil
}

// Disburse transfers tokens from the token's treasury account to the
// recipient's derived holding account, creating the holding account in
// the same transaction when it does not exist yet. The custodial key
// that owns the treasury account signs as both fee payer and transfer
// authority. The call blocks until the transaction reaches the
// configured commitment level.
func (s *Service) Disburse(ctx context.Context, caller auth.Caller, tokenID string, req DisbursementRequest) (*DisbursementResult, error) {
	if !caller.Authorized() {
		return nil, errors.Forbidden(fmt.Errorf("caller may not disburse"))
	}

	if s.systemService.IsMaintenanceMode() {
		return nil, errors.Unavailable(fmt.Errorf("service is in maintenance mode"))
	}

	// Validation is fail fast, in fixed order: field presence, amount,
	// recipient, token record, supported chain combination, record
	// completeness.
	if tokenID == "" || req.Recipient == "" || req.Amount == "" {
		return nil, errors.InvalidRequest(fmt.Errorf("tokenId, recipient and amount are required"))
	}

	if d, err := decimal.NewFromString(req.Amount); err != nil || !d.IsPositive() {
		return nil, errors.InvalidRequest(fmt.Errorf(`amount has to be a positive number, got "%s"`, req.Amount))
	}

	recipient, err := solana_helpers.ValidateAddress(req.Recipient)
	if err != nil {
		return nil, err
	}

	t, err := s.token(tokenID)
	if err != nil {
		return nil, err
	}

	if t.Chain != ChainSolana || t.Network != s.cfg.SolanaNetwork || t.DeploymentStatus != DeploymentStatusDeployed {
		return nil, errors.InvalidRequest(fmt.Errorf(
			"token %s is not a deployed %s/%s token", t.ID, ChainSolana, s.cfg.SolanaNetwork,
		))
	}

	if t.MintAddress == "" || t.TreasuryAccount == "" {
		return nil, errors.InvalidRequest(fmt.Errorf("token %s has no mint or treasury account", t.ID))
	}

	mint, err := solana.PublicKeyFromBase58(t.MintAddress)
	if err != nil {
		return nil, errors.InvalidRequest(fmt.Errorf("token %s has a malformed mint address", t.ID))
	}

	treasury, err := solana.PublicKeyFromBase58(t.TreasuryAccount)
	if err != nil {
		return nil, errors.InvalidRequest(fmt.Errorf("token %s has a malformed treasury account", t.ID))
	}

	// The treasury account is the derived holding account of exactly one
	// custodial key. Ownership is re-derived across the active pool; no
	// chain RPC happens before a signer is resolved.
	owner, signer, err := s.resolveTreasuryOwner(mint, treasury)
	if err != nil {
		return nil, err
	}
	// DecryptKey guarantees the signer derives the row's stored address.
	ownerPK := signer.PublicKey()

	rawAmount, err := solana_helpers.AmountToBaseUnits(req.Amount, t.Decimals)
	if err != nil {
		return nil, errors.InvalidRequest(err)
	}

	recipientAccount, _, err := solana.FindAssociatedTokenAddress(recipient, mint)
	if err != nil {
		return nil, errors.ChainError(fmt.Errorf("unable to derive recipient account: %w", err))
	}

	instructions, err := s.buildInstructions(ctx, ownerPK, recipient, recipientAccount, mint, treasury, rawAmount)
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
		instructions,
		blockhash.Value.Blockhash,
		solana.TransactionPayer(ownerPK),
	)
	if err != nil {
		return nil, errors.ChainError(err)
	}

	if _, err := tx.Sign(func(pk solana.PublicKey) *solana.PrivateKey {
		if pk.Equals(ownerPK) {
			return &signer
		}
		return nil
	}); err != nil {
		return nil, errors.ChainError(err)
	}

	s.txRatelimiter.Take()

	sig, err := solana_helpers.SendAndWait(ctx, s.sc, tx, s.commitment, s.cfg.TransactionTimeout)
	if err != nil {
		log.WithFields(log.Fields{
			"tokenId":   t.ID,
			"recipient": req.Recipient,
			"error":     err,
		}).Warn("Disbursement failed")
		return nil, errors.ChainError(err)
	}

	log.WithFields(log.Fields{
		"tokenId":          t.ID,
		"keyId":            owner.ID,
		"recipient":        req.Recipient,
		"recipientAccount": recipientAccount.String(),
		"rawAmount":        rawAmount,
		"signer":           ownerPK.String(),
		"signature":        sig.String(),
	}).Info("Disbursement confirmed")

	return &DisbursementResult{
		Signature:        sig.String(),
		RecipientAccount: recipientAccount.String(),
		ExplorerUrl:      solana_helpers.ExplorerURL(sig.String(), s.cfg.SolanaNetwork),
	}, nil
}

// resolveTreasuryOwner finds the active custodial key whose derived
// holding account for the mint equals the stored treasury account, and
// returns it with its decrypted signing key.
func (s *Service) resolveTreasuryOwner(mint, treasury solana.PublicKey) (keys.FeePayerKey, solana.PrivateKey, error) {
	kk, err := s.ks.ActiveKeys()
	if err != nil {
		return keys.FeePayerKey{}, nil, err
	}

	for _, k := range kk {
		ownerPK, err := solana.PublicKeyFromBase58(k.PublicAddress)
		if err != nil {
			log.WithFields(log.Fields{"keyId": k.ID}).Warn("Skipping key with malformed address")
			continue
		}

		derived, _, err := solana.FindAssociatedTokenAddress(ownerPK, mint)
		if err != nil {
			continue
		}

		if derived.Equals(treasury) {
			signer, err := s.ks.DecryptKey(k)
			if err != nil {
				return keys.FeePayerKey{}, nil, err
			}
			return k, signer, nil
		}
	}

	return keys.FeePayerKey{}, nil, errors.NotFound(
		fmt.Errorf("no active custodial key owns treasury account %s", treasury),
	)
}

// buildInstructions assembles the transfer, prepending a holding account
// creation when the recipient's derived account does not exist so that
// creation and transfer succeed or fail atomically.
func (s *Service) buildInstructions(
	ctx context.Context,
	ownerPK, recipient, recipientAccount, mint, treasury solana.PublicKey,
	rawAmount uint64,
) ([]solana.Instruction, error) {
	exists, err := s.accountExists(ctx, recipientAccount)
	if err != nil {
		return nil, errors.ChainError(err)
	}

	var instructions []solana.Instruction

	if !exists {
		instructions = append(instructions,
			associatedtokenaccount.NewCreateInstruction(ownerPK, recipient, mint).Build(),
		)
	}

	instructions = append(instructions,
		token.NewTransferInstruction(rawAmount, treasury, recipientAccount, ownerPK, nil).Build(),
	)

	return instructions, nil
}

func (s *Service) accountExists(ctx context.Context, account solana.PublicKey) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ChainRequestTimeout)
	defer cancel()

	res, err := s.sc.GetAccountInfo(ctx, account)
	if err != nil {
		if std_errors.Is(err, rpc.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	return res != nil && res.Value != nil, nil
}
