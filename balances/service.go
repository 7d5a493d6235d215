package balances

import (
	"context"
	"fmt"
	"sort"

	"github.com/custodia-hq/treasury-wallet-api/auth"
	"github.com/custodia-hq/treasury-wallet-api/configs"
	"github.com/custodia-hq/treasury-wallet-api/datastore"
	"github.com/custodia-hq/treasury-wallet-api/errors"
	"github.com/custodia-hq/treasury-wallet-api/ethereum"
	"github.com/custodia-hq/treasury-wallet-api/keys"
	"github.com/custodia-hq/treasury-wallet-api/solana_helpers"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	log "github.com/sirupsen/logrus"
)

// Service refreshes cached fee payer balances, one chain family at a
// time: the configured Solana network over one RPC connection, EVM
// networks through the static registry.
type Service struct {
	store      keys.Store
	sc         solana_helpers.Client
	registry   ethereum.Registry
	dial       ethereum.Dialer
	cfg        *configs.Config
	commitment rpc.CommitmentType
}

type ServiceOption func(*Service)

// WithEVMDialer overrides how EVM connections are opened. Tests use this
// to inject doubles.
func WithEVMDialer(d ethereum.Dialer) ServiceOption {
	return func(svc *Service) {
		svc.dial = d
	}
}

func NewService(cfg *configs.Config, store keys.Store, sc solana_helpers.Client, opts ...ServiceOption) (*Service, error) {
	registry, err := ethereum.ParseRegistry(cfg.EVMNetworks)
	if err != nil {
		return nil, err
	}

	svc := &Service{
		store:      store,
		sc:         sc,
		registry:   registry,
		dial:       ethereum.Dial,
		cfg:        cfg,
		commitment: solana_helpers.CommitmentFromString(cfg.SolanaCommitment),
	}

	for _, opt := range opts {
		opt(svc)
	}

	return svc, nil
}

// Refresh fetches the native balance of every stored key (optionally
// scoped to one network) and writes the confirmed values back. A failed
// fetch never aborts the batch and never overwrites the cached value.
func (s *Service) Refresh(ctx context.Context, caller auth.Caller, network string) (*Summary, error) {
	if !caller.Authorized() {
		return nil, errors.Forbidden(fmt.Errorf("caller may not refresh balances"))
	}

	kk, err := s.store.Keys(datastore.ParseListOptions(-1, 0))
	if err != nil {
		return nil, err
	}

	var (
		solanaKeys []keys.FeePayerKey
		evmKeys    = map[string][]keys.FeePayerKey{}
	)

	for _, k := range kk {
		if network != "" && k.Network != network {
			continue
		}
		if k.Network == s.cfg.SolanaNetwork {
			solanaKeys = append(solanaKeys, k)
		} else {
			evmKeys[k.Network] = append(evmKeys[k.Network], k)
		}
	}

	summary := &Summary{PerKey: []KeyResult{}}

	s.refreshSolana(ctx, solanaKeys, summary)

	for name, group := range evmKeys {
		s.refreshEVMNetwork(ctx, name, group, summary)
	}

	sort.Slice(summary.PerKey, func(i, j int) bool {
		return summary.PerKey[i].ID < summary.PerKey[j].ID
	})

	log.WithFields(log.Fields{
		"updated": summary.UpdatedCount,
		"failed":  summary.FailedCount,
		"network": network,
	}).Info("Refreshed fee payer balances")

	return summary, nil
}

func (s *Service) record(summary *Summary, k keys.FeePayerKey, balance float64, err error) {
	res := KeyResult{
		ID:         k.ID,
		Address:    k.PublicAddress,
		Network:    k.Network,
		OldBalance: k.Balance,
		NewBalance: k.Balance,
	}

	if err == nil {
		if updateErr := s.store.UpdateBalance(k.ID, balance); updateErr != nil {
			err = updateErr
		}
	}

	if err != nil {
		// Stale cached value is preserved so a zero balance remains
		// distinguishable from a failed fetch.
		res.Error = err.Error()
		summary.FailedCount++
	} else {
		res.NewBalance = balance
		res.Ok = true
		summary.UpdatedCount++
	}

	summary.PerKey = append(summary.PerKey, res)
}

func (s *Service) refreshSolana(ctx context.Context, kk []keys.FeePayerKey, summary *Summary) {
	for _, k := range kk {
		balance, err := s.fetchSolanaBalance(ctx, k)
		if err != nil {
			log.WithFields(log.Fields{
				"keyId":   k.ID,
				"address": k.PublicAddress,
				"error":   err,
			}).Warn("Balance fetch failed")
		}
		s.record(summary, k, balance, err)
	}
}

func (s *Service) fetchSolanaBalance(ctx context.Context, k keys.FeePayerKey) (float64, error) {
	pk, err := solana.PublicKeyFromBase58(k.PublicAddress)
	if err != nil {
		return 0, fmt.Errorf(`not a valid address: "%s"`, k.PublicAddress)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.ChainRequestTimeout)
	defer cancel()

	res, err := s.sc.GetBalance(ctx, pk, s.commitment)
	if err != nil {
		return 0, err
	}

	return solana_helpers.LamportsToSOL(res.Value), nil
}

func (s *Service) refreshEVMNetwork(ctx context.Context, name string, kk []keys.FeePayerKey, summary *Summary) {
	network, ok := s.registry.Lookup(name)
	if !ok {
		// Unknown networks are marked failed without any RPC call.
		err := fmt.Errorf(`unknown network: "%s"`, name)
		for _, k := range kk {
			s.record(summary, k, 0, err)
		}
		return
	}

	reader, err := s.dial(network)
	if err != nil {
		for _, k := range kk {
			s.record(summary, k, 0, err)
		}
		return
	}
	defer reader.Close()

	for _, k := range kk {
		balance, err := s.fetchEVMBalance(ctx, reader, k)
		if err != nil {
			log.WithFields(log.Fields{
				"keyId":   k.ID,
				"address": k.PublicAddress,
				"network": name,
				"error":   err,
			}).Warn("Balance fetch failed")
		}
		s.record(summary, k, balance, err)
	}
}

func (s *Service) fetchEVMBalance(ctx context.Context, reader ethereum.BalanceReader, k keys.FeePayerKey) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ChainRequestTimeout)
	defer cancel()

	return reader.NativeBalance(ctx, k.PublicAddress)
}
