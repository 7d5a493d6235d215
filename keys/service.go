package keys

import (
	std_errors "errors"
	"fmt"

	"github.com/custodia-hq/treasury-wallet-api/auth"
	"github.com/custodia-hq/treasury-wallet-api/configs"
	"github.com/custodia-hq/treasury-wallet-api/datastore"
	"github.com/custodia-hq/treasury-wallet-api/errors"
	"github.com/custodia-hq/treasury-wallet-api/keys/encryption"
	"github.com/custodia-hq/treasury-wallet-api/solana_helpers"
	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Service manages the custodial fee payer pool: selection under the
// load balancing policy, secret decryption and admin reads.
type Service struct {
	store   Store
	crypter encryption.Crypter
}

// NewCrypter constructs the configured at-rest cipher.
func NewCrypter(cfg *configs.Config) (encryption.Crypter, error) {
	switch cfg.EncryptionKeyType {
	case encryption.KeyTypeXORBase58:
		return encryption.NewXORCrypter([]byte(cfg.EncryptionKey)), nil
	case encryption.KeyTypeAESGCM:
		return encryption.NewAESCrypter([]byte(cfg.EncryptionKey)), nil
	default:
		return nil, fmt.Errorf("encryption key type '%s' not supported", cfg.EncryptionKeyType)
	}
}

func NewService(cfg *configs.Config, store Store) (*Service, error) {
	crypter, err := NewCrypter(cfg)
	if err != nil {
		return nil, err
	}
	return &Service{store: store, crypter: crypter}, nil
}

// Select claims one active fee payer key for the caller and returns it
// with the decrypted secret. Only internal and admin callers may select.
//
// Usage is accounted at claim time, before any transaction is signed or
// confirmed; the counter reflects claimed work, not on-chain success.
func (s *Service) Select(caller auth.Caller, req SelectRequest) (*SelectedKey, error) {
	if !caller.Authorized() {
		return nil, errors.Forbidden(fmt.Errorf("caller may not access the fee payer pool"))
	}

	var (
		k   FeePayerKey
		err error
	)

	switch {
	case req.ID != 0:
		k, err = s.store.ClaimKey(req.ID)
	case req.PreferLeastUsed == nil || *req.PreferLeastUsed:
		k, err = s.store.ClaimLeastUsed()
	default:
		k, err = s.store.ClaimAny()
	}

	if err != nil {
		if std_errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound(fmt.Errorf("no matching active fee payer key"))
		}
		return nil, err
	}

	priv, err := s.DecryptKey(k)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"keyId":      k.ID,
		"address":    k.PublicAddress,
		"usageCount": k.UsageCount,
		"caller":     caller.Kind.String(),
	}).Debug("Fee payer key selected")

	return &SelectedKey{
		ID:            k.ID,
		PublicAddress: k.PublicAddress,
		SecretKey:     base58.Encode(priv),
		Label:         k.Label,
	}, nil
}

// DecryptKey decrypts a pool row's secret and validates it structurally:
// the at-rest cipher carries no integrity tag, so the decrypted bytes
// are only trusted once they form a valid keypair whose public key
// re-derives the stored address.
func (s *Service) DecryptKey(k FeePayerKey) (solana.PrivateKey, error) {
	if !k.HasSecret() {
		return nil, fmt.Errorf("fee payer key %d has no secret", k.ID)
	}

	raw, err := s.crypter.Decrypt(*k.EncryptedSecret)
	if err != nil {
		return nil, fmt.Errorf("unable to decrypt fee payer key %d: %w", k.ID, err)
	}

	priv, err := solana_helpers.PrivateKeyFromBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("fee payer key %d: %w", k.ID, err)
	}

	if priv.PublicKey().String() != k.PublicAddress {
		return nil, fmt.Errorf("decrypted key %d does not derive its stored address", k.ID)
	}

	return priv, nil
}

// ActiveKeys lists the active rows holding a secret, for callers that
// resolve treasury ownership across the pool.
func (s *Service) ActiveKeys() ([]FeePayerKey, error) {
	return s.store.ActiveKeys()
}

// List returns pool rows for admin screens. Secrets stay encrypted and
// are never serialized.
func (s *Service) List(caller auth.Caller, limit, offset int) ([]FeePayerKey, error) {
	if !caller.Authorized() {
		return nil, errors.Forbidden(fmt.Errorf("caller may not access the fee payer pool"))
	}
	o := datastore.ParseListOptions(limit, offset)
	return s.store.Keys(o)
}

// SetActive toggles a pool row. Admin only.
func (s *Service) SetActive(caller auth.Caller, id int, active bool) (*FeePayerKey, error) {
	if caller.Kind != auth.AdminUser {
		return nil, errors.Forbidden(fmt.Errorf("only admins may toggle fee payer keys"))
	}

	k, err := s.store.SetActive(id, active)
	if err != nil {
		if std_errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound(fmt.Errorf("fee payer key %d not found", id))
		}
		return nil, err
	}

	log.WithFields(log.Fields{"keyId": id, "active": active}).Info("Fee payer key toggled")

	return &k, nil
}
