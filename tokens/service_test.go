package tokens

import (
	"context"
	"testing"
	"time"

	"github.com/custodia-hq/treasury-wallet-api/auth"
	"github.com/custodia-hq/treasury-wallet-api/configs"
	"github.com/custodia-hq/treasury-wallet-api/errors"
	"github.com/custodia-hq/treasury-wallet-api/keys"
	"github.com/custodia-hq/treasury-wallet-api/system"
	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var internalCaller = auth.Caller{Kind: auth.Internal}

type testEnv struct {
	db      *gorm.DB
	sc      *chainClientMock
	service *Service
	ks      *keys.Service
	crypter interface {
		Encrypt([]byte) (string, error)
	}
}

func testConfig() *configs.Config {
	return &configs.Config{
		EncryptionKey:       "test-encryption-key",
		EncryptionKeyType:   "xor-base58",
		SolanaNetwork:       "devnet",
		SolanaCommitment:    "confirmed",
		ChainRequestTimeout: time.Second,
		TransactionTimeout:  5 * time.Second,
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatal(err)
	}

	cfg := testConfig()

	ks, err := keys.NewService(cfg, keys.NewGormStore(db))
	if err != nil {
		t.Fatal(err)
	}

	crypter, err := keys.NewCrypter(cfg)
	if err != nil {
		t.Fatal(err)
	}

	sc := newChainClientMock()
	systemService := system.NewService(system.NewGormStore(db))
	service := NewService(cfg, NewGormStore(db), ks, sc, systemService)

	return &testEnv{db: db, sc: sc, service: service, ks: ks, crypter: crypter}
}

// seedFeePayer inserts an active custodial key and returns its wallet.
func (e *testEnv) seedFeePayer(t *testing.T, id int) *solana.Wallet {
	t.Helper()

	wallet := solana.NewWallet()
	enc, err := e.crypter.Encrypt(wallet.PrivateKey)
	if err != nil {
		t.Fatal(err)
	}

	k := keys.FeePayerKey{
		ID:              id,
		PublicAddress:   wallet.PublicKey().String(),
		EncryptedSecret: &enc,
		IsActive:        true,
		Network:         "devnet",
	}
	if err := e.db.Create(&k).Error; err != nil {
		t.Fatal(err)
	}

	return wallet
}

// seedToken inserts a deployed token whose treasury account is the
// derived holding account of owner, and returns its id and mint.
func (e *testEnv) seedToken(t *testing.T, owner solana.PublicKey, decimals uint8) (string, solana.PublicKey) {
	t.Helper()

	mint := solana.NewWallet().PublicKey()
	treasury, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		t.Fatal(err)
	}

	id := uuid.NewString()
	token := TreasuryToken{
		ID:               id,
		Chain:            ChainSolana,
		Network:          "devnet",
		DeploymentStatus: DeploymentStatusDeployed,
		MintAddress:      mint.String(),
		TreasuryAccount:  treasury.String(),
		Decimals:         decimals,
	}
	if err := e.db.Create(&token).Error; err != nil {
		t.Fatal(err)
	}

	return id, mint
}

func TestDisburse(t *testing.T) {
	t.Run("end to end with a brand new recipient", func(t *testing.T) {
		env := newTestEnv(t)
		owner := env.seedFeePayer(t, 1)
		tokenID, _ := env.seedToken(t, owner.PublicKey(), 6)

		recipient := solana.NewWallet().PublicKey()

		res, err := env.service.Disburse(context.Background(), internalCaller, tokenID, DisbursementRequest{
			Recipient: recipient.String(),
			Amount:    "10.5",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if res.Signature == "" {
			t.Error("expected a signature")
		}

		mint := solana.MustPublicKeyFromBase58(env.mustToken(t, tokenID).MintAddress)
		wantAccount, _, _ := solana.FindAssociatedTokenAddress(recipient, mint)
		if res.RecipientAccount != wantAccount.String() {
			t.Errorf("expected recipient account %s, got %s", wantAccount, res.RecipientAccount)
		}

		// Absent holding account: create + transfer in one transaction.
		tx := env.sc.lastTx
		if tx == nil {
			t.Fatal("no transaction was submitted")
		}
		if got := len(tx.Message.Instructions); got != 2 {
			t.Errorf("expected 2 instructions, got %d", got)
		}

		// Signed solely by the resolved treasury owner, who also pays.
		if len(tx.Signatures) != 1 {
			t.Errorf("expected 1 signature, got %d", len(tx.Signatures))
		}
		if payer := tx.Message.AccountKeys[0]; !payer.Equals(owner.PublicKey()) {
			t.Errorf("expected fee payer %s, got %s", owner.PublicKey(), payer)
		}
		if !env.sc.blockhashDeadline {
			t.Error("expected the blockhash fetch to carry a deadline")
		}
	})

	t.Run("existing recipient account gets a bare transfer", func(t *testing.T) {
		env := newTestEnv(t)
		owner := env.seedFeePayer(t, 1)
		tokenID, mint := env.seedToken(t, owner.PublicKey(), 6)

		recipient := solana.NewWallet().PublicKey()
		holding, _, _ := solana.FindAssociatedTokenAddress(recipient, mint)
		env.sc.existingAccounts[holding.String()] = true

		_, err := env.service.Disburse(context.Background(), internalCaller, tokenID, DisbursementRequest{
			Recipient: recipient.String(),
			Amount:    "1",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if got := len(env.sc.lastTx.Message.Instructions); got != 1 {
			t.Errorf("expected 1 instruction, got %d", got)
		}
	})

	t.Run("resolves the owning key across the pool", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedFeePayer(t, 1)
		ownerB := env.seedFeePayer(t, 2)
		env.seedFeePayer(t, 3)
		tokenID, _ := env.seedToken(t, ownerB.PublicKey(), 2)

		_, err := env.service.Disburse(context.Background(), internalCaller, tokenID, DisbursementRequest{
			Recipient: solana.NewWallet().PublicKey().String(),
			Amount:    "0.5",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if payer := env.sc.lastTx.Message.AccountKeys[0]; !payer.Equals(ownerB.PublicKey()) {
			t.Errorf("expected signer %s, got %s", ownerB.PublicKey(), payer)
		}
	})

	t.Run("no owner match fails before any chain call", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedFeePayer(t, 1)
		// Treasury owned by a key that is not in the pool.
		tokenID, _ := env.seedToken(t, solana.NewWallet().PublicKey(), 6)

		_, err := env.service.Disburse(context.Background(), internalCaller, tokenID, DisbursementRequest{
			Recipient: solana.NewWallet().PublicKey().String(),
			Amount:    "1",
		})
		assertStatus(t, err, 404)

		if env.sc.totalCalls() != 0 {
			t.Errorf("expected zero chain calls, got %d", env.sc.totalCalls())
		}
	})

	t.Run("validation fails fast in order", func(t *testing.T) {
		env := newTestEnv(t)
		owner := env.seedFeePayer(t, 1)
		tokenID, _ := env.seedToken(t, owner.PublicKey(), 6)
		recipient := solana.NewWallet().PublicKey().String()

		cases := []struct {
			name       string
			tokenID    string
			recipient  string
			amount     string
			wantStatus int
		}{
			{"missing recipient", tokenID, "", "1", 400},
			{"missing amount", tokenID, recipient, "", 400},
			{"zero amount", tokenID, recipient, "0", 400},
			{"negative amount", tokenID, recipient, "-5", 400},
			{"malformed amount", tokenID, recipient, "one", 400},
			{"malformed recipient", tokenID, "not-an-address", "1", 400},
			{"malformed token id", "not-a-uuid", recipient, "1", 400},
			{"unknown token", uuid.NewString(), recipient, "1", 404},
		}

		for _, c := range cases {
			t.Run(c.name, func(t *testing.T) {
				_, err := env.service.Disburse(context.Background(), internalCaller, c.tokenID, DisbursementRequest{
					Recipient: c.recipient,
					Amount:    c.amount,
				})
				assertStatus(t, err, c.wantStatus)
			})
		}

		if env.sc.totalCalls() != 0 {
			t.Errorf("expected zero chain calls for rejected requests, got %d", env.sc.totalCalls())
		}
	})

	t.Run("rejects unsupported chain combinations", func(t *testing.T) {
		env := newTestEnv(t)
		owner := env.seedFeePayer(t, 1)
		tokenID, _ := env.seedToken(t, owner.PublicKey(), 6)

		env.db.Model(&TreasuryToken{ID: tokenID}).Update("network", "mainnet")

		_, err := env.service.Disburse(context.Background(), internalCaller, tokenID, DisbursementRequest{
			Recipient: solana.NewWallet().PublicKey().String(),
			Amount:    "1",
		})
		assertStatus(t, err, 400)
	})

	t.Run("rejects tokens without a treasury account", func(t *testing.T) {
		env := newTestEnv(t)
		owner := env.seedFeePayer(t, 1)
		tokenID, _ := env.seedToken(t, owner.PublicKey(), 6)

		env.db.Model(&TreasuryToken{ID: tokenID}).Update("treasury_account", "")

		_, err := env.service.Disburse(context.Background(), internalCaller, tokenID, DisbursementRequest{
			Recipient: solana.NewWallet().PublicKey().String(),
			Amount:    "1",
		})
		assertStatus(t, err, 400)
	})

	t.Run("refuses in maintenance mode", func(t *testing.T) {
		env := newTestEnv(t)
		owner := env.seedFeePayer(t, 1)
		tokenID, _ := env.seedToken(t, owner.PublicKey(), 6)

		settings, err := system.NewGormStore(env.db).GetSettings()
		if err != nil {
			t.Fatal(err)
		}
		settings.MaintenanceMode = true
		if err := system.NewGormStore(env.db).SaveSettings(settings); err != nil {
			t.Fatal(err)
		}

		_, err = env.service.Disburse(context.Background(), internalCaller, tokenID, DisbursementRequest{
			Recipient: solana.NewWallet().PublicKey().String(),
			Amount:    "1",
		})
		assertStatus(t, err, 503)
	})

	t.Run("rejects unauthorized callers", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.service.Disburse(context.Background(), auth.Caller{}, uuid.NewString(), DisbursementRequest{
			Recipient: "x", Amount: "1",
		})
		assertStatus(t, err, 403)
	})
}

func (e *testEnv) mustToken(t *testing.T, id string) TreasuryToken {
	t.Helper()
	var token TreasuryToken
	if err := e.db.First(&token, "id = ?", id).Error; err != nil {
		t.Fatal(err)
	}
	return token
}

func assertStatus(t *testing.T, err error, want int) {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error")
	}
	reqErr, ok := err.(*errors.RequestError)
	if !ok {
		t.Fatalf("expected a RequestError, got %T: %v", err, err)
	}
	if reqErr.StatusCode != want {
		t.Errorf("expected status %d, got %d", want, reqErr.StatusCode)
	}
}
