package keys

import (
	"testing"

	"github.com/custodia-hq/treasury-wallet-api/auth"
	"github.com/custodia-hq/treasury-wallet-api/configs"
	"github.com/custodia-hq/treasury-wallet-api/errors"
	"github.com/gagliardetto/solana-go"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	internalCaller = auth.Caller{Kind: auth.Internal}
	adminCaller    = auth.Caller{Kind: auth.AdminUser, UserID: "user-1", Roles: []string{auth.RoleAdmin}}
)

func testConfig() *configs.Config {
	return &configs.Config{
		EncryptionKey:     "test-encryption-key",
		EncryptionKeyType: "xor-base58",
	}
}

func testService(t *testing.T) (*Service, *GormStore) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatal(err)
	}

	store := NewGormStore(db)

	service, err := NewService(testConfig(), store)
	if err != nil {
		t.Fatal(err)
	}

	return service, store
}

// seedKey inserts a pool row with a freshly generated, properly
// encrypted secret and returns its address.
func seedKey(t *testing.T, s *Service, store *GormStore, id int, usageCount uint64, active bool, network string) string {
	t.Helper()

	wallet := solana.NewWallet()
	enc, err := s.crypter.Encrypt(wallet.PrivateKey)
	if err != nil {
		t.Fatal(err)
	}

	k := FeePayerKey{
		ID:              id,
		PublicAddress:   wallet.PublicKey().String(),
		EncryptedSecret: &enc,
		IsActive:        active,
		UsageCount:      usageCount,
		Network:         network,
	}
	if err := store.db.Create(&k).Error; err != nil {
		t.Fatal(err)
	}

	return k.PublicAddress
}

func TestSelect(t *testing.T) {
	t.Run("prefers the least used key with deterministic tie-break", func(t *testing.T) {
		service, store := testService(t)
		seedKey(t, service, store, 1, 3, true, "devnet")
		addr2 := seedKey(t, service, store, 2, 1, true, "devnet")
		seedKey(t, service, store, 3, 1, true, "devnet")

		res, err := service.Select(internalCaller, SelectRequest{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// Ties break on smallest id: key 2, never the count-3 key.
		if res.ID != 2 || res.PublicAddress != addr2 {
			t.Errorf("expected key 2 (%s), got key %d (%s)", addr2, res.ID, res.PublicAddress)
		}
	})

	t.Run("claim records usage before returning", func(t *testing.T) {
		service, store := testService(t)
		seedKey(t, service, store, 1, 0, true, "devnet")

		if _, err := service.Select(internalCaller, SelectRequest{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		k, err := store.Key(1)
		if err != nil {
			t.Fatal(err)
		}
		if k.UsageCount != 1 {
			t.Errorf("expected usage count 1, got %d", k.UsageCount)
		}
		if !k.LastUsedAt.Valid {
			t.Error("expected last used timestamp to be set")
		}
	})

	t.Run("explicit id bypasses ordering", func(t *testing.T) {
		service, store := testService(t)
		seedKey(t, service, store, 1, 0, true, "devnet")
		seedKey(t, service, store, 2, 99, true, "devnet")

		res, err := service.Select(adminCaller, SelectRequest{ID: 2})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.ID != 2 {
			t.Errorf("expected key 2, got %d", res.ID)
		}
	})

	t.Run("explicit inactive id is not found regardless of other keys", func(t *testing.T) {
		service, store := testService(t)
		seedKey(t, service, store, 1, 0, true, "devnet")
		seedKey(t, service, store, 2, 0, false, "devnet")

		_, err := service.Select(internalCaller, SelectRequest{ID: 2})
		assertStatus(t, err, 404)
	})

	t.Run("inactive keys are never candidates", func(t *testing.T) {
		service, store := testService(t)
		seedKey(t, service, store, 1, 0, false, "devnet")

		_, err := service.Select(internalCaller, SelectRequest{})
		assertStatus(t, err, 404)
	})

	t.Run("keys without a secret are never candidates", func(t *testing.T) {
		service, store := testService(t)
		k := FeePayerKey{ID: 1, PublicAddress: solana.NewWallet().PublicKey().String(), IsActive: true}
		if err := store.db.Create(&k).Error; err != nil {
			t.Fatal(err)
		}

		_, err := service.Select(internalCaller, SelectRequest{})
		assertStatus(t, err, 404)
	})

	t.Run("rejects unauthorized callers", func(t *testing.T) {
		service, _ := testService(t)
		_, err := service.Select(auth.Caller{}, SelectRequest{})
		assertStatus(t, err, 403)
	})

	t.Run("returned secret reproduces the stored address", func(t *testing.T) {
		service, store := testService(t)
		addr := seedKey(t, service, store, 1, 0, true, "devnet")

		res, err := service.Select(internalCaller, SelectRequest{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		priv, err := solana.PrivateKeyFromBase58(res.SecretKey)
		if err != nil {
			t.Fatal(err)
		}
		if priv.PublicKey().String() != addr {
			t.Error("secret does not derive the stored address")
		}
	})

	t.Run("rejects a secret that does not match its address", func(t *testing.T) {
		service, store := testService(t)

		// Secret encrypted correctly but stored against a foreign address.
		enc, err := service.crypter.Encrypt(solana.NewWallet().PrivateKey)
		if err != nil {
			t.Fatal(err)
		}
		k := FeePayerKey{
			ID:              1,
			PublicAddress:   solana.NewWallet().PublicKey().String(),
			EncryptedSecret: &enc,
			IsActive:        true,
		}
		if err := store.db.Create(&k).Error; err != nil {
			t.Fatal(err)
		}

		if _, err := service.Select(internalCaller, SelectRequest{}); err == nil {
			t.Error("expected an error")
		}
	})
}

func TestStoreInactiveRow(t *testing.T) {
	service, store := testService(t)

	seedKey(t, service, store, 1, 0, false, "devnet")

	k, err := store.Key(1)
	if err != nil {
		t.Fatal(err)
	}
	if k.IsActive {
		t.Error("row created with IsActive=false was stored as active")
	}
}

func TestSetActive(t *testing.T) {
	t.Run("admin toggles a key", func(t *testing.T) {
		service, store := testService(t)
		seedKey(t, service, store, 1, 0, true, "devnet")

		k, err := service.SetActive(adminCaller, 1, false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if k.IsActive {
			t.Error("expected key to be inactive")
		}
	})

	t.Run("internal callers may not toggle", func(t *testing.T) {
		service, store := testService(t)
		seedKey(t, service, store, 1, 0, true, "devnet")

		_, err := service.SetActive(internalCaller, 1, false)
		assertStatus(t, err, 403)
	})

	t.Run("unknown id", func(t *testing.T) {
		service, _ := testService(t)
		_, err := service.SetActive(adminCaller, 42, false)
		assertStatus(t, err, 404)
	})
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
