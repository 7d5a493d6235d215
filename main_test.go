package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/custodia-hq/treasury-wallet-api/auth"
	"github.com/custodia-hq/treasury-wallet-api/configs"
	"github.com/custodia-hq/treasury-wallet-api/handlers"
	"github.com/custodia-hq/treasury-wallet-api/keys"
	"github.com/gagliardetto/solana-go"
	"github.com/gorilla/mux"
	"go.uber.org/goleak"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testInternalKey = "test-internal-api-key"

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testRouter(t *testing.T) (*mux.Router, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	cfg := &configs.Config{
		EncryptionKey:     "test-encryption-key",
		EncryptionKeyType: "xor-base58",
		SolanaNetwork:     "devnet",
		SolanaCommitment:  "confirmed",
	}

	keyStore := keys.NewGormStore(db)
	keyService, err := keys.NewService(cfg, keyStore)
	if err != nil {
		t.Fatal(err)
	}

	authService := auth.NewService(testInternalKey, auth.NewGormStore(db))
	feePayerHandler := handlers.NewFeePayers(keyService, nil)

	r := mux.NewRouter()
	rv := r.PathPrefix("/{apiVersion}").Subrouter()
	rv.HandleFunc("/health/ready", handlers.HandleHealthReady).Methods(http.MethodGet)

	ra := rv.NewRoute().Subrouter()
	ra.Use(handlers.UseAuth(authService))
	ra.Handle("/fee-payers", feePayerHandler.List()).Methods(http.MethodGet)
	ra.Handle("/fee-payers/select", feePayerHandler.Select()).Methods(http.MethodPost)

	return r, db
}

func seedTestKey(t *testing.T, db *gorm.DB, cfg *configs.Config) *solana.Wallet {
	t.Helper()

	crypter, err := keys.NewCrypter(cfg)
	if err != nil {
		t.Fatal(err)
	}

	wallet := solana.NewWallet()
	enc, err := crypter.Encrypt(wallet.PrivateKey)
	if err != nil {
		t.Fatal(err)
	}

	k := keys.FeePayerKey{
		PublicAddress:   wallet.PublicKey().String(),
		EncryptedSecret: &enc,
		IsActive:        true,
		Network:         "devnet",
	}
	if err := db.Create(&k).Error; err != nil {
		t.Fatal(err)
	}

	return wallet
}

func TestRouting(t *testing.T) {
	r, db := testRouter(t)
	cfg := &configs.Config{EncryptionKey: "test-encryption-key", EncryptionKeyType: "xor-base58"}
	wallet := seedTestKey(t, db, cfg)

	t.Run("health is reachable without credentials", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/health/ready", nil)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", rr.Code)
		}
	})

	t.Run("api routes reject missing credentials", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/fee-payers", nil)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("expected status 401, got %d", rr.Code)
		}
	})

	t.Run("internal callers can select a key", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/fee-payers/select", strings.NewReader("{}"))
		req.Header.Set("Authorization", "Bearer "+testInternalKey)
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}
		if !strings.Contains(rr.Body.String(), wallet.PublicKey().String()) {
			t.Error("expected the selected key's public address in the response")
		}
	})
}

func TestIdempotencyMiddleware(t *testing.T) {
	var served int
	inner := http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		served++
		rw.WriteHeader(http.StatusCreated)
	})

	h := handlers.UseIdempotency(inner, handlers.IdempotencyHandlerOptions{
		Expiry: time.Minute,
	}, handlers.NewIdempotencyStoreLocal())

	post := func(key string) int {
		req := httptest.NewRequest(http.MethodPost, "/v1/tokens/x/disbursements", strings.NewReader("{}"))
		if key != "" {
			req.Header.Set("Idempotency-Key", key)
		}
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}

	if code := post(""); code != http.StatusBadRequest {
		t.Errorf("expected status 400 without a key, got %d", code)
	}

	if code := post("once"); code != http.StatusCreated {
		t.Errorf("expected status 201 for a fresh key, got %d", code)
	}

	if code := post("once"); code != http.StatusConflict {
		t.Errorf("expected status 409 for a replayed key, got %d", code)
	}

	if served != 1 {
		t.Errorf("expected the handler to run once, ran %d times", served)
	}
}
