package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/custodia-hq/treasury-wallet-api/auth"
	"github.com/custodia-hq/treasury-wallet-api/balances"
	"github.com/custodia-hq/treasury-wallet-api/configs"
	"github.com/custodia-hq/treasury-wallet-api/datastore/gorm"
	"github.com/custodia-hq/treasury-wallet-api/handlers"
	"github.com/custodia-hq/treasury-wallet-api/handlers/middleware"
	"github.com/custodia-hq/treasury-wallet-api/keys"
	"github.com/custodia-hq/treasury-wallet-api/ops"
	"github.com/custodia-hq/treasury-wallet-api/system"
	"github.com/custodia-hq/treasury-wallet-api/tokens"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gomodule/redigo/redis"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
)

const version = "0.3.0"

var (
	sha1ver   string // sha1 revision used to build the program
	buildTime string // when the executable was built
)

func main() {
	var printVersion bool

	flag.BoolVar(&printVersion, "version", false, "if true, print version and exit")
	flag.Parse()

	if printVersion {
		fmt.Printf("v%s build on %s from sha1 %s\n", version, buildTime, sha1ver)
		os.Exit(0)
	}

	cfg, err := configs.Parse()
	if err != nil {
		panic(err)
	}

	runServer(cfg)

	os.Exit(0)
}

func runServer(cfg *configs.Config) {
	configs.ConfigureLogger(cfg.LogLevel)

	log.Info("Starting server")

	// Solana RPC client
	sc := rpc.New(cfg.SolanaRPCURL)
	defer func() {
		if err := sc.Close(); err != nil {
			log.Warn(err)
		}
		log.Info("Closed Solana RPC client")
	}()

	// Database
	db, err := gorm.New()
	if err != nil {
		log.Fatal(err)
	}
	defer gorm.Close(db)

	systemService := system.NewService(system.NewGormStore(db))
	authService := auth.NewService(cfg.InternalAPIKey, auth.NewGormStore(db))

	keyStore := keys.NewGormStore(db)
	keyService, err := keys.NewService(cfg, keyStore)
	if err != nil {
		log.Fatal(err)
	}

	balanceService, err := balances.NewService(cfg, keyStore, sc)
	if err != nil {
		log.Fatal(err)
	}

	txRatelimiter := ratelimit.New(cfg.TransactionMaxSendRate, ratelimit.WithoutSlack)

	// Operations wallet, loaded and validated once at startup
	opsWallet, err := ops.NewWallet(cfg)
	if err != nil {
		log.Fatal(err)
	}
	opsService := ops.NewService(
		cfg, opsWallet, keyStore, sc, systemService,
		ops.WithTxRatelimiter(txRatelimiter),
	)

	tokenService := tokens.NewService(
		cfg, tokens.NewGormStore(db), keyService, sc, systemService,
		tokens.WithTxRatelimiter(txRatelimiter),
	)

	// HTTP handling
	systemHandler := handlers.NewSystem(systemService)
	feePayerHandler := handlers.NewFeePayers(keyService, balanceService)
	tokenHandler := handlers.NewTokens(tokenService)
	opsHandler := handlers.NewOps(opsService)

	r := mux.NewRouter()

	// Catch the api version
	rv := r.PathPrefix("/{apiVersion}").Subrouter()

	// Debug
	rv.Handle("/debug", handlers.Debug("https://github.com/custodia-hq/treasury-wallet-api", sha1ver, buildTime)).Methods(http.MethodGet)

	// Health
	rv.HandleFunc("/health/ready", handlers.HandleHealthReady).Methods(http.MethodGet)
	rv.Handle("/health/liveness", handlers.Liveness(func() (interface{}, error) {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		if err := sqlDB.Ping(); err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"database":        "ok",
			"maintenanceMode": systemService.IsMaintenanceMode(),
		}, nil
	})).Methods(http.MethodGet)

	// All remaining routes require a resolved caller.
	ra := rv.NewRoute().Subrouter()
	ra.Use(handlers.UseAuth(authService), middleware.LoggingHandler)

	// System
	ra.Handle("/system/settings", systemHandler.GetSettings()).Methods(http.MethodGet)
	ra.Handle("/system/settings", systemHandler.SetSettings()).Methods(http.MethodPost)

	// Fee payer keys
	ra.Handle("/fee-payers", feePayerHandler.List()).Methods(http.MethodGet)                           // list
	ra.Handle("/fee-payers/select", feePayerHandler.Select()).Methods(http.MethodPost)                 // select, returns secret
	ra.Handle("/fee-payers/balances/refresh", feePayerHandler.RefreshBalances()).Methods(http.MethodPost) // refresh
	ra.Handle("/fee-payers/{keyId}/active", feePayerHandler.SetActive()).Methods(http.MethodPost)      // toggle

	// Treasury tokens
	ra.Handle("/tokens", tokenHandler.List()).Methods(http.MethodGet)                                    // list
	ra.Handle("/tokens/{tokenId}", tokenHandler.Details()).Methods(http.MethodGet)                       // details
	ra.Handle("/tokens/{tokenId}/disbursements", tokenHandler.CreateDisbursement()).Methods(http.MethodPost) // disburse

	// Ops
	ra.Handle("/ops/wallet", opsHandler.WalletAddress()).Methods(http.MethodGet)
	ra.Handle("/ops/fee-payers/{keyId}/fund", opsHandler.FundFeePayer()).Methods(http.MethodPost)

	h := http.TimeoutHandler(r, cfg.ServerRequestTimeout, "request timed out")
	h = handlers.UseCors(h)
	h = handlers.UseCompress(h)

	// Setup idempotency key middleware if it's enabled
	if !cfg.DisableIdempotencyMiddleware {
		var is handlers.IdempotencyStore
		switch cfg.IdempotencyMiddlewareDatabaseType {
		// Shared SQL/Gorm store (same as for main app)
		case handlers.IdempotencyStoreTypeShared.String():
			is = handlers.NewIdempotencyStoreGorm(db)
		// Redis, separate from app db
		case handlers.IdempotencyStoreTypeRedis.String():
			if cfg.IdempotencyMiddlewareRedisURL == "" {
				log.Fatal("idempotency middleware db set to redis but Redis URL is empty")
			}
			pool := &redis.Pool{
				MaxIdle:   80,
				MaxActive: 12000,
				Dial: func() (redis.Conn, error) {
					c, err := redis.DialURL(cfg.IdempotencyMiddlewareRedisURL)
					if err != nil {
						panic(err.Error())
					}
					return c, err
				},
			}

			client := pool.Get()

			defer func() {
				log.Info("Closing Redis client..")
				if err := client.Close(); err != nil {
					log.Warn(err)
				}
			}()

			is = handlers.NewIdempotencyStoreRedis(client)
		case handlers.IdempotencyStoreTypeLocal.String():
			is = handlers.NewIdempotencyStoreLocal()
		}

		h = handlers.UseIdempotency(h, handlers.IdempotencyHandlerOptions{
			Expiry: 1 * time.Hour,
			// Selection claims a key but sends nothing on-chain, a
			// retry simply claims another key.
			IgnorePaths: []string{"/v1/fee-payers/select", "/v1/fee-payers/balances/refresh"},
		}, is)
	}

	// Server boilerplate
	srv := &http.Server{
		Handler:      h,
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		WriteTimeout: 0, // Disabled, set cfg.ServerRequestTimeout instead
		ReadTimeout:  0, // Disabled, set cfg.ServerRequestTimeout instead
	}

	// Run our server in a goroutine so that it doesn't block.
	go func() {
		log.
			WithFields(log.Fields{
				"host": cfg.Host,
				"port": cfg.Port,
			}).
			Info("Server listening")
		if err := srv.ListenAndServe(); err != nil {
			log.Warn(err)
		}
	}()

	// Trap interupt or sigterm and gracefully shutdown the server
	c := make(chan os.Signal, 1)
	// We'll accept graceful shutdowns when quit via SIGINT (Ctrl+C)
	// SIGKILL, SIGQUIT or SIGTERM (Ctrl+/) will not be caught.
	signal.Notify(c, os.Interrupt)

	// Block until we receive our signal.
	sig := <-c

	log.Infof("Got signal: %s. Shutting down..", sig)

	// Create a deadline to wait for.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*15)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warnf("Error in server shutdown: %s", err)
	}
}
