// Package configs handles the configuration of the application.
package configs

import (
	"time"

	"github.com/caarlos0/env/v6"
	log "github.com/sirupsen/logrus"
)

const envPrefix = "TREASURY_WALLET_"

type Config struct {
	// -- Server --

	Host                 string        `env:"HOST"`
	Port                 int           `env:"PORT" envDefault:"3000"`
	ServerRequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" envDefault:"60s"`
	LogLevel             string        `env:"LOG_LEVEL" envDefault:"info"`

	// -- Secrets --

	// EncryptionKey is the symmetric key used to decrypt the custodial
	// fee payer secrets at rest.
	EncryptionKey string `env:"ENCRYPTION_KEY,notEmpty"`
	// EncryptionKeyType selects the cipher, "xor-base58" or "aes-gcm".
	EncryptionKeyType string `env:"ENCRYPTION_KEY_TYPE" envDefault:"xor-base58"`
	// OpsWalletKey is the base58 encoded secret key of the privileged
	// operations wallet. Strictly backend internal.
	OpsWalletKey string `env:"OPS_WALLET_KEY,notEmpty"`
	// InternalAPIKey authenticates trusted backend-to-backend callers.
	InternalAPIKey string `env:"INTERNAL_API_KEY,notEmpty"`

	// -- Chain access --

	SolanaRPCURL        string        `env:"SOLANA_RPC_URL" envDefault:"https://api.devnet.solana.com"`
	SolanaNetwork       string        `env:"SOLANA_NETWORK" envDefault:"devnet"`
	SolanaCommitment    string        `env:"SOLANA_COMMITMENT" envDefault:"confirmed"`
	ChainRequestTimeout time.Duration `env:"CHAIN_REQUEST_TIMEOUT" envDefault:"15s"`
	TransactionTimeout  time.Duration `env:"TRANSACTION_TIMEOUT" envDefault:"60s"`

	// TransactionMaxSendRate is the maximum number of transaction
	// submissions per second.
	TransactionMaxSendRate int `env:"TRANSACTION_MAX_SEND_RATE" envDefault:"10"`

	// EVMNetworks configures the static EVM network registry, entries
	// of the form "name:chainId:rpcUrl".
	EVMNetworks []string `env:"EVM_NETWORKS"`

	// -- Idempotency middleware --

	DisableIdempotencyMiddleware      bool   `env:"DISABLE_IDEMPOTENCY_MIDDLEWARE" envDefault:"false"`
	IdempotencyMiddlewareDatabaseType string `env:"IDEMPOTENCY_MIDDLEWARE_DATABASE_TYPE" envDefault:"local"`
	IdempotencyMiddlewareRedisURL     string `env:"IDEMPOTENCY_MIDDLEWARE_REDIS_URL"`
}

// Parse parses environment variables into a Config.
func Parse() (*Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg, env.Options{Prefix: envPrefix}); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func ConfigureLogger(logLevel string) {
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		log.Warnf("unable to parse log level %q, defaulting to info", logLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)
}
