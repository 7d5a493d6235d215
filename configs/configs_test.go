package configs

import (
	"testing"
)

func TestParseConfig(t *testing.T) {
	t.Setenv("TREASURY_WALLET_ENCRYPTION_KEY", "encryption-key")
	t.Setenv("TREASURY_WALLET_OPS_WALLET_KEY", "ops-wallet-key")
	t.Setenv("TREASURY_WALLET_INTERNAL_API_KEY", "internal-api-key")
	t.Setenv("TREASURY_WALLET_SOLANA_NETWORK", "devnet")
	t.Setenv("TREASURY_WALLET_EVM_NETWORKS", "sepolia:11155111:https://rpc.sepolia.org,polygon:137:https://polygon-rpc.com")

	cfg, err := Parse()
	if err != nil {
		t.Fatal(err)
	}

	if cfg.EncryptionKey != "encryption-key" {
		t.Errorf(`expected "EncryptionKey" to equal "encryption-key", got "%s"`, cfg.EncryptionKey)
	}

	if cfg.EncryptionKeyType != "xor-base58" {
		t.Errorf(`expected default "EncryptionKeyType" to equal "xor-base58", got "%s"`, cfg.EncryptionKeyType)
	}

	if cfg.SolanaNetwork != "devnet" {
		t.Errorf(`expected "SolanaNetwork" to equal "devnet", got "%s"`, cfg.SolanaNetwork)
	}

	if len(cfg.EVMNetworks) != 2 ||
		cfg.EVMNetworks[0] != "sepolia:11155111:https://rpc.sepolia.org" ||
		cfg.EVMNetworks[1] != "polygon:137:https://polygon-rpc.com" {
		t.Errorf("unexpected EVMNetworks: %#v", cfg.EVMNetworks)
	}
}

func TestParseConfigMissingSecrets(t *testing.T) {
	t.Setenv("TREASURY_WALLET_ENCRYPTION_KEY", "encryption-key")
	t.Setenv("TREASURY_WALLET_OPS_WALLET_KEY", "")
	t.Setenv("TREASURY_WALLET_INTERNAL_API_KEY", "internal-api-key")

	if _, err := Parse(); err == nil {
		t.Error("expected an error for empty OPS_WALLET_KEY")
	}
}
