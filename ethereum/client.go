package ethereum

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

// weiPerEther is the fixed decimal exponent of EVM native balances.
var weiPerEther = new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))

// BalanceReader reads native balances for one EVM network connection.
type BalanceReader interface {
	NativeBalance(ctx context.Context, address string) (float64, error)
	Close()
}

// Dialer opens a BalanceReader for a registry entry. Indirection for
// tests; production uses Dial.
type Dialer func(network Network) (BalanceReader, error)

type client struct {
	ec *ethclient.Client
}

// Dial connects to the network's RPC endpoint.
func Dial(network Network) (BalanceReader, error) {
	ec, err := ethclient.Dial(network.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to EVM RPC %s: %w", network.Name, err)
	}
	return &client{ec}, nil
}

// NativeBalance fetches the latest native balance in wei and converts it
// to display units.
func (c *client) NativeBalance(ctx context.Context, address string) (float64, error) {
	if !common.IsHexAddress(address) {
		return 0, fmt.Errorf(`not a valid EVM address: "%s"`, address)
	}

	wei, err := c.ec.BalanceAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		return 0, err
	}

	ether, _ := new(big.Float).Quo(new(big.Float).SetInt(wei), weiPerEther).Float64()
	return ether, nil
}

func (c *client) Close() {
	c.ec.Close()
}
