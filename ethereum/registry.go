// Package ethereum provides EVM network access for the key pool.
package ethereum

import (
	"fmt"
	"strconv"
	"strings"
)

// Network is one entry of the static EVM network registry.
type Network struct {
	Name    string
	ChainID int64
	RPCURL  string
}

// Registry maps network names to RPC endpoints and chain identifiers.
type Registry map[string]Network

// ParseRegistry parses configuration entries of the form
// "name:chainId:rpcUrl" (the url may itself contain colons).
func ParseRegistry(entries []string) (Registry, error) {
	r := make(Registry, len(entries))

	for _, e := range entries {
		parts := strings.SplitN(e, ":", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf(`invalid EVM network entry: "%s"`, e)
		}

		chainID, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf(`invalid chain id in EVM network entry: "%s"`, e)
		}

		name := parts[0]
		r[name] = Network{Name: name, ChainID: chainID, RPCURL: parts[2]}
	}

	return r, nil
}

// Lookup returns the registry entry for a network name.
func (r Registry) Lookup(name string) (Network, bool) {
	n, ok := r[name]
	return n, ok
}
