package verification

import (
	"context"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

// RPCChainLookup checks transaction existence against an Ethereum JSON-RPC
// node. A missing or still-pending transaction is an ordinary false result;
// only transport problems surface as errors.
type RPCChainLookup struct {
	client  *ethclient.Client
	timeout time.Duration
}

// DialChain connects to the given JSON-RPC endpoint.
func DialChain(rpcURL string, timeout time.Duration) (*RPCChainLookup, error) {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, err
	}
	return &RPCChainLookup{client: client, timeout: timeout}, nil
}

// TxExists looks the hash up on the node. Malformed hashes are ordinary
// non-matching inputs, never errors.
func (c *RPCChainLookup) TxExists(ctx context.Context, txHash string) (bool, error) {
	if !validTxHash(txHash) {
		return false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, pending, err := c.client.TransactionByHash(ctx, common.HexToHash(txHash))
	if errors.Is(err, ethereum.NotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !pending, nil
}

// Close releases the underlying RPC connection.
func (c *RPCChainLookup) Close() {
	c.client.Close()
}

// validTxHash requires a 0x-prefixed 32-byte hex string.
func validTxHash(txHash string) bool {
	if len(txHash) != 66 || !strings.HasPrefix(txHash, "0x") {
		return false
	}
	_, err := hex.DecodeString(txHash[2:])
	return err == nil
}

// SimulatedChainLookup is the stand-in used when no RPC endpoint is
// configured: any hash with the configured prefix exists. Delay models the
// network round trip of the real lookup.
type SimulatedChainLookup struct {
	Prefix string
	Delay  time.Duration
}

// TxExists reports a match on the configured prefix after the configured
// delay, or earlier if ctx is cancelled.
func (c *SimulatedChainLookup) TxExists(ctx context.Context, txHash string) (bool, error) {
	if c.Delay > 0 {
		timer := time.NewTimer(c.Delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	return strings.HasPrefix(txHash, c.Prefix), nil
}
