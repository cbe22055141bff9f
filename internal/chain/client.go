package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"liquidityDesk/internal/model"
)

// DefaultPollInterval is how often WaitReceipt polls for inclusion.
const DefaultPollInterval = 2 * time.Second

// Client wraps go-ethereum RPC and provides helper methods.
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client

	mu      sync.RWMutex
	chainID *big.Int
}

// NewClient creates a new chain client from the RPC URL.
func NewClient(ctx context.Context, rpcURL string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}

	return &Client{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
	}, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// ChainID returns the chain id, asking the node once.
func (c *Client) ChainID(ctx context.Context) (uint64, error) {
	c.mu.RLock()
	id := c.chainID
	c.mu.RUnlock()
	if id != nil {
		return id.Uint64(), nil
	}

	id, err := c.ethClient.ChainID(ctx)
	if err != nil {
		return 0, err
	}
	c.mu.Lock()
	c.chainID = id
	c.mu.Unlock()
	return id.Uint64(), nil
}

// LatestBlockNumber returns the latest block number.
func (c *Client) LatestBlockNumber(ctx context.Context) (uint64, error) {
	return c.ethClient.BlockNumber(ctx)
}

// HeaderByNumber returns the block header by number.
func (c *Client) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return c.ethClient.HeaderByNumber(ctx, number)
}

// CallContract performs an eth_call for a contract method.
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return c.ethClient.CallContract(ctx, msg, blockNumber)
}

// BalanceAt returns the native balance of account.
func (c *Client) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	return c.ethClient.BalanceAt(ctx, account, blockNumber)
}

// TransactionReceipt returns the receipt of a mined transaction.
func (c *Client) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	return c.ethClient.TransactionReceipt(ctx, txHash)
}

// WaitReceipt polls until the transaction is mined. A reverted transaction returns its receipt
// together with an ErrTransaction error.
func (c *Client) WaitReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	return WaitReceipt(ctx, c, txHash, DefaultPollInterval)
}

// ReceiptFetcher is the part of Client that WaitReceipt needs.
type ReceiptFetcher interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// WaitReceipt polls fetcher every interval until the receipt is available or ctx ends.
func WaitReceipt(ctx context.Context, fetcher ReceiptFetcher, txHash common.Hash, interval time.Duration) (*types.Receipt, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	for {
		receipt, err := fetcher.TransactionReceipt(ctx, txHash)
		switch {
		case err == nil && receipt != nil:
			if receipt.Status != types.ReceiptStatusSuccessful {
				return receipt, fmt.Errorf("%w: %s reverted in block %s", model.ErrTransaction, txHash.Hex(), receipt.BlockNumber)
			}
			return receipt, nil
		case err != nil && !errors.Is(err, ethereum.NotFound):
			return nil, fmt.Errorf("receipt %s: %w", txHash.Hex(), err)
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// SendTransaction asks the node to sign and broadcast call from an account the node manages.
func (c *Client) SendTransaction(ctx context.Context, from common.Address, call model.PreparedCall) (common.Hash, error) {
	args := map[string]interface{}{
		"from":  from,
		"to":    call.To,
		"data":  call.Data,
		"value": (*hexutil.Big)(call.ValueInt()),
	}
	var hash common.Hash
	if err := c.rpcClient.CallContext(ctx, &hash, "eth_sendTransaction", args); err != nil {
		return common.Hash{}, err
	}
	return hash, nil
}

// NodeSubmitter submits prepared calls through a node that holds the sender's key, such as a
// local development chain.
type NodeSubmitter struct {
	Client *Client
	From   common.Address
}

// Submit sends call from s.From.
func (s NodeSubmitter) Submit(ctx context.Context, call model.PreparedCall) (common.Hash, error) {
	return s.Client.SendTransaction(ctx, s.From, call)
}
