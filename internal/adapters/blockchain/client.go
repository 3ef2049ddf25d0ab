package blockchain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/trebuchet-org/deltasim/internal/domain"
	"github.com/trebuchet-org/deltasim/internal/usecase"
)

// callTracerConfig asks for the nested call tree with per-frame logs
var callTracerConfig = map[string]interface{}{
	"tracer": "callTracer",
	"tracerConfig": map[string]interface{}{
		"withLog": true,
	},
}

// Client implements usecase.ForkClient over a fork's JSON-RPC endpoint
type Client struct {
	url string
	rpc *rpc.Client
	eth *ethclient.Client
}

// Dial connects to the JSON-RPC endpoint at url
func Dial(ctx context.Context, url string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC: %w", err)
	}

	return &Client{
		url: url,
		rpc: rpcClient,
		eth: ethclient.NewClient(rpcClient),
	}, nil
}

// DialForkClient dials url and returns it as a usecase.ForkClient
func DialForkClient(ctx context.Context, url string) (usecase.ForkClient, error) {
	return Dial(ctx, url)
}

// TraceCall runs debug_traceCall with the callTracer against the latest block
func (c *Client) TraceCall(ctx context.Context, tx domain.TransactionParams) (*domain.CallTrace, error) {
	params, err := canonicalQuantities(tx)
	if err != nil {
		return nil, err
	}

	var trace domain.CallTrace
	if err := c.rpc.CallContext(ctx, &trace, "debug_traceCall", params, "latest", callTracerConfig); err != nil {
		return nil, fmt.Errorf("debug_traceCall on %s: %w", c.url, err)
	}
	return &trace, nil
}

// Call runs eth_call against the latest block and returns the return data
func (c *Client) Call(ctx context.Context, tx domain.TransactionParams) ([]byte, error) {
	msg, err := toCallMsg(tx)
	if err != nil {
		return nil, err
	}
	return c.eth.CallContract(ctx, msg, nil)
}

// BlockNumber returns the most recent block number
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	return c.eth.BlockNumber(ctx)
}

// Close closes the underlying RPC connection
func (c *Client) Close() {
	c.rpc.Close()
}

func toCallMsg(tx domain.TransactionParams) (ethereum.CallMsg, error) {
	if !common.IsHexAddress(tx.From) {
		return ethereum.CallMsg{}, fmt.Errorf("invalid from address %q", tx.From)
	}
	msg := ethereum.CallMsg{From: common.HexToAddress(tx.From)}

	if tx.To != "" {
		if !common.IsHexAddress(tx.To) {
			return ethereum.CallMsg{}, fmt.Errorf("invalid to address %q", tx.To)
		}
		to := common.HexToAddress(tx.To)
		msg.To = &to
	}

	if tx.Data != "" && tx.Data != "0x" {
		data, err := hexutil.Decode(tx.Data)
		if err != nil {
			return ethereum.CallMsg{}, fmt.Errorf("invalid data: %w", err)
		}
		msg.Data = data
	}

	if tx.Gas != "" {
		gas, err := parseQuantity(tx.Gas)
		if err != nil {
			return ethereum.CallMsg{}, fmt.Errorf("invalid gas: %w", err)
		}
		if !gas.IsUint64() {
			return ethereum.CallMsg{}, fmt.Errorf("invalid gas: %s overflows uint64", tx.Gas)
		}
		msg.Gas = gas.Uint64()
	}

	var err error
	if msg.Value, err = optionalQuantity("value", tx.Value); err != nil {
		return ethereum.CallMsg{}, err
	}
	if msg.GasPrice, err = optionalQuantity("gasPrice", tx.GasPrice); err != nil {
		return ethereum.CallMsg{}, err
	}
	if msg.GasFeeCap, err = optionalQuantity("maxFeePerGas", tx.MaxFeePerGas); err != nil {
		return ethereum.CallMsg{}, err
	}
	if msg.GasTipCap, err = optionalQuantity("maxPriorityFeePerGas", tx.MaxPriorityFeePerGas); err != nil {
		return ethereum.CallMsg{}, err
	}

	return msg, nil
}

// canonicalQuantities re-encodes the numeric fields of tx without leading
// zeros, which geth-style nodes reject in call arguments
func canonicalQuantities(tx domain.TransactionParams) (domain.TransactionParams, error) {
	fields := []struct {
		name  string
		value *string
	}{
		{"value", &tx.Value},
		{"gas", &tx.Gas},
		{"gasPrice", &tx.GasPrice},
		{"maxFeePerGas", &tx.MaxFeePerGas},
		{"maxPriorityFeePerGas", &tx.MaxPriorityFeePerGas},
	}
	for _, f := range fields {
		if *f.value == "" {
			continue
		}
		q, err := parseQuantity(*f.value)
		if err != nil {
			return domain.TransactionParams{}, fmt.Errorf("invalid %s: %w", f.name, err)
		}
		*f.value = hexutil.EncodeBig(q)
	}
	return tx, nil
}

func optionalQuantity(field, value string) (*big.Int, error) {
	if value == "" {
		return nil, nil
	}
	q, err := parseQuantity(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", field, err)
	}
	return q, nil
}

// parseQuantity parses a 0x-prefixed hex quantity, tolerating leading zeros
func parseQuantity(s string) (*big.Int, error) {
	if !has0xPrefix(s) || len(s) == 2 {
		return nil, fmt.Errorf("%q is not a 0x-prefixed hex quantity", s)
	}
	v, ok := new(big.Int).SetString(s[2:], 16)
	if !ok {
		return nil, fmt.Errorf("%q is not a 0x-prefixed hex quantity", s)
	}
	return v, nil
}

func has0xPrefix(s string) bool {
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

// Ensure Client implements ForkClient
var _ usecase.ForkClient = (*Client)(nil)
