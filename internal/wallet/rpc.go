package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/neuro21/neuro21/internal/network"
)

// EIP-1193 provider error codes.
const (
	codeUserRejected      = 4001
	codeUnrecognizedChain = 4902
)

// RPCProvider talks to a wallet exposing the EIP-1193 request methods over
// JSON-RPC 2.0 on HTTP.
type RPCProvider struct {
	url     string
	timeout time.Duration
	nextID  atomic.Int64
}

// NewRPCProvider builds a provider posting requests to url. Each request is
// bounded by timeout and by the caller's context deadline.
func NewRPCProvider(url string, timeout time.Duration) *RPCProvider {
	return &RPCProvider{url: url, timeout: timeout}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

// RPCError is an error object returned by the wallet.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("wallet rpc error %d: %s", e.Code, e.Message)
}

// SwitchChain asks the wallet to switch to chainID.
func (p *RPCProvider) SwitchChain(ctx context.Context, chainID string) error {
	return p.call(ctx, "wallet_switchEthereumChain", []any{map[string]string{"chainId": chainID}}, nil)
}

// AddChain registers a chain with the wallet.
func (p *RPCProvider) AddChain(ctx context.Context, params network.ChainParams) error {
	return p.call(ctx, "wallet_addEthereumChain", []any{params}, nil)
}

// RequestAccounts asks the wallet for account access.
func (p *RPCProvider) RequestAccounts(ctx context.Context) ([]string, error) {
	var accounts []string
	if err := p.call(ctx, "eth_requestAccounts", []any{}, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (p *RPCProvider) call(ctx context.Context, method string, params any, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	timeout := p.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); timeout <= 0 || remaining < timeout {
			timeout = remaining
		}
	}

	agent := fiber.Post(p.url).
		JSON(rpcRequest{JSONRPC: "2.0", ID: p.nextID.Add(1), Method: method, Params: params}).
		Timeout(timeout)
	status, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("%s: %w", method, errors.Join(errs...))
	}
	if status != http.StatusOK {
		return fmt.Errorf("%s: unexpected status %d", method, status)
	}

	var resp rpcResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("%s: decode response: %w", method, err)
	}
	if resp.Error != nil {
		switch resp.Error.Code {
		case codeUnrecognizedChain:
			return fmt.Errorf("%w: %s", ErrChainNotAdded, resp.Error.Message)
		case codeUserRejected:
			return fmt.Errorf("%w: %s", ErrUserRejected, resp.Error.Message)
		}
		return resp.Error
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return fmt.Errorf("%s: decode result: %w", method, err)
	}
	return nil
}
