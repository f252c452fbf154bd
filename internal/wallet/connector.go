package wallet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/neuro21/neuro21/internal/network"
	"github.com/neuro21/neuro21/internal/session"
)

// Connector obtains an address from a provider after moving it to the
// target chain. Without a provider it either fabricates a synthetic address
// or fails with ErrProviderUnavailable.
type Connector struct {
	provider  Provider
	chain     network.Chain
	synthetic bool
	random    io.Reader
}

// NewConnector builds a connector. provider may be nil.
func NewConnector(provider Provider, chain network.Chain, allowSynthetic bool) *Connector {
	return &Connector{provider: provider, chain: chain, synthetic: allowSynthetic}
}

// Chain returns the chain wallets are switched to.
func (c *Connector) Chain() network.Chain {
	return c.chain
}

// Connect implements session.WalletConnector.
func (c *Connector) Connect(ctx context.Context) (session.WalletLink, error) {
	if c.provider == nil {
		if !c.synthetic {
			return session.WalletLink{}, ErrProviderUnavailable
		}
		addr, err := SyntheticAddress(c.random)
		if err != nil {
			return session.WalletLink{}, err
		}
		return session.WalletLink{Address: addr, Synthetic: true}, nil
	}

	if err := c.provider.SwitchChain(ctx, c.chain.HexID()); err != nil {
		// Only an unknown chain is acted on; the account request decides
		// whether the wallet is usable.
		if errors.Is(err, ErrChainNotAdded) {
			if err := c.provider.AddChain(ctx, c.chain.Params()); err != nil {
				return session.WalletLink{}, fmt.Errorf("add chain %s: %w", c.chain.Name, err)
			}
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return session.WalletLink{}, ctxErr
		}
	}

	accounts, err := c.provider.RequestAccounts(ctx)
	if err != nil {
		return session.WalletLink{}, err
	}
	if len(accounts) == 0 {
		return session.WalletLink{}, ErrNoAccounts
	}
	addr := accounts[0]
	if !ValidAddress(addr) {
		return session.WalletLink{}, fmt.Errorf("%w: %q", ErrInvalidAddress, addr)
	}
	return session.WalletLink{Address: addr}, nil
}

// Check validates an address a client supplied itself. Synthetic addresses
// are accepted only from a connector allowed to fabricate them, and the link
// keeps them marked as synthetic.
func (c *Connector) Check(addr string) (session.WalletLink, error) {
	addr = strings.TrimSpace(addr)
	switch {
	case ValidAddress(addr):
		return session.WalletLink{Address: addr}, nil
	case c.synthetic && IsSynthetic(addr) && ValidAddress(strings.TrimPrefix(addr, SyntheticPrefix)):
		return session.WalletLink{Address: addr, Synthetic: true}, nil
	}
	return session.WalletLink{}, fmt.Errorf("%w: %q", ErrInvalidAddress, addr)
}
