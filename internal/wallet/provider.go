package wallet

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/neuro21/neuro21/internal/network"
)

var (
	// ErrChainNotAdded is returned by SwitchChain when the provider does not
	// know the requested chain.
	ErrChainNotAdded = errors.New("chain not added to wallet")

	// ErrUserRejected is returned when the wallet owner declines a request.
	ErrUserRejected = errors.New("user rejected the request")

	// ErrProviderUnavailable is returned when no wallet provider is present
	// and synthetic addresses are disabled.
	ErrProviderUnavailable = errors.New("no wallet provider available")

	// ErrNoAccounts is returned when the provider grants access to zero accounts.
	ErrNoAccounts = errors.New("No accounts found")

	// ErrInvalidAddress is returned for accounts that are not 0x-prefixed
	// 20-byte hex addresses.
	ErrInvalidAddress = errors.New("invalid wallet address")
)

// SyntheticPrefix starts every fabricated address. The prefix makes them
// invalid as real addresses.
const SyntheticPrefix = "dev:"

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// Provider is an injected wallet: it can switch networks, learn new ones and
// grant access to accounts.
type Provider interface {
	SwitchChain(ctx context.Context, chainID string) error
	AddChain(ctx context.Context, params network.ChainParams) error
	RequestAccounts(ctx context.Context) ([]string, error)
}

// ValidAddress reports whether addr looks like an account address.
func ValidAddress(addr string) bool {
	return addressPattern.MatchString(addr)
}

// IsSynthetic reports whether addr was fabricated by SyntheticAddress.
func IsSynthetic(addr string) bool {
	return strings.HasPrefix(addr, SyntheticPrefix)
}

// SyntheticAddress fabricates a placeholder address from random bytes read
// from r (crypto/rand when nil).
func SyntheticAddress(r io.Reader) (string, error) {
	if r == nil {
		r = rand.Reader
	}
	buf := make([]byte, 20)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("generate synthetic address: %w", err)
	}
	return SyntheticPrefix + "0x" + hex.EncodeToString(buf), nil
}

// Accounts is a provider for accounts a client already obtained from its own
// wallet. Chain requests are accepted as-is.
type Accounts []string

func (a Accounts) SwitchChain(context.Context, string) error { return nil }

func (a Accounts) AddChain(context.Context, network.ChainParams) error { return nil }

func (a Accounts) RequestAccounts(context.Context) ([]string, error) {
	return append([]string(nil), a...), nil
}
