// Package gate decides whether a session may see a page.
package gate

import (
	"github.com/neuro21/neuro21/internal/session"
)

// Outcome is the result of evaluating a policy.
type Outcome string

const (
	Loading        Outcome = "loading"
	AccessRequired Outcome = "access_required"
	WalletRequired Outcome = "wallet_required"
	AccessDenied   Outcome = "access_denied"
	Fallback       Outcome = "fallback"
	Granted        Outcome = "granted"
)

// Policy describes who may see a page. The zero value requires an
// authenticated user and nothing else.
type Policy struct {
	AllowAnonymous bool
	RequireWallet  bool
	RequiredType   session.UserType
	// Fallback replaces the access and wallet screens when set. It is never
	// shown in place of the access denied screen.
	Fallback *Screen
}

// Action is a navigation or command offered by a screen.
type Action struct {
	Label  string `json:"label"`
	Href   string `json:"href"`
	Method string `json:"method,omitempty"`
}

// Screen is the content rendered instead of the protected page.
type Screen struct {
	Kind    string   `json:"kind"`
	Title   string   `json:"title"`
	Message string   `json:"message,omitempty"`
	Actions []Action `json:"actions,omitempty"`
}

// Decision is the outcome of Evaluate. Screen is nil only when access is
// granted. Denied holds the underlying denial when the fallback is shown.
type Decision struct {
	Outcome Outcome
	Denied  Outcome
	Screen  *Screen
}

// Allowed reports whether the protected content may be rendered.
func (d Decision) Allowed() bool {
	return d.Outcome == Granted
}

// Evaluate applies policy to a session snapshot. The first matching rule
// wins: loading, authentication, wallet, user type.
func Evaluate(st session.State, p Policy) Decision {
	if st.IsLoading {
		return Decision{Outcome: Loading, Screen: LoadingScreen()}
	}

	user := st.User
	if !p.AllowAnonymous && (user == nil || !user.IsAuthenticated) {
		return deny(AccessRequired, AccessRequiredScreen(), p.Fallback)
	}
	if p.RequireWallet && (user == nil || !user.WalletConnected) {
		return deny(WalletRequired, WalletRequiredScreen(), p.Fallback)
	}
	if p.RequiredType != "" && (user == nil || user.Type != p.RequiredType) {
		return Decision{Outcome: AccessDenied, Screen: AccessDeniedScreen(p.RequiredType)}
	}
	return Decision{Outcome: Granted}
}

func deny(outcome Outcome, screen *Screen, fallback *Screen) Decision {
	if fallback != nil {
		fb := *fallback
		return Decision{Outcome: Fallback, Denied: outcome, Screen: &fb}
	}
	return Decision{Outcome: outcome, Screen: screen}
}

// LoadingScreen is shown while the session is settling.
func LoadingScreen() *Screen {
	return &Screen{Kind: string(Loading), Title: "Loading..."}
}

// AccessRequiredScreen offers the login and registration entry points.
func AccessRequiredScreen() *Screen {
	return &Screen{
		Kind:    string(AccessRequired),
		Title:   "Access Required",
		Message: "You need to be logged in to access this page.",
		Actions: []Action{
			{Label: "Login", Href: "/auth/login"},
			{Label: "Create Account", Href: "/auth/register"},
		},
	}
}

// WalletRequiredScreen offers the wallet connect action.
func WalletRequiredScreen() *Screen {
	return &Screen{
		Kind:    string(WalletRequired),
		Title:   "Wallet Required",
		Message: "You need to connect your wallet to access this feature.",
		Actions: []Action{
			{Label: "Connect Wallet", Href: "/api/v1/session/wallet/connect", Method: "POST"},
		},
	}
}

// AccessDeniedScreen names the audience the page is reserved for.
func AccessDeniedScreen(required session.UserType) *Screen {
	audience := "users"
	if required == session.TypeProfessional {
		audience = "professionals"
	}
	return &Screen{
		Kind:    string(AccessDenied),
		Title:   "Access Denied",
		Message: "This page is only accessible to " + audience + ".",
		Actions: []Action{{Label: "Go Back", Href: "back"}},
	}
}
