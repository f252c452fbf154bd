package routes

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neuro21/neuro21/internal/config"
	"github.com/neuro21/neuro21/internal/gate"
	"github.com/neuro21/neuro21/internal/logging"
	"github.com/neuro21/neuro21/internal/middleware"
	"github.com/neuro21/neuro21/internal/session"
)

const testAddress = "0x52908400098527886E0F7030069857D2E4169EE7"

type client struct {
	t      *testing.T
	app    *fiber.App
	cookie *http.Cookie
}

func (cl *client) do(method, path, body string) (*http.Response, []byte) {
	cl.t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if cl.cookie != nil {
		req.AddCookie(cl.cookie)
	}
	resp, err := cl.app.Test(req, -1)
	require.NoError(cl.t, err)
	for _, ck := range resp.Cookies() {
		if ck.Name == middleware.SessionCookie {
			cl.cookie = ck
		}
	}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(cl.t, err)
	return resp, raw
}

func newTestClient(t *testing.T, mutate func(*config.Config)) (*client, *session.Registry) {
	t.Helper()
	cfg := config.Config{
		AppName:         "Neuro21",
		AppEnv:          "test",
		SessionSecret:   "test-secret",
		SessionTTL:      time.Hour,
		AuthMode:        config.AuthModeDemo,
		Network:         "mainnet",
		LoginRatePerMin: 100,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	app := fiber.New()
	registry, err := Setup(app, Deps{Cfg: cfg, Logger: logging.Discard()})
	require.NoError(t, err)
	return &client{t: t, app: app}, registry
}

func decodeSession(t *testing.T, raw []byte) session.State {
	t.Helper()
	var st session.State
	require.NoError(t, json.Unmarshal(raw, &st))
	return st
}

func decodeScreen(t *testing.T, raw []byte) gate.Screen {
	t.Helper()
	var s gate.Screen
	require.NoError(t, json.Unmarshal(raw, &s))
	return s
}

func TestSessionJourney(t *testing.T) {
	cl, registry := newTestClient(t, nil)

	resp, raw := cl.do(http.MethodGet, "/api/v1/profile", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Access Required", decodeScreen(t, raw).Title)
	require.NotNil(t, cl.cookie)

	resp, raw = cl.do(http.MethodPost, "/api/v1/session/login", `{"email":"ada@example.com","password":"pw"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	st := decodeSession(t, raw)
	require.NotNil(t, st.User)
	assert.Equal(t, "ada", st.User.Name)
	assert.Equal(t, session.InitialTokenGrant, st.User.TokenBalance)

	resp, _ = cl.do(http.MethodGet, "/api/v1/profile", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, raw = cl.do(http.MethodGet, "/api/v1/achievements", "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Wallet Required", decodeScreen(t, raw).Title)

	resp, raw = cl.do(http.MethodPost, "/api/v1/session/wallet/connect", `{"accounts":["`+testAddress+`"]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, testAddress, decodeSession(t, raw).User.WalletAddress)

	resp, _ = cl.do(http.MethodGet, "/api/v1/achievements", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, raw = cl.do(http.MethodGet, "/api/v1/dashboard", "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Access Denied", decodeScreen(t, raw).Title)

	resp, raw = cl.do(http.MethodPost, "/api/v1/journey/preview", `{"scores":{"exercise":10,"nutrition":10,"sleep":10}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var preview struct {
		PotentialTokens int64 `json:"potentialTokens"`
	}
	require.NoError(t, json.Unmarshal(raw, &preview))
	assert.Equal(t, int64(10), preview.PotentialTokens)

	resp, raw = cl.do(http.MethodPatch, "/api/v1/session/profile", `{"plan":"premium","bio":"hi"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, session.PlanPremium, decodeSession(t, raw).User.Plan)

	resp, _ = cl.do(http.MethodPatch, "/api/v1/session/profile", `{"tier":0}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, raw = cl.do(http.MethodPost, "/api/v1/session/logout", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Nil(t, decodeSession(t, raw).User)

	resp, raw = cl.do(http.MethodGet, "/api/v1/session", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Nil(t, decodeSession(t, raw).User)
	assert.Equal(t, 1, registry.Len())
}

func TestSessionSurvivesSweep(t *testing.T) {
	cl, registry := newTestClient(t, nil)

	resp, _ := cl.do(http.MethodPost, "/api/v1/session/register", `{"name":"Grace","email":"grace@example.com","password":"pw","type":"professional"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	assert.Equal(t, 1, registry.Sweep(-time.Minute))

	resp, raw := cl.do(http.MethodGet, "/api/v1/session", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	st := decodeSession(t, raw)
	require.NotNil(t, st.User)
	assert.Equal(t, "Grace", st.User.Name)
	assert.True(t, st.User.IsAuthenticated)

	resp, _ = cl.do(http.MethodGet, "/api/v1/dashboard", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRegisterRejectsUnknownType(t *testing.T) {
	cl, _ := newTestClient(t, nil)
	resp, _ := cl.do(http.MethodPost, "/api/v1/session/register", `{"email":"a@b.c","type":"admin"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestVerifiedModeRejectsBadPassword(t *testing.T) {
	cl, _ := newTestClient(t, func(cfg *config.Config) { cfg.AuthMode = config.AuthModeVerified })

	resp, _ := cl.do(http.MethodPost, "/api/v1/session/register", `{"email":"ada@example.com","password":"long-enough"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	cl.do(http.MethodPost, "/api/v1/session/logout", "")

	resp, raw := cl.do(http.MethodPost, "/api/v1/session/login", `{"email":"ada@example.com","password":"wrong-password"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	st := decodeSession(t, raw)
	assert.Nil(t, st.User)
	assert.NotEmpty(t, st.Error)
}

func TestWalletConnectWithoutProvider(t *testing.T) {
	cl, _ := newTestClient(t, nil)
	resp, raw := cl.do(http.MethodPost, "/api/v1/session/wallet/connect", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.NotEmpty(t, decodeSession(t, raw).Error)

	cl, _ = newTestClient(t, func(cfg *config.Config) { cfg.SyntheticWallet = true })
	resp, raw = cl.do(http.MethodPost, "/api/v1/session/wallet/connect", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	st := decodeSession(t, raw)
	require.NotNil(t, st.User)
	assert.True(t, st.User.WalletSynthetic)
}

func TestPublicEndpoints(t *testing.T) {
	cl, _ := newTestClient(t, nil)

	resp, raw := cl.do(http.MethodGet, "/api/v1/network", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), `"chainId":"0x2105"`)
	assert.Nil(t, cl.cookie)

	resp, _ = cl.do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cl.do(http.MethodGet, "/api/v1/dashboard", "")
	resp, raw = cl.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), `gate_decisions_total{outcome="access_required",page="dashboard"} 1`)
}

func TestMetricsBasicAuth(t *testing.T) {
	cl, _ := newTestClient(t, func(cfg *config.Config) {
		cfg.MetricsUser = "prom"
		cfg.MetricsPass = "scrape"
	})
	resp, _ := cl.do(http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRegisterChecksWalletAddress(t *testing.T) {
	syntheticAddr := "dev:0x" + strings.Repeat("0", 40)

	cl, _ := newTestClient(t, nil)
	for _, addr := range []string{"not-an-address", syntheticAddr} {
		resp, _ := cl.do(http.MethodPost, "/api/v1/session/register", `{"email":"ada@example.com","walletAddress":"`+addr+`"}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, addr)
	}
	resp, _ := cl.do(http.MethodGet, "/api/v1/achievements", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, raw := cl.do(http.MethodPost, "/api/v1/session/register", `{"email":"ada@example.com","walletAddress":"`+testAddress+`"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	st := decodeSession(t, raw)
	require.NotNil(t, st.User)
	assert.True(t, st.User.WalletConnected)
	assert.False(t, st.User.WalletSynthetic)

	cl, _ = newTestClient(t, func(cfg *config.Config) { cfg.SyntheticWallet = true })
	resp, raw = cl.do(http.MethodPost, "/api/v1/session/register", `{"email":"ada@example.com","walletAddress":"`+syntheticAddr+`"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	st = decodeSession(t, raw)
	require.NotNil(t, st.User)
	assert.Equal(t, syntheticAddr, st.User.WalletAddress)
	assert.True(t, st.User.WalletSynthetic)
}
