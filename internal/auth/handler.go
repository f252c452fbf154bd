package auth

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/neuro21/neuro21/internal/session"
)

const (
	storeLocalsKey = "session_store"
	sidLocalsKey   = "session_id"
)

// Bind attaches the browser session id and its store to the request.
func Bind(c *fiber.Ctx, sid string, store *session.Store) {
	c.Locals(sidLocalsKey, sid)
	c.Locals(storeLocalsKey, store)
}

// StoreFrom returns the store bound to the request, or nil.
func StoreFrom(c *fiber.Ctx) *session.Store {
	store, _ := c.Locals(storeLocalsKey).(*session.Store)
	return store
}

// SessionID returns the browser session id bound to the request.
func SessionID(c *fiber.Ctx) string {
	sid, _ := c.Locals(sidLocalsKey).(string)
	return sid
}

// State returns the snapshot of the request's store. Requests without a
// bound store read as an anonymous, settled session.
func State(c *fiber.Ctx) session.State {
	if store := StoreFrom(c); store != nil {
		return store.Snapshot()
	}
	return session.State{}
}

// WriteState responds with the session snapshot.
func WriteState(c *fiber.Ctx, status int, st session.State) error {
	return c.Status(status).JSON(st)
}

// WalletChecker validates a wallet address posted by a client.
type WalletChecker interface {
	Check(addr string) (session.WalletLink, error)
}

// Handler exposes the session store operations over HTTP.
type Handler struct {
	wallets WalletChecker
}

// NewHandler builds a session handler. Without a wallet checker,
// registrations carrying a wallet address are rejected.
func NewHandler(wallets WalletChecker) *Handler {
	return &Handler{wallets: wallets}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func requireStore(c *fiber.Ctx) (*session.Store, error) {
	store := StoreFrom(c)
	if store == nil {
		return nil, fiber.NewError(http.StatusInternalServerError, "session not bound")
	}
	return store, nil
}

// Snapshot returns the current session state.
func (h *Handler) Snapshot(c *fiber.Ctx) error {
	return WriteState(c, http.StatusOK, State(c))
}

// Login authenticates the session with email and password.
func (h *Handler) Login(c *fiber.Ctx) error {
	store, err := requireStore(c)
	if err != nil {
		return err
	}
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := store.Login(c.UserContext(), req.Email, req.Password); err != nil {
		return WriteState(c, statusFor(err, http.StatusUnauthorized), store.Snapshot())
	}
	return WriteState(c, http.StatusOK, store.Snapshot())
}

// Register creates an account and authenticates the session with it.
func (h *Handler) Register(c *fiber.Ctx) error {
	store, err := requireStore(c)
	if err != nil {
		return err
	}
	var req session.RegisterInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.Type != "" && req.Type != session.TypeUser && req.Type != session.TypeProfessional {
		return fiber.NewError(http.StatusBadRequest, "type must be user or professional")
	}
	if req.WalletAddress != "" {
		if h.wallets == nil {
			return fiber.NewError(http.StatusBadRequest, "wallet address not accepted")
		}
		link, err := h.wallets.Check(req.WalletAddress)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		req.WalletAddress = link.Address
		req.WalletSynthetic = link.Synthetic
	}
	if err := store.Register(c.UserContext(), req); err != nil {
		return WriteState(c, statusFor(err, http.StatusBadRequest), store.Snapshot())
	}
	return WriteState(c, http.StatusCreated, store.Snapshot())
}

// Logout clears the session.
func (h *Handler) Logout(c *fiber.Ctx) error {
	store, err := requireStore(c)
	if err != nil {
		return err
	}
	store.Logout(c.UserContext())
	return WriteState(c, http.StatusOK, store.Snapshot())
}

// UpdateProfile patches profile fields of the session user.
func (h *Handler) UpdateProfile(c *fiber.Ctx) error {
	store, err := requireStore(c)
	if err != nil {
		return err
	}
	var patch session.ProfilePatch
	if err := c.BodyParser(&patch); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if patch.Plan != nil && *patch.Plan != session.PlanFree && *patch.Plan != session.PlanPremium {
		return fiber.NewError(http.StatusBadRequest, "plan must be free or premium")
	}
	if patch.Tier != nil && *patch.Tier < 1 {
		return fiber.NewError(http.StatusBadRequest, "tier must be positive")
	}
	if err := store.UpdateProfile(c.UserContext(), patch); err != nil {
		return WriteState(c, http.StatusInternalServerError, store.Snapshot())
	}
	return WriteState(c, http.StatusOK, store.Snapshot())
}

// statusFor maps store errors that are not the caller's fault to 5xx.
func statusFor(err error, fallback int) int {
	switch {
	case errors.Is(err, session.ErrNoAuthenticator), errors.Is(err, session.ErrNoWalletConnector):
		return http.StatusInternalServerError
	case errors.Is(err, session.ErrPersist):
		return http.StatusInternalServerError
	}
	return fallback
}
