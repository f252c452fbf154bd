package wallet

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/neuro21/neuro21/internal/auth"
	"github.com/neuro21/neuro21/internal/session"
)

// Handler exposes wallet connection endpoints for the request's session.
type Handler struct {
	connector *Connector
}

// NewHandler builds a wallet HTTP handler around the server-side connector.
func NewHandler(connector *Connector) *Handler {
	return &Handler{connector: connector}
}

type connectRequest struct {
	Accounts []string `json:"accounts"`
}

// Connect links a wallet to the session. A client that already talked to its
// own injected wallet posts the granted accounts; otherwise the server-side
// connector is used.
func (h *Handler) Connect(c *fiber.Ctx) error {
	store := auth.StoreFrom(c)
	if store == nil {
		return fiber.NewError(http.StatusInternalServerError, "session not bound")
	}
	var req connectRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
	}

	var connector session.WalletConnector = h.connector
	if req.Accounts != nil {
		connector = NewConnector(Accounts(req.Accounts), h.connector.Chain(), false)
	}

	if err := store.ConnectWalletWith(c.UserContext(), connector); err != nil {
		return auth.WriteState(c, statusFor(err), store.Snapshot())
	}
	return auth.WriteState(c, http.StatusOK, store.Snapshot())
}

// Disconnect unlinks the wallet from the session user.
func (h *Handler) Disconnect(c *fiber.Ctx) error {
	store := auth.StoreFrom(c)
	if store == nil {
		return fiber.NewError(http.StatusInternalServerError, "session not bound")
	}
	if err := store.DisconnectWallet(c.UserContext()); err != nil {
		return auth.WriteState(c, http.StatusInternalServerError, store.Snapshot())
	}
	return auth.WriteState(c, http.StatusOK, store.Snapshot())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrProviderUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrUserRejected):
		return http.StatusForbidden
	case errors.Is(err, ErrNoAccounts), errors.Is(err, ErrInvalidAddress):
		return http.StatusUnprocessableEntity
	case errors.Is(err, session.ErrPersist):
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}
