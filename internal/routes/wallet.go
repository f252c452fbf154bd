package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/neuro21/neuro21/internal/wallet"
)

// RegisterWalletRoutes wires wallet connection endpoints of the session.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler) {
	r.Post("/session/wallet/connect", h.Connect)
	r.Post("/session/wallet/disconnect", h.Disconnect)
}
