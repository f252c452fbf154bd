package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/neuro21/neuro21/internal/network"
)

// RegisterNetworkRoutes exposes the static network configuration.
func RegisterNetworkRoutes(r fiber.Router, target network.Chain) {
	r.Get("/network", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"chain":    target.Params(),
			"mainnet":  network.Mainnet.Params(),
			"testnet":  network.Testnet.Params(),
			"token":    network.Token,
			"rewards":  network.Rewards,
			"features": network.Features,
		})
	})
}
