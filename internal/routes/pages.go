package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/neuro21/neuro21/internal/gate"
	"github.com/neuro21/neuro21/internal/journey"
	"github.com/neuro21/neuro21/internal/network"
	"github.com/neuro21/neuro21/internal/session"
)

// Page policies.
var (
	ProfilePolicy      = gate.Policy{}
	AchievementsPolicy = gate.Policy{RequireWallet: true}
	DashboardPolicy    = gate.Policy{RequiredType: session.TypeProfessional}
	JourneyPolicy      = gate.Policy{}
)

// RegisterPageRoutes wires the gated pages.
func RegisterPageRoutes(r fiber.Router, guard *gate.Guard, journeys *journey.Handler) {
	r.Get("/profile", guard.Protect("profile", ProfilePolicy), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"user": gate.Snapshot(c).User})
	})

	r.Get("/achievements", guard.Protect("achievements", AchievementsPolicy), func(c *fiber.Ctx) error {
		user := gate.Snapshot(c).User
		return c.JSON(fiber.Map{
			"walletAddress": user.WalletAddress,
			"tokenBalance":  user.TokenBalance,
			"token":         network.Token,
			"rewards":       network.Rewards,
		})
	})

	r.Get("/dashboard", guard.Protect("dashboard", DashboardPolicy), func(c *fiber.Ctx) error {
		user := gate.Snapshot(c).User
		return c.JSON(fiber.Map{
			"professional": fiber.Map{
				"id":              user.ID,
				"name":            user.Name,
				"walletConnected": user.WalletConnected,
				"tier":            user.Tier,
			},
		})
	})

	r.Post("/journey/preview", guard.Protect("journey", JourneyPolicy), journeys.Preview)
}
