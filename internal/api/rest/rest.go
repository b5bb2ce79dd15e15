package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/stakehaus/stake-engine/internal/api/middleware"
)

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler Handler, authCfg middleware.AuthConfig) {
	// Health check endpoint (no auth, no version prefix)
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Platform configuration (API key only; the platform operator's surface)
		v1.POST("/config", middleware.APIKeyAuth(authCfg), handler.InitProgramConfig)
		v1.PATCH("/config", middleware.APIKeyAuth(authCfg), handler.UpdateProgramConfig)

		// Tenant registration is open; everything below a tenant requires auth
		v1.POST("/stakers", handler.CreateStaker)
		v1.GET("/stakers/:slug", handler.GetStaker)

		stakers := v1.Group("/stakers/:slug", middleware.Auth(authCfg))
		{
			stakers.POST("/active", handler.ToggleStakerActive)
			stakers.DELETE("", handler.CloseStaker)

			// Billing
			stakers.PUT("/subscription", handler.UpdateSubscription)
			stakers.POST("/subscription/pay", handler.PaySubscription)
			stakers.PUT("/billing-clock", handler.UpdateNextPaymentTime)

			// Add-ons and presentation
			stakers.PUT("/domain", handler.UpdateOwnDomain)
			stakers.PUT("/branding", handler.UpdateRemoveBranding)
			stakers.PUT("/theme", handler.UpdateTheme)

			// Reward token
			stakers.POST("/token", handler.AddToken)

			// Collections and emissions
			stakers.POST("/collections", handler.CreateCollection)
			stakers.POST("/collections/:id/active", handler.ToggleCollectionActive)
			stakers.DELETE("/collections/:id", handler.CloseCollection)
			stakers.POST("/collections/:id/emissions", handler.AddEmission)
			stakers.DELETE("/collections/:id/emissions/:kind", handler.CloseEmission)
			stakers.PUT("/collections/:id/reward", handler.ChangeReward)
			stakers.PUT("/collections/:id/extend", handler.ExtendEmission)
			stakers.POST("/collections/:id/funds", handler.AddFunds)
			stakers.DELETE("/collections/:id/funds", handler.RemoveFunds)

			// Staking
			stakers.POST("/stakes", handler.Stake)
			stakers.POST("/stakes/claim", handler.Claim)
			stakers.POST("/stakes/unstake", handler.Unstake)

			// Distributions
			stakers.POST("/distributions", handler.CreateDistribution)
			stakers.POST("/distributions/:id/fund", handler.Distribute)

			// Webhooks
			stakers.POST("/webhooks", handler.CreateWebhookEndpoint)
			stakers.GET("/webhooks", handler.ListWebhookEndpoints)
		}
	}
}
