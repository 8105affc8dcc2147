package cmd

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/medcustody/ledgerbridge/pkg/bridge"
	"github.com/medcustody/ledgerbridge/pkg/bridge/webapi"
	"github.com/medcustody/ledgerbridge/pkg/bridge/webapi/apimiddleware"
	"github.com/medcustody/ledgerbridge/pkg/bridgedb/stor"
	"github.com/medcustody/ledgerbridge/pkg/config"
)

type RouteOpts struct {
	stors       *stor.Stors
	coordinator *bridge.Coordinator
	rollback    *bridge.RollbackEngine
}

func setupRoutes(e *echo.Echo, opts RouteOpts) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	g := e.Group("/bridge")
	g.Use(apimiddleware.APIKeyAuth(apimiddleware.APIKeyConfig{
		Keyname:         config.GetKeyWithDefault("BRIDGED_APIKEY_NAME", "apikey"),
		GetUserByAPIKey: opts.stors.UserStor.GetUserByAPIToken,
	}))

	transferLimit := apimiddleware.RateLimit(apimiddleware.RateLimitConfig{
		Scope:   "transfer",
		Limit:   config.GetIntKeyWithDefault("BRIDGED_TRANSFER_RATE_LIMIT", 3),
		Window:  time.Minute,
		Windows: opts.stors.RateWindowStor,
	})

	rollbackLimit := apimiddleware.RateLimit(apimiddleware.RateLimitConfig{
		Scope:   "rollback",
		Limit:   config.GetIntKeyWithDefault("BRIDGED_ROLLBACK_RATE_LIMIT", 3),
		Window:  time.Hour,
		Windows: opts.stors.RateWindowStor,
	})

	bridgeController := webapi.NewBridgeController(opts.coordinator, opts.rollback)

	g.POST("/transfer", bridgeController.CreateTransfer, transferLimit)
	g.POST("/rollback/:transferId", bridgeController.RollbackTransfer, rollbackLimit)
	g.GET("/history", bridgeController.GetHistory)
	g.GET("/transfer/:transferId", bridgeController.GetTransfer)
}
