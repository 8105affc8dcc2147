package apimiddleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/apex/log"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/medcustody/ledgerbridge/pkg/bridgedb/model"
	"github.com/medcustody/ledgerbridge/pkg/bridgedb/stor"
)

type RateLimitConfig struct {
	Skipper middleware.Skipper
	Scope   string
	Limit   int
	Window  time.Duration
	Windows stor.RateWindowStor
}

// RateLimit enforces a fixed-window per-caller limit. The counters live in
// the database so every bridged instance counts against the same windows.
// The APIKeyAuth middleware must run first so the caller is in the context.
func RateLimit(config RateLimitConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if config.Skipper != nil && config.Skipper(c) {
				return next(c)
			}

			user, ok := c.Get("User").(model.User)
			if !ok {
				return echo.ErrUnauthorized
			}

			windowStart := time.Now().Truncate(config.Window).Unix()
			count, err := config.Windows.IncrementCount(config.Scope, user.ID, windowStart)
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "rate limit check failed")
			}

			if count > config.Limit {
				return echo.NewHTTPError(http.StatusTooManyRequests,
					fmt.Sprintf("rate limit of %d per %s exceeded for %s", config.Limit, config.Window, config.Scope))
			}

			// Windows two intervals back can never be consulted again.
			pruneBefore := time.Now().Add(-2 * config.Window).Truncate(config.Window).Unix()
			if err := config.Windows.PruneWindowsBefore(pruneBefore); err != nil {
				log.Errorf("Failed pruning expired rate windows: %s", err)
			}

			return next(c)
		}
	}
}
