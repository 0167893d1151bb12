package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"go.uber.org/fx"

	"obiwork/internal/bootstrap/config"
	"obiwork/internal/bootstrap/logging"
	"obiwork/internal/errs"
	"obiwork/internal/infrastructure/metrics"
	"obiwork/internal/transport/httpapi"
)

// ServerModule adds the HTTP API on top of Module. The listener is bound in
// OnStart and drained in OnStop.
var ServerModule = fx.Options(
	fx.Provide(provideHandler),
	fx.Provide(provideHTTPServer),
)

func provideHandler(app *App) *httpapi.Handler {
	return httpapi.NewHandler(
		app.Intake,
		app.Triage,
		app.Billing,
		app.Access,
		app.Health,
		httpapi.CookieOptions{
			MaxAge: app.Config.Cookies.MaxAge,
			Secure: app.Config.App.IsProduction(),
		},
	)
}

func provideHTTPServer(lc fx.Lifecycle, ctx context.Context, cfg config.Config, h *httpapi.Handler, m *metrics.Metrics) *http.Server {
	logCtx := logging.WithComponent(ctx, "bootstrap.http")

	router := httpapi.NewRouter(h, httpapi.RouterOptions{
		Limiter:  httpapi.NewRateLimiter(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst),
		Observer: m,
		Metrics:  m.Handler(),
	})
	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return errs.Wrapf(err, "listen on %s", srv.Addr)
			}
			logging.Info(logCtx, "http server listening", slog.String("addr", ln.Addr().String()))
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logging.Error(logCtx, "http server stopped", slog.Any("err", errs.Loggable(err)))
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			logging.Info(logCtx, "http server shutting down")
			return srv.Shutdown(stopCtx)
		},
	})
	return srv
}
