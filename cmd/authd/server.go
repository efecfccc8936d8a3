package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/MrEthical07/cookieauth"
	"github.com/MrEthical07/cookieauth/httpauth"
	"github.com/MrEthical07/cookieauth/internal/logx"
	"github.com/MrEthical07/cookieauth/middleware"
)

type routerDeps struct {
	Engine       *cookieauth.Engine
	Logger       *slog.Logger
	LoginLimiter *ipLimiter
	Metrics      http.Handler
}

// newRouter wires the auth endpoints. The gate guards /auth/me only: logout
// must work with an expired access cookie.
func newRouter(deps routerDeps) http.Handler {
	mux := http.NewServeMux()

	login := httpauth.LoginHandler(deps.Engine)
	if deps.LoginLimiter != nil {
		login = deps.LoginLimiter.middleware(login)
	}
	mux.Handle("POST /auth/login", login)
	mux.Handle("POST /auth/refresh", httpauth.RefreshHandler(deps.Engine))
	mux.Handle("POST /auth/logout", httpauth.LogoutHandler(deps.Engine))
	mux.Handle("GET /auth/me", middleware.Chain(
		httpauth.MeHandler(),
		middleware.Gate(deps.Engine),
		middleware.RequireAuthenticated,
	))
	mux.Handle("GET /healthz", healthHandler(deps.Engine))
	if deps.Metrics != nil {
		mux.Handle("GET /metrics", deps.Metrics)
	}

	return middleware.Chain(mux, logx.HTTPMiddleware(deps.Logger), httpauth.RequestContext)
}

func healthHandler(engine *cookieauth.Engine) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := engine.Ping(ctx); err != nil {
			logx.FromContext(ctx).Error("health check failed", "error", err)
			httpauth.WriteCode(w, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "session store unreachable")
			return
		}
		httpauth.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}
