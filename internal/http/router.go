package httpx

import (
	"net/http"

	"log/slog"

	"github.com/RaghavVerma19/ride-share-backend/internal/app"
	"github.com/RaghavVerma19/ride-share-backend/internal/store"
	"github.com/RaghavVerma19/ride-share-backend/internal/stream"
	"github.com/RaghavVerma19/ride-share-backend/internal/ws"
	"github.com/RaghavVerma19/ride-share-backend/pkg/auth"
	"github.com/RaghavVerma19/ride-share-backend/pkg/metrics"
)

// NewRouter wires up all HTTP routes, middleware, and handlers
func NewRouter(cfg app.Config, logger *slog.Logger, wsrv *ws.Server, db *store.Postgres, streams stream.Log) http.Handler {
	mw := NewMiddleware(cfg)

	j := auth.New(cfg.JWTSecret)
	authAPI := &AuthAPI{DB: db, JWT: j, Cfg: cfg}
	ridesAPI := &RidesAPI{DB: db}
	chatAPI := &ChatAPI{DB: db, Streams: streams}

	mux := http.NewServeMux()

	// Health / readiness / metrics
	mux.Handle("/healthz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(200) }))
	mux.Handle("/readyz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(200) }))
	mux.Handle("/metrics", metrics.Handler())

	// WebSocket endpoint (does its own token check before upgrade)
	mux.Handle("/ws", http.HandlerFunc(wsrv.ServeWS))

	// Auth endpoints
	mux.Handle("POST /api/auth/register", http.HandlerFunc(authAPI.Register))
	mux.Handle("POST /api/auth/login", http.HandlerFunc(authAPI.Login))
	mux.Handle("POST /api/auth/google", http.HandlerFunc(authAPI.Google))
	mux.Handle("POST /api/auth/refresh", http.HandlerFunc(authAPI.Refresh))
	mux.Handle("POST /api/auth/logout", mw.Auth(http.HandlerFunc(authAPI.Logout)))
	mux.Handle("GET /api/auth/me", mw.Auth(http.HandlerFunc(authAPI.Me)))

	// Users
	mux.Handle("GET /api/users", mw.Auth(http.HandlerFunc(authAPI.ListUsers)))

	// Rides
	mux.Handle("POST /api/rides", mw.Auth(http.HandlerFunc(ridesAPI.Create)))
	mux.Handle("GET /api/rides", mw.Auth(http.HandlerFunc(ridesAPI.List)))
	mux.Handle("GET /api/rides/nearby", mw.Auth(http.HandlerFunc(ridesAPI.Nearby)))
	mux.Handle("GET /api/rides/{id}", mw.Auth(http.HandlerFunc(ridesAPI.Get)))

	// Chat history (read path over the stream log)
	mux.Handle("GET /api/v1/chat/history/{type}", mw.Auth(http.HandlerFunc(chatAPI.History)))
	mux.Handle("GET /api/v1/chat/history/{type}/{id}", mw.Auth(http.HandlerFunc(chatAPI.History)))

	return mw.Wrap(mux) // CORS + rate limit applied globally
}
