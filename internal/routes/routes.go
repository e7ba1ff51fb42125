package routes

import (
	"net/http"

	"github.com/hubmatrix/cloudtree/internal/app"
	"github.com/hubmatrix/cloudtree/internal/handler"
	"github.com/hubmatrix/cloudtree/internal/middleware"
)

func SetupRoutes(a *app.App) http.Handler {
	// Handlers
	cloud := handler.NewCloudHandler(a.TreeService, a.RootService)
	attach := handler.NewAttachHandler(a.TreeService)
	auth := handler.NewAuthHandler(a.IdentityService)
	principal := handler.NewPrincipalHandler(a.PrincipalService)

	mux := http.NewServeMux()

	// Auth (rate limited)
	rateLimiter := middleware.RateLimitAuth()
	mux.HandleFunc("POST /auth/login", rateLimiter(auth.Login))
	mux.HandleFunc("POST /auth/logout", auth.Logout)

	// File tree
	mux.HandleFunc("GET /cloud", cloud.Show)
	mux.HandleFunc("GET /cloud/{path...}", cloud.Show)
	mux.HandleFunc("HEAD /cloud/{path...}", cloud.Show)
	mux.HandleFunc("PUT /cloud/{path...}", cloud.Upload)
	mux.HandleFunc("POST /cloud/{path...}", cloud.Op)
	mux.HandleFunc("DELETE /cloud/{path...}", cloud.Delete)

	// Hash-addressed downloads
	mux.HandleFunc("GET /attach/{hash}", attach.Download)

	// Principals
	mux.HandleFunc("GET /principals/channels", principal.Channels)
	mux.HandleFunc("GET /principals/collections", principal.Collections)
	mux.HandleFunc("GET /principals/current", principal.Current)

	return middleware.Chain(mux,
		middleware.RequestLogging,
		middleware.Identity(a.IdentityService),
		middleware.ACLGate(a.ChannelRepository, a.Cfg.BlockPublic),
	)
}
