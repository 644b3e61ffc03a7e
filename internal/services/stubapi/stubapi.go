// Package stubapi serves the lending API surface from in-memory fixtures.
// It exists so the client SDK can be exercised end to end without the real
// backend: every endpoint speaks the same envelopes and payload shapes
package stubapi

import (
	"time"

	"fundlink/internal/platform/config"
	"fundlink/internal/platform/logger"
	phttp "fundlink/internal/platform/net/http"
	"fundlink/internal/platform/net/middleware"
)

// Options configure the stub API mount
type Options struct {
	Config         config.Conf
	Logger         *logger.Logger
	EnableProfiler bool
}

// service carries the shared state for all handlers
type service struct {
	store  *store
	tokens *tokens
	log    *logger.Logger
}

// Mount wires the full API surface onto r
func Mount(r phttp.Router, opt Options) {
	newService(opt).mountRoutes(r, opt)
}

func newService(opt Options) *service {
	log := opt.Logger
	if log == nil {
		log = logger.Named("stubapi")
	}
	return &service{
		store: newStore(),
		tokens: newTokens(
			opt.Config.MayString("JWT_SECRET", "fundlink-dev-secret"),
			opt.Config.MayDuration("TOKEN_TTL", 24*time.Hour),
		),
		log: log,
	}
}

func (svc *service) mountRoutes(r phttp.Router, opt Options) {
	r.Use(middleware.RealIP())
	r.Use(middleware.RequestID())
	r.Use(middleware.RecoverJSON)
	r.Use(middleware.AccessLogZerolog(middleware.AccessLogOptions{Slow: 500 * time.Millisecond}))
	r.Use(middleware.CORS(middleware.CORSOptions{
		AllowedOrigins: opt.Config.MayCSV("CORS_ORIGINS", []string{"*"}),
	}))

	phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

	// public auth surface
	r.Route("/api/auth", func(ar phttp.Router) {
		ar.Post("/login", phttp.Handle(svc.login))
		ar.Post("/signup", phttp.Handle(svc.signup))
		ar.Post("/verify-email", phttp.Handle(svc.verifyEmail))
		ar.Post("/resend-verification", phttp.Handle(svc.resendVerification))
		ar.Post("/forgot-password", phttp.Handle(svc.forgotPassword))
		ar.Post("/reset-password", phttp.Handle(svc.resetPassword))
	})

	// everything else requires a bearer token
	r.Group(func(gr phttp.Router) {
		gr.Use(middleware.Auth(svc.tokens, phttp.JSON))

		gr.Route("/api/loans", func(lr phttp.Router) {
			lr.Get("/open", phttp.Handle(svc.openLoans))
			lr.Get("/my-loans", phttp.Handle(svc.myLoans))
			lr.Get("/funded", phttp.Handle(svc.fundedLoans))
			lr.Get("/dashboard", phttp.Handle(svc.dashboard))
			lr.Post("/create-loan", phttp.Handle(svc.createLoan))
			lr.Post("/{id}/fund", phttp.Handle(svc.fundLoan))
			lr.Patch("/{id}", phttp.Handle(svc.updateLoan))
		})

		gr.Route("/api/user", func(ur phttp.Router) {
			ur.Get("/profile", phttp.Handle(svc.profile))
			ur.Patch("/profile", phttp.Handle(svc.updateProfile))
			ur.Get("/transactions", phttp.Handle(svc.transactions))
			ur.Post("/wallet/fund", phttp.Handle(svc.fundWallet))
		})

		gr.Post("/api/wallet/withdraw", phttp.Handle(svc.withdraw))

		gr.Route("/api/paystack", func(pr phttp.Router) {
			pr.Get("/banks", phttp.Handle(svc.banks))
			pr.Post("/resolve-account", phttp.Handle(svc.resolveAccount))
		})
	})
}
