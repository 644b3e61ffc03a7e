// Command fundlink-stub serves the lending API from in-memory fixtures so
// the client SDK can be developed and demoed without the real backend
package main

import (
	"context"

	"fundlink/internal/core/version"
	"fundlink/internal/platform/config"
	"fundlink/internal/platform/logger"
	phttp "fundlink/internal/platform/net/http"

	"fundlink/internal/services/stubapi"
)

func main() {
	// stub config lives under STUB_API_* (STUB_API_PORT etc)
	root := config.New()
	cfg := root.Prefix("STUB_API_")

	l := logger.Get()
	build := version.Info()
	l.Info().
		Str("version", build.Version).
		Str("commit", build.Commit).
		Msg("fundlink-stub starting")

	srv := phttp.NewServer(cfg)

	stubapi.Mount(srv.Router(), stubapi.Options{
		Config:         cfg,
		Logger:         l,
		EnableProfiler: cfg.MayBool("PROFILER", false),
	})

	if err := srv.Run(context.Background()); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
}
