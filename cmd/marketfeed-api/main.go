// @title         Marketfeed API
// @version       0.1.0
// @description   Ranked marketplace feed with capability scoped visibility and a live event channel

package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"marketfeed/internal/modkit/repokit"
	"marketfeed/internal/platform/config"
	"marketfeed/internal/platform/logger"
	phttp "marketfeed/internal/platform/net/http"
	"marketfeed/internal/platform/store"

	"marketfeed/internal/services/api"
)

func main() {
	_ = godotenv.Load()

	// service-scoped config for HTTP etc (CORE_API_*)
	root := config.New()
	apiCfg := root.Prefix("CORE_API_")

	pgCfg := root.Prefix("SERVICE_PGSQL_")      // pgCfg lives under SERVICE_PGSQL_*
	chCfg := root.Prefix("SERVICE_CLICKHOUSE_") // chCfg lives under SERVICE_CLICKHOUSE_*

	// bring up logging early
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// open the platform store (postgres + optional CH for velocity)
	st, err := store.Open(
		ctx,
		store.Config{
			PG: store.PGConfig{
				Enabled:     true,
				URL:         pgCfg.MustString("DBURL"),
				MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 4)),
				SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
				LogSQL:      pgCfg.MayBool("LOG_SQL", true),
			},
			CH: store.CHConfig{
				Enabled:    chCfg.MayBool("ENABLED", true),
				URL:        chCfg.MayString("DBURL", ""),
				ClientName: "marketfeed",
				ClientTag:  "api",
			},
		},
		store.WithLogger(*l),
	)
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	// fail fast when a configured seam cannot answer
	repokit.MustGuard(ctx, st)

	// http server (reads CORE_API_PORT / CORE_API_ADDR)
	srv := phttp.NewServer(apiCfg)

	api.Mount(
		srv.Router(),
		api.Options{
			Config:         apiCfg,
			Store:          st,
			Logger:         l,
			EnableSwagger:  apiCfg.MayBool("SWAGGER", true),
			EnableProfiler: apiCfg.MayBool("PROFILER", true),
			EnableMetrics:  apiCfg.MayBool("METRICS", true),
			Ctx:            ctx,
		},
	)

	if err := srv.Run(ctx); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
}
