package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/indicxlit/internal/api"
	"github.com/samcharles93/indicxlit/internal/logger"
	"github.com/samcharles93/indicxlit/internal/version"
)

func serveCmd() *cli.Command {
	var (
		addr        string
		readTimeout time.Duration
		maxCount    int64
		keep        int64
		eager       bool
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the transliteration REST API",
		Flags: append(engineFlags(), dictURLFlag(),
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read header timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
			&cli.Int64Flag{
				Name:        "max-count",
				Usage:       "largest count a request may ask for (0 = unbounded)",
				Value:       20,
				Destination: &maxCount,
			},
			&cli.Int64Flag{
				Name:        "keep-results",
				Usage:       "number of responses kept for GET /v1/transliterations/{id}",
				Value:       1024,
				Destination: &keep,
			},
			&cli.BoolFlag{
				Name:        "eager",
				Usage:       "load the model before accepting requests",
				Destination: &eager,
			},
		),
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			applyEngineConfig(cmd, fileConfig)
			applyServeConfig(cmd, fileConfig, &addr, &maxCount)
			return ctx, nil
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)

			engine, err := newEngine(ctx)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			defer func() {
				if err := engine.Dispose(); err != nil {
					log.Warn("dispose engine", "error", err)
				}
			}()
			if eager {
				if err := engine.Initialize(ctx); err != nil {
					return cli.Exit(fmt.Sprintf("error: %v", err), 1)
				}
			}

			server := api.NewServer(engine, api.NewResultStore(int(keep)), api.ServerConfig{
				Version:   version.String(),
				Rescoring: engine.Options().Rescore,
				MaxCount:  int(maxCount),
			})
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)

			log.Info("starting server", "address", addr, "model_dir", engine.Options().ModelDir)
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
