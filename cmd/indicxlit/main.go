package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/indicxlit/internal/logger"
	"github.com/samcharles93/indicxlit/internal/version"
)

// fileConfig is loaded once by the root Before hook.
var fileConfig Config

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "indicxlit",
		Usage:   "Transliterate romanized words into Indic scripts",
		Version: version.String(),
		Flags:   globalFlags(),
		Before:  setup,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			transliterateCmd(),
			languagesCmd(),
			downloadCmd(),
			serveCmd(),
			versionCmd(),
		},
	}
}

func setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	cfg, err := LoadConfig(configFile)
	if err != nil {
		return ctx, err
	}
	fileConfig = cfg
	applyGlobalConfig(cmd, cfg)
	if debug {
		logLevel = "debug"
	}
	log, err := logger.Setup(os.Stderr, logFormat, logLevel)
	if err != nil {
		return ctx, err
	}
	return logger.WithContext(ctx, log), nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
