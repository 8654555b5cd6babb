package main

import (
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/indicxlit/internal/dictionary"
	"github.com/samcharles93/indicxlit/internal/inference"
	"github.com/samcharles93/indicxlit/internal/logger"
)

func downloadCmd() *cli.Command {
	var (
		all   bool
		force bool
		quiet bool
	)

	return &cli.Command{
		Name:      "download",
		Usage:     "Download word probability dictionaries used for rescoring",
		ArgsUsage: "<lang>...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "model-dir",
				Aliases:     []string{"m"},
				Usage:       "model directory; dictionaries go to <model-dir>/word_prob_dicts",
				Sources:     cli.EnvVars(envModelDir),
				Destination: &modelDir,
			},
			&cli.StringFlag{
				Name:        "dict-dir",
				Usage:       "dictionary directory",
				Sources:     cli.EnvVars(envDictDir),
				Destination: &dictDir,
			},
			dictURLFlag(),
			&cli.BoolFlag{
				Name:        "all",
				Usage:       "download every supported language",
				Destination: &all,
			},
			&cli.BoolFlag{
				Name:        "force",
				Aliases:     []string{"f"},
				Usage:       "download even when the dictionary is present",
				Destination: &force,
			},
			&cli.BoolFlag{
				Name:        "quiet",
				Aliases:     []string{"q"},
				Usage:       "do not draw a progress bar",
				Destination: &quiet,
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			applyEngineConfig(cmd, fileConfig)
			return ctx, nil
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)

			langs := cmd.Args().Slice()
			supported := inference.SupportedLanguages()
			if all {
				langs = supported
			}
			if len(langs) == 0 {
				return cli.Exit("error: name at least one language or pass --all", 1)
			}
			for _, l := range langs {
				if !slices.Contains(supported, l) {
					return cli.Exit(fmt.Sprintf("error: %v", &inference.UnsupportedLanguageError{Lang: l, Valid: supported}), 1)
				}
			}

			dir, err := resolveDictDir(dictDir, modelDir)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			store := dictionary.Store{Dir: dir}
			dl := dictionary.NewDownloader(dictURL)

			for _, l := range langs {
				if store.Has(l) && !force {
					log.Info("dictionary present", "lang", l, "path", store.Path(l))
					continue
				}
				var progress dictionary.Progress
				var bar *progressBar
				if !quiet {
					bar = newProgressBar(os.Stderr, l)
					progress = bar.Update
				}
				err := dl.Download(ctx, store, l, progress)
				if bar != nil {
					bar.Finish()
				}
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: download %s: %v", l, err), 1)
				}
			}
			return nil
		},
	}
}
