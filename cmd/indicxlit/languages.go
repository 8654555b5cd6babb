package main

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/indicxlit/internal/dictionary"
	"github.com/samcharles93/indicxlit/internal/inference"
	"github.com/samcharles93/indicxlit/internal/vocab"
)

func languagesCmd() *cli.Command {
	return &cli.Command{
		Name:    "languages",
		Aliases: []string{"langs"},
		Usage:   "List supported target languages",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "model-dir",
				Aliases:     []string{"m"},
				Usage:       "also report which languages the model vocabulary and dictionaries cover",
				Sources:     cli.EnvVars(envModelDir),
				Destination: &modelDir,
			},
			&cli.StringFlag{
				Name:        "dict-dir",
				Usage:       "dictionary directory",
				Sources:     cli.EnvVars(envDictDir),
				Destination: &dictDir,
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			applyEngineConfig(cmd, fileConfig)
			return ctx, nil
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			langs := inference.SupportedLanguages()
			if strings.TrimSpace(modelDir) == "" {
				fmt.Println(strings.Join(langs, "\n"))
				return nil
			}

			dir, err := resolveModelDir(modelDir)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			v, err := vocab.Load(filepath.Join(dir, vocab.FileName))
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			dictPath, err := resolveDictDir(dictDir, dir)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			store := dictionary.Store{Dir: dictPath}
			tagged := v.Languages()

			fmt.Printf("%-6s %-6s %s\n", "LANG", "MODEL", "DICTIONARY")
			for _, l := range langs {
				fmt.Printf("%-6s %-6s %s\n", l, yesNo(slices.Contains(tagged, l)), yesNo(store.Has(l)))
			}
			return nil
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
