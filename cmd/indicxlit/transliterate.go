package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/indicxlit/internal/inference"
	"github.com/samcharles93/indicxlit/internal/logger"
)

func transliterateCmd() *cli.Command {
	var (
		lang   string
		count  int64
		scores bool
	)

	return &cli.Command{
		Name:      "transliterate",
		Aliases:   []string{"xlit", "t"},
		Usage:     "Transliterate romanized words into a target script",
		ArgsUsage: "[word...]",
		Flags: append(engineFlags(), dictURLFlag(),
			&cli.StringFlag{
				Name:        "lang",
				Aliases:     []string{"l"},
				Usage:       "target language code (see `indicxlit languages`)",
				Required:    true,
				Destination: &lang,
			},
			&cli.Int64Flag{
				Name:        "count",
				Aliases:     []string{"n"},
				Usage:       "number of candidates per word",
				Value:       inference.DefaultCount,
				Destination: &count,
			},
			&cli.BoolFlag{
				Name:        "scores",
				Usage:       "print the score next to each candidate",
				Destination: &scores,
			},
		),
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			applyEngineConfig(cmd, fileConfig)
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
			if err := engine.Initialize(ctx); err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			x := &xlitRunner{
				engine: engine,
				log:    log,
				out:    os.Stdout,
				lang:   lang,
				count:  int(count),
				scores: scores,
			}

			if words := cmd.Args().Slice(); len(words) > 0 {
				return x.words(ctx, words, len(words) > 1)
			}
			if stdinIsTTY() {
				return x.interactive(ctx)
			}
			return x.stream(ctx, os.Stdin)
		},
	}
}

type transliterator interface {
	TransliterateScored(ctx context.Context, word, lang string, count int) ([]inference.ScoredWord, error)
}

type xlitRunner struct {
	engine transliterator
	log    logger.Logger
	out    io.Writer
	lang   string
	count  int
	scores bool
}

// words transliterates each word in turn. Invalid words are reported and
// skipped; any other failure stops the run.
func (x *xlitRunner) words(ctx context.Context, words []string, heading bool) error {
	for _, w := range words {
		results, err := x.engine.TransliterateScored(ctx, w, x.lang, x.count)
		if err != nil {
			if errors.Is(err, inference.ErrInvalidInput) {
				x.log.Warn("skipping word", "word", w, "error", err)
				continue
			}
			return cli.Exit(fmt.Sprintf("error: %v", err), 1)
		}
		writeResults(x.out, w, results, x.scores, heading)
	}
	return nil
}

// stream reads whitespace separated words from r until EOF.
func (x *xlitRunner) stream(ctx context.Context, r io.Reader) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		words := strings.Fields(sc.Text())
		if len(words) == 0 {
			continue
		}
		if err := x.words(ctx, words, true); err != nil {
			return err
		}
	}
	return sc.Err()
}

func (x *xlitRunner) interactive(ctx context.Context) error {
	_, _ = fmt.Fprintf(x.out, "transliterating to %s; Ctrl+D to exit\n", x.lang)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := readInteractiveLine(">>> ")
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		words := strings.Fields(line)
		if len(words) == 0 {
			continue
		}
		if err := x.words(ctx, words, len(words) > 1); err != nil {
			return err
		}
	}
}

func writeResults(w io.Writer, word string, results []inference.ScoredWord, scores, heading bool) {
	indent := ""
	if heading {
		_, _ = fmt.Fprintf(w, "%s:\n", word)
		indent = "  "
	}
	for _, r := range results {
		if scores {
			_, _ = fmt.Fprintf(w, "%s%s\t%.4f\n", indent, r.Word, r.Score)
			continue
		}
		_, _ = fmt.Fprintf(w, "%s%s\n", indent, r.Word)
	}
}
