package main

import (
	"github.com/samcharles93/indicxlit/internal/rescore"
	"github.com/urfave/cli/v3"
)

var (
	modelDir     string
	dictDir      string
	beamWidth    int64
	maxLen       int64
	rescoreFlag  bool
	rescoreAlpha float64
	parallelism  int64
	threads      int64
	provider     string
	ortLibrary   string
	dictURL      string

	configFile string
	logLevel   string
	logFormat  string
	debug      bool
)

func engineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "model-dir",
			Aliases:     []string{"m"},
			Usage:       "directory containing vocab.json and the ONNX encoder/decoder",
			Sources:     cli.EnvVars(envModelDir),
			Destination: &modelDir,
		},
		&cli.StringFlag{
			Name:        "dict-dir",
			Usage:       "directory for word probability dictionaries (default <model-dir>/word_prob_dicts)",
			Sources:     cli.EnvVars(envDictDir),
			Destination: &dictDir,
		},
		&cli.Int64Flag{
			Name:        "beam-width",
			Aliases:     []string{"b"},
			Usage:       "beam width (raised to --count when smaller)",
			Value:       4,
			Destination: &beamWidth,
		},
		&cli.Int64Flag{
			Name:        "max-len",
			Usage:       "maximum output tokens",
			Value:       20,
			Destination: &maxLen,
		},
		&cli.BoolFlag{
			Name:        "rescore",
			Usage:       "re-rank results with the word probability dictionary",
			Destination: &rescoreFlag,
		},
		&cli.Float64Flag{
			Name:        "rescore-alpha",
			Usage:       "weight of the model probability when rescoring",
			Value:       rescore.DefaultAlpha,
			Destination: &rescoreAlpha,
		},
		&cli.Int64Flag{
			Name:        "parallelism",
			Usage:       "concurrent decoder calls per step (0 = beam width)",
			Destination: &parallelism,
		},
		&cli.Int64Flag{
			Name:        "threads",
			Usage:       "ONNX Runtime intra-op threads (0 = physical cores)",
			Destination: &threads,
		},
		&cli.StringFlag{
			Name:        "provider",
			Usage:       "execution provider (auto, cpu, cuda)",
			Value:       "auto",
			Destination: &provider,
		},
		&cli.StringFlag{
			Name:        "onnxruntime-lib",
			Usage:       "path to the ONNX Runtime shared library",
			Sources:     cli.EnvVars(envORTLibrary),
			Destination: &ortLibrary,
		},
	}
}

func dictURLFlag() cli.Flag {
	return &cli.StringFlag{
		Name:        "dict-url",
		Usage:       "dictionary archive URL",
		Destination: &dictURL,
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "config file (default $XDG_CONFIG_HOME/indicxlit/config.yaml)",
			Destination: &configFile,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}
