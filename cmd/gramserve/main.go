// Copyright 2026 The GramServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the n-gram model server and CLI [DBG] application.

GramServe trains an n-gram language model over token streams and serves
frequency, probability and completion queries. Counts live in a ternary
search tree with subsequence counting, so every stored n-gram and each
of its leading sub-grams can be queried in a single structure. It can
operate as a MessagePack IPC server for integration with analysis
pipelines, or as a CLI application for testing and debugging.

Models are built either by streaming a tagged corpus file or by loading
a precomputed counts table. Loaded counts are inserted in median-split
order so the tree stays balanced regardless of key distribution.

# Usage

Train from a corpus and start the server:

	gramserve -corpus /path/to/corpus.txt -n 3

Load precomputed counts and enable debug mode:

	gramserve -counts /path/to/counts.tsv -d

Run in CLI mode for interactive testing:

	gramserve -counts /path/to/counts.tsv -c -limit 10

The counts file holds tab-separated "key<TAB>count" lines where keys are
separator-joined n-grams. The corpus file holds one token per line with
tab-separated annotation fields and </s> boundary markers.

# Configuration

Runtime configuration is managed through a TOML file that supports model
parameters, server limits, and CLI defaults:

	[model]
	n = 3
	boundary = "</s>"
	separator = "#"

	[server]
	max_limit = 64
	max_prefix = 256
	max_sequence = 64

The config file is automatically created with defaults if it doesn't
exist.

# IPC Protocol

The server communicates via MessagePack over stdin/stdout. Requests are
processed synchronously with timing information included in responses.

Send a completion request:

	{"id": "req1", "cmd": "complete", "p": "the", "l": 20}

Receive stored keys with frequency ranking:

	{"id": "req1", "s": [{"k": "the#cat", "f": 12}], "c": 1, "t": 145}

Probability and frequency requests carry token sequences:

	{"id": "req2", "cmd": "prob", "seq": ["the", "cat"]}

# Server Mode

The default mode starts a MessagePack IPC server that processes query
requests from stdin and writes responses to stdout. Logs go to stderr
so the stdout channel stays clean.

	srv := server.NewServer(languageModel, appConfig)
	err := srv.Start()

# CLI Mode

CLI mode provides an interactive interface for testing and debugging
model queries. It reads token sequences from stdin and displays
per-token conditional probabilities, sequence frequency and stored
continuations.

	inputHandler := cli.NewInputHandler(languageModel, maxSequence, limit)
	err := inputHandler.Start()

# Command Line Flags

The following flags control application behavior:

	-corpus string
	    Tagged corpus file to train from
	-counts string
	    Precomputed counts file to load
	-vocab string
	    Vocabulary file restricting trained tokens
	-targets string
	    Target file restricting enumerated final tokens
	-n int
	    Maximum n-gram length (default from config)
	-subseq
	    Derive subsequence counts while loading a counts file
	-d  Enable debug mode with detailed logging
	-c  Run in CLI mode instead of server mode
	-limit int
	    Number of completions to return (default from config)
	-config string
	    Custom config file path
*/
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/gramserve/gramserve/internal/cli"
	"github.com/gramserve/gramserve/internal/utils"
	"github.com/gramserve/gramserve/pkg/config"
	"github.com/gramserve/gramserve/pkg/corpus"
	"github.com/gramserve/gramserve/pkg/model"
	"github.com/gramserve/gramserve/pkg/order"
	"github.com/gramserve/gramserve/pkg/server"
)

const (
	Version = "0.3.0"
	AppName = "gramserve"
	gh      = "https://github.com/gramserve/gramserve"
)

// sigHandler is a simple handler for OS signals to exit normally.
func sigHandler() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		os.Exit(0)
	}()
}

// main calls other packages to initialize the server or CLI inputs.
// main() does not implement logic for them and only manages the flow.
func main() {
	sigHandler()

	// custom Flags
	showVersion := flag.Bool("version", false, "Show current version")
	corpusPath := flag.String("corpus", "", "Tagged corpus file to train from")
	countsPath := flag.String("counts", "", "Precomputed counts file to load")
	vocabPath := flag.String("vocab", "", "Vocabulary file restricting trained tokens")
	targetsPath := flag.String("targets", "", "Target file restricting enumerated final tokens")
	ngramOrder := flag.Int("n", 0, "Maximum n-gram length (0 uses the config value)")
	subsequences := flag.Bool("subseq", false, "Derive subsequence counts while loading a counts file")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	cliMode := flag.Bool("c", false, "Run CLI -- useful for testing and debugging")
	limit := flag.Int("limit", 0, "Number of completions to return (0 uses the config value)")
	configPath := flag.String("config", "", "Custom config file path")

	flag.Parse()

	if *showVersion {
		showVersionInfo()
		os.Exit(0)
	}

	if *debugMode {
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(true)
	} else {
		log.SetLevel(log.WarnLevel)
	}

	appConfig, activePath, err := config.LoadConfigWithPriority(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Debugf("Using config file: (%s)", config.GetActiveConfigPath(activePath))

	if *ngramOrder > 0 {
		appConfig.Model.N = *ngramOrder
	}
	if *limit > 0 {
		appConfig.CLI.DefaultLimit = *limit
	}

	languageModel, err := buildModel(appConfig, *corpusPath, *countsPath, *vocabPath, *targetsPath, *subsequences)
	if err != nil {
		log.Fatalf("Failed to build model: %v", err)
	}

	// CLI would be mainly used for testing and dbg purposes.
	// Any new features or changes should be tested in CLI mode first.
	if *cliMode {
		log.SetReportTimestamp(false)
		log.Debug("Input info:",
			"maxSequence", appConfig.Server.MaxSequence,
			"limit", appConfig.CLI.DefaultLimit)

		inputHandler := cli.NewInputHandler(languageModel, appConfig.Server.MaxSequence, appConfig.CLI.DefaultLimit)
		if err := inputHandler.Start(); err != nil {
			log.Fatalf("CLI error: %v", err)
		}
		return
	}

	log.Debug("spawning IPC")
	srv := server.NewServer(languageModel, appConfig)

	showStartupInfo(languageModel)

	if err := srv.Start(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// buildModel constructs the language model from the given sources. A
// counts file is loaded in median-split insertion order; a corpus file
// is streamed through training. Both may be combined.
func buildModel(appConfig *config.Config, corpusPath, countsPath, vocabPath, targetsPath string, subsequences bool) (*model.Model, error) {
	opts := model.Options{
		Boundary:  appConfig.Model.Boundary,
		Separator: appConfig.Model.SeparatorRune(),
		Progress: func(consumed int) {
			log.Debugf("trained on %s tokens", utils.FormatWithCommas(consumed))
		},
	}

	if vocabPath != "" {
		vocabulary, err := corpus.LoadVocabulary(vocabPath)
		if err != nil {
			return nil, err
		}
		opts.Vocabulary = vocabulary
	}
	if targetsPath != "" {
		targets, err := corpus.LoadVocabulary(targetsPath)
		if err != nil {
			return nil, err
		}
		opts.Targets = targets
	}

	languageModel, err := model.New(appConfig.Model.N, opts)
	if err != nil {
		return nil, err
	}

	if countsPath != "" {
		counts, err := corpus.LoadCounts(countsPath)
		if err != nil {
			return nil, err
		}
		// Median-split order keeps the tree balanced.
		for _, key := range order.MedianSplit(counts) {
			languageModel.Insert(key, counts[key], subsequences)
		}
		log.Debugf("loaded %s keys from counts file", utils.FormatWithCommas(len(counts)))
	}

	if corpusPath != "" {
		file, err := os.Open(corpusPath)
		if err != nil {
			return nil, fmt.Errorf("open corpus: %w", err)
		}
		defer file.Close()

		fieldOpts := corpus.DefaultFieldOptions()
		fieldOpts.KeepMeta = map[string]bool{appConfig.Model.Boundary: true}
		languageModel.Train(corpus.ExtractFields(file, fieldOpts))
		log.Debug("corpus training done")
	}

	if countsPath == "" && corpusPath == "" {
		log.Warn("No corpus or counts specified, running with an empty model...")
	}
	return languageModel, nil
}

// showVersionInfo prints version and repo info with styled output.
func showVersionInfo() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
		Prefix:          "",
	})

	styles := log.DefaultStyles()

	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})

	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})

	logger.SetStyles(styles)

	logger.Print("")
	logger.Print("[ GramServe ] Serves n-gram frequencies and probabilities!")
	logger.Print("", "version", Version)
	logger.Print("")
	logger.Print("use -h or --help to see available options")
	logger.Print("Github Repo", "gh", gh)
}

// showStartupInfo displays some basic info about the init process.
func showStartupInfo(languageModel *model.Model) {
	pid := os.Getpid()
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)

	println("===========")
	println(" GramServe ")
	println("===========")
	log.Infof("Version: %s", Version)
	log.Infof("Process ID: [ %d ]", pid)
	log.Info("init: OK")
	log.Infof("model: n=%d, %s events", languageModel.N(), utils.FormatWithCommas(languageModel.Total()))
	log.Info("status: ready")
	println("===========")
	println("Press Ctrl+C to exit")

	log.SetLevel(currentLevel)
}
