package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bastiangx/typeahead/internal/cli"
	"github.com/bastiangx/typeahead/internal/logger"
	"github.com/bastiangx/typeahead/internal/utils"
	"github.com/bastiangx/typeahead/pkg/config"
	"github.com/bastiangx/typeahead/pkg/server"
	"github.com/bastiangx/typeahead/pkg/suggest"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	debugMode  bool
	configPath string
	corpusDir  string
	currentDoc string
	noCache    bool
	topN       int
	prune      bool

	cfg       *config.Config
	activeCfg string

	rootCmd = &cobra.Command{
		Use:           AppName,
		Short:         "Predictive text input for scripture editing",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger.Setup(debugMode)
			var err error
			cfg, activeCfg, err = config.LoadConfigWithPriority(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			log.Debugf("Using config: %s", config.GetActiveConfigPath(activeCfg))
			return nil
		},
	}

	indexCmd = &cobra.Command{
		Use:   "index",
		Short: "Scan the corpus and print the top of the ranked vocabulary",
		RunE:  runIndex,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve edit sessions over msgpack on stdin/stdout",
		RunE:  runServe,
	}

	cliCmd = &cobra.Command{
		Use:   "cli",
		Short: "Type into a live session in the terminal (debugging)",
		RunE:  runCLI,
	}

	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration",
	}
	configPathCmd = &cobra.Command{
		Use:   "path",
		Short: "Print the active config file path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), config.GetActiveConfigPath(activeCfg))
		},
	}
	configCheckCmd = &cobra.Command{
		Use:   "check",
		Short: "Validate the config file and list corrections",
		RunE:  runConfigCheck,
	}
	configRebuildCmd = &cobra.Command{
		Use:   "rebuild",
		Short: "Overwrite the default config file with built-in defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.RebuildConfigFile()
			if err != nil {
				return fmt.Errorf("failed to rebuild config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version info",
		Run:   func(cmd *cobra.Command, args []string) { showVersion() },
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debugMode, "debug", "d", false, "Toggle debug mode")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a custom typeahead.toml")

	for _, cmd := range []*cobra.Command{indexCmd, serveCmd, cliCmd} {
		cmd.Flags().StringVar(&corpusDir, "corpus", "", "Corpus directory (overrides corpus.dir)")
		cmd.Flags().StringVar(&currentDoc, "current", "", "ID of the document being edited (overrides corpus.current_document)")
		cmd.Flags().BoolVar(&noCache, "no-cache", false, "Always rebuild the ranked list")
	}
	indexCmd.Flags().IntVarP(&topN, "top", "n", 20, "Number of ranked entries to print")
	indexCmd.Flags().BoolVar(&prune, "prune", false, "Remove cache entries other than the current one")

	configCmd.AddCommand(configPathCmd, configCheckCmd, configRebuildCmd)
	rootCmd.AddCommand(indexCmd, serveCmd, cliCmd, configCmd, versionCmd)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	vocab, err := buildVocabulary(ctx, cfg, vocabOptions{corpusDir, currentDoc, noCache})
	if err != nil {
		return err
	}
	if prune {
		removed, err := vocab.pruneCache()
		if err != nil {
			log.Warnf("Pruning cache: %v", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "pruned %d cache entries\n", removed)
	}
	printVocabulary(cmd.OutOrStdout(), vocab, topN)
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	vocab, err := buildVocabulary(ctx, cfg, vocabOptions{corpusDir, currentDoc, noCache})
	if err != nil {
		return err
	}
	srv := server.NewServer(server.Options{
		Words:       vocab.words,
		MinLength:   cfg.Completion.MinLength,
		MaxLength:   cfg.Completion.MaxLength,
		Rules:       cfg.AutocorrectRules(),
		Session:     cfg.SessionOptions(nil, debugMode),
		MaxSessions: cfg.Server.MaxSessions,
	})
	showStartupInfo(vocab)
	if err := srv.Start(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}

func runCLI(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	vocab, err := buildVocabulary(ctx, cfg, vocabOptions{corpusDir, currentDoc, noCache})
	if err != nil {
		return err
	}
	store := suggest.NewStore(cfg.Completion.MinLength, cfg.Completion.MaxLength)
	store.Load(vocab.words, false)

	// the terminal loop is synchronous, refreshes run on every edit
	opts := cfg.SessionOptions(nil, debugMode)
	opts.Debounce = 0
	h := cli.NewInputHandler(store, cfg.AutocorrectRules(), opts, cmd.OutOrStdout())
	return h.Start(cmd.InOrStdin())
}

func runConfigCheck(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	path := config.GetActiveConfigPath(activeCfg)
	loaded, err := config.LoadConfig(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	errs := loaded.Validate()
	if len(errs) == 0 {
		fmt.Fprintf(out, "%s: ok\n", path)
		return nil
	}
	for _, e := range errs {
		fmt.Fprintf(out, "%s: %v\n", path, e)
	}
	return nil
}

// showVersion prints the version banner.
func showVersion() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
		Prefix:          "",
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"}).
		Background(lipgloss.AdaptiveColor{Light: "#f2e9e1", Dark: "#26233a"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	logger.SetStyles(styles)

	logger.Print("")
	logger.Print("[ typeahead ] Completions from your own corpus, as you type")
	logger.Print("", "version", Version)
	logger.Print("")
	logger.Print("use -h or --help to see available options")
	logger.Print("Github Repo", "gh", gh)
}

// showStartupInfo displays basic info about the init process on stderr.
func showStartupInfo(vocab *vocabulary) {
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)
	defer log.SetLevel(currentLevel)

	pr, err := utils.NewPathResolver()
	log.Infof("%s %s", AppName, Version)
	log.Infof("Process ID: [ %d ]", os.Getpid())
	log.Infof("corpus dir: ( %s )", vocab.dir)
	log.Infof("vocabulary: %s entries", utils.FormatWithCommas(len(vocab.words)))
	if err == nil && debugMode {
		for k, v := range pr.GetRuntimeInfo() {
			log.Info("runtime", k, v)
		}
	}
	log.Info("status: ready")
}
