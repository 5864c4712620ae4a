package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bananadesuyo/iwataGPT/pkg/corpus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "iwatagpt",
	Short: "A Markov-chain chat bot that talks like its corpus",
	Long: `iwatagpt learns which word follows which from a corpus of example
sentences and answers your input with a random walk over what it learned.

Corpora are listed in the "models" section of config.json and can be JSON, YAML
or text files, HTTP(S) URLs, or corpora imported into the SQLite corpus store.`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the chat HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the bot in the terminal",
	Long: `Start an interactive chat session.

Commands:
  /models        list the available models
  /model <name>  switch to another model
  /quit          leave the chat`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

var importCmd = &cobra.Command{
	Use:   "import <source> <name>",
	Short: "Copy a corpus into the SQLite corpus store",
	Long: `Load a corpus from any source (file, URL or sqlite:<dsn>#<name>) and store it
in the corpus database under <name>. It can then be used as a model source
with sqlite:<corpus_database_path>#<name>.`,
	Args: cobra.ExactArgs(2),
	RunE: runImport,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "iwatagpt %s (commit %s, built %s)\n", Version, Commit, BuildDate)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./config.json", "path to config.json")

	chatCmd.Flags().StringP("model", "m", "", "model to start with (defaults to the first configured model)")
	chatCmd.Flags().Uint64("seed", 0, "seed for reproducible replies (0 means random)")
	chatCmd.Flags().Bool("watch", false, "reload the model when its corpus file changes")

	rootCmd.AddCommand(serveCmd, chatCmd, importCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	baseLogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	actionChan := make(chan string, 1)

	go func() {
		osSignalChan := make(chan os.Signal, 1)
		signal.Notify(osSignalChan, syscall.SIGINT, syscall.SIGTERM)
		<-osSignalChan // Wait for a signal
		baseLogger.Info("OS signal received, initiating shutdown.")
		select {
		case actionChan <- actionShutdown:
		default: // An action is already pending.
		}
	}()

	for {
		action, err := run(actionChan)
		if err != nil {
			baseLogger.Error("An error occurred during server run, shutting down.", "error", err)
			return err
		}

		if action == actionRestart {
			baseLogger.Info("--- Server Restarting ---")
			continue
		}
		break
	}

	baseLogger.Info("iwataGPT has shut down.")
	return nil
}

// run hosts the API server and its background jobs, and returns whenever the
// server is shut down or restarted.
func run(actionChan chan string) (string, error) {
	cm, err := NewConfigManager(configPath)
	if err != nil {
		return "", fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg := cm.Get()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Server.SlogLevel()}))
	logger.Info("Starting server cycle...")

	tokenizer, err := cfg.Chat.NewTokenizer()
	if err != nil {
		return "", fmt.Errorf("failed to create tokenizer: %w", err)
	}

	store, closeStore, err := openCorpusStore(cfg.Server, logger)
	if err != nil {
		return "", err
	}
	defer closeStore()

	server := NewServer(cm, logger, tokenizer, nil, store, actionChan)
	apiHttpServer := &http.Server{
		Addr:              cfg.Server.ApiAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		logger.Info("Starting api server", "address", apiHttpServer.Addr)
		if err := apiHttpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server failed: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		return server.expireSessions(egCtx, cfg.Server.SessionIdle())
	})
	if cfg.Server.WatchCorpora {
		eg.Go(func() error {
			return server.watchCorpora(egCtx)
		})
	}

	var action string
	select {
	case action = <-actionChan: // Block here until API or OS signal sends an action.
	case <-egCtx.Done():
		action = actionShutdown
	}

	logger.Info("Stopping server for " + action + "...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err = apiHttpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Api server shutdown failed", "error", err)
	}
	cancel()

	if err = eg.Wait(); err != nil {
		return "", err
	}
	logger.Info("HTTP server stopped.")
	return action, nil
}

func runImport(cmd *cobra.Command, args []string) error {
	source, name := args[0], args[1]

	cm, err := NewConfigManager(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg := cm.Get()
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.Server.SlogLevel()}))

	entries, err := corpus.Load(cmd.Context(), source)
	if err != nil {
		return err
	}

	store, closeStore, err := openCorpusStore(cfg.Server, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	if err = store.Import(cmd.Context(), name, entries); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "imported %d entries as %q; use source %q\n",
		len(entries), name, "sqlite:"+cfg.Server.CorpusDatabasePath+"#"+name)
	return nil
}

// openCorpusStore opens the corpus database, creating the data directory and
// schema when needed. The returned func closes the store and the database.
func openCorpusStore(cfg *ServerConfig, logger *slog.Logger) (*corpus.Store, func(), error) {
	if cfg.DataDir != "" {
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create data dir: %w", err)
		}
	}

	db, err := corpus.OpenDB(cfg.CorpusDatabasePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open corpus database: %w", err)
	}
	if err = corpus.SetupSchema(db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to setup corpus schema: %w", err)
	}
	store, err := corpus.NewStore(db)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to prepare corpus store: %w", err)
	}
	store.SetLogger(logger)

	return store, func() {
		store.Close()
		_ = db.Close()
	}, nil
}
