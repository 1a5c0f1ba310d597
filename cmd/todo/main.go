package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"tasklist/internal/config"
	"tasklist/internal/logger"
	"tasklist/internal/storage"
)

type rootFlags struct {
	configPath string
	dbPath     string
	logLevel   string
	logJSON    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	srv := &serveFlags{}
	root := &cobra.Command{
		Use:           "todo",
		Short:         "A small task list served over HTTP",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, flags, srv)
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", config.ResolveConfigPath(), "path to config.toml")
	pf.StringVar(&flags.dbPath, "db", "", "database file (overrides db_path)")
	pf.StringVar(&flags.logLevel, "log-level", "", "debug|info|warn|error")
	pf.BoolVar(&flags.logJSON, "log-json", false, "log as JSON")
	srv.register(root)

	root.AddCommand(newServeCmd(flags), newTUICmd(flags), newInitDBCmd(flags))
	return root
}

// load resolves config and logger for a command. Flags set on the command line
// win over the config file.
func load(cmd *cobra.Command, flags *rootFlags) (config.Config, context.Context, error) {
	if err := config.LoadDotEnv(); err != nil {
		return config.Config{}, nil, fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.LoadOrCreate(flags.configPath)
	if err != nil {
		return cfg, nil, fmt.Errorf("load config: %w", err)
	}
	if flags.dbPath != "" {
		cfg.DBPath = flags.dbPath
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	if cmd.Flags().Changed("log-json") {
		cfg.LogJSON = flags.logJSON
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, JSON: cfg.LogJSON})
	logger.SetDefault(log)
	return cfg, logger.ContextWithLogger(cmd.Context(), log), nil
}

func openStore(ctx context.Context, cfg config.Config) (*storage.Store, error) {
	st, err := storage.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	logger.FromContext(ctx).Debug("database ready", "path", st.Path())
	return st, nil
}
