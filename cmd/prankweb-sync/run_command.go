package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"prankweb-sync/internal/config"
	"prankweb-sync/internal/logging"
	"prankweb-sync/internal/pipeline"
	"prankweb-sync/internal/registry"
	"prankweb-sync/internal/services/pdb"
	"prankweb-sync/internal/services/prankweb"
)

func newRunCommand(configFlag *string) *cobra.Command {
	var serverFlag string
	var serverDirFlag string
	var dataFlag string
	var fromFlag string
	var p2rankVersionFlag string
	var strictFlag bool
	var logLevelFlag string
	var logFormatFlag string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one synchronization: discovery, polling, conversion",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFlag)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("server") {
				cfg.Server.URL = serverFlag
			}
			if flags.Changed("server-directory") {
				if cfg.Server.PredictionDir, err = config.ExpandPath(serverDirFlag); err != nil {
					return err
				}
			}
			if flags.Changed("data") {
				if cfg.Paths.DataDir, err = config.ExpandPath(dataFlag); err != nil {
					return err
				}
			}
			if flags.Changed("p2rank-version") {
				cfg.Sync.P2RankVersion = p2rankVersionFlag
			}
			if flags.Changed("strict") {
				cfg.Sync.Strict = strictFlag
			}
			if flags.Changed("log-level") {
				cfg.Logging.Level = logLevelFlag
			}
			if flags.Changed("log-format") {
				cfg.Logging.Format = logFormatFlag
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}

			from := fromFlag
			if from == "" {
				from = defaultFromDate()
			}
			if _, err := time.Parse(time.RFC3339, from); err != nil {
				return fmt.Errorf("parse --from date %q: %w", from, err)
			}

			logger, err := logging.New(logging.Options{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
				Writer: cmd.OutOrStdout(),
			})
			if err != nil {
				return err
			}
			logger = logger.With(logging.String(logging.FieldRunID, uuid.NewString()))

			store, err := registry.Open(cfg.Paths.DataDir)
			if err != nil {
				return err
			}

			discovery, err := pdb.New(cfg.PDB.SearchURL)
			if err != nil {
				return err
			}
			prediction, err := prankweb.New(cfg.Server.URL, cfg.Server.PredictionDir)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			runner := pipeline.NewRunner(cfg, store, logger, discovery, prediction)
			return runner.Run(ctx, from)
		},
	}

	cmd.Flags().StringVar(&serverFlag, "server", "", "URL of the prankweb server, without a trailing slash")
	cmd.Flags().StringVar(&serverDirFlag, "server-directory", "", "Optional path to a local prediction directory")
	cmd.Flags().StringVar(&dataFlag, "data", "", "Path to the registry data directory")
	cmd.Flags().StringVar(&fromFlag, "from", "", "Discovery watermark date, e.g. 2026-08-15T00:00:00Z (default: two weeks ago)")
	cmd.Flags().StringVar(&p2rankVersionFlag, "p2rank-version", "", "Version of the p2rank release that produced the predictions")
	cmd.Flags().BoolVar(&strictFlag, "strict", false, "Abort the whole run on the first FunPDBe conversion failure")
	cmd.Flags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error")
	cmd.Flags().StringVar(&logFormatFlag, "log-format", "", "Log format: console or json")

	return cmd
}

func defaultFromDate() string {
	return time.Now().UTC().Add(-14 * 24 * time.Hour).Format(time.RFC3339)
}
