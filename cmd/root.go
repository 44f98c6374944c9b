// Package cmd implements the dubaieta command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kilianp07/dubaieta/app"
	"github.com/kilianp07/dubaieta/config"
	"github.com/kilianp07/dubaieta/infra/logger"
)

type options struct {
	cfgPath string
	envFile string
}

// NewRootCmd builds the CLI. Running it without a subcommand serves the API.
func NewRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "dubaieta",
		Short:         "Dubai ride-hailing ETA prediction service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return loadEnv(opts.envFile)
		},
		RunE: func(cmd *cobra.Command, _ []string) error { return serve(cmd, opts) },
	}
	root.PersistentFlags().StringVarP(&opts.cfgPath, "config", "c", "", "configuration file (yaml or json); defaults apply when empty")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before the configuration")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Serve the prediction API",
			RunE:  func(cmd *cobra.Command, _ []string) error { return serve(cmd, opts) },
		},
		newGenerateCmd(opts),
		newTrainCmd(opts),
		newPredictCmd(opts),
		newZonesCmd(opts),
	)
	return root
}

// Execute runs the CLI.
func Execute() error { return NewRootCmd().Execute() }

// loadEnv loads a dotenv file. A missing file is not an error.
func loadEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func (o *options) load() (*config.Config, error) {
	cfg, err := config.Load(o.cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func serve(cmd *cobra.Command, opts *options) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := opts.load()
	if err != nil {
		return err
	}
	svc, err := app.NewService(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	return svc.Run(ctx)
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
