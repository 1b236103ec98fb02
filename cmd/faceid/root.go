package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/faceid/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/faceid/internal/bootstrap"
	"github.com/saturnino-fabrica-de-software/faceid/internal/config"
)

// buildFunc assembles the pipeline; tests swap it for one with mock models
type buildFunc func(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...bootstrap.Option) (*bootstrap.Pipeline, error)

// cli holds state shared by every subcommand for one invocation
type cli struct {
	build    buildFunc
	envFile  string
	verbose  bool
	userID   string
	cfg      *config.Config
	logger   *slog.Logger
	pipeline *bootstrap.Pipeline
}

func newRootCmd(build buildFunc) *cobra.Command {
	c := &cli{build: build}

	root := &cobra.Command{
		Use:           "faceid",
		Short:         "Face enrollment, verification and identity-targeted masking",
		Version:       handler.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return c.teardown()
		},
	}
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	root.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "Dotenv file loaded before reading the environment")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Log pipeline decisions to stderr")

	root.AddCommand(
		newEnrollCmd(c),
		newVerifyCmd(c),
		newMaskCmd(c),
		newDeleteCmd(c),
	)
	return root
}

// setup loads configuration and builds the models once per invocation
func (c *cli) setup(cmd *cobra.Command) error {
	if c.envFile != "" {
		// a missing file is fine; the environment alone may be complete
		_ = godotenv.Load(c.envFile)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	c.cfg = cfg

	level := slog.LevelWarn
	if c.verbose {
		level = slog.LevelDebug
	}
	c.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	c.pipeline, err = c.build(cmd.Context(), cfg, c.logger)
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}
	return nil
}

func (c *cli) teardown() error {
	if c.pipeline == nil {
		return nil
	}
	err := c.pipeline.Close()
	c.pipeline = nil
	return err
}

// addUserFlag registers the required --user flag on cmd
func (c *cli) addUserFlag(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&c.userID, "user", "u", "", "Identity the operation applies to")
	_ = cmd.MarkFlagRequired("user")
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
