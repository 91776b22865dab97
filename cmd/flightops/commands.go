package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"flightops/internal/app"
	"flightops/internal/config"
	"flightops/internal/exporter"
	"flightops/internal/infrastructure"
	"flightops/internal/security"
	"flightops/internal/services"
	"flightops/pkg/contracts"
	"flightops/pkg/contracts/domain"
)

// cli carries what every subcommand needs after PersistentPreRunE
type cli struct {
	configPath string
	cfg        *config.Config
	logger     *slog.Logger
}

// NewRootCommand builds the flightops command tree
func NewRootCommand() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "flightops",
		Short:         "Drone flight-log dashboard",
		Version:       contracts.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return infrastructure.CloseLogFile()
		},
	}
	root.SetVersionTemplate(contracts.GetFullVersionString() + "\n")
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "path to flightops.yaml (defaults to the usual search locations)")

	root.AddCommand(
		c.newServeCommand(),
		c.newSummaryCommand(),
		c.newExportCommand(),
		c.newCredentialsCommand(),
	)
	return root
}

func (c *cli) init(cmd *cobra.Command) error {
	var err error
	if c.configPath != "" {
		c.cfg, err = config.LoadFrom(c.configPath)
	} else {
		c.cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	// Only serve logs to stdout; the other commands keep stdout for their output.
	console := cmd.ErrOrStderr()
	if cmd.Name() == "serve" {
		console = cmd.OutOrStdout()
	}
	c.logger, err = infrastructure.InitializeLogger(c.cfg.Logging, console)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// dashboard builds a service over the configured source without a notifier
func (c *cli) dashboard() (*services.DashboardService, error) {
	src, err := app.NewRecordSource(c.cfg.Source, c.logger)
	if err != nil {
		return nil, err
	}
	classifier, err := c.cfg.FleetClassifier()
	if err != nil {
		return nil, err
	}
	return services.NewDashboardService(services.DashboardConfig{
		CacheTTL:     c.cfg.Cache.TTL,
		FetchTimeout: c.cfg.Source.FetchTimeout,
	}, src, classifier, nil, nil, c.logger), nil
}

func (c *cli) newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := app.NewApplication(c.cfg, c.logger)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			return application.Run(cmd.Context())
		},
	}
}

func (c *cli) newSummaryCommand() *cobra.Command {
	var fleet, pilot string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the dashboard views for a fleet as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.dashboard()
			if err != nil {
				return err
			}
			view, err := svc.Dashboard(cmd.Context(), domain.Query{Fleet: domain.FleetGroup(fleet), Pilot: pilot})
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(view)
		},
	}

	cmd.Flags().StringVarP(&fleet, "fleet", "f", "", "fleet to summarize (required)")
	cmd.Flags().StringVarP(&pilot, "pilot", "p", domain.AllPilots, "restrict to one pilot")
	_ = cmd.MarkFlagRequired("fleet")
	return cmd
}

func (c *cli) newExportCommand() *cobra.Command {
	var format, out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the enriched flight table to a file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format == "" {
				format = c.cfg.Export.Format
			}
			f, err := exporter.ParseFormat(format)
			if err != nil {
				return err
			}
			if out == "" {
				name := strings.TrimSuffix(c.cfg.Export.FileName, filepath.Ext(c.cfg.Export.FileName))
				out = filepath.Join(c.cfg.Export.Dir, name+f.Extension())
			}

			svc, err := c.dashboard()
			if err != nil {
				return err
			}
			table, err := svc.CurrentTable(cmd.Context())
			if err != nil {
				return err
			}

			opts := exporter.WriteOptions{BOMPrefix: c.cfg.Export.IncludeBOM}
			if err := exporter.WriteFile(out, table, f, opts); err != nil {
				return err
			}
			c.logger.Info("Export written", slog.String("path", out), slog.Int("records", table.Len()))
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "csv or xlsx (defaults to export.format)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output path (defaults to export.dir/export.file_name)")
	return cmd
}

func (c *cli) newCredentialsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Manage the service-account credentials file",
	}

	var in, out, passphraseEnv string
	encrypt := &cobra.Command{
		Use:   "encrypt",
		Short: "Encrypt a service-account JSON file with a passphrase",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphraseEnv == "" {
				passphraseEnv = c.cfg.Source.PassphraseEnv
			}
			passphrase := os.Getenv(passphraseEnv)
			if passphrase == "" {
				return fmt.Errorf("%w: set %s", security.ErrEmptyPassphrase, passphraseEnv)
			}
			if out == "" {
				out = c.cfg.Source.CredentialsFile
			}
			if filepath.Clean(in) == filepath.Clean(out) {
				return errors.New("--in and --out must differ")
			}

			if err := security.EncryptFile(in, out, []byte(passphrase), security.DefaultEncryptionConfig()); err != nil {
				return err
			}
			c.logger.Info("Credentials encrypted", slog.String("out", out))
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	encrypt.Flags().StringVarP(&in, "in", "i", "", "plaintext service-account JSON (required)")
	encrypt.Flags().StringVarP(&out, "out", "o", "", "encrypted output path (defaults to source.credentials_file)")
	encrypt.Flags().StringVar(&passphraseEnv, "passphrase-env", "", "environment variable holding the passphrase (defaults to source.passphrase_env)")
	_ = encrypt.MarkFlagRequired("in")

	cmd.AddCommand(encrypt)
	return cmd
}
