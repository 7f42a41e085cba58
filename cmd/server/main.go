package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"hrledger/internal/app/server"
	"hrledger/internal/domain/auth"
	"hrledger/internal/platform/config"
)

var configFile string

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		slog.Error("command failed", "err", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "hrledger",
		Short:         "Leave and attendance ledger API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "path to a ledger.yaml config file")
	flags.String("addr", ":8080", "listen address")
	flags.String("driver", "postgres", "database driver (postgres or sqlite)")
	flags.String("database", "", "database connection string")
	flags.String("env", "development", "environment name")
	flags.String("timezone", "UTC", "IANA zone that defines the calendar day")
	flags.Bool("migrate", true, "apply pending migrations on start")
	flags.Bool("seed", true, "ensure the admin account and seed data on start")
	flags.String("jwtsecret", "", "secret used to sign access tokens")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API",
			RunE: func(cmd *cobra.Command, args []string) error {
				return serve(cmd)
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply pending migrations and exit",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				cfg.RunMigrations = true
				cfg.RunSeed = false
				return withApp(cmd.Context(), cfg, func(*server.App) error {
					slog.Info("migrations complete", "driver", cfg.DatabaseDriver)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "seed",
			Short: "Ensure the admin account and optional sample data, then exit",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				cfg.RunSeed = true
				return withApp(cmd.Context(), cfg, func(*server.App) error {
					slog.Info("seed complete", "adminEmail", cfg.SeedAdminEmail, "samples", cfg.SeedSampleEmployees)
					return nil
				})
			},
		},
		newTokenCmd(),
	)
	return root
}

func newTokenCmd() *cobra.Command {
	var (
		email string
		ttl   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an access token for an existing employee",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				return fmt.Errorf("--email is required")
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			cfg.RunSeed = false
			if ttl <= 0 {
				ttl = cfg.TokenTTL
			}
			return withApp(cmd.Context(), cfg, func(app *server.App) error {
				e, err := app.Services.Employees.Store.GetByEmail(cmd.Context(), email)
				if err != nil {
					return fmt.Errorf("lookup %s: %w", email, err)
				}
				token, err := auth.GenerateToken(cfg.JWTSecret, auth.ClaimsFor(e), ttl)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email of the employee to mint a token for")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to TOKEN_TTL)")
	return cmd
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(cmd, configFile)
	if err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func serve(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return server.Run(cmd.Context(), cfg)
}

func withApp(ctx context.Context, cfg config.Config, fn func(*server.App) error) error {
	app, err := server.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(app)
}
