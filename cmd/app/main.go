package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clinicalorders/cmd"
	"clinicalorders/internal/jobs"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func main() {
	rootCmd := &cobra.Command{
		Use:           "orders",
		Short:         "Clinical order lifecycle service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(auditCmd())
	rootCmd.AddCommand(nextNumberCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withRoot loads the configuration, builds the composition root and hands it to fn.
func withRoot(ctx context.Context, fn func(ctx context.Context, root *cmd.CompositionRoot) error) error {
	cfg, err := cmd.LoadConfig()
	if err != nil {
		return err
	}

	root, err := cmd.NewCompositionRoot(ctx, cfg, cmd.NewLogger(cfg))
	if err != nil {
		return err
	}
	defer root.Close()

	return fn(ctx, root)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the audit job and the ops server (/health, /metrics)",
		RunE: func(c *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(c.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := cmd.LoadConfig()
			if err != nil {
				return err
			}
			logger := cmd.NewLogger(cfg)

			root, err := cmd.NewCompositionRoot(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer root.Close()

			manager := jobs.NewJobManager(root.CreateActiveOrderAuditJob())
			if err = manager.StartAll(); err != nil {
				return err
			}
			defer manager.StopAll()

			server := root.CreateOpsServer()
			serveErr := make(chan error, 1)
			go func() {
				serveErr <- server.Start(fmt.Sprintf("0.0.0.0:%s", cfg.HTTPPort))
			}()

			select {
			case err = <-serveErr:
				return err
			case <-ctx.Done():
			}

			logger.Info().Msg("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the order tables and the order number sequence",
		RunE: func(c *cobra.Command, _ []string) error {
			return withRoot(c.Context(), func(ctx context.Context, root *cmd.CompositionRoot) error {
				if err := root.Migrate(ctx); err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				fmt.Fprintln(c.OutOrStdout(), "Migrations applied successfully.")
				return nil
			})
		},
	}
}

func auditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Report conflicting active orders once and exit non-zero if any exist",
		RunE: func(c *cobra.Command, _ []string) error {
			return withRoot(c.Context(), func(ctx context.Context, root *cmd.CompositionRoot) error {
				conflicts, err := root.CreateActiveOrderAuditJob().Run(ctx)
				if err != nil {
					return err
				}

				out := c.OutOrStdout()
				for _, conflict := range conflicts {
					fmt.Fprintf(out, "%s\t%s\tpatient=%s\tconflicts=%v\n",
						conflict.OrderNumber, conflict.Order, conflict.Patient, conflict.ConflictsWith)
				}
				if len(conflicts) > 0 {
					return errors.New("found conflicting active orders")
				}
				fmt.Fprintln(out, "No conflicting active orders.")
				return nil
			})
		},
	}
}

func nextNumberCmd() *cobra.Command {
	cmdNext := &cobra.Command{
		Use:   "next-number",
		Short: "Draw order numbers from the configured generator",
		RunE: func(c *cobra.Command, _ []string) error {
			count, _ := c.Flags().GetInt("count")
			strategy, _ := c.Flags().GetString("strategy")

			return withRoot(c.Context(), func(ctx context.Context, root *cmd.CompositionRoot) error {
				numbers := root.Numbers()
				if strategy != "" {
					if err := numbers.Reconfigure(strategy); err != nil {
						return err
					}
				}
				for range count {
					n, err := numbers.Next(ctx)
					if err != nil {
						return err
					}
					fmt.Fprintln(c.OutOrStdout(), n)
				}
				return nil
			})
		},
	}
	cmdNext.Flags().Int("count", 1, "How many numbers to draw")
	cmdNext.Flags().String("strategy", "", "Generator to use instead of ORDER_NUMBER_GENERATOR")
	return cmdNext
}
