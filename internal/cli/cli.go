package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/Additional-Code/frostline/internal/app"
	"github.com/Additional-Code/frostline/internal/config"
	"github.com/Additional-Code/frostline/internal/entity"
	"github.com/Additional-Code/frostline/internal/logger"
	"github.com/Additional-Code/frostline/internal/migration"
	transitionrepo "github.com/Additional-Code/frostline/internal/repository/transition"
	serviceorder "github.com/Additional-Code/frostline/internal/service/order"
	servicestock "github.com/Additional-Code/frostline/internal/service/stock"
	"github.com/Additional-Code/frostline/internal/session"
	"github.com/Additional-Code/frostline/internal/tui"
)

const stopTimeout = 10 * time.Second

// NewRootCommand builds the root frostline CLI command.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "frostline",
		Short: "Production order console",
	}

	root.AddCommand(newStartCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newWorkerCmd())
	root.AddCommand(newConsoleCmd())
	root.AddCommand(newStockCmd())
	root.AddCommand(newAuditCmd())

	return root
}

// Execute runs the frostline CLI until it finishes or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return err
	}
	return nil
}

// storeOnly is the minimal graph for commands that only touch the audit DB.
var storeOnly = fx.Options(config.Module, logger.Module, app.Store)

func newStartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "start",
		Aliases: []string{"run"},
		Short:   "Run the console API and health server",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := app.Module
			if withWorker, _ := cmd.Flags().GetBool("with-worker"); withWorker {
				opts = fx.Options(app.HTTP, app.Background)
			}
			return serve(cmd.Context(), fx.New(opts))
		},
	}
	cmd.Flags().Bool("with-worker", false, "Also run the audit worker in this process")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run audit database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			var mig *migration.Migrator
			opts := fx.Options(storeOnly, migration.Module, fx.Populate(&mig))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				if err := mig.Up(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			})
		},
	}

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Rollback migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, _ := cmd.Flags().GetInt("steps")
			all, _ := cmd.Flags().GetBool("all")
			var mig *migration.Migrator
			opts := fx.Options(storeOnly, migration.Module, fx.Populate(&mig))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				if err := mig.Down(ctx, steps, all); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations rolled back")
				return nil
			})
		},
	}
	downCmd.Flags().Int("steps", 1, "Number of migration steps to rollback")
	downCmd.Flags().Bool("all", false, "Rollback all applied migrations")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			var mig *migration.Migrator
			opts := fx.Options(storeOnly, migration.Module, fx.Populate(&mig))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				version, err := mig.Version()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
				return nil
			})
		},
	}

	cmd.AddCommand(upCmd, downCmd, versionCmd)
	return cmd
}

func newWorkerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Manage background workers",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run the transition audit worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), fx.New(app.Worker))
		},
	})
	return cmd
}

func newConsoleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "console",
		Short: "Open the terminal order console",
		RunE: func(cmd *cobra.Command, args []string) error {
			employee, _ := cmd.Flags().GetInt64("employee")
			logFile, _ := cmd.Flags().GetString("log-file")

			var (
				svc      *serviceorder.Service
				sessions *session.Manager
			)
			opts := fx.Options(
				app.Core,
				// the terminal belongs to the console; logs go to a file
				fx.Decorate(func(cfg config.Config) config.Config {
					if cfg.Observability.LogFile == "" {
						cfg.Observability.LogFile = logFile
					}
					return cfg
				}),
				fx.Populate(&svc, &sessions),
			)
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				token, sess, err := sessions.Begin(ctx, employee)
				if err != nil {
					return err
				}
				defer func() {
					_, _ = sessions.End(context.Background(), token)
				}()
				return tui.Run(ctx, svc, sess)
			})
		},
	}
	cmd.Flags().Int64("employee", 0, "Employee id to open the session as")
	cmd.Flags().String("log-file", "frostline-console.log", "Log destination while the console owns the terminal")
	_ = cmd.MarkFlagRequired("employee")
	return cmd
}

func newStockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stock",
		Short: "Print available stock per product",
		RunE: func(cmd *cobra.Command, args []string) error {
			var svc *servicestock.Service
			opts := fx.Options(app.Core, fx.Populate(&svc))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				levels, err := svc.Levels(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), stockTable(levels))
				return nil
			})
		},
	}
}

func newAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show recorded order transitions",
		RunE: func(cmd *cobra.Command, args []string) error {
			orderID, _ := cmd.Flags().GetInt64("order")
			kind, _ := cmd.Flags().GetString("kind")
			limit, _ := cmd.Flags().GetInt("limit")

			var repo *transitionrepo.Repository
			opts := fx.Options(storeOnly, fx.Populate(&repo))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				var (
					rows []entity.Transition
					err  error
				)
				if orderID > 0 {
					rows, err = repo.ListByOrder(ctx, entity.Kind(kind), orderID)
				} else {
					rows, err = repo.Recent(ctx, limit)
				}
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), auditTable(rows))
				return nil
			})
		},
	}
	cmd.Flags().Int64("order", 0, "Only show the trail of this order")
	cmd.Flags().String("kind", string(entity.KindProduction), "Order kind for --order (production or sales)")
	cmd.Flags().Int("limit", 50, "Rows to show without --order")
	return cmd
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func stockTable(levels []entity.StockLevel) string {
	t := newTable("ID", "Producto", "Disponible", "Estado")
	for _, l := range levels {
		available := "-"
		if l.Available != nil {
			available = strconv.FormatFloat(*l.Available, 'f', -1, 64)
			if l.Product.Unit != "" {
				available += " " + l.Product.Unit
			}
		}
		t.Row(strconv.FormatInt(l.Product.ID, 10), l.Product.Name, available, string(l.Status))
	}
	return t.String()
}

func auditTable(rows []entity.Transition) string {
	t := newTable("Orden", "Tipo", "Estado", "Empleado", "Ocurrió")
	for _, r := range rows {
		t.Row(
			strconv.FormatInt(r.OrderID, 10),
			string(r.OrderKind),
			r.Status,
			strconv.FormatInt(r.EmployeeID, 10),
			r.OccurredAt.Local().Format(time.DateTime),
		)
	}
	return t.String()
}

// serve runs a long-lived app until ctx is cancelled.
func serve(ctx context.Context, application *fx.App) error {
	if err := application.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	return application.Stop(stopCtx)
}

func runWithApp(ctx context.Context, opts fx.Option, fn func(context.Context) error) error {
	application := fx.New(opts, fx.NopLogger)
	if err := application.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()
		_ = application.Stop(stopCtx)
	}()
	return fn(ctx)
}
