package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ispdesk/ops-console/internal/auth"
	"github.com/ispdesk/ops-console/internal/bootstrap"
	"github.com/ispdesk/ops-console/internal/config"
	"github.com/ispdesk/ops-console/internal/domain"
	"github.com/ispdesk/ops-console/internal/observability"
	"github.com/ispdesk/ops-console/internal/service"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "opsctl",
		Short:         "Maintenance commands for the ISP ops console",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newSeedCategoriesCommand())
	root.AddCommand(newCategoriesCommand())
	root.AddCommand(newOverdueCommand())
	root.AddCommand(newTokenCommand())
	return root
}

// withContainer loads config, wires the services and runs fn.
func withContainer(cmd *cobra.Command, fn func(ctx context.Context, c *bootstrap.Container) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := observability.NewLogger(config.LoggerConfig{Level: "warn", Format: "console", Service: "opsctl"})
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	container, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer container.Close()
	return fn(ctx, container)
}

func newSeedCategoriesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-categories",
		Short: "Insert the default ticket categories into an empty registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, func(ctx context.Context, c *bootstrap.Container) error {
				inserted, err := c.Categories.SeedDefaults(ctx, auth.SystemActor)
				if err != nil {
					return err
				}
				if inserted == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "registry already populated; nothing inserted")
					return nil
				}
				c.Logger.Info("categories seeded from cli", zap.Int("inserted", inserted))
				fmt.Fprintf(cmd.OutOrStdout(), "inserted %d categories\n", inserted)
				return nil
			})
		},
	}
}

func newCategoriesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List registered ticket categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, func(ctx context.Context, c *bootstrap.Container) error {
				cats, err := c.Categories.List(ctx)
				if err != nil {
					return err
				}
				return printCategories(cmd.OutOrStdout(), cats)
			})
		},
	}
}

func newOverdueCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "overdue",
		Short: "List open tickets past their due date",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, func(ctx context.Context, c *bootstrap.Container) error {
				tickets, err := c.Tickets.List(ctx, service.TicketListFilter{OverdueOnly: true, Limit: limit})
				if err != nil {
					return err
				}
				return printOverdue(cmd.OutOrStdout(), tickets, c.Tickets.Now())
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum tickets to list")
	return cmd
}

func newTokenCommand() *cobra.Command {
	var id, name, role string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for an employee (development use)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			employeeRole, err := parseRole(role)
			if err != nil {
				return err
			}
			if strings.TrimSpace(id) == "" || strings.TrimSpace(name) == "" {
				return fmt.Errorf("--id and --name are required")
			}
			tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
			token, expiresAt, err := tokens.GenerateToken(domain.Employee{ID: id, Name: name, Role: employeeRole})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires at %s\n", expiresAt.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "employee id")
	cmd.Flags().StringVar(&name, "name", "", "employee display name")
	cmd.Flags().StringVar(&role, "role", string(domain.EmployeeRoleSupport), "ADMIN|MANAGER|SUPPORT|TECHNICIAN")
	return cmd
}

func parseRole(raw string) (domain.EmployeeRole, error) {
	role := domain.EmployeeRole(strings.ToUpper(strings.TrimSpace(raw)))
	switch role {
	case domain.EmployeeRoleAdmin, domain.EmployeeRoleManager, domain.EmployeeRoleSupport, domain.EmployeeRoleTechnician:
		return role, nil
	}
	return "", fmt.Errorf("unknown role %q", raw)
}

func printCategories(w io.Writer, cats []domain.TicketCategoryConfig) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tNAME\tSLA HOURS")
	for _, cat := range cats {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", cat.Code, cat.Name, cat.SLAHours)
	}
	return tw.Flush()
}

func printOverdue(w io.Writer, tickets []domain.Ticket, now time.Time) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tPRIORITY\tASSIGNEE\tDUE\tLATE BY")
	for _, t := range tickets {
		assignee := "-"
		if t.AssignedTo != nil {
			assignee = *t.AssignedTo
		}
		due, late := "-", "-"
		if t.DueDate != nil {
			due = t.DueDate.Format(time.RFC3339)
			late = now.Sub(*t.DueDate).Truncate(time.Minute).String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", t.ID, t.Status, t.Priority, assignee, due, late)
	}
	return tw.Flush()
}
