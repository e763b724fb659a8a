package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"agency-ledger/internal/adapters/web"
	"agency-ledger/internal/app"
)

func (rt *runtime) migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := rt.open(cmd.Context())
			if err != nil {
				return err
			}
			applied, err := b.Migrate(cmd.Context())
			if err != nil {
				return err
			}
			if applied == nil {
				applied = []string{}
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"applied": applied})
		},
	}
}

func (rt *runtime) invoicesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invoices",
		Short: "Invoice maintenance",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "mark-overdue",
		Short: "Move past-due open invoices to OVERDUE",
		Long: `Moves every ISSUED or PARTIALLY_PAID invoice with a balance and a due date
before today to OVERDUE. Safe to run more than once a day.`,
		Example: `  ledgerctl invoices mark-overdue --tenant 6f1c...`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, tenantID, err := rt.service(cmd)
			if err != nil {
				return err
			}
			res, err := svc.MarkOverdue(cmd.Context(), tenantID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	})
	return cmd
}

func (rt *runtime) xreportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "xreport",
		Short: "Daily cash reconciliation (X-Report)",
	}

	generate := &cobra.Command{
		Use:   "generate",
		Short: "Snapshot one day's completed payments",
		Example: `  # Today's report
  ledgerctl xreport generate --tenant 6f1c...

  # A past day
  ledgerctl xreport generate --tenant 6f1c... --date 2026-03-14`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			date, _ := cmd.Flags().GetString("date")
			svc, tenantID, err := rt.service(cmd)
			if err != nil {
				return err
			}
			report, err := svc.GenerateXReport(cmd.Context(), tenantID, date)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}
	generate.Flags().String("date", "", "Report date (YYYY-MM-DD, default: today)")

	closeCmd := &cobra.Command{
		Use:   "close <report-id>",
		Short: "Close an X-Report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid report id %q: %w", args[0], err)
			}
			svc, tenantID, err := rt.service(cmd)
			if err != nil {
				return err
			}
			report, err := svc.CloseXReport(cmd.Context(), tenantID, id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List X-Reports, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := app.XReportListQuery{DateRangeQuery: rangeFlags(cmd)}
			q.Page, _ = cmd.Flags().GetInt("page")
			q.PageSize, _ = cmd.Flags().GetInt("page-size")
			svc, tenantID, err := rt.service(cmd)
			if err != nil {
				return err
			}
			page, err := svc.ListXReports(cmd.Context(), tenantID, q)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), page)
		},
	}
	addRangeFlags(list)
	list.Flags().Int("page", 1, "Page number")
	list.Flags().Int("page-size", 20, "Page size")

	cmd.AddCommand(generate, closeCmd, list)
	return cmd
}

func (rt *runtime) reportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Financial reports",
	}

	margin := &cobra.Command{
		Use:   "margin",
		Short: "Revenue against supplier cost, per contract",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, tenantID, err := rt.service(cmd)
			if err != nil {
				return err
			}
			report, err := svc.MarginReport(cmd.Context(), tenantID, rangeFlags(cmd))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}
	addRangeFlags(margin)

	revenue := &cobra.Command{
		Use:   "revenue",
		Short: "Completed payments by month and method",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, tenantID, err := rt.service(cmd)
			if err != nil {
				return err
			}
			report, err := svc.RevenueBreakdown(cmd.Context(), tenantID, rangeFlags(cmd))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}
	addRangeFlags(revenue)

	cmd.AddCommand(margin, revenue)
	return cmd
}

// tokenCommand issues an API token. It needs JWT_SECRET but no database.
func (rt *runtime) tokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API bearer token for a tenant user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if rt.opts.JWTSecret == "" {
				return fmt.Errorf("JWT_SECRET is required to issue tokens")
			}
			tenantID, err := rt.tenantID()
			if err != nil {
				return err
			}
			userFlag, _ := cmd.Flags().GetString("user")
			role, _ := cmd.Flags().GetString("role")
			ttl, _ := cmd.Flags().GetDuration("ttl")

			userID := uuid.New()
			if userFlag != "" {
				if userID, err = uuid.Parse(userFlag); err != nil {
					return fmt.Errorf("invalid --user %q: %w", userFlag, err)
				}
			}
			if ttl <= 0 {
				return fmt.Errorf("--ttl must be positive")
			}

			token, err := web.IssueToken(rt.opts.JWTSecret, tenantID, userID, role, ttl)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"token":      token,
				"tenant_id":  tenantID,
				"user_id":    userID,
				"role":       role,
				"expires_in": ttl.String(),
			})
		},
	}
	cmd.Flags().String("user", "", "User id (UUID, default: random)")
	cmd.Flags().String("role", "admin", "Role claim")
	cmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")
	return cmd
}

func addRangeFlags(cmd *cobra.Command) {
	cmd.Flags().String("from", "", "Start date (YYYY-MM-DD, inclusive)")
	cmd.Flags().String("to", "", "End date (YYYY-MM-DD, inclusive)")
}

func rangeFlags(cmd *cobra.Command) app.DateRangeQuery {
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")
	return app.DateRangeQuery{From: from, To: to}
}
