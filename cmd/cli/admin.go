package main

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/iho/hongbao/internal/adapter/http/dto"
	"github.com/iho/hongbao/internal/domain"
	"github.com/iho/hongbao/internal/infrastructure/auth"
)

func adminCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Operator commands (admin token required when auth is on)",
	}

	cmd.AddCommand(adminAdjustCmd(opts), adminReconcileCmd(opts), adminVerifyCmd(opts))
	return cmd
}

func adminAdjustCmd(opts *options) *cobra.Command {
	var (
		req    dto.AdjustmentRequest
		amount string
	)

	cmd := &cobra.Command{
		Use:   "adjust",
		Short: "Credit or debit a balance; a negative amount debits",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if req.Amount, err = decimal.NewFromString(amount); err != nil {
				return fmt.Errorf("invalid --amount %q: %w", amount, err)
			}

			var entry dto.LedgerEntryResponse
			if err := newClient(opts).do(cmd.Context(), http.MethodPost, "/api/v1/admin/adjustments", req, &entry); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %d %s now %s (entry %s)\n", entry.UserID, entry.Asset, entry.BalanceAfter, entry.ID)
			return nil
		},
	}

	cmd.Flags().Int64Var(&req.UserID, "user", 0, "User ID")
	cmd.Flags().StringVar(&req.Asset, "asset", "", "Asset code")
	cmd.Flags().StringVar(&amount, "amount", "", "Signed amount")
	cmd.Flags().StringVar(&req.Note, "note", "", "Reason recorded on the ledger entry")
	for _, f := range []string{"user", "asset", "amount"} {
		_ = cmd.MarkFlagRequired(f)
	}

	return cmd
}

func adminReconcileCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Compare every balance with its ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			var report dto.ReconciliationReportResponse
			if err := newClient(opts).do(cmd.Context(), http.MethodGet, "/api/v1/admin/reconciliation", nil, &report); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if report.LedgerConsistent {
				fmt.Fprintln(out, "Reconciliation PASSED")
				return nil
			}

			fmt.Fprintf(out, "Reconciliation FAILED: %d discrepancies\n", len(report.Discrepancies))
			for _, d := range report.Discrepancies {
				fmt.Fprintf(out, "  user %d %s: recorded %s, ledger %s\n", d.UserID, d.Asset, d.Recorded, d.Calculated)
			}
			return fmt.Errorf("ledger inconsistent")
		},
	}
}

func adminVerifyCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <id>",
		Short: "Check an envelope's conservation of funds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var v dto.VerificationResponse
			path := "/api/v1/admin/envelopes/" + url.PathEscape(args[0]) + "/verify"
			if err := newClient(opts).do(cmd.Context(), http.MethodGet, path, nil, &v); err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), v); err != nil {
				return err
			}
			if !v.OK {
				return fmt.Errorf("envelope %s violates conservation", v.EnvelopeID)
			}
			return nil
		},
	}
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Service token helpers",
	}

	var (
		subject string
		role    string
		ttl     time.Duration
	)

	issue := &cobra.Command{
		Use:   "issue",
		Short: "Mint a bearer token locally from $JWT_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := os.Getenv("JWT_SECRET")
			if secret == "" {
				return fmt.Errorf("JWT_SECRET is not set")
			}

			token, err := auth.NewJWTManager(secret, ttl).Generate(&domain.Principal{
				Subject: subject,
				Role:    domain.Role(role),
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	issue.Flags().StringVar(&subject, "subject", "", "Token subject, such as the bot name")
	issue.Flags().StringVar(&role, "role", string(domain.RoleService), "service or admin")
	issue.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	_ = issue.MarkFlagRequired("subject")

	cmd.AddCommand(issue)
	return cmd
}
