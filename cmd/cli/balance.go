package main

import (
	"fmt"
	"net/http"
	"net/url"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/iho/hongbao/internal/adapter/http/dto"
)

func balanceCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Inspect user balances",
	}

	cmd.AddCommand(balanceShowCmd(opts), balanceEntriesCmd(opts))
	return cmd
}

func balanceShowCmd(opts *options) *cobra.Command {
	var (
		userID int64
		asset  string
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a user's balances",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newClient(opts)
			out := cmd.OutOrStdout()

			if asset != "" {
				var b dto.BalanceResponse
				path := fmt.Sprintf("/api/v1/users/%d/balances/%s", userID, url.PathEscape(asset))
				if err := client.do(cmd.Context(), http.MethodGet, path, nil, &b); err != nil {
					return err
				}
				fmt.Fprintf(out, "%s %s\n", b.Amount, b.Asset)
				return nil
			}

			var balances []dto.BalanceResponse
			if err := client.do(cmd.Context(), http.MethodGet, fmt.Sprintf("/api/v1/users/%d/balances", userID), nil, &balances); err != nil {
				return err
			}
			for _, b := range balances {
				fmt.Fprintf(out, "%s %s\n", b.Amount, b.Asset)
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "User ID")
	cmd.Flags().StringVar(&asset, "asset", "", "Only this asset")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func balanceEntriesCmd(opts *options) *cobra.Command {
	var (
		userID int64
		asset  string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "entries",
		Short: "List a user's ledger entries, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			q.Set("limit", fmt.Sprint(limit))
			if asset != "" {
				q.Set("asset", asset)
			}

			var entries []dto.LedgerEntryResponse
			path := fmt.Sprintf("/api/v1/users/%d/entries?%s", userID, q.Encode())
			if err := newClient(opts).do(cmd.Context(), http.MethodGet, path, nil, &entries); err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tASSET\tDELTA\tAFTER\tTYPE\tREF")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					e.CreatedAt.Format("2006-01-02 15:04:05"), e.Asset, e.Delta, e.BalanceAfter, e.RefType, truncate(e.RefID, 26))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "User ID")
	cmd.Flags().StringVar(&asset, "asset", "", "Only this asset")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum entries to list")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
