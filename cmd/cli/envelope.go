package main

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/iho/hongbao/internal/adapter/http/dto"
)

func envelopeCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "envelope",
		Short: "Send, grab and inspect envelopes",
	}

	cmd.AddCommand(
		envelopeCreateCmd(opts),
		envelopeShowCmd(opts),
		envelopeListCmd(opts),
		envelopeClaimCmd(opts),
		envelopeRankCmd(opts),
		envelopeActorCmd(opts, "relay", "Re-send a finished envelope as its lucky king", "relay"),
		envelopeActorCmd(opts, "cancel", "Cancel an active envelope and refund the sender", "cancel"),
	)

	return cmd
}

func envelopeCreateCmd(opts *options) *cobra.Command {
	var (
		req     dto.CreateEnvelopeRequest
		total   string
		minUnit string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Send a new envelope to a chat",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if req.Total, err = decimal.NewFromString(total); err != nil {
				return fmt.Errorf("invalid --total %q: %w", total, err)
			}
			if minUnit != "" {
				mu, err := decimal.NewFromString(minUnit)
				if err != nil {
					return fmt.Errorf("invalid --min-unit %q: %w", minUnit, err)
				}
				req.MinUnit = &mu
			}

			var env dto.EnvelopeResponse
			if err := newClient(opts).do(cmd.Context(), http.MethodPost, "/api/v1/envelopes/", req, &env); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), env)
		},
	}

	cmd.Flags().Int64Var(&req.ChatID, "chat", 0, "Chat ID")
	cmd.Flags().Int64Var(&req.SenderID, "sender", 0, "Sender user ID")
	cmd.Flags().StringVar(&req.Asset, "asset", "", "Asset code (USDT, TON, POINT)")
	cmd.Flags().StringVar(&total, "total", "", "Total amount")
	cmd.Flags().IntVar(&req.Shares, "shares", 0, "Number of shares")
	cmd.Flags().StringVar(&minUnit, "min-unit", "", "Smallest share, defaults to the asset increment")
	cmd.Flags().StringVar(&req.Note, "note", "", "Greeting shown in the chat")
	for _, f := range []string{"chat", "sender", "asset", "total", "shares"} {
		_ = cmd.MarkFlagRequired(f)
	}

	return cmd
}

func envelopeShowCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show an envelope",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var env dto.EnvelopeResponse
			if err := newClient(opts).do(cmd.Context(), http.MethodGet, "/api/v1/envelopes/"+url.PathEscape(args[0]), nil, &env); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), env)
		},
	}
}

func envelopeListCmd(opts *options) *cobra.Command {
	var (
		chatID int64
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a chat's envelopes, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := fmt.Sprintf("/api/v1/chats/%d/envelopes?limit=%d", chatID, limit)

			var envelopes []dto.EnvelopeResponse
			if err := newClient(opts).do(cmd.Context(), http.MethodGet, path, nil, &envelopes); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, e := range envelopes {
				fmt.Fprintf(out, "%s  %-9s %s %s  %d/%d left  %s\n",
					e.ID, e.Status, e.TotalAmount, e.Asset, e.RemainingShares, e.ShareCount, truncate(e.Note, 24))
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&chatID, "chat", 0, "Chat ID")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum envelopes to list")
	_ = cmd.MarkFlagRequired("chat")

	return cmd
}

func envelopeClaimCmd(opts *options) *cobra.Command {
	var userID int64

	cmd := &cobra.Command{
		Use:   "claim <id>",
		Short: "Grab one share of an envelope",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var res dto.ClaimResultResponse
			path := "/api/v1/envelopes/" + url.PathEscape(args[0]) + "/claims"
			if err := newClient(opts).do(cmd.Context(), http.MethodPost, path, dto.ActorRequest{UserID: userID}, &res); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if res.Amount == nil {
				fmt.Fprintf(out, "%s\n", res.Outcome)
				return nil
			}
			fmt.Fprintf(out, "grabbed %s %s (share #%d, %d left)\n", res.Amount, res.Asset, res.Seq, res.RemainingShares)
			return nil
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "Claiming user ID")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func envelopeRankCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "rank <id>",
		Short: "Show the ranking and lucky king",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var ranking dto.RankingResponse
			path := "/api/v1/envelopes/" + url.PathEscape(args[0]) + "/ranking"
			if err := newClient(opts).do(cmd.Context(), http.MethodGet, path, nil, &ranking); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, c := range ranking.Claims {
				marker := ""
				if ranking.LuckyKing != nil && ranking.LuckyKing.UserID == c.UserID {
					marker = "  lucky king"
				}
				fmt.Fprintf(out, "%2d. user %d  %s %s%s\n", c.Rank, c.UserID, c.Amount, ranking.Asset, marker)
			}
			fmt.Fprintf(out, "%s of %s %s claimed (%s)\n", ranking.Claimed, ranking.Total, ranking.Asset, ranking.Status)
			return nil
		},
	}
}

// envelopeActorCmd builds relay and cancel, which differ only in route.
func envelopeActorCmd(opts *options, use, short, action string) *cobra.Command {
	var userID int64

	cmd := &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var res map[string]any
			path := "/api/v1/envelopes/" + url.PathEscape(args[0]) + "/" + action
			if err := newClient(opts).do(cmd.Context(), http.MethodPost, path, dto.ActorRequest{UserID: userID}, &res); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "Acting user ID")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
