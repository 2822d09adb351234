package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

type options struct {
	baseURL        string
	timeout        time.Duration
	token          string
	idempotencyKey string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "hongbao-cli",
		Short:         "Hongbao CLI tool",
		Long:          `A command line interface for sending, grabbing and auditing red envelopes through the Hongbao API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "url", "http://localhost:8080", "Base URL of the Hongbao API")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("HONGBAO_TOKEN"), "Bearer token (defaults to $HONGBAO_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&opts.idempotencyKey, "idempotency-key", "", "Idempotency-Key header for POST requests")

	rootCmd.AddCommand(
		envelopeCmd(opts),
		balanceCmd(opts),
		adminCmd(opts),
		tokenCmd(),
		dbCmd(),
	)

	return rootCmd
}
