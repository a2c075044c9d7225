package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mockrates",
		Short: "Local mock of a currency exchange-rate API",
		Long: `mockrates serves synthetic exchange-rate quotes over HTTP so that client
code can be tested without a live upstream provider.

Endpoints:
  GET /latest?access_key=KEY&base=CODE&symbols=A,B
  GET /YYYY-MM-DD?access_key=KEY&base=CODE&symbols=A,B`,
		SilenceUsage: true,
	}

	root.AddCommand(newServeCmd(), newFetchCmd())
	return root
}
