package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/damon-houk/mock-rate-server/internal/application/service"
	"github.com/damon-houk/mock-rate-server/internal/domain/entity"
	"github.com/damon-houk/mock-rate-server/internal/infrastructure/api"
	"github.com/damon-houk/mock-rate-server/internal/infrastructure/config"
	"github.com/damon-houk/mock-rate-server/internal/infrastructure/logger"
	"github.com/spf13/cobra"
)

func newFetchCmd() *cobra.Command {
	var (
		baseURL   string
		accessKey string
		base      string
		symbols   string
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "fetch [latest|YYYY-MM-DD]",
		Short: "Fetch a quote from a running rate server and print it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := service.LatestPath
			if len(args) == 1 {
				target = args[0]
			}

			endpoint, err := service.ParseEndpoint(target)
			if err != nil {
				return err
			}

			log := logger.NewJSONLogger(cmd.ErrOrStderr(), logger.WarnLevel)
			client := api.NewRateAPIClient(baseURL, accessKey, nil, log)
			opts := api.FetchOptions{Base: base, Symbols: service.ParseSymbols(symbols)}

			ctx := cmd.Context()
			if timeout > 0 {
				var cancel func()
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			var quote *entity.RateQuote
			if endpoint.Latest {
				quote, err = client.Latest(ctx, opts)
			} else {
				quote, err = client.Historical(ctx, endpoint.Date, opts)
			}
			if err != nil {
				return fmt.Errorf("fetch %s: %w", endpoint.Raw, err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(quote)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&baseURL, "url", api.DefaultBaseURL, "base URL of the rate server")
	flags.StringVar(&accessKey, "access-key", config.DefaultAccessKey, "access_key to send")
	flags.StringVar(&base, "base", "", "base currency label to request")
	flags.StringVar(&symbols, "symbols", "", "comma-separated currency codes to request")
	flags.DurationVar(&timeout, "timeout", 30*time.Second, "overall deadline including retries")

	return cmd
}
