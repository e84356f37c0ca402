package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"address_search_backend/internal/places"
	"address_search_backend/internal/session"

	"github.com/spf13/cobra"
	"golang.org/x/text/unicode/norm"
)

var suggestCmd = &cobra.Command{
	Use:   "suggest <partial address>",
	Short: "Print suggestions for a partial address",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := loadDeps()
		if err != nil {
			return err
		}

		opts := session.OptionsFromConfig(deps.cfg)
		ctx, cancel := context.WithTimeout(cmd.Context(), opts.SuggestTimeout)
		defer cancel()

		return runSuggest(ctx, cmd.OutOrStdout(), deps.upstreams.Provider, opts.Request, strings.Join(args, " "))
	},
}

func init() {
	rootCmd.AddCommand(suggestCmd)
}

func runSuggest(ctx context.Context, out io.Writer, provider places.Provider, opts places.RequestOptions, query string) error {
	results, err := provider.Fetch(ctx, norm.NFC.String(query), opts)
	if err != nil {
		return fmt.Errorf("fetching suggestions: %w", err)
	}

	if len(results) == 0 {
		_, _ = fmt.Fprintln(out, "no suggestions")
		return nil
	}
	for i, s := range results {
		_, _ = fmt.Fprintf(out, "%d\t%s\n", i+1, s.Description)
	}
	return nil
}
