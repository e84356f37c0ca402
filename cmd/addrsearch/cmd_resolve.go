package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"address_search_backend/internal/geocode"
	"address_search_backend/internal/session"
	"address_search_backend/platform/logger"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type resolveOptions struct {
	Concurrency int
	JSON        bool
}

var resolveOpts resolveOptions

var resolveCmd = &cobra.Command{
	Use:   "resolve [address...]",
	Short: "Geocode addresses given as arguments or one per line on stdin",
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := loadDeps()
		if err != nil {
			return err
		}

		addresses := args
		if len(addresses) == 0 {
			addresses, err = readLines(cmd.InOrStdin())
			if err != nil {
				return err
			}
		}

		timeout := session.OptionsFromConfig(deps.cfg).ResolveTimeout
		return runResolve(cmd.Context(), cmd.OutOrStdout(), deps.upstreams.Resolver, deps.log, addresses, timeout, resolveOpts)
	},
}

func init() {
	resolveCmd.Flags().IntVarP(&resolveOpts.Concurrency, "concurrency", "j", 4, "parallel geocode requests (still bounded by UPSTREAM_RATE_PER_SEC)")
	resolveCmd.Flags().BoolVar(&resolveOpts.JSON, "json", false, "print one JSON object per line")
	rootCmd.AddCommand(resolveCmd)
}

type resolveResult struct {
	Address string   `json:"address"`
	Lat     *float64 `json:"lat,omitempty"`
	Lng     *float64 `json:"lng,omitempty"`
	Error   string   `json:"error,omitempty"`
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading addresses: %w", err)
	}
	return lines, nil
}

// runResolve geocodes every address and prints the results in input order.
// Failures are reported per address; the returned error only counts them.
func runResolve(ctx context.Context, out io.Writer, resolver geocode.Resolver, log *logger.Logger, addresses []string, timeout time.Duration, opts resolveOptions) error {
	results := make([]resolveResult, len(addresses))

	g, gctx := errgroup.WithContext(ctx)
	if opts.Concurrency > 0 {
		g.SetLimit(opts.Concurrency)
	}

	for i, address := range addresses {
		g.Go(func() error {
			results[i] = resolveOne(gctx, resolver, address, timeout)
			if results[i].Error != "" {
				log.Warn("geocode failed", "address", address, "error", results[i].Error)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	failed := 0
	enc := json.NewEncoder(out)
	for _, res := range results {
		if res.Error != "" {
			failed++
		}
		if opts.JSON {
			if err := enc.Encode(res); err != nil {
				return err
			}
			continue
		}
		if res.Error != "" {
			_, _ = fmt.Fprintf(out, "%s\terror: %s\n", res.Address, res.Error)
			continue
		}
		_, _ = fmt.Fprintf(out, "%s\t%.6f\t%.6f\n", res.Address, *res.Lat, *res.Lng)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d addresses could not be geocoded", failed, len(addresses))
	}
	return nil
}

func resolveOne(ctx context.Context, resolver geocode.Resolver, address string, timeout time.Duration) resolveResult {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	res := resolveResult{Address: address}

	records, err := resolver.Geocode(ctx, address)
	if err == nil && len(records) == 0 {
		err = session.ErrNoGeocodeResults
	}
	if err != nil {
		res.Error = err.Error()
		return res
	}

	ll, err := resolver.ToLatLng(ctx, records[0])
	if err != nil {
		res.Error = err.Error()
		return res
	}

	res.Lat, res.Lng = &ll.Lat, &ll.Lng
	return res
}
