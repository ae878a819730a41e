package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tornado-product/FusionMediaProvider/internal/client"
	"github.com/tornado-product/FusionMediaProvider/internal/models"
	"github.com/tornado-product/FusionMediaProvider/internal/providers"
)

const maxTitleWidth = 40

func newSearchCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>...",
		Short: "Search all providers and print the merged results",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := opts.searchParams(args)
			if err != nil {
				return err
			}
			c, err := opts.newClient()
			if err != nil {
				return err
			}
			defer c.Close()

			result, err := search(cmd, c, opts, params)
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			printResults(cmd.OutOrStdout(), result)
			return nil
		},
	}
	addPagingFlags(cmd, opts)
	return cmd
}

func newProvidersCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List the providers that are configured and enabled",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.newClient()
			if err != nil {
				return err
			}
			defer c.Close()

			enabled := make(map[string]bool)
			for _, p := range c.Providers() {
				enabled[strings.ToLower(p.Name())] = true
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PROVIDER\tSTATUS")
			for _, name := range providers.Registered() {
				status := "disabled or missing API key"
				if enabled[name] {
					status = "enabled"
				}
				fmt.Fprintf(w, "%s\t%s\n", name, status)
			}
			return w.Flush()
		},
	}
}

// search runs an aggregated search, or a single-provider one with --provider
func search(cmd *cobra.Command, c client.Client, opts *options, params models.SearchParams) (*models.AggregatedSearchResult, error) {
	if opts.provider == "" {
		return c.Search(cmd.Context(), params)
	}
	page, err := c.SearchFromProvider(cmd.Context(), opts.provider, params)
	if err != nil {
		return nil, err
	}
	return &models.AggregatedSearchResult{
		Provider:        page.Provider,
		Total:           page.Total,
		TotalHits:       page.TotalHits,
		Page:            page.Page,
		PerPage:         page.PerPage,
		TotalPages:      page.TotalPages,
		Items:           page.Items,
		ProviderResults: []models.SearchResult{*page},
	}, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printResults(w io.Writer, result *models.AggregatedSearchResult) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PROVIDER\tID\tTITLE\tSIZE\tVIEWS\tAUTHOR")
	for i := range result.Items {
		item := &result.Items[i]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			item.Provider,
			item.ID,
			truncate(item.Title, maxTitleWidth),
			formatDimensions(item),
			humanize.Comma(int64(item.Metadata.Views)),
			item.Author,
		)
	}
	_ = tw.Flush()

	fmt.Fprintf(w, "\nPage %d of %d, %s results", result.Page, result.TotalPages, humanize.Comma(int64(result.Total)))
	if len(result.ProviderResults) > 1 {
		parts := make([]string, 0, len(result.ProviderResults))
		for _, page := range result.ProviderResults {
			parts = append(parts, fmt.Sprintf("%s: %s", page.Provider, humanize.Comma(int64(page.Total))))
		}
		fmt.Fprintf(w, " (%s)", strings.Join(parts, ", "))
	}
	fmt.Fprintln(w)
}

func formatDimensions(item *models.MediaItem) string {
	dims := fmt.Sprintf("%dx%d", item.Metadata.Width, item.Metadata.Height)
	if item.Metadata.Size != nil && *item.Metadata.Size > 0 {
		dims += " " + humanize.IBytes(uint64(*item.Metadata.Size))
	}
	if item.Metadata.Duration != nil {
		dims += fmt.Sprintf(" %ds", *item.Metadata.Duration)
	}
	return dims
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}
