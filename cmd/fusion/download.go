package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tornado-product/FusionMediaProvider/internal/config"
	"github.com/tornado-product/FusionMediaProvider/internal/models"
)

func newDownloadCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download <query>...",
		Short: "Search all providers and download every result on the page",
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
			if len(result.Items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No results")
				return nil
			}

			if !interactive() {
				paths, err := c.DownloadBatch(cmd.Context(), result.Items, logProgress)
				if err != nil {
					return err
				}
				return printPaths(cmd.OutOrStdout(), opts, paths, len(result.Items))
			}

			results := c.DownloadItemsWithBatchProgress(cmd.Context(), result.Items, batchProgress(len(result.Items)))
			if err := cmd.Context().Err(); err != nil {
				return err
			}
			logger := config.GetLogger()
			paths := make([]string, 0, len(results))
			for _, r := range results {
				if r.OK() {
					paths = append(paths, r.Path)
					continue
				}
				logger.Warn().Err(r.Err).Str("provider", r.Provider).Str("id", r.ItemID).Msg("Download failed")
			}
			if len(paths) == 0 {
				return fmt.Errorf("all %d downloads failed", len(results))
			}
			return printPaths(cmd.OutOrStdout(), opts, paths, len(results))
		},
	}
	addPagingFlags(cmd, opts)
	return cmd
}

func newGetCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Download one asset by its provider ID",
		Long: `get asks each enabled provider in turn for the ID and downloads the first match.
Use --provider to look the ID up on a single provider.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mediaType, err := opts.parsedMediaType()
			if err != nil {
				return err
			}
			c, err := opts.newClient()
			if err != nil {
				return err
			}
			defer c.Close()

			var progress models.ProgressCallback = logProgress
			if interactive() {
				progress = byteProgress(args[0])
			}
			path, err := c.DownloadByID(cmd.Context(), args[0], mediaType, progress)
			if err != nil {
				return err
			}
			return printPaths(cmd.OutOrStdout(), opts, []string{path}, 1)
		},
	}
}

func printPaths(w io.Writer, opts *options, paths []string, requested int) error {
	if opts.jsonOutput {
		return writeJSON(w, map[string]any{
			"requested": requested,
			"saved":     paths,
		})
	}
	for _, p := range paths {
		fmt.Fprintln(w, p)
	}
	if len(paths) < requested {
		fmt.Fprintf(w, "\n%d of %d downloads failed\n", requested-len(paths), requested)
	}
	return nil
}
