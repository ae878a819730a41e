package main

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tornado-product/FusionMediaProvider/internal/apperrors"
	"github.com/tornado-product/FusionMediaProvider/internal/client"
	"github.com/tornado-product/FusionMediaProvider/internal/config"
	"github.com/tornado-product/FusionMediaProvider/internal/models"
	"github.com/tornado-product/FusionMediaProvider/internal/providers"
)

// options holds the flags shared by all commands
type options struct {
	cfg *config.Config

	provider      string
	mediaType     string
	limit         int
	page          int
	quality       string
	outputDir     string
	concurrency   int
	originalNames bool
	noResume      bool
	jsonOutput    bool
}

func newRootCommand(cfg *config.Config) *cobra.Command {
	opts := &options{cfg: cfg}

	root := &cobra.Command{
		Use:   "fusion",
		Short: "Search and download stock images and videos from Pixabay and Pexels",
		Long: `fusion queries every configured media provider at once, merges the results
and downloads assets at the requested quality with resumable transfers.

API keys are read from config.yaml or from PIXABAY_API_KEY and PEXELS_API_KEY.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.provider, "provider", "p", "", "Only use this provider (pixabay, pexels)")
	flags.StringVarP(&opts.mediaType, "type", "t", "image", "Media type: image or video")
	flags.StringVarP(&opts.quality, "quality", "q", "", "Download quality (images: thumbnail, medium, large, original; videos: tiny, small, medium, large, original)")
	flags.StringVarP(&opts.outputDir, "output", "o", cfg.Download.OutputDir, "Output directory")
	flags.IntVarP(&opts.concurrency, "concurrency", "c", cfg.Download.MaxConcurrent, "Maximum concurrent downloads")
	flags.BoolVar(&opts.originalNames, "original-names", cfg.Download.UseOriginalNames, "Name files provider_id.ext instead of by title")
	flags.BoolVar(&opts.noResume, "no-resume", false, "Restart partial downloads from scratch")
	flags.BoolVar(&opts.jsonOutput, "json", false, "Print results as JSON")

	root.AddCommand(
		newSearchCommand(opts),
		newDownloadCommand(opts),
		newGetCommand(opts),
		newProvidersCommand(opts),
	)
	return root
}

// addPagingFlags registers --limit and --page on commands that search
func addPagingFlags(cmd *cobra.Command, opts *options) {
	defaultLimit := opts.cfg.Search.Limit
	if defaultLimit <= 0 {
		defaultLimit = models.DefaultSearchLimit
	}
	cmd.Flags().IntVarP(&opts.limit, "limit", "l", defaultLimit, "Results per provider")
	cmd.Flags().IntVar(&opts.page, "page", 1, "Page number")
}

func (o *options) parsedMediaType() (models.MediaType, error) {
	return models.ParseMediaType(o.mediaType)
}

func (o *options) searchParams(args []string) (models.SearchParams, error) {
	mediaType, err := o.parsedMediaType()
	if err != nil {
		return models.SearchParams{}, err
	}
	return models.SearchParams{
		Query:     strings.Join(args, " "),
		Limit:     o.limit,
		Page:      o.page,
		MediaType: mediaType,
	}, nil
}

// effectiveConfig returns a copy of the loaded configuration with the flags applied
func (o *options) effectiveConfig() (*config.Config, error) {
	cfg := *o.cfg
	cfg.Providers = maps.Clone(o.cfg.Providers)

	if o.outputDir != "" {
		cfg.Download.OutputDir = o.outputDir
	}
	if o.concurrency > 0 {
		cfg.Download.MaxConcurrent = o.concurrency
	}
	cfg.Download.UseOriginalNames = o.originalNames
	if o.noResume {
		cfg.Download.Resume = false
	}

	if o.quality != "" {
		mediaType, err := o.parsedMediaType()
		if err != nil {
			return nil, err
		}
		if mediaType == models.MediaTypeVideo {
			cfg.Download.VideoQuality = o.quality
		} else {
			cfg.Download.ImageQuality = o.quality
		}
	}

	if o.provider != "" {
		if err := restrictProviders(&cfg, o.provider); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

// restrictProviders disables every provider but name
func restrictProviders(cfg *config.Config, name string) error {
	if !slices.Contains(providers.Registered(), strings.ToLower(name)) {
		return &apperrors.ErrUnknownProvider{Name: name}
	}
	if cfg.Providers == nil {
		cfg.Providers = make(map[string]config.ProviderSettings)
	}
	for _, registered := range providers.Registered() {
		key := registered
		for existing := range cfg.Providers {
			if strings.EqualFold(existing, registered) {
				key = existing
			}
		}
		settings := cfg.Providers[key]
		settings.Disabled = !strings.EqualFold(registered, name)
		cfg.Providers[key] = settings
	}
	return nil
}

func (o *options) newClient() (client.Client, error) {
	cfg, err := o.effectiveConfig()
	if err != nil {
		return nil, err
	}
	c, err := client.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create media client: %w", err)
	}
	return c, nil
}
