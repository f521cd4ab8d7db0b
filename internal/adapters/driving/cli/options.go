package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/topicnet/internal/core/domain"
	"github.com/custodia-labs/topicnet/internal/core/ports/driving"
	"github.com/custodia-labs/topicnet/internal/logger"
)

// optionFlags are the run options a command can override. Flags left unset
// keep the value from settings.
type optionFlags struct {
	maxChunkWords int
	minTopics     int
	maxTopics     int
	threshold     float64
	maxLinks      int
	crossChunk    bool
	prune         bool
	export        bool
}

func (f *optionFlags) register(cmd *cobra.Command) {
	defaults := domain.DefaultAppSettings()
	flags := cmd.Flags()
	flags.IntVar(&f.maxChunkWords, "max-chunk-words", defaults.Split.MaxChunkWords, "word budget per chunk")
	flags.IntVar(&f.minTopics, "min-topics", defaults.Split.MinTopics, "topics requested per chunk at minimum")
	flags.IntVar(&f.maxTopics, "max-topics", defaults.Split.MaxTopics, "topics kept per chunk at most")
	flags.Float64Var(&f.threshold, "threshold", defaults.Link.Threshold, "similarity a pair must exceed to be linked")
	flags.IntVar(&f.maxLinks, "max-links", defaults.Link.MaxLinks, "links kept per topic (0 keeps all)")
	flags.BoolVar(&f.crossChunk, "cross-chunk", false, "link topics from different chunks")
	flags.BoolVar(&f.prune, "prune", false, "remove files left by the previous run")
	flags.BoolVar(&f.export, "export", false, "upsert topic vectors to the configured vector store")
}

// options overlays the flags the user set on the configured options.
func (f *optionFlags) options(cmd *cobra.Command) driving.SplitOptions {
	opts := configuredOptions()
	flags := cmd.Flags()
	if flags.Changed("max-chunk-words") {
		opts.MaxChunkWords = f.maxChunkWords
	}
	if flags.Changed("min-topics") {
		opts.MinTopics = f.minTopics
	}
	if flags.Changed("max-topics") {
		opts.MaxTopics = f.maxTopics
	}
	if flags.Changed("threshold") {
		opts.Threshold = f.threshold
	}
	if flags.Changed("max-links") {
		opts.MaxLinks = f.maxLinks
	}
	if flags.Changed("cross-chunk") {
		opts.CrossChunk = f.crossChunk
	}
	if flags.Changed("prune") {
		opts.Prune = f.prune
	}
	opts.Export = f.export
	return opts
}

func configuredOptions() driving.SplitOptions {
	if settingsService != nil {
		settings, err := settingsService.Get()
		if err == nil && settings != nil {
			return driving.OptionsFromSettings(*settings)
		}
		logger.Warn("settings unavailable, using defaults: %v", err)
	}
	return driving.OptionsFromSettings(domain.DefaultAppSettings())
}
