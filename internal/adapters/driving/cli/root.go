// Package cli implements the topicnet command line on cobra.
// Services are injected by the entry point before Execute runs; commands
// report "not configured" when one they need is missing. The split engine
// can instead be built on demand through SetEngineFactory, so settings and
// prompts commands never touch an AI provider.
package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/topicnet/internal/core/ports/driven"
	"github.com/custodia-labs/topicnet/internal/core/ports/driving"
	"github.com/custodia-labs/topicnet/internal/logger"
)

// version is set at build time via SetVersion.
var version = "dev"

var verbose bool

var (
	splitService      driving.SplitService
	searchService     driving.SearchService
	settingsService   driving.SettingsService
	promptManager     PromptManager
	cacheOpener       CacheOpener
	converterRegistry driven.ConverterRegistry

	engineFactory EngineFactory
	engine        *Engine
)

// Engine is the set of services that need AI providers.
type Engine struct {
	Split      driving.SplitService
	Search     driving.SearchService
	Converters driven.ConverterRegistry

	// Close releases provider connections and caches. May be nil.
	Close func()
}

// EngineFactory builds the engine. longLived is true for commands that keep
// running (watch, mcp) and can benefit from in-process caches.
type EngineFactory func(ctx context.Context, longLived bool) (*Engine, error)

// PromptManager is the part of the prompt store the prompts command uses.
type PromptManager interface {
	Names() []string
	Path(name string) string
	Customised(name string) bool
	Reset(name string) error
}

// CacheManager is the persistent embedding cache as seen by the cache command.
type CacheManager interface {
	Path() string
	Len(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
	Close() error
}

// CacheOpener opens the configured embedding cache.
type CacheOpener func() (CacheManager, error)

// Services holds everything the commands call.
type Services struct {
	Split      driving.SplitService
	Search     driving.SearchService
	Settings   driving.SettingsService
	Prompts    PromptManager
	Cache      CacheOpener
	Converters driven.ConverterRegistry
}

var rootCmd = &cobra.Command{
	Use:   "topicnet",
	Short: "Split long documents into linked topic files",
	Long: `topicnet breaks a long document into topics, writes one markdown file
per topic, links related topics by semantic similarity and writes a master
index tying them together.

Topic detection uses the configured LLM and falls back to headings when none
is available. Linking uses the configured embedding model, or the offline
TF-IDF model by default.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every pipeline stage to stderr")
}

// Configure injects the services used by the commands.
func Configure(s Services) {
	splitService = s.Split
	searchService = s.Search
	settingsService = s.Settings
	promptManager = s.Prompts
	cacheOpener = s.Cache
	converterRegistry = s.Converters
}

// SetEngineFactory installs a factory used the first time a command needs
// the split or search services.
func SetEngineFactory(f EngineFactory) {
	engineFactory = f
}

// ensureEngine builds the engine once, if a factory is installed.
func ensureEngine(ctx context.Context, longLived bool) error {
	if engineFactory == nil || engine != nil {
		return nil
	}
	e, err := engineFactory(ctx, longLived)
	if err != nil {
		return err
	}
	engine = e
	if e.Split != nil {
		splitService = e.Split
	}
	if e.Search != nil {
		searchService = e.Search
	}
	if e.Converters != nil {
		converterRegistry = e.Converters
	}
	return nil
}

// SetVersion sets the version printed by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command. Command output goes to stdout.
func Execute(ctx context.Context) error {
	rootCmd.SetOut(os.Stdout)
	defer func() {
		if engine != nil && engine.Close != nil {
			engine.Close()
		}
		engine = nil
	}()
	return rootCmd.ExecuteContext(ctx)
}
