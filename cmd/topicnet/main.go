// Command topicnet splits long documents into linked topic files.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/topicnet/internal/adapters/driven/ai"
	"github.com/custodia-labs/topicnet/internal/adapters/driven/config/file"
	"github.com/custodia-labs/topicnet/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/topicnet/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/topicnet/internal/adapters/driven/vectorstore/qdrant"
	"github.com/custodia-labs/topicnet/internal/adapters/driving/cli"
	"github.com/custodia-labs/topicnet/internal/converters"
	"github.com/custodia-labs/topicnet/internal/core/domain"
	"github.com/custodia-labs/topicnet/internal/core/ports/driven"
	"github.com/custodia-labs/topicnet/internal/core/ports/driving"
	"github.com/custodia-labs/topicnet/internal/core/services"
	"github.com/custodia-labs/topicnet/internal/logger"
	"github.com/custodia-labs/topicnet/internal/topics/detector"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// API keys may live in a local .env file.
	_ = godotenv.Load()

	var configStore driven.ConfigStore
	fileStore, err := file.NewConfigStore("")
	if err != nil {
		logger.Warn("config directory unavailable, settings will not persist: %v", err)
		configStore = memory.NewConfigStore()
	} else {
		configStore = fileStore
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())

	prompts, err := file.NewPromptStore("", detector.DefaultPrompts())
	if err != nil {
		return fmt.Errorf("open prompt store: %w", err)
	}

	cli.SetVersion(version)
	cli.Configure(cli.Services{
		Settings: settingsService,
		Prompts:  prompts,
		Cache: func() (cli.CacheManager, error) {
			return openCache(settingsService)
		},
	})
	cli.SetEngineFactory(func(_ context.Context, longLived bool) (*cli.Engine, error) {
		return buildEngine(settingsService, prompts, longLived)
	})

	return cli.Execute(ctx)
}

// openCache opens the persistent embedding cache named by cache.path.
func openCache(settings driving.SettingsService) (cli.CacheManager, error) {
	current, err := settings.Get()
	if err != nil {
		return nil, err
	}
	if current.Cache.Path == "" {
		return nil, errors.New("cache.path is not set, run: topicnet settings set cache.path <file>")
	}
	cache, err := sqlite.NewEmbeddingCache(expandHome(current.Cache.Path))
	if err != nil {
		return nil, err
	}
	return cache, nil
}

// buildEngine wires the AI providers, caches and vector store behind the
// split and search services.
func buildEngine(settingsService driving.SettingsService, prompts driven.PromptStore, longLived bool) (*cli.Engine, error) {
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	var closers []func()
	providers := ai.Initialise(settings)
	closers = append(closers, providers.Close)

	registry := converters.Default()
	split := services.NewSplitService(registry, providers.LLMService, providers.EmbeddingService)
	split.SetPromptStore(prompts)

	switch {
	case settings.Cache.Path != "":
		cache, err := sqlite.NewEmbeddingCache(expandHome(settings.Cache.Path))
		if err != nil {
			logger.Warn("embedding cache disabled: %v", err)
			break
		}
		split.SetEmbeddingCache(cache)
		closers = append(closers, func() { _ = cache.Close() })
	case longLived:
		cache := memory.NewEmbeddingCache()
		split.SetEmbeddingCache(cache)
		closers = append(closers, func() { _ = cache.Close() })
	}

	var search *services.SearchService
	if settings.VectorStore.IsConfigured() {
		store, err := qdrant.NewStore(qdrant.Config{
			URL:        settings.VectorStore.URL,
			APIKey:     settings.VectorStore.APIKey,
			Collection: settings.VectorStore.Collection,
		})
		if err != nil {
			closeAll(closers)
			return nil, fmt.Errorf("%w: %w", domain.ErrVectorStoreUnavailable, err)
		}
		split.SetVectorStore(store)
		search = services.NewSearchService(providers.EmbeddingService, store)
		closers = append(closers, func() { _ = store.Close() })
	} else {
		search = services.NewSearchService(providers.EmbeddingService, nil)
	}

	return &cli.Engine{
		Split:      split,
		Search:     search,
		Converters: registry,
		Close:      func() { closeAll(closers) },
	}, nil
}

// closeAll runs closers in reverse order.
func closeAll(closers []func()) {
	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
