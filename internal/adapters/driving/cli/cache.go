package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Show the embedding cache",
	Long: `Show where the persistent embedding cache lives and how many vectors it
holds. The cache is used when cache.path is set.`,
	RunE: runCacheInfo,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached embedding",
	Args:  cobra.NoArgs,
	RunE:  runCacheClear,
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func openCache() (CacheManager, error) {
	if cacheOpener == nil {
		return nil, errors.New("embedding cache not configured")
	}
	cache, err := cacheOpener()
	if err != nil {
		return nil, fmt.Errorf("failed to open embedding cache: %w", err)
	}
	return cache, nil
}

func runCacheInfo(cmd *cobra.Command, _ []string) error {
	cache, err := openCache()
	if err != nil {
		return err
	}
	defer func() { _ = cache.Close() }()

	n, err := cache.Len(cmd.Context())
	if err != nil {
		return err
	}
	cmd.Printf("Path:    %s\n", cache.Path())
	cmd.Printf("Vectors: %d\n", n)
	return nil
}

func runCacheClear(cmd *cobra.Command, _ []string) error {
	cache, err := openCache()
	if err != nil {
		return err
	}
	defer func() { _ = cache.Close() }()

	n, err := cache.Len(cmd.Context())
	if err != nil {
		return err
	}
	if err := cache.Clear(cmd.Context()); err != nil {
		return err
	}
	cmd.Printf("Removed %d cached embeddings from %s\n", n, cache.Path())
	return nil
}
