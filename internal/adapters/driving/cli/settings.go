package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/topicnet/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure AI providers, split and link defaults, the vector store
and the embedding cache. Settings live in ~/.topicnet/config.toml and can be
overridden with TOPICNET_<SECTION>_<KEY> environment variables.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set one setting",
	Long: `Set one setting by its dotted key, for example:

  topicnet settings set split.max_topics 6
  topicnet settings set embedding.provider ollama

Run 'topicnet settings keys' for every key.`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List setting keys",
	RunE:  runSettingsKeys,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long:  `Configure the embedding provider used to link topics.`,
	RunE:  runSettingsEmbedding,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure LLM provider",
	Long:  `Configure the LLM provider used to detect topics.`,
	RunE:  runSettingsLLM,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if err := requireSettings(); err != nil {
		return err
	}
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	section := func(name string, lines ...string) {
		cmd.Printf("[%s]\n", name)
		for _, l := range lines {
			cmd.Printf("  %s\n", l)
		}
		cmd.Println()
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	llm := settings.LLM
	section("LLM", providerLines(llm.Provider, llm.Model, llm.BaseURL, llm.APIKey,
		llm.IsConfigured(), "headings are used to detect topics")...)
	emb := settings.Embedding
	section("Embedding", providerLines(emb.Provider, emb.Model, emb.BaseURL, emb.APIKey,
		emb.IsConfigured(), "topics are written without links")...)
	section("Split",
		fmt.Sprintf("Max chunk words: %d", settings.Split.MaxChunkWords),
		fmt.Sprintf("Boundary tolerance: %g", settings.Split.BoundaryTolerance),
		fmt.Sprintf("Topics per chunk: %d-%d", settings.Split.MinTopics, settings.Split.MaxTopics),
		"Key concepts: "+yesNo(settings.Split.KeyConcepts),
	)
	section("Link",
		fmt.Sprintf("Threshold: %g", settings.Link.Threshold),
		fmt.Sprintf("Max links: %d", settings.Link.MaxLinks),
		"Cross chunk: "+yesNo(settings.Link.CrossChunk),
		fmt.Sprintf("Embed chars: %d", settings.Link.EmbedChars),
	)
	section("Output", "Prune: "+yesNo(settings.Output.Prune))

	vs := settings.VectorStore
	if vs.IsConfigured() {
		lines := []string{"URL: " + vs.URL, "Collection: " + vs.Collection}
		if vs.APIKey != "" {
			lines = append(lines, "API Key: "+maskAPIKey(vs.APIKey))
		}
		section("Vector Store", lines...)
	} else {
		section("Vector Store", "Status: not configured (--export and query are unavailable)")
	}

	if settings.Cache.Path != "" {
		section("Cache", "Path: "+settings.Cache.Path)
	} else {
		section("Cache", "Path: (not set, embeddings are not persisted)")
	}

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'topicnet settings set <key> <value>' to fix it.")
		return nil
	}
	cmd.Println("Configuration is valid.")
	return nil
}

func providerLines(provider domain.AIProvider, model, baseURL, apiKey string, configured bool, fallback string) []string {
	if provider == "" {
		return []string{fmt.Sprintf("Provider: (not set, %s)", fallback)}
	}
	lines := []string{"Provider: " + provider.Description()}
	if model != "" {
		lines = append(lines, "Model: "+model)
	}
	if baseURL != "" {
		lines = append(lines, "Base URL: "+baseURL)
	}
	if provider.RequiresAPIKey() {
		key := "(not set)"
		if apiKey != "" {
			key = maskAPIKey(apiKey)
		}
		lines = append(lines, "API Key: "+key)
	}
	if configured {
		return append(lines, "Status: configured")
	}
	return append(lines, "Status: not configured, "+fallback)
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if err := requireSettings(); err != nil {
		return err
	}
	key, value := args[0], args[1]
	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	if strings.HasSuffix(key, "api_key") {
		value = maskAPIKey(value)
	}
	cmd.Printf("Set %s = %s\n", key, value)
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	if err := requireSettings(); err != nil {
		return err
	}
	for _, key := range settingsService.Keys() {
		cmd.Println(key)
	}
	return nil
}

// providerFlow describes one interactive provider picker.
type providerFlow struct {
	kind      string
	providers []domain.AIProvider
	models    map[domain.AIProvider]string
	fixed     domain.AIProvider // provider whose model is not asked for
	save      func(p domain.AIProvider, model, apiKey string) error
	validate  func() error
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if err := requireSettings(); err != nil {
		return err
	}
	return pickProvider(cmd, providerFlow{
		kind:      "Embedding",
		providers: domain.AllEmbeddingProviders(),
		models:    domain.DefaultEmbeddingModels(),
		fixed:     domain.AIProviderTFIDF,
		save:      settingsService.SetEmbeddingProvider,
		validate:  settingsService.ValidateEmbeddingConfig,
	})
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	if err := requireSettings(); err != nil {
		return err
	}
	return pickProvider(cmd, providerFlow{
		kind:      "LLM",
		providers: domain.AllLLMProviders(),
		models:    domain.DefaultLLMModels(),
		save:      settingsService.SetLLMProvider,
		validate:  settingsService.ValidateLLMConfig,
	})
}

func pickProvider(cmd *cobra.Command, flow providerFlow) error {
	reader := bufio.NewReader(cmd.InOrStdin())

	cmd.Printf("Select %s Provider\n", flow.kind)
	for i, p := range flow.providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	provider := flow.providers[parseChoice(readLine(reader), len(flow.providers), 1)-1]

	model := flow.models[provider]
	if provider != flow.fixed {
		cmd.Printf("Enter model name [%s]: ", model)
		if input := readLine(reader); input != "" {
			model = input
		}
	}

	var apiKey string
	if provider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword(cmd.InOrStdin(), reader)
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := flow.save(provider, model, apiKey); err != nil {
		return fmt.Errorf("save %s provider: %w", flow.kind, err)
	}

	cmd.Print("Validating configuration... ")
	if err := flow.validate(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("%s provider check: %w", flow.kind, err)
	}
	cmd.Println("OK")
	cmd.Printf("%s provider configured: %s (%s)\n", flow.kind, provider.Description(), model)
	return nil
}

func requireSettings() error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	return nil
}

func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo when in is a terminal, otherwise it
// reads a line from reader.
func readPassword(in io.Reader, reader *bufio.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
