package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/topicnet/internal/core/ports/driven"
	"github.com/custodia-labs/topicnet/internal/logger"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads LLM prompts from user-editable files on disk, falling
// back to the built-in templates it was created with.
//
// The store initialises lazily: the directory and default files are only
// written on the first Load, not in the constructor.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	defaults  map[string]string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// NewPromptStore creates a new file-based prompt store seeded with defaults.
// If promptDir is empty, defaults to ~/.topicnet/prompts/.
func NewPromptStore(promptDir string, defaults map[string]string) (*PromptStore, error) {
	if promptDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		promptDir = filepath.Join(dir, "prompts")
	}

	seeded := make(map[string]string, len(defaults))
	for name, prompt := range defaults {
		seeded[name] = prompt
	}
	return &PromptStore{
		promptDir: promptDir,
		defaults:  seeded,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name.
// Edited files win over defaults; an empty file counts as missing.
func (s *PromptStore) Load(name string) (string, error) {
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		if prompt, ok := s.defaults[name]; ok {
			return prompt, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	s.mu.RLock()
	prompt, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return prompt, nil
	}

	prompt, err := s.loadFromFile(name)
	if err != nil {
		if def, ok := s.defaults[name]; ok {
			logger.Debug("prompt %s: using built-in template (%v)", name, err)
			return def, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		prompt = cached
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()
	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// Path returns the file a prompt is read from.
func (s *PromptStore) Path(name string) string {
	return filepath.Join(s.promptDir, name+".txt")
}

// Names lists the prompts the store was seeded with, sorted.
func (s *PromptStore) Names() []string {
	names := make([]string, 0, len(s.defaults))
	for name := range s.defaults {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Reset overwrites a prompt file with its built-in template.
func (s *PromptStore) Reset(name string) error {
	def, ok := s.defaults[name]
	if !ok {
		return fmt.Errorf("unknown prompt %q", name)
	}
	if err := os.MkdirAll(s.promptDir, 0o700); err != nil {
		return fmt.Errorf("create prompt directory: %w", err)
	}
	if err := os.WriteFile(s.Path(name), []byte(def), 0o600); err != nil {
		return fmt.Errorf("reset prompt %q: %w", name, err)
	}
	s.mu.Lock()
	delete(s.cache, name)
	s.mu.Unlock()
	return nil
}

// Customised reports whether the prompt file holds something other than
// the built-in template. Missing and empty files are not customised.
func (s *PromptStore) Customised(name string) bool {
	def, ok := s.defaults[name]
	if !ok {
		return false
	}
	prompt, err := s.loadFromFile(name)
	if err != nil {
		return false
	}
	return prompt != strings.TrimSpace(def)
}

// initialise creates the prompt directory, any missing default files and
// the README. Called once on first Load.
func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0o700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	for _, name := range s.Names() {
		path := s.Path(name)
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			if err := os.WriteFile(path, []byte(s.defaults[name]), 0o600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

func (s *PromptStore) loadFromFile(name string) (string, error) {
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		return "", err
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", fmt.Errorf("%s is empty", s.Path(name))
	}
	return prompt, nil
}

func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		return nil
	}

	content := `# topicnet prompts

These templates drive LLM topic detection. Edit a file to change the
behaviour of the next split; delete it (or run ` + "`topicnet prompts reset <name>`" + `)
to restore the built-in version.

## Files

- ` + "`topic_detection.txt`" + ` - asks for topic proposals for one chunk
- ` + "`topic_detection_strict.txt`" + ` - retry sent after an unparseable reply
- ` + "`key_concepts.txt`" + ` - document-wide concept extraction

## Placeholders

The topic prompts take these placeholders:

- ` + "`{{min_topics}}`" + ` - minimum topics
- ` + "`{{max_topics}}`" + ` - maximum topics
- ` + "`{{headings}}`" + ` - heading outline of the chunk
- ` + "`{{text}}`" + ` - chunk text

` + "`key_concepts.txt`" + ` takes ` + "`{{excerpt}}`" + ` for the text excerpt.
Everything else, ` + "`%`" + ` signs included, is sent to the model as written.
Keep every placeholder when customising a prompt.
`
	return os.WriteFile(path, []byte(content), 0o600)
}
