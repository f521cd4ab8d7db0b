package driven

// ConfigStore holds flat dot-separated settings keys such as "llm.model".
// Typed getters return the zero value for a missing key or a value of
// another type; callers check Get first when zero is meaningful.
type ConfigStore interface {
	Get(key string) (any, bool)
	GetString(key string) string
	GetInt(key string) int
	GetFloat(key string) float64
	GetBool(key string) bool

	// Set stores a value. File-backed stores persist it straight away;
	// Save rewrites the whole file.
	Set(key string, value any) error
	Save() error

	// Path is where the configuration lives, for display.
	Path() string
}
