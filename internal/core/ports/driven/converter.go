package driven

import "context"

// Converter turns a source file into text the engine can segment.
// Headings should survive conversion as markdown ATX headings so the
// fallback detector can use them.
type Converter interface {
	// Name identifies the converter in logs.
	Name() string

	// SupportedExtensions returns lower-case file extensions including the dot.
	SupportedExtensions() []string

	// Convert reads the file at path and returns its text.
	Convert(ctx context.Context, path string) (string, error)
}

// ConverterRegistry selects a converter for a file.
type ConverterRegistry interface {
	// Register adds a converter. Later registrations win for shared extensions.
	Register(c Converter)

	// ForPath returns the converter for the file's extension.
	// Returns domain.ErrUnsupportedFormat when none matches.
	ForPath(path string) (Converter, error)

	// Extensions lists every supported extension, sorted.
	Extensions() []string
}
