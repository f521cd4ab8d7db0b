package converters

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/topicnet/internal/core/domain"
)

type fakeConverter struct {
	name string
	exts []string
}

func (f *fakeConverter) Name() string                  { return f.name }
func (f *fakeConverter) SupportedExtensions() []string { return f.exts }
func (f *fakeConverter) Convert(_ context.Context, _ string) (string, error) {
	return f.name, nil
}

func TestDefault(t *testing.T) {
	r := Default()

	assert.Equal(t, []string{
		".docx", ".htm", ".html", ".markdown", ".md", ".pdf", ".text", ".txt",
	}, r.Extensions())

	tests := []struct {
		path string
		want string
	}{
		{"notes.md", "markdown"},
		{"NOTES.MD", "markdown"},
		{"/tmp/report.pdf", "pdf"},
		{"page.HTML", "html"},
		{"readme.txt", "plaintext"},
		{"minutes.docx", "docx"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			c, err := r.ForPath(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Name())
			assert.True(t, r.Supports(tt.path))
		})
	}
}

func TestForPath_Unsupported(t *testing.T) {
	r := Default()

	_, err := r.ForPath("image.png")
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
	assert.Contains(t, err.Error(), ".png")

	_, err = r.ForPath("Makefile")
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
	assert.Contains(t, err.Error(), "no extension")
	assert.False(t, r.Supports("Makefile"))
}

func TestRegister_LaterWins(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeConverter{name: "first", exts: []string{".md", ".txt"}})
	r.Register(&fakeConverter{name: "second", exts: []string{".MD"}})

	c, err := r.ForPath("a.md")
	require.NoError(t, err)
	assert.Equal(t, "second", c.Name())

	c, err = r.ForPath("a.txt")
	require.NoError(t, err)
	assert.Equal(t, "first", c.Name())
}
