package plaintext

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/topicnet/internal/core/domain"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

func TestConverter_Metadata(t *testing.T) {
	c := New()
	assert.Equal(t, "plaintext", c.Name())
	assert.Equal(t, []string{".txt", ".text"}, c.SupportedExtensions())
}

func TestConvert(t *testing.T) {
	path := writeFile(t, "notes.txt", []byte("\xEF\xBB\xBFline one\r\nline two\rline three\n"))

	got, err := New().Convert(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two\nline three\n", got)
}

func TestConvert_Binary(t *testing.T) {
	path := writeFile(t, "blob.txt", []byte{0xff, 0xfe, 0x00, 0x41})

	_, err := New().Convert(context.Background(), path)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestConvert_Errors(t *testing.T) {
	_, err := New().Convert(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = New().Convert(ctx, "whatever.txt")
	assert.ErrorIs(t, err, context.Canceled)
}
