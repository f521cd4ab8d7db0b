package html

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConverter_Metadata(t *testing.T) {
	c := New()
	assert.Equal(t, "html", c.Name())
	assert.Equal(t, []string{".html", ".htm"}, c.SupportedExtensions())
}

func TestToText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "headings become atx",
			in:   "<body><h1>Annual <em>Report</em></h1><p>Intro.</p><h2 class=\"x\">Revenue</h2><p>Up 12%.</p></body>",
			want: "# Annual Report\n\nIntro.\n\n## Revenue\n\nUp 12%.",
		},
		{
			name: "title used without h1",
			in:   "<html><head><title>Q3 &amp; Q4</title></head><body><h2>Costs</h2><p>Flat.</p></body></html>",
			want: "# Q3 & Q4\n\n## Costs\n\nFlat.",
		},
		{
			name: "title ignored with h1",
			in:   "<title>Ignored</title><h1>Kept</h1>",
			want: "# Kept",
		},
		{
			name: "scripts styles and comments dropped",
			in:   "<p>a</p><script>var x = 1;</script><style>p{}</style><!-- note --><p>b</p>",
			want: "a\n\nb",
		},
		{
			name: "lists and breaks",
			in:   "<ul><li>one</li><li>two</li></ul><p>x<br>y</p>",
			want: "- one\n\n- two\n\nx\ny",
		},
		{
			name: "whitespace collapsed",
			in:   "<p>  lots   of\t space&nbsp;here </p>",
			want: "lots of space here",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToText(tt.in))
		})
	}
}

func TestConvert(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(path, []byte("<h1>Title</h1>\r\n<p>Body</p>"), 0600))

	got, err := New().Convert(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "# Title\n\nBody", got)
}
