package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/topicnet/internal/converters"
)

func TestWatchCmd_RequiresDir(t *testing.T) {
	setupTestServices(t)
	_, err := execute(t, "", "watch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestWatchCmd_ErrorsWithoutConverters(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "", "watch", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestWatchCmd_MissingDir(t *testing.T) {
	setupTestServices(t)
	converterRegistry = converters.Default()

	_, err := execute(t, "", "watch", "/non/existent/path")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/non/existent/path")
}

func TestWatchCmd_Flags(t *testing.T) {
	for _, name := range []string{"output", "debounce-ms", "max-topics", "threshold", "export", "prune"} {
		assert.NotNil(t, watchCmd.Flags().Lookup(name), name)
	}
	assert.Equal(t, "500", watchCmd.Flags().Lookup("debounce-ms").DefValue)
	assert.Equal(t, 250*time.Millisecond, millis(250))
}
