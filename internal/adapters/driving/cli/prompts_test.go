package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptsCmd_ErrorsWithoutStore(t *testing.T) {
	setupTestServices(t)
	promptManager = nil

	_, err := execute(t, "", "prompts")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestPromptsList(t *testing.T) {
	_, _, _, prompts := setupTestServices(t)
	prompts.customised["topic_detection"] = true

	out, err := execute(t, "", "prompts")
	require.NoError(t, err)

	assert.Regexp(t, `key_concepts\s+default\s+/prompts/key_concepts.txt`, out)
	assert.Regexp(t, `topic_detection\s+customised\s+/prompts/topic_detection.txt`, out)
}

func TestPromptsReset(t *testing.T) {
	t.Run("one prompt", func(t *testing.T) {
		_, _, _, prompts := setupTestServices(t)

		out, err := execute(t, "", "prompts", "reset", "topic_detection")
		require.NoError(t, err)
		assert.Equal(t, []string{"topic_detection"}, prompts.reset)
		assert.Contains(t, out, "Reset topic_detection")
	})

	t.Run("all prompts", func(t *testing.T) {
		_, _, _, prompts := setupTestServices(t)

		_, err := execute(t, "", "prompts", "reset", "--all")
		require.NoError(t, err)
		assert.Equal(t, []string{"key_concepts", "topic_detection"}, prompts.reset)
	})

	t.Run("needs a name", func(t *testing.T) {
		setupTestServices(t)

		_, err := execute(t, "", "prompts", "reset")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--all")
	})

	t.Run("store error", func(t *testing.T) {
		_, _, _, prompts := setupTestServices(t)
		prompts.err = errors.New(`unknown prompt "nope"`)

		_, err := execute(t, "", "prompts", "reset", "nope")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown prompt")
	})
}
