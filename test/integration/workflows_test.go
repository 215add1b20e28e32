//go:build integration

package integration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestWorkflow_RowLifecycle logs in, then creates, reads, updates, queries and
// deletes a row through the CLI.
func TestWorkflow_RowLifecycle(t *testing.T) {
	config := LoadTestConfig()
	config.SkipIfMissingConfig(t)

	runner := NewCommandRunner(config, t)
	require.NoError(t, runner.Login())

	title := GenerateTestName("workflow-row")

	var created map[string]interface{}
	require.NoError(t, runner.RunJSON(&created, "create", config.Resource, "title="+title))

	id, ok := created["_id"].(string)
	require.True(t, ok, "create returned no _id")

	defer runner.CleanupRow(id)

	var fetched map[string]interface{}
	require.NoError(t, runner.RunJSON(&fetched, "get", config.Resource, id))
	assert.Equal(t, title, fetched["title"])

	renamed := title + "-renamed"
	_, stderr, err := runner.Run("update", config.Resource, id, "title="+renamed)
	require.NoError(t, err, stderr)

	var rows []map[string]interface{}
	require.NoError(t, runner.RunJSON(&rows, "list", config.Resource, "--where", `{"title":"`+renamed+`"}`))
	require.Len(t, rows, 1)
	assert.Equal(t, id, rows[0]["_id"])

	_, stderr, err = runner.Run("delete", config.Resource, id)
	require.NoError(t, err, stderr)

	_, _, err = runner.Run("get", config.Resource, id)
	assert.Error(t, err)
}

// TestWorkflow_OutputFormats checks the structured output of read commands.
func TestWorkflow_OutputFormats(t *testing.T) {
	config := LoadTestConfig()
	config.SkipIfMissingConfig(t)

	runner := NewCommandRunner(config, t)
	require.NoError(t, runner.Login())

	stdout, stderr, err := runner.Run("resources", "--output", "json")
	require.NoError(t, err, stderr)
	AssertJSONOutput(t, stdout)
	assert.Contains(t, stdout, `"Measurement"`)

	stdout, stderr, err = runner.Run("list", config.Resource, "--options", "max_results=1", "--output", "json")
	require.NoError(t, err, stderr)
	AssertJSONOutput(t, stdout)

	stdout, stderr, err = runner.Run("config", "show", "--output", "yaml")
	require.NoError(t, err, stderr)
	assert.Contains(t, stdout, "***")
}

// TestWorkflow_RefreshToken rotates the stored token and keeps working.
func TestWorkflow_RefreshToken(t *testing.T) {
	config := LoadTestConfig()
	config.SkipIfMissingConfig(t)

	runner := NewCommandRunner(config, t)
	require.NoError(t, runner.Login())

	_, stderr, err := runner.Run("refresh-token")
	require.NoError(t, err, stderr)

	_, stderr, err = runner.Run("resources")
	require.NoError(t, err, stderr)

	_, stderr, err = runner.Run("logout")
	require.NoError(t, err, stderr)
}
