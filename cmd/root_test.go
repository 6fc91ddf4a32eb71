package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	// Collect subcommand names.
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	// Verify expected subcommands are registered.
	expected := []string{
		"report", "weather", "analyze", "classify", "candidates",
		"verify", "heatindex", "suspend", "suspensions", "serve",
	}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "stormwatch", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestReportCommand_HasSubcommands(t *testing.T) {
	cmds := reportCmd.Commands()
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	for _, name := range []string{"submit", "list"} {
		assert.True(t, names[name], "report should have subcommand %q", name)
	}
}

func TestReportSubmitCommand_Flags(t *testing.T) {
	for _, flagName := range []string{"city", "barangay", "category", "description", "severity", "user"} {
		flag := reportSubmitCmd.Flags().Lookup(flagName)
		assert.NotNil(t, flag, "report submit should have --%s flag", flagName)
	}
}

func TestReportListCommand_Flags(t *testing.T) {
	flag := reportListCmd.Flags().Lookup("limit")
	require.NotNil(t, flag, "report list should have --limit flag")
	assert.Equal(t, "50", flag.DefValue)
}

func TestAnalyzeCommand_Flags(t *testing.T) {
	flag := analyzeCmd.Flags().Lookup("limit")
	require.NotNil(t, flag, "analyze should have --limit flag")
	assert.Equal(t, "100", flag.DefValue)

	require.NotNil(t, analyzeCmd.Flags().Lookup("keywords"), "analyze should have --keywords flag")
}

func TestHeatindexCommand_Flags(t *testing.T) {
	for _, flagName := range []string{"temp", "humidity"} {
		flag := heatindexCmd.Flags().Lookup(flagName)
		require.NotNil(t, flag, "heatindex should have --%s flag", flagName)
	}
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestVerifyCommand_Flags(t *testing.T) {
	for _, flagName := range []string{"city", "category", "description", "fetch"} {
		flag := verifyCmd.Flags().Lookup(flagName)
		assert.NotNil(t, flag, "verify should have --%s flag", flagName)
	}
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "1234abcd", truncateID("1234abcd-0000-0000-0000-000000000000"))
	assert.Equal(t, "short", truncateID("short"))
}
