package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRootCommand(t *testing.T) {
	assert.NotNil(t, rootCmd)
	assert.Equal(t, "featsync", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestRootPersistentFlags(t *testing.T) {
	flags := rootCmd.PersistentFlags()

	for _, name := range []string{
		"config",
		"log-level",
		"log-format",
		"page-size",
		"insert-batch-size",
		"delete-batch-size",
		"verify",
	} {
		assert.NotNil(t, flags.Lookup(name), "missing persistent flag %s", name)
	}

	configFlag := flags.Lookup("config")
	assert.Equal(t, "featsync.yaml", configFlag.DefValue)
	assert.Equal(t, "c", configFlag.Shorthand)
}

func TestRootSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, sub := range rootCmd.Commands() {
		names[sub.Name()] = true
	}

	for _, want := range []string{"sync", "plan", "validate", "list-jobs", "version"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestGetCLIOverrides(t *testing.T) {
	origLevel, origPageSize, origVerify := logLevel, pageSize, verifyInserts
	defer func() {
		logLevel, pageSize, verifyInserts = origLevel, origPageSize, origVerify
	}()

	logLevel = "debug"
	pageSize = 250
	verifyInserts = true

	overrides := GetCLIOverrides()
	assert.Equal(t, "debug", overrides.LogLevel)
	assert.Equal(t, 250, overrides.PageSize)
	assert.True(t, overrides.Verify)
}
