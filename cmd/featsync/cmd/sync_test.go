package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSyncCommand(t *testing.T) {
	assert.NotNil(t, syncCmd)
	assert.Equal(t, "sync", syncCmd.Use)
	assert.NotEmpty(t, syncCmd.Short)
	assert.NotEmpty(t, syncCmd.Long)
	assert.NotNil(t, syncCmd.RunE)
}

func TestSyncFlags(t *testing.T) {
	jobFlag := syncCmd.Flags().Lookup("job")
	assert.NotNil(t, jobFlag)
	assert.Equal(t, "j", jobFlag.Shorthand)

	forceFlag := syncCmd.Flags().Lookup("force")
	assert.NotNil(t, forceFlag)
	assert.Equal(t, "false", forceFlag.DefValue)
}
