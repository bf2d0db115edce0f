package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	assert.NotNil(t, versionCmd)
	assert.Equal(t, "version", versionCmd.Use)
	assert.NotEmpty(t, versionCmd.Short)
}

func TestVersionOutput(t *testing.T) {
	origVersion, origCommit := Version, Commit
	defer func() {
		Version, Commit = origVersion, origCommit
	}()

	tests := []struct {
		name         string
		version      string
		commit       string
		wantInOutput []string
	}{
		{
			name:         "dev build",
			version:      "0.0.1-dev",
			commit:       "unknown",
			wantInOutput: []string{"featsync version 0.0.1-dev", "Commit: unknown"},
		},
		{
			name:         "release build",
			version:      "1.2.0",
			commit:       "abc1234",
			wantInOutput: []string{"featsync version 1.2.0", "Commit: abc1234", "Go version:", "OS/Arch:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Version = tt.version
			Commit = tt.commit

			var buf bytes.Buffer
			versionCmd.SetOut(&buf)
			runVersion(versionCmd, nil)

			output := buf.String()
			for _, want := range tt.wantInOutput {
				require.Contains(t, output, want)
			}
		})
	}
}
