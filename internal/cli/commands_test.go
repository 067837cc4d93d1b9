package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/secretpipe/pkg/template"
)

func TestNewRootCmdFlags(t *testing.T) {
	cmd := NewRootCmd()

	tests := []struct {
		flag     string
		defValue string
	}{
		{"to-file", "false"},
		{"mode", "600"},
		{"regex", template.DefaultPattern},
		{"oneshot", "false"},
		{"encoding", ""},
		{"poll", "0s"},
	}

	for _, tt := range tests {
		f := cmd.Flags().Lookup(tt.flag)
		require.NotNil(t, f, "flag --%s should exist", tt.flag)
		assert.Equal(t, tt.defValue, f.DefValue, "default for --%s", tt.flag)
	}

	assert.NotNil(t, cmd.PersistentFlags().Lookup("verbose"))
}

func TestNewRootCmdShorthands(t *testing.T) {
	cmd := NewRootCmd()

	assert.Equal(t, "m", cmd.Flags().Lookup("mode").Shorthand)
	assert.Equal(t, "r", cmd.Flags().Lookup("regex").Shorthand)
	assert.Equal(t, "o", cmd.Flags().Lookup("oneshot").Shorthand)
}

func TestNewRootCmdRequiresTwoArgs(t *testing.T) {
	cmd := NewRootCmd()
	cmd.SetArgs([]string{"only-output"})
	err := cmd.Execute()
	assert.Error(t, err)
}

func TestNewRootCmdHasHelpTopics(t *testing.T) {
	cmd := NewRootCmd()

	var found bool
	for _, c := range cmd.Commands() {
		if c.Name() == "help" {
			found = true
		}
	}
	assert.True(t, found, "topic-aware help command should be attached")
}
