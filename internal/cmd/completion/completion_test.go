package completion

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-cli-collective/shopify-cli/internal/cmd/root"
)

func TestRegister(t *testing.T) {
	rootCmd, opts := root.NewCmd()
	Register(rootCmd, opts)

	completionCmd, _, err := rootCmd.Find([]string{"completion"})
	require.NoError(t, err)
	assert.Equal(t, "completion [bash|zsh|fish|powershell]", completionCmd.Use)
	assert.ElementsMatch(t, []string{"bash", "zsh", "fish", "powershell"}, completionCmd.ValidArgs)
}

func TestCompletion_InvalidArgs(t *testing.T) {
	for _, args := range [][]string{{"completion"}, {"completion", "tcsh"}} {
		rootCmd, opts := root.NewCmd()
		Register(rootCmd, opts)

		rootCmd.SetArgs(args)
		assert.Error(t, rootCmd.Execute())
	}
}

func TestCompletion_Shells(t *testing.T) {
	tests := []struct {
		shell string
		want  string
	}{
		{"bash", "__start_shopctl"},
		{"zsh", "#compdef shopctl"},
		{"fish", "complete -c shopctl"},
		{"powershell", "Register-ArgumentCompleter"},
	}

	for _, tt := range tests {
		t.Run(tt.shell, func(t *testing.T) {
			stdout := &bytes.Buffer{}
			rootCmd := &cobra.Command{Use: "shopctl"}
			Register(rootCmd, &root.Options{Stdout: stdout})

			rootCmd.SetArgs([]string{"completion", tt.shell})
			require.NoError(t, rootCmd.Execute())
			assert.Contains(t, stdout.String(), tt.want)
		})
	}
}
