package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillorbit/skillorbit/internal/cli/commands"
	"github.com/skillorbit/skillorbit/internal/cli/config"
)

func TestRootCmd_Subcommands(t *testing.T) {
	root := NewRootCmd()

	var names []string
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	assert.ElementsMatch(t, []string{"auth", "dash", "login", "logout", "register", "version", "whoami"}, names)
	assert.NotNil(t, root.PersistentFlags().Lookup("verbose"))
}

func TestRootCmd_Version(t *testing.T) {
	root := NewRootCmd()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Equal(t, "skillorbit version dev\n", out.String())
}

func TestRootCmd_OptionsReachSubcommands(t *testing.T) {
	var opened []string
	out := &bytes.Buffer{}
	root := NewRootCmd(
		commands.WithConfig(&config.Config{LandingURL: "http://localhost:5173/home"}),
		commands.WithOutput(out),
		commands.WithBrowser(func(url string) error {
			opened = append(opened, url)
			return nil
		}),
	)
	root.SetArgs([]string{"--verbose", "dash"})

	require.NoError(t, root.Execute())
	assert.Equal(t, []string{"http://localhost:5173/home"}, opened)
	assert.Contains(t, out.String(), "http://localhost:5173/home")
}
