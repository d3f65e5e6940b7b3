package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skillorbit/skillorbit/internal/cli/client"
)

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd(opts ...Option) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWhoami(cmd, newEnv(opts))
		},
	}
}

func runWhoami(cmd *cobra.Command, env *Env) error {
	rt, err := env.open()
	if err != nil {
		return err
	}
	defer rt.Close()

	current := rt.holder.CheckSession(cmd.Context())
	if !current.Authenticated {
		if err := rt.holder.LastError(); err != nil {
			return fmt.Errorf("could not check session: %s", client.UserMessage(err))
		}
		return fmt.Errorf("not signed in. Please run 'skillorbit login' first")
	}

	env.printf("%s\n", describeUser(current))
	if p, err := current.Profile(); err == nil && p.Role != "" {
		env.printf("Role: %s\n", p.Role)
	}
	return nil
}
