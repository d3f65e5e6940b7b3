package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skillorbit/skillorbit/internal/cli/client"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd(opts ...Option) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(cmd, newEnv(opts))
		},
	}
}

func runLogout(cmd *cobra.Command, env *Env) error {
	rt, err := env.open()
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.holder.Logout(cmd.Context()); err != nil {
		env.printf("Signed out locally.\n")
		return fmt.Errorf("server logout failed: %s", client.UserMessage(err))
	}

	env.printf("✓ Signed out\n")
	return nil
}
