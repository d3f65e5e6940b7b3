package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skillorbit/skillorbit/internal/authflow"
	"github.com/skillorbit/skillorbit/internal/cli/client"
	"github.com/skillorbit/skillorbit/internal/cli/userconfig"
)

// NewLoginCmd creates the login command
func NewLoginCmd(opts ...Option) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to SkillOrbit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, newEnv(opts), email, password)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set SKILLORBIT_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set SKILLORBIT_PASSWORD, will prompt if not provided)")

	return cmd
}

func runLogin(cmd *cobra.Command, env *Env, email, password string) error {
	rt, err := env.open()
	if err != nil {
		return err
	}
	defer rt.Close()

	if email == "" {
		email = rt.cfg.Email
	}
	if email == "" {
		return fmt.Errorf("email is required (use --email flag or SKILLORBIT_EMAIL env var)")
	}

	password, err = env.resolvePassword(password, rt.cfg.Password)
	if err != nil {
		return err
	}

	flow := authflow.New(rt.holder)
	defer flow.Close()

	flow.SetSignIn(authflow.SignInForm{UserEmail: email, Password: password})
	if problems := flow.Problems(); len(problems) > 0 {
		return fmt.Errorf("invalid input: %s", problems[0])
	}

	env.printf("Signing in to %s...\n", rt.api.BaseURL())
	if err := flow.Submit(cmd.Context()); err != nil {
		return fmt.Errorf("login failed: %s", client.UserMessage(err))
	}

	current := rt.holder.Current()
	env.printf("✓ Login successful!\n")
	env.printf("  User: %s\n", describeUser(current))
	if p, err := current.Profile(); err == nil && p.Role != "" {
		env.printf("  Role: %s\n", p.Role)
	}

	if env.rememberUser {
		if err := userconfig.SetLastEmail(email); err != nil {
			env.log.Warn().Err(err).Msg("Failed to remember email")
		}
	}

	return nil
}
