package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skillorbit/skillorbit/internal/authflow"
	"github.com/skillorbit/skillorbit/internal/cli/client"
)

// NewRegisterCmd creates the register command
func NewRegisterCmd(opts ...Option) *cobra.Command {
	var username, email, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a SkillOrbit account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(cmd, newEnv(opts), username, email, password)
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "User name")
	cmd.Flags().StringVar(&email, "email", "", "Email address (or set SKILLORBIT_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set SKILLORBIT_PASSWORD, will prompt if not provided)")

	return cmd
}

func runRegister(cmd *cobra.Command, env *Env, username, email, password string) error {
	rt, err := env.open()
	if err != nil {
		return err
	}
	defer rt.Close()

	if email == "" {
		email = rt.cfg.Email
	}

	password, err = env.resolvePassword(password, rt.cfg.Password)
	if err != nil {
		return err
	}

	flow := authflow.New(rt.holder)
	defer flow.Close()

	flow.SetMode(authflow.ModeSignUp)
	flow.SetSignUp(authflow.SignUpForm{UserName: username, UserEmail: email, Password: password})
	if problems := flow.Problems(); len(problems) > 0 {
		return fmt.Errorf("invalid input: %s", problems[0])
	}

	if err := flow.Submit(cmd.Context()); err != nil {
		return fmt.Errorf("registration failed: %s", client.UserMessage(err))
	}

	if msg, ok := flow.Message(); ok {
		env.printf("✓ %s\n", msg.Text)
	}
	env.printf("Run 'skillorbit login --email %s' to sign in.\n", email)
	return nil
}
