package commands

import (
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/skillorbit/skillorbit/internal/authflow"
	"github.com/skillorbit/skillorbit/internal/cli/userconfig"
	"github.com/skillorbit/skillorbit/internal/session"
)

const (
	choiceSignIn = iota
	choiceSignUp
	choiceQuit
)

var authChoices = []string{"Sign in", "Sign up", "Quit"}

// NewAuthCmd creates the interactive sign-in/sign-up command
func NewAuthCmd(opts ...Option) *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Sign in or create an account interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuth(cmd, newEnv(opts))
		},
	}
}

func runAuth(cmd *cobra.Command, env *Env) error {
	rt, err := env.open()
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := cmd.Context()

	var signedIn session.Session
	rt.holder.CheckSession(ctx)
	flow := authflow.New(rt.holder, authflow.WithRedirect(func(s session.Session) {
		signedIn = s
	}))
	defer flow.Close()

	lastEmail := ""
	if env.rememberUser {
		lastEmail, _ = userconfig.GetLastEmail()
	}

	for flow.Active() {
		choice, err := env.prompter.Select(modeLabel(flow.Mode()), authChoices)
		if err != nil {
			return quietInterrupt(err)
		}

		switch choice {
		case choiceSignIn:
			flow.SetMode(authflow.ModeSignIn)
			form, err := promptSignIn(env.prompter, lastEmail)
			if err != nil {
				return quietInterrupt(err)
			}
			flow.SetSignIn(form)
			lastEmail = form.UserEmail
		case choiceSignUp:
			flow.SetMode(authflow.ModeSignUp)
			form, err := promptSignUp(env.prompter)
			if err != nil {
				return quietInterrupt(err)
			}
			flow.SetSignUp(form)
			lastEmail = form.UserEmail
		default:
			return nil
		}

		err = flow.Submit(ctx)

		var verr *authflow.ValidationError
		if errors.As(err, &verr) {
			for _, problem := range verr.Problems {
				env.printf("✗ %s\n", problem)
			}
			continue
		}
		if msg, ok := flow.Message(); ok {
			env.printf("%s %s\n", messageMark(msg.Kind), msg.Text)
		}
	}

	env.printf("Welcome, %s!\n", describeUser(signedIn))
	if p, err := signedIn.Profile(); err == nil && p.UserEmail != "" && env.rememberUser {
		if err := userconfig.SetLastEmail(p.UserEmail); err != nil {
			env.log.Warn().Err(err).Msg("Failed to remember email")
		}
	}

	return openLanding(env, rt.cfg.LandingURL)
}

func promptSignIn(p Prompter, defaultEmail string) (authflow.SignInForm, error) {
	email, err := p.Input("Email", defaultEmail, validateEmailInput)
	if err != nil {
		return authflow.SignInForm{}, err
	}
	password, err := p.Secret("Password")
	if err != nil {
		return authflow.SignInForm{}, err
	}
	return authflow.SignInForm{UserEmail: email, Password: password}, nil
}

func promptSignUp(p Prompter) (authflow.SignUpForm, error) {
	username, err := p.Input("Username", "", nil)
	if err != nil {
		return authflow.SignUpForm{}, err
	}
	email, err := p.Input("Email", "", validateEmailInput)
	if err != nil {
		return authflow.SignUpForm{}, err
	}
	password, err := p.Secret("Password")
	if err != nil {
		return authflow.SignUpForm{}, err
	}
	return authflow.SignUpForm{UserName: username, UserEmail: email, Password: password}, nil
}

// validateEmailInput gives inline feedback while typing
func validateEmailInput(s string) error {
	if s == "" {
		return nil
	}
	if !authflow.ValidEmail(s) {
		return errors.New("Please enter a valid email.")
	}
	return nil
}

func modeLabel(m authflow.Mode) string {
	if m == authflow.ModeSignUp {
		return "Create your SkillOrbit account"
	}
	return "Sign in to SkillOrbit"
}

func messageMark(kind authflow.MessageKind) string {
	if kind == authflow.MessageError {
		return "✗"
	}
	return "✓"
}

// quietInterrupt turns Ctrl-C/Ctrl-D at a prompt into a clean exit
func quietInterrupt(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
		return nil
	}
	return fmt.Errorf("prompt failed: %w", err)
}
