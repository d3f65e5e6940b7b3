package commands

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"
)

// NewDashCmd creates the dash command
func NewDashCmd(opts ...Option) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dash",
		Short: "Open the SkillOrbit home page in browser",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDash(newEnv(opts))
		},
	}

	return cmd
}

func runDash(env *Env) error {
	cfg, err := env.loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	return openLanding(env, cfg.LandingURL)
}

func openLanding(env *Env, url string) error {
	env.printf("URL: %s\n", url)

	if err := env.openURL(url); err != nil {
		return fmt.Errorf("failed to open browser: %w\nPlease visit: %s", err, url)
	}
	return nil
}

// openBrowser opens the URL in the default browser
func openBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}
