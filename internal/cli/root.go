package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/skillorbit/skillorbit/internal/cli/commands"
	"github.com/skillorbit/skillorbit/internal/logger"
)

var version = "dev" // Will be set during build

// NewRootCmd builds the command tree. Extra options are passed to every
// subcommand after the defaults.
func NewRootCmd(opts ...commands.Option) *cobra.Command {
	var verbose bool
	cliLog := zerolog.Nop()

	rootCmd := &cobra.Command{
		Use:   "skillorbit",
		Short: "SkillOrbit - sign in to your courses from the terminal",
		Long: `SkillOrbit CLI - manage your SkillOrbit session.

Sign in or create an account, check who you are signed in as, and open the
SkillOrbit home page once authenticated.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := "warn"
			if verbose {
				level = "debug"
			}
			cliLog = logger.New(os.Stderr, level, "console")
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log API requests and responses to stderr")

	// The logger is only known once flags are parsed
	withLog := func(e *commands.Env) {
		commands.WithLogger(cliLog)(e)
	}
	all := append([]commands.Option{withLog}, opts...)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "skillorbit version %s\n", version)
		},
	})

	rootCmd.AddCommand(commands.NewAuthCmd(all...))
	rootCmd.AddCommand(commands.NewLoginCmd(all...))
	rootCmd.AddCommand(commands.NewRegisterCmd(all...))
	rootCmd.AddCommand(commands.NewWhoamiCmd(all...))
	rootCmd.AddCommand(commands.NewLogoutCmd(all...))
	rootCmd.AddCommand(commands.NewDashCmd(all...))

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
