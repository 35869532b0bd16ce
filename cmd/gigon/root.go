package main

import (
	"github.com/spf13/cobra"

	"github.com/gigon/gigon/internal/app"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	prefsPath  string
	viewer     string
	logLevel   string
}

func (g *globalFlags) options() app.Options {
	return app.Options{
		ConfigPath: g.configPath,
		PrefsPath:  g.prefsPath,
		Viewer:     g.viewer,
		LogLevel:   g.logLevel,
	}
}

// withEnv bootstraps a session for one-shot commands and closes it afterwards.
func (g *globalFlags) withEnv(fn func(env *app.Env) error) error {
	env, err := app.Bootstrap(g.options())
	if err != nil {
		return err
	}
	defer env.Close()
	return fn(env)
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "gigon [profile]",
		Short: "Manage Gig-On connections from the terminal",
		Long: `gigon shows the connection between you and another Gig-On user and
lets you request, accept or remove it. With no subcommand it opens the
interactive profile view, optionally on the given profile.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, flags, args)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "config file (default is $HOME/.config/gigon/config.toml)")
	pf.StringVar(&flags.prefsPath, "prefs", "", "preferences file (default is $HOME/.config/gigon/prefs.toml)")
	pf.StringVar(&flags.viewer, "as", "", "act as this username instead of the configured one")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn or error")

	rootCmd.AddCommand(
		newTUICmd(flags),
		newStatusCmd(flags),
		newConnectCmd(flags),
		newRemoveCmd(flags),
		newNetworkCmd(flags),
		newLogsCmd(flags),
	)
	return rootCmd
}

func newTUICmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tui [profile]",
		Short: "Open the interactive profile view",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, flags, args)
		},
	}
}

func runTUI(cmd *cobra.Command, flags *globalFlags, args []string) error {
	opts := flags.options()
	if len(args) == 1 {
		opts.Profile = args[0]
	}
	return app.Run(cmd.Context(), opts)
}
