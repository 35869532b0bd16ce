package main

import (
	"fmt"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/gigon/gigon/internal/config"
	"github.com/gigon/gigon/internal/logtail"
)

func newLogsCmd(flags *globalFlags) *cobra.Command {
	var (
		lines int
		level string
		grep  string
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent gigon log entries",
		Long: `logs prints the tail of the gigon log file, one entry per line.

Examples:
  gigon logs -n 100
  gigon logs --level warn
  gigon logs --grep conflict`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Reading logs must work before the config is complete.
			cfg, err := config.Load(flags.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			filter := logtail.Filter{MinLevel: level}
			if grep != "" {
				re, err := regexp.Compile(grep)
				if err != nil {
					return fmt.Errorf("invalid grep pattern: %w", err)
				}
				filter.Pattern = re
			}

			// Read everything when filtering so -n counts matches, not raw lines.
			readN := lines
			if level != "" || grep != "" {
				readN = 0
			}
			raw, err := logtail.Read(cfg.LogPath(), readN)
			if err != nil {
				return err
			}

			var out []string
			for _, line := range raw {
				if line == "" {
					continue
				}
				if e := logtail.Parse(line); filter.Match(e) {
					out = append(out, e.Format())
				}
			}
			if lines > 0 && len(out) > lines {
				out = out[len(out)-lines:]
			}

			w := cmd.OutOrStdout()
			if len(out) == 0 {
				fmt.Fprintf(w, "No log entries in %s\n", cfg.LogPath())
				return nil
			}
			for _, line := range out {
				fmt.Fprintln(w, line)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "number of entries to show (0 for all)")
	cmd.Flags().StringVarP(&level, "level", "l", "", "minimum level: debug, info, warn or error")
	cmd.Flags().StringVarP(&grep, "grep", "g", "", "only entries matching this regular expression")
	return cmd
}
