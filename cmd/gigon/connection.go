package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/gigon/gigon/internal/app"
	"github.com/gigon/gigon/internal/connection"
	"github.com/gigon/gigon/internal/gigon"
)

func newStatusCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status <username>",
		Short: "Show the connection with another user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return flags.withEnv(func(env *app.Env) error {
				view, err := env.Manager.Resolve(cmd.Context(), env.Viewer(), args[0])
				if err != nil {
					return err
				}
				printView(cmd.OutOrStdout(), env.Viewer(), args[0], view)
				return nil
			})
		},
	}
}

func newConnectCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "connect <username>",
		Short: "Send or accept a connection request",
		Long: `connect performs the primary action for the pair: it sends a request
when there is no connection and accepts one the other user sent. When a
request is already pending or the users are connected it does nothing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return flags.withEnv(func(env *app.Env) error {
				return runConnect(cmd.Context(), cmd.OutOrStdout(), env, args[0])
			})
		},
	}
}

func runConnect(ctx context.Context, out io.Writer, env *app.Env, other string) error {
	viewer := env.Viewer()
	view, err := env.Manager.Resolve(ctx, viewer, other)
	if err != nil {
		return err
	}
	if !connection.PrimaryEnabled(view.State) {
		fmt.Fprintf(out, "Nothing to do: %s\n", connection.PrimaryLabel(view.State))
		printView(out, viewer, other, view)
		return nil
	}

	next, err := env.Manager.PrimaryAction(ctx, viewer, other, view)
	if err != nil {
		if errors.Is(err, gigon.ErrConflict) {
			if current, rerr := env.Manager.Resolve(ctx, viewer, other); rerr == nil {
				fmt.Fprintln(out, "Connection changed elsewhere:")
				printView(out, viewer, other, current)
			}
		}
		return err
	}

	if next.State == connection.StateConnected {
		fmt.Fprintln(out, "Request accepted")
	} else {
		fmt.Fprintln(out, "Request sent")
	}
	printView(out, viewer, other, next)
	return nil
}

func newRemoveCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <username>",
		Short: "Withdraw a sent request or remove a connection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return flags.withEnv(func(env *app.Env) error {
				return runRemove(cmd.Context(), cmd.OutOrStdout(), env, args[0])
			})
		},
	}
}

func runRemove(ctx context.Context, out io.Writer, env *app.Env, other string) error {
	viewer := env.Viewer()
	view, err := env.Manager.Resolve(ctx, viewer, other)
	if err != nil {
		return err
	}
	if view.State == connection.StateNone {
		fmt.Fprintln(out, "Nothing to remove")
		return nil
	}

	next, err := env.Manager.RemoveAction(ctx, viewer, other, view)
	if err != nil {
		if errors.Is(err, connection.ErrActionUnavailable) {
			return fmt.Errorf("%s: %w", view.State, err)
		}
		return err
	}
	fmt.Fprintln(out, "Removed")
	printView(out, viewer, other, next)
	return nil
}

func newNetworkCmd(flags *globalFlags) *cobra.Command {
	var tabName string

	cmd := &cobra.Command{
		Use:   "network",
		Short: "List your connections and pending requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tab, ok := connection.ParseTab(tabName)
			if !ok {
				return fmt.Errorf("unknown tab %q (want connected, sent or received)", tabName)
			}
			return flags.withEnv(func(env *app.Env) error {
				net, err := env.Manager.Network(cmd.Context(), env.Viewer())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				tabs := []connection.Tab{connection.TabConnected, connection.TabSent, connection.TabReceived}
				if tabName != "" {
					tabs = []connection.Tab{tab}
				}
				for i, t := range tabs {
					if i > 0 {
						fmt.Fprintln(out)
					}
					printTab(out, net, t)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&tabName, "tab", "t", "", "show only one group: connected, sent or received")
	return cmd
}

func printTab(out io.Writer, net connection.Network, tab connection.Tab) {
	entries := net.Entries(tab)
	fmt.Fprintf(out, "%s (%d)\n", tab, len(entries))
	for _, e := range entries {
		fmt.Fprintf(out, "  @%-20s #%d\n", e.Peer, e.Connection.ID)
	}
}

func printView(out io.Writer, viewer, other string, view connection.View) {
	fmt.Fprintf(out, "@%s → @%s\n", viewer, other)
	fmt.Fprintf(out, "  state:   %s\n", view.State)
	fmt.Fprintf(out, "  primary: %s", connection.PrimaryLabel(view.State))
	if !connection.PrimaryEnabled(view.State) {
		fmt.Fprint(out, " (disabled)")
	}
	fmt.Fprintln(out)
	if label, ok := connection.SecondaryLabel(view.State); ok {
		fmt.Fprintf(out, "  remove:  %s\n", label)
	}
	if view.ID != 0 {
		fmt.Fprintf(out, "  record:  #%d\n", view.ID)
	}
}
