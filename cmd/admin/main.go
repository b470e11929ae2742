package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"vodkeeper/internal/archiveapi"
	"vodkeeper/internal/cli"
)

var rule = strings.Repeat("-", 50)

type request func(ctx context.Context, c *archiveapi.Client) (*archiveapi.Response, error)

func main() {
	cli.Execute(newRootCmd(cli.NewApp()))
}

func newRootCmd(app *cli.App) *cobra.Command {
	root := cli.NewRoot(app, "admin", "Manage membership keys on the archive server")
	root.Args = cli.NoArgs

	var yes bool
	del := &cobra.Command{
		Use:   "delete <channel>",
		Short: "Delete all keys for a channel",
		Args:  cli.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(cmd.Context(), app, args[0], yes)
		},
	}
	del.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")

	root.AddCommand(
		&cobra.Command{
			Use:   "keys <channel>",
			Short: "Get all keys for a channel",
			Args:  cli.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runRequest(cmd.Context(), app, channelKeys(args[0]))
			},
		},
		&cobra.Command{
			Use:   "create <channel>",
			Short: "Create a new key for a channel",
			Args:  cli.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runRequest(cmd.Context(), app, createKey(args[0]))
			},
		},
		del,
		&cobra.Command{
			Use:   "all",
			Short: "Get all keys",
			Args:  cli.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runRequest(cmd.Context(), app, allKeys)
			},
		},
		&cobra.Command{
			Use:   "verify <key>",
			Short: "Verify a membership key",
			Args:  cli.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runRequest(cmd.Context(), app, verifyKey(args[0]))
			},
		},
	)
	return root
}

func channelKeys(channel string) request {
	return func(ctx context.Context, c *archiveapi.Client) (*archiveapi.Response, error) {
		return c.ChannelKeys(ctx, channel)
	}
}

func createKey(channel string) request {
	return func(ctx context.Context, c *archiveapi.Client) (*archiveapi.Response, error) {
		return c.CreateKey(ctx, channel)
	}
}

func deleteKeys(channel string) request {
	return func(ctx context.Context, c *archiveapi.Client) (*archiveapi.Response, error) {
		return c.DeleteKeys(ctx, channel)
	}
}

func allKeys(ctx context.Context, c *archiveapi.Client) (*archiveapi.Response, error) {
	return c.AllKeys(ctx)
}

func verifyKey(key string) request {
	return func(ctx context.Context, c *archiveapi.Client) (*archiveapi.Response, error) {
		return c.VerifyKey(ctx, key)
	}
}

func runDelete(ctx context.Context, app *cli.App, channel string, yes bool) error {
	if !yes {
		ok, err := cli.Confirm(app.Stdin, app.Stdout, fmt.Sprintf("Delete ALL membership keys for '%s'?", channel))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(app.Stdout, "Aborted.")
			return nil
		}
	}
	return runRequest(ctx, app, deleteKeys(channel))
}

func runRequest(ctx context.Context, app *cli.App, do request) error {
	if err := app.RequireServer(); err != nil {
		return err
	}
	client := archiveapi.New(app.Config.ServerURL, app.Config.APIKey)
	resp, err := do(ctx, client)
	if err != nil {
		app.Logger.Error("membership request failed", zap.Error(err))
		return err
	}
	return printResponse(app.Stdout, resp)
}

func printResponse(w io.Writer, resp *archiveapi.Response) error {
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Status: %d %s\n", resp.Status, http.StatusText(resp.Status))
	if resp.Body == nil {
		fmt.Fprintln(w, "None")
		fmt.Fprintln(w, rule)
		return nil
	}

	out, err := yaml.Marshal(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to render response: %w", err)
	}
	fmt.Fprintln(w, string(out))
	fmt.Fprintln(w, rule)
	return nil
}
