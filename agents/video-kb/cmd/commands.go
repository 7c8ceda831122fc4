package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"video-kb/shared/config"
	"video-kb/shared/youtube"

	"github.com/spf13/cobra"
)

// cli holds what every command needs. open builds the application lazily so
// that argument errors are reported before any store or client is created.
type cli struct {
	cfg  *config.Config
	open func(ctx context.Context) (*app, error)
}

func (c *cli) withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	a, err := c.open(ctx)
	if err != nil {
		return err
	}
	defer a.store.Close()
	return fn(ctx, a)
}

func newRootCmd(c *cli) *cobra.Command {
	var once bool

	root := &cobra.Command{
		Use:   "video-kb",
		Short: "Summarize YouTube videos and answer questions across them",
		Long: `video-kb keeps a knowledge base of YouTube video summaries.

Without a command it runs the HTTP API and, when a watchlist is configured,
the watchlist scheduler.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app) error {
				if once {
					return a.runWatchlistOnce(ctx)
				}
				return a.serve(ctx)
			})
		},
	}
	root.Flags().BoolVar(&once, "once", false, "Ingest the watchlist once and exit")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API and the watchlist scheduler",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withApp(cmd, func(ctx context.Context, a *app) error {
					return a.serve(ctx)
				})
			},
		},
		&cobra.Command{
			Use:     "add [URL]",
			Short:   "Add a video to the knowledge base",
			Example: `  video-kb add "https://www.youtube.com/watch?v=dQw4w9WgXcQ"`,
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withApp(cmd, func(ctx context.Context, a *app) error {
					return a.add(ctx, args[0])
				})
			},
		},
		&cobra.Command{
			Use:     "ask [question]",
			Short:   "Answer a question from the stored summaries",
			Example: `  video-kb ask "What do these videos say about testing?"`,
			Args:    cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				question := strings.Join(args, " ")
				return c.withApp(cmd, func(ctx context.Context, a *app) error {
					return a.ask(ctx, question)
				})
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List stored videos",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withApp(cmd, func(ctx context.Context, a *app) error {
					return a.list(ctx)
				})
			},
		},
		&cobra.Command{
			Use:   "delete [id]",
			Short: "Delete a stored video",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid video id %q", args[0])
				}
				return c.withApp(cmd, func(ctx context.Context, a *app) error {
					return a.delete(ctx, id)
				})
			},
		},
		&cobra.Command{
			Use:   "auth",
			Short: "Authorize YouTube Data API access with the device flow",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return youtube.Authorize(cmd.Context(), &c.cfg.YouTube, cmd.OutOrStdout())
			},
		},
	)

	return root
}
