package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowboard/pkg/actions"
	"github.com/matzehuels/flowboard/pkg/mcp"
	"github.com/matzehuels/flowboard/pkg/server"
)

func (c *CLI) serveCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the board over HTTP with live change events",
		Long: `Serve the board over HTTP.

The JSON API lives under /api/board and board changes are pushed to
websocket clients on /api/board/events. Stop with Ctrl-C; the board is
saved on the way out.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = c.config().Server.Addr
			}
			return c.withBoard(cmd.Context(), func(ctx context.Context, b *actions.Board) error {
				srv := server.New(b, server.Options{Addr: addr, Logger: c.Logger})
				defer srv.Close()
				printInfo("Serving %s on %s", c.config().Board.Name, StyleHighlight.Render(addr))
				return srv.ListenAndServe(ctx)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

func (c *CLI) mcpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Expose the board as MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withBoard(cmd.Context(), func(ctx context.Context, b *actions.Board) error {
				c.Logger.Debug("mcp server ready", "board", c.config().Board.Name)
				return mcp.New(b, mcp.Options{Logger: c.Logger}).Serve(ctx, c.stdin, cmd.OutOrStdout())
			})
		},
	}
}
