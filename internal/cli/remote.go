package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowboard/pkg/actions"
	"github.com/matzehuels/flowboard/pkg/errors"
)

// =============================================================================
// Summarize / Process
// =============================================================================

func (c *CLI) summarizeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "summarize",
		Short: "Send the board to the backend and keep the returned graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withBoard(cmd.Context(), func(ctx context.Context, b *actions.Board) error {
				spin := newSpinnerWithContext(ctx, "Summarizing board...")
				spin.Start()
				sum, err := b.Summarize(ctx)
				if err != nil {
					spin.StopWithError("Summarize failed")
					return err
				}
				spin.StopWithSuccess(fmt.Sprintf("Summarized: %d nodes, %d edges", sum.Nodes, sum.Edges))
				if sum.Status != "" {
					printKeyValue("Status", sum.Status)
				}
				return nil
			})
		},
	}
}

func (c *CLI) processCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "process",
		Short: "Run the board's graph and collect the streamed output",
		Long: `Run the board's graph on the backend.

The board is summarized first when no graph is remembered. Every stream is
cleared, then the backend's output is appended to the instances it names.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withBoard(cmd.Context(), func(ctx context.Context, b *actions.Board) error {
				prog := newProgress(c.Logger)
				spin := newSpinnerWithContext(ctx, "Processing...")
				spin.Start()
				stats, err := b.Process(ctx)
				if err != nil {
					spin.StopWithError("Process failed")
					return err
				}
				spin.Stop()
				prog.done(fmt.Sprintf("Processed %d frames for %d instances", stats.Frames, len(stats.Nodes)))
				for _, e := range stats.Errors {
					printWarning("%s", e)
				}
				if len(stats.Nodes) > 0 {
					printNextStep("Read the output", appName+" streams")
				}
				return nil
			})
		},
	}
}

func (c *CLI) streamsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "streams [id]",
		Short: "Print the streamed output of one or all instances",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withBoard(cmd.Context(), func(_ context.Context, b *actions.Board) error {
				out := cmd.OutOrStdout()
				streams := b.Model().Streams()
				if len(args) == 1 {
					text, ok := streams.Get(args[0])
					if !ok {
						return errors.New(errors.ErrCodeNotFound, "no stream for %q", args[0])
					}
					fmt.Fprintln(out, text)
					return nil
				}
				ids := streams.IDs()
				if len(ids) == 0 {
					printInfo("No streams yet")
					return nil
				}
				for _, id := range ids {
					text, _ := streams.Get(id)
					fmt.Fprintln(out, styleHeader.Render(id))
					fmt.Fprintln(out, strings.TrimRight(text, "\n"))
					fmt.Fprintln(out)
				}
				return nil
			})
		},
	}
}

// =============================================================================
// Images
// =============================================================================

func (c *CLI) imageCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "image",
		Short: "Attach images to photo instances",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "upload <id> <file>",
		Short: "Upload a local image file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[1])
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidInput, err, "open %s", args[1])
			}
			defer f.Close()
			return c.withBoard(cmd.Context(), func(ctx context.Context, b *actions.Board) error {
				att, err := b.UploadImage(ctx, args[0], filepath.Base(args[1]), f)
				if err != nil {
					return err
				}
				reportAttachment(args[0], att)
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "url <id> <url>",
		Short: "Import an image from a URL",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withBoard(cmd.Context(), func(ctx context.Context, b *actions.Board) error {
				att, err := b.ImportImageURL(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				reportAttachment(args[0], att)
				return nil
			})
		},
	})
	return cmd
}

func reportAttachment(id string, att actions.Attachment) {
	if att.Local {
		printWarning("backend unavailable, %s keeps a local image only", id)
		if att.Cause != nil {
			printDetail("%s", errors.UserMessage(att.Cause))
		}
		return
	}
	printSuccess("Attached image %s to %s", att.Image.ID, id)
	printDetail("%s", att.Image.URL)
}
