package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowboard/pkg/actions"
	"github.com/matzehuels/flowboard/pkg/errors"
)

func (c *CLI) clearCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every instance, link and stream",
		Long: `Remove every instance, link and stream from the board.

Images uploaded for photo instances are deleted from the backend. The
saved board is removed too; templates stay.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withBoard(cmd.Context(), func(ctx context.Context, b *actions.Board) error {
				m := b.Model()
				if !yes {
					return errors.New(errors.ErrCodeInvalidInput, "%s", confirmClear(m.Len(), len(m.Links())))
				}
				if err := b.Clear(ctx); err != nil {
					return err
				}
				printSuccess("Board cleared")
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm clearing the board")
	return cmd
}

// confirmClear formats the refusal shown when clear runs without --yes.
func confirmClear(instances, links int) string {
	return fmt.Sprintf("this deletes %d instances and %d links; rerun with --yes", instances, links)
}

func (c *CLI) resetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Drop the saved board and arrange what is loaded",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withBoard(cmd.Context(), func(ctx context.Context, b *actions.Board) error {
				if err := b.ClearCacheAndArrange(ctx); err != nil {
					return err
				}
				printSuccess("Cache cleared, %d instances arranged", b.Model().Len())
				return nil
			})
		},
	}
}

func (c *CLI) restoreCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "restore",
		Short: "Replace the board with the default instances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withBoard(cmd.Context(), func(ctx context.Context, b *actions.Board) error {
				b.RestoreDefaults(ctx)
				printSuccess("Restored %d default instances", b.Model().Len())
				return nil
			})
		},
	}
}
