package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowboard/pkg/actions"
	"github.com/matzehuels/flowboard/pkg/boardio"
	"github.com/matzehuels/flowboard/pkg/errors"
	"github.com/matzehuels/flowboard/pkg/render/nodelink"
	"github.com/matzehuels/flowboard/pkg/render/snapshot"
)

// Export formats.
const (
	formatJSON = "json"
	formatDOT  = "dot"
	formatSVG  = "svg"
	formatPNG  = "png"
)

var exportFormats = []string{formatJSON, formatDOT, formatSVG, formatPNG}

// clipboardWrite and clipboardRead are replaced in tests.
var (
	clipboardWrite = clipboard.WriteAll
	clipboardRead  = clipboard.ReadAll
)

// =============================================================================
// Export
// =============================================================================

type exportOpts struct {
	format    string
	output    string
	clipboard bool
	detailed  bool
	fit       bool
}

func (c *CLI) exportCommand() *cobra.Command {
	var opts exportOpts
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the board as JSON, DOT, SVG or PNG",
		Long: `Export the board.

json is the document the processing backend consumes and import reads back.
dot and svg draw the link graph; png draws the whole board.`,
		Example: `  flowboard export > board.json
  flowboard export --format png --fit -o board.png
  flowboard export --clipboard`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withBoard(cmd.Context(), func(ctx context.Context, b *actions.Board) error {
				data, err := renderExport(ctx, b, opts)
				if err != nil {
					return err
				}
				return c.writeExport(cmd.OutOrStdout(), data, opts)
			})
		},
	}
	cmd.Flags().StringVarP(&opts.format, "format", "f", formatJSON, "output format: "+strings.Join(exportFormats, ", "))
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write to file instead of stdout")
	cmd.Flags().BoolVar(&opts.clipboard, "clipboard", false, "copy to the clipboard (text formats)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "include payload fields in DOT/SVG labels")
	cmd.Flags().BoolVar(&opts.fit, "fit", false, "size the PNG to the content instead of the viewport")
	return cmd
}

// renderExport produces the export bytes in the requested format.
func renderExport(ctx context.Context, b *actions.Board, opts exportOpts) ([]byte, error) {
	switch opts.format {
	case formatJSON, "":
		return boardio.Marshal(b.Export())
	case formatDOT:
		return []byte(nodelink.ToDOT(b.Export(), nodelink.Options{Detailed: opts.detailed})), nil
	case formatSVG:
		return nodelink.RenderSVG(ctx, nodelink.ToDOT(b.Export(), nodelink.Options{Detailed: opts.detailed}))
	case formatPNG:
		m := b.Model()
		vp := b.Viewport()
		var buf bytes.Buffer
		err := snapshot.WritePNG(&buf, m.Registry(), m.Instances(), m.ValidLinks(), snapshot.Options{
			Width: int(vp.W), Height: int(vp.H), View: m.View(), Fit: opts.fit,
		})
		return buf.Bytes(), err
	}
	return nil, errors.New(errors.ErrCodeInvalidInput, "unknown format %q (want one of %s)", opts.format, strings.Join(exportFormats, ", "))
}

func (c *CLI) writeExport(stdout io.Writer, data []byte, opts exportOpts) error {
	if opts.clipboard {
		if opts.format == formatPNG {
			return errors.New(errors.ErrCodeUnsupported, "png cannot be copied to the clipboard")
		}
		if err := clipboardWrite(string(data)); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "copy to clipboard")
		}
		printSuccess("Copied %s export to the clipboard", opts.format)
		return nil
	}
	if opts.output != "" {
		if err := os.WriteFile(opts.output, data, 0o644); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "write %s", opts.output)
		}
		printSuccess("Exported %s", opts.format)
		printFile(opts.output)
		return nil
	}
	_, err := stdout.Write(data)
	if err == nil && opts.format != formatPNG && !bytes.HasSuffix(data, []byte("\n")) {
		_, err = io.WriteString(stdout, "\n")
	}
	return err
}

// =============================================================================
// Import
// =============================================================================

func (c *CLI) importCommand() *cobra.Command {
	var fromClipboard bool
	cmd := &cobra.Command{
		Use:   "import [file|-]",
		Short: "Replace the board with an exported JSON document",
		Long: `Replace the board with an exported JSON document.

Nodes whose type matches no definition are dropped with their edges. An
import without any usable node leaves an empty board.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := c.readImport(args, fromClipboard)
			if err != nil {
				return err
			}
			return c.withBoard(cmd.Context(), func(ctx context.Context, b *actions.Board) error {
				im, err := b.Import(ctx, data)
				if err != nil {
					return err
				}
				printSuccess("Imported %d instances and %d links", len(im.Instances), len(im.Links))
				for _, id := range im.Dropped {
					printWarning("dropped %s: unknown type", id)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&fromClipboard, "clipboard", false, "read the document from the clipboard")
	return cmd
}

func (c *CLI) readImport(args []string, fromClipboard bool) ([]byte, error) {
	switch {
	case fromClipboard:
		if len(args) > 0 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "use either a file or --clipboard")
		}
		text, err := clipboardRead()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "read clipboard")
		}
		return []byte(text), nil
	case len(args) == 0 || args[0] == "-":
		data, err := io.ReadAll(c.stdin)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read stdin")
		}
		return data, nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", args[0])
	}
	return data, nil
}
