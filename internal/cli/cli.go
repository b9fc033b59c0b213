package cli

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowboard/pkg/actions"
	"github.com/matzehuels/flowboard/pkg/backend"
	"github.com/matzehuels/flowboard/pkg/board"
	"github.com/matzehuels/flowboard/pkg/buildinfo"
	"github.com/matzehuels/flowboard/pkg/config"
	"github.com/matzehuels/flowboard/pkg/persist"
	"github.com/matzehuels/flowboard/pkg/registry"
	"github.com/matzehuels/flowboard/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "flowboard"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	verbose    bool
	configPath string
	boardName  string
	storeName  string
	cfg        *config.Config

	// stdin is read by import and mcp. Tests replace it.
	stdin io.Reader
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		stdin:  os.Stdin,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	buildinfo.Resolve()
	root := &cobra.Command{
		Use:               appName,
		Short:             "Flowboard is a freeform board of modules and links",
		Long:              `Flowboard keeps a board of modules (notes, cards, stickers, photos) and the links between them, arranges it, saves it, and hands it to a processing backend whose streamed output lands back on the board.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error { return c.loadConfig() },
	}
	root.SetVersionTemplate(buildinfo.Template())

	pf := root.PersistentFlags()
	pf.BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	pf.StringVar(&c.configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	pf.StringVar(&c.boardName, "board", "", "board name (namespaces the store keys)")
	pf.StringVar(&c.storeName, "store", "", "store backend: "+strings.Join(store.Backends(), ", "))

	root.AddCommand(c.showCommand())
	root.AddCommand(c.defsCommand())
	root.AddCommand(c.addCommand())
	root.AddCommand(c.rmCommand())
	root.AddCommand(c.frontCommand())
	root.AddCommand(c.moveCommand())
	root.AddCommand(c.enableCommand(true))
	root.AddCommand(c.enableCommand(false))
	root.AddCommand(c.setCommand())
	root.AddCommand(c.linkCommand())
	root.AddCommand(c.unlinkCommand())
	root.AddCommand(c.arrangeCommand())
	root.AddCommand(c.templateCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.importCommand())
	root.AddCommand(c.clearCommand())
	root.AddCommand(c.resetCommand())
	root.AddCommand(c.restoreCommand())
	root.AddCommand(c.summarizeCommand())
	root.AddCommand(c.processCommand())
	root.AddCommand(c.streamsCommand())
	root.AddCommand(c.imageCommand())
	root.AddCommand(c.tuiCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.mcpCommand())
	root.AddCommand(c.storeCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Configuration
// =============================================================================

// loadConfig reads the config file and environment, then applies the
// persistent flags on top.
func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.boardName != "" {
		cfg.Board.Name = c.boardName
	}
	if c.storeName != "" {
		cfg.Store.Backend = c.storeName
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	switch {
	case c.verbose:
		c.SetLogLevel(LogDebug)
	case cfg.Log.Level != "":
		if lvl, err := log.ParseLevel(cfg.Log.Level); err == nil {
			c.SetLogLevel(lvl)
		}
	}
	c.cfg = cfg
	return nil
}

// config returns the loaded configuration, or the defaults when the root
// pre-run did not run (as in tests calling commands directly).
func (c *CLI) config() *config.Config {
	if c.cfg == nil {
		c.cfg = config.DefaultConfig()
	}
	return c.cfg
}

// =============================================================================
// Board Sessions
// =============================================================================

// session is one opened board: the store it persists to and the actions
// running against it.
type session struct {
	board *actions.Board
	store store.Store
	layer *persist.Layer
}

// openStore opens the configured store and a persistence layer for the
// configured board.
func (c *CLI) openStore(ctx context.Context) (store.Store, *persist.Layer, error) {
	cfg := c.config()
	st, err := store.Open(ctx, cfg.StoreOptions())
	if err != nil {
		return nil, nil, err
	}
	return st, persist.New(st, store.NewKeys(cfg.Board.Name), c.Logger), nil
}

// openBoard opens the store, restores the board (or loads the defaults)
// and wires the backend client.
func (c *CLI) openBoard(ctx context.Context) (*session, error) {
	cfg := c.config()
	st, layer, err := c.openStore(ctx)
	if err != nil {
		return nil, err
	}

	opts := cfg.BackendOptions()
	opts.Logger = c.Logger
	client, err := backend.New(opts)
	if err != nil {
		st.Close()
		return nil, err
	}

	m := board.NewModel(registry.Builtins())
	b := actions.New(m, actions.Options{
		Viewport:        cfg.Viewport(),
		Persist:         layer,
		Backend:         client,
		ArrangeDuration: cfg.Arrange.Duration.Duration(),
		ClearDuration:   cfg.Arrange.ClearDuration.Duration(),
		Logger:          c.Logger,
	})
	if _, err := b.Startup(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return &session{board: b, store: st, layer: layer}, nil
}

// close flushes the board and releases the store.
func (s *session) close(ctx context.Context) error {
	// Flush even when ctx was cancelled so an interrupted command still
	// leaves its changes on disk.
	err := s.board.Close(context.WithoutCancel(ctx))
	if cerr := s.store.Close(); err == nil {
		err = cerr
	}
	return err
}

// withBoard opens the board, runs fn and flushes afterwards.
func (c *CLI) withBoard(ctx context.Context, fn func(ctx context.Context, b *actions.Board) error) error {
	s, err := c.openBoard(ctx)
	if err != nil {
		return err
	}
	runErr := fn(ctx, s.board)
	if err := s.close(ctx); err != nil {
		c.Logger.Warn("could not save board", "err", err)
		if runErr == nil {
			runErr = err
		}
	}
	return runErr
}
