package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowboard/pkg/config"
	"github.com/matzehuels/flowboard/pkg/store"
)

func (c *CLI) storeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Inspect or wipe the saved board",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show where the board is saved",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, kv := range describeStore(c.config()) {
				printKeyValue(kv[0], kv[1])
			}
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete every saved key of the board",
		Long: `Delete every saved key of the board, templates included.

Unlike clear this does not load the board and leaves uploaded images alone.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, layer, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()
			defer layer.Close()
			if err := layer.Clear(cmd.Context()); err != nil {
				return err
			}
			printSuccess("Removed %d keys of board %s", len(layer.Keys().All()), c.config().Board.Name)
			return nil
		},
	})
	return cmd
}

// describeStore lists the backend, its location and the board's keys.
func describeStore(cfg *config.Config) [][2]string {
	opts := cfg.StoreOptions()
	backend := strings.ToLower(opts.Backend)
	if backend == "" {
		backend = store.BackendFile
	}
	out := [][2]string{{"Board", cfg.Board.Name}, {"Backend", backend}}
	switch backend {
	case store.BackendFile:
		out = append(out, [2]string{"Directory", opts.Dir})
	case store.BackendRedis:
		out = append(out, [2]string{"Address", fmt.Sprintf("%s/%d", opts.Redis.Addr, opts.Redis.DB)})
	case store.BackendMongo:
		out = append(out, [2]string{"URI", opts.Mongo.URI}, [2]string{"Collection", opts.Mongo.Database + "." + opts.Mongo.Collection})
	case store.BackendMemory, store.BackendNone:
		out = append(out, [2]string{"Location", "not saved between runs"})
	}
	return append(out, [2]string{"Keys", strings.Join(store.NewKeys(cfg.Board.Name).All(), ", ")})
}
