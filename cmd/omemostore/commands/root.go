package commands

import (
	"github.com/spf13/cobra"

	"omemostore/internal/app"
)

var (
	configPath string
	cfg        *app.Config
	wire       *app.Wire
)

// Execute runs the CLI with os.Args.
func Execute() error {
	defer closeWire()
	return newRootCmd().Execute()
}

// closeWire wipes the sealing keys. Cobra skips post-run hooks when a command
// fails, so Execute calls it too.
func closeWire() {
	if wire != nil {
		wire.Close()
		wire = nil
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "omemostore",
		Short:        "Inspect and maintain OMEMO key-material stores",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				p, err := app.DefaultConfigPath()
				if err != nil {
					return err
				}
				configPath = p
			}
			loaded, err := app.LoadConfigIfExists(configPath)
			if err != nil {
				return err
			}
			if err := loaded.ApplyFlags(cmd.Flags()); err != nil {
				return err
			}
			cfg = loaded

			// config subcommands work on the file itself.
			if cmd.Parent() != nil && cmd.Parent().Name() == "config" {
				return nil
			}
			w, err := app.NewWire(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			wire = w
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			closeWire()
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/omemostore/config.yaml)")
	app.DefaultConfig().BindFlags(root.PersistentFlags())

	root.AddCommand(
		showCmd(),
		devicesCmd(),
		statsCmd(),
		migrateCmd(),
		removeDeviceCmd(),
		resetCmd(),
		configCmd(),
	)
	return root
}
