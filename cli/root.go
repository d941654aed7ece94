// Package cli is the droidkit command line: a server mode and one command per
// device capability.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pavi2410/droidkit/config"
)

var (
	cfgPath string
	jsonOut bool
	verbose bool
	rootCmd *cobra.Command

	// Set by PersistentPreRunE.
	cfg    *config.Config
	logger *zap.Logger
)

func init() {
	rootCmd = &cobra.Command{
		Use:   "droidkit",
		Short: "Talk to Android devices over USB and Wi-Fi",
		Long: `droidkit connects to Android devices through the host adb tool, pairs
wireless debugging devices, and reports what it finds on them.

Common workflows:
  droidkit devices                         List attached devices
  droidkit discover                        Find devices advertising wireless debugging
  droidkit pair 192.168.1.20 41877 123456  Pair with a code and connect
  droidkit sysinfo 192.168.1.20:5555       Full system report
  droidkit serve                           Run the HTTP and WebSocket API`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v, err := config.LoadViper(cfgPath)
			if err != nil {
				return err
			}
			if verbose {
				v.Set("logging.level", "debug")
			}
			c, err := config.Decode(v)
			if err != nil {
				return err
			}
			l, err := config.NewLogger(v)
			if err != nil {
				return err
			}
			cfg, logger = c, l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "Config file (default ./droidkit.yaml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log adb commands")
}

func Execute(ctx context.Context, version string) error {
	rootCmd.Version = version

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(devicesCmd())
	rootCmd.AddCommand(connectCmd())
	rootCmd.AddCommand(disconnectCmd())
	rootCmd.AddCommand(discoverCmd())
	rootCmd.AddCommand(pairCmd())
	rootCmd.AddCommand(pairedCmd())
	rootCmd.AddCommand(forgetCmd())
	rootCmd.AddCommand(infoCmd())
	rootCmd.AddCommand(lsCmd())
	rootCmd.AddCommand(pullCmd())
	rootCmd.AddCommand(shellCmd())
	rootCmd.AddCommand(sysinfoCmd())
	rootCmd.AddCommand(packagesCmd())
	rootCmd.AddCommand(logcatCmd())

	return rootCmd.ExecuteContext(ctx)
}

// output renders v as JSON in --json mode, otherwise through human.
func output(r *Renderer, v any, human func()) error {
	if jsonOut {
		return r.JSON(v)
	}
	human()
	return nil
}

func requireConfig() error {
	if cfg == nil || logger == nil {
		return fmt.Errorf("configuration not loaded")
	}
	return nil
}
