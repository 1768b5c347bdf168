// Command picnd runs one ICN forwarding node: link-layer faces, the
// Content Store / PIT / FIB forwarding engine, the aging task, the
// management surface, and (if configured) the built-in repository
// application.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/picn-go/picn/internal/config"
	"github.com/picn-go/picn/internal/daemon"
	"github.com/picn-go/picn/internal/log"
	"github.com/spf13/cobra"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:     "picnd [CONFIG-FILE]",
	Short:   "ICN forwarding node",
	Version: "0.1.0",
	Args:    cobra.MaximumNArgs(1),
	RunE:    run,
}

func init() {
	rootCmd.Flags().StringVar(&configFile, "config", "", "path to a YAML config file")
}

func run(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	path := configFile
	if path == "" && len(args) > 0 {
		path = args[0]
	}
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	d, err := daemon.New(cfg)
	if err != nil {
		return fmt.Errorf("assembling daemon: %w", err)
	}
	if err := d.Start(); err != nil {
		return fmt.Errorf("starting daemon: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh
	log.Info(d, "Received signal, shutting down", "signal", sig)

	d.Stop()
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
