// Package main provides the Sentra CLI, a browser-automation core
// inspector. It launches or attaches to a browser, runs a detection pass,
// and prints the planner-facing element and tab listings.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sentrahq/sentra/pkg/config"
)

const version = "0.1.0"

// rootFlags are shared across subcommands.
type rootFlags struct {
	configPath string
	headless   bool
	debug      bool
	viewport   string
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nShutting down...")
		cancel()
	}()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:     "sentra",
		Short:   "Browser-automation core: index, address and act on live pages",
		Version: version,
		Long: `Sentra drives a real browser and turns live pages into numbered lists of
interactive elements a planner can address. The inspect command runs one
detection pass and prints what a planner would see.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "Path to YAML config file (default: built-in defaults plus SENTRA_* env)")
	root.PersistentFlags().BoolVar(&flags.headless, "headless", true, "Run the browser headless")
	root.PersistentFlags().BoolVar(&flags.debug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flags.viewport, "viewport", "", "Viewport size as WIDTHxHEIGHT, e.g. 1280x800")

	root.AddCommand(newInspectCmd(flags))
	return root
}

// loadConfig builds the effective config from file, environment and flags.
func loadConfig(cmd *cobra.Command, flags *rootFlags) (*config.Config, error) {
	config.LoadDotEnv()

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}

	// Explicit flags beat both file and environment.
	if cmd.Flags().Changed("headless") {
		cfg.Browser.Headless = flags.headless
	}
	if cmd.Flags().Changed("debug") {
		cfg.Logging.Debug = flags.debug
	}
	if flags.viewport != "" {
		width, height, err := parseViewport(flags.viewport)
		if err != nil {
			return nil, err
		}
		cfg.Browser.ViewportWidth = width
		cfg.Browser.ViewportHeight = height
	}
	return cfg, nil
}

// parseViewport splits a WIDTHxHEIGHT flag value.
func parseViewport(s string) (int, int, error) {
	parts := strings.SplitN(s, "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid viewport %q: expected WIDTHxHEIGHT", s)
	}
	width, err := strconv.Atoi(parts[0])
	if err != nil || width <= 0 {
		return 0, 0, fmt.Errorf("invalid viewport width %q", parts[0])
	}
	height, err := strconv.Atoi(parts[1])
	if err != nil || height <= 0 {
		return 0, 0, fmt.Errorf("invalid viewport height %q", parts[1])
	}
	return width, height, nil
}
