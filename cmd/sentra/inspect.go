package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/sentrahq/sentra/pkg/browser"
	"github.com/sentrahq/sentra/pkg/logging"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	urlStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Underline(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	eventStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
)

func newInspectCmd(flags *rootFlags) *cobra.Command {
	var (
		targetURL string
		watch     bool
	)

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Run a detection pass and print the planner-facing view",
		Long: `Inspect launches (or attaches to) a browser, optionally navigates to a
URL, runs a detection pass, and prints the numbered element list and the
open tabs exactly as a planner would receive them.

With --watch it stays attached and prints every significant page state
change until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			logging.SetDebug(cfg.Logging.Debug)

			driver, err := browser.NewDriver(cfg)
			if err != nil {
				return fmt.Errorf("browser session failed: %w", err)
			}
			defer driver.Close()

			controller := browser.NewController(driver.Context(), cfg)
			if err := controller.Start(driver.Page()); err != nil {
				return err
			}
			defer controller.Stop()

			if targetURL != "" {
				fmt.Printf("Navigating to %s...\n", urlStyle.Render(targetURL))
				if _, err := controller.Navigate(targetURL); err != nil {
					return err
				}
				if _, err := controller.Detect(true); err != nil {
					return err
				}
			}

			printView(controller)

			if !watch {
				return nil
			}
			return watchChanges(cmd, controller)
		},
	}

	cmd.Flags().StringVar(&targetURL, "url", "", "Navigate to this URL before inspecting")
	cmd.Flags().BoolVar(&watch, "watch", false, "Keep running and print significant page state changes")
	return cmd
}

// printView renders the detection result the way a planner consumes it.
func printView(controller *browser.Controller) {
	state := controller.State()
	snapshot := controller.Snapshot()

	fmt.Println()
	fmt.Println(headerStyle.Render("Page"))
	fmt.Printf("  %s\n", urlStyle.Render(state.URL))
	fmt.Printf("  %s %s\n", state.Title, dimStyle.Render(fmt.Sprintf("(%d elements, %d interactive)",
		state.ElementCount, state.InteractiveElementCount)))

	fmt.Println()
	fmt.Println(headerStyle.Render("Interactive elements"))
	fmt.Println(browser.FormatElements(snapshot))

	fmt.Println()
	fmt.Println(headerStyle.Render("Tabs"))
	activeID := ""
	if active := controller.ActiveTab(); active != nil {
		activeID = active.ID
	}
	fmt.Println(browser.FormatTabs(controller.Tabs(), activeID))
	fmt.Println()
}

// watchChanges subscribes to the state monitor and prints every
// significant change until the command context is cancelled.
func watchChanges(cmd *cobra.Command, controller *browser.Controller) error {
	fmt.Println(dimStyle.Render("Watching for page changes (Ctrl-C to stop)..."))

	id := controller.Monitor().OnChange(func(old, new browser.PageState, event browser.StateEvent) {
		stamp := new.Timestamp.Format("15:04:05")
		switch event {
		case browser.EventNavigation:
			fmt.Printf("%s %s %s -> %s\n", dimStyle.Render(stamp),
				eventStyle.Render(string(event)), old.URL, urlStyle.Render(new.URL))
		default:
			fmt.Printf("%s %s %s\n", dimStyle.Render(stamp),
				eventStyle.Render(string(event)), new.URL)
		}
	})
	defer controller.Monitor().RemoveListener(id)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-cmd.Context().Done():
			return nil
		case <-ticker.C:
		}
	}
}
