package browser

import (
	"fmt"
	"io"

	"github.com/playwright-community/playwright-go"

	"github.com/sentrahq/sentra/pkg/config"
	"github.com/sentrahq/sentra/pkg/logging"
)

// Driver owns the browser process connection: it launches a fresh
// browser, attaches to a running one over the DevTools protocol, or opens
// a persistent context against an existing profile, then hands out the
// context and initial page everything else runs against.
type Driver struct {
	log        *logging.Logger
	pw         *playwright.Playwright
	browser    playwright.Browser
	context    playwright.BrowserContext
	page       playwright.Page
	persistent bool
}

// NewDriver starts the driver per the browser configuration.
func NewDriver(cfg *config.Config) (*Driver, error) {
	log, _ := logging.NewLogger("driver")

	runOpts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}
	if err := playwright.Install(runOpts); err != nil {
		return nil, fmt.Errorf("failed to install playwright: %w", err)
	}
	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	d := &Driver{log: log, pw: pw}
	if err := d.connect(cfg); err != nil {
		_ = pw.Stop()
		return nil, err
	}
	return d, nil
}

// connect establishes the browser context using whichever of the three
// connection modes the config selects.
func (d *Driver) connect(cfg *config.Config) error {
	browserType := d.browserType(cfg.Browser.Engine)
	viewport := &playwright.Size{
		Width:  cfg.Browser.ViewportWidth,
		Height: cfg.Browser.ViewportHeight,
	}

	switch {
	case cfg.Browser.CDPEndpoint != "":
		d.log.Infof("Connecting over CDP to %s", cfg.Browser.CDPEndpoint)
		browser, err := browserType.ConnectOverCDP(cfg.Browser.CDPEndpoint)
		if err != nil {
			return fmt.Errorf("CDP connect failed: %w", err)
		}
		d.browser = browser

		// An attached browser usually brings its own context and pages.
		contexts := browser.Contexts()
		if len(contexts) > 0 {
			d.context = contexts[0]
		} else {
			context, err := browser.NewContext(playwright.BrowserNewContextOptions{Viewport: viewport})
			if err != nil {
				return fmt.Errorf("failed to create context: %w", err)
			}
			d.context = context
		}

	case cfg.Browser.ProfileDir != "":
		d.log.Infof("Launching persistent context at %s", cfg.Browser.ProfileDir)
		opts := playwright.BrowserTypeLaunchPersistentContextOptions{
			Headless: playwright.Bool(cfg.Browser.Headless),
			Viewport: viewport,
		}
		if cfg.Browser.ExecutablePath != "" {
			opts.ExecutablePath = playwright.String(cfg.Browser.ExecutablePath)
		}
		if cfg.Browser.SlowMo > 0 {
			opts.SlowMo = playwright.Float(float64(cfg.Browser.SlowMo.Milliseconds()))
		}
		if cfg.Browser.UserAgent != "" {
			opts.UserAgent = playwright.String(cfg.Browser.UserAgent)
		}
		context, err := browserType.LaunchPersistentContext(cfg.Browser.ProfileDir, opts)
		if err != nil {
			return fmt.Errorf("persistent launch failed: %w", err)
		}
		d.context = context
		d.persistent = true

	default:
		opts := playwright.BrowserTypeLaunchOptions{
			Headless: playwright.Bool(cfg.Browser.Headless),
		}
		if cfg.Browser.ExecutablePath != "" {
			opts.ExecutablePath = playwright.String(cfg.Browser.ExecutablePath)
		}
		if cfg.Browser.SlowMo > 0 {
			opts.SlowMo = playwright.Float(float64(cfg.Browser.SlowMo.Milliseconds()))
		}
		browser, err := browserType.Launch(opts)
		if err != nil {
			return fmt.Errorf("browser launch failed: %w", err)
		}
		d.browser = browser

		contextOpts := playwright.BrowserNewContextOptions{Viewport: viewport}
		if cfg.Browser.UserAgent != "" {
			contextOpts.UserAgent = playwright.String(cfg.Browser.UserAgent)
		}
		context, err := browser.NewContext(contextOpts)
		if err != nil {
			browser.Close()
			return fmt.Errorf("failed to create context: %w", err)
		}
		d.context = context
	}

	// Reuse an existing page when the context has one, otherwise open the
	// first.
	pages := d.context.Pages()
	if len(pages) > 0 {
		d.page = pages[0]
	} else {
		page, err := d.context.NewPage()
		if err != nil {
			return fmt.Errorf("failed to create page: %w", err)
		}
		d.page = page
	}

	d.page.SetDefaultTimeout(float64(cfg.Browser.ActionTimeout.Milliseconds()))
	return nil
}

func (d *Driver) browserType(engine string) playwright.BrowserType {
	switch engine {
	case "firefox":
		return d.pw.Firefox
	case "webkit":
		return d.pw.WebKit
	default:
		return d.pw.Chromium
	}
}

// Context returns the browser context the core runs against.
func (d *Driver) Context() playwright.BrowserContext {
	return d.context
}

// Page returns the initial page.
func (d *Driver) Page() playwright.Page {
	return d.page
}

// Close tears the session down. Errors from already-closed targets are
// absorbed.
func (d *Driver) Close() error {
	if d.context != nil {
		if err := d.context.Close(); err != nil {
			d.log.Warnf("Context close: %v", err)
		}
	}
	if d.browser != nil && !d.persistent {
		if err := d.browser.Close(); err != nil {
			d.log.Warnf("Browser close: %v", err)
		}
	}
	if d.pw != nil {
		if err := d.pw.Stop(); err != nil {
			return fmt.Errorf("failed to stop playwright: %w", err)
		}
	}
	return nil
}
