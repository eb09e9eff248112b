package browser

import (
	"fmt"
	"strings"

	"github.com/playwright-community/playwright-go"
	"github.com/sirupsen/logrus"
)

// playwrightController owns the Playwright driver process, the browser and its one page
type playwrightController struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
}

// launchPlaywright - starts Playwright and opens a Chromium page
func launchPlaywright(opts Options, logger *logrus.Logger) (*playwrightController, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	launch := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--no-sandbox",
		},
	}
	if opts.ChromeBinary != "" {
		launch.ExecutablePath = playwright.String(opts.ChromeBinary)
	}
	browser, err := pw.Chromium.Launch(launch)
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	logger.Infof("Launched %s %s", browser.BrowserType().Name(), browser.Version())

	context, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  1280,
			Height: 720,
		},
		JavaScriptEnabled: playwright.Bool(true),
		IgnoreHttpsErrors: playwright.Bool(true),
	})
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	page, err := context.NewPage()
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	page.OnDialog(func(dialog playwright.Dialog) {
		_ = dialog.Accept()
	})

	return &playwrightController{pw: pw, browser: browser, context: context, page: page}, nil
}

// close - closes the context and the browser, then stops the driver
func (c *playwrightController) close() error {
	var closeErr error

	if c.context != nil {
		if err := c.context.Close(); err != nil && !isClosedError(err) {
			closeErr = fmt.Errorf("failed to close context: %w", err)
		}
		c.context = nil
	}

	if c.browser != nil {
		if err := c.browser.Close(); err != nil && !isClosedError(err) {
			if closeErr != nil {
				closeErr = fmt.Errorf("%v; failed to close browser: %w", closeErr, err)
			} else {
				closeErr = fmt.Errorf("failed to close browser: %w", err)
			}
		}
		c.browser = nil
	}

	if c.pw != nil {
		if err := c.pw.Stop(); err != nil && closeErr == nil {
			closeErr = fmt.Errorf("failed to stop playwright: %w", err)
		}
		c.pw = nil
	}
	return closeErr
}

func isClosedError(err error) bool {
	errStr := err.Error()
	return strings.Contains(errStr, "closed") || strings.Contains(errStr, "target closed")
}
