package browser

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/chrome"
)

const defaultDriverPort = 9515

// seleniumController owns the chromedriver process and the remote WebDriver session
type seleniumController struct {
	wd      selenium.WebDriver
	service *selenium.Service
	logger  *logrus.Logger
}

// findChromeDriver - finds ChromeDriver executable path
func findChromeDriver(configured string) (string, error) {
	if configured != "" {
		if _, err := os.Stat(configured); err == nil {
			return configured, nil
		}
	}

	commonPaths := []string{
		"/usr/local/bin/chromedriver",
		"/usr/bin/chromedriver",
		"/opt/homebrew/bin/chromedriver",
		filepath.Join(os.Getenv("HOME"), "bin", "chromedriver"),
	}
	for _, path := range commonPaths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	if path, err := exec.LookPath("chromedriver"); err == nil {
		return path, nil
	}

	return "", fmt.Errorf("chromedriver not found. Please install it or set PAGEFACTORY_BROWSER_DRIVER_PATH")
}

// findChromeBinary - finds Chrome/Chromium browser executable path
func findChromeBinary(configured string) string {
	if configured != "" {
		if _, err := os.Stat(configured); err == nil {
			return configured
		}
	}

	chromePaths := []string{
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
		"/Applications/Chromium.app/Contents/MacOS/Chromium",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium",
		"/usr/bin/chromium-browser",
		`C:\Program Files\Google\Chrome\Application\chrome.exe`,
		`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
	}
	for _, path := range chromePaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	for _, name := range []string{"google-chrome", "chromium", "chromium-browser"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	return ""
}

// startSelenium - starts chromedriver and opens a Chrome session through it
func startSelenium(opts Options, logger *logrus.Logger) (*seleniumController, error) {
	driverPath, err := findChromeDriver(opts.DriverPath)
	if err != nil {
		return nil, fmt.Errorf("failed to find chromedriver: %w", err)
	}
	logger.Infof("Using ChromeDriver at: %s", driverPath)

	chromeBinary := findChromeBinary(opts.ChromeBinary)
	if chromeBinary != "" {
		logger.Infof("Using Chrome binary at: %s", chromeBinary)
	}

	port := opts.DriverPort
	if port == 0 {
		port = defaultDriverPort
	}
	service, err := selenium.NewChromeDriverService(driverPath, port)
	if err != nil {
		return nil, fmt.Errorf("failed to start chromedriver: %w", err)
	}

	args := []string{
		"--disable-blink-features=AutomationControlled",
		"--disable-dev-shm-usage",
		"--no-sandbox",
	}
	if opts.Headless {
		args = append(args, "--headless=new")
	}
	chromeCaps := chrome.Capabilities{Args: args}
	if chromeBinary != "" {
		chromeCaps.Path = chromeBinary
	}
	caps := selenium.Capabilities{"browserName": "chrome"}
	caps.AddChrome(chromeCaps)

	wd, err := selenium.NewRemote(caps, fmt.Sprintf("http://localhost:%d/wd/hub", port))
	if err != nil {
		service.Stop()
		if strings.Contains(err.Error(), "cannot find Chrome binary") {
			return nil, fmt.Errorf("failed to create webdriver: Chrome browser not found. Please install Google Chrome or set PAGEFACTORY_CHROME_BINARY_PATH. Error: %w", err)
		}
		return nil, fmt.Errorf("failed to create webdriver: %w", err)
	}

	if opts.ImplicitWait > 0 {
		if err := wd.SetImplicitWaitTimeout(opts.ImplicitWait); err != nil {
			logger.Warnf("Failed to set implicit wait: %v", err)
		}
	}

	return &seleniumController{wd: wd, service: service, logger: logger}, nil
}

// stop - quits the browser and stops ChromeDriver
func (c *seleniumController) stop() error {
	var quitErr error
	if c.wd != nil {
		quitErr = c.wd.Quit()
		c.wd = nil
	}
	if c.service != nil {
		if err := c.service.Stop(); err != nil && quitErr == nil {
			quitErr = fmt.Errorf("failed to stop chromedriver: %w", err)
		}
		c.service = nil
	}
	return quitErr
}
