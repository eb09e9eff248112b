package browser

import (
	"fmt"
	"path/filepath"
	"time"

	"page_factory/domain/interfaces"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// Backend names accepted by Open
const (
	BackendDocument   = "document"
	BackendSelenium   = "selenium"
	BackendPlaywright = "playwright"
)

// Options configures the browser backends
type Options struct {
	Backend      string
	DriverPath   string
	ChromeBinary string
	DriverPort   int
	Headless     bool
	ImplicitWait time.Duration

	// PageRoot is the directory the document backend reads pages from
	PageRoot string
}

// Open - starts a session for the configured backend
func Open(opts Options, logger *logrus.Logger) (interfaces.Session, error) {
	switch opts.Backend {
	case BackendDocument, "":
		root := opts.PageRoot
		if root == "" {
			root = "."
		}
		// BasePathFs compares cleaned prefixes, which fails for "." and other relative roots
		root, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("invalid page root: %w", err)
		}
		logger.Infof("Serving pages from: %s", root)
		return NewDocumentSession(afero.NewBasePathFs(afero.NewOsFs(), root), logger), nil
	case BackendSelenium:
		return NewSeleniumSession(opts, logger)
	case BackendPlaywright:
		return NewPlaywrightSession(opts, logger)
	default:
		return nil, fmt.Errorf("unknown browser backend %q", opts.Backend)
	}
}
