package terminal

import (
	"context"
	"fmt"
	"io"
	"os"

	"page_factory/application/pagefactory"
	"page_factory/domain/entities"
	"page_factory/domain/interfaces"
	"page_factory/infrastructure/browser"
	"page_factory/infrastructure/config"
	"page_factory/infrastructure/storage"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// SessionOpener starts a browser session; browser.Open in production
type SessionOpener func(opts browser.Options, logger *logrus.Logger) (interfaces.Session, error)

type TerminalInterface struct {
	cfg    *config.Config
	logger *logrus.Logger
	fs     afero.Fs
	out    io.Writer
	open   SessionOpener

	factory *pagefactory.Factory
}

var (
	okColor    = color.New(color.FgGreen)
	errColor   = color.New(color.FgRed)
	fieldColor = color.New(color.FgCyan, color.Bold)
)

// NewTerminalInterface - loads the configuration and wires the command line tool
func NewTerminalInterface() (*TerminalInterface, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return newTerminal(cfg, afero.NewOsFs(), os.Stdout, browser.Open), nil
}

func newTerminal(cfg *config.Config, fs afero.Fs, out io.Writer, open SessionOpener) *TerminalInterface {
	logger := cfg.Logger()
	logger.SetOutput(os.Stderr)
	return &TerminalInterface{
		cfg:     cfg,
		logger:  logger,
		fs:      fs,
		out:     out,
		open:    open,
		factory: pagefactory.New(pagefactory.WithLogger(logger)),
	}
}

// Run - executes the command line given in args
func (t *TerminalInterface) Run(args []string) error {
	root := t.rootCommand()
	root.SetArgs(args)
	root.SetOut(t.out)
	return root.ExecuteContext(context.Background())
}

func (t *TerminalInterface) Close() error {
	return nil
}

func (t *TerminalInterface) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "pagefactory",
		Short: "pagefactory - resolve page object fields against a browser",
		Long: `pagefactory resolves element locators the way page objects do.

Quick start:
  pagefactory locate https://example.com --find "tag name=a" --list
  pagefactory locate page.html --find "id=parent" --find "id=child" --sequence
  pagefactory validate pages.yaml
  pagefactory page pages.yaml Login https://example.com/login

The browser backend comes from PAGEFACTORY_BACKEND (selenium, playwright, document).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(t.locateCommand(), t.pageCommand(), t.validateCommand())
	return root
}

func (t *TerminalInterface) locateCommand() *cobra.Command {
	var (
		finds    []string
		sequence bool
		all      bool
		list     bool
		cache    bool
	)
	cmd := &cobra.Command{
		Use:   "locate <url>",
		Short: "Resolve one field declaration on a page",
		Long: `Resolve one field declaration on a page.

Each --find adds a locator in how=using form; earlier locators have higher priority.
The selector is taken verbatim, so it may contain ";".

Examples:
  pagefactory locate page.html --find "id=missing" --find "name=fallback"
  pagefactory locate page.html --find "id=parent" --find "id=child" --sequence
  pagefactory locate page.html --find "css selector=.odd" --find "css selector=.even" --all --list`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			locators := make([]entities.Locator, 0, len(finds))
			for i, f := range finds {
				loc, err := entities.ParseLocator(f)
				if err != nil {
					return err
				}
				loc.Priority = i
				locators = append(locators, loc)
			}

			var (
				element interfaces.Element
				items   *pagefactory.ElementList
				binding *pagefactory.FieldBinding
			)
			if list {
				binding = pagefactory.ListField(&items, locators...)
			} else {
				binding = pagefactory.ElementField(&element, locators...)
			}
			binding = binding.Named("locate")
			if sequence {
				binding = binding.Sequence()
			}
			if all {
				binding = binding.All()
			}
			if cache {
				binding = binding.CacheLookup()
			}

			return t.withSession(cmd.Context(), args[0], func(ctx context.Context, session interfaces.Session) error {
				if err := t.factory.Bind(session, binding); err != nil {
					return err
				}
				if list {
					summaries, err := pagefactory.DescribeList(ctx, "locate", items)
					if err != nil {
						return err
					}
					t.printList("locate", summaries)
					return nil
				}
				summary, err := pagefactory.Describe(ctx, "locate", 0, element)
				if err != nil {
					return err
				}
				t.printSummary(summary)
				return nil
			})
		},
	}
	cmd.Flags().StringArrayVarP(&finds, "find", "f", nil, "Locator in how=using form (repeatable)")
	cmd.Flags().BoolVar(&sequence, "sequence", false, "Search each locator inside the matches of the previous one")
	cmd.Flags().BoolVar(&all, "all", false, "Union of all locators")
	cmd.Flags().BoolVar(&list, "list", false, "Resolve every match instead of the first")
	cmd.Flags().BoolVar(&cache, "cache", false, "Keep the first resolution")
	_ = cmd.MarkFlagRequired("find")
	return cmd
}

func (t *TerminalInterface) pageCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "page <catalog> <page> [url]",
		Short: "Resolve every field of a catalog page",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			defs, specs, err := t.loadCatalog(args[0])
			if err != nil {
				return err
			}
			def, ok := defs[args[1]]
			if !ok {
				return fmt.Errorf("page %q not found in %s", args[1], args[0])
			}

			url := ""
			for _, spec := range specs {
				if spec.Name == def.Name {
					url = spec.URL
				}
			}
			if len(args) == 3 {
				url = args[2]
			}
			if url == "" {
				return fmt.Errorf("page %q has no url, pass one on the command line", def.Name)
			}

			return t.withSession(cmd.Context(), url, func(ctx context.Context, session interfaces.Session) error {
				page := t.factory.BindDefinition(session, def)
				for _, name := range page.Names() {
					if el, ok := page.Element(name); ok {
						summary, err := pagefactory.Describe(ctx, name, 0, el)
						if err != nil {
							t.printFailure(name, err)
							continue
						}
						t.printSummary(summary)
						continue
					}
					list, _ := page.List(name)
					summaries, err := pagefactory.DescribeList(ctx, name, list)
					if err != nil {
						t.printFailure(name, err)
						continue
					}
					t.printList(name, summaries)
				}
				return nil
			})
		},
	}
}

func (t *TerminalInterface) validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <catalog>",
		Short: "Check every page declaration of a catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defs, specs, err := t.loadCatalog(args[0])
			if err != nil {
				errColor.Fprintf(t.out, "✗ %v\n", err)
				return err
			}
			for _, spec := range specs {
				def := defs[spec.Name]
				okColor.Fprintf(t.out, "✓ %s", def.Name)
				fmt.Fprintf(t.out, " (%d fields)\n", len(def.Fields))
			}
			return nil
		},
	}
}

func (t *TerminalInterface) loadCatalog(path string) (map[string]*pagefactory.PageDefinition, []entities.PageSpec, error) {
	if _, err := t.fs.Stat(path); err != nil {
		return nil, nil, fmt.Errorf("page catalog: %w", err)
	}
	return pagefactory.LoadDefinitions(storage.NewPageCatalog(t.fs, path))
}

// withSession opens a session, loads url and runs fn; the session is always closed
func (t *TerminalInterface) withSession(ctx context.Context, url string, fn func(context.Context, interfaces.Session) error) error {
	session, err := t.open(t.cfg.BrowserOptions(), t.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize browser: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			t.logger.Warnf("Failed to close browser: %v", err)
		}
	}()

	if err := session.Navigate(ctx, url); err != nil {
		return fmt.Errorf("failed to open %s: %w", url, err)
	}
	return fn(ctx, session)
}

func (t *TerminalInterface) printSummary(s entities.ElementSummary) {
	fieldColor.Fprintf(t.out, "%s", s.Field)
	fmt.Fprintf(t.out, " <%s>", s.TagName)
	if !s.IsVisible {
		fmt.Fprint(t.out, " (hidden)")
	}
	if s.Location != nil {
		fmt.Fprintf(t.out, " at %s", s.Location)
	}
	if s.Text != "" {
		fmt.Fprintf(t.out, " %q", s.Text)
	}
	fmt.Fprintln(t.out)
}

func (t *TerminalInterface) printList(field string, summaries []entities.ElementSummary) {
	fieldColor.Fprintf(t.out, "%s", field)
	fmt.Fprintf(t.out, ": %d elements\n", len(summaries))
	for _, s := range summaries {
		fmt.Fprintf(t.out, "  [%d] <%s>", s.Index, s.TagName)
		if s.Text != "" {
			fmt.Fprintf(t.out, " %q", s.Text)
		}
		fmt.Fprintln(t.out)
	}
}

func (t *TerminalInterface) printFailure(field string, err error) {
	fieldColor.Fprintf(t.out, "%s", field)
	errColor.Fprintf(t.out, " ✗ %v\n", err)
}
