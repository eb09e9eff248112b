package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"page_factory/domain/entities"
	"page_factory/domain/interfaces"

	"github.com/playwright-community/playwright-go"
	"github.com/sirupsen/logrus"
)

// identityScript tags each node with a per-page counter kept in a WeakMap
const identityScript = `el => {
	const ids = window.__pageFactoryIds || (window.__pageFactoryIds = new WeakMap());
	if (!ids.has(el)) {
		window.__pageFactoryNext = (window.__pageFactoryNext || 0) + 1;
		ids.set(el, String(window.__pageFactoryNext));
	}
	return ids.get(el);
}`

// PlaywrightSession drives Chromium through Playwright
type PlaywrightSession struct {
	controller   *playwrightController
	frame        playwright.Frame
	implicitWait time.Duration
	logger       *logrus.Logger
}

// NewPlaywrightSession - launches Chromium and opens a blank page
func NewPlaywrightSession(opts Options, logger *logrus.Logger) (*PlaywrightSession, error) {
	controller, err := launchPlaywright(opts, logger)
	if err != nil {
		return nil, err
	}
	return &PlaywrightSession{
		controller:   controller,
		frame:        controller.page.MainFrame(),
		implicitWait: opts.ImplicitWait,
		logger:       logger,
	}, nil
}

// Navigate - navigates to the specified URL
func (s *PlaywrightSession) Navigate(ctx context.Context, url string) error {
	s.logger.Infof("Navigating to: %s", url)
	_, err := s.controller.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
		Timeout:   playwright.Float(30000),
	})
	s.frame = s.controller.page.MainFrame()
	return err
}

func (s *PlaywrightSession) Refresh(ctx context.Context) error {
	_, err := s.controller.page.Reload()
	s.frame = s.controller.page.MainFrame()
	return err
}

func (s *PlaywrightSession) CurrentURL(ctx context.Context) (string, error) {
	return s.controller.page.URL(), nil
}

func (s *PlaywrightSession) FindElement(ctx context.Context, by entities.Locator) (interfaces.Element, error) {
	return firstOf(s.FindElements(ctx, by))(by)
}

func (s *PlaywrightSession) FindElements(ctx context.Context, by entities.Locator) ([]interfaces.Element, error) {
	selector, err := playwrightSelector(by, false)
	if err != nil {
		return nil, err
	}
	frame := s.frame
	handles, err := queryWaiting(s.implicitWait,
		func() ([]playwright.ElementHandle, error) { return frame.QuerySelectorAll(selector) },
		func(ms float64) error {
			_, err := frame.WaitForSelector(selector, playwright.FrameWaitForSelectorOptions{
				State:   playwright.WaitForSelectorStateAttached,
				Timeout: playwright.Float(ms),
			})
			return err
		})
	if err != nil {
		return nil, translatePlaywright(err, by.String())
	}
	return s.wrapAll(handles), nil
}

// ExecuteScript - runs script as a function body in the current frame
func (s *PlaywrightSession) ExecuteScript(ctx context.Context, script string, args ...any) (any, error) {
	native, err := scriptArguments(ctx, args)
	if err != nil {
		return nil, err
	}
	expression := "args => (function(){\n" + script + "\n}).apply(null, args)"
	handle, err := s.frame.EvaluateHandle(expression, native)
	if err != nil {
		return nil, translatePlaywright(err, "")
	}
	if el := handle.AsElement(); el != nil {
		return &playwrightElement{session: s, handle: el}, nil
	}
	defer handle.Dispose()
	value, err := handle.JSONValue()
	if err != nil {
		return nil, translatePlaywright(err, "")
	}
	return value, nil
}

func (s *PlaywrightSession) SwitchToFrame(ctx context.Context, frame interfaces.Element) error {
	el, err := unwrapElement[*playwrightElement](ctx, frame)
	if err != nil {
		return err
	}
	content, err := el.handle.ContentFrame()
	if err != nil {
		return translatePlaywright(err, el.String())
	}
	if content == nil {
		return fmt.Errorf("switch to frame: %s is not a frame", el)
	}
	s.frame = content
	return nil
}

func (s *PlaywrightSession) SwitchToDefaultContent(ctx context.Context) error {
	s.frame = s.controller.page.MainFrame()
	return nil
}

// Close - closes the browser and the driver
func (s *PlaywrightSession) Close() error {
	return s.controller.close()
}

// queryWaiting runs query and, when nothing matches and an implicit wait is set, waits up
// to that long for a match to be attached before querying once more. Playwright has no
// session-wide implicit wait, so lookups emulate the one Selenium applies.
func queryWaiting(
	implicitWait time.Duration,
	query func() ([]playwright.ElementHandle, error),
	wait func(ms float64) error,
) ([]playwright.ElementHandle, error) {
	handles, err := query()
	if err != nil || len(handles) > 0 || implicitWait <= 0 {
		return handles, err
	}
	if err := wait(float64(implicitWait.Milliseconds())); err != nil {
		if errors.Is(err, playwright.ErrTimeout) {
			return nil, nil
		}
		return nil, err
	}
	return query()
}

func (s *PlaywrightSession) wrapAll(handles []playwright.ElementHandle) []interfaces.Element {
	out := make([]interfaces.Element, len(handles))
	for i, h := range handles {
		out[i] = &playwrightElement{session: s, handle: h}
	}
	return out
}

// playwrightSelector renders a locator in Playwright selector syntax. Element scoped
// XPath has to start from the context node.
func playwrightSelector(by entities.Locator, scoped bool) (string, error) {
	prefix := "//"
	if scoped {
		prefix = ".//"
	}
	switch by.How {
	case entities.HowID:
		return "css=[id=" + cssString(by.Using) + "]", nil
	case entities.HowName:
		return "css=[name=" + cssString(by.Using) + "]", nil
	case entities.HowTagName:
		return "css=" + by.Using, nil
	case entities.HowClassName:
		return "css=[class~=" + cssString(by.Using) + "]", nil
	case entities.HowCSSSelector:
		return "css=" + by.Using, nil
	case entities.HowXPath:
		return "xpath=" + by.Using, nil
	case entities.HowLinkText:
		return "xpath=" + prefix + "a[normalize-space(.)=" + xpathString(strings.TrimSpace(by.Using)) + "]", nil
	case entities.HowPartialLinkText:
		return "xpath=" + prefix + "a[contains(normalize-space(.), " + xpathString(by.Using) + ")]", nil
	default:
		return "", fmt.Errorf("unsupported locator strategy %q", by.How)
	}
}

func cssString(s string) string {
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s) + `"`
}

// xpathString quotes s as an XPath 1.0 literal, which has no escape sequences
func xpathString(s string) string {
	if !strings.Contains(s, `'`) {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, `'`)
	quoted := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		quoted = append(quoted, "'"+p+"'")
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}

// translatePlaywright maps Playwright failures on detached handles onto stale element errors
func translatePlaywright(err error, subject string) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	for _, marker := range []string{
		"not attached to the DOM",
		"Execution context was destroyed",
		"JSHandle is disposed",
		"Cannot find context with specified id",
	} {
		if strings.Contains(msg, marker) {
			return &entities.StaleElementError{Element: subject, Err: err}
		}
	}
	return err
}

// playwrightElement wraps an element handle
type playwrightElement struct {
	session *PlaywrightSession
	handle  playwright.ElementHandle
}

func (e *playwrightElement) String() string {
	return "ElementHandle " + e.handle.String()
}

func (e *playwrightElement) FindElement(ctx context.Context, by entities.Locator) (interfaces.Element, error) {
	return firstOf(e.FindElements(ctx, by))(by)
}

func (e *playwrightElement) FindElements(ctx context.Context, by entities.Locator) ([]interfaces.Element, error) {
	selector, err := playwrightSelector(by, true)
	if err != nil {
		return nil, err
	}
	handles, err := queryWaiting(e.session.implicitWait,
		func() ([]playwright.ElementHandle, error) { return e.handle.QuerySelectorAll(selector) },
		func(ms float64) error {
			_, err := e.handle.WaitForSelector(selector, playwright.ElementHandleWaitForSelectorOptions{
				State:   playwright.WaitForSelectorStateAttached,
				Timeout: playwright.Float(ms),
			})
			return err
		})
	if err != nil {
		return nil, translatePlaywright(err, by.String())
	}
	return e.session.wrapAll(handles), nil
}

func (e *playwrightElement) Identity(ctx context.Context) (string, error) {
	out, err := e.handle.Evaluate(identityScript)
	if err != nil {
		return "", translatePlaywright(err, e.String())
	}
	return fmt.Sprint(out), nil
}

func (e *playwrightElement) IsDisplayed(ctx context.Context) (bool, error) {
	ok, err := e.handle.IsVisible()
	return ok, translatePlaywright(err, e.String())
}

func (e *playwrightElement) Text(ctx context.Context) (string, error) {
	text, err := e.handle.InnerText()
	return text, translatePlaywright(err, e.String())
}

func (e *playwrightElement) TagName(ctx context.Context) (string, error) {
	out, err := e.handle.Evaluate("el => el.tagName.toLowerCase()")
	if err != nil {
		return "", translatePlaywright(err, e.String())
	}
	return fmt.Sprint(out), nil
}

func (e *playwrightElement) Attribute(ctx context.Context, name string) (string, error) {
	value, err := e.handle.GetAttribute(name)
	return value, translatePlaywright(err, e.String())
}

func (e *playwrightElement) Click(ctx context.Context) error {
	return translatePlaywright(e.handle.Click(), e.String())
}

func (e *playwrightElement) Clear(ctx context.Context) error {
	return translatePlaywright(e.handle.Fill(""), e.String())
}

func (e *playwrightElement) SendKeys(ctx context.Context, keys string) error {
	return translatePlaywright(e.handle.Type(keys), e.String())
}

func (e *playwrightElement) Hover(ctx context.Context) error {
	return translatePlaywright(e.handle.Hover(), e.String())
}

func (e *playwrightElement) LocationInViewport(ctx context.Context) (entities.Point, error) {
	box, err := e.handle.BoundingBox()
	if err != nil {
		return entities.Point{}, translatePlaywright(err, e.String())
	}
	if box == nil {
		return entities.Point{}, fmt.Errorf("%s is not rendered", e)
	}
	return entities.Point{X: int(box.X), Y: int(box.Y)}, nil
}

func (e *playwrightElement) ScriptArgument(ctx context.Context) (any, error) {
	return e.handle, nil
}

var (
	_ interfaces.Session        = (*PlaywrightSession)(nil)
	_ interfaces.Element        = (*playwrightElement)(nil)
	_ interfaces.Locatable      = (*playwrightElement)(nil)
	_ interfaces.ScriptArgument = (*playwrightElement)(nil)
)
