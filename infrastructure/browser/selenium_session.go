package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"page_factory/domain/entities"
	"page_factory/domain/interfaces"

	"github.com/sirupsen/logrus"
	"github.com/tebeka/selenium"
	"github.com/tidwall/gjson"
)

// webElementKey is the W3C key of element references in WebDriver JSON
const webElementKey = "element-6066-11e4-a52e-4f735466cecf"

// SeleniumSession drives Chrome through chromedriver
type SeleniumSession struct {
	controller *seleniumController
	logger     *logrus.Logger
}

// NewSeleniumSession - starts chromedriver and a Chrome session
func NewSeleniumSession(opts Options, logger *logrus.Logger) (*SeleniumSession, error) {
	controller, err := startSelenium(opts, logger)
	if err != nil {
		return nil, err
	}
	return &SeleniumSession{controller: controller, logger: logger}, nil
}

func (s *SeleniumSession) wd() selenium.WebDriver { return s.controller.wd }

// Navigate - navigates browser to specified URL
func (s *SeleniumSession) Navigate(ctx context.Context, url string) error {
	s.logger.Infof("Navigating to: %s", url)
	return translateSelenium(s.wd().Get(url), "")
}

func (s *SeleniumSession) Refresh(ctx context.Context) error {
	return translateSelenium(s.wd().Refresh(), "")
}

func (s *SeleniumSession) CurrentURL(ctx context.Context) (string, error) {
	url, err := s.wd().CurrentURL()
	return url, translateSelenium(err, "")
}

func (s *SeleniumSession) FindElement(ctx context.Context, by entities.Locator) (interfaces.Element, error) {
	we, err := s.wd().FindElement(seleniumBy(by.How), by.Using)
	if err != nil {
		return nil, translateSelenium(err, by.String())
	}
	return &seleniumElement{session: s, we: we}, nil
}

func (s *SeleniumSession) FindElements(ctx context.Context, by entities.Locator) ([]interfaces.Element, error) {
	found, err := s.wd().FindElements(seleniumBy(by.How), by.Using)
	if err != nil {
		return nil, translateSelenium(err, by.String())
	}
	return s.wrapAll(found), nil
}

// ExecuteScript - runs script in the page; elements and proxies are sent as references
// and element references in the result come back as elements
func (s *SeleniumSession) ExecuteScript(ctx context.Context, script string, args ...any) (any, error) {
	native, err := scriptArguments(ctx, args)
	if err != nil {
		return nil, err
	}
	out, err := s.wd().ExecuteScript(script, native)
	if err != nil {
		return nil, translateSelenium(err, "")
	}
	return s.decodeResult(out), nil
}

func (s *SeleniumSession) SwitchToFrame(ctx context.Context, frame interfaces.Element) error {
	el, err := unwrapElement[*seleniumElement](ctx, frame)
	if err != nil {
		return err
	}
	return translateSelenium(s.wd().SwitchFrame(el.we), "")
}

func (s *SeleniumSession) SwitchToDefaultContent(ctx context.Context) error {
	return translateSelenium(s.wd().SwitchFrame(nil), "")
}

// Close - closes browser and stops ChromeDriver service
func (s *SeleniumSession) Close() error {
	return s.controller.stop()
}

func (s *SeleniumSession) wrapAll(found []selenium.WebElement) []interfaces.Element {
	out := make([]interfaces.Element, len(found))
	for i, we := range found {
		out[i] = &seleniumElement{session: s, we: we}
	}
	return out
}

// decodeResult turns element references in a script result back into elements
func (s *SeleniumSession) decodeResult(v any) any {
	switch val := v.(type) {
	case map[string]any:
		if _, ok := val[webElementKey]; ok {
			data, err := json.Marshal(map[string]any{"value": val})
			if err == nil {
				if we, err := s.wd().DecodeElement(data); err == nil {
					return &seleniumElement{session: s, we: we}
				}
			}
		}
		return val
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = s.decodeResult(item)
		}
		return out
	default:
		return v
	}
}

func seleniumBy(how entities.How) string {
	switch how {
	case entities.HowID:
		return selenium.ByID
	case entities.HowName:
		return selenium.ByName
	case entities.HowTagName:
		return selenium.ByTagName
	case entities.HowClassName:
		return selenium.ByClassName
	case entities.HowCSSSelector:
		return selenium.ByCSSSelector
	case entities.HowXPath:
		return selenium.ByXPATH
	case entities.HowLinkText:
		return selenium.ByLinkText
	case entities.HowPartialLinkText:
		return selenium.ByPartialLinkText
	default:
		return string(how)
	}
}

// translateSelenium maps WebDriver error codes onto the package sentinels
func translateSelenium(err error, subject string) error {
	if err == nil {
		return nil
	}
	var wdErr *selenium.Error
	if !errors.As(err, &wdErr) {
		return err
	}
	switch wdErr.Err {
	case "no such element":
		return fmt.Errorf("%s: %w: %s", subject, entities.ErrNotFound, wdErr.Message)
	case "stale element reference":
		return &entities.StaleElementError{Element: subject, Err: err}
	default:
		return err
	}
}

// seleniumElement is a remote WebDriver element
type seleniumElement struct {
	session *SeleniumSession
	we      selenium.WebElement
}

func (e *seleniumElement) String() string {
	id, _ := e.Identity(context.Background())
	return "WebElement " + id
}

func (e *seleniumElement) FindElement(ctx context.Context, by entities.Locator) (interfaces.Element, error) {
	we, err := e.we.FindElement(seleniumBy(by.How), by.Using)
	if err != nil {
		return nil, translateSelenium(err, by.String())
	}
	return &seleniumElement{session: e.session, we: we}, nil
}

func (e *seleniumElement) FindElements(ctx context.Context, by entities.Locator) ([]interfaces.Element, error) {
	found, err := e.we.FindElements(seleniumBy(by.How), by.Using)
	if err != nil {
		return nil, translateSelenium(err, by.String())
	}
	return e.session.wrapAll(found), nil
}

// Identity - returns the WebDriver element id
func (e *seleniumElement) Identity(ctx context.Context) (string, error) {
	data, err := json.Marshal(e.we)
	if err != nil {
		return "", fmt.Errorf("failed to serialize element: %w", err)
	}
	if id := gjson.GetBytes(data, webElementKey); id.Exists() {
		return id.String(), nil
	}
	if id := gjson.GetBytes(data, "ELEMENT"); id.Exists() {
		return id.String(), nil
	}
	return "", fmt.Errorf("element reference without id: %s", data)
}

func (e *seleniumElement) IsDisplayed(ctx context.Context) (bool, error) {
	ok, err := e.we.IsDisplayed()
	return ok, translateSelenium(err, e.String())
}

func (e *seleniumElement) Text(ctx context.Context) (string, error) {
	text, err := e.we.Text()
	return text, translateSelenium(err, e.String())
}

func (e *seleniumElement) TagName(ctx context.Context) (string, error) {
	tag, err := e.we.TagName()
	return tag, translateSelenium(err, e.String())
}

func (e *seleniumElement) Attribute(ctx context.Context, name string) (string, error) {
	value, err := e.we.GetAttribute(name)
	return value, translateSelenium(err, e.String())
}

func (e *seleniumElement) Click(ctx context.Context) error {
	return translateSelenium(e.we.Click(), e.String())
}

func (e *seleniumElement) Clear(ctx context.Context) error {
	return translateSelenium(e.we.Clear(), e.String())
}

func (e *seleniumElement) SendKeys(ctx context.Context, keys string) error {
	return translateSelenium(e.we.SendKeys(keys), e.String())
}

func (e *seleniumElement) Hover(ctx context.Context) error {
	return translateSelenium(e.we.MoveTo(0, 0), e.String())
}

func (e *seleniumElement) LocationInViewport(ctx context.Context) (entities.Point, error) {
	p, err := e.we.LocationInView()
	if err != nil {
		return entities.Point{}, translateSelenium(err, e.String())
	}
	return entities.Point{X: p.X, Y: p.Y}, nil
}

func (e *seleniumElement) ScriptArgument(ctx context.Context) (any, error) {
	return e.we, nil
}

var (
	_ interfaces.Session        = (*SeleniumSession)(nil)
	_ interfaces.Element        = (*seleniumElement)(nil)
	_ interfaces.Locatable      = (*seleniumElement)(nil)
	_ interfaces.ScriptArgument = (*seleniumElement)(nil)
)
