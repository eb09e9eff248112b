package entities

import (
	"fmt"
	"strings"

	"github.com/iancoleman/strcase"
)

// How represents the strategy used to find an element
type How string

// Strategy values match the W3C WebDriver "using" strings
const (
	HowID              How = "id"
	HowName            How = "name"
	HowTagName         How = "tag name"
	HowClassName       How = "class name"
	HowCSSSelector     How = "css selector"
	HowXPath           How = "xpath"
	HowLinkText        How = "link text"
	HowPartialLinkText How = "partial link text"
)

var knownHows = map[How]struct{}{
	HowID:              {},
	HowName:            {},
	HowTagName:         {},
	HowClassName:       {},
	HowCSSSelector:     {},
	HowXPath:           {},
	HowLinkText:        {},
	HowPartialLinkText: {},
}

// aliases for the short names people tend to write in tags and catalogs
var howAliases = map[string]How{
	"css":          HowCSSSelector,
	"tag":          HowTagName,
	"class":        HowClassName,
	"x path":       HowXPath,
	"link":         HowLinkText,
	"partial link": HowPartialLinkText,
	"partial":      HowPartialLinkText,
}

// Valid reports whether h is one of the supported strategies
func (h How) Valid() bool {
	_, ok := knownHows[h]
	return ok
}

// ParseHow - converts a strategy name in any common spelling into How
func ParseHow(s string) (How, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", &ConfigurationError{Reason: "empty locator strategy"}
	}
	if h := How(trimmed); h.Valid() {
		return h, nil
	}

	// TagName, tag-name, tag_name and TAG_NAME all become "tag name"
	normalized := strings.ToLower(strcase.ToDelimited(trimmed, ' '))
	if h := How(normalized); h.Valid() {
		return h, nil
	}
	if h, ok := howAliases[normalized]; ok {
		return h, nil
	}
	return "", &ConfigurationError{Reason: fmt.Sprintf("unknown locator strategy %q", s)}
}

// Locator describes one rule for finding an element
type Locator struct {
	How      How    `json:"how" yaml:"how"`
	Using    string `json:"using" yaml:"using"`
	Priority int    `json:"priority,omitempty" yaml:"priority,omitempty"`
}

// By creates a locator with default priority
func By(how How, using string) Locator {
	return Locator{How: how, Using: using}
}

// ByID finds an element by its id attribute
func ByID(id string) Locator { return By(HowID, id) }

// ByName finds an element by its name attribute
func ByName(name string) Locator { return By(HowName, name) }

// ByTagName finds elements by tag name
func ByTagName(tag string) Locator { return By(HowTagName, tag) }

// ByClassName finds elements carrying the given class
func ByClassName(class string) Locator { return By(HowClassName, class) }

// ByCSSSelector finds elements matching a CSS selector
func ByCSSSelector(selector string) Locator { return By(HowCSSSelector, selector) }

// ByXPath finds elements matching an XPath expression
func ByXPath(expr string) Locator { return By(HowXPath, expr) }

// ByLinkText finds anchors whose visible text equals text
func ByLinkText(text string) Locator { return By(HowLinkText, text) }

// ByPartialLinkText finds anchors whose visible text contains text
func ByPartialLinkText(text string) Locator { return By(HowPartialLinkText, text) }

// WithPriority returns a copy of the locator with the given priority
func (l Locator) WithPriority(priority int) Locator {
	l.Priority = priority
	return l
}

// Validate - checks that the locator can be used for a lookup
func (l Locator) Validate() error {
	if !l.How.Valid() {
		return &ConfigurationError{Reason: fmt.Sprintf("unknown locator strategy %q", string(l.How))}
	}
	if l.Using == "" {
		return &ConfigurationError{Reason: fmt.Sprintf("empty selector for strategy %q", string(l.How))}
	}
	return nil
}

func (l Locator) String() string {
	return fmt.Sprintf("By.%s: %s", strcase.ToCamel(string(l.How)), l.Using)
}

// ParseLocator - parses the compact "how=using" form
func ParseLocator(s string) (Locator, error) {
	how, using, ok := strings.Cut(s, "=")
	if !ok {
		return Locator{}, &ConfigurationError{Reason: fmt.Sprintf("locator %q is not in how=using form", s)}
	}
	h, err := ParseHow(how)
	if err != nil {
		return Locator{}, err
	}
	loc := Locator{How: h, Using: strings.TrimSpace(using)}
	if err := loc.Validate(); err != nil {
		return Locator{}, err
	}
	return loc, nil
}

// ParseLocators parses a ";"-separated list of locators, assigning priorities by position.
// A selector containing ";" cannot be written in this form; use ParseLocator per locator.
func ParseLocators(s string) ([]Locator, error) {
	parts := strings.Split(s, ";")
	locators := make([]Locator, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		loc, err := ParseLocator(part)
		if err != nil {
			return nil, err
		}
		loc.Priority = len(locators)
		locators = append(locators, loc)
	}
	if len(locators) == 0 {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("no locators in %q", s)}
	}
	return locators, nil
}
