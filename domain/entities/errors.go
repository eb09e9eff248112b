package entities

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels matched with errors.Is; drivers wrap their native failures with these
var (
	ErrConfiguration = errors.New("invalid page object configuration")
	ErrNotFound      = errors.New("no such element")
	ErrStaleElement  = errors.New("stale element reference")
)

// ConfigurationError reports an invalid field declaration. It is raised while a page
// object is registered or bound, never while an element is accessed.
type ConfigurationError struct {
	Page   string
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	switch {
	case e.Page != "" && e.Field != "":
		return fmt.Sprintf("%s.%s: %s", e.Page, e.Field, e.Reason)
	case e.Field != "":
		return fmt.Sprintf("%s: %s", e.Field, e.Reason)
	default:
		return e.Reason
	}
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// NotFoundError - no locator produced a match
type NotFoundError struct {
	Locators []Locator
	Mode     string
	Err      error
}

func (e *NotFoundError) Error() string {
	parts := make([]string, 0, len(e.Locators))
	for _, l := range e.Locators {
		parts = append(parts, l.String())
	}
	msg := "unable to locate element"
	if e.Mode != "" {
		msg += " (" + e.Mode + ")"
	}
	if len(parts) > 0 {
		msg += " using " + strings.Join(parts, ", ")
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *NotFoundError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrNotFound, e.Err}
	}
	return []error{ErrNotFound}
}

// StaleElementError - a resolved element no longer belongs to the current document
type StaleElementError struct {
	Element string
	Err     error
}

func (e *StaleElementError) Error() string {
	msg := "stale element reference"
	if e.Element != "" {
		msg += " to " + e.Element
	}
	if e.Err != nil && !errors.Is(e.Err, ErrStaleElement) {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StaleElementError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrStaleElement, e.Err}
	}
	return []error{ErrStaleElement}
}

// IsStale reports whether err signals a stale element
func IsStale(err error) bool {
	return errors.Is(err, ErrStaleElement)
}

// IsNotFound reports whether err signals a failed lookup
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
