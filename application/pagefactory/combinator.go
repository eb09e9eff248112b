package pagefactory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"page_factory/domain/entities"
	"page_factory/domain/interfaces"
)

// Mode decides how several locators on one field are combined
type Mode int

const (
	// ModeFirstMatch tries each locator against the root and keeps the first that matches
	ModeFirstMatch Mode = iota
	// ModeSequence searches each locator inside the results of the previous one
	ModeSequence
	// ModeAll resolves every locator against the root and concatenates the results
	ModeAll
)

func (m Mode) String() string {
	switch m {
	case ModeFirstMatch:
		return "first match"
	case ModeSequence:
		return "sequence"
	case ModeAll:
		return "all"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Markers are the mode flags declared on a field
type Markers struct {
	Sequence    bool
	All         bool
	CacheLookup bool
}

// ParseMarkers - parses the comma separated value of a locate tag
func ParseMarkers(s string) (Markers, error) {
	var m Markers
	for _, part := range strings.Split(s, ",") {
		switch strings.ToLower(strings.TrimSpace(part)) {
		case "":
		case "sequence", "chained":
			m.Sequence = true
		case "all":
			m.All = true
		case "cache", "cachelookup":
			m.CacheLookup = true
		default:
			return Markers{}, &entities.ConfigurationError{Reason: fmt.Sprintf("unknown locate marker %q", part)}
		}
	}
	return m, nil
}

// Mode returns the resolution mode the markers select
func (m Markers) Mode() (Mode, error) {
	switch {
	case m.Sequence && m.All:
		return 0, &entities.ConfigurationError{Reason: "cannot specify sequence and all on the same field"}
	case m.Sequence:
		return ModeSequence, nil
	case m.All:
		return ModeAll, nil
	default:
		return ModeFirstMatch, nil
	}
}

// Resolver locates the element(s) a proxy stands for
type Resolver interface {
	FindElement(ctx context.Context, root interfaces.SearchContext) (interfaces.Element, error)
	FindElements(ctx context.Context, root interfaces.SearchContext) ([]interfaces.Element, error)
	String() string
}

// Combinator composes the locators of one field. It is immutable once built.
type Combinator struct {
	mode     Mode
	locators []entities.Locator
}

// NewCombinator - validates the markers and locators of a field and orders them by priority
func NewCombinator(markers Markers, locators ...entities.Locator) (*Combinator, error) {
	mode, err := markers.Mode()
	if err != nil {
		return nil, err
	}
	if len(locators) == 0 {
		return nil, &entities.ConfigurationError{Reason: "no locators declared"}
	}
	for _, l := range locators {
		if err := l.Validate(); err != nil {
			return nil, err
		}
	}

	sorted := make([]entities.Locator, len(locators))
	copy(sorted, locators)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority < sorted[j].Priority
	})

	return &Combinator{mode: mode, locators: sorted}, nil
}

// Mode returns the resolution mode
func (c *Combinator) Mode() Mode { return c.mode }

// Locators returns the locators in resolution order
func (c *Combinator) Locators() []entities.Locator {
	out := make([]entities.Locator, len(c.locators))
	copy(out, c.locators)
	return out
}

func (c *Combinator) String() string {
	parts := make([]string, 0, len(c.locators))
	for _, l := range c.locators {
		parts = append(parts, l.String())
	}
	switch c.mode {
	case ModeSequence:
		return "By.Chained([" + strings.Join(parts, ", ") + "])"
	case ModeAll:
		return "By.All([" + strings.Join(parts, ", ") + "])"
	default:
		return strings.Join(parts, " | ")
	}
}

// FindElement - returns the single element the field resolves to
func (c *Combinator) FindElement(ctx context.Context, root interfaces.SearchContext) (interfaces.Element, error) {
	switch c.mode {
	case ModeSequence:
		found, err := c.chain(ctx, root)
		if err != nil {
			return nil, err
		}
		return found[0], nil
	case ModeAll:
		found, err := c.union(ctx, root)
		if err != nil {
			return nil, err
		}
		if len(found) == 0 {
			return nil, c.notFound(nil)
		}
		return found[0], nil
	default:
		for _, l := range c.locators {
			found, err := root.FindElements(ctx, l)
			if err != nil {
				return nil, err
			}
			if len(found) > 0 {
				return found[0], nil
			}
		}
		return nil, c.notFound(nil)
	}
}

// FindElements - returns every element the field resolves to, empty when nothing matches
func (c *Combinator) FindElements(ctx context.Context, root interfaces.SearchContext) ([]interfaces.Element, error) {
	switch c.mode {
	case ModeSequence:
		found, err := c.chain(ctx, root)
		if errors.Is(err, entities.ErrNotFound) {
			return []interfaces.Element{}, nil
		}
		return found, err
	case ModeAll:
		return c.union(ctx, root)
	default:
		for _, l := range c.locators {
			found, err := root.FindElements(ctx, l)
			if err != nil {
				return nil, err
			}
			if len(found) > 0 {
				return found, nil
			}
		}
		return []interfaces.Element{}, nil
	}
}

// chain never returns an empty slice without an error
func (c *Combinator) chain(ctx context.Context, root interfaces.SearchContext) ([]interfaces.Element, error) {
	scopes := []interfaces.SearchContext{root}
	var found []interfaces.Element
	for i, l := range c.locators {
		found = found[:0:0]
		for _, scope := range scopes {
			matches, err := scope.FindElements(ctx, l)
			if err != nil {
				return nil, err
			}
			found = append(found, matches...)
		}
		if len(found) == 0 {
			return nil, c.notFound(fmt.Errorf("link %d (%s) matched nothing", i, l))
		}
		scopes = scopes[:0]
		for _, el := range found {
			scopes = append(scopes, el)
		}
	}
	return found, nil
}

func (c *Combinator) union(ctx context.Context, root interfaces.SearchContext) ([]interfaces.Element, error) {
	all := []interfaces.Element{}
	for _, l := range c.locators {
		matches, err := root.FindElements(ctx, l)
		if err != nil {
			return nil, err
		}
		all = append(all, matches...)
	}
	return all, nil
}

func (c *Combinator) notFound(cause error) error {
	return &entities.NotFoundError{Locators: c.Locators(), Mode: c.mode.String(), Err: cause}
}
