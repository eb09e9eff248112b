package pagefactory

import (
	"context"
	"errors"
	"fmt"

	"page_factory/domain/entities"
	"page_factory/domain/interfaces"

	"github.com/sirupsen/logrus"
)

// ElementProxy stands in for an element that is looked up on first use.
//
// The resolved element is cached. When an operation on the cached element fails
// because it went stale (the page was reloaded, the node was removed), the proxy
// looks the element up again and retries the operation once. Proxies are not safe
// for concurrent use.
type ElementProxy struct {
	name        string
	resolver    Resolver
	root        interfaces.SearchContext
	cacheLookup bool
	logger      *logrus.Logger

	cached interfaces.Element
}

func newElementProxy(name string, resolver Resolver, root interfaces.SearchContext, cacheLookup bool, logger *logrus.Logger) *ElementProxy {
	return &ElementProxy{
		name:        name,
		resolver:    resolver,
		root:        root,
		cacheLookup: cacheLookup,
		logger:      logger,
	}
}

// NewElementProxy - creates a proxy resolving the combinator against root
func NewElementProxy(combinator *Combinator, root interfaces.SearchContext) *ElementProxy {
	return newElementProxy("", combinator, root, false, discardLogger())
}

func (p *ElementProxy) String() string {
	if p.name != "" {
		return fmt.Sprintf("Proxy element for %s (%s)", p.name, p.resolver)
	}
	return "Proxy element for " + p.resolver.String()
}

// Resolver returns the resolver the proxy was built with
func (p *ElementProxy) Resolver() Resolver { return p.resolver }

// Resolve forces the lookup and returns the underlying element
func (p *ElementProxy) Resolve(ctx context.Context) (interfaces.Element, error) {
	if p.cached != nil {
		return p.cached, nil
	}
	el, err := p.resolver.FindElement(ctx, p.root)
	if err != nil {
		return nil, err
	}
	p.cached = el
	return el, nil
}

// Invalidate drops the cached element so the next access looks it up again
func (p *ElementProxy) Invalidate() {
	p.cached = nil
}

// invoke runs fn against the resolved element with a single re-resolution on staleness
func invoke[T any](ctx context.Context, p *ElementProxy, fn func(interfaces.Element) (T, error)) (T, error) {
	var zero T

	el, err := p.Resolve(ctx)
	if err != nil {
		return zero, err
	}
	out, err := fn(el)
	if err == nil || !entities.IsStale(err) {
		return out, err
	}
	if p.cacheLookup {
		return zero, &entities.StaleElementError{Element: p.String(), Err: err}
	}

	p.logger.Debugf("%s went stale, looking it up again", p)
	p.cached = nil
	el, err = p.Resolve(ctx)
	if err != nil {
		return zero, err
	}
	out, err = fn(el)
	if err != nil && entities.IsStale(err) {
		p.cached = nil
		return zero, &entities.StaleElementError{Element: p.String(), Err: err}
	}
	return out, err
}

func invokeErr(ctx context.Context, p *ElementProxy, fn func(interfaces.Element) error) error {
	_, err := invoke(ctx, p, func(el interfaces.Element) (struct{}, error) {
		return struct{}{}, fn(el)
	})
	return err
}

// FindElement searches below the proxied element
func (p *ElementProxy) FindElement(ctx context.Context, by entities.Locator) (interfaces.Element, error) {
	return invoke(ctx, p, func(el interfaces.Element) (interfaces.Element, error) {
		return el.FindElement(ctx, by)
	})
}

// FindElements searches below the proxied element
func (p *ElementProxy) FindElements(ctx context.Context, by entities.Locator) ([]interfaces.Element, error) {
	return invoke(ctx, p, func(el interfaces.Element) ([]interfaces.Element, error) {
		return el.FindElements(ctx, by)
	})
}

// Identity returns the identity of the underlying element
func (p *ElementProxy) Identity(ctx context.Context) (string, error) {
	return invoke(ctx, p, func(el interfaces.Element) (string, error) {
		return el.Identity(ctx)
	})
}

func (p *ElementProxy) IsDisplayed(ctx context.Context) (bool, error) {
	return invoke(ctx, p, func(el interfaces.Element) (bool, error) {
		return el.IsDisplayed(ctx)
	})
}

func (p *ElementProxy) Text(ctx context.Context) (string, error) {
	return invoke(ctx, p, func(el interfaces.Element) (string, error) {
		return el.Text(ctx)
	})
}

func (p *ElementProxy) TagName(ctx context.Context) (string, error) {
	return invoke(ctx, p, func(el interfaces.Element) (string, error) {
		return el.TagName(ctx)
	})
}

func (p *ElementProxy) Attribute(ctx context.Context, name string) (string, error) {
	return invoke(ctx, p, func(el interfaces.Element) (string, error) {
		return el.Attribute(ctx, name)
	})
}

func (p *ElementProxy) Click(ctx context.Context) error {
	return invokeErr(ctx, p, func(el interfaces.Element) error {
		return el.Click(ctx)
	})
}

func (p *ElementProxy) Clear(ctx context.Context) error {
	return invokeErr(ctx, p, func(el interfaces.Element) error {
		return el.Clear(ctx)
	})
}

func (p *ElementProxy) SendKeys(ctx context.Context, keys string) error {
	return invokeErr(ctx, p, func(el interfaces.Element) error {
		return el.SendKeys(ctx, keys)
	})
}

func (p *ElementProxy) Hover(ctx context.Context) error {
	return invokeErr(ctx, p, func(el interfaces.Element) error {
		return el.Hover(ctx)
	})
}

// LocationInViewport delegates to the underlying element when it is locatable
func (p *ElementProxy) LocationInViewport(ctx context.Context) (entities.Point, error) {
	return invoke(ctx, p, func(el interfaces.Element) (entities.Point, error) {
		locatable, ok := el.(interfaces.Locatable)
		if !ok {
			return entities.Point{}, fmt.Errorf("%T has no viewport coordinates: %w", el, errors.ErrUnsupported)
		}
		return locatable.LocationInViewport(ctx)
	})
}

// ScriptArgument returns the driver-native handle of the underlying element
func (p *ElementProxy) ScriptArgument(ctx context.Context) (any, error) {
	return invoke(ctx, p, func(el interfaces.Element) (any, error) {
		arg, ok := el.(interfaces.ScriptArgument)
		if !ok {
			return nil, fmt.Errorf("%T cannot be used as a script argument: %w", el, errors.ErrUnsupported)
		}
		if err := attached(ctx, el); err != nil {
			return nil, err
		}
		return arg.ScriptArgument(ctx)
	})
}

// WrappedElement returns the underlying element, looked up again if the cached one went stale
func (p *ElementProxy) WrappedElement(ctx context.Context) (interfaces.Element, error) {
	return invoke(ctx, p, func(el interfaces.Element) (interfaces.Element, error) {
		if err := attached(ctx, el); err != nil {
			return nil, err
		}
		return el, nil
	})
}

// attached makes a round trip to the element so a stale handle fails here and not in
// the driver call that receives it
func attached(ctx context.Context, el interfaces.Element) error {
	_, err := el.TagName(ctx)
	return err
}

// Equal reports whether the proxy and other resolve to the same element
func (p *ElementProxy) Equal(ctx context.Context, other interfaces.Element) (bool, error) {
	return Equal(ctx, p, other)
}

// HashCode returns the hash of the underlying element's identity
func (p *ElementProxy) HashCode(ctx context.Context) (uint64, error) {
	return HashCode(ctx, p)
}

var (
	_ interfaces.Element        = (*ElementProxy)(nil)
	_ interfaces.Locatable      = (*ElementProxy)(nil)
	_ interfaces.ScriptArgument = (*ElementProxy)(nil)
	_ interfaces.WrapsElement   = (*ElementProxy)(nil)
)
