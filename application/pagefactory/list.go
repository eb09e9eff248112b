package pagefactory

import (
	"context"
	"fmt"

	"page_factory/domain/entities"
	"page_factory/domain/interfaces"

	"github.com/sirupsen/logrus"
)

// ElementList is the lazy collection bound to multi-element fields. Its membership is
// looked up again on every call; the entries are proxies pinned to their index.
type ElementList struct {
	name     string
	resolver Resolver
	root     interfaces.SearchContext
	logger   *logrus.Logger
}

func newElementList(name string, resolver Resolver, root interfaces.SearchContext, logger *logrus.Logger) *ElementList {
	return &ElementList{name: name, resolver: resolver, root: root, logger: logger}
}

// NewElementList - creates a list resolving the combinator against root
func NewElementList(combinator *Combinator, root interfaces.SearchContext) *ElementList {
	return newElementList("", combinator, root, discardLogger())
}

func (l *ElementList) String() string {
	if l.name != "" {
		return fmt.Sprintf("Proxy list for %s (%s)", l.name, l.resolver)
	}
	return "Proxy list for " + l.resolver.String()
}

// Len returns the current number of matching elements
func (l *ElementList) Len(ctx context.Context) (int, error) {
	found, err := l.resolver.FindElements(ctx, l.root)
	if err != nil {
		return 0, err
	}
	return len(found), nil
}

// At returns a proxy for the i-th element. The index is checked against the current
// document; the proxy itself stays lazy.
func (l *ElementList) At(ctx context.Context, i int) (*ElementProxy, error) {
	n, err := l.Len(ctx)
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= n {
		return nil, fmt.Errorf("index %d out of range for %d elements: %w", i, n, entities.ErrNotFound)
	}
	return l.entry(i), nil
}

// All returns one proxy per element currently matching, in resolution order
func (l *ElementList) All(ctx context.Context) ([]*ElementProxy, error) {
	found, err := l.resolver.FindElements(ctx, l.root)
	if err != nil {
		return nil, err
	}
	out := make([]*ElementProxy, len(found))
	for i, el := range found {
		out[i] = l.entry(i)
		// the element was just resolved, no need to look it up again on first use
		out[i].cached = el
	}
	return out, nil
}

// Elements is All typed as plain element handles
func (l *ElementList) Elements(ctx context.Context) ([]interfaces.Element, error) {
	proxies, err := l.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]interfaces.Element, len(proxies))
	for i, p := range proxies {
		out[i] = p
	}
	return out, nil
}

func (l *ElementList) entry(i int) *ElementProxy {
	name := fmt.Sprintf("%s[%d]", l.name, i)
	return newElementProxy(name, &indexResolver{list: l.resolver, index: i}, l.root, false, l.logger)
}

// indexResolver re-resolves the i-th element of a list resolver
type indexResolver struct {
	list  Resolver
	index int
}

func (r *indexResolver) FindElement(ctx context.Context, root interfaces.SearchContext) (interfaces.Element, error) {
	found, err := r.list.FindElements(ctx, root)
	if err != nil {
		return nil, err
	}
	if r.index >= len(found) {
		return nil, &entities.NotFoundError{
			Mode: "index",
			Err:  fmt.Errorf("%s matched %d elements, wanted index %d", r.list, len(found), r.index),
		}
	}
	return found[r.index], nil
}

func (r *indexResolver) FindElements(ctx context.Context, root interfaces.SearchContext) ([]interfaces.Element, error) {
	el, err := r.FindElement(ctx, root)
	if err != nil {
		if entities.IsNotFound(err) {
			return []interfaces.Element{}, nil
		}
		return nil, err
	}
	return []interfaces.Element{el}, nil
}

func (r *indexResolver) String() string {
	return fmt.Sprintf("%s[%d]", r.list, r.index)
}
