package pagefactory

import (
	"context"
	"fmt"

	"page_factory/domain/entities"
	"page_factory/domain/interfaces"
)

// fakeDOM is a scripted search context. Every reload bumps the generation and turns all
// handles of older generations stale.
type fakeDOM struct {
	generation int
	roots      map[string][]*fakeNode
	finds      map[string]int
	// staleOnce makes the next n element operations fail as stale regardless of generation
	staleOnce int
}

type fakeNode struct {
	id       string
	tag      string
	text     string
	children map[string][]*fakeNode
}

func newFakeDOM() *fakeDOM {
	return &fakeDOM{roots: make(map[string][]*fakeNode), finds: make(map[string]int)}
}

func key(by entities.Locator) string {
	return string(by.How) + "=" + by.Using
}

func (d *fakeDOM) add(by entities.Locator, nodes ...*fakeNode) {
	d.roots[key(by)] = append(d.roots[key(by)], nodes...)
}

func (d *fakeDOM) reload() { d.generation++ }

func (d *fakeDOM) FindElement(ctx context.Context, by entities.Locator) (interfaces.Element, error) {
	found, err := d.FindElements(ctx, by)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("%s: %w", by, entities.ErrNotFound)
	}
	return found[0], nil
}

func (d *fakeDOM) FindElements(ctx context.Context, by entities.Locator) ([]interfaces.Element, error) {
	d.finds[key(by)]++
	return d.wrap(d.roots[key(by)]), nil
}

func (d *fakeDOM) wrap(nodes []*fakeNode) []interfaces.Element {
	out := make([]interfaces.Element, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, &fakeElement{dom: d, node: n, generation: d.generation})
	}
	return out
}

func node(id, tag, text string) *fakeNode {
	return &fakeNode{id: id, tag: tag, text: text, children: make(map[string][]*fakeNode)}
}

func (n *fakeNode) with(by entities.Locator, children ...*fakeNode) *fakeNode {
	n.children[key(by)] = append(n.children[key(by)], children...)
	return n
}

type fakeElement struct {
	dom        *fakeDOM
	node       *fakeNode
	generation int
}

func (e *fakeElement) check() error {
	if e.dom.staleOnce > 0 {
		e.dom.staleOnce--
		return &entities.StaleElementError{Element: e.node.id}
	}
	if e.generation != e.dom.generation {
		return &entities.StaleElementError{Element: e.node.id}
	}
	return nil
}

func (e *fakeElement) FindElement(ctx context.Context, by entities.Locator) (interfaces.Element, error) {
	found, err := e.FindElements(ctx, by)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("%s: %w", by, entities.ErrNotFound)
	}
	return found[0], nil
}

func (e *fakeElement) FindElements(ctx context.Context, by entities.Locator) ([]interfaces.Element, error) {
	if err := e.check(); err != nil {
		return nil, err
	}
	return e.dom.wrap(e.node.children[key(by)]), nil
}

func (e *fakeElement) Identity(ctx context.Context) (string, error) {
	if err := e.check(); err != nil {
		return "", err
	}
	return e.node.id, nil
}

func (e *fakeElement) IsDisplayed(ctx context.Context) (bool, error) { return true, e.check() }

func (e *fakeElement) Text(ctx context.Context) (string, error) {
	if err := e.check(); err != nil {
		return "", err
	}
	return e.node.text, nil
}

func (e *fakeElement) TagName(ctx context.Context) (string, error) {
	if err := e.check(); err != nil {
		return "", err
	}
	return e.node.tag, nil
}

func (e *fakeElement) Attribute(ctx context.Context, name string) (string, error) {
	return "", e.check()
}

func (e *fakeElement) Click(ctx context.Context) error                 { return e.check() }
func (e *fakeElement) Clear(ctx context.Context) error                 { return e.check() }
func (e *fakeElement) SendKeys(ctx context.Context, keys string) error { return e.check() }
func (e *fakeElement) Hover(ctx context.Context) error                 { return e.check() }

func (e *fakeElement) LocationInViewport(ctx context.Context) (entities.Point, error) {
	if err := e.check(); err != nil {
		return entities.Point{}, err
	}
	return entities.Point{X: 1, Y: len(e.node.id)}, nil
}

func (e *fakeElement) ScriptArgument(ctx context.Context) (any, error) {
	return e.node.id, e.check()
}

var (
	_ interfaces.SearchContext = (*fakeDOM)(nil)
	_ interfaces.Element       = (*fakeElement)(nil)
	_ interfaces.Locatable     = (*fakeElement)(nil)
)
