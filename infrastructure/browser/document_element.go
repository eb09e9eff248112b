package browser

import (
	"context"
	"fmt"
	"strings"

	"page_factory/domain/entities"
	"page_factory/domain/interfaces"

	"golang.org/x/net/html"
)

// rowHeight is the synthetic line height used for viewport coordinates
const rowHeight = 20

// documentElement is one element node of a document loaded by a DocumentSession
type documentElement struct {
	session *DocumentSession
	doc     *document
	node    *html.Node
}

func (e *documentElement) String() string {
	if id := attr(e.node, "id"); id != "" {
		return fmt.Sprintf("<%s id=%q>", e.node.Data, id)
	}
	return "<" + e.node.Data + ">"
}

// check fails with a stale element error once the owning document was unloaded
func (e *documentElement) check() error {
	if !e.doc.live || e.session.closed {
		return &entities.StaleElementError{Element: e.String()}
	}
	return nil
}

func (e *documentElement) FindElement(ctx context.Context, by entities.Locator) (interfaces.Element, error) {
	return firstOf(e.FindElements(ctx, by))(by)
}

func (e *documentElement) FindElements(ctx context.Context, by entities.Locator) ([]interfaces.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := e.check(); err != nil {
		return nil, err
	}
	return e.doc.find(e.session, e.node, by)
}

func (e *documentElement) Identity(ctx context.Context) (string, error) {
	if err := e.check(); err != nil {
		return "", err
	}
	return e.doc.identity(e.node), nil
}

func (e *documentElement) IsDisplayed(ctx context.Context) (bool, error) {
	if err := e.check(); err != nil {
		return false, err
	}
	return displayed(e.node), nil
}

func (e *documentElement) Text(ctx context.Context) (string, error) {
	if err := e.check(); err != nil {
		return "", err
	}
	return visibleText(e.node), nil
}

func (e *documentElement) TagName(ctx context.Context) (string, error) {
	if err := e.check(); err != nil {
		return "", err
	}
	return strings.ToLower(e.node.Data), nil
}

func (e *documentElement) Attribute(ctx context.Context, name string) (string, error) {
	if err := e.check(); err != nil {
		return "", err
	}
	switch name {
	case "checked", "selected", "disabled", "hidden", "readonly":
		if hasAttr(e.node, name) {
			return "true", nil
		}
		return "", nil
	case "value":
		if e.node.Data == "textarea" && !hasAttr(e.node, "value") {
			return textContent(e.node), nil
		}
	}
	return attr(e.node, name), nil
}

// Click follows links and toggles checkboxes and radio buttons
func (e *documentElement) Click(ctx context.Context) error {
	if err := e.interactable(); err != nil {
		return err
	}

	switch e.node.Data {
	case "a":
		href := strings.TrimSpace(attr(e.node, "href"))
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
			return nil
		}
		return e.session.Navigate(ctx, resolveReference(e.doc.url, href))
	case "input":
		switch strings.ToLower(attr(e.node, "type")) {
		case "checkbox":
			if hasAttr(e.node, "checked") {
				removeAttr(e.node, "checked")
			} else {
				setAttr(e.node, "checked", "checked")
			}
		case "radio":
			e.uncheckGroup()
			setAttr(e.node, "checked", "checked")
		}
	}
	return nil
}

func (e *documentElement) Clear(ctx context.Context) error {
	if err := e.editable(); err != nil {
		return err
	}
	setAttr(e.node, "value", "")
	return nil
}

func (e *documentElement) SendKeys(ctx context.Context, keys string) error {
	if err := e.editable(); err != nil {
		return err
	}
	current := attr(e.node, "value")
	if e.node.Data == "textarea" && !hasAttr(e.node, "value") {
		current = textContent(e.node)
	}
	setAttr(e.node, "value", current+keys)
	return nil
}

// Hover only checks that the pointer could reach the element; there are no hover styles
func (e *documentElement) Hover(ctx context.Context) error {
	return e.interactable()
}

// LocationInViewport places every element on its own row in document order
func (e *documentElement) LocationInViewport(ctx context.Context) (entities.Point, error) {
	if err := e.check(); err != nil {
		return entities.Point{}, err
	}
	depth := 0
	for p := e.node.Parent; p != nil && p.Type == html.ElementNode; p = p.Parent {
		depth++
	}
	return entities.Point{X: depth * 8, Y: e.doc.position(e.node) * rowHeight}, nil
}

func (e *documentElement) ScriptArgument(ctx context.Context) (any, error) {
	if err := e.check(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *documentElement) interactable() error {
	if err := e.check(); err != nil {
		return err
	}
	if !displayed(e.node) {
		return fmt.Errorf("element not interactable: %s is not displayed", e)
	}
	return nil
}

func (e *documentElement) editable() error {
	if err := e.interactable(); err != nil {
		return err
	}
	if e.node.Data != "input" && e.node.Data != "textarea" {
		return fmt.Errorf("invalid element state: %s is not editable", e)
	}
	if hasAttr(e.node, "disabled") || hasAttr(e.node, "readonly") {
		return fmt.Errorf("invalid element state: %s is read only", e)
	}
	return nil
}

func (e *documentElement) uncheckGroup() {
	name := attr(e.node, "name")
	if name == "" {
		return
	}
	for _, n := range filterDescendants(e.doc.root, func(n *html.Node) bool {
		return n.Data == "input" && strings.EqualFold(attr(n, "type"), "radio") && attr(n, "name") == name
	}) {
		removeAttr(n, "checked")
	}
}

// textContent is the raw text below n, hidden parts included
func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(cur *html.Node) {
		if cur.Type == html.TextNode {
			b.WriteString(cur.Data)
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

var (
	_ interfaces.Element        = (*documentElement)(nil)
	_ interfaces.Locatable      = (*documentElement)(nil)
	_ interfaces.ScriptArgument = (*documentElement)(nil)
)
