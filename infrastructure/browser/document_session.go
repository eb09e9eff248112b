package browser

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"page_factory/domain/entities"
	"page_factory/domain/interfaces"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/net/html"
)

// DocumentSession is a browser session without a browser: it loads HTML files from a
// filesystem and answers lookups against the parsed DOM. Reloading or navigating
// invalidates every element handed out before, the same way a real page load does.
//
// It runs no page scripts and has no layout engine; viewport coordinates are
// synthetic and only stable within one document.
type DocumentSession struct {
	fs     afero.Fs
	logger *logrus.Logger

	top     *document
	current *document
	closed  bool
}

// document is one parsed HTML file, either top-level or loaded into an iframe
type document struct {
	url    string
	root   *html.Node
	live   bool
	ids    map[*html.Node]string
	order  map[*html.Node]int
	frames map[*html.Node]*document
}

// NewDocumentSession - creates a session reading pages from fs
func NewDocumentSession(fs afero.Fs, logger *logrus.Logger) *DocumentSession {
	return &DocumentSession{fs: fs, logger: logger}
}

// Navigate - loads the page at rawURL; only the path part of the URL is used
func (s *DocumentSession) Navigate(ctx context.Context, rawURL string) error {
	if err := s.usable(ctx); err != nil {
		return err
	}
	s.logger.Infof("Navigating to: %s", rawURL)

	doc, err := s.load(rawURL)
	if err != nil {
		return err
	}
	if s.top != nil {
		s.top.invalidate()
	}
	s.top = doc
	s.current = doc
	return nil
}

// Refresh - reloads the top-level document
func (s *DocumentSession) Refresh(ctx context.Context) error {
	if err := s.usable(ctx); err != nil {
		return err
	}
	if s.top == nil {
		return fmt.Errorf("refresh: no page loaded")
	}
	return s.Navigate(ctx, s.top.url)
}

// CurrentURL - returns the URL of the top-level document
func (s *DocumentSession) CurrentURL(ctx context.Context) (string, error) {
	if err := s.usable(ctx); err != nil {
		return "", err
	}
	if s.top == nil {
		return "", nil
	}
	return s.top.url, nil
}

// FindElement - returns the first element matching by in the current document
func (s *DocumentSession) FindElement(ctx context.Context, by entities.Locator) (interfaces.Element, error) {
	return firstOf(s.FindElements(ctx, by))(by)
}

// FindElements - returns every element matching by in the current document
func (s *DocumentSession) FindElements(ctx context.Context, by entities.Locator) ([]interfaces.Element, error) {
	if err := s.usable(ctx); err != nil {
		return nil, err
	}
	if s.current == nil {
		return nil, fmt.Errorf("find %s: no page loaded", by)
	}
	return s.current.find(s, s.current.root, by)
}

// SwitchToFrame - scopes lookups to the document of an iframe element
func (s *DocumentSession) SwitchToFrame(ctx context.Context, frame interfaces.Element) error {
	if err := s.usable(ctx); err != nil {
		return err
	}
	el, err := unwrapElement[*documentElement](ctx, frame)
	if err != nil {
		return err
	}
	if err := el.check(); err != nil {
		return err
	}
	tag := strings.ToLower(el.node.Data)
	if tag != "iframe" && tag != "frame" {
		return fmt.Errorf("switch to frame: <%s> is not a frame", tag)
	}

	if loaded, ok := el.doc.frames[el.node]; ok {
		s.current = loaded
		return nil
	}
	src := attr(el.node, "src")
	if src == "" {
		return fmt.Errorf("switch to frame: frame has no src")
	}
	frameDoc, err := s.load(resolveReference(el.doc.url, src))
	if err != nil {
		return fmt.Errorf("switch to frame: %w", err)
	}
	el.doc.frames[el.node] = frameDoc
	s.current = frameDoc
	return nil
}

// SwitchToDefaultContent - scopes lookups back to the top-level document
func (s *DocumentSession) SwitchToDefaultContent(ctx context.Context) error {
	if err := s.usable(ctx); err != nil {
		return err
	}
	s.current = s.top
	return nil
}

// Close - ends the session; every element becomes stale
func (s *DocumentSession) Close() error {
	if s.top != nil {
		s.top.invalidate()
	}
	s.closed = true
	return nil
}

func (s *DocumentSession) usable(ctx context.Context) error {
	if s.closed {
		return fmt.Errorf("document session is closed")
	}
	return ctx.Err()
}

func (s *DocumentSession) load(rawURL string) (*document, error) {
	name, err := pagePath(rawURL)
	if err != nil {
		return nil, err
	}
	f, err := s.fs.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open page %s: %w", name, err)
	}
	defer f.Close()

	root, err := htmlquery.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page %s: %w", name, err)
	}
	return &document{
		url:    name,
		root:   root,
		live:   true,
		ids:    make(map[*html.Node]string),
		frames: make(map[*html.Node]*document),
	}, nil
}

// pagePath maps a URL onto a slash separated path relative to the filesystem root
func pagePath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	p := u.Path
	if p == "" {
		p = u.Opaque
	}
	cleaned := strings.TrimPrefix(path.Clean("/"+p), "/")
	if cleaned == "" {
		return "", fmt.Errorf("url %q does not name a page", rawURL)
	}
	return cleaned, nil
}

func resolveReference(base, ref string) string {
	if u, err := url.Parse(ref); err == nil && u.IsAbs() {
		return ref
	}
	if strings.HasPrefix(ref, "/") {
		return ref
	}
	return path.Join(path.Dir(base), ref)
}

func (d *document) invalidate() {
	d.live = false
	for _, frame := range d.frames {
		frame.invalidate()
	}
}

func (d *document) identity(n *html.Node) string {
	id, ok := d.ids[n]
	if !ok {
		id = uuid.NewString()
		d.ids[n] = id
	}
	return id
}

// position returns the index of n among the element nodes of the document
func (d *document) position(n *html.Node) int {
	if d.order == nil {
		d.order = make(map[*html.Node]int)
		for i, el := range descendants(d.root) {
			d.order[el] = i
		}
	}
	return d.order[n]
}

func (d *document) wrap(s *DocumentSession, nodes []*html.Node) []interfaces.Element {
	out := make([]interfaces.Element, 0, len(nodes))
	for _, n := range nodes {
		if n.Type != html.ElementNode {
			continue
		}
		out = append(out, &documentElement{session: s, doc: d, node: n})
	}
	return out
}

// find runs one locator below scope
func (d *document) find(s *DocumentSession, scope *html.Node, by entities.Locator) ([]interfaces.Element, error) {
	switch by.How {
	case entities.HowID:
		return d.wrap(s, filterDescendants(scope, func(n *html.Node) bool {
			return attr(n, "id") == by.Using
		})), nil
	case entities.HowName:
		return d.wrap(s, filterDescendants(scope, func(n *html.Node) bool {
			return attr(n, "name") == by.Using
		})), nil
	case entities.HowTagName:
		return d.wrap(s, filterDescendants(scope, func(n *html.Node) bool {
			return strings.EqualFold(n.Data, by.Using)
		})), nil
	case entities.HowClassName:
		if strings.ContainsAny(by.Using, " \t\n") {
			return nil, fmt.Errorf("invalid selector: compound class names are not permitted: %q", by.Using)
		}
		return d.wrap(s, filterDescendants(scope, func(n *html.Node) bool {
			for _, class := range strings.Fields(attr(n, "class")) {
				if class == by.Using {
					return true
				}
			}
			return false
		})), nil
	case entities.HowCSSSelector:
		selector, err := cascadia.Compile(by.Using)
		if err != nil {
			return nil, fmt.Errorf("invalid selector %q: %w", by.Using, err)
		}
		return d.wrap(s, goquery.NewDocumentFromNode(scope).FindMatcher(selector).Nodes), nil
	case entities.HowXPath:
		nodes, err := htmlquery.QueryAll(scope, by.Using)
		if err != nil {
			return nil, fmt.Errorf("invalid xpath %q: %w", by.Using, err)
		}
		return d.wrap(s, nodes), nil
	case entities.HowLinkText, entities.HowPartialLinkText:
		partial := by.How == entities.HowPartialLinkText
		return d.wrap(s, filterDescendants(scope, func(n *html.Node) bool {
			if n.Data != "a" {
				return false
			}
			text := visibleText(n)
			if partial {
				return strings.Contains(text, by.Using)
			}
			return text == by.Using
		})), nil
	default:
		return nil, fmt.Errorf("unsupported locator strategy %q", by.How)
	}
}

// firstOf adapts a FindElements result to FindElement semantics
func firstOf(found []interfaces.Element, err error) func(entities.Locator) (interfaces.Element, error) {
	return func(by entities.Locator) (interfaces.Element, error) {
		if err != nil {
			return nil, err
		}
		if len(found) == 0 {
			return nil, fmt.Errorf("%s: %w", by, entities.ErrNotFound)
		}
		return found[0], nil
	}
}

// descendants lists the element nodes below n in document order, n excluded
func descendants(n *html.Node) []*html.Node {
	return filterDescendants(n, func(*html.Node) bool { return true })
}

func filterDescendants(n *html.Node, keep func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(parent *html.Node) {
		for c := parent.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && keep(c) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(n)
	return out
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, name string) bool {
	for _, a := range n.Attr {
		if a.Key == name {
			return true
		}
	}
	return false
}

func setAttr(n *html.Node, name, value string) {
	for i, a := range n.Attr {
		if a.Key == name {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
}

func removeAttr(n *html.Node, name string) {
	for i, a := range n.Attr {
		if a.Key == name {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

var neverRendered = map[string]bool{
	"head": true, "script": true, "style": true, "title": true,
	"meta": true, "link": true, "template": true, "noscript": true,
}

// displayed approximates CSS visibility from markup alone
func displayed(n *html.Node) bool {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type != html.ElementNode {
			continue
		}
		if neverRendered[cur.Data] || hasAttr(cur, "hidden") {
			return false
		}
		if cur.Data == "input" && strings.EqualFold(attr(cur, "type"), "hidden") {
			return false
		}
		style := strings.ToLower(strings.ReplaceAll(attr(cur, "style"), " ", ""))
		if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
			return false
		}
	}
	return true
}

// visibleText returns the rendered text of n with whitespace collapsed
func visibleText(n *html.Node) string {
	if !displayed(n) {
		return ""
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(cur *html.Node) {
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.TextNode:
				b.WriteString(c.Data)
				b.WriteByte(' ')
			case html.ElementNode:
				if c.Data == "br" {
					b.WriteByte(' ')
					continue
				}
				if displayed(c) {
					walk(c)
				}
			}
		}
	}
	walk(n)
	return strings.Join(strings.Fields(strings.ReplaceAll(b.String(), " ", " ")), " ")
}

var _ interfaces.Session = (*DocumentSession)(nil)
