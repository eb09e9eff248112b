// Package pagefactory binds page object fields to lazily located browser elements.
//
// A page object is a struct whose element fields declare how to find them:
//
//	type LoginPage struct {
//		User   interfaces.Element    `find:"id=username"`
//		Nested interfaces.Element    `find:"id=parent; id=child" locate:"sequence"`
//		Links  *pagefactory.ElementList `find:"tag name=a"`
//	}
//
// InitElements installs proxies into those fields. Nothing touches the browser until a
// proxy is used; every use re-locates the element if the previous one went stale.
package pagefactory

import (
	"fmt"
	"io"
	"reflect"
	"sync"

	"page_factory/domain/entities"
	"page_factory/domain/interfaces"

	"github.com/sirupsen/logrus"
)

// Factory keeps the page definitions of every registered page type
type Factory struct {
	logger *logrus.Logger

	mu          sync.Mutex
	definitions map[reflect.Type]*PageDefinition
}

// Option configures a Factory
type Option func(*Factory)

// WithLogger sets the logger used for debug output
func WithLogger(logger *logrus.Logger) Option {
	return func(f *Factory) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// New - creates a factory with an empty registry
func New(opts ...Option) *Factory {
	f := &Factory{
		logger:      discardLogger(),
		definitions: make(map[reflect.Type]*PageDefinition),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

var defaultFactory = New()

// InitElements binds page using the package level factory
func InitElements(root interfaces.SearchContext, page any) error {
	return defaultFactory.InitElements(root, page)
}

// Register - discovers the tagged fields of a page type. The result is cached per type;
// configuration errors are returned every time.
func (f *Factory) Register(page any) (*PageDefinition, error) {
	pageType, err := pageTypeOf(page)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if def, ok := f.definitions[pageType]; ok {
		return def, nil
	}
	def, err := discoverFields(pageType)
	if err != nil {
		return nil, err
	}
	f.definitions[pageType] = def
	f.logger.Debugf("registered page %s with %d fields", def.Name, len(def.Fields))
	return def, nil
}

// Definition returns the cached definition of a page type, if any
func (f *Factory) Definition(page any) (*PageDefinition, bool) {
	pageType, err := pageTypeOf(page)
	if err != nil {
		return nil, false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	def, ok := f.definitions[pageType]
	return def, ok
}

func (f *Factory) store(def *PageDefinition) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.definitions[def.pageType] = def
}

// InitElements - installs fresh proxies into every declared field of page.
//
// The whole definition is validated before any field is written: a configuration
// error leaves page untouched and the session unused. Calling it again replaces the
// proxies with new ones.
func (f *Factory) InitElements(root interfaces.SearchContext, page any) error {
	def, err := f.Register(page)
	if err != nil {
		return err
	}
	if root == nil {
		return fmt.Errorf("pagefactory: nil search context for %s", def.Name)
	}

	v := reflect.ValueOf(page).Elem()
	for _, field := range def.Fields {
		target := v.FieldByIndex(field.fieldIndex)
		name := def.Name + "." + field.Name
		switch field.Kind {
		case KindList:
			target.Set(reflect.ValueOf(newElementList(name, field.Combinator, root, f.logger)))
		default:
			target.Set(reflect.ValueOf(newElementProxy(name, field.Combinator, root, field.CacheLookup(), f.logger)))
		}
	}
	f.logger.Debugf("bound %d fields of %s", len(def.Fields), def.Name)
	return nil
}

// BoundPage is a page object addressed by field name, for definitions without a Go type
type BoundPage struct {
	Definition *PageDefinition

	elements map[string]*ElementProxy
	lists    map[string]*ElementList
}

// BindDefinition - creates proxies for every field of a definition
func (f *Factory) BindDefinition(root interfaces.SearchContext, def *PageDefinition) *BoundPage {
	page := &BoundPage{
		Definition: def,
		elements:   make(map[string]*ElementProxy),
		lists:      make(map[string]*ElementList),
	}
	for _, field := range def.Fields {
		name := def.Name + "." + field.Name
		if field.Kind == KindList {
			page.lists[field.Name] = newElementList(name, field.Combinator, root, f.logger)
			continue
		}
		page.elements[field.Name] = newElementProxy(name, field.Combinator, root, field.CacheLookup(), f.logger)
	}
	return page
}

// Element returns the proxy bound to a single element field
func (p *BoundPage) Element(name string) (*ElementProxy, bool) {
	el, ok := p.elements[name]
	return el, ok
}

// List returns the list bound to a multi element field
func (p *BoundPage) List(name string) (*ElementList, bool) {
	l, ok := p.lists[name]
	return l, ok
}

// Names returns the field names in declaration order
func (p *BoundPage) Names() []string {
	names := make([]string, 0, len(p.Definition.Fields))
	for _, field := range p.Definition.Fields {
		names = append(names, field.Name)
	}
	return names
}

func pageTypeOf(page any) (reflect.Type, error) {
	if page == nil {
		return nil, &entities.ConfigurationError{Reason: "nil page object"}
	}
	v := reflect.ValueOf(page)
	if v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return nil, &entities.ConfigurationError{Page: v.Type().String(), Reason: "page object must be a non-nil pointer to a struct"}
	}
	return v.Elem().Type(), nil
}

func discardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
