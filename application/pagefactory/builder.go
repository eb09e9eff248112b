package pagefactory

import (
	"fmt"
	"reflect"

	"page_factory/domain/entities"
)

// PageBuilder declares the fields of a page type explicitly instead of through tags
type PageBuilder struct {
	factory  *Factory
	pageType reflect.Type
	err      error
	fields   []*FieldBuilder
}

// FieldBuilder provides fluent API for configuring one field
type FieldBuilder struct {
	page *PageBuilder
	spec FieldSpec
}

// Define starts an explicit declaration for the type of page. Fields declared here
// replace tag declarations of the same name; other tagged fields are kept.
func (f *Factory) Define(page any) *PageBuilder {
	pageType, err := pageTypeOf(page)
	return &PageBuilder{factory: f, pageType: pageType, err: err}
}

// Element declares a single element field
func (b *PageBuilder) Element(name string) *FieldBuilder {
	return b.field(name, KindElement)
}

// List declares a multi element field
func (b *PageBuilder) List(name string) *FieldBuilder {
	return b.field(name, KindList)
}

func (b *PageBuilder) field(name string, kind FieldKind) *FieldBuilder {
	fb := &FieldBuilder{page: b, spec: FieldSpec{Name: name, Kind: kind}}
	b.fields = append(b.fields, fb)
	return fb
}

// Register - validates every declared field and stores the definition in the factory
func (b *PageBuilder) Register() (*PageDefinition, error) {
	if b.err != nil {
		return nil, b.err
	}

	// compile everything before touching the registry
	tagged, err := discoverFields(b.pageType)
	if err != nil {
		return nil, err
	}
	def := &PageDefinition{Name: tagged.Name, pageType: b.pageType}
	explicit := make(map[string]*FieldDefinition, len(b.fields))
	order := make([]string, 0, len(b.fields))
	for _, fb := range b.fields {
		if _, dup := explicit[fb.spec.Name]; dup {
			return nil, &entities.ConfigurationError{Page: def.Name, Field: fb.spec.Name, Reason: "declared twice"}
		}
		structField, ok := b.pageType.FieldByName(fb.spec.Name)
		if !ok || !structField.IsExported() {
			return nil, &entities.ConfigurationError{Page: def.Name, Field: fb.spec.Name, Reason: "no such exported field"}
		}
		kind, err := kindOf(structField.Type)
		if err != nil {
			return nil, withField(err, def.Name, fb.spec.Name)
		}
		if kind != fb.spec.Kind {
			return nil, &entities.ConfigurationError{
				Page:   def.Name,
				Field:  fb.spec.Name,
				Reason: fmt.Sprintf("declared as %s but the field type %s holds a %s", fb.spec.Kind, structField.Type, kind),
			}
		}
		compiled, err := fb.spec.Compile(def.Name)
		if err != nil {
			return nil, err
		}
		compiled.fieldIndex = structField.Index
		explicit[fb.spec.Name] = compiled
		order = append(order, fb.spec.Name)
	}

	for _, field := range tagged.Fields {
		if _, overridden := explicit[field.Name]; !overridden {
			def.Fields = append(def.Fields, field)
		}
	}
	for _, name := range order {
		def.Fields = append(def.Fields, explicit[name])
	}

	b.factory.store(def)
	b.factory.logger.Debugf("defined page %s with %d fields", def.Name, len(def.Fields))
	return def, nil
}

// FindBy adds a locator with an explicit priority
func (fb *FieldBuilder) FindBy(how entities.How, using string, priority int) *FieldBuilder {
	fb.spec.Locators = append(fb.spec.Locators, entities.Locator{How: how, Using: using, Priority: priority})
	return fb
}

// Find adds locators as given
func (fb *FieldBuilder) Find(locators ...entities.Locator) *FieldBuilder {
	fb.spec.Locators = append(fb.spec.Locators, locators...)
	return fb
}

// Sequence marks the field for chained lookup
func (fb *FieldBuilder) Sequence() *FieldBuilder {
	fb.spec.Markers.Sequence = true
	return fb
}

// All marks the field for union lookup
func (fb *FieldBuilder) All() *FieldBuilder {
	fb.spec.Markers.All = true
	return fb
}

// CacheLookup keeps the first resolution of the field forever
func (fb *FieldBuilder) CacheLookup() *FieldBuilder {
	fb.spec.Markers.CacheLookup = true
	return fb
}

// Element continues with the next single element field
func (fb *FieldBuilder) Element(name string) *FieldBuilder {
	return fb.page.Element(name)
}

// List continues with the next multi element field
func (fb *FieldBuilder) List(name string) *FieldBuilder {
	return fb.page.List(name)
}

// Register finishes the page declaration
func (fb *FieldBuilder) Register() (*PageDefinition, error) {
	return fb.page.Register()
}
