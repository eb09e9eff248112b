package pagefactory

import (
	"fmt"
	"reflect"

	"page_factory/domain/entities"
	"page_factory/domain/interfaces"
)

// Struct tags read from page objects
const (
	TagFind   = "find"
	TagLocate = "locate"
)

// FieldKind tells whether a field holds one element or a list of them
type FieldKind string

const (
	KindElement FieldKind = "element"
	KindList    FieldKind = "list"
)

var (
	elementType      = reflect.TypeOf((*interfaces.Element)(nil)).Elem()
	proxyPtrType     = reflect.TypeOf((*ElementProxy)(nil))
	elementListPtrTy = reflect.TypeOf((*ElementList)(nil))
)

// FieldDefinition is the validated declaration of one page object field
type FieldDefinition struct {
	Name       string
	Kind       FieldKind
	Markers    Markers
	Combinator *Combinator
	fieldIndex []int
}

// CacheLookup reports whether the field keeps its first resolution
func (f *FieldDefinition) CacheLookup() bool { return f.Markers.CacheLookup }

// PageDefinition is the validated set of field declarations of one page type
type PageDefinition struct {
	Name   string
	Fields []*FieldDefinition

	pageType reflect.Type
}

// Field returns the named field definition
func (d *PageDefinition) Field(name string) (*FieldDefinition, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// FieldSpec is an unvalidated field declaration, as written in tags, builders or catalogs
type FieldSpec struct {
	Name     string
	Kind     FieldKind
	Markers  Markers
	Locators []entities.Locator
}

// Compile - validates a field declaration
func (s FieldSpec) Compile(page string) (*FieldDefinition, error) {
	combinator, err := NewCombinator(s.Markers, s.Locators...)
	if err != nil {
		return nil, withField(err, page, s.Name)
	}
	kind := s.Kind
	if kind == "" {
		kind = KindElement
	}
	if kind != KindElement && kind != KindList {
		return nil, &entities.ConfigurationError{Page: page, Field: s.Name, Reason: fmt.Sprintf("unknown field kind %q", kind)}
	}
	if kind == KindList && s.Markers.CacheLookup {
		return nil, &entities.ConfigurationError{Page: page, Field: s.Name, Reason: "cache lookup is only supported on single element fields"}
	}
	return &FieldDefinition{
		Name:       s.Name,
		Kind:       kind,
		Markers:    s.Markers,
		Combinator: combinator,
	}, nil
}

// NewPageDefinition - validates a set of field declarations that are not tied to a Go type
func NewPageDefinition(name string, specs ...FieldSpec) (*PageDefinition, error) {
	def := &PageDefinition{Name: name}
	seen := make(map[string]bool, len(specs))
	for _, spec := range specs {
		if spec.Name == "" {
			return nil, &entities.ConfigurationError{Page: name, Reason: "field without a name"}
		}
		if seen[spec.Name] {
			return nil, &entities.ConfigurationError{Page: name, Field: spec.Name, Reason: "declared twice"}
		}
		seen[spec.Name] = true

		field, err := spec.Compile(name)
		if err != nil {
			return nil, err
		}
		def.Fields = append(def.Fields, field)
	}
	return def, nil
}

// discoverFields builds the definition of a page struct from its find/locate tags
func discoverFields(pageType reflect.Type) (*PageDefinition, error) {
	t := pageType
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, &entities.ConfigurationError{Page: t.String(), Reason: "page object must be a pointer to a struct"}
	}

	def := &PageDefinition{Name: t.Name(), pageType: t}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		findTag, hasFind := field.Tag.Lookup(TagFind)
		locateTag, hasLocate := field.Tag.Lookup(TagLocate)
		if !hasFind && !hasLocate {
			continue
		}
		if !field.IsExported() {
			return nil, &entities.ConfigurationError{Page: def.Name, Field: field.Name, Reason: "annotated field must be exported"}
		}

		markers, err := ParseMarkers(locateTag)
		if err != nil {
			return nil, withField(err, def.Name, field.Name)
		}
		// mode markers are checked before the locators so that an illegal combination is
		// reported as such even when the locators are fine
		if _, err := markers.Mode(); err != nil {
			return nil, withField(err, def.Name, field.Name)
		}
		if !hasFind {
			return nil, &entities.ConfigurationError{Page: def.Name, Field: field.Name, Reason: "locate markers without a find tag"}
		}
		locators, err := entities.ParseLocators(findTag)
		if err != nil {
			return nil, withField(err, def.Name, field.Name)
		}

		kind, err := kindOf(field.Type)
		if err != nil {
			return nil, withField(err, def.Name, field.Name)
		}

		compiled, err := FieldSpec{Name: field.Name, Kind: kind, Markers: markers, Locators: locators}.Compile(def.Name)
		if err != nil {
			return nil, err
		}
		compiled.fieldIndex = field.Index
		def.Fields = append(def.Fields, compiled)
	}
	return def, nil
}

func kindOf(t reflect.Type) (FieldKind, error) {
	switch t {
	case elementType, proxyPtrType:
		return KindElement, nil
	case elementListPtrTy:
		return KindList, nil
	default:
		return "", &entities.ConfigurationError{Reason: fmt.Sprintf("unsupported field type %s, want interfaces.Element, *ElementProxy or *ElementList", t)}
	}
}

// withField fills in the page and field of a configuration error
func withField(err error, page, field string) error {
	if cfg, ok := err.(*entities.ConfigurationError); ok {
		out := *cfg
		if out.Page == "" {
			out.Page = page
		}
		if out.Field == "" {
			out.Field = field
		}
		return &out
	}
	return err
}
