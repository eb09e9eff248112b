package pagefactory

import (
	"fmt"

	"page_factory/domain/entities"
	"page_factory/domain/interfaces"
)

// FieldBinding pairs a destination variable with the locators that fill it.
// It is the reflection free counterpart of tagged page structs.
type FieldBinding struct {
	spec    FieldSpec
	element *interfaces.Element
	list    **ElementList
}

// ElementField binds a single element variable
func ElementField(dst *interfaces.Element, locators ...entities.Locator) *FieldBinding {
	return &FieldBinding{spec: FieldSpec{Kind: KindElement, Locators: locators}, element: dst}
}

// ListField binds a multi element variable
func ListField(dst **ElementList, locators ...entities.Locator) *FieldBinding {
	return &FieldBinding{spec: FieldSpec{Kind: KindList, Locators: locators}, list: dst}
}

// Named sets the name used in errors and logs
func (b *FieldBinding) Named(name string) *FieldBinding {
	b.spec.Name = name
	return b
}

// Sequence marks the binding for chained lookup
func (b *FieldBinding) Sequence() *FieldBinding {
	b.spec.Markers.Sequence = true
	return b
}

// All marks the binding for union lookup
func (b *FieldBinding) All() *FieldBinding {
	b.spec.Markers.All = true
	return b
}

// CacheLookup keeps the first resolution forever
func (b *FieldBinding) CacheLookup() *FieldBinding {
	b.spec.Markers.CacheLookup = true
	return b
}

// Bind - validates every binding, then writes a fresh proxy into each destination.
// Nothing is written when any binding is invalid.
func (f *Factory) Bind(root interfaces.SearchContext, bindings ...*FieldBinding) error {
	compiled := make([]*FieldDefinition, len(bindings))
	for i, b := range bindings {
		if b.spec.Name == "" {
			b.spec.Name = fmt.Sprintf("binding %d", i)
		}
		if b.element == nil && b.list == nil {
			return &entities.ConfigurationError{Field: b.spec.Name, Reason: "nil destination"}
		}
		def, err := b.spec.Compile("")
		if err != nil {
			return err
		}
		compiled[i] = def
	}
	if root == nil {
		return fmt.Errorf("pagefactory: nil search context")
	}

	for i, b := range bindings {
		def := compiled[i]
		if b.list != nil {
			*b.list = newElementList(def.Name, def.Combinator, root, f.logger)
			continue
		}
		*b.element = newElementProxy(def.Name, def.Combinator, root, def.CacheLookup(), f.logger)
	}
	return nil
}
