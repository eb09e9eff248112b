package pagefactory

import (
	"strings"

	"page_factory/domain/entities"
	"page_factory/domain/interfaces"
)

// CompilePage - validates a stored page declaration
func CompilePage(spec entities.PageSpec) (*PageDefinition, error) {
	fields := make([]FieldSpec, 0, len(spec.Fields))
	for _, f := range spec.Fields {
		markers, err := ParseMarkers(strings.Join(f.Markers, ","))
		if err != nil {
			return nil, withField(err, spec.Name, f.Name)
		}
		fields = append(fields, FieldSpec{
			Name:     f.Name,
			Kind:     FieldKind(f.Kind),
			Markers:  markers,
			Locators: f.Locators,
		})
	}
	if spec.Name == "" {
		return nil, &entities.ConfigurationError{Reason: "page without a name"}
	}
	return NewPageDefinition(spec.Name, fields...)
}

// LoadDefinitions - reads every page of a store and validates all of them.
// Either every page compiles or none is returned.
func LoadDefinitions(store interfaces.PageStore) (map[string]*PageDefinition, []entities.PageSpec, error) {
	specs, err := store.LoadPages()
	if err != nil {
		return nil, nil, err
	}
	defs := make(map[string]*PageDefinition, len(specs))
	for _, spec := range specs {
		if _, dup := defs[spec.Name]; dup {
			return nil, nil, &entities.ConfigurationError{Page: spec.Name, Reason: "page declared twice"}
		}
		def, err := CompilePage(spec)
		if err != nil {
			return nil, nil, err
		}
		defs[spec.Name] = def
	}
	return defs, specs, nil
}
