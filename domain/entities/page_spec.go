package entities

// FieldSpec is a field declaration as stored outside of Go code
type FieldSpec struct {
	Name     string    `json:"name" yaml:"name"`
	Kind     string    `json:"kind,omitempty" yaml:"kind,omitempty"`
	Markers  []string  `json:"locate,omitempty" yaml:"locate,omitempty"`
	Locators []Locator `json:"find" yaml:"find"`
}

// PageSpec is a named page object declaration with an optional default URL
type PageSpec struct {
	Name   string      `json:"name" yaml:"name"`
	URL    string      `json:"url,omitempty" yaml:"url,omitempty"`
	Fields []FieldSpec `json:"fields" yaml:"fields"`
}
