package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"page_factory/domain/entities"
	"page_factory/domain/interfaces"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// pageCatalog stores page declarations in one YAML file:
//
//	pages:
//	  - name: Login
//	    url: login.html
//	    fields:
//	      - name: User
//	        find: ["id=username", {how: name, using: user, priority: 5}]
//	      - name: Rows
//	        kind: list
//	        locate: [all]
//	        find: ["css selector=tr.odd", "css selector=tr.even"]
//
// A locator given as "how=using" gets its position as priority.
type pageCatalog struct {
	fs   afero.Fs
	path string
}

type catalogFile struct {
	Pages []catalogPage `yaml:"pages"`
}

type catalogPage struct {
	Name   string         `yaml:"name"`
	URL    string         `yaml:"url,omitempty"`
	Fields []catalogField `yaml:"fields"`
}

type catalogField struct {
	Name   string           `yaml:"name"`
	Kind   string           `yaml:"kind,omitempty"`
	Locate []string         `yaml:"locate,omitempty"`
	Find   []catalogLocator `yaml:"find"`
}

// catalogLocator accepts both the "how=using" shorthand and the mapping form
type catalogLocator struct {
	entities.Locator
	explicitPriority bool
}

func (l *catalogLocator) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		parsed, err := entities.ParseLocator(value.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", value.Line, err)
		}
		l.Locator = parsed
		return nil
	}

	var raw struct {
		How      string `yaml:"how"`
		Using    string `yaml:"using"`
		Priority *int   `yaml:"priority"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	how, err := entities.ParseHow(raw.How)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	l.Locator = entities.Locator{How: how, Using: raw.Using}
	if raw.Priority != nil {
		l.Priority = *raw.Priority
		l.explicitPriority = true
	}
	return nil
}

func (l catalogLocator) MarshalYAML() (interface{}, error) {
	if !l.explicitPriority {
		return string(l.How) + "=" + l.Using, nil
	}
	return struct {
		How      entities.How `yaml:"how"`
		Using    string       `yaml:"using"`
		Priority int          `yaml:"priority"`
	}{l.How, l.Using, l.Priority}, nil
}

// NewPageCatalog - creates a page store backed by a YAML file on fs
func NewPageCatalog(fs afero.Fs, path string) interfaces.PageStore {
	return &pageCatalog{fs: fs, path: path}
}

// LoadPages - reads and decodes the catalog file
func (c *pageCatalog) LoadPages() ([]entities.PageSpec, error) {
	data, err := afero.ReadFile(c.fs, c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []entities.PageSpec{}, nil
		}
		return nil, fmt.Errorf("failed to read page catalog: %w", err)
	}

	var file catalogFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return []entities.PageSpec{}, nil
		}
		return nil, fmt.Errorf("failed to parse page catalog %s: %w", c.path, err)
	}

	pages := make([]entities.PageSpec, 0, len(file.Pages))
	for _, p := range file.Pages {
		page := entities.PageSpec{Name: p.Name, URL: p.URL}
		for _, f := range p.Fields {
			field := entities.FieldSpec{Name: f.Name, Kind: f.Kind, Markers: f.Locate}
			for i, l := range f.Find {
				loc := l.Locator
				if !l.explicitPriority {
					loc.Priority = i
				}
				field.Locators = append(field.Locators, loc)
			}
			page.Fields = append(page.Fields, field)
		}
		pages = append(pages, page)
	}
	return pages, nil
}

// SavePages - writes the catalog file, creating its directory if needed
func (c *pageCatalog) SavePages(pages []entities.PageSpec) error {
	file := catalogFile{Pages: make([]catalogPage, 0, len(pages))}
	for _, p := range pages {
		page := catalogPage{Name: p.Name, URL: p.URL}
		for _, f := range p.Fields {
			field := catalogField{Name: f.Name, Kind: f.Kind, Locate: f.Markers}
			for i, l := range f.Locators {
				field.Find = append(field.Find, catalogLocator{Locator: l, explicitPriority: l.Priority != i})
			}
			page.Fields = append(page.Fields, field)
		}
		file.Pages = append(file.Pages, page)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(file); err != nil {
		return fmt.Errorf("failed to encode page catalog: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}

	if err := c.fs.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return fmt.Errorf("failed to create catalog directory: %w", err)
	}
	return afero.WriteFile(c.fs, c.path, buf.Bytes(), 0644)
}
