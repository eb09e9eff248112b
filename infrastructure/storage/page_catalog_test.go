package storage

import (
	"testing"

	"page_factory/domain/entities"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogYAML = `pages:
  - name: XhtmlTestPage
    url: xhtmlTest.html
    fields:
      - name: FormElement
        find: ["name=someForm"]
      - name: ByAllElement
        locate: [all]
        find:
          - {how: name, using: someForm, priority: 5}
          - tag name=form
      - name: AllLinks
        kind: list
        find: ["tag name=a"]
`

func TestLoadPages(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "pages.yaml", []byte(catalogYAML), 0o644))

	pages, err := NewPageCatalog(fs, "pages.yaml").LoadPages()
	require.NoError(t, err)
	require.Len(t, pages, 1)

	page := pages[0]
	assert.Equal(t, "XhtmlTestPage", page.Name)
	assert.Equal(t, "xhtmlTest.html", page.URL)
	require.Len(t, page.Fields, 3)

	byAll := page.Fields[1]
	assert.Equal(t, []string{"all"}, byAll.Markers)
	assert.Equal(t, []entities.Locator{
		{How: entities.HowName, Using: "someForm", Priority: 5},
		{How: entities.HowTagName, Using: "form", Priority: 1},
	}, byAll.Locators)
	assert.Equal(t, "list", page.Fields[2].Kind)
}

func TestLoadPagesMissingOrEmpty(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	pages, err := NewPageCatalog(fs, "nope.yaml").LoadPages()
	require.NoError(t, err)
	assert.Empty(t, pages)

	require.NoError(t, afero.WriteFile(fs, "empty.yaml", nil, 0o644))
	pages, err = NewPageCatalog(fs, "empty.yaml").LoadPages()
	require.NoError(t, err)
	assert.Empty(t, pages)
}

func TestLoadPagesRejectsBadInput(t *testing.T) {
	t.Parallel()

	for name, content := range map[string]string{
		"unknown field":    "pages:\n  - name: P\n    title: nope\n",
		"unknown strategy": "pages:\n  - name: P\n    fields:\n      - name: F\n        find: [\"shadow=x\"]\n",
		"no separator":     "pages:\n  - name: P\n    fields:\n      - name: F\n        find: [\"someForm\"]\n",
		"not yaml":         "pages: [",
	} {
		t.Run(name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, "pages.yaml", []byte(content), 0o644))
			_, err := NewPageCatalog(fs, "pages.yaml").LoadPages()
			assert.Error(t, err)
		})
	}
}

func TestSavePagesRoundTrip(t *testing.T) {
	t.Parallel()

	pages := []entities.PageSpec{{
		Name: "Login",
		URL:  "login.html",
		Fields: []entities.FieldSpec{
			{Name: "User", Locators: []entities.Locator{
				entities.ByID("username"),
				entities.ByName("user").WithPriority(7),
			}},
			{Name: "Rows", Kind: "list", Markers: []string{"all"}, Locators: []entities.Locator{
				entities.ByCSSSelector("tr.odd"),
				entities.ByCSSSelector("tr.even").WithPriority(1),
			}},
		},
	}}

	fs := afero.NewMemMapFs()
	store := NewPageCatalog(fs, "catalogs/login.yaml")
	require.NoError(t, store.SavePages(pages))

	data, err := afero.ReadFile(fs, "catalogs/login.yaml")
	require.NoError(t, err)
	assert.Contains(t, string(data), "- id=username")
	assert.Contains(t, string(data), "priority: 7")
	assert.Contains(t, string(data), "- css selector=tr.even")

	loaded, err := store.LoadPages()
	require.NoError(t, err)
	assert.Equal(t, pages, loaded)
}
