package pagefactory

import (
	"context"
	"testing"

	"page_factory/domain/entities"
	"page_factory/domain/interfaces"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type taggedPage struct {
	Form     interfaces.Element `find:"name=someForm"`
	Nested   *ElementProxy      `find:"id=parent; id=child" locate:"sequence"`
	ByAll    interfaces.Element `find:"tag name=form; name=someForm" locate:"all"`
	Links    *ElementList       `find:"tag name=a"`
	Cached   interfaces.Element `find:"name=someForm" locate:"cache"`
	Untagged interfaces.Element
}

type sequenceAndAllPage struct {
	Fine     interfaces.Element `find:"id=fine"`
	NotFound interfaces.Element `find:"id=parent; id=child" locate:"sequence,all"`
}

func pageDOM() *fakeDOM {
	dom := newFakeDOM()
	form := node("form", "form", "")
	dom.add(entities.ByName("someForm"), form)
	dom.add(entities.ByTagName("form"), form)
	child := node("child", "span", "I'm a child")
	dom.add(entities.ByID("parent"), node("parent", "div", "").with(entities.ByID("child"), child))
	dom.add(entities.ByID("child"), child)
	dom.add(entities.ByTagName("a"), node("a0", "a", "Open new window"), node("a1", "a", "click me"))
	return dom
}

func TestInitElementsBindsTaggedFields(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	dom := pageDOM()
	page := &taggedPage{}
	require.NoError(t, New().InitElements(dom, page))

	assert.NotNil(t, page.Form)
	assert.NotNil(t, page.Nested)
	assert.NotNil(t, page.Links)
	assert.Nil(t, page.Untagged)
	// binding never touches the page
	assert.Empty(t, dom.finds)

	text, err := page.Nested.Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "I'm a child", text)

	displayed, err := page.ByAll.IsDisplayed(ctx)
	require.NoError(t, err)
	assert.True(t, displayed)

	n, err := page.Links.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	eq, err := Equal(ctx, page.Form, page.ByAll)
	require.NoError(t, err)
	assert.True(t, eq)
}

func TestInitElementsRejectsSequenceWithAll(t *testing.T) {
	t.Parallel()

	dom := newFakeDOM()
	page := &sequenceAndAllPage{}
	err := New().InitElements(dom, page)
	require.Error(t, err)
	assert.ErrorIs(t, err, entities.ErrConfiguration)

	var cfg *entities.ConfigurationError
	require.ErrorAs(t, err, &cfg)
	assert.Equal(t, "sequenceAndAllPage", cfg.Page)
	assert.Equal(t, "NotFound", cfg.Field)

	// nothing bound, nothing looked up
	assert.Nil(t, page.Fine)
	assert.Nil(t, page.NotFound)
	assert.Empty(t, dom.finds)
}

func TestInitElementsRejectsSequenceWithAllWithoutSession(t *testing.T) {
	t.Parallel()

	err := New().InitElements(nil, &sequenceAndAllPage{})
	assert.ErrorIs(t, err, entities.ErrConfiguration)
}

func TestInitElementsConfigurationErrors(t *testing.T) {
	t.Parallel()

	type unknownStrategy struct {
		F interfaces.Element `find:"shadow=x"`
	}
	type unknownMarker struct {
		F interfaces.Element `find:"id=x" locate:"fast"`
	}
	type markersWithoutFind struct {
		F interfaces.Element `locate:"sequence"`
	}
	type wrongType struct {
		F string `find:"id=x"`
	}
	type cachedList struct {
		F *ElementList `find:"id=x" locate:"cache"`
	}
	type unexported struct {
		f interfaces.Element `find:"id=x"`
	}

	for name, page := range map[string]any{
		"unknown strategy":     &unknownStrategy{},
		"unknown marker":       &unknownMarker{},
		"markers without find": &markersWithoutFind{},
		"wrong type":           &wrongType{},
		"cached list":          &cachedList{},
		"unexported":           &unexported{},
		"not a pointer":        unknownStrategy{},
		"nil":                  nil,
	} {
		t.Run(name, func(t *testing.T) {
			err := New().InitElements(newFakeDOM(), page)
			assert.ErrorIs(t, err, entities.ErrConfiguration)
		})
	}
}

func TestInitElementsNilRoot(t *testing.T) {
	t.Parallel()

	err := New().InitElements(nil, &taggedPage{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, entities.ErrConfiguration)
}

func TestInitElementsReplacesProxies(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	f := New()
	first, second := pageDOM(), pageDOM()
	page := &taggedPage{}
	require.NoError(t, f.InitElements(first, page))
	old := page.Form

	require.NoError(t, f.InitElements(second, page))
	assert.NotSame(t, old, page.Form)

	_, err := page.Form.Identity(ctx)
	require.NoError(t, err)
	assert.Empty(t, first.finds)
	assert.Equal(t, 1, second.finds["name=someForm"])
}

func TestRegisterCachesDefinitions(t *testing.T) {
	t.Parallel()

	f := New()
	def, err := f.Register(&taggedPage{})
	require.NoError(t, err)
	assert.Equal(t, "taggedPage", def.Name)
	require.Len(t, def.Fields, 5)

	nested, ok := def.Field("Nested")
	require.True(t, ok)
	assert.Equal(t, ModeSequence, nested.Combinator.Mode())
	cached, ok := def.Field("Cached")
	require.True(t, ok)
	assert.True(t, cached.CacheLookup())
	links, _ := def.Field("Links")
	assert.Equal(t, KindList, links.Kind)

	again, err := f.Register(&taggedPage{})
	require.NoError(t, err)
	assert.Same(t, def, again)

	stored, ok := f.Definition(&taggedPage{})
	require.True(t, ok)
	assert.Same(t, def, stored)
}

func TestPackageLevelInitElements(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	page := &taggedPage{}
	require.NoError(t, InitElements(pageDOM(), page))
	all, err := page.Links.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	text, err := all[0].Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Open new window", text)
}

func TestBindDefinition(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	def, err := NewPageDefinition("Dynamic",
		FieldSpec{Name: "Child", Markers: Markers{Sequence: true}, Locators: []entities.Locator{
			entities.ByID("parent"), entities.ByID("child").WithPriority(1),
		}},
		FieldSpec{Name: "Links", Kind: KindList, Locators: []entities.Locator{entities.ByTagName("a")}},
	)
	require.NoError(t, err)

	page := New().BindDefinition(pageDOM(), def)
	assert.Equal(t, []string{"Child", "Links"}, page.Names())

	child, ok := page.Element("Child")
	require.True(t, ok)
	text, err := child.Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "I'm a child", text)

	links, ok := page.List("Links")
	require.True(t, ok)
	n, err := links.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, ok = page.Element("Links")
	assert.False(t, ok)
}

func TestNewPageDefinitionErrors(t *testing.T) {
	t.Parallel()

	_, err := NewPageDefinition("P", FieldSpec{Locators: []entities.Locator{entities.ByID("x")}})
	assert.ErrorIs(t, err, entities.ErrConfiguration)

	_, err = NewPageDefinition("P",
		FieldSpec{Name: "A", Locators: []entities.Locator{entities.ByID("x")}},
		FieldSpec{Name: "A", Locators: []entities.Locator{entities.ByID("y")}},
	)
	assert.ErrorIs(t, err, entities.ErrConfiguration)

	_, err = NewPageDefinition("P", FieldSpec{Name: "A", Kind: "map", Locators: []entities.Locator{entities.ByID("x")}})
	assert.ErrorIs(t, err, entities.ErrConfiguration)
}
