package pagefactory

import (
	"context"
	"testing"

	"page_factory/domain/entities"
	"page_factory/domain/interfaces"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identities(t *testing.T, found []interfaces.Element) []string {
	t.Helper()
	ids := make([]string, 0, len(found))
	for _, el := range found {
		id, err := el.Identity(context.Background())
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

func TestParseMarkers(t *testing.T) {
	t.Parallel()

	m, err := ParseMarkers("sequence, cache")
	require.NoError(t, err)
	assert.Equal(t, Markers{Sequence: true, CacheLookup: true}, m)

	m, err = ParseMarkers("")
	require.NoError(t, err)
	mode, err := m.Mode()
	require.NoError(t, err)
	assert.Equal(t, ModeFirstMatch, mode)

	_, err = ParseMarkers("sequence,bogus")
	assert.ErrorIs(t, err, entities.ErrConfiguration)
}

func TestNewCombinatorRejectsSequenceWithAll(t *testing.T) {
	t.Parallel()

	_, err := NewCombinator(Markers{Sequence: true, All: true}, entities.ByID("parent"), entities.ByID("child"))
	require.Error(t, err)
	assert.ErrorIs(t, err, entities.ErrConfiguration)
	assert.Contains(t, err.Error(), "cannot specify sequence and all")
}

func TestNewCombinatorValidatesLocators(t *testing.T) {
	t.Parallel()

	_, err := NewCombinator(Markers{})
	assert.ErrorIs(t, err, entities.ErrConfiguration)

	_, err = NewCombinator(Markers{}, entities.Locator{How: "shadow", Using: "x"})
	assert.ErrorIs(t, err, entities.ErrConfiguration)
}

func TestNewCombinatorOrdersByPriority(t *testing.T) {
	t.Parallel()

	c, err := NewCombinator(Markers{Sequence: true},
		entities.ByID("child").WithPriority(1),
		entities.ByID("parent").WithPriority(0),
		entities.ByID("grandchild").WithPriority(1),
	)
	require.NoError(t, err)
	assert.Equal(t, []entities.Locator{
		entities.ByID("parent"),
		entities.ByID("child").WithPriority(1),
		entities.ByID("grandchild").WithPriority(1),
	}, c.Locators())
	assert.Equal(t, "By.Chained([By.Id: parent, By.Id: child, By.Id: grandchild])", c.String())
}

func TestFirstMatch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	dom := newFakeDOM()
	dom.add(entities.ByName("fallback"), node("f1", "input", ""), node("f2", "input", ""))

	c, err := NewCombinator(Markers{}, entities.ByID("missing"), entities.ByName("fallback").WithPriority(1))
	require.NoError(t, err)
	assert.Equal(t, ModeFirstMatch, c.Mode())

	el, err := c.FindElement(ctx, dom)
	require.NoError(t, err)
	id, _ := el.Identity(ctx)
	assert.Equal(t, "f1", id)

	found, err := c.FindElements(ctx, dom)
	require.NoError(t, err)
	assert.Equal(t, []string{"f1", "f2"}, identities(t, found))
	assert.Equal(t, 2, dom.finds["id=missing"])
}

func TestFirstMatchNothingFound(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	c, err := NewCombinator(Markers{}, entities.ByID("a"), entities.ByID("b"))
	require.NoError(t, err)

	_, err = c.FindElement(ctx, newFakeDOM())
	require.Error(t, err)
	assert.True(t, entities.IsNotFound(err))

	var notFound *entities.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "first match", notFound.Mode)
	assert.Len(t, notFound.Locators, 2)

	found, err := c.FindElements(ctx, newFakeDOM())
	require.NoError(t, err)
	assert.NotNil(t, found)
	assert.Empty(t, found)
}

func TestSequence(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	dom := newFakeDOM()
	dom.add(entities.ByID("parent"),
		node("parent", "div", "").with(entities.ByID("child"), node("child", "span", "I'm a child")))

	c, err := NewCombinator(Markers{Sequence: true}, entities.ByID("parent"), entities.ByID("child").WithPriority(1))
	require.NoError(t, err)

	el, err := c.FindElement(ctx, dom)
	require.NoError(t, err)
	text, err := el.Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "I'm a child", text)

	// the child locator is never tried against the root
	assert.Zero(t, dom.finds["id=child"])
}

func TestSequenceSearchesEveryScope(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	dom := newFakeDOM()
	dom.add(entities.ByTagName("ul"),
		node("ul1", "ul", "").with(entities.ByTagName("li"), node("a", "li", ""), node("b", "li", "")),
		node("ul2", "ul", ""),
		node("ul3", "ul", "").with(entities.ByTagName("li"), node("c", "li", "")),
	)

	c, err := NewCombinator(Markers{Sequence: true}, entities.ByTagName("ul"), entities.ByTagName("li").WithPriority(1))
	require.NoError(t, err)

	found, err := c.FindElements(ctx, dom)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, identities(t, found))
}

func TestSequenceBrokenLink(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	dom := newFakeDOM()
	dom.add(entities.ByID("parent"), node("parent", "div", ""))

	c, err := NewCombinator(Markers{Sequence: true}, entities.ByID("parent"), entities.ByID("child").WithPriority(1))
	require.NoError(t, err)

	_, err = c.FindElement(ctx, dom)
	require.Error(t, err)
	assert.True(t, entities.IsNotFound(err))
	assert.Contains(t, err.Error(), "link 1")

	found, err := c.FindElements(ctx, dom)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestAllConcatenatesInDescriptorOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	form := node("form", "form", "")
	dom := newFakeDOM()
	dom.add(entities.ByTagName("form"), form)
	dom.add(entities.ByName("someForm"), form)
	dom.add(entities.ByTagName("input"), node("i1", "input", ""), node("i2", "input", ""))

	c, err := NewCombinator(Markers{All: true},
		entities.ByName("someForm").WithPriority(1),
		entities.ByTagName("form"),
		entities.ByTagName("input").WithPriority(2),
	)
	require.NoError(t, err)
	assert.Equal(t, "By.All([By.TagName: form, By.Name: someForm, By.TagName: input])", c.String())

	found, err := c.FindElements(ctx, dom)
	require.NoError(t, err)
	// duplicates are kept
	assert.Equal(t, []string{"form", "form", "i1", "i2"}, identities(t, found))

	el, err := c.FindElement(ctx, dom)
	require.NoError(t, err)
	id, _ := el.Identity(ctx)
	assert.Equal(t, "form", id)
}

func TestAllNothingFound(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	c, err := NewCombinator(Markers{All: true}, entities.ByID("a"), entities.ByID("b"))
	require.NoError(t, err)

	_, err = c.FindElement(ctx, newFakeDOM())
	assert.True(t, entities.IsNotFound(err))

	found, err := c.FindElements(ctx, newFakeDOM())
	require.NoError(t, err)
	assert.Empty(t, found)
}
