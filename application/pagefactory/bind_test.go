package pagefactory

import (
	"context"
	"testing"

	"page_factory/domain/entities"
	"page_factory/domain/interfaces"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBind(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	var (
		form   interfaces.Element
		nested interfaces.Element
		links  *ElementList
	)
	err := New().Bind(pageDOM(),
		ElementField(&form, entities.ByName("someForm")).Named("form").CacheLookup(),
		ElementField(&nested, entities.ByID("parent"), entities.ByID("child").WithPriority(1)).Sequence(),
		ListField(&links, entities.ByTagName("a"), entities.ByTagName("form")).All(),
	)
	require.NoError(t, err)

	tag, err := form.TagName(ctx)
	require.NoError(t, err)
	assert.Equal(t, "form", tag)
	assert.Contains(t, form.(*ElementProxy).String(), "form")

	text, err := nested.Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "I'm a child", text)

	n, err := links.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestBindIsAllOrNothing(t *testing.T) {
	t.Parallel()

	var good, bad interfaces.Element
	err := New().Bind(pageDOM(),
		ElementField(&good, entities.ByID("parent")),
		ElementField(&bad, entities.ByID("parent"), entities.ByID("child")).Sequence().All(),
	)
	assert.ErrorIs(t, err, entities.ErrConfiguration)
	assert.Nil(t, good)
	assert.Nil(t, bad)

	err = New().Bind(pageDOM(), ElementField(nil, entities.ByID("x")))
	assert.ErrorIs(t, err, entities.ErrConfiguration)
}
