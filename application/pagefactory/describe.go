package pagefactory

import (
	"context"

	"page_factory/domain/entities"
	"page_factory/domain/interfaces"
)

// Describe - takes a snapshot of an element for display. The location is left out
// for elements that cannot report one.
func Describe(ctx context.Context, field string, index int, el interfaces.Element) (entities.ElementSummary, error) {
	summary := entities.ElementSummary{Field: field, Index: index}

	tag, err := el.TagName(ctx)
	if err != nil {
		return summary, err
	}
	summary.TagName = tag

	if summary.IsVisible, err = el.IsDisplayed(ctx); err != nil {
		return summary, err
	}
	if summary.Text, err = el.Text(ctx); err != nil {
		return summary, err
	}

	if locatable, ok := el.(interfaces.Locatable); ok {
		if p, err := locatable.LocationInViewport(ctx); err == nil {
			summary.Location = &p
		}
	}
	return summary, nil
}

// DescribeList - snapshots every element currently in the list
func DescribeList(ctx context.Context, field string, list *ElementList) ([]entities.ElementSummary, error) {
	proxies, err := list.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]entities.ElementSummary, 0, len(proxies))
	for i, p := range proxies {
		summary, err := Describe(ctx, field, i, p)
		if err != nil {
			return nil, err
		}
		out = append(out, summary)
	}
	return out, nil
}
