package interfaces

import (
	"context"

	"page_factory/domain/entities"
)

// SearchContext is anything elements can be looked up from: the session root or an element
type SearchContext interface {
	// FindElement returns the first match, or an error wrapping entities.ErrNotFound
	FindElement(ctx context.Context, by entities.Locator) (Element, error)

	// FindElements returns every match in document order; no match is an empty slice
	FindElements(ctx context.Context, by entities.Locator) ([]Element, error)
}

// Session defines the browser automation session used to resolve page objects
type Session interface {
	SearchContext

	// Navigate loads a URL in the current top-level browsing context
	Navigate(ctx context.Context, url string) error

	// Refresh reloads the current document, invalidating every element handed out so far
	Refresh(ctx context.Context) error

	// CurrentURL returns the URL of the current document
	CurrentURL(ctx context.Context) (string, error)

	// ExecuteScript runs a script body with the given arguments; elements are passed by reference
	ExecuteScript(ctx context.Context, script string, args ...any) (any, error)

	// SwitchToFrame scopes further lookups to the document of an iframe element
	SwitchToFrame(ctx context.Context, frame Element) error

	// SwitchToDefaultContent scopes lookups back to the top-level document
	SwitchToDefaultContent(ctx context.Context) error

	// Close ends the session
	Close() error
}

// Element is a handle to one element, either resolved by a session or proxied
type Element interface {
	SearchContext

	// Identity returns a key that is equal for two handles to the same DOM node
	Identity(ctx context.Context) (string, error)

	IsDisplayed(ctx context.Context) (bool, error)
	Text(ctx context.Context) (string, error)
	TagName(ctx context.Context) (string, error)
	Attribute(ctx context.Context, name string) (string, error)

	Click(ctx context.Context) error
	Clear(ctx context.Context) error
	SendKeys(ctx context.Context, keys string) error

	// Hover moves the pointer over the element
	Hover(ctx context.Context) error
}

// Locatable is implemented by elements that can report their viewport position
type Locatable interface {
	LocationInViewport(ctx context.Context) (entities.Point, error)
}

// ScriptArgument is implemented by elements that can be handed to ExecuteScript
type ScriptArgument interface {
	// ScriptArgument returns the driver-native value representing the element
	ScriptArgument(ctx context.Context) (any, error)
}

// WrapsElement is implemented by handles that stand in for another element
type WrapsElement interface {
	WrappedElement(ctx context.Context) (Element, error)
}
