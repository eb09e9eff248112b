package browser

import (
	"context"
	"fmt"

	"page_factory/domain/interfaces"
)

// maxUnwrapDepth bounds proxy-of-proxy chains
const maxUnwrapDepth = 8

// unwrapElement - returns the driver element behind el, resolving proxies on the way
func unwrapElement[T interfaces.Element](ctx context.Context, el interfaces.Element) (T, error) {
	var zero T
	for i := 0; i < maxUnwrapDepth; i++ {
		if native, ok := el.(T); ok {
			return native, nil
		}
		wrapper, ok := el.(interfaces.WrapsElement)
		if !ok {
			return zero, fmt.Errorf("element %T does not belong to this session", el)
		}
		inner, err := wrapper.WrappedElement(ctx)
		if err != nil {
			return zero, err
		}
		el = inner
	}
	return zero, fmt.Errorf("element %T wraps too many levels", el)
}

// scriptArguments converts element arguments into what the driver sends over the wire
func scriptArguments(ctx context.Context, args []any) ([]any, error) {
	out := make([]any, len(args))
	for i, arg := range args {
		sa, ok := arg.(interfaces.ScriptArgument)
		if !ok {
			out[i] = arg
			continue
		}
		native, err := sa.ScriptArgument(ctx)
		if err != nil {
			return nil, fmt.Errorf("script argument %d: %w", i, err)
		}
		out[i] = native
	}
	return out, nil
}
