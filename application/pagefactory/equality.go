package pagefactory

import (
	"context"

	"page_factory/domain/interfaces"

	"github.com/cespare/xxhash/v2"
)

// Equal reports whether two handles refer to the same DOM node. Proxies are resolved
// as a side effect. The comparison is symmetric.
func Equal(ctx context.Context, a, b interfaces.Element) (bool, error) {
	if a == nil || b == nil {
		return a == nil && b == nil, nil
	}
	idA, err := a.Identity(ctx)
	if err != nil {
		return false, err
	}
	idB, err := b.Identity(ctx)
	if err != nil {
		return false, err
	}
	return idA == idB, nil
}

// HashCode hashes the identity of the element a handle refers to
func HashCode(ctx context.Context, el interfaces.Element) (uint64, error) {
	id, err := el.Identity(ctx)
	if err != nil {
		return 0, err
	}
	return xxhash.Sum64String(id), nil
}
