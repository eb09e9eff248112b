package interfaces

import "page_factory/domain/entities"

// PageStore persists page object declarations
type PageStore interface {
	// LoadPages returns every page declared in the store
	LoadPages() ([]entities.PageSpec, error)

	// SavePages replaces the stored declarations
	SavePages(pages []entities.PageSpec) error
}
