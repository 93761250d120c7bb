package content

import (
	"errors"
	"fmt"
)

// ErrPageOutOfRange is returned by Paginate for page numbers below 1 or
// beyond the last page.
var ErrPageOutOfRange = errors.New("page number out of range")

// ErrNotFound is returned when no entity matches a requested slug.
var ErrNotFound = errors.New("content not found")

// SlugCollisionError reports two items of one content type normalizing to
// the same slug. Collisions are fatal to the whole ingestion batch, never
// silently overwritten.
type SlugCollisionError struct {
	ContentType string
	Slug        string
}

func (e *SlugCollisionError) Error() string {
	return fmt.Sprintf("duplicate slug '%s' in content type '%s'", e.Slug, e.ContentType)
}
