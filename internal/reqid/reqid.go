// Package reqid generates the request identifiers the facade logs on
// entry and exit of every ParseFile call (spec §4.9).
package reqid

import (
	"github.com/gofrs/uuid"
)

// New returns a fresh random request id. It never errors in practice —
// gofrs/uuid's V4 generation only fails if the runtime's entropy source
// is broken — but on the rare failure it falls back to the nil UUID
// rather than panicking, since a degraded-but-present request id is
// preferable to crashing the request.
func New() string {
	id, err := uuid.NewV4()
	if err != nil {
		return uuid.Nil.String()
	}
	return id.String()
}
