package runtime

import "github.com/google/uuid"

// newUUIDHandle generates a fresh execution handle. uuid.New is
// effectively collision-free, satisfying the spec's "unique across the
// process lifetime" invariant without the registry needing to track
// issued handles itself.
func newUUIDHandle() Handle {
	return Handle(uuid.New().String())
}
